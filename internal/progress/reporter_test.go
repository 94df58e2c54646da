package progress

import (
	"encoding/json"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/bstardust/photo-frame-formatter/internal/exif/exiftest"
	"github.com/bstardust/photo-frame-formatter/pkg/common"
	"github.com/bstardust/photo-frame-formatter/pkg/models"
	"github.com/corona10/goimagehash"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReporter_Finish(t *testing.T) {
	r := New()
	r.Start()
	for i := 0; i < 4; i++ {
		r.Enqueue()
	}

	r.Complete("b.jpg", "bjpg.jpg", nil)
	r.Skip("video-1", "video entry")
	r.Error("c.jpg", common.NewItemError(common.KindSourceRead, "c.jpg", errors.New("not an image")))
	r.Error("d.jpg", errors.New("boom"))

	report := r.Finish()
	assert.Equal(t, 4, report.Total)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 2, report.Failed)

	require.Len(t, report.Items, 4)
	assert.Equal(t, "b.jpg", report.Items[0].ID)
	assert.Equal(t, "c.jpg", report.Items[1].ID)
	assert.Equal(t, "source_read", report.Items[1].Kind)
	assert.Equal(t, "", report.Items[2].Kind)

	problems := report.Problems()
	assert.Len(t, problems, 3)
	assert.Empty(t, report.Duplicates)
}

func TestReporter_Duplicates(t *testing.T) {
	same := exiftest.Image(64, 64)
	other := imaging.New(64, 64, color.White)
	for y := 0; y < 32; y++ {
		for x := 0; x < 64; x++ {
			other.Set(x, y, color.Black)
		}
	}

	h1, err := goimagehash.AverageHash(same)
	require.NoError(t, err)
	h2, err := goimagehash.AverageHash(imaging.Clone(same))
	require.NoError(t, err)
	h3, err := goimagehash.AverageHash(other)
	require.NoError(t, err)

	r := New()
	r.Start()
	r.Complete("a", "a.jpg", h1)
	r.Complete("b", "b.jpg", h2)
	r.Complete("c", "c.jpg", h3)

	report := r.Finish()
	require.Len(t, report.Duplicates, 1)
	assert.Equal(t, []string{"a", "b"}, report.Duplicates[0].Items)
}

func TestWriteReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	in := models.Report{Total: 1, Succeeded: 1, Items: []models.ItemResult{{ID: "a", Outcome: models.OutcomeSucceeded}}}
	require.NoError(t, WriteReport(path, in))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var out models.Report
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in.Items, out.Items)
}
