package output

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/bstardust/photo-frame-formatter/pkg/common"
	"github.com/bstardust/photo-frame-formatter/pkg/s3client"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestDir_ConcurrentPuts(t *testing.T) {
	root := filepath.Join(t.TempDir(), "frames")
	sink, err := Open(context.Background(), root, s3client.Config{})
	require.NoError(t, err)
	defer sink.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			data := []byte(fmt.Sprintf("frame-%d", i))
			assert.NoError(t, sink.Put(context.Background(), fmt.Sprintf("f%d.jpg", i), bytes.NewReader(data), int64(len(data)), "image/jpeg"))
		}(i)
	}
	wg.Wait()

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Len(t, entries, 8, "no attribute sidecars or temp files should remain")

	data, err := os.ReadFile(filepath.Join(root, "f3.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "frame-3", string(data))

	assert.FileExists(t, filepath.Join(root, "f7.jpg"))
}

func TestDir_Overwrite(t *testing.T) {
	sink, err := NewDir(t.TempDir())
	require.NoError(t, err)
	defer sink.Close()

	ctx := context.Background()
	require.NoError(t, sink.Put(ctx, "a.jpg", bytes.NewReader([]byte("one")), 3, "image/jpeg"))
	require.NoError(t, sink.Put(ctx, "a.jpg", bytes.NewReader([]byte("two")), 3, "image/jpeg"))

	data, err := os.ReadFile(filepath.Join(sink.String(), "a.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))
}

type MockS3Client struct {
	mock.Mock
}

func (m *MockS3Client) PutFrame(ctx context.Context, name string, r io.Reader, size int64, contentType string) error {
	args := m.Called(ctx, name, r, size, contentType)
	return args.Error(0)
}

func (m *MockS3Client) Location() string {
	args := m.Called()
	return args.String(0)
}

func TestS3_Put(t *testing.T) {
	client := new(MockS3Client)
	ctx := context.Background()

	client.On("PutFrame", ctx, "a.jpg", mock.Anything, int64(3), "image/jpeg").Return(nil).Once()
	client.On("PutFrame", ctx, "b.jpg", mock.Anything, int64(3), "image/jpeg").
		Return(minio.ErrorResponse{Code: "AccessDenied", Message: "denied"}).Once()
	client.On("PutFrame", ctx, "c.jpg", mock.Anything, int64(3), "image/jpeg").
		Return(errors.New("connection reset")).Once()
	client.On("Location").Return("s3://frames/den")

	sink := NewS3(client)
	assert.NoError(t, sink.Put(ctx, "a.jpg", bytes.NewReader([]byte("abc")), 3, "image/jpeg"))

	err := sink.Put(ctx, "b.jpg", bytes.NewReader([]byte("abc")), 3, "image/jpeg")
	var s3err *common.S3Error
	assert.True(t, errors.As(err, &s3err))
	assert.Contains(t, err.Error(), "AccessDenied")

	err = sink.Put(ctx, "c.jpg", bytes.NewReader([]byte("abc")), 3, "image/jpeg")
	assert.False(t, errors.As(err, &s3err))
	assert.ErrorContains(t, err, "connection reset")

	assert.Equal(t, "s3://frames/den", sink.String())
	client.AssertExpectations(t)
}

func TestOpen_S3NeedsCredentials(t *testing.T) {
	_, err := Open(context.Background(), "s3://frames/den", s3client.Config{})
	assert.ErrorContains(t, err, "endpoint")
}
