// internal/progress/reporter.go
package progress

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/bstardust/photo-frame-formatter/internal/logger"
	"github.com/bstardust/photo-frame-formatter/pkg/common"
	"github.com/bstardust/photo-frame-formatter/pkg/models"
	"github.com/corona10/goimagehash"
)

// Reporter tracks per-item outcomes of a batch. Items are discovered while
// the batch runs, so the total grows as work is queued.
type Reporter struct {
	mu             sync.Mutex
	total          int
	completed      int
	skipped        int
	errors         int
	results        []models.ItemResult
	hashes         map[string]*goimagehash.ImageHash
	startTime      time.Time
	lastUpdateTime time.Time
	updateInterval time.Duration
	// DuplicateDistance is the largest hamming distance between two frame
	// hashes still reported as duplicates.
	DuplicateDistance int
}

// New creates a new progress reporter
func New() *Reporter {
	return &Reporter{
		updateInterval: 2 * time.Second,
		hashes:         make(map[string]*goimagehash.ImageHash),
	}
}

// Start resets the reporter
func (r *Reporter) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.total = 0
	r.completed = 0
	r.skipped = 0
	r.errors = 0
	r.results = nil
	r.hashes = make(map[string]*goimagehash.ImageHash)
	r.startTime = time.Now()
	r.lastUpdateTime = time.Now()

	logger.Info("Starting photo frame formatting")
}

// Enqueue counts one more item to process
func (r *Reporter) Enqueue() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.total++
}

// Complete records a saved frame. hash may be nil.
func (r *Reporter) Complete(id, output string, hash *goimagehash.ImageHash) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := models.ItemResult{ID: id, Output: output, Outcome: models.OutcomeSucceeded}
	if hash != nil {
		res.Hash = hash.ToString()
		r.hashes[id] = hash
	}
	r.results = append(r.results, res)
	r.completed++
	r.updateProgress()
}

// Skip records an item that was deliberately not processed
func (r *Reporter) Skip(id, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.results = append(r.results, models.ItemResult{ID: id, Outcome: models.OutcomeSkipped, Reason: reason})
	r.skipped++
	r.updateProgress()
}

// Error records a failed item
func (r *Reporter) Error(id string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.results = append(r.results, models.ItemResult{
		ID:      id,
		Outcome: models.OutcomeFailed,
		Kind:    string(common.KindOf(err)),
		Reason:  err.Error(),
	})
	r.errors++
	r.updateProgress()
}

// Finish logs the summary and returns the batch report
func (r *Reporter) Finish() models.Report {
	r.mu.Lock()
	defer r.mu.Unlock()

	duration := time.Since(r.startTime)

	items := make([]models.ItemResult, len(r.results))
	copy(items, r.results)
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })

	report := models.Report{
		Total:      r.total,
		Succeeded:  r.completed,
		Skipped:    r.skipped,
		Failed:     r.errors,
		Duration:   duration.Round(time.Millisecond).String(),
		Items:      items,
		Duplicates: r.duplicates(items),
	}

	logger.Info("Formatting complete: %d/%d photos saved, %d skipped, %d errors in %s",
		r.completed, r.total, r.skipped, r.errors, duration.Round(time.Second))
	for _, item := range report.Problems() {
		logger.Warn("%s %s: %s", item.Outcome, item.ID, item.Reason)
	}
	for _, dup := range report.Duplicates {
		logger.Warn("Frames look identical: %v", dup.Items)
	}

	return report
}

// duplicates groups succeeded items whose hashes are within DuplicateDistance
func (r *Reporter) duplicates(items []models.ItemResult) []models.Duplicate {
	type group struct {
		hash *goimagehash.ImageHash
		ids  []string
	}
	var groups []*group

	for _, item := range items {
		h, ok := r.hashes[item.ID]
		if !ok {
			continue
		}
		var joined bool
		for _, g := range groups {
			d, err := g.hash.Distance(h)
			if err == nil && d <= r.DuplicateDistance {
				g.ids = append(g.ids, item.ID)
				joined = true
				break
			}
		}
		if !joined {
			groups = append(groups, &group{hash: h, ids: []string{item.ID}})
		}
	}

	var dups []models.Duplicate
	for _, g := range groups {
		if len(g.ids) > 1 {
			dups = append(dups, models.Duplicate{Hash: g.hash.ToString(), Items: g.ids})
		}
	}
	return dups
}

// updateProgress updates and displays the progress
func (r *Reporter) updateProgress() {
	now := time.Now()
	if now.Sub(r.lastUpdateTime) < r.updateInterval {
		return
	}

	r.lastUpdateTime = now
	processed := r.completed + r.skipped + r.errors
	if processed == 0 || r.total == 0 {
		return
	}

	percentage := float64(processed) / float64(r.total) * 100
	logger.Info("Progress: %.1f%% (%d/%d, %d saved, %d skipped, %d errors)",
		percentage, processed, r.total, r.completed, r.skipped, r.errors)
}

// WriteReport stores the report as indented JSON
func WriteReport(path string, report models.Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}
	return nil
}
