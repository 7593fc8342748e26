package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"research-hand/models"
)

func TestTrackerSnapshotReflectsCallbacks(t *testing.T) {
	tracker := NewSearchTracker()

	tracker.Begin()
	tracker.OnProgress(models.ProgressState{Status: "Researching sources...", Completed: 10, Total: 100, Percentage: 10})
	tracker.OnActivity([]models.ActivityItem{
		NewActivityEntry(models.ActivityAnalyzing, "Analyzing research query...", ""),
	})

	running, progress, activities := tracker.Snapshot()
	assert.True(t, running)
	assert.Equal(t, 10, progress.Percentage)
	assert.Len(t, activities, 1)

	tracker.Finish()
	running, _, _ = tracker.Snapshot()
	assert.False(t, running)
}

func TestTrackerBeginResetsPreviousRun(t *testing.T) {
	tracker := NewSearchTracker()
	tracker.OnProgress(models.ProgressState{Percentage: 100})
	tracker.OnActivity([]models.ActivityItem{
		NewActivityEntry(models.ActivityError, "Research failed", ""),
	})

	tracker.Begin()

	running, progress, activities := tracker.Snapshot()
	assert.True(t, running)
	assert.Zero(t, progress.Percentage)
	assert.Empty(t, activities)
}
