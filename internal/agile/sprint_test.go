package agile

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/balkashynov/plank/internal/db"
	"github.com/balkashynov/plank/internal/models"
)

// Fixed clock for deterministic metrics
var testClock = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := db.Open(filepath.Join(t.TempDir(), "plank.db"))
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	return gdb
}

func newSprintEngine(t *testing.T) (*gorm.DB, *SprintEngine) {
	t.Helper()
	gdb := openTestDB(t)
	engine := NewSprintEngine(gdb, NewStoreSource(gdb))
	engine.now = func() time.Time { return testClock }
	return gdb, engine
}

func makeIssue(t *testing.T, gdb *gorm.DB, projectID uint, status string, points int) *models.WorkItem {
	t.Helper()
	item := models.WorkItem{ProjectID: projectID, Title: "test issue", Status: status}
	if points > 0 {
		item.StoryPoints = &points
	}
	if err := gdb.Create(&item).Error; err != nil {
		t.Fatalf("create issue: %v", err)
	}
	return &item
}

func makeSprint(t *testing.T, engine *SprintEngine, projectID uint) *models.Sprint {
	t.Helper()
	start := testClock.AddDate(0, 0, -5)
	end := testClock.AddDate(0, 0, 5)
	sprint, err := engine.Create(projectID, "Sprint 1", "ship it", start, end)
	if err != nil {
		t.Fatalf("create sprint: %v", err)
	}
	return sprint
}

func TestCreateSprintValidation(t *testing.T) {
	_, engine := newSprintEngine(t)

	start := testClock
	end := testClock.AddDate(0, 0, 14)

	tests := []struct {
		name       string
		sprintName string
		start      time.Time
		end        time.Time
		wantErr    error
	}{
		{"valid", "Sprint 1", start, end, nil},
		{"name too short", "s", start, end, ErrValidation},
		{"name only spaces", "   ", start, end, ErrValidation},
		{"end before start", "Sprint 2", end, start, ErrValidation},
		{"end equals start", "Sprint 3", start, start, ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sprint, err := engine.Create(1, tt.sprintName, "", tt.start, tt.end)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Create() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Create() unexpected error: %v", err)
			}
			if sprint.Status != models.SprintPlanning {
				t.Errorf("new sprint status = %q, want %q", sprint.Status, models.SprintPlanning)
			}
		})
	}
}

func TestSprintStartRequiresIssues(t *testing.T) {
	gdb, engine := newSprintEngine(t)
	sprint := makeSprint(t, engine, 1)

	if _, err := engine.Start(sprint.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("Start() on empty sprint error = %v, want ErrInvalidState", err)
	}

	issue := makeIssue(t, gdb, 1, models.StatusTodo, 5)
	if _, err := engine.AddWorkItem(sprint.ID, issue.ID); err != nil {
		t.Fatalf("AddWorkItem() error: %v", err)
	}

	started, err := engine.Start(sprint.ID)
	if err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if started.Status != models.SprintActive {
		t.Errorf("status after start = %q, want %q", started.Status, models.SprintActive)
	}

	// Starting twice is an invalid transition
	if _, err := engine.Start(sprint.ID); !errors.Is(err, ErrInvalidState) {
		t.Errorf("second Start() error = %v, want ErrInvalidState", err)
	}
}

func TestSprintCompleteRecordsVelocity(t *testing.T) {
	gdb, engine := newSprintEngine(t)
	sprint := makeSprint(t, engine, 1)

	done := makeIssue(t, gdb, 1, models.StatusDone, 8)
	todo := makeIssue(t, gdb, 1, models.StatusTodo, 5)
	for _, issue := range []*models.WorkItem{done, todo} {
		if _, err := engine.AddWorkItem(sprint.ID, issue.ID); err != nil {
			t.Fatalf("AddWorkItem() error: %v", err)
		}
	}
	if _, err := engine.Start(sprint.ID); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	completed, err := engine.Complete(sprint.ID)
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if completed.Status != models.SprintCompleted {
		t.Errorf("status = %q, want %q", completed.Status, models.SprintCompleted)
	}
	if completed.CompletedAt == nil || !completed.CompletedAt.Equal(testClock) {
		t.Errorf("CompletedAt = %v, want %v", completed.CompletedAt, testClock)
	}

	var records []models.VelocityRecord
	if err := gdb.Find(&records).Error; err != nil {
		t.Fatalf("load velocity records: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("velocity records = %d, want 1", len(records))
	}
	if records[0].PlannedPoints != 13 || records[0].CompletedPoints != 8 {
		t.Errorf("record = %d planned / %d completed, want 13/8", records[0].PlannedPoints, records[0].CompletedPoints)
	}
	if records[0].SprintName != sprint.Name {
		t.Errorf("record sprint name = %q, want %q", records[0].SprintName, sprint.Name)
	}

	// Completing twice is an invalid transition
	if _, err := engine.Complete(sprint.ID); !errors.Is(err, ErrInvalidState) {
		t.Errorf("second Complete() error = %v, want ErrInvalidState", err)
	}
}

func TestSprintCompleteRollsBackOnFailure(t *testing.T) {
	gdb, engine := newSprintEngine(t)
	sprint := makeSprint(t, engine, 1)

	issue := makeIssue(t, gdb, 1, models.StatusTodo, 8)
	if _, err := engine.AddWorkItem(sprint.ID, issue.ID); err != nil {
		t.Fatalf("AddWorkItem() error: %v", err)
	}
	if _, err := engine.Start(sprint.ID); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	// Finish the issue behind the engine's back so the completion has a
	// counter refresh to persist
	if err := gdb.Model(issue).Update("status", models.StatusDone).Error; err != nil {
		t.Fatalf("update issue status: %v", err)
	}

	// Sabotage the velocity insert so the transaction fails after the
	// counters were refreshed
	if err := gdb.Migrator().DropTable(&models.VelocityRecord{}); err != nil {
		t.Fatalf("drop velocity table: %v", err)
	}

	if _, err := engine.Complete(sprint.ID); err == nil {
		t.Fatal("Complete() succeeded without a velocity table")
	}

	// The failed completion must leave the sprint untouched, counter
	// refresh included
	var reloaded models.Sprint
	if err := gdb.First(&reloaded, sprint.ID).Error; err != nil {
		t.Fatalf("reload sprint: %v", err)
	}
	if reloaded.Status != models.SprintActive {
		t.Errorf("status = %q, want %q after rollback", reloaded.Status, models.SprintActive)
	}
	if reloaded.CompletedAt != nil {
		t.Errorf("CompletedAt = %v, want nil after rollback", reloaded.CompletedAt)
	}
	if reloaded.CompletedStoryPoints != 0 {
		t.Errorf("CompletedStoryPoints = %d, want 0 after rollback", reloaded.CompletedStoryPoints)
	}
}

func TestSprintCancel(t *testing.T) {
	gdb, engine := newSprintEngine(t)

	t.Run("from planning", func(t *testing.T) {
		sprint := makeSprint(t, engine, 1)
		cancelled, err := engine.Cancel(sprint.ID)
		if err != nil {
			t.Fatalf("Cancel() error: %v", err)
		}
		if cancelled.Status != models.SprintCancelled {
			t.Errorf("status = %q, want %q", cancelled.Status, models.SprintCancelled)
		}
	})

	t.Run("from active", func(t *testing.T) {
		sprint := makeSprint(t, engine, 2)
		issue := makeIssue(t, gdb, 2, models.StatusTodo, 3)
		if _, err := engine.AddWorkItem(sprint.ID, issue.ID); err != nil {
			t.Fatalf("AddWorkItem() error: %v", err)
		}
		if _, err := engine.Start(sprint.ID); err != nil {
			t.Fatalf("Start() error: %v", err)
		}
		if _, err := engine.Cancel(sprint.ID); err != nil {
			t.Fatalf("Cancel() error: %v", err)
		}
	})

	t.Run("completed cannot be cancelled", func(t *testing.T) {
		sprint := makeSprint(t, engine, 3)
		issue := makeIssue(t, gdb, 3, models.StatusDone, 2)
		if _, err := engine.AddWorkItem(sprint.ID, issue.ID); err != nil {
			t.Fatalf("AddWorkItem() error: %v", err)
		}
		if _, err := engine.Start(sprint.ID); err != nil {
			t.Fatalf("Start() error: %v", err)
		}
		if _, err := engine.Complete(sprint.ID); err != nil {
			t.Fatalf("Complete() error: %v", err)
		}
		if _, err := engine.Cancel(sprint.ID); !errors.Is(err, ErrInvalidState) {
			t.Errorf("Cancel() on completed error = %v, want ErrInvalidState", err)
		}
	})
}

func TestSprintDeleteReleasesMembers(t *testing.T) {
	gdb, engine := newSprintEngine(t)
	sprint := makeSprint(t, engine, 1)
	issue := makeIssue(t, gdb, 1, models.StatusTodo, 5)

	if _, err := engine.AddWorkItem(sprint.ID, issue.ID); err != nil {
		t.Fatalf("AddWorkItem() error: %v", err)
	}

	if err := engine.Delete(sprint.ID); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}

	if _, err := engine.Get(sprint.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}

	var reloaded models.WorkItem
	if err := gdb.First(&reloaded, issue.ID).Error; err != nil {
		t.Fatalf("reload issue: %v", err)
	}
	if reloaded.SprintID != nil {
		t.Errorf("issue still assigned to sprint #%d after delete", *reloaded.SprintID)
	}
}

func TestCompletedSprintCannotBeDeleted(t *testing.T) {
	gdb, engine := newSprintEngine(t)
	sprint := makeSprint(t, engine, 1)
	issue := makeIssue(t, gdb, 1, models.StatusDone, 5)

	if _, err := engine.AddWorkItem(sprint.ID, issue.ID); err != nil {
		t.Fatalf("AddWorkItem() error: %v", err)
	}
	if _, err := engine.Start(sprint.ID); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if _, err := engine.Complete(sprint.ID); err != nil {
		t.Fatalf("Complete() error: %v", err)
	}

	if err := engine.Delete(sprint.ID); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Delete() on completed sprint error = %v, want ErrInvalidState", err)
	}
}

func TestAddWorkItemConflicts(t *testing.T) {
	gdb, engine := newSprintEngine(t)
	first := makeSprint(t, engine, 1)
	second, err := engine.Create(1, "Sprint 2", "", testClock, testClock.AddDate(0, 0, 14))
	if err != nil {
		t.Fatalf("create second sprint: %v", err)
	}
	issue := makeIssue(t, gdb, 1, models.StatusTodo, 5)

	if _, err := engine.AddWorkItem(first.ID, issue.ID); err != nil {
		t.Fatalf("AddWorkItem() error: %v", err)
	}

	if _, err := engine.AddWorkItem(first.ID, issue.ID); !errors.Is(err, ErrConflict) {
		t.Errorf("re-add to same sprint error = %v, want ErrConflict", err)
	}
	if _, err := engine.AddWorkItem(second.ID, issue.ID); !errors.Is(err, ErrConflict) {
		t.Errorf("add to second sprint error = %v, want ErrConflict", err)
	}

	if _, err := engine.AddWorkItem(first.ID, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("add unknown issue error = %v, want ErrNotFound", err)
	}
}

func TestAddWorkItemToClosedSprint(t *testing.T) {
	gdb, engine := newSprintEngine(t)
	sprint := makeSprint(t, engine, 1)

	if _, err := engine.Cancel(sprint.ID); err != nil {
		t.Fatalf("Cancel() error: %v", err)
	}

	issue := makeIssue(t, gdb, 1, models.StatusTodo, 5)
	if _, err := engine.AddWorkItem(sprint.ID, issue.ID); !errors.Is(err, ErrInvalidState) {
		t.Errorf("add to cancelled sprint error = %v, want ErrInvalidState", err)
	}
}

func TestRemoveWorkItem(t *testing.T) {
	gdb, engine := newSprintEngine(t)
	sprint := makeSprint(t, engine, 1)
	member := makeIssue(t, gdb, 1, models.StatusTodo, 5)
	outsider := makeIssue(t, gdb, 1, models.StatusTodo, 3)

	if _, err := engine.AddWorkItem(sprint.ID, member.ID); err != nil {
		t.Fatalf("AddWorkItem() error: %v", err)
	}

	if _, err := engine.RemoveWorkItem(sprint.ID, outsider.ID); !errors.Is(err, ErrConflict) {
		t.Errorf("remove non-member error = %v, want ErrConflict", err)
	}

	updated, err := engine.RemoveWorkItem(sprint.ID, member.ID)
	if err != nil {
		t.Fatalf("RemoveWorkItem() error: %v", err)
	}
	if updated.TotalIssues != 0 || updated.PlannedStoryPoints != 0 {
		t.Errorf("counters after remove = %d issues / %d points, want 0/0", updated.TotalIssues, updated.PlannedStoryPoints)
	}

	// Removing again is a conflict, the item is gone
	if _, err := engine.RemoveWorkItem(sprint.ID, member.ID); !errors.Is(err, ErrConflict) {
		t.Errorf("second remove error = %v, want ErrConflict", err)
	}
}

func TestSprintCounters(t *testing.T) {
	gdb, engine := newSprintEngine(t)
	sprint := makeSprint(t, engine, 1)

	issues := []*models.WorkItem{
		makeIssue(t, gdb, 1, models.StatusDone, 8),
		makeIssue(t, gdb, 1, models.StatusDone, 3),
		makeIssue(t, gdb, 1, models.StatusInProgress, 5),
		makeIssue(t, gdb, 1, models.StatusTodo, 0), // unestimated
	}
	for _, issue := range issues {
		if _, err := engine.AddWorkItem(sprint.ID, issue.ID); err != nil {
			t.Fatalf("AddWorkItem() error: %v", err)
		}
	}

	updated, err := engine.Get(sprint.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}

	if updated.TotalIssues != 4 {
		t.Errorf("TotalIssues = %d, want 4", updated.TotalIssues)
	}
	if updated.CompletedIssues != 2 {
		t.Errorf("CompletedIssues = %d, want 2", updated.CompletedIssues)
	}
	if updated.PlannedStoryPoints != 16 {
		t.Errorf("PlannedStoryPoints = %d, want 16", updated.PlannedStoryPoints)
	}
	if updated.CompletedStoryPoints != 11 {
		t.Errorf("CompletedStoryPoints = %d, want 11", updated.CompletedStoryPoints)
	}
	if updated.CompletedIssues > updated.TotalIssues {
		t.Errorf("completed %d exceeds total %d", updated.CompletedIssues, updated.TotalIssues)
	}
}

func TestActiveSprint(t *testing.T) {
	gdb, engine := newSprintEngine(t)

	active, err := engine.Active(1)
	if err != nil {
		t.Fatalf("Active() error: %v", err)
	}
	if active != nil {
		t.Fatalf("Active() = %+v, want nil when no sprint is running", active)
	}

	sprint := makeSprint(t, engine, 1)
	issue := makeIssue(t, gdb, 1, models.StatusTodo, 5)
	if _, err := engine.AddWorkItem(sprint.ID, issue.ID); err != nil {
		t.Fatalf("AddWorkItem() error: %v", err)
	}
	if _, err := engine.Start(sprint.ID); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	active, err = engine.Active(1)
	if err != nil {
		t.Fatalf("Active() error: %v", err)
	}
	if active == nil || active.ID != sprint.ID {
		t.Errorf("Active() = %+v, want sprint #%d", active, sprint.ID)
	}
}

func TestActiveSprintPropagatesStoreErrors(t *testing.T) {
	gdb, engine := newSprintEngine(t)

	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("unwrap connection pool: %v", err)
	}
	sqlDB.Close()

	// A broken store is an error, not "no active sprint"
	if _, err := engine.Active(1); err == nil {
		t.Error("Active() error = nil on a closed database")
	}
}

func TestSprintStatistics(t *testing.T) {
	gdb, engine := newSprintEngine(t)
	sprint := makeSprint(t, engine, 1)

	issues := []*models.WorkItem{
		makeIssue(t, gdb, 1, models.StatusDone, 5),
		makeIssue(t, gdb, 1, models.StatusInProgress, 3),
		makeIssue(t, gdb, 1, models.StatusReview, 2), // review counts as in progress
		makeIssue(t, gdb, 1, models.StatusBlocked, 8),
		makeIssue(t, gdb, 1, models.StatusTodo, 1),
	}
	for _, issue := range issues {
		if _, err := engine.AddWorkItem(sprint.ID, issue.ID); err != nil {
			t.Fatalf("AddWorkItem() error: %v", err)
		}
	}
	if _, err := engine.Start(sprint.ID); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	stats, err := engine.Statistics(sprint.ID)
	if err != nil {
		t.Fatalf("Statistics() error: %v", err)
	}

	if stats.TotalIssues != 5 || stats.CompletedIssues != 1 {
		t.Errorf("issues = %d total / %d completed, want 5/1", stats.TotalIssues, stats.CompletedIssues)
	}
	if stats.InProgressIssues != 2 {
		t.Errorf("InProgressIssues = %d, want 2 (review included)", stats.InProgressIssues)
	}
	if stats.BlockedIssues != 1 || stats.TodoIssues != 1 {
		t.Errorf("blocked/todo = %d/%d, want 1/1", stats.BlockedIssues, stats.TodoIssues)
	}
	if stats.TotalStoryPoints != 19 || stats.CompletedStoryPoints != 5 {
		t.Errorf("points = %d total / %d completed, want 19/5", stats.TotalStoryPoints, stats.CompletedStoryPoints)
	}
	if stats.CompletionRate != 20 {
		t.Errorf("CompletionRate = %d, want 20", stats.CompletionRate)
	}
	if stats.Velocity != 5 {
		t.Errorf("Velocity = %d, want 5", stats.Velocity)
	}
}

func TestVelocityReportFromCompletedSprints(t *testing.T) {
	gdb, engine := newSprintEngine(t)

	// Complete three sprints with rising output
	for i, points := range []int{5, 8, 13} {
		sprint, err := engine.Create(1, "Sprint", "", testClock.AddDate(0, 0, i*14), testClock.AddDate(0, 0, (i+1)*14))
		if err != nil {
			t.Fatalf("create sprint: %v", err)
		}
		issue := makeIssue(t, gdb, 1, models.StatusDone, points)
		if _, err := engine.AddWorkItem(sprint.ID, issue.ID); err != nil {
			t.Fatalf("AddWorkItem() error: %v", err)
		}
		if _, err := engine.Start(sprint.ID); err != nil {
			t.Fatalf("Start() error: %v", err)
		}
		if _, err := engine.Complete(sprint.ID); err != nil {
			t.Fatalf("Complete() error: %v", err)
		}
	}

	report, err := engine.Velocity(1)
	if err != nil {
		t.Fatalf("Velocity() error: %v", err)
	}

	if len(report.Sprints) != 3 {
		t.Fatalf("sprints in report = %d, want 3", len(report.Sprints))
	}
	wantAvg := (5.0 + 8.0 + 13.0) / 3.0
	if report.AverageVelocity != wantAvg {
		t.Errorf("AverageVelocity = %v, want %v", report.AverageVelocity, wantAvg)
	}
	if report.Trend != VelocityIncreasing {
		t.Errorf("Trend = %q, want %q", report.Trend, VelocityIncreasing)
	}
	if report.PredictedNextVelocity != wantAvg {
		t.Errorf("PredictedNextVelocity = %v, want %v", report.PredictedNextVelocity, wantAvg)
	}
}
