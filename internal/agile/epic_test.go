package agile

import (
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/balkashynov/plank/internal/models"
)

func newEpicTracker(t *testing.T) (*gorm.DB, *EpicTracker) {
	t.Helper()
	gdb := openTestDB(t)
	return gdb, NewEpicTracker(gdb, NewStoreSource(gdb))
}

func TestCreateEpicValidation(t *testing.T) {
	_, tracker := newEpicTracker(t)

	if _, err := tracker.Create(1, "   "); !errors.Is(err, ErrValidation) {
		t.Errorf("blank title error = %v, want ErrValidation", err)
	}

	epic, err := tracker.Create(1, "  User onboarding  ")
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if epic.Title != "User onboarding" {
		t.Errorf("title = %q, want trimmed %q", epic.Title, "User onboarding")
	}
	if epic.Status != models.EpicOpen {
		t.Errorf("new epic status = %q, want %q", epic.Status, models.EpicOpen)
	}
}

func TestEpicTransitions(t *testing.T) {
	_, tracker := newEpicTracker(t)

	epic, err := tracker.Create(1, "Payments")
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	// Complete and reopen are illegal before the epic starts
	if _, err := tracker.Complete(epic.ID); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Complete() on open epic error = %v, want ErrInvalidState", err)
	}
	if _, err := tracker.Reopen(epic.ID); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Reopen() on open epic error = %v, want ErrInvalidState", err)
	}

	// Walk the full lifecycle
	if _, err := tracker.Start(epic.ID); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if _, err := tracker.Start(epic.ID); !errors.Is(err, ErrInvalidState) {
		t.Errorf("second Start() error = %v, want ErrInvalidState", err)
	}
	if _, err := tracker.Complete(epic.ID); err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	reopened, err := tracker.Reopen(epic.ID)
	if err != nil {
		t.Fatalf("Reopen() error: %v", err)
	}
	if reopened.Status != models.EpicInProgress {
		t.Errorf("status after reopen = %q, want %q", reopened.Status, models.EpicInProgress)
	}

	if _, err := tracker.Start(9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown epic error = %v, want ErrNotFound", err)
	}
}

func TestEpicRollup(t *testing.T) {
	gdb, tracker := newEpicTracker(t)

	epic, err := tracker.Create(1, "Search")
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	done := makeIssue(t, gdb, 1, models.StatusDone, 8)
	inProgress := makeIssue(t, gdb, 1, models.StatusInProgress, 5)
	todo := makeIssue(t, gdb, 1, models.StatusTodo, 3)
	for _, issue := range []*models.WorkItem{done, inProgress, todo} {
		if _, err := tracker.AddWorkItem(epic.ID, issue.ID); err != nil {
			t.Fatalf("AddWorkItem() error: %v", err)
		}
	}

	updated, err := tracker.Get(epic.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if updated.TotalIssues != 3 || updated.CompletedIssues != 1 {
		t.Errorf("issues = %d total / %d completed, want 3/1", updated.TotalIssues, updated.CompletedIssues)
	}
	if updated.TotalStoryPoints != 16 || updated.CompletedStoryPoints != 8 {
		t.Errorf("points = %d total / %d completed, want 16/8", updated.TotalStoryPoints, updated.CompletedStoryPoints)
	}
	if updated.ProgressPercentage != 50 {
		t.Errorf("ProgressPercentage = %d, want 50 (points based)", updated.ProgressPercentage)
	}

	// Removing the only completed member drops progress back to zero
	if _, err := tracker.RemoveWorkItem(epic.ID, done.ID); err != nil {
		t.Fatalf("RemoveWorkItem() error: %v", err)
	}
	updated, err = tracker.Get(epic.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if updated.TotalIssues != 2 || updated.ProgressPercentage != 0 {
		t.Errorf("after removal: %d issues at %d%%, want 2 issues at 0%%", updated.TotalIssues, updated.ProgressPercentage)
	}
}

func TestEpicRollupUnestimatedMembers(t *testing.T) {
	gdb, tracker := newEpicTracker(t)

	epic, err := tracker.Create(1, "Cleanup")
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	// All members unestimated: progress stays 0 even with completions
	doneIssue := makeIssue(t, gdb, 1, models.StatusDone, 0)
	todoIssue := makeIssue(t, gdb, 1, models.StatusTodo, 0)
	for _, issue := range []*models.WorkItem{doneIssue, todoIssue} {
		if _, err := tracker.AddWorkItem(epic.ID, issue.ID); err != nil {
			t.Fatalf("AddWorkItem() error: %v", err)
		}
	}

	updated, err := tracker.Get(epic.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if updated.ProgressPercentage != 0 {
		t.Errorf("ProgressPercentage = %d, want 0 with no estimated points", updated.ProgressPercentage)
	}
	if updated.CompletedIssues != 1 {
		t.Errorf("CompletedIssues = %d, want 1", updated.CompletedIssues)
	}
}

func TestEpicReassignmentRecomputesBoth(t *testing.T) {
	gdb, tracker := newEpicTracker(t)

	first, err := tracker.Create(1, "First")
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	second, err := tracker.Create(1, "Second")
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	issue := makeIssue(t, gdb, 1, models.StatusDone, 8)

	if _, err := tracker.AddWorkItem(first.ID, issue.ID); err != nil {
		t.Fatalf("AddWorkItem() error: %v", err)
	}
	if _, err := tracker.AddWorkItem(second.ID, issue.ID); err != nil {
		t.Fatalf("reassigning AddWorkItem() error: %v", err)
	}

	reloadedFirst, err := tracker.Get(first.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	reloadedSecond, err := tracker.Get(second.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if reloadedFirst.TotalIssues != 0 || reloadedFirst.TotalStoryPoints != 0 {
		t.Errorf("first epic = %d issues / %d points, want 0/0 after reassignment", reloadedFirst.TotalIssues, reloadedFirst.TotalStoryPoints)
	}
	if reloadedSecond.TotalIssues != 1 || reloadedSecond.CompletedStoryPoints != 8 {
		t.Errorf("second epic = %d issues / %d completed points, want 1/8", reloadedSecond.TotalIssues, reloadedSecond.CompletedStoryPoints)
	}
}

func TestEpicMembershipConflicts(t *testing.T) {
	gdb, tracker := newEpicTracker(t)

	epic, err := tracker.Create(1, "Auth")
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	issue := makeIssue(t, gdb, 1, models.StatusTodo, 5)

	if _, err := tracker.AddWorkItem(epic.ID, issue.ID); err != nil {
		t.Fatalf("AddWorkItem() error: %v", err)
	}
	if _, err := tracker.AddWorkItem(epic.ID, issue.ID); !errors.Is(err, ErrConflict) {
		t.Errorf("re-add error = %v, want ErrConflict", err)
	}

	outsider := makeIssue(t, gdb, 1, models.StatusTodo, 3)
	if _, err := tracker.RemoveWorkItem(epic.ID, outsider.ID); !errors.Is(err, ErrConflict) {
		t.Errorf("remove non-member error = %v, want ErrConflict", err)
	}

	if _, err := tracker.AddWorkItem(epic.ID, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("add unknown issue error = %v, want ErrNotFound", err)
	}
}
