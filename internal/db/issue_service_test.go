package db

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/balkashynov/plank/internal/models"
)

func setupTestDB(t *testing.T) {
	t.Helper()
	gdb, err := Open(filepath.Join(t.TempDir(), "plank.db"))
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	DB = gdb
}

func TestCreateIssue(t *testing.T) {
	setupTestDB(t)

	points := 5
	issue, err := CreateIssue(CreateIssueRequest{
		ProjectID:   1,
		Title:       "Fix login flow",
		Labels:      []string{"auth", "backend"},
		Priority:    "high",
		StoryPoints: &points,
	})
	if err != nil {
		t.Fatalf("CreateIssue() error: %v", err)
	}

	if issue.Status != models.StatusTodo {
		t.Errorf("new issue status = %q, want %q", issue.Status, models.StatusTodo)
	}
	if issue.Priority != 3 {
		t.Errorf("priority = %d, want 3 for high", issue.Priority)
	}
	if issue.StoryPoints == nil || *issue.StoryPoints != 5 {
		t.Errorf("story points = %v, want 5", issue.StoryPoints)
	}
	if len(issue.Labels) != 2 {
		t.Errorf("labels = %d, want 2", len(issue.Labels))
	}
}

func TestCreateIssueValidation(t *testing.T) {
	setupTestDB(t)

	if _, err := CreateIssue(CreateIssueRequest{ProjectID: 1, Title: "  "}); err == nil {
		t.Error("CreateIssue() with blank title succeeded, want error")
	}

	four := 4
	_, err := CreateIssue(CreateIssueRequest{ProjectID: 1, Title: "Off scale", StoryPoints: &four})
	if err == nil || !strings.Contains(err.Error(), "story points") {
		t.Errorf("CreateIssue() with off-scale points error = %v, want story points error", err)
	}
}

func TestCreateIssueReusesLabels(t *testing.T) {
	setupTestDB(t)

	first, err := CreateIssue(CreateIssueRequest{ProjectID: 1, Title: "First", Labels: []string{"auth"}})
	if err != nil {
		t.Fatalf("CreateIssue() error: %v", err)
	}
	second, err := CreateIssue(CreateIssueRequest{ProjectID: 1, Title: "Second", Labels: []string{"auth"}})
	if err != nil {
		t.Fatalf("CreateIssue() error: %v", err)
	}

	if first.Labels[0].ID != second.Labels[0].ID {
		t.Errorf("label ids differ (%d vs %d), want the same label reused", first.Labels[0].ID, second.Labels[0].ID)
	}

	var count int64
	if err := DB.Model(&models.Label{}).Count(&count).Error; err != nil {
		t.Fatalf("count labels: %v", err)
	}
	if count != 1 {
		t.Errorf("label count = %d, want 1", count)
	}
}

func TestParsePriority(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"", 0},
		{"low", 1},
		{"medium", 2},
		{"high", 3},
		{"HIGH", 3},
		{"1", 1},
		{"2", 2},
		{"3", 3},
		{"urgent", 0},
	}

	for _, tt := range tests {
		if got := parsePriority(tt.input); got != tt.want {
			t.Errorf("parsePriority(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestSetIssueStatus(t *testing.T) {
	setupTestDB(t)

	issue, err := CreateIssue(CreateIssueRequest{ProjectID: 1, Title: "Track me"})
	if err != nil {
		t.Fatalf("CreateIssue() error: %v", err)
	}

	if _, err := SetIssueStatus(issue.ID, "shipped"); err == nil {
		t.Error("SetIssueStatus() with unknown status succeeded, want error")
	}
	if _, err := SetIssueStatus(issue.ID, models.StatusTodo); err == nil {
		t.Error("SetIssueStatus() with unchanged status succeeded, want error")
	}

	change, err := SetIssueStatus(issue.ID, models.StatusInProgress)
	if err != nil {
		t.Fatalf("SetIssueStatus() error: %v", err)
	}
	if change.OldStatus != models.StatusTodo || change.NewStatus != models.StatusInProgress {
		t.Errorf("change = %q -> %q, want todo -> in_progress", change.OldStatus, change.NewStatus)
	}
	if change.Issue.Status != models.StatusInProgress {
		t.Errorf("issue status = %q, want %q", change.Issue.Status, models.StatusInProgress)
	}
}

func TestEstimateIssue(t *testing.T) {
	setupTestDB(t)

	issue, err := CreateIssue(CreateIssueRequest{ProjectID: 1, Title: "Estimate me"})
	if err != nil {
		t.Fatalf("CreateIssue() error: %v", err)
	}

	if _, err := EstimateIssue(issue.ID, 4); err == nil {
		t.Error("EstimateIssue(4) succeeded, want error for off-scale value")
	}

	updated, err := EstimateIssue(issue.ID, 13)
	if err != nil {
		t.Fatalf("EstimateIssue() error: %v", err)
	}
	if updated.StoryPoints == nil || *updated.StoryPoints != 13 {
		t.Errorf("story points = %v, want 13", updated.StoryPoints)
	}
}
