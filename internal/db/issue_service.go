package db

import (
	"fmt"
	"strings"

	"github.com/balkashynov/plank/internal/models"
)

// CreateIssueRequest holds the data needed to create a new work item
type CreateIssueRequest struct {
	ProjectID   uint
	Title       string
	Labels      []string
	Priority    string // can be "low/medium/high" or "1/2/3" or empty for no priority
	StoryPoints *int
	EpicID      *uint
}

// CreateIssue creates a new work item with labels
func CreateIssue(req CreateIssueRequest) (*models.WorkItem, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("issue title cannot be empty")
	}

	if req.StoryPoints != nil && !models.IsValidStoryPoints(*req.StoryPoints) {
		return nil, fmt.Errorf("story points must be one of %v", models.StoryPointValues)
	}

	item := models.WorkItem{
		ProjectID:   req.ProjectID,
		Title:       req.Title,
		Status:      models.StatusTodo,
		Priority:    parsePriority(req.Priority),
		StoryPoints: req.StoryPoints,
		EpicID:      req.EpicID,
	}

	// Process labels
	if len(req.Labels) > 0 {
		labels, err := findOrCreateLabels(req.Labels)
		if err != nil {
			return nil, err
		}
		item.Labels = labels
	}

	if err := DB.Create(&item).Error; err != nil {
		return nil, err
	}

	return &item, nil
}

// parsePriority converts priority string to int
func parsePriority(priority string) int {
	priority = strings.ToLower(strings.TrimSpace(priority))
	if priority == "" {
		return 0 // 0 means no priority set
	}
	switch priority {
	case "low", "1":
		return 1
	case "medium", "2":
		return 2
	case "high", "3":
		return 3
	default:
		return 0 // invalid priority defaults to no priority
	}
}

// findOrCreateLabels finds existing labels or creates new ones
func findOrCreateLabels(names []string) ([]models.Label, error) {
	var labels []models.Label

	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		var label models.Label

		// Try to find existing label
		err := DB.Where("name = ?", name).First(&label).Error
		if err != nil {
			// Label doesn't exist, create it
			label = models.Label{Name: name}
			if err := DB.Create(&label).Error; err != nil {
				return nil, err
			}
		}

		labels = append(labels, label)
	}

	return labels, nil
}

// GetIssueByID retrieves a work item by ID
func GetIssueByID(id uint) (*models.WorkItem, error) {
	var item models.WorkItem

	err := DB.Preload("Labels").First(&item, id).Error
	if err != nil {
		return nil, fmt.Errorf("issue #%d not found", id)
	}

	return &item, nil
}

// GetIssues retrieves all work items for a project
func GetIssues(projectID uint) ([]models.WorkItem, error) {
	var items []models.WorkItem

	if err := DB.Preload("Labels").Where("project_id = ?", projectID).Find(&items).Error; err != nil {
		return nil, err
	}

	return items, nil
}

// StatusChange reports a confirmed status transition so callers can
// notify the planning facade
type StatusChange struct {
	Issue     *models.WorkItem
	OldStatus string
	NewStatus string
}

// SetIssueStatus updates a work item's workflow status. The returned
// change carries old and new values for the facade's status hook.
func SetIssueStatus(id uint, status string) (*StatusChange, error) {
	if !models.IsValidStatus(status) {
		return nil, fmt.Errorf("invalid status %q (todo, in_progress, review, done, blocked)", status)
	}

	item, err := GetIssueByID(id)
	if err != nil {
		return nil, err
	}

	old := item.Status
	if old == status {
		return nil, fmt.Errorf("issue #%d is already %s", id, status)
	}

	item.Status = status
	if err := DB.Save(item).Error; err != nil {
		return nil, err
	}

	return &StatusChange{Issue: item, OldStatus: old, NewStatus: status}, nil
}

// EstimateIssue sets a work item's story points
func EstimateIssue(id uint, points int) (*models.WorkItem, error) {
	if !models.IsValidStoryPoints(points) {
		return nil, fmt.Errorf("story points must be one of %v", models.StoryPointValues)
	}

	item, err := GetIssueByID(id)
	if err != nil {
		return nil, err
	}

	item.StoryPoints = &points
	if err := DB.Save(item).Error; err != nil {
		return nil, err
	}

	return item, nil
}
