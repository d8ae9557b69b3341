package agile

import (
	"math"
	"time"

	"github.com/balkashynov/plank/internal/models"
)

// Sprint health classifications
const (
	HealthHealthy  = "healthy"
	HealthAtRisk   = "at_risk"
	HealthCritical = "critical"
)

// Burndown trend classifications
const (
	TrendAhead   = "ahead"
	TrendOnTrack = "on_track"
	TrendAtRisk  = "at_risk"
	TrendBehind  = "behind"
)

// CompletionForecast estimates when the remaining scope will be done.
// Only meaningful while a sprint is active; a nil EstimatedDate means
// nothing has been completed yet so no projection is possible.
type CompletionForecast struct {
	Likely        bool       `json:"likely"`
	DaysNeeded    int        `json:"days_needed"`
	EstimatedDate *time.Time `json:"estimated_date"`
}

// SprintMetrics is the derived, read-only view of a sprint's progress
type SprintMetrics struct {
	DurationDays  int `json:"duration_days"`
	ElapsedDays   int `json:"elapsed_days"`
	RemainingDays int `json:"remaining_days"`

	ProgressPercentage   int `json:"progress_percentage"`    // completed vs total issues
	StoryPointsProgress  int `json:"story_points_progress"`  // completed vs planned points
	RemainingStoryPoints int `json:"remaining_story_points"`

	IdealBurndownRate  float64 `json:"ideal_burndown_rate"`  // points per day to finish on time
	ActualBurndownRate float64 `json:"actual_burndown_rate"` // points per elapsed day

	OnTrack  bool   `json:"on_track"`
	Health   string `json:"health"`
	Overdue  bool   `json:"overdue"`
	Forecast CompletionForecast `json:"forecast"`
}

// ceilDays converts a duration to whole days, rounding up
func ceilDays(d time.Duration) int {
	return int(math.Ceil(d.Hours() / 24))
}

// roundPct returns round(100*part/total), or 0 when total is 0
func roundPct(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

// ComputeMetrics derives all sprint metrics from the sprint's cached
// counters and the given clock reading. Pure function, no side effects.
func ComputeMetrics(s *models.Sprint, now time.Time) SprintMetrics {
	duration := ceilDays(s.EndDate.Sub(s.StartDate))

	elapsed := ceilDays(now.Sub(s.StartDate))
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > duration {
		elapsed = duration
	}

	remaining := s.RemainingStoryPoints()

	m := SprintMetrics{
		DurationDays:         duration,
		ElapsedDays:          elapsed,
		ProgressPercentage:   roundPct(s.CompletedIssues, s.TotalIssues),
		StoryPointsProgress:  roundPct(s.CompletedStoryPoints, s.PlannedStoryPoints),
		RemainingStoryPoints: remaining,
	}

	if s.IsActive() {
		if d := ceilDays(s.EndDate.Sub(now)); d > 0 {
			m.RemainingDays = d
		}
		m.Overdue = now.After(s.EndDate)
	}

	if duration > 0 {
		m.IdealBurndownRate = float64(s.PlannedStoryPoints) / float64(duration)
	}
	if elapsed > 0 {
		m.ActualBurndownRate = float64(s.CompletedStoryPoints) / float64(elapsed)
	}

	// On track if the actual remaining scope is within 20% of where the
	// ideal burndown line says it should be
	idealDone := m.IdealBurndownRate * float64(elapsed)
	idealRemaining := float64(s.PlannedStoryPoints) - idealDone
	m.OnTrack = float64(remaining) <= idealRemaining*1.2

	m.Health = sprintHealth(m.ProgressPercentage, elapsed, duration)
	m.Forecast = completionForecast(s, m.ActualBurndownRate, remaining, now)

	return m
}

// sprintHealth classifies progress against the expected linear pace:
// within 10 points of expected is healthy, within 30 is at risk,
// anything worse is critical.
func sprintHealth(progress, elapsed, duration int) string {
	if duration == 0 {
		return HealthHealthy
	}
	expected := float64(elapsed) / float64(duration) * 100

	switch {
	case float64(progress) >= expected-10:
		return HealthHealthy
	case float64(progress) >= expected-30:
		return HealthAtRisk
	default:
		return HealthCritical
	}
}

func completionForecast(s *models.Sprint, actualRate float64, remaining int, now time.Time) CompletionForecast {
	if !s.IsActive() {
		return CompletionForecast{Likely: s.IsCompleted()}
	}

	if actualRate == 0 {
		// Nothing completed yet, no basis for an estimate
		return CompletionForecast{Likely: false}
	}

	daysNeeded := int(math.Ceil(float64(remaining) / actualRate))
	estimated := now.AddDate(0, 0, daysNeeded)

	return CompletionForecast{
		Likely:        !estimated.After(s.EndDate),
		DaysNeeded:    daysNeeded,
		EstimatedDate: &estimated,
	}
}

// Velocity trend classifications
const (
	VelocityIncreasing = "increasing"
	VelocityStable     = "stable"
	VelocityDecreasing = "decreasing"
)

// VelocityReport summarizes completed-sprint velocity for a project
type VelocityReport struct {
	ProjectID             uint                    `json:"project_id"`
	Sprints               []models.VelocityRecord `json:"sprints"`
	AverageVelocity       float64                 `json:"average_velocity"`
	Trend                 string                  `json:"trend"`
	PredictedNextVelocity float64                 `json:"predicted_next_velocity"`
}

// ComputeVelocity builds a velocity report from the project's history,
// oldest record first. The trend compares the average of the recent
// half against the earlier half with a 10% stability band; the
// prediction averages the last three sprints.
func ComputeVelocity(projectID uint, records []models.VelocityRecord) VelocityReport {
	report := VelocityReport{ProjectID: projectID, Sprints: records}
	if len(records) == 0 {
		report.Trend = VelocityStable
		return report
	}

	total := 0
	for _, r := range records {
		total += r.CompletedPoints
	}
	report.AverageVelocity = float64(total) / float64(len(records))

	report.Trend = velocityTrend(records)

	recent := records
	if len(recent) > 3 {
		recent = recent[len(recent)-3:]
	}
	sum := 0
	for _, r := range recent {
		sum += r.CompletedPoints
	}
	report.PredictedNextVelocity = float64(sum) / float64(len(recent))

	return report
}

func velocityTrend(records []models.VelocityRecord) string {
	if len(records) < 2 {
		return VelocityStable
	}

	mid := len(records) / 2
	earlier := avgCompleted(records[:mid])
	recent := avgCompleted(records[mid:])

	switch {
	case earlier == 0:
		if recent > 0 {
			return VelocityIncreasing
		}
		return VelocityStable
	case recent > earlier*1.1:
		return VelocityIncreasing
	case recent < earlier*0.9:
		return VelocityDecreasing
	default:
		return VelocityStable
	}
}

func avgCompleted(records []models.VelocityRecord) float64 {
	if len(records) == 0 {
		return 0
	}
	sum := 0
	for _, r := range records {
		sum += r.CompletedPoints
	}
	return float64(sum) / float64(len(records))
}
