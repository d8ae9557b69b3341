package parser

import (
	"regexp"
	"strconv"
	"strings"
)

// ParsedIssue represents a work item parsed from natural language
type ParsedIssue struct {
	Title       string
	Labels      []string
	Priority    string
	StoryPoints *int
	EpicID      *uint
	Errors      []string
}

// Story point values on the estimation scale
var storyPointValues = []int{0, 1, 2, 3, 5, 8, 13, 21, 34}

// ParseIssue extracts metadata from an issue title using natural syntax
// Syntax: "Issue title #label1,label2 !priority *points ^epic-id"
func ParseIssue(input string) ParsedIssue {
	result := ParsedIssue{
		Title:  input,
		Labels: []string{},
		Errors: []string{},
	}

	// Extract labels (#label1,label2 or #label1 #label2)
	labelRegex := regexp.MustCompile(`#([a-zA-Z0-9_,-]+)`)
	labelMatches := labelRegex.FindAllStringSubmatch(input, -1)
	for _, match := range labelMatches {
		if len(match) > 1 {
			// Split by comma in case of #label1,label2
			group := strings.Split(match[1], ",")
			for _, label := range group {
				label = strings.TrimSpace(label)
				if label != "" {
					result.Labels = append(result.Labels, label)
				}
			}
		}
	}
	input = labelRegex.ReplaceAllString(input, "")

	// Extract priority (!low, !medium, !high)
	prioRegex := regexp.MustCompile(`!(\w+)`)
	if match := prioRegex.FindStringSubmatch(input); len(match) > 1 {
		prio := strings.ToLower(match[1])
		switch prio {
		case "low", "medium", "high":
			result.Priority = prio
		default:
			result.Errors = append(result.Errors, "Invalid priority: "+match[1]+" (use low, medium or high)")
		}
		input = prioRegex.ReplaceAllString(input, "")
	}

	// Extract story points (*5)
	pointsRegex := regexp.MustCompile(`\*(\d+)`)
	if match := pointsRegex.FindStringSubmatch(input); len(match) > 1 {
		points, err := strconv.Atoi(match[1])
		if err == nil && isStoryPointValue(points) {
			result.StoryPoints = &points
		} else {
			result.Errors = append(result.Errors, "Invalid story points: "+match[1]+" (use 0,1,2,3,5,8,13,21,34)")
		}
		input = pointsRegex.ReplaceAllString(input, "")
	}

	// Extract epic reference (^3)
	epicRegex := regexp.MustCompile(`\^(\d+)`)
	if match := epicRegex.FindStringSubmatch(input); len(match) > 1 {
		id, err := strconv.ParseUint(match[1], 10, 32)
		if err == nil {
			epicID := uint(id)
			result.EpicID = &epicID
		} else {
			result.Errors = append(result.Errors, "Invalid epic id: "+match[1])
		}
		input = epicRegex.ReplaceAllString(input, "")
	}

	// Whatever remains is the title
	result.Title = strings.Join(strings.Fields(input), " ")
	if result.Title == "" {
		result.Errors = append(result.Errors, "Issue title cannot be empty")
	}

	return result
}

func isStoryPointValue(p int) bool {
	for _, v := range storyPointValues {
		if p == v {
			return true
		}
	}
	return false
}
