// Package classifier suggests a category, sentiment and priority for a
// request description. Suggestions are advisory and never change a request.
package classifier

import (
	"strings"

	"civic311-be/models"
)

type Sentiment string

const (
	SentimentNeutral Sentiment = "neutral"
	SentimentAngry   Sentiment = "angry"
)

type Suggestion struct {
	Category  models.RequestCategory `json:"category"`
	Sentiment Sentiment              `json:"sentiment"`
	Priority  models.RequestPriority `json:"priority"`
}

type rule struct {
	category models.RequestCategory
	words    []string
}

// Checked in order; the first match wins. More specific phrases come first
// so that "traffic light" and "street light" are not read as road problems.
var categoryRules = []rule{
	{models.CategoryTrafficSignals, []string{"traffic signal", "traffic light", "crosswalk signal"}},
	{models.CategoryStreetLighting, []string{"light", "lamp"}},
	{models.CategoryRoadMaintenance, []string{"pothole", "road", "street", "pavement"}},
	{models.CategoryWaterSewer, []string{"water", "sewer", "leak", "flood", "drain"}},
	{models.CategoryWasteManagement, []string{"trash", "garbage", "litter", "dumping", "recycling"}},
	{models.CategoryParkingIssue, []string{"parking", "parked"}},
	{models.CategoryParkMaintenance, []string{"park", "playground", "bench"}},
	{models.CategoryNoiseComplaint, []string{"noise", "loud", "music"}},
}

var (
	angryWords  = []string{"angry", "furious", "terrible"}
	urgentWords = []string{"urgent", "immediately", "danger"}
)

type Heuristic struct{}

func (Heuristic) Classify(description string) Suggestion {
	text := strings.ToLower(description)

	s := Suggestion{
		Category:  models.CategoryOther,
		Sentiment: SentimentNeutral,
		Priority:  models.PriorityMedium,
	}
	for _, r := range categoryRules {
		if containsAny(text, r.words) {
			s.Category = r.category
			break
		}
	}
	if containsAny(text, angryWords) {
		s.Sentiment = SentimentAngry
	}
	if containsAny(text, urgentWords) {
		s.Priority = models.PriorityUrgent
	}
	return s
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
