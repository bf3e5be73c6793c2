package service

import (
	"strings"

	"github.com/facilityhub/ticket-service/internal/domain"
)

const (
	// WaitlistConfidenceThreshold is the score below which an
	// auto-classified ticket is flagged vague and routed to the waitlist.
	WaitlistConfidenceThreshold = 70
	// OverrideConfidence is the sentinel written by a manual override.
	OverrideConfidence = 100
)

// Classification is the outcome of running the engine on a ticket.
type Classification struct {
	CategoryID *string
	Confidence int
}

// Vague reports whether the classification needs human review.
func (c Classification) Vague() bool {
	return c.Confidence < WaitlistConfidenceThreshold
}

// Classifier assigns a category and 0-100 confidence score to a ticket
// against a property's category configuration.
type Classifier interface {
	Classify(ticket *domain.Ticket, categories []domain.Category) Classification
}

// keywordClassifier scores categories by keyword hits in the ticket text.
// Title hits weigh double. Confidence reflects how decisively the best
// category beats the runner-up; a narrow margin reads as ambiguous.
type keywordClassifier struct{}

// NewKeywordClassifier builds the default classification engine.
func NewKeywordClassifier() Classifier {
	return keywordClassifier{}
}

func (keywordClassifier) Classify(ticket *domain.Ticket, categories []domain.Category) Classification {
	title := strings.ToLower(ticket.Title)
	description := strings.ToLower(ticket.Description)

	best, second := 0, 0
	var bestCategory *domain.Category
	for i := range categories {
		score := 0
		for _, keyword := range categories[i].Keywords {
			kw := strings.ToLower(strings.TrimSpace(keyword))
			if kw == "" {
				continue
			}
			if strings.Contains(title, kw) {
				score += 2
			}
			if strings.Contains(description, kw) {
				score++
			}
		}
		if score > best {
			second = best
			best = score
			bestCategory = &categories[i]
		} else if score > second {
			second = score
		}
	}

	if best == 0 || bestCategory == nil {
		return Classification{Confidence: 0}
	}

	confidence := best * 100 / (best + second + 1)
	if confidence > 100 {
		confidence = 100
	}
	categoryID := bestCategory.ID
	return Classification{CategoryID: &categoryID, Confidence: confidence}
}
