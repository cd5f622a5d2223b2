// File: services/intelligence/interface.go
package ai

import (
	"context"

	"receptionist/models"
)

// TextModel is an external text-generation backend.
type TextModel interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Classifier turns one caller utterance into an intent and extracted booking fields.
// It never fails: any backend problem yields (IntentOther, empty fields).
type Classifier interface {
	Classify(ctx context.Context, utterance string, history []models.Turn) (models.Intent, models.ExtractedFields)
}
