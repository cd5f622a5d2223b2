package ai

import (
	"context"
	"encoding/json"
	"strings"

	"receptionist/models"
)

type keywordRule struct {
	intent   models.Intent
	keywords []string
}

// Rules are checked in order; cancellation and availability come before
// booking because callers often say "appointment" in both.
var keywordRules = []keywordRule{
	{models.IntentCancelAppointment, []string{"cancel", "الغاء", "إلغاء"}},
	{models.IntentCheckAvailability, []string{"available", "availability", "free slot", "any slot", "openings", "when can i come", "فاضي"}},
	{models.IntentBookAppointment, []string{"book", "appointment", "schedule", "reserve", "reservation", "موعد", "حجز"}},
	{models.IntentAskPrices, []string{"price", "cost", "how much", "charge", "سعر", "قديش"}},
	{models.IntentAskHours, []string{"hours", "what time do you", "open", "close", "closing", "دوام"}},
	{models.IntentAskLocation, []string{"where", "location", "address", "located", "directions", "وين"}},
	{models.IntentAskServices, []string{"services", "what do you offer", "what do you do", "خدمات"}},
}

// KeywordModel is a local TextModel used when no hosted model is configured.
// It answers the classification prompt with the same JSON contract.
type KeywordModel struct {
	shop models.ShopConfig
}

func NewKeywordModel(shop models.ShopConfig) *KeywordModel {
	return &KeywordModel{shop: shop}
}

func (k *KeywordModel) GenerateContent(_ context.Context, prompt string) (string, error) {
	text := utteranceFromPrompt(prompt)
	intent, fields, confidence := k.classify(text)

	out := classification{
		Intent:        string(intent),
		Confidence:    confidence,
		ExtractedInfo: fields,
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (k *KeywordModel) classify(text string) (models.Intent, models.ExtractedFields, float64) {
	lower := strings.ToLower(text)

	var fields models.ExtractedFields
	if svc, ok := k.shop.FindServiceIn(lower); ok {
		fields.Service = strings.ToLower(svc.Name)
	}
	fields.Time = FindTime(lower)

	for _, rule := range keywordRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.intent, fields, 0.6
			}
		}
	}
	if fields.Service != "" || fields.Time != "" {
		return models.IntentBookAppointment, fields, 0.5
	}
	return models.IntentOther, fields, 0.3
}
