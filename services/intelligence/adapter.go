package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"receptionist/models"

	"go.uber.org/zap"
)

// classification is the JSON document the text model is asked to produce.
type classification struct {
	Intent        string                 `json:"intent"`
	Confidence    float64                `json:"confidence"`
	ExtractedInfo models.ExtractedFields `json:"extracted_info"`
}

// IntentAdapter wraps a TextModel and applies deterministic post-processing
// to whatever it returns.
type IntentAdapter struct {
	model   TextModel
	shop    models.ShopConfig
	timeout time.Duration
	now     func() time.Time
	logger  *zap.Logger
}

type AdapterOption func(*IntentAdapter)

func WithAdapterClock(now func() time.Time) AdapterOption {
	return func(a *IntentAdapter) { a.now = now }
}

func WithAdapterTimeout(d time.Duration) AdapterOption {
	return func(a *IntentAdapter) { a.timeout = d }
}

func NewIntentAdapter(model TextModel, shop models.ShopConfig, logger *zap.Logger, opts ...AdapterOption) *IntentAdapter {
	a := &IntentAdapter{
		model:   model,
		shop:    shop,
		timeout: 8 * time.Second,
		now:     time.Now,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

var _ Classifier = (*IntentAdapter)(nil)

func (a *IntentAdapter) Classify(ctx context.Context, utterance string, history []models.Turn) (models.Intent, models.ExtractedFields) {
	today := truncateDay(a.now().In(a.shop.Loc()))

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	raw, err := a.model.GenerateContent(ctx, BuildIntentPrompt(a.shop, today, utterance, history))
	if err != nil {
		a.logger.Error("Error analyzing intent", zap.Error(err))
		return models.IntentOther, models.ExtractedFields{}
	}

	result, err := parseClassification(raw)
	if err != nil {
		a.logger.Error("Unparseable intent response", zap.Error(err), zap.String("raw", raw))
		return models.IntentOther, models.ExtractedFields{}
	}
	intent, ok := models.ParseIntent(result.Intent)
	if !ok {
		a.logger.Warn("Unknown intent label", zap.String("intent", result.Intent))
		return models.IntentOther, models.ExtractedFields{}
	}

	fields := a.normalize(result.ExtractedInfo)
	fields = a.postProcess(utterance, fields, today)

	a.logger.Info("Intent analysis",
		zap.String("intent", string(intent)),
		zap.Float64("confidence", result.Confidence),
		zap.Any("extracted", fields))
	return intent, fields
}

func parseClassification(raw string) (classification, error) {
	var out classification
	body := strings.TrimSpace(raw)
	body = strings.TrimPrefix(body, "```json")
	body = strings.TrimPrefix(body, "```")
	body = strings.TrimSuffix(body, "```")
	body = strings.TrimSpace(body)
	if body == "" {
		return out, errors.New("empty response")
	}
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		return out, fmt.Errorf("decode classification: %w", err)
	}
	return out, nil
}

// normalize drops values that are not in the expected formats and maps
// service mentions onto catalog names.
func (a *IntentAdapter) normalize(x models.ExtractedFields) models.ExtractedFields {
	x.CustomerName = strings.TrimSpace(x.CustomerName)

	x.Date = strings.TrimSpace(x.Date)
	if _, err := time.Parse(dateLayout, x.Date); err != nil {
		x.Date = ""
	}

	x.Time = NormalizeTime(x.Time)

	x.Service = strings.TrimSpace(x.Service)
	if x.Service != "" {
		if svc, ok := a.shop.LookupService(x.Service); ok {
			x.Service = strings.ToLower(svc.Name)
		} else if svc, ok := a.shop.FindServiceIn(x.Service); ok {
			x.Service = strings.ToLower(svc.Name)
		} else {
			x.Service = strings.ToLower(x.Service)
		}
	}
	return x
}

func (a *IntentAdapter) postProcess(utterance string, x models.ExtractedFields, today time.Time) models.ExtractedFields {
	if x.CustomerName == "" {
		x.CustomerName = ExtractName(utterance)
	}
	if x.Date == "" {
		x.Date = ResolveRelativeDate(utterance, today)
	}
	if x.Date != "" {
		x.Date = CorrectPastDate(x.Date, today)
	}
	return x
}
