// Package extract turns unstructured user input (chat text, receipt photos,
// voice notes) into a validated transaction record via a generative model.
// The model is an opaque collaborator; everything it returns is distrusted
// until it passes the full validation chain.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/finance-bot/internal/ai"
	"github.com/dvloznov/finance-bot/internal/domain"
)

// maxPastDays bounds how old an extracted transaction date may be.
const maxPastDays = 3650

// Input is one extraction request. At least one of Text, Image or Audio
// must be set.
type Input struct {
	Text      string
	Image     []byte
	ImageMIME string
	Audio     []byte
	AudioMIME string
}

func (in Input) empty() bool {
	return strings.TrimSpace(in.Text) == "" && len(in.Image) == 0 && len(in.Audio) == 0
}

// Service runs the extraction pipeline against a Generator.
type Service struct {
	gen ai.Generator
	log zerolog.Logger
}

// NewService creates an extraction service.
func NewService(gen ai.Generator, log zerolog.Logger) *Service {
	return &Service{gen: gen, log: log}
}

// Extract parses one transaction out of the input. Categories are the
// requesting user's own; referenceDate is "today" in the local timezone and
// bounds the extracted date. The result is fully validated: either every
// field passed, or an error is returned and nothing may be persisted.
func (s *Service) Extract(ctx context.Context, in Input, categories []domain.Category, referenceDate civil.Date) (*domain.ExtractionResult, error) {
	if in.empty() {
		return nil, ErrEmptyInput
	}
	if len(categories) == 0 {
		return nil, ErrNoCategories
	}

	// Partition so each type branch of the prompt only shows relevant
	// choices; the model still decides the resulting type on its own.
	var expense, income []domain.Category
	for _, cat := range categories {
		switch cat.Type {
		case domain.CategoryExpense:
			expense = append(expense, cat)
		case domain.CategoryIncome:
			income = append(income, cat)
		}
	}

	var (
		prompt string
		media  *ai.Media
	)
	switch {
	case len(in.Image) > 0:
		prompt = buildImagePrompt(expense, income, referenceDate)
		media = &ai.Media{MIMEType: mimeOrDefault(in.ImageMIME, "image/jpeg"), Data: in.Image}
	case len(in.Audio) > 0:
		prompt = buildAudioPrompt(expense, income, referenceDate)
		media = &ai.Media{MIMEType: mimeOrDefault(in.AudioMIME, "audio/ogg"), Data: in.Audio}
	default:
		prompt = buildTextPrompt(in.Text, expense, income, referenceDate)
	}

	raw, err := s.gen.Generate(ctx, prompt, media)
	if err != nil {
		return nil, &ServiceError{Err: err}
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(ai.CleanJSON(raw)), &parsed); err != nil {
		s.log.Warn().Err(err).Str("raw", truncate(raw, 200)).Msg("Model response is not valid JSON")
		return nil, validationErr("response is not valid JSON", err)
	}

	result, err := s.validate(parsed, categories, referenceDate)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("amount", result.Amount.String()).
		Int64("category_id", result.CategoryID).
		Str("type", string(result.Type)).
		Str("date", result.Date.String()).
		Msg("Extraction succeeded")

	return result, nil
}

// TranscribeAudio converts a voice note to plain text with no
// interpretation; routing of the transcription is the caller's job.
func (s *Service) TranscribeAudio(ctx context.Context, audio []byte, mimeType string) (string, error) {
	if len(audio) == 0 {
		return "", ErrEmptyInput
	}

	text, err := s.gen.Generate(ctx, transcriptionPrompt, &ai.Media{
		MIMEType: mimeOrDefault(mimeType, "audio/ogg"),
		Data:     audio,
	})
	if err != nil {
		return "", &ServiceError{Err: err}
	}
	return strings.TrimSpace(text), nil
}

// validate applies the output contract in order. Any failure returns a
// ValidationError naming the specific cause.
func (s *Service) validate(parsed map[string]any, categories []domain.Category, referenceDate civil.Date) (*domain.ExtractionResult, error) {
	// (a) all required fields present
	for _, field := range []string{"amount", "category_id", "type", "description", "date"} {
		if _, ok := parsed[field]; !ok {
			return nil, validationErr(fmt.Sprintf("missing required field %q", field), nil)
		}
	}

	// (b) amount is a valid positive decimal, quantized to 2 places
	amount, err := decimalField(parsed["amount"])
	if err != nil {
		return nil, validationErr("invalid amount", err)
	}
	if amount.Sign() <= 0 {
		return nil, validationErr("amount must be positive", nil)
	}
	amount = amount.Round(2)

	// (c) category_id resolves to one of the user's categories
	categoryID, err := intField(parsed["category_id"])
	if err != nil {
		return nil, validationErr("invalid category_id", err)
	}
	var category *domain.Category
	for i := range categories {
		if categories[i].ID == categoryID {
			category = &categories[i]
			break
		}
	}
	if category == nil {
		return nil, validationErr(fmt.Sprintf("category %d not found among the user's categories", categoryID), nil)
	}

	// (d) type is exactly "expense" or "income"
	txType := domain.CategoryType(strings.ToLower(strings.TrimSpace(stringField(parsed["type"]))))
	if !txType.Valid() {
		return nil, validationErr(fmt.Sprintf("invalid type %q", parsed["type"]), nil)
	}

	// (e) category type must match the declared transaction type; a
	// mismatch is an error, never a silent correction
	if category.Type != txType {
		return nil, validationErr(fmt.Sprintf("category %q is %s but transaction type is %s",
			category.Name, category.Type, txType), nil)
	}

	// (f) date parses, is not in the future, and is not ancient
	dateStr := strings.TrimSpace(stringField(parsed["date"]))
	date, err := civil.ParseDate(dateStr)
	if err != nil {
		return nil, validationErr(fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", dateStr), err)
	}
	if date.After(referenceDate) {
		return nil, validationErr(fmt.Sprintf("date %s is in the future", date), nil)
	}
	if date.Before(referenceDate.AddDays(-maxPastDays)) {
		return nil, validationErr(fmt.Sprintf("date %s is too far in the past", date), nil)
	}

	return &domain.ExtractionResult{
		Amount:      amount,
		CategoryID:  categoryID,
		Description: strings.TrimSpace(stringField(parsed["description"])),
		Type:        txType,
		Date:        date,
	}, nil
}

func decimalField(v any) (decimal.Decimal, error) {
	switch val := v.(type) {
	case float64:
		return decimal.NewFromFloat(val), nil
	case string:
		return decimal.NewFromString(strings.TrimSpace(val))
	default:
		return decimal.Zero, fmt.Errorf("amount has type %T, want number", v)
	}
}

func intField(v any) (int64, error) {
	switch val := v.(type) {
	case float64:
		// A fractional id must fail, not truncate to a neighboring one.
		if val != math.Trunc(val) {
			return 0, fmt.Errorf("value %v is not an integer", val)
		}
		return int64(val), nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(val))
		if err != nil || !d.IsInteger() {
			return 0, fmt.Errorf("value %q is not an integer", val)
		}
		return d.IntPart(), nil
	default:
		return 0, fmt.Errorf("value has type %T, want number", v)
	}
}

func stringField(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func mimeOrDefault(mime, fallback string) string {
	if mime == "" {
		return fallback
	}
	return mime
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
