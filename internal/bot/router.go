// Package bot routes incoming chat updates through the AI pipeline: intent
// classification, transaction extraction and persistence, and the safe
// question-answering path.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-bot/internal/analytics"
	"github.com/dvloznov/finance-bot/internal/dashboard"
	"github.com/dvloznov/finance-bot/internal/dates"
	"github.com/dvloznov/finance-bot/internal/domain"
	"github.com/dvloznov/finance-bot/internal/extract"
	"github.com/dvloznov/finance-bot/internal/intent"
	"github.com/dvloznov/finance-bot/internal/media"
	"github.com/dvloznov/finance-bot/internal/money"
)

// minTextRunes is the shortest free-text message worth routing. Anything
// below it is chat noise ("ok", "ya").
const minTextRunes = 3

// Update is one normalized incoming message, independent of the chat
// transport that delivered it. Exactly one of Text, Photo or Voice carries
// the payload.
type Update struct {
	UserID    int64
	ChatID    int64
	Text      string
	Photo     []byte
	PhotoMIME string
	Voice     []byte
	VoiceMIME string
}

// Replier sends messages back through the chat transport.
type Replier interface {
	Reply(ctx context.Context, chatID int64, text string) error
	Typing(ctx context.Context, chatID int64)
}

// Storage is the subset of the persistence layer the router needs.
type Storage interface {
	EnsureUser(ctx context.Context, userID, chatID int64) error
	EnsureDefaultCategories(ctx context.Context, userID int64) (bool, error)
	ListCategories(ctx context.Context, userID int64) ([]domain.Category, error)
	CreateTransaction(ctx context.Context, tx *domain.Transaction) error
}

// Extractor turns raw input into a validated transaction record.
type Extractor interface {
	Extract(ctx context.Context, in extract.Input, categories []domain.Category, referenceDate civil.Date) (*domain.ExtractionResult, error)
	TranscribeAudio(ctx context.Context, audio []byte, mimeType string) (string, error)
}

// IntentClassifier labels free text as a registration or a question.
type IntentClassifier interface {
	Classify(ctx context.Context, text string) intent.Intent
}

// Analyst answers read-only questions about the user's data.
type Analyst interface {
	AnswerQuestion(ctx context.Context, question string, userID int64) (string, error)
}

// Router dispatches updates to the right pipeline.
type Router struct {
	store      Storage
	extractor  Extractor
	classifier IntentClassifier
	analyst    Analyst
	archiver   media.Archiver
	links      *dashboard.LinkBuilder
	flows      *FlowState
	log        zerolog.Logger
	now        func() time.Time
}

// NewRouter wires a Router. links may be nil when no dashboard is
// configured.
func NewRouter(store Storage, extractor Extractor, classifier IntentClassifier,
	analyst Analyst, archiver media.Archiver, links *dashboard.LinkBuilder,
	log zerolog.Logger) *Router {
	return &Router{
		store:      store,
		extractor:  extractor,
		classifier: classifier,
		analyst:    analyst,
		archiver:   archiver,
		links:      links,
		flows:      NewFlowState(),
		log:        log,
		now:        dates.NowUTC,
	}
}

// Route handles one update end to end. Errors it can translate into a chat
// reply are consumed here; only reply-delivery failures propagate.
func (rt *Router) Route(ctx context.Context, r Replier, upd Update) error {
	if err := rt.store.EnsureUser(ctx, upd.UserID, upd.ChatID); err != nil {
		rt.log.Error().Err(err).Int64("user_id", upd.UserID).Msg("Failed to ensure user")
		return r.Reply(ctx, upd.ChatID, msgServiceUnavailable)
	}

	switch {
	case len(upd.Photo) > 0:
		return rt.handlePhoto(ctx, r, upd)
	case len(upd.Voice) > 0:
		return rt.handleVoice(ctx, r, upd)
	default:
		return rt.handleText(ctx, r, upd, upd.Text)
	}
}

func (rt *Router) handleText(ctx context.Context, r Replier, upd Update, text string) error {
	text = strings.TrimSpace(text)

	switch {
	case text == "/start":
		if _, err := rt.store.EnsureDefaultCategories(ctx, upd.UserID); err != nil {
			rt.log.Error().Err(err).Int64("user_id", upd.UserID).Msg("Failed to seed categories")
		}
		return r.Reply(ctx, upd.ChatID, msgWelcome)
	case text == "/dashboard":
		return rt.handleDashboard(ctx, r, upd)
	}

	if utf8.RuneCountInString(text) < minTextRunes {
		return nil
	}

	// A user inside a guided flow answers that flow, not this pipeline.
	if flow, ok := rt.flows.Active(upd.UserID); ok {
		rt.log.Debug().Int64("user_id", upd.UserID).Str("flow", flow).
			Msg("Skipping free-text routing, flow active")
		return nil
	}

	r.Typing(ctx, upd.ChatID)

	switch rt.classifier.Classify(ctx, text) {
	case intent.Register:
		return rt.handleRegister(ctx, r, upd, extract.Input{Text: text})
	default:
		return rt.handleQuery(ctx, r, upd, text)
	}
}

func (rt *Router) handleRegister(ctx context.Context, r Replier, upd Update, in extract.Input) error {
	if _, err := rt.store.EnsureDefaultCategories(ctx, upd.UserID); err != nil {
		rt.log.Error().Err(err).Int64("user_id", upd.UserID).Msg("Failed to seed categories")
		return r.Reply(ctx, upd.ChatID, msgSaveFailed)
	}

	categories, err := rt.store.ListCategories(ctx, upd.UserID)
	if err != nil {
		rt.log.Error().Err(err).Int64("user_id", upd.UserID).Msg("Failed to list categories")
		return r.Reply(ctx, upd.ChatID, msgSaveFailed)
	}

	now := rt.now()
	result, err := rt.extractor.Extract(ctx, in, categories, dates.Today(now))
	if err != nil {
		var valErr *extract.ValidationError
		switch {
		case errors.As(err, &valErr):
			rt.log.Warn().Err(err).Int64("user_id", upd.UserID).Msg("Extraction rejected")
			return r.Reply(ctx, upd.ChatID, msgExtractionUnclear)
		default:
			rt.log.Error().Err(err).Int64("user_id", upd.UserID).Msg("Extraction failed")
			return r.Reply(ctx, upd.ChatID, msgServiceUnavailable)
		}
	}

	when, displayDate := dates.Resolve(result.Date.String(), now)

	tx := &domain.Transaction{
		UserID:      upd.UserID,
		CategoryID:  result.CategoryID,
		Amount:      result.Amount,
		Date:        when,
		Description: result.Description,
	}
	if err := rt.store.CreateTransaction(ctx, tx); err != nil {
		rt.log.Error().Err(err).Int64("user_id", upd.UserID).Msg("Failed to save transaction")
		return r.Reply(ctx, upd.ChatID, msgSaveFailed)
	}

	return r.Reply(ctx, upd.ChatID, receiptMessage(result, categories, displayDate))
}

func (rt *Router) handleQuery(ctx context.Context, r Replier, upd Update, question string) error {
	answer, err := rt.analyst.AnswerQuestion(ctx, question, upd.UserID)
	if err != nil {
		// A query that failed static validation was never executed; to the
		// user it is just a question the bot could not process, not a
		// security event. The refusal string belongs to the destructive
		// checkpoints, which return it as a normal answer.
		var unsafeErr *analytics.UnsafeQueryError
		if errors.As(err, &unsafeErr) {
			rt.log.Warn().Err(err).Int64("user_id", upd.UserID).Msg("Generated query rejected")
			return r.Reply(ctx, upd.ChatID, msgQueryUnclear)
		}
		rt.log.Error().Err(err).Int64("user_id", upd.UserID).Msg("Question answering failed")
		return r.Reply(ctx, upd.ChatID, msgQueryFailed)
	}
	return r.Reply(ctx, upd.ChatID, answer)
}

func (rt *Router) handlePhoto(ctx context.Context, r Replier, upd Update) error {
	rt.archive(ctx, upd.UserID, media.KindPhoto, upd.Photo, upd.PhotoMIME)
	r.Typing(ctx, upd.ChatID)
	return rt.handleRegister(ctx, r, upd, extract.Input{Image: upd.Photo, ImageMIME: upd.PhotoMIME})
}

func (rt *Router) handleVoice(ctx context.Context, r Replier, upd Update) error {
	rt.archive(ctx, upd.UserID, media.KindVoice, upd.Voice, upd.VoiceMIME)
	r.Typing(ctx, upd.ChatID)

	transcript, err := rt.extractor.TranscribeAudio(ctx, upd.Voice, upd.VoiceMIME)
	if err != nil {
		rt.log.Error().Err(err).Int64("user_id", upd.UserID).Msg("Transcription failed")
		return r.Reply(ctx, upd.ChatID, msgVoiceFailed)
	}
	if strings.TrimSpace(transcript) == "" {
		return r.Reply(ctx, upd.ChatID, msgVoiceEmpty)
	}

	rt.log.Info().Int64("user_id", upd.UserID).Str("transcript", transcript).
		Msg("Voice note transcribed")

	// A transcribed voice note is routed exactly like typed text.
	switch rt.classifier.Classify(ctx, transcript) {
	case intent.Register:
		return rt.handleRegister(ctx, r, upd, extract.Input{Text: transcript})
	default:
		return rt.handleQuery(ctx, r, upd, transcript)
	}
}

func (rt *Router) handleDashboard(ctx context.Context, r Replier, upd Update) error {
	// Leaving for the dashboard abandons whatever flow was in progress.
	rt.flows.Exit(upd.UserID)

	if rt.links == nil {
		return r.Reply(ctx, upd.ChatID, msgDashboardUnavailable)
	}

	link, err := rt.links.BuildAuthLink(upd.UserID)
	if err != nil {
		rt.log.Error().Err(err).Int64("user_id", upd.UserID).Msg("Failed to build dashboard link")
		return r.Reply(ctx, upd.ChatID, msgDashboardUnavailable)
	}
	return r.Reply(ctx, upd.ChatID, msgDashboardLink+link)
}

// archive stores raw media best-effort; a failure never blocks the message.
func (rt *Router) archive(ctx context.Context, userID int64, kind media.Kind, data []byte, mimeType string) {
	if rt.archiver == nil {
		return
	}
	if _, err := rt.archiver.Archive(ctx, userID, kind, data, mimeType); err != nil {
		rt.log.Warn().Err(err).Int64("user_id", userID).Str("kind", string(kind)).
			Msg("Media archival failed")
	}
}

// receiptMessage builds the confirmation reply for a saved transaction.
func receiptMessage(result *domain.ExtractionResult, categories []domain.Category, date civil.Date) string {
	var categoryName string
	for _, c := range categories {
		if c.ID == result.CategoryID {
			categoryName = c.Name
			break
		}
	}

	label, emoji := "Gasto", "💸"
	if result.Type == domain.CategoryIncome {
		label, emoji = "Ingreso", "💰"
	}

	var b strings.Builder
	b.WriteString("✅ ¡Registrado!\n\n")
	b.WriteString(fmt.Sprintf("%s %s: %s\n", emoji, label, money.FormatCurrency(result.Amount)))
	b.WriteString(fmt.Sprintf("📂 Categoría: %s\n", categoryName))
	b.WriteString(fmt.Sprintf("📅 Fecha: %s", dates.FormatDisplay(date)))
	if result.Description != "" {
		b.WriteString(fmt.Sprintf("\n📝 %s", result.Description))
	}
	return b.String()
}
