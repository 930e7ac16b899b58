// Package handlers implements the HTTP surface of the bot: the webhook the
// chat transport delivers updates to, and a health endpoint.
package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-bot/internal/api/middleware"
	"github.com/dvloznov/finance-bot/internal/bot"
)

// maxBodyBytes bounds a webhook payload. Voice notes and photos arrive
// base64-encoded inline, so this has to fit a full receipt photo.
const maxBodyBytes = 20 << 20

// webhookRequest is one incoming update from the chat transport. Photo and
// Voice are base64-encoded.
type webhookRequest struct {
	UserID    int64  `json:"user_id"`
	ChatID    int64  `json:"chat_id"`
	Text      string `json:"text,omitempty"`
	Photo     string `json:"photo,omitempty"`
	PhotoMIME string `json:"photo_mime,omitempty"`
	Voice     string `json:"voice,omitempty"`
	VoiceMIME string `json:"voice_mime,omitempty"`
}

// webhookResponse returns the bot's replies synchronously so the transport
// adapter can forward them to the chat.
type webhookResponse struct {
	OK      bool     `json:"ok"`
	Replies []string `json:"replies"`
}

// Router routes one normalized update and emits replies through the Replier.
type Router interface {
	Route(ctx context.Context, r bot.Replier, upd bot.Update) error
}

// WebhookHandler handles POST /webhook.
type WebhookHandler struct {
	router Router
	log    zerolog.Logger
}

// NewWebhookHandler creates a webhook handler.
func NewWebhookHandler(router Router, log zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{router: router, log: log}
}

// ServeHTTP decodes the update, runs it through the router and returns the
// collected replies.
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req webhookRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.UserID == 0 || req.ChatID == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "user_id and chat_id are required")
		return
	}

	upd := bot.Update{
		UserID:    req.UserID,
		ChatID:    req.ChatID,
		Text:      req.Text,
		PhotoMIME: req.PhotoMIME,
		VoiceMIME: req.VoiceMIME,
	}

	var err error
	if upd.Photo, err = decodeMedia(req.Photo); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "photo is not valid base64")
		return
	}
	if upd.Voice, err = decodeMedia(req.Voice); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "voice is not valid base64")
		return
	}

	replier := &bufferReplier{}
	if err := h.router.Route(r.Context(), replier, upd); err != nil {
		h.log.Error().Err(err).
			Str("request_id", middleware.RequestIDFrom(r.Context())).
			Int64("user_id", req.UserID).
			Msg("Update routing failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to process update")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, webhookResponse{OK: true, Replies: replier.All()})
}

func decodeMedia(encoded string) ([]byte, error) {
	if encoded == "" {
		return nil, nil
	}
	return base64.StdEncoding.DecodeString(encoded)
}

// bufferReplier collects replies for the synchronous webhook response.
type bufferReplier struct {
	mu      sync.Mutex
	replies []string
}

func (b *bufferReplier) Reply(ctx context.Context, chatID int64, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.replies = append(b.replies, text)
	return nil
}

// Typing is a no-op: the transport adapter owns chat presence.
func (b *bufferReplier) Typing(ctx context.Context, chatID int64) {}

func (b *bufferReplier) All() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.replies == nil {
		return []string{}
	}
	return b.replies
}

// HealthHandler handles GET /health.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
