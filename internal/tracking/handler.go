// Package tracking serves the open-pixel and click-redirect endpoints
// that mail clients hit. Both endpoints degrade gracefully: an unknown
// or invalid token still gets the pixel or the redirect, it just
// leaves no event behind.
package tracking

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/medlemsys/campaign-engine/internal/domain"
	"github.com/medlemsys/campaign-engine/internal/personalize"
	"github.com/medlemsys/campaign-engine/internal/pkg/logger"
	"github.com/medlemsys/campaign-engine/internal/token"
)

// 1x1 transparent GIF
var pixelGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00,
	0x80, 0x00, 0x00, 0xff, 0xff, 0xff, 0x00, 0x00, 0x00, 0x2c,
	0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0x02,
	0x02, 0x44, 0x01, 0x00, 0x3b,
}

// EventStore persists engagement events. Implemented by the postgres
// Store.
type EventStore interface {
	RecordEvent(ctx context.Context, e *domain.TrackingEvent) error
}

// Handler serves the tracking endpoints.
type Handler struct {
	tokens  token.Resolver
	events  EventStore
	links   *personalize.LinkRewriter
	bots    *BotDetector
	timeout time.Duration
}

// NewHandler creates a tracking handler. links must be built with the
// same signing key the personalizer uses, otherwise no click will ever
// verify.
func NewHandler(tokens token.Resolver, events EventStore, links *personalize.LinkRewriter) *Handler {
	return &Handler{
		tokens:  tokens,
		events:  events,
		links:   links,
		bots:    NewBotDetector(),
		timeout: 5 * time.Second,
	}
}

// Routes returns the tracking router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{AllowedOrigins: []string{"*"}, AllowedMethods: []string{"GET"}}))
	r.Get("/track/open/{token}.gif", h.HandleOpen)
	r.Get("/track/click/{token}", h.HandleClick)
	r.Get("/health", h.HandleHealth)
	return r
}

// HandleOpen records an open event and serves the pixel. The pixel is
// always served, whatever happens to the recording.
func (h *Handler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	tok := chi.URLParam(r, "token")
	h.record(r, tok, domain.EventOpen, "")
	h.servePixel(w)
}

// HandleClick records a click event and redirects to the original
// destination. Recording requires a resolvable token and a verified
// destination signature; the redirect itself requires neither.
func (h *Handler) HandleClick(w http.ResponseWriter, r *http.Request) {
	tok := chi.URLParam(r, "token")

	dest, err := personalize.DecodeDest(r.URL.Query().Get("d"))
	if err != nil || !isHTTPURL(dest) {
		// Nothing sane to redirect to.
		http.Error(w, "bad link", http.StatusBadRequest)
		return
	}

	if h.links.Verify(tok, dest, r.URL.Query().Get("s")) {
		h.record(r, tok, domain.EventClick, dest)
	} else {
		logger.Debug("click signature mismatch", "token", tok)
	}

	http.Redirect(w, r, dest, http.StatusTemporaryRedirect)
}

// HandleHealth reports liveness.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// record resolves the token and persists the event. All failures are
// logged and swallowed; tracking must never surface errors to a mail
// client.
func (h *Handler) record(r *http.Request, tok string, eventType domain.TrackingEventType, linkURL string) {
	if !token.Valid(tok) {
		return
	}
	ua := r.UserAgent()
	if h.bots.IsBot(ua) {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), h.timeout)
	defer cancel()

	res, err := h.tokens.Resolve(ctx, tok)
	if err != nil {
		if !errors.Is(err, token.ErrNotFound) {
			logger.Warn("token resolution failed", "error", err)
		}
		return
	}

	evt := &domain.TrackingEvent{
		OrganizationID: res.OrganizationID,
		CampaignID:     res.CampaignID,
		RecipientID:    res.RecipientID,
		MemberID:       res.MemberID,
		EventType:      eventType,
		LinkURL:        linkURL,
		IPAddress:      realIP(r),
		UserAgent:      ua,
		CreatedAt:      time.Now().UTC(),
	}
	if err := h.events.RecordEvent(ctx, evt); err != nil {
		logger.Warn("record event failed", "event_type", string(eventType), "error", err)
	}
}

func (h *Handler) servePixel(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "image/gif")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	w.Write(pixelGIF)
}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func realIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx > 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return xff
	}
	if xri := r.Header.Get("X-Real-Ip"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
