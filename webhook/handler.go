package webhook

import (
	"encoding/json"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/gobridge-ja/bluekun/dispatch"
	"github.com/gobridge-ja/bluekun/intent"
)

// Handler is the HTTP entry point for webhook deliveries: verify,
// parse, extract, dispatch. Each check fails closed.
type Handler struct {
	verifier  *Verifier
	extractor *intent.Extractor
	router    *dispatch.Router
	log       *zap.Logger
}

// NewHandler constructs a *Handler.
func NewHandler(verifier *Verifier, extractor *intent.Extractor, router *dispatch.Router, log *zap.Logger) *Handler {
	return &Handler{
		verifier:  verifier,
		extractor: extractor,
		router:    router,
		log:       log,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.log.Warn("reading webhook body failed", zap.Error(err))
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	if err := h.verifier.Verify(body, r.Header.Get(SignatureHeader)); err != nil {
		h.log.Warn("rejecting unauthenticated webhook",
			zap.String("remote", r.RemoteAddr),
			zap.Error(err))
		http.Error(w, "signature verification failed", http.StatusUnauthorized)
		return
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		h.log.Warn("rejecting malformed webhook payload", zap.Error(err))
		http.Error(w, "malformed payload", http.StatusBadRequest)
		return
	}

	cmd := h.extractor.Extract(env.WebhookEvent.Body)
	if err := h.router.Dispatch(r.Context(), cmd); err != nil {
		// Surface dispatch failures so Chatwork retries the delivery.
		h.log.Error("dispatch failed", zap.Error(err))
		http.Error(w, "dispatch failed", http.StatusBadGateway)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
