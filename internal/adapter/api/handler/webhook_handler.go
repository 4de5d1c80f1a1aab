package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/user/onboardflow/internal/pkg/webhook"
)

const maxWebhookBody = 1 << 20 // Stripe payloads are small; cap at 1 MiB.

// BillingService applies verified payment events.
type BillingService interface {
	HandleCheckoutCompleted(ctx context.Context, email, stripeCustomerID string) error
}

// WebhookHandler serves the Stripe webhook endpoint.
type WebhookHandler struct {
	billing BillingService
	logger  *slog.Logger
	secret  string
	now     func() time.Time
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(billing BillingService, logger *slog.Logger, secret string) *WebhookHandler {
	return &WebhookHandler{
		billing: billing,
		logger:  logger,
		secret:  secret,
		now:     time.Now,
	}
}

// stripeEvent is the subset of the Stripe event envelope this service reads.
type stripeEvent struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			Customer        string `json:"customer"`
			CustomerEmail   string `json:"customer_email"`
			CustomerDetails struct {
				Email string `json:"email"`
			} `json:"customer_details"`
		} `json:"object"`
	} `json:"data"`
}

// Stripe handles POST /api/webhook/stripe.
func (h *WebhookHandler) Stripe(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "unreadable body"})
		return
	}

	sig := r.Header.Get("Stripe-Signature")
	if err := webhook.VerifyStripeSignature(payload, sig, h.secret, webhook.DefaultTolerance, h.now()); err != nil {
		h.logger.Warn("rejected stripe webhook", "error", err, "remote_addr", r.RemoteAddr)
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid signature"})
		return
	}

	var event stripeEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid payload"})
		return
	}

	switch event.Type {
	case "checkout.session.completed":
		email := event.Data.Object.CustomerDetails.Email
		if email == "" {
			email = event.Data.Object.CustomerEmail
		}
		if err := h.billing.HandleCheckoutCompleted(r.Context(), email, event.Data.Object.Customer); err != nil {
			// Stripe retries on non-2xx, so only a transient failure
			// should bubble up as an error status.
			respondError(w, h.logger, err)
			return
		}
	default:
		h.logger.Info("ignoring stripe event", "type", event.Type)
	}

	respondJSON(w, http.StatusOK, map[string]any{"received": true})
}
