package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/list-subscriptions/internal/domain"
	"github.com/ignite/list-subscriptions/internal/identity"
	"github.com/ignite/list-subscriptions/internal/mailchimp"
	"github.com/ignite/list-subscriptions/internal/pkg/httputil"
	"github.com/ignite/list-subscriptions/internal/pkg/logger"
	"github.com/ignite/list-subscriptions/internal/service/subscription"
)

// Gateway is the subscription service as seen by the handlers.
// *subscription.Service satisfies it.
type Gateway interface {
	ListStatuses(ctx context.Context, email string) ([]domain.SubscriptionView, error)
	Subscribe(ctx context.Context, email, listID string) error
	Unsubscribe(ctx context.Context, email, listID string) error
}

// Handlers contains all HTTP handlers
type Handlers struct {
	gateway Gateway
}

// NewHandlers creates a new Handlers instance
func NewHandlers(gateway Gateway) *Handlers {
	return &Handlers{gateway: gateway}
}

// SubscriptionsResponse is the body of GET /api/mail-subscriptions.
type SubscriptionsResponse struct {
	Lists []domain.SubscriptionView `json:"lists"`
}

// ToggleResponse is the body of the subscribe and unsubscribe endpoints.
// Action is what the button offers next.
type ToggleResponse struct {
	AlertText  string        `json:"alertText"`
	ButtonText string        `json:"buttonText"`
	Action     domain.Action `json:"action"`
}

var buttonText = map[domain.Action]string{
	domain.ActionSubscribe:   "Subscribe",
	domain.ActionUnsubscribe: "Unsubscribe",
}

// ListSubscriptions returns every list with the action available to the
// current user.
//
//	GET /api/mail-subscriptions
func (h *Handlers) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	email, _ := identity.FromContext(r.Context())

	views, err := h.gateway.ListStatuses(r.Context(), email)
	if err != nil {
		writeGatewayError(w, "list statuses", email, err)
		return
	}
	httputil.OK(w, SubscriptionsResponse{Lists: views})
}

// Subscribe subscribes the current user to a list.
//
//	POST /api/mail-subscriptions/{listID}/subscribe
func (h *Handlers) Subscribe(w http.ResponseWriter, r *http.Request) {
	email, _ := identity.FromContext(r.Context())
	listID, ok := listIDParam(w, r)
	if !ok {
		return
	}

	if err := h.gateway.Subscribe(r.Context(), email, listID); err != nil {
		writeGatewayError(w, "subscribe", email, err)
		return
	}
	httputil.OK(w, toggleResponse(domain.ActionSubscribe, "You have subscribed to the mailing list."))
}

// Unsubscribe unsubscribes the current user from a list.
//
//	POST /api/mail-subscriptions/{listID}/unsubscribe
func (h *Handlers) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	email, _ := identity.FromContext(r.Context())
	listID, ok := listIDParam(w, r)
	if !ok {
		return
	}

	if err := h.gateway.Unsubscribe(r.Context(), email, listID); err != nil {
		writeGatewayError(w, "unsubscribe", email, err)
		return
	}
	httputil.OK(w, toggleResponse(domain.ActionUnsubscribe, "You have unsubscribed from the mailing list."))
}

// toggleResponse offers the inverse of the action just performed.
func toggleResponse(done domain.Action, alert string) ToggleResponse {
	next := done.Inverse()
	return ToggleResponse{AlertText: alert, ButtonText: buttonText[next], Action: next}
}

// listIDParam returns the unescaped {listID} segment. chi matches on the raw
// path, so an escaped id would otherwise be escaped twice by the client.
func listIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	listID, err := url.PathUnescape(chi.URLParam(r, "listID"))
	if err != nil {
		httputil.BadRequest(w, "invalid list id")
		return "", false
	}
	return listID, true
}

// writeGatewayError maps service errors to statuses. Remote failures never
// leak their details to the client.
func writeGatewayError(w http.ResponseWriter, op, email string, err error) {
	switch {
	case errors.Is(err, subscription.ErrEmailRequired), errors.Is(err, subscription.ErrListIDRequired):
		httputil.BadRequest(w, err.Error())
	case mailchimp.IsRemote(err):
		httputil.BadGateway(w, "mailing list provider unavailable", fmt.Errorf("%s: %w", op, err))
	default:
		logger.Error("api: gateway failed", "op", op, "email", email, "error", err)
		httputil.Error(w, http.StatusInternalServerError, "internal server error")
	}
}
