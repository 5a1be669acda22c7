package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"storefront-orders/internal/store"
	"storefront-orders/internal/util"

	"go.uber.org/zap"
)

var (
	ErrUnauthenticated = errors.New("no authenticated user")
	ErrLookupFailed    = errors.New("order lookup failed")
)

// SessionLookupFields are the order columns that may hold a checkout session
// id. stripe_payment_id predates the split into stripe_checkout_session_id and
// stays until every row has the newer column populated.
var SessionLookupFields = []string{"stripe_checkout_session_id", "stripe_payment_id"}

// LandingKind selects the checkout landing page a redirect is resolved for
type LandingKind string

const (
	LandingSuccess LandingKind = "success"
	LandingCancel  LandingKind = "cancel"
)

// Path returns the landing page path
func (k LandingKind) Path() string {
	if k == LandingCancel {
		return "/checkout/cancel"
	}
	return "/checkout/success"
}

func (k LandingKind) checkoutParam() string {
	if k == LandingCancel {
		return "cancelled"
	}
	return "success"
}

// Landing targets
const (
	PathOrders              = "/orders"
	PathFeedbackAuthRequire = "/feedback/auth-required"
	PathFeedbackOutage      = "/feedback/outage"
	PathFeedbackForbidden   = "/feedback/forbidden"
)

// Redirect is a landing decision
type Redirect struct {
	Location string
	Reason   string
}

// NormalizeSessionID trims raw. An empty result means no session id was given.
func NormalizeSessionID(raw string) (string, bool) {
	id := strings.TrimSpace(raw)
	return id, id != ""
}

// SessionResolver maps a checkout session token to the caller's order
type SessionResolver struct {
	store  SessionStore
	fields []string
	logger *zap.Logger
}

// NewSessionResolver creates a resolver matching on SessionLookupFields
func NewSessionResolver(store SessionStore) *SessionResolver {
	return &SessionResolver{
		store:  store,
		fields: SessionLookupFields,
		logger: util.GetLogger().Named("session"),
	}
}

// Resolve returns the id of the order owned by userID whose checkout session
// matches sessionID in any lookup field.
func (r *SessionResolver) Resolve(ctx context.Context, userID, sessionID string) (int64, bool, error) {
	if userID == "" {
		return 0, false, ErrUnauthenticated
	}
	sessionID, ok := NormalizeSessionID(sessionID)
	if !ok {
		return 0, false, nil
	}

	ctx, span := util.StartSpan(ctx, "SessionResolver.Resolve")
	defer span.End()

	candidates := make([]store.FieldMatch, len(r.fields))
	for i, col := range r.fields {
		candidates[i] = store.FieldMatch{Column: col, Value: sessionID}
	}

	id, found, err := r.store.FindOrderIDByCandidates(ctx, userID, candidates)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %w", ErrLookupFailed, err)
	}
	return id, found, nil
}

// Landing decides where a checkout landing request for rawSessionID goes.
// An unknown session and another user's session both lead to the forbidden
// page.
func (r *SessionResolver) Landing(ctx context.Context, userID, rawSessionID string, kind LandingKind) Redirect {
	sessionID, ok := NormalizeSessionID(rawSessionID)
	if !ok {
		return r.decide(Redirect{Location: PathOrders, Reason: "no_session"})
	}

	if userID == "" {
		callback := kind.Path() + "?" + url.Values{"session_id": {sessionID}}.Encode()
		return r.decide(Redirect{
			Location: PathFeedbackAuthRequire + "?" + url.Values{"callbackUrl": {callback}}.Encode(),
			Reason:   "auth_required",
		})
	}

	orderID, found, err := r.Resolve(ctx, userID, sessionID)
	if err != nil {
		r.logger.Error("Checkout session lookup failed", zap.String("user_id", userID), zap.Error(err))
		return r.decide(Redirect{Location: PathFeedbackOutage, Reason: "outage"})
	}
	if !found {
		return r.decide(Redirect{Location: PathFeedbackForbidden, Reason: "forbidden"})
	}

	return r.decide(Redirect{
		Location: fmt.Sprintf("%s/%d?checkout=%s", PathOrders, orderID, kind.checkoutParam()),
		Reason:   "found",
	})
}

func (r *SessionResolver) decide(rd Redirect) Redirect {
	util.SessionLookupsTotal.WithLabelValues(rd.Reason).Inc()
	return rd
}
