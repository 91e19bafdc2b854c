// Package gateway talks to the external payment provider. The provider is a
// black box from the service's point of view: it hands out intents with a
// client secret and later reports outcomes through signed webhook events.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrGatewayUnavailable is returned when intent creation fails outright.
// The orchestrator must move the order to a terminal state in response.
var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

// Intent is the gateway's representation of an in-progress charge attempt.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

// IntentParams carries everything needed to open an intent. The order and
// user ids ride along as metadata so webhook events can be cross-checked
// against local records.
type IntentParams struct {
	AmountCents int64
	Currency    string
	OrderID     string
	UserID      uint64
	Description string
}

// Client is a thin REST client for the provider's intent API. Every call is
// bounded by the configured timeout; a timeout is surfaced distinctly from a
// hard failure because the two demand different compensations upstream.
type Client struct {
	http      *resty.Client
	secretKey string
}

// NewClient builds a Client against the given API base URL using the
// account's secret key for bearer authentication.
func NewClient(baseURL, secretKey string, timeout time.Duration) *Client {
	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetAuthToken(secretKey)
	return &Client{http: rc, secretKey: secretKey}
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// CreateIntent opens a payment intent for the exact integer amount in minor
// currency units. The provider accepts form-encoded bodies; metadata keys
// carry the originating order so the webhook reconciler can locate it.
func (c *Client) CreateIntent(ctx context.Context, p IntentParams) (*Intent, error) {
	var out Intent
	var apiErr apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"amount":                             strconv.FormatInt(p.AmountCents, 10),
			"currency":                           p.Currency,
			"description":                        p.Description,
			"metadata[order_id]":                 p.OrderID,
			"metadata[user_id]":                  strconv.FormatUint(p.UserID, 10),
			"automatic_payment_methods[enabled]": "true",
		}).
		SetResult(&out).
		SetError(&apiErr).
		Post("/v1/payment_intents")
	if err != nil {
		if IsTimeout(err) {
			return nil, fmt.Errorf("create intent: %w", err)
		}
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: %s (%s)", ErrGatewayUnavailable, apiErr.Error.Message, apiErr.Error.Type)
	}
	if out.ID == "" || out.ClientSecret == "" {
		return nil, fmt.Errorf("%w: malformed intent response", ErrGatewayUnavailable)
	}
	return &out, nil
}

// IsTimeout reports whether the error is a deadline rather than a refusal.
// On timeout the caller must not assume failure or success; the order stays
// pending and the webhook (or the reaper) resolves truth later.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
