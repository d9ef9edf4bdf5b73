// Package payment drives an order's payment from initiation to a terminal
// outcome. Each supported method settles differently: card settles inline
// through an injected confirmer, PayPal hands the user to an approval page,
// and mobile money is confirmed on the payer's handset and polled for.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/arnaud-devs/hangart-sub000/domain"
	apperrors "github.com/arnaud-devs/hangart-sub000/errors"
	"github.com/arnaud-devs/hangart-sub000/gateway"
	"github.com/arnaud-devs/hangart-sub000/validator"
)

// State is the terminal disposition of a payment attempt as seen by the
// client. A redirected payment resolves out-of-band; a still-pending mobile
// money payment may yet settle server-side.
type State string

const (
	StateSucceeded    State = "succeeded"
	StateFailed       State = "failed"
	StateRedirected   State = "redirected"
	StateStillPending State = "still_pending"
)

// Result is the outcome of a Pay call. Payment carries the last server
// snapshot when one was obtained.
type Result struct {
	State       State
	Payment     *domain.Payment
	RedirectURL string
	Message     string
}

// ConfirmInput hands the provider session token to the card confirmer.
type ConfirmInput struct {
	ClientSecret string
	Amount       int64
	Currency     string
}

// ConfirmResult is the confirmer's verdict on a card settlement.
type ConfirmResult struct {
	// Status is "succeeded" or "failed".
	Status string

	// RedirectURL is set when the issuer requires a provider-hosted
	// challenge before the payment can settle.
	RedirectURL string

	FailureReason string
}

// CardConfirmer completes a card payment using the provider session token
// returned by initiation. It is an external capability of the host
// application (an embedded provider SDK, typically).
type CardConfirmer interface {
	Confirm(ctx context.Context, input ConfirmInput) (*ConfirmResult, error)
}

// Navigator sends the user to an external URL, leaving the current view.
// For browser hosts this is a location change; for others it opens the
// system browser.
type Navigator interface {
	Navigate(ctx context.Context, url string) error
}

// Config tunes the mobile money polling loop.
type Config struct {
	PollInterval    time.Duration
	MaxPollAttempts uint
}

// DefaultConfig polls every 10 seconds for at most 30 attempts, bounding
// the wait at five minutes.
func DefaultConfig() Config {
	return Config{
		PollInterval:    10 * time.Second,
		MaxPollAttempts: 30,
	}
}

// Coordinator settles payments through the gateway.
type Coordinator struct {
	gw        *gateway.Gateway
	logger    *slog.Logger
	cfg       Config
	confirmer CardConfirmer
	navigator Navigator
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithCardConfirmer injects the card settlement capability.
func WithCardConfirmer(c CardConfirmer) CoordinatorOption {
	return func(co *Coordinator) { co.confirmer = c }
}

// WithNavigator injects the external navigation capability used by
// redirect-based methods.
func WithNavigator(n Navigator) CoordinatorOption {
	return func(co *Coordinator) { co.navigator = n }
}

// NewCoordinator creates a payment coordinator.
func NewCoordinator(gw *gateway.Gateway, log *slog.Logger, cfg Config, opts ...CoordinatorOption) *Coordinator {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultConfig().PollInterval
	}
	if cfg.MaxPollAttempts == 0 {
		cfg.MaxPollAttempts = DefaultConfig().MaxPollAttempts
	}
	c := &Coordinator{gw: gw, logger: log, cfg: cfg}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Request selects the payment method for an order. PhoneNumber is required
// for mobile money and ignored otherwise; PayerMessage is the optional text
// shown on the payer's handset prompt.
type Request struct {
	Method       string
	PhoneNumber  string
	PayerMessage string
}

// Pay settles the given order. The order must be awaiting payment; any other
// status fails locally without touching the network.
func (c *Coordinator) Pay(ctx context.Context, order *domain.Order, req Request) (*Result, error) {
	if !order.IsPayable() {
		return nil, apperrors.OrderNotPayable(order.ID, order.Status)
	}

	switch req.Method {
	case domain.PaymentMethodCard:
		return c.payCard(ctx, order)
	case domain.PaymentMethodPayPal:
		return c.payPayPal(ctx, order)
	case domain.PaymentMethodMobileMoney:
		return c.payMobileMoney(ctx, order, req)
	default:
		return nil, apperrors.Validation(fmt.Sprintf("unsupported payment method %q", req.Method))
	}
}

// initiateResponse is the initiation endpoint's body: the created payment
// plus method-specific settlement material.
type initiateResponse struct {
	Payment      domain.Payment `json:"payment"`
	ClientSecret string         `json:"client_secret"`
	ApprovalURL  string         `json:"approval_url"`
}

func (c *Coordinator) initiate(ctx context.Context, orderID string, body map[string]string) (*initiateResponse, error) {
	resp, err := c.gw.Post(ctx, "/payments/initiate/"+orderID+"/",
		gateway.WithBody(body),
		gateway.WithHeader("Idempotency-Key", uuid.New().String()),
	)
	if err != nil {
		// Transport and auth failures keep their identity; an API
		// rejection of the initiation itself gets the initiation code.
		if errors.Is(err, apperrors.ErrNetwork) || errors.Is(err, apperrors.ErrAuthExpired) {
			return nil, err
		}
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, apperrors.InitiationFailed(appErr.Status, appErr.Message)
		}
		return nil, err
	}

	var out initiateResponse
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Coordinator) payCard(ctx context.Context, order *domain.Order) (*Result, error) {
	init, err := c.initiate(ctx, order.ID, map[string]string{
		"method":   domain.PaymentMethodCard,
		"currency": order.Currency,
	})
	if err != nil {
		return nil, err
	}

	log := c.logger.With(slog.String("order_id", order.ID), slog.String("payment_id", init.Payment.ID))

	if init.ClientSecret == "" || c.confirmer == nil {
		// No inline settlement possible. The server either settled the
		// payment during initiation or requires a hosted page.
		return c.resultFromPayment(ctx, &init.Payment, init.ApprovalURL)
	}

	confirm, err := c.confirmer.Confirm(ctx, ConfirmInput{
		ClientSecret: init.ClientSecret,
		Amount:       init.Payment.Amount,
		Currency:     init.Payment.Currency,
	})
	if err != nil {
		return nil, apperrors.Wrap(err, "card confirmation")
	}

	switch {
	case confirm.RedirectURL != "":
		log.InfoContext(ctx, "card payment requires provider challenge")
		return &Result{State: StateRedirected, Payment: &init.Payment, RedirectURL: confirm.RedirectURL}, nil
	case confirm.Status == "succeeded":
		log.InfoContext(ctx, "card payment settled")
		return &Result{State: StateSucceeded, Payment: &init.Payment}, nil
	default:
		log.InfoContext(ctx, "card payment declined", slog.String("reason", confirm.FailureReason))
		return &Result{State: StateFailed, Payment: &init.Payment, Message: confirm.FailureReason},
			apperrors.ProviderDeclined(confirm.FailureReason)
	}
}

func (c *Coordinator) payPayPal(ctx context.Context, order *domain.Order) (*Result, error) {
	init, err := c.initiate(ctx, order.ID, map[string]string{
		"method":   domain.PaymentMethodPayPal,
		"currency": order.Currency,
	})
	if err != nil {
		return nil, err
	}
	if init.ApprovalURL == "" {
		return nil, apperrors.InitiationFailed(0, "initiation returned no approval URL")
	}

	if c.navigator != nil {
		if err := c.navigator.Navigate(ctx, init.ApprovalURL); err != nil {
			return nil, apperrors.Wrap(err, "open approval page")
		}
	}

	c.logger.InfoContext(ctx, "redirected to payment approval",
		slog.String("order_id", order.ID), slog.String("payment_id", init.Payment.ID))
	return &Result{State: StateRedirected, Payment: &init.Payment, RedirectURL: init.ApprovalURL}, nil
}

func (c *Coordinator) payMobileMoney(ctx context.Context, order *domain.Order, req Request) (*Result, error) {
	if !validator.ValidMSISDN(req.PhoneNumber) {
		return nil, apperrors.ValidationFields("invalid mobile money number",
			map[string]string{"phone_number": "must be a valid Cameroonian mobile number"})
	}

	body := map[string]string{
		"method":       domain.PaymentMethodMobileMoney,
		"phone_number": req.PhoneNumber,
		"currency":     order.Currency,
	}
	if req.PayerMessage != "" {
		body["payer_message"] = req.PayerMessage
	}

	init, err := c.initiate(ctx, order.ID, body)
	if err != nil {
		return nil, err
	}

	c.logger.InfoContext(ctx, "mobile money payment initiated, awaiting payer confirmation",
		slog.String("order_id", order.ID), slog.String("payment_id", init.Payment.ID))

	return c.awaitSettlement(ctx, &init.Payment)
}

// resultFromPayment maps a server payment snapshot to a terminal result
// when no client-side settlement step applies. A payment still pending at
// this point is polled like a mobile money one.
func (c *Coordinator) resultFromPayment(ctx context.Context, p *domain.Payment, redirectURL string) (*Result, error) {
	if redirectURL != "" {
		return &Result{State: StateRedirected, Payment: p, RedirectURL: redirectURL}, nil
	}
	switch p.Status {
	case domain.PaymentStatusSuccessful:
		return &Result{State: StateSucceeded, Payment: p}, nil
	case domain.PaymentStatusFailed, domain.PaymentStatusCancelled:
		return &Result{State: StateFailed, Payment: p, Message: p.FailureReason},
			apperrors.ProviderDeclined(p.FailureReason)
	default:
		return c.awaitSettlement(ctx, p)
	}
}
