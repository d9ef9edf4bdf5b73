package payment

import (
	"context"
	"errors"
	"log/slog"

	"github.com/cenkalti/backoff/v5"

	"github.com/arnaud-devs/hangart-sub000/domain"
	apperrors "github.com/arnaud-devs/hangart-sub000/errors"
	"github.com/arnaud-devs/hangart-sub000/gateway"
)

// awaitSettlement polls the payment status at a fixed interval until the
// provider reports a terminal status or the attempt budget runs out.
// Polling is strictly sequential; each request completes before the next
// interval starts, and cancelling the context stops the loop immediately.
func (c *Coordinator) awaitSettlement(ctx context.Context, initial *domain.Payment) (*Result, error) {
	log := c.logger.With(slog.String("payment_id", initial.ID))

	attempt := 0
	poll := func() (*domain.Payment, error) {
		attempt++
		p, err := c.fetchStatus(ctx, initial.ID)
		if err != nil {
			// A failed status check is retried on the same schedule as a
			// pending one; the payment may still settle.
			log.WarnContext(ctx, "payment status check failed",
				slog.Int("attempt", attempt), slog.String("error", err.Error()))
			return nil, err
		}

		switch p.Status {
		case domain.PaymentStatusSuccessful:
			return p, nil
		case domain.PaymentStatusFailed, domain.PaymentStatusCancelled:
			reason := p.FailureReason
			if reason == "" {
				reason = "payment " + p.Status
			}
			return p, backoff.Permanent(apperrors.ProviderDeclined(reason))
		default:
			log.DebugContext(ctx, "payment still pending", slog.Int("attempt", attempt))
			return p, apperrors.PaymentPending(p.ID)
		}
	}

	settled, err := backoff.Retry(ctx, poll,
		backoff.WithBackOff(backoff.NewConstantBackOff(c.cfg.PollInterval)),
		backoff.WithMaxTries(c.cfg.MaxPollAttempts),
	)
	if err == nil {
		log.InfoContext(ctx, "payment settled", slog.Int("attempts", attempt))
		return &Result{State: StateSucceeded, Payment: settled}, nil
	}

	switch {
	case errors.Is(err, apperrors.ErrProviderDeclined):
		var appErr *apperrors.AppError
		message := ""
		if errors.As(err, &appErr) {
			message = appErr.Message
		}
		log.InfoContext(ctx, "payment declined", slog.String("reason", message))
		return &Result{State: StateFailed, Payment: initial, Message: message}, err

	case errors.Is(err, apperrors.ErrPaymentPending):
		// Attempt budget exhausted. The payment may still settle
		// server-side; the caller decides how to present the limbo.
		log.InfoContext(ctx, "payment still pending after polling budget",
			slog.Int("attempts", attempt))
		return &Result{State: StateStillPending, Payment: initial}, err

	default:
		// Context cancellation or a persistent transport failure.
		return nil, err
	}
}

// paymentStatusResponse is the status endpoint's body.
type paymentStatusResponse struct {
	Payment domain.Payment `json:"payment"`
}

// Get fetches a payment by id.
func (c *Coordinator) Get(ctx context.Context, paymentID string) (*domain.Payment, error) {
	resp, err := c.gw.Get(ctx, "/payments/"+paymentID+"/")
	if err != nil {
		return nil, err
	}
	return decodePayment(resp)
}

func (c *Coordinator) fetchStatus(ctx context.Context, paymentID string) (*domain.Payment, error) {
	resp, err := c.gw.Get(ctx, "/payments/"+paymentID+"/status/")
	if err != nil {
		return nil, err
	}
	return decodePayment(resp)
}

func decodePayment(resp *gateway.Response) (*domain.Payment, error) {
	var out paymentStatusResponse
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	if out.Payment.ID == "" {
		// Some endpoint generations return the payment unwrapped.
		var flat domain.Payment
		if err := resp.Decode(&flat); err != nil {
			return nil, err
		}
		return &flat, nil
	}
	return &out.Payment, nil
}
