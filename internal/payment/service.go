package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gymdesk/internal/api"
	"gymdesk/internal/logger"
	"gymdesk/internal/metrics"
	"gymdesk/internal/notify"
	"gymdesk/internal/subscription"
)

var (
	ErrPaymentNotFound = api.NotFound("payment not found")
	ErrInvalidAmount   = api.BadRequest("amount must be greater than 0")
	ErrInvalidMethod   = api.BadRequest("method must be one of: cash card upi bank_transfer other")
	ErrInvalidStatus   = api.BadRequest("status must be one of: paid pending failed")
	ErrMissingTarget   = api.BadRequest("subscription id is required")
	ErrFullyPaid       = api.Conflict("subscription is already fully paid")
	ErrNotRefundable   = api.Conflict("only paid payments can be refunded")
)

// SubscriptionReader resolves the subscription a dues query is about.
type SubscriptionReader interface {
	Get(ctx context.Context, orgID string, kind subscription.Kind, id int) (*subscription.Subscription, error)
}

type Service interface {
	Record(ctx context.Context, orgID string, kind subscription.Kind, req RecordRequest) (*Receipt, error)
	Refund(ctx context.Context, orgID string, kind subscription.Kind, paymentID int) (*Payment, error)
	GetDues(ctx context.Context, orgID string, kind subscription.Kind, subID int) (*DuesView, error)
}

type service struct {
	repo     Repository
	subs     SubscriptionReader
	notifier subscription.Notifier
	now      func() time.Time
}

func NewService(repo Repository, subs SubscriptionReader, notifier subscription.Notifier) Service {
	return &service{repo: repo, subs: subs, notifier: notifier, now: time.Now}
}

// Record appends a payment while the subscription row is locked, so two
// concurrent payments see each other's effect on the due amount. The amount
// is not clamped to the due.
func (s *service) Record(ctx context.Context, orgID string, kind subscription.Kind, req RecordRequest) (*Receipt, error) {
	subID := req.Target(kind)
	if subID <= 0 {
		return nil, ErrMissingTarget
	}
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if !req.Method.Valid() {
		return nil, ErrInvalidMethod
	}
	status := req.Status
	switch status {
	case "":
		status = StatusPaid
	case StatusPaid, StatusPending, StatusFailed:
	default:
		return nil, ErrInvalidStatus
	}

	now := s.now()
	var (
		receipt Receipt
		sub     *subscription.Subscription
	)
	err := s.repo.WithLock(ctx, orgID, kind, subID, func(l Ledger) error {
		sub = l.Subscription()
		if err := subscription.Check(kind, sub.EffectiveStatus(now), subscription.ActionPay); err != nil {
			return err
		}
		if ComputeDues(sub.FinalPrice, l.Payments()).IsFullyPaid {
			return ErrFullyPaid
		}

		p := &Payment{
			OrgID:          orgID,
			SubscriptionID: sub.ID,
			MemberID:       sub.MemberID,
			Amount:         req.Amount.Round(2),
			Method:         req.Method,
			Reference:      req.Reference,
			Notes:          req.Notes,
			Status:         status,
		}
		if status == StatusPaid {
			p.PaidAt = &now
		}

		created, err := l.Insert(p)
		if err != nil {
			return err
		}
		receipt.Payment = created
		receipt.Dues = ComputeDues(sub.FinalPrice, l.Payments())
		return nil
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, subscription.NotFound(kind)
		}
		return nil, err
	}

	amount, _ := receipt.Payment.Amount.Float64()
	metrics.RecordPayment(string(kind), string(receipt.Payment.Method), string(receipt.Payment.Status), amount)
	logger.Info("payment recorded",
		"org_id", orgID,
		"kind", kind,
		"subscription_id", subID,
		"payment_id", receipt.Payment.ID,
		"amount", receipt.Payment.Amount.StringFixed(2),
		"due", receipt.Dues.DueAmount.StringFixed(2),
	)

	if receipt.Payment.Status == StatusPaid && s.notifier != nil {
		job := notify.PaymentReceipt(sub.Recipient(), receipt.Payment.Amount, string(receipt.Payment.Method), receipt.Dues.DueAmount)
		if err := s.notifier.Enqueue(ctx, job); err != nil {
			logger.Warn("payment receipt not queued", "payment_id", receipt.Payment.ID, "error", err)
		}
	}
	return &receipt, nil
}

func (s *service) Refund(ctx context.Context, orgID string, kind subscription.Kind, paymentID int) (*Payment, error) {
	p, err := s.repo.Get(ctx, orgID, kind, paymentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}
	if p.Status != StatusPaid {
		return nil, ErrNotRefundable
	}

	refunded, err := s.repo.MarkRefunded(ctx, orgID, paymentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotRefundable
		}
		return nil, fmt.Errorf("refund payment: %w", err)
	}

	metrics.RecordRefund(string(kind))
	logger.Info("payment refunded", "org_id", orgID, "payment_id", paymentID, "amount", refunded.Amount.StringFixed(2))
	return refunded, nil
}

func (s *service) GetDues(ctx context.Context, orgID string, kind subscription.Kind, subID int) (*DuesView, error) {
	sub, err := s.subs.Get(ctx, orgID, kind, subID)
	if err != nil {
		return nil, err
	}

	payments, err := s.repo.ListForSubscription(ctx, orgID, subID)
	if err != nil {
		return nil, err
	}

	return &DuesView{
		SubscriptionID: sub.ID,
		Kind:           sub.Kind,
		Status:         sub.Status,
		Dues:           ComputeDues(sub.FinalPrice, payments),
		Payments:       payments,
	}, nil
}
