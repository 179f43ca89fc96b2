package subscription

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
	"gymdesk/internal/plan"
)

var (
	ErrMembershipNotFound = api.NotFound("membership not found")
	ErrTrainingNotFound   = api.NotFound("training not found")
	ErrConcurrentUpdate   = api.Conflict("subscription was modified concurrently, reload and retry")
	ErrInvalidKind        = api.BadRequest("kind must be membership or training")
)

const expiryBatch = 200

// NotFound returns the not-found error for kind.
func NotFound(kind Kind) error {
	if kind == KindTraining {
		return ErrTrainingNotFound
	}
	return ErrMembershipNotFound
}

// Notifier queues member notifications.
type Notifier interface {
	Enqueue(ctx context.Context, job notify.Job) error
}

// VariantSource looks up the variant a renewal would be priced from.
type VariantSource interface {
	GetVariantDetail(ctx context.Context, orgID string, id int) (*plan.VariantDetail, error)
}

type Service interface {
	Get(ctx context.Context, orgID string, kind Kind, id int) (*Subscription, error)
	List(ctx context.Context, orgID string, kind Kind, f Filter) ([]Subscription, int, error)
	ActiveForMember(ctx context.Context, orgID string, kind Kind, memberID int) ([]Subscription, error)
	Update(ctx context.Context, orgID string, kind Kind, id int, req UpdateRequest) (*Subscription, error)
	Freeze(ctx context.Context, orgID string, kind Kind, id int) (*Subscription, error)
	Unfreeze(ctx context.Context, orgID string, kind Kind, id int) (*Subscription, error)
	Cancel(ctx context.Context, orgID string, kind Kind, id int, reason string) (*Subscription, error)
	ExpireDue(ctx context.Context, now time.Time) (ExpiryResult, error)
}

type service struct {
	repo     Repository
	plans    VariantSource
	notifier Notifier
	now      func() time.Time
}

func NewService(repo Repository, plans VariantSource, notifier Notifier) Service {
	return &service{
		repo:     repo,
		plans:    plans,
		notifier: notifier,
		now:      time.Now,
	}
}

func (s *service) Get(ctx context.Context, orgID string, kind Kind, id int) (*Subscription, error) {
	if !kind.Valid() {
		return nil, ErrInvalidKind
	}
	sub, err := s.repo.Get(ctx, orgID, kind, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NotFound(kind)
		}
		return nil, fmt.Errorf("get %s: %w", kind, err)
	}
	sub.Status = sub.EffectiveStatus(s.now())
	return sub, nil
}

func (s *service) List(ctx context.Context, orgID string, kind Kind, f Filter) ([]Subscription, int, error) {
	if !kind.Valid() {
		return nil, 0, ErrInvalidKind
	}
	switch f.Status {
	case "", StatusActive, StatusFrozen, StatusCancelled, StatusExpired:
	default:
		return nil, 0, api.BadRequest("status must be one of: active frozen cancelled expired")
	}

	subs, total, err := s.repo.List(ctx, orgID, kind, f)
	if err != nil {
		return nil, 0, err
	}
	today := s.now()
	for i := range subs {
		subs[i].Status = subs[i].EffectiveStatus(today)
	}
	return subs, total, nil
}

func (s *service) ActiveForMember(ctx context.Context, orgID string, kind Kind, memberID int) ([]Subscription, error) {
	return s.repo.ActiveForMember(ctx, orgID, kind, memberID)
}

func (s *service) Update(ctx context.Context, orgID string, kind Kind, id int, req UpdateRequest) (*Subscription, error) {
	cur, err := s.Get(ctx, orgID, kind, id)
	if err != nil {
		return nil, err
	}
	if err := Check(kind, cur.Status, ActionEdit); err != nil {
		return nil, err
	}

	upd := TermsUpdate{AutoRenew: req.AutoRenew, Notes: req.Notes}
	start, end := cur.StartDate, cur.EndDate

	if req.StartDate != nil {
		if start, err = ParseDate(*req.StartDate); err != nil {
			return nil, err
		}
		upd.StartDate = &start
	}
	if req.EndDate != nil {
		if end, err = ParseDate(*req.EndDate); err != nil {
			return nil, err
		}
		upd.EndDate = &end
	}
	if end.Before(start) {
		return nil, ErrEndBeforeStart
	}

	if req.DiscountAmount != nil {
		discount := req.DiscountAmount.Round(2)
		if discount.IsNegative() || discount.GreaterThan(cur.PriceAtPurchase) {
			return nil, ErrDiscountRange
		}
		final := FinalPrice(cur.PriceAtPurchase, discount)
		upd.DiscountAmount = &discount
		upd.FinalPrice = &final
	}

	updated, err := s.repo.UpdateTerms(ctx, orgID, kind, id, cur.Version, upd)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrConcurrentUpdate
		}
		return nil, fmt.Errorf("update %s: %w", kind, err)
	}

	keepDisplay(updated, cur)
	return updated, nil
}

func (s *service) Freeze(ctx context.Context, orgID string, kind Kind, id int) (*Subscription, error) {
	return s.transition(ctx, orgID, kind, id, ActionFreeze, "")
}

func (s *service) Unfreeze(ctx context.Context, orgID string, kind Kind, id int) (*Subscription, error) {
	return s.transition(ctx, orgID, kind, id, ActionUnfreeze, "")
}

func (s *service) Cancel(ctx context.Context, orgID string, kind Kind, id int, reason string) (*Subscription, error) {
	return s.transition(ctx, orgID, kind, id, ActionCancel, reason)
}

func (s *service) transition(ctx context.Context, orgID string, kind Kind, id int, action Action, reason string) (*Subscription, error) {
	cur, err := s.Get(ctx, orgID, kind, id)
	if err != nil {
		return nil, err
	}

	to, err := Transition(kind, cur.Status, action)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.SetStatus(ctx, orgID, kind, id, cur.Version, to, reason)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrConcurrentUpdate
		}
		return nil, fmt.Errorf("%s %s: %w", action, kind, err)
	}
	keepDisplay(updated, cur)

	metrics.RecordTransition(string(kind), string(to))
	logger.Info("subscription transitioned",
		"org_id", orgID,
		"kind", kind,
		"subscription_id", id,
		"from", cur.Status,
		"to", to,
	)

	switch action {
	case ActionFreeze:
		s.notify(ctx, notify.SubscriptionFrozen(updated.Recipient(), true))
	case ActionUnfreeze:
		s.notify(ctx, notify.SubscriptionFrozen(updated.Recipient(), false))
	case ActionCancel:
		s.notify(ctx, notify.SubscriptionCancelled(updated.Recipient(), reason))
	}
	return updated, nil
}

// ExpireDue persists expiry for every active subscription that ended
// before now, renewing those with autoRenew whose plan is still sold.
func (s *service) ExpireDue(ctx context.Context, now time.Time) (ExpiryResult, error) {
	var res ExpiryResult
	today := DateOf(now)

	for {
		due, err := s.repo.DueForExpiry(ctx, today, expiryBatch)
		if err != nil {
			metrics.RecordExpirySweep("error", res.Expired, res.Renewed)
			return res, err
		}

		before := res.Expired
		for i := range due {
			s.expireOne(ctx, &due[i], &res)
		}

		if len(due) < expiryBatch || res.Expired == before {
			break
		}
	}

	metrics.RecordExpirySweep("ok", res.Expired, res.Renewed)
	return res, nil
}

func (s *service) expireOne(ctx context.Context, sub *Subscription, res *ExpiryResult) {
	if sub.AutoRenew {
		if renewal, ok := s.renewalFor(ctx, sub); ok {
			created, err := s.repo.Renew(ctx, sub, renewal)
			if err == nil {
				res.Expired++
				res.Renewed++
				keepDisplay(created, sub)
				metrics.RecordTransition(string(sub.Kind), string(StatusExpired))
				metrics.RecordSubscription(string(sub.Kind), "renewal")
				logger.Info("subscription renewed",
					"org_id", sub.OrgID,
					"subscription_id", sub.ID,
					"renewal_id", created.ID,
				)
				s.notify(ctx, notify.SubscriptionRenewed(created.Recipient(), created.StartDate, created.EndDate, created.FinalPrice))
				return
			}
			if !errors.Is(err, sql.ErrNoRows) {
				res.Failed++
				logger.Error("failed to renew subscription", "subscription_id", sub.ID, "error", err)
			}
			return
		}
	}

	if err := s.repo.MarkExpired(ctx, sub); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			res.Failed++
			logger.Error("failed to expire subscription", "subscription_id", sub.ID, "error", err)
		}
		return
	}

	res.Expired++
	metrics.RecordTransition(string(sub.Kind), string(StatusExpired))
	s.notify(ctx, notify.SubscriptionExpired(sub.Recipient(), sub.EndDate))
}

// renewalFor prices the successor of sub from its variant's current price.
// The old discount carries over, capped at the new price.
func (s *service) renewalFor(ctx context.Context, sub *Subscription) (*Subscription, bool) {
	v, err := s.plans.GetVariantDetail(ctx, sub.OrgID, sub.PlanVariantID)
	if err != nil {
		logger.Warn("renewal variant lookup failed", "subscription_id", sub.ID, "error", err)
		return nil, false
	}
	if !v.IsActive || !v.PlanTypeActive {
		logger.Info("auto-renew skipped, plan no longer sold", "subscription_id", sub.ID, "plan_variant_id", v.ID)
		return nil, false
	}

	discount := sub.DiscountAmount
	if discount.GreaterThan(v.Price) {
		discount = v.Price
	}
	terms, err := ComputeTerms(sub.EndDate, v.DurationDays, v.Price, discount)
	if err != nil {
		logger.Warn("renewal terms rejected", "subscription_id", sub.ID, "error", err)
		return nil, false
	}

	renewedFrom := sub.ID
	return &Subscription{
		OrgID:           sub.OrgID,
		Kind:            sub.Kind,
		MemberID:        sub.MemberID,
		PlanVariantID:   sub.PlanVariantID,
		TrainerID:       sub.TrainerID,
		RenewedFromID:   &renewedFrom,
		StartDate:       terms.StartDate,
		EndDate:         terms.EndDate,
		PriceAtPurchase: terms.PriceAtPurchase,
		DiscountAmount:  terms.DiscountAmount,
		FinalPrice:      terms.FinalPrice,
		AutoRenew:       true,
		Notes:           sub.Notes,
	}, true
}

func (s *service) notify(ctx context.Context, job notify.Job) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Enqueue(ctx, job); err != nil {
		logger.Warn("notification not queued", "kind", job.Kind, "error", err)
	}
}

// Recipient addresses notifications about s to its member.
func (s *Subscription) Recipient() notify.Recipient {
	planName := s.PlanName
	if s.DurationLabel != "" {
		planName += " (" + s.DurationLabel + ")"
	}
	return notify.Recipient{
		Email: s.MemberEmail,
		Name:  s.MemberName,
		Kind:  string(s.Kind),
		Plan:  planName,
	}
}

// keepDisplay copies the joined display columns, which write statements do
// not return.
func keepDisplay(dst, src *Subscription) {
	dst.MemberName = src.MemberName
	dst.MemberEmail = src.MemberEmail
	dst.PlanName = src.PlanName
	dst.DurationLabel = src.DurationLabel
	dst.TrainerName = src.TrainerName
}
