package enrollment

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
	"gymdesk/internal/payment"
	"gymdesk/internal/plan"
	"gymdesk/internal/subscription"
	"gymdesk/internal/trainer"
	"gymdesk/internal/user"

	"github.com/shopspring/decimal"
)

var (
	ErrMemberInactive     = api.Unprocessable("member is inactive")
	ErrVariantInactive    = api.Unprocessable("plan variant is inactive")
	ErrTypeInactive       = api.Unprocessable("plan type is inactive")
	ErrTrainerInactive    = api.Unprocessable("trainer is inactive")
	ErrTrainerRequired    = api.BadRequest("trainerId is required for trainings")
	ErrTrainerNotAllowed  = api.BadRequest("trainerId is only accepted for trainings")
	ErrLinkedOnMembership = api.BadRequest("a linked training can only be enrolled with a membership")
	ErrPaymentIncomplete  = api.BadRequest("payment requires a method and an amount greater than 0")
	ErrPaymentExceedsDue  = api.Unprocessable("payment exceeds the amount due on the subscription")
)

// Members resolves the member being enrolled.
type Members interface {
	GetMember(ctx context.Context, orgID string, id int) (*user.User, error)
}

// Trainers resolves the trainer of a training.
type Trainers interface {
	Get(ctx context.Context, orgID string, id int) (*trainer.Trainer, error)
}

type Service interface {
	Enroll(ctx context.Context, orgID string, kind subscription.Kind, req Request) (*Result, error)
}

type service struct {
	repo     Repository
	plans    subscription.VariantSource
	members  Members
	trainers Trainers
	notifier subscription.Notifier
	now      func() time.Time
}

func NewService(repo Repository, plans subscription.VariantSource, members Members, trainers Trainers, notifier subscription.Notifier) Service {
	return &service{
		repo:     repo,
		plans:    plans,
		members:  members,
		trainers: trainers,
		notifier: notifier,
		now:      time.Now,
	}
}

// Enroll validates the wizard state, prices it from the current catalog and
// writes the subscription, an optional linked training and an optional
// first payment in one transaction.
func (s *service) Enroll(ctx context.Context, orgID string, kind subscription.Kind, req Request) (*Result, error) {
	if !kind.Valid() {
		return nil, subscription.ErrInvalidKind
	}
	switch {
	case kind == subscription.KindTraining && req.TrainerID == nil:
		return nil, ErrTrainerRequired
	case kind == subscription.KindMembership && req.TrainerID != nil:
		return nil, ErrTrainerNotAllowed
	case kind == subscription.KindTraining && req.Training != nil:
		return nil, ErrLinkedOnMembership
	}
	if p := req.Payment; p != nil && (!p.Method.Valid() || !p.Amount.IsPositive()) {
		return nil, ErrPaymentIncomplete
	}

	start, err := subscription.ParseDate(req.StartDate)
	if err != nil {
		return nil, err
	}

	member, err := s.members.GetMember(ctx, orgID, req.MemberID)
	if err != nil {
		return nil, err
	}
	if !member.IsActive {
		return nil, ErrMemberInactive
	}

	main, err := s.price(ctx, orgID, kind, member, req.PlanVariantID, req.TrainerID, start, req.DiscountAmount)
	if err != nil {
		return nil, err
	}
	main.AutoRenew = req.AutoRenew
	main.Notes = req.Notes

	var linked *subscription.Subscription
	if tb := req.Training; tb != nil {
		linkedStart := start
		if tb.StartDate != "" {
			if linkedStart, err = subscription.ParseDate(tb.StartDate); err != nil {
				return nil, err
			}
		}
		trainerID := tb.TrainerID
		linked, err = s.price(ctx, orgID, subscription.KindTraining, member, tb.PlanVariantID, &trainerID, linkedStart, tb.DiscountAmount)
		if err != nil {
			return nil, err
		}
		linked.AutoRenew = tb.AutoRenew
		linked.Notes = tb.Notes
	}

	// The first payment settles the primary subscription only; a linked
	// training keeps its own dues.
	if pb := req.Payment; pb != nil {
		if main.FinalPrice.IsZero() {
			return nil, payment.ErrFullyPaid
		}
		if pb.Amount.Round(2).GreaterThan(main.FinalPrice) {
			return nil, ErrPaymentExceedsDue
		}
	}

	res := &Result{Warnings: []string{}}
	if err := s.warn(ctx, orgID, kind, member.ID, res); err != nil {
		return nil, err
	}
	if linked != nil {
		if err := s.warn(ctx, orgID, subscription.KindTraining, member.ID, res); err != nil {
			return nil, err
		}
	}

	now := s.now()
	err = s.repo.InTx(ctx, func(w Writer) error {
		created, err := w.Subscription(main)
		if err != nil {
			return err
		}
		res.setPrimary(kind, withDisplay(created, main))

		if linked != nil {
			created, err := w.Subscription(linked)
			if err != nil {
				return err
			}
			res.LinkedTraining = withDisplay(created, linked)
		}

		if pb := req.Payment; pb != nil {
			p, err := w.Payment(&payment.Payment{
				OrgID:          orgID,
				SubscriptionID: res.primary(kind).ID,
				MemberID:       member.ID,
				Amount:         pb.Amount.Round(2),
				Method:         pb.Method,
				Reference:      pb.Reference,
				Notes:          pb.Notes,
				Status:         payment.StatusPaid,
				PaidAt:         &now,
			})
			if err != nil {
				return err
			}
			res.Payment = p
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("enroll %s: %w", kind, err)
	}

	s.announce(ctx, orgID, kind, res)
	return res, nil
}

// price checks the variant, its type and the trainer, then computes the
// terms the subscription is persisted with.
func (s *service) price(ctx context.Context, orgID string, kind subscription.Kind, member *user.User, variantID int, trainerID *int, start time.Time, discount decimal.Decimal) (*subscription.Subscription, error) {
	v, err := s.plans.GetVariantDetail(ctx, orgID, variantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, plan.ErrPlanVariantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load plan variant: %w", err)
	}
	if !v.IsActive {
		return nil, ErrVariantInactive
	}
	if !v.PlanTypeActive {
		return nil, ErrTypeInactive
	}
	if string(v.PlanTypeCategory) != string(kind) {
		return nil, api.Unprocessable(fmt.Sprintf("plan variant %d is not a %s plan", v.ID, kind))
	}

	terms, err := subscription.ComputeTerms(start, v.DurationDays, v.Price, discount)
	if err != nil {
		return nil, err
	}

	sub := &subscription.Subscription{
		OrgID:           orgID,
		Kind:            kind,
		MemberID:        member.ID,
		PlanVariantID:   v.ID,
		StartDate:       terms.StartDate,
		EndDate:         terms.EndDate,
		PriceAtPurchase: terms.PriceAtPurchase,
		DiscountAmount:  terms.DiscountAmount,
		FinalPrice:      terms.FinalPrice,
		Status:          subscription.StatusActive,
		MemberName:      fullName(member),
		MemberEmail:     member.Email,
		PlanName:        v.PlanTypeName,
		DurationLabel:   v.DurationLabel,
	}

	if trainerID != nil {
		t, err := s.trainers.Get(ctx, orgID, *trainerID)
		if err != nil {
			return nil, err
		}
		if !t.IsActive {
			return nil, ErrTrainerInactive
		}
		sub.TrainerID = &t.ID
		sub.TrainerName = &t.Name
	}
	return sub, nil
}

// warn flags overlapping subscriptions. Overlaps are allowed.
func (s *service) warn(ctx context.Context, orgID string, kind subscription.Kind, memberID int, res *Result) error {
	existing, err := s.repo.ActiveFor(ctx, orgID, kind, memberID)
	if err != nil {
		return err
	}
	for _, e := range existing {
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"member already has an active %s #%d (%s) ending %s",
			kind, e.ID, e.PlanName, e.EndDate.Format(subscription.DateLayout),
		))
	}
	return nil
}

func (s *service) announce(ctx context.Context, orgID string, kind subscription.Kind, res *Result) {
	subs := []*subscription.Subscription{res.primary(kind)}
	if res.LinkedTraining != nil {
		subs = append(subs, res.LinkedTraining)
	}

	for _, sub := range subs {
		metrics.RecordSubscription(string(sub.Kind), "enrollment")
		logger.Info("subscription created",
			"org_id", orgID,
			"kind", sub.Kind,
			"subscription_id", sub.ID,
			"member_id", sub.MemberID,
			"final_price", sub.FinalPrice.StringFixed(2),
		)
		s.enqueue(ctx, notify.SubscriptionCreated(sub.Recipient(), sub.StartDate, sub.EndDate, sub.FinalPrice))
	}

	if p := res.Payment; p != nil {
		amount, _ := p.Amount.Float64()
		metrics.RecordPayment(string(kind), string(p.Method), string(p.Status), amount)
		due := payment.ComputeDues(res.primary(kind).FinalPrice, []payment.Payment{*p}).DueAmount
		s.enqueue(ctx, notify.PaymentReceipt(res.primary(kind).Recipient(), p.Amount, string(p.Method), due))
	}
}

func (s *service) enqueue(ctx context.Context, job notify.Job) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Enqueue(ctx, job); err != nil {
		logger.Warn("notification not queued", "kind", job.Kind, "error", err)
	}
}

// withDisplay carries the joined display columns over to the inserted row.
func withDisplay(created, src *subscription.Subscription) *subscription.Subscription {
	created.MemberName = src.MemberName
	created.MemberEmail = src.MemberEmail
	created.PlanName = src.PlanName
	created.DurationLabel = src.DurationLabel
	created.TrainerName = src.TrainerName
	return created
}

func fullName(u *user.User) string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
