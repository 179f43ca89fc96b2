package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"gymdesk/internal/enrollment"
	"gymdesk/internal/payment"
	"gymdesk/internal/plan"
	"gymdesk/internal/subscription"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

type Step string

const (
	StepMember   Step = "member"
	StepPlan     Step = "plan"
	StepTerms    Step = "terms"
	StepTraining Step = "training"
	StepPayment  Step = "payment"
)

var (
	ErrNoVariant        = errors.New("select a plan variant first")
	ErrNotLastStep      = errors.New("complete every step before submitting")
	ErrSubmitInProgress = errors.New("submission already in progress")
	ErrAlreadySubmitted = errors.New("wizard already submitted")
)

// StepError lists the fields blocking a step.
type StepError struct {
	Step   Step
	Fields []string
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s step incomplete: %s", e.Step, strings.Join(e.Fields, ", "))
}

type MemberStep struct {
	MemberID int `validate:"required,gt=0"`
}

type PlanStep struct {
	PlanVariantID int `validate:"required,gt=0"`
	// TrainerID is required for trainings and refused for memberships.
	TrainerID int `validate:"omitempty,gt=0"`
}

type TermsStep struct {
	StartDate      string `validate:"required,datetime=2006-01-02"`
	DiscountAmount decimal.Decimal
	AutoRenew      bool
	Notes          string `validate:"max=2000"`
}

type TrainingStep struct {
	PlanVariantID  int    `validate:"required,gt=0"`
	TrainerID      int    `validate:"required,gt=0"`
	StartDate      string `validate:"omitempty,datetime=2006-01-02"`
	DiscountAmount decimal.Decimal
	AutoRenew      bool
	Notes          string `validate:"max=2000"`
}

type PaymentStep struct {
	Collect   bool
	Amount    decimal.Decimal
	Method    payment.Method `validate:"required_if=Collect true"`
	Reference string         `validate:"max=200"`
	Notes     string         `validate:"max=2000"`
}

// Enroller is satisfied by *Client.
type Enroller interface {
	Enroll(ctx context.Context, kind subscription.Kind, req enrollment.Request) (*enrollment.Result, error)
}

// Preview mirrors what the server will persist. It is never sent.
type Preview struct {
	Main     subscription.Terms  `json:"main"`
	Training *subscription.Terms `json:"training,omitempty"`
	Total    decimal.Decimal     `json:"total"`
}

// Wizard accumulates enrollment state step by step and submits it as one
// create call. Next refuses to leave a step whose fields are incomplete.
type Wizard struct {
	Member   MemberStep
	Plan     PlanStep
	Terms    TermsStep
	Training *TrainingStep
	Payment  PaymentStep

	kind     subscription.Kind
	enroller Enroller
	validate *validator.Validate
	current  int

	variant         *plan.PlanVariant
	trainingVariant *plan.PlanVariant

	mu         sync.Mutex
	submitting bool
	submitted  bool
}

func NewWizard(kind subscription.Kind, enroller Enroller) *Wizard {
	return &Wizard{kind: kind, enroller: enroller, validate: validator.New()}
}

// Steps lists the steps in order. The training step appears only when a
// membership is enrolled together with a training.
func (w *Wizard) Steps() []Step {
	steps := []Step{StepMember, StepPlan, StepTerms}
	if w.kind == subscription.KindMembership && w.Training != nil {
		steps = append(steps, StepTraining)
	}
	return append(steps, StepPayment)
}

func (w *Wizard) Step() Step {
	steps := w.Steps()
	if w.current >= len(steps) {
		w.current = len(steps) - 1
	}
	return steps[w.current]
}

// WithTraining adds or removes the linked training step.
func (w *Wizard) WithTraining(enabled bool) {
	if !enabled {
		w.Training = nil
		w.trainingVariant = nil
		return
	}
	if w.Training == nil {
		w.Training = &TrainingStep{}
	}
}

func (w *Wizard) SelectVariant(v plan.PlanVariant) {
	w.variant = &v
	w.Plan.PlanVariantID = v.ID
}

func (w *Wizard) SelectTrainingVariant(v plan.PlanVariant) {
	w.WithTraining(true)
	w.trainingVariant = &v
	w.Training.PlanVariantID = v.ID
}

func (w *Wizard) Next() error {
	if err := w.check(w.Step()); err != nil {
		return err
	}
	if w.current < len(w.Steps())-1 {
		w.current++
	}
	return nil
}

func (w *Wizard) Back() {
	if w.current > 0 {
		w.current--
	}
}

func (w *Wizard) check(step Step) error {
	var fields []string
	add := func(err error) {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				fields = append(fields, fe.Field())
			}
		}
	}

	switch step {
	case StepMember:
		add(w.validate.Struct(w.Member))
	case StepPlan:
		add(w.validate.Struct(w.Plan))
		if w.kind == subscription.KindTraining && w.Plan.TrainerID == 0 {
			fields = append(fields, "TrainerID")
		}
		if w.kind == subscription.KindMembership && w.Plan.TrainerID != 0 {
			fields = append(fields, "TrainerID")
		}
	case StepTerms:
		add(w.validate.Struct(w.Terms))
		if w.Terms.DiscountAmount.IsNegative() {
			fields = append(fields, "DiscountAmount")
		} else if w.variant != nil && w.Terms.DiscountAmount.GreaterThan(w.variant.Price) {
			fields = append(fields, "DiscountAmount")
		}
	case StepTraining:
		if w.Training == nil {
			return nil
		}
		add(w.validate.Struct(w.Training))
		if w.Training.DiscountAmount.IsNegative() {
			fields = append(fields, "DiscountAmount")
		} else if w.trainingVariant != nil && w.Training.DiscountAmount.GreaterThan(w.trainingVariant.Price) {
			fields = append(fields, "DiscountAmount")
		}
	case StepPayment:
		add(w.validate.Struct(w.Payment))
		if w.Payment.Collect {
			if !w.Payment.Amount.IsPositive() {
				fields = append(fields, "Amount")
			} else if p, err := w.Preview(); err == nil && w.Payment.Amount.GreaterThan(p.Main.FinalPrice) {
				fields = append(fields, "Amount")
			}
			if w.Payment.Method != "" && !w.Payment.Method.Valid() {
				fields = append(fields, "Method")
			}
		}
	}

	if len(fields) > 0 {
		return &StepError{Step: step, Fields: dedupe(fields)}
	}
	return nil
}

// Preview computes end dates and prices from the selected variants.
func (w *Wizard) Preview() (*Preview, error) {
	if w.variant == nil {
		return nil, ErrNoVariant
	}
	start, err := subscription.ParseDate(w.Terms.StartDate)
	if err != nil {
		return nil, err
	}
	main, err := subscription.ComputeTerms(start, w.variant.DurationDays, w.variant.Price, w.Terms.DiscountAmount)
	if err != nil {
		return nil, err
	}
	p := &Preview{Main: main, Total: main.FinalPrice}

	if w.Training != nil && w.trainingVariant != nil {
		tStart := start
		if w.Training.StartDate != "" {
			if tStart, err = subscription.ParseDate(w.Training.StartDate); err != nil {
				return nil, err
			}
		}
		t, err := subscription.ComputeTerms(tStart, w.trainingVariant.DurationDays, w.trainingVariant.Price, w.Training.DiscountAmount)
		if err != nil {
			return nil, err
		}
		p.Training = &t
		p.Total = p.Total.Add(t.FinalPrice)
	}
	return p, nil
}

// Request validates every step and builds the create call body.
func (w *Wizard) Request() (enrollment.Request, error) {
	for _, step := range w.Steps() {
		if err := w.check(step); err != nil {
			return enrollment.Request{}, err
		}
	}

	req := enrollment.Request{
		MemberID:       w.Member.MemberID,
		PlanVariantID:  w.Plan.PlanVariantID,
		StartDate:      w.Terms.StartDate,
		DiscountAmount: w.Terms.DiscountAmount,
		AutoRenew:      w.Terms.AutoRenew,
		Notes:          w.Terms.Notes,
	}
	if w.Plan.TrainerID > 0 {
		id := w.Plan.TrainerID
		req.TrainerID = &id
	}
	if w.kind == subscription.KindMembership && w.Training != nil {
		req.Training = &enrollment.TrainingBlock{
			PlanVariantID:  w.Training.PlanVariantID,
			TrainerID:      w.Training.TrainerID,
			StartDate:      w.Training.StartDate,
			DiscountAmount: w.Training.DiscountAmount,
			AutoRenew:      w.Training.AutoRenew,
			Notes:          w.Training.Notes,
		}
	}
	if w.Payment.Collect {
		req.Payment = &enrollment.PaymentBlock{
			Amount:    w.Payment.Amount,
			Method:    w.Payment.Method,
			Reference: w.Payment.Reference,
			Notes:     w.Payment.Notes,
		}
	}
	return req, nil
}

// Submit issues the single create call. It is only allowed from the last
// step, and a wizard submits at most once.
func (w *Wizard) Submit(ctx context.Context) (*enrollment.Result, error) {
	steps := w.Steps()
	if w.Step() != steps[len(steps)-1] {
		return nil, ErrNotLastStep
	}
	req, err := w.Request()
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	switch {
	case w.submitted:
		w.mu.Unlock()
		return nil, ErrAlreadySubmitted
	case w.submitting:
		w.mu.Unlock()
		return nil, ErrSubmitInProgress
	}
	w.submitting = true
	w.mu.Unlock()

	res, err := w.enroller.Enroll(ctx, w.kind, req)

	w.mu.Lock()
	w.submitting = false
	w.submitted = err == nil
	w.mu.Unlock()

	return res, err
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
