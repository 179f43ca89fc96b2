package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"gymdesk/internal/api"
	"gymdesk/internal/enrollment"
	"gymdesk/internal/payment"
	"gymdesk/internal/plan"
	"gymdesk/internal/report"
	"gymdesk/internal/subscription"
	"gymdesk/internal/trainer"
	"gymdesk/internal/user"
)

// Cache entities. Reads are tagged with one; writes list the ones they stale.
const (
	entityMe         = "me"
	entityMembers    = "members"
	entityTrainers   = "trainers"
	entityPlans      = "plans"
	entityDues       = "dues"
	entityReports    = "reports"
	entityFinancials = "financials"
)

func entityOf(kind subscription.Kind) string { return kind.Plural() }

// subscriptionWrites is what any change to a membership or training stales.
func subscriptionWrites(kinds ...subscription.Kind) []string {
	touched := []string{entityDues, entityReports, entityFinancials, entityMembers}
	for _, k := range kinds {
		touched = append(touched, entityOf(k))
	}
	return touched
}

// Profile

func (c *Client) SyncProfile(ctx context.Context) (*user.User, error) {
	var u user.User
	if err := c.write(ctx, http.MethodPost, syncPath, nil, &u, entityMe); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) Me(ctx context.Context) (*user.User, error) {
	var u user.User
	if _, err := c.get(ctx, entityMe, "/users/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Members

type MemberQuery struct {
	Search string
	Active *bool
	Page   int
	Limit  int
}

func (q MemberQuery) values() url.Values {
	v := pageValues(q.Page, q.Limit)
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Active != nil {
		v.Set("active", strconv.FormatBool(*q.Active))
	}
	return v
}

func (c *Client) ListMembers(ctx context.Context, q MemberQuery) ([]user.User, *api.Pagination, error) {
	var members []user.User
	p, err := c.get(ctx, entityMembers, "/members", q.values(), &members)
	return members, p, err
}

func (c *Client) GetMember(ctx context.Context, id int) (*user.User, error) {
	var u user.User
	if _, err := c.get(ctx, entityMembers, fmt.Sprintf("/members/%d", id), nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) CreateMember(ctx context.Context, req user.CreateMemberRequest) (*user.User, error) {
	var u user.User
	if err := c.write(ctx, http.MethodPost, "/members", req, &u, entityMembers, entityReports); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) UpdateMember(ctx context.Context, id int, req user.UpdateMemberRequest) (*user.User, error) {
	var u user.User
	if err := c.write(ctx, http.MethodPatch, fmt.Sprintf("/members/%d", id), req, &u, entityMembers, entityReports); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) DeleteMember(ctx context.Context, id int) error {
	return c.write(ctx, http.MethodDelete, fmt.Sprintf("/members/%d", id), nil, nil, entityMembers, entityReports)
}

// Trainers

func (c *Client) ListTrainers(ctx context.Context, activeOnly bool) ([]trainer.Trainer, error) {
	var trainers []trainer.Trainer
	q := url.Values{}
	if activeOnly {
		q.Set("activeOnly", "true")
	}
	_, err := c.get(ctx, entityTrainers, "/trainers", q, &trainers)
	return trainers, err
}

func (c *Client) GetTrainer(ctx context.Context, id int) (*trainer.Trainer, error) {
	var t trainer.Trainer
	if _, err := c.get(ctx, entityTrainers, fmt.Sprintf("/trainers/%d", id), nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) CreateTrainer(ctx context.Context, req trainer.CreateRequest) (*trainer.Trainer, error) {
	var t trainer.Trainer
	if err := c.write(ctx, http.MethodPost, "/trainers", req, &t, entityTrainers); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) UpdateTrainer(ctx context.Context, id int, req trainer.UpdateRequest) (*trainer.Trainer, error) {
	var t trainer.Trainer
	if err := c.write(ctx, http.MethodPatch, fmt.Sprintf("/trainers/%d", id), req, &t, entityTrainers); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) DeactivateTrainer(ctx context.Context, id int) error {
	return c.write(ctx, http.MethodPut, fmt.Sprintf("/trainers/%d/deactivate", id), nil, nil, entityTrainers)
}

// Plan catalog

func (c *Client) ListPlanTypes(ctx context.Context, category plan.Category, activeOnly bool) ([]plan.PlanType, error) {
	q := url.Values{}
	if category != "" {
		q.Set("category", string(category))
	}
	if activeOnly {
		q.Set("active", "true")
	}
	var types []plan.PlanType
	_, err := c.get(ctx, entityPlans, "/plans/types", q, &types)
	return types, err
}

func (c *Client) GetPlanType(ctx context.Context, id int) (*plan.PlanTypeWithVariants, error) {
	var t plan.PlanTypeWithVariants
	if _, err := c.get(ctx, entityPlans, fmt.Sprintf("/plans/types/%d", id), nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) CreatePlanType(ctx context.Context, req plan.CreateTypeRequest) (*plan.PlanType, error) {
	var t plan.PlanType
	if err := c.write(ctx, http.MethodPost, "/plans/types", req, &t, entityPlans); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) UpdatePlanType(ctx context.Context, id int, req plan.UpdateTypeRequest) (*plan.PlanType, error) {
	var t plan.PlanType
	if err := c.write(ctx, http.MethodPatch, fmt.Sprintf("/plans/types/%d", id), req, &t, entityPlans); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) DeactivatePlanType(ctx context.Context, id int) error {
	return c.write(ctx, http.MethodPut, fmt.Sprintf("/plans/types/%d/deactivate", id), nil, nil, entityPlans)
}

func (c *Client) ListVariants(ctx context.Context, typeID int, activeOnly bool) ([]plan.PlanVariant, error) {
	q := url.Values{}
	if activeOnly {
		q.Set("active", "true")
	}
	var variants []plan.PlanVariant
	_, err := c.get(ctx, entityPlans, fmt.Sprintf("/plans/types/%d/variants", typeID), q, &variants)
	return variants, err
}

func (c *Client) CreateVariant(ctx context.Context, typeID int, req plan.CreateVariantRequest) (*plan.PlanVariant, error) {
	var v plan.PlanVariant
	if err := c.write(ctx, http.MethodPost, fmt.Sprintf("/plans/types/%d/variants", typeID), req, &v, entityPlans); err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *Client) UpdateVariant(ctx context.Context, typeID, id int, req plan.UpdateVariantRequest) (*plan.PlanVariant, error) {
	var v plan.PlanVariant
	if err := c.write(ctx, http.MethodPatch, fmt.Sprintf("/plans/types/%d/variants/%d", typeID, id), req, &v, entityPlans); err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *Client) DeleteVariant(ctx context.Context, typeID, id int) error {
	return c.write(ctx, http.MethodDelete, fmt.Sprintf("/plans/types/%d/variants/%d", typeID, id), nil, nil, entityPlans)
}

func (c *Client) DeactivateVariant(ctx context.Context, typeID, id int) error {
	return c.write(ctx, http.MethodPut, fmt.Sprintf("/plans/types/%d/variants/%d/deactivate", typeID, id), nil, nil, entityPlans)
}

// Memberships and trainings

type SubscriptionQuery struct {
	MemberID  int
	TrainerID int
	Status    subscription.Status
	Page      int
	Limit     int
}

func (q SubscriptionQuery) values() url.Values {
	v := pageValues(q.Page, q.Limit)
	if q.MemberID > 0 {
		v.Set("memberId", strconv.Itoa(q.MemberID))
	}
	if q.TrainerID > 0 {
		v.Set("trainerId", strconv.Itoa(q.TrainerID))
	}
	if q.Status != "" {
		v.Set("status", string(q.Status))
	}
	return v
}

// Enroll creates a membership or training, with its linked training and
// first payment when the request carries them.
func (c *Client) Enroll(ctx context.Context, kind subscription.Kind, req enrollment.Request) (*enrollment.Result, error) {
	var res enrollment.Result
	touched := subscriptionWrites(kind)
	if req.Training != nil {
		touched = append(touched, entityOf(subscription.KindTraining))
	}
	if err := c.write(ctx, http.MethodPost, "/"+kind.Plural(), req, &res, touched...); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) ListSubscriptions(ctx context.Context, kind subscription.Kind, q SubscriptionQuery) ([]subscription.Subscription, *api.Pagination, error) {
	var subs []subscription.Subscription
	p, err := c.get(ctx, entityOf(kind), "/"+kind.Plural(), q.values(), &subs)
	return subs, p, err
}

func (c *Client) GetSubscription(ctx context.Context, kind subscription.Kind, id int) (*subscription.Subscription, error) {
	var s subscription.Subscription
	if _, err := c.get(ctx, entityOf(kind), fmt.Sprintf("/%s/%d", kind.Plural(), id), nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) UpdateSubscription(ctx context.Context, kind subscription.Kind, id int, req subscription.UpdateRequest) (*subscription.Subscription, error) {
	return c.subscriptionWrite(ctx, kind, http.MethodPatch, fmt.Sprintf("/%s/%d", kind.Plural(), id), req)
}

func (c *Client) Freeze(ctx context.Context, kind subscription.Kind, id int) (*subscription.Subscription, error) {
	return c.subscriptionWrite(ctx, kind, http.MethodPut, fmt.Sprintf("/%s/%d/freeze", kind.Plural(), id), nil)
}

func (c *Client) Unfreeze(ctx context.Context, kind subscription.Kind, id int) (*subscription.Subscription, error) {
	return c.subscriptionWrite(ctx, kind, http.MethodPut, fmt.Sprintf("/%s/%d/unfreeze", kind.Plural(), id), nil)
}

func (c *Client) Cancel(ctx context.Context, kind subscription.Kind, id int, reason string) (*subscription.Subscription, error) {
	return c.subscriptionWrite(ctx, kind, http.MethodPut, fmt.Sprintf("/%s/%d/cancel", kind.Plural(), id),
		subscription.CancelRequest{Reason: reason})
}

func (c *Client) subscriptionWrite(ctx context.Context, kind subscription.Kind, method, path string, body interface{}) (*subscription.Subscription, error) {
	var s subscription.Subscription
	if err := c.write(ctx, method, path, body, &s, subscriptionWrites(kind)...); err != nil {
		return nil, err
	}
	return &s, nil
}

// Dues and payments

func (c *Client) Dues(ctx context.Context, kind subscription.Kind, id int) (*payment.DuesView, error) {
	var d payment.DuesView
	if _, err := c.get(ctx, entityDues, fmt.Sprintf("/%s/%d/dues", kind.Plural(), id), nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) RecordPayment(ctx context.Context, kind subscription.Kind, req payment.RecordRequest) (*payment.Receipt, error) {
	var r payment.Receipt
	if err := c.write(ctx, http.MethodPost, "/"+kind.Plural()+"/payments", req, &r, subscriptionWrites(kind)...); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) RefundPayment(ctx context.Context, kind subscription.Kind, paymentID int) (*payment.Payment, error) {
	var p payment.Payment
	path := fmt.Sprintf("/%s/payments/%d/refund", kind.Plural(), paymentID)
	if err := c.write(ctx, http.MethodPut, path, nil, &p, subscriptionWrites(kind)...); err != nil {
		return nil, err
	}
	return &p, nil
}

// Reports

func (c *Client) DuesReport(ctx context.Context, memberID, page, limit int) ([]report.MemberDues, *api.Pagination, error) {
	q := pageValues(page, limit)
	if memberID > 0 {
		q.Set("memberId", strconv.Itoa(memberID))
	}
	var rows []report.MemberDues
	p, err := c.get(ctx, entityReports, "/reports/dues", q, &rows)
	return rows, p, err
}

// FinancialSummary reports one month. Zero year or month means the current
// month on the server.
func (c *Client) FinancialSummary(ctx context.Context, year, month int) (*report.MonthSummary, error) {
	var s report.MonthSummary
	if _, err := c.get(ctx, entityFinancials, "/financials/summary", periodValues(year, month), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) Trends(ctx context.Context, months int) ([]report.TrendPoint, error) {
	q := url.Values{}
	if months > 0 {
		q.Set("months", strconv.Itoa(months))
	}
	var points []report.TrendPoint
	_, err := c.get(ctx, entityFinancials, "/financials/trends", q, &points)
	return points, err
}

func (c *Client) ROI(ctx context.Context) (*report.ROI, error) {
	var r report.ROI
	if _, err := c.get(ctx, entityFinancials, "/financials/roi", nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) ListExpenses(ctx context.Context, year, month int) ([]report.Expense, error) {
	var rows []report.Expense
	_, err := c.get(ctx, entityFinancials, "/financials/expenses", periodValues(year, month), &rows)
	return rows, err
}

func (c *Client) CreateExpense(ctx context.Context, req report.ExpenseRequest) (*report.Expense, error) {
	var e report.Expense
	if err := c.write(ctx, http.MethodPost, "/financials/expenses", req, &e, entityFinancials); err != nil {
		return nil, err
	}
	return &e, nil
}

func (c *Client) ListInvestments(ctx context.Context) ([]report.Investment, error) {
	var rows []report.Investment
	_, err := c.get(ctx, entityFinancials, "/financials/investments", nil, &rows)
	return rows, err
}

func (c *Client) CreateInvestment(ctx context.Context, req report.InvestmentRequest) (*report.Investment, error) {
	var i report.Investment
	if err := c.write(ctx, http.MethodPost, "/financials/investments", req, &i, entityFinancials); err != nil {
		return nil, err
	}
	return &i, nil
}

func pageValues(page, limit int) url.Values {
	v := url.Values{}
	if page > 0 {
		v.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		v.Set("limit", strconv.Itoa(limit))
	}
	return v
}

func periodValues(year, month int) url.Values {
	v := url.Values{}
	if year > 0 {
		v.Set("year", strconv.Itoa(year))
	}
	if month > 0 {
		v.Set("month", strconv.Itoa(month))
	}
	return v
}
