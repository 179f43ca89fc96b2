package report

import (
	"context"
	"time"

	"gymdesk/internal/api"
	"gymdesk/internal/logger"
)

var (
	ErrInvalidPeriod = api.BadRequest("month must be between 1 and 12 and year must be positive")
	ErrInvalidMonths = api.BadRequest("months must be between 1 and 24")
	ErrInvalidAmount = api.BadRequest("amount must be greater than 0")
	ErrInvalidDate   = api.BadRequest("dates must use the YYYY-MM-DD format")
)

type Service interface {
	Dues(ctx context.Context, orgID string, f DuesFilter) ([]MemberDues, int, error)

	Summary(ctx context.Context, orgID string, year, month int) (*MonthSummary, error)
	Trends(ctx context.Context, orgID string, months int) ([]TrendPoint, error)
	ROI(ctx context.Context, orgID string) (*ROI, error)

	CreateExpense(ctx context.Context, orgID string, req ExpenseRequest) (*Expense, error)
	ListExpenses(ctx context.Context, orgID string, year, month int) ([]Expense, error)
	CreateInvestment(ctx context.Context, orgID string, req InvestmentRequest) (*Investment, error)
	ListInvestments(ctx context.Context, orgID string) ([]Investment, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) Service {
	return &service{repo: repo, now: time.Now}
}

// Dues pages members by outstanding balance and attaches each member's
// subscriptions that still carry a due.
func (s *service) Dues(ctx context.Context, orgID string, f DuesFilter) ([]MemberDues, int, error) {
	total, err := s.repo.CountMembersWithDues(ctx, orgID, f.MemberID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []MemberDues{}, 0, nil
	}

	members, err := s.repo.MemberDues(ctx, orgID, f)
	if err != nil {
		return nil, 0, err
	}
	if len(members) == 0 {
		return members, total, nil
	}

	ids := make([]int, len(members))
	byMember := make(map[int]*MemberDues, len(members))
	for i := range members {
		members[i].Subscriptions = []DueSubscription{}
		ids[i] = members[i].MemberID
		byMember[members[i].MemberID] = &members[i]
	}

	subs, err := s.repo.DueSubscriptions(ctx, orgID, ids)
	if err != nil {
		return nil, 0, err
	}
	for _, sub := range subs {
		if m, ok := byMember[sub.MemberID]; ok {
			m.Subscriptions = append(m.Subscriptions, sub)
		}
	}
	return members, total, nil
}

// Summary defaults to the current month when year or month is zero.
func (s *service) Summary(ctx context.Context, orgID string, year, month int) (*MonthSummary, error) {
	now := s.now().UTC()
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = int(now.Month())
	}
	if year < 1 || month < 1 || month > 12 {
		return nil, ErrInvalidPeriod
	}

	from, to := MonthRange(year, month)
	revenue, err := s.repo.Revenue(ctx, orgID, from, to)
	if err != nil {
		return nil, err
	}
	expenses, err := s.repo.ExpenseTotal(ctx, orgID, from, to)
	if err != nil {
		return nil, err
	}

	summary := Summarize(year, month, revenue, expenses)
	return &summary, nil
}

func (s *service) Trends(ctx context.Context, orgID string, months int) ([]TrendPoint, error) {
	if months == 0 {
		months = DefaultTrendMonths
	}
	if months < 1 || months > MaxTrendMonths {
		return nil, ErrInvalidMonths
	}
	return s.trailing(ctx, orgID, months)
}

func (s *service) trailing(ctx context.Context, orgID string, months int) ([]TrendPoint, error) {
	points := TrailingMonths(s.now().UTC(), months)
	from, _ := MonthRange(points[0].Year, points[0].Month)
	_, to := MonthRange(points[len(points)-1].Year, points[len(points)-1].Month)

	revenue, err := s.repo.MonthlyRevenue(ctx, orgID, from, to)
	if err != nil {
		return nil, err
	}
	expenses, err := s.repo.MonthlyExpenses(ctx, orgID, from, to)
	if err != nil {
		return nil, err
	}
	return FillTrend(points, revenue, expenses), nil
}

func (s *service) ROI(ctx context.Context, orgID string) (*ROI, error) {
	totals, err := s.repo.Totals(ctx, orgID)
	if err != nil {
		return nil, err
	}
	trailing, err := s.trailing(ctx, orgID, paybackWindow)
	if err != nil {
		return nil, err
	}

	roi := ComputeROI(totals, trailing)
	return &roi, nil
}

func (s *service) CreateExpense(ctx context.Context, orgID string, req ExpenseRequest) (*Expense, error) {
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	on, err := parseDate(req.IncurredOn)
	if err != nil {
		return nil, err
	}

	e, err := s.repo.CreateExpense(ctx, &Expense{
		OrgID:       orgID,
		Category:    req.Category,
		Description: req.Description,
		Amount:      req.Amount.Round(2),
		IncurredOn:  on,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("expense recorded", "org_id", orgID, "expense_id", e.ID, "amount", e.Amount.StringFixed(2))
	return e, nil
}

// ListExpenses lists one month, the current one by default.
func (s *service) ListExpenses(ctx context.Context, orgID string, year, month int) ([]Expense, error) {
	now := s.now().UTC()
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = int(now.Month())
	}
	if year < 1 || month < 1 || month > 12 {
		return nil, ErrInvalidPeriod
	}
	from, to := MonthRange(year, month)
	return s.repo.ListExpenses(ctx, orgID, from, to)
}

func (s *service) CreateInvestment(ctx context.Context, orgID string, req InvestmentRequest) (*Investment, error) {
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	on, err := parseDate(req.InvestedOn)
	if err != nil {
		return nil, err
	}

	i, err := s.repo.CreateInvestment(ctx, &Investment{
		OrgID:       orgID,
		Description: req.Description,
		Amount:      req.Amount.Round(2),
		InvestedOn:  on,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("investment recorded", "org_id", orgID, "investment_id", i.ID, "amount", i.Amount.StringFixed(2))
	return i, nil
}

func (s *service) ListInvestments(ctx context.Context, orgID string) ([]Investment, error) {
	return s.repo.ListInvestments(ctx, orgID)
}

func parseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}
