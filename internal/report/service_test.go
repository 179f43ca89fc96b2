package report

import (
	"context"
	"net/http"
	"testing"
	"time"

	"gymdesk/internal/api"
	"gymdesk/internal/subscription"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const org = "org_1"

var now = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CountMembersWithDues(ctx context.Context, orgID string, memberID *int) (int, error) {
	args := m.Called(ctx, orgID, memberID)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) MemberDues(ctx context.Context, orgID string, f DuesFilter) ([]MemberDues, error) {
	args := m.Called(ctx, orgID, f)
	rows, _ := args.Get(0).([]MemberDues)
	return rows, args.Error(1)
}

func (m *MockRepository) DueSubscriptions(ctx context.Context, orgID string, memberIDs []int) ([]DueSubscription, error) {
	args := m.Called(ctx, orgID, memberIDs)
	rows, _ := args.Get(0).([]DueSubscription)
	return rows, args.Error(1)
}

func (m *MockRepository) Revenue(ctx context.Context, orgID string, from, to time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, orgID, from, to)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockRepository) ExpenseTotal(ctx context.Context, orgID string, from, to time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, orgID, from, to)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockRepository) MonthlyRevenue(ctx context.Context, orgID string, from, to time.Time) ([]MonthTotal, error) {
	args := m.Called(ctx, orgID, from, to)
	rows, _ := args.Get(0).([]MonthTotal)
	return rows, args.Error(1)
}

func (m *MockRepository) MonthlyExpenses(ctx context.Context, orgID string, from, to time.Time) ([]MonthTotal, error) {
	args := m.Called(ctx, orgID, from, to)
	rows, _ := args.Get(0).([]MonthTotal)
	return rows, args.Error(1)
}

func (m *MockRepository) Totals(ctx context.Context, orgID string) (Totals, error) {
	args := m.Called(ctx, orgID)
	return args.Get(0).(Totals), args.Error(1)
}

func (m *MockRepository) CreateExpense(ctx context.Context, e *Expense) (*Expense, error) {
	args := m.Called(ctx, e)
	out, _ := args.Get(0).(*Expense)
	return out, args.Error(1)
}

func (m *MockRepository) ListExpenses(ctx context.Context, orgID string, from, to time.Time) ([]Expense, error) {
	args := m.Called(ctx, orgID, from, to)
	rows, _ := args.Get(0).([]Expense)
	return rows, args.Error(1)
}

func (m *MockRepository) CreateInvestment(ctx context.Context, i *Investment) (*Investment, error) {
	args := m.Called(ctx, i)
	out, _ := args.Get(0).(*Investment)
	return out, args.Error(1)
}

func (m *MockRepository) ListInvestments(ctx context.Context, orgID string) ([]Investment, error) {
	args := m.Called(ctx, orgID)
	rows, _ := args.Get(0).([]Investment)
	return rows, args.Error(1)
}

func newTestService(repo *MockRepository) Service {
	svc := NewService(repo).(*service)
	svc.now = func() time.Time { return now }
	return svc
}

func TestDues_GroupsSubscriptionsByMember(t *testing.T) {
	repo := new(MockRepository)
	f := DuesFilter{Page: 1, Limit: 20}
	repo.On("CountMembersWithDues", mock.Anything, org, (*int)(nil)).Return(2, nil)
	repo.On("MemberDues", mock.Anything, org, f).Return([]MemberDues{
		{MemberID: 7, MemberName: "Ana Lima", MembershipDuesTotal: dec("500"), TrainingDuesTotal: dec("200"), TotalDue: dec("700")},
		{MemberID: 9, MemberName: "Bruno", MembershipDuesTotal: dec("100"), TrainingDuesTotal: decimal.Zero, TotalDue: dec("100")},
	}, nil)
	repo.On("DueSubscriptions", mock.Anything, org, []int{7, 9}).Return([]DueSubscription{
		{ID: 1, MemberID: 7, Kind: subscription.KindMembership, DueAmount: dec("500")},
		{ID: 2, MemberID: 7, Kind: subscription.KindTraining, DueAmount: dec("200")},
		{ID: 3, MemberID: 9, Kind: subscription.KindMembership, DueAmount: dec("100")},
	}, nil)

	members, total, err := newTestService(repo).Dues(context.Background(), org, f)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, members, 2)
	assert.Len(t, members[0].Subscriptions, 2)
	assert.Len(t, members[1].Subscriptions, 1)
	assert.Equal(t, "700.00", members[0].TotalDue.StringFixed(2))
}

func TestDues_NoneOutstanding(t *testing.T) {
	repo := new(MockRepository)
	repo.On("CountMembersWithDues", mock.Anything, org, (*int)(nil)).Return(0, nil)

	members, total, err := newTestService(repo).Dues(context.Background(), org, DuesFilter{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NotNil(t, members)
	repo.AssertNotCalled(t, "MemberDues", mock.Anything, mock.Anything, mock.Anything)
}

func TestSummary_DefaultsToCurrentMonth(t *testing.T) {
	repo := new(MockRepository)
	from, to := MonthRange(2024, 3)
	repo.On("Revenue", mock.Anything, org, from, to).Return(dec("2400"), nil)
	repo.On("ExpenseTotal", mock.Anything, org, from, to).Return(dec("900"), nil)

	s, err := newTestService(repo).Summary(context.Background(), org, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 2024, s.Year)
	assert.Equal(t, 3, s.Month)
	assert.Equal(t, "1500.00", s.NetProfit.StringFixed(2))
}

func TestSummary_BadMonth(t *testing.T) {
	_, err := newTestService(new(MockRepository)).Summary(context.Background(), org, 2024, 13)
	assert.Equal(t, ErrInvalidPeriod, err)
}

func TestTrends(t *testing.T) {
	repo := new(MockRepository)
	from := time.Date(2023, 10, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	repo.On("MonthlyRevenue", mock.Anything, org, from, to).Return([]MonthTotal{{Year: 2024, Month: 2, Amount: dec("800")}}, nil)
	repo.On("MonthlyExpenses", mock.Anything, org, from, to).Return([]MonthTotal{}, nil)

	points, err := newTestService(repo).Trends(context.Background(), org, 0)
	require.NoError(t, err)
	require.Len(t, points, DefaultTrendMonths)
	assert.Equal(t, 10, points[0].Month)
	assert.Equal(t, "800.00", points[4].Revenue.StringFixed(2))
}

func TestTrends_Bounds(t *testing.T) {
	svc := newTestService(new(MockRepository))
	for _, months := range []int{-1, 25} {
		_, err := svc.Trends(context.Background(), org, months)
		assert.Equal(t, http.StatusBadRequest, api.StatusOf(err), months)
	}
}

func TestROI(t *testing.T) {
	repo := new(MockRepository)
	repo.On("Totals", mock.Anything, org).Return(Totals{Revenue: dec("12000"), Expenses: dec("6000"), Invested: dec("12000")}, nil)
	repo.On("MonthlyRevenue", mock.Anything, org, mock.Anything, mock.Anything).Return([]MonthTotal{
		{Year: 2024, Month: 1, Amount: dec("6000")},
		{Year: 2024, Month: 2, Amount: dec("6000")},
	}, nil)
	repo.On("MonthlyExpenses", mock.Anything, org, mock.Anything, mock.Anything).Return([]MonthTotal{}, nil)

	roi, err := newTestService(repo).ROI(context.Background(), org)
	require.NoError(t, err)
	assert.Equal(t, 50.0, roi.ROIPercent)
	require.NotNil(t, roi.PaybackMonths)
	assert.Equal(t, 12, *roi.PaybackMonths)
}

func TestCreateExpense(t *testing.T) {
	repo := new(MockRepository)
	repo.On("CreateExpense", mock.Anything, mock.MatchedBy(func(e *Expense) bool {
		return e.OrgID == org && e.Amount.Equal(dec("120.46")) && e.IncurredOn.Equal(time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC))
	})).Return(&Expense{ID: 1, Amount: dec("120.46")}, nil)

	_, err := newTestService(repo).CreateExpense(context.Background(), org, ExpenseRequest{
		Category: "rent", Amount: dec("120.456"), IncurredOn: "2024-03-02",
	})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestCreateInvestment_Refusals(t *testing.T) {
	svc := newTestService(new(MockRepository))

	_, err := svc.CreateInvestment(context.Background(), org, InvestmentRequest{Description: "rack", Amount: decimal.Zero, InvestedOn: "2024-01-01"})
	assert.Equal(t, ErrInvalidAmount, err)

	_, err = svc.CreateInvestment(context.Background(), org, InvestmentRequest{Description: "rack", Amount: dec("10"), InvestedOn: "yesterday"})
	assert.Equal(t, ErrInvalidDate, err)
}
