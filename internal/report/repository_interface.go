package report

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Repository interface {
	CountMembersWithDues(ctx context.Context, orgID string, memberID *int) (int, error)
	MemberDues(ctx context.Context, orgID string, f DuesFilter) ([]MemberDues, error)
	DueSubscriptions(ctx context.Context, orgID string, memberIDs []int) ([]DueSubscription, error)

	Revenue(ctx context.Context, orgID string, from, to time.Time) (decimal.Decimal, error)
	ExpenseTotal(ctx context.Context, orgID string, from, to time.Time) (decimal.Decimal, error)
	MonthlyRevenue(ctx context.Context, orgID string, from, to time.Time) ([]MonthTotal, error)
	MonthlyExpenses(ctx context.Context, orgID string, from, to time.Time) ([]MonthTotal, error)
	Totals(ctx context.Context, orgID string) (Totals, error)

	CreateExpense(ctx context.Context, e *Expense) (*Expense, error)
	ListExpenses(ctx context.Context, orgID string, from, to time.Time) ([]Expense, error)
	CreateInvestment(ctx context.Context, i *Investment) (*Investment, error)
	ListInvestments(ctx context.Context, orgID string) ([]Investment, error)
}
