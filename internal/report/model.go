package report

import (
	"time"

	"gymdesk/internal/subscription"

	"github.com/shopspring/decimal"
)

// DueSubscription is one subscription with a non-zero balance.
type DueSubscription struct {
	ID         int                 `db:"id" json:"id"`
	MemberID   int                 `db:"member_id" json:"-"`
	Kind       subscription.Kind   `db:"kind" json:"kind"`
	PlanName   string              `db:"plan_name" json:"planName"`
	Status     subscription.Status `db:"status" json:"status"`
	EndDate    time.Time           `db:"end_date" json:"endDate"`
	FinalPrice decimal.Decimal     `db:"final_price" json:"finalPrice"`
	TotalPaid  decimal.Decimal     `db:"total_paid" json:"totalPaid"`
	DueAmount  decimal.Decimal     `db:"due_amount" json:"dueAmount"`
}

type MemberDues struct {
	MemberID            int               `db:"member_id" json:"memberId"`
	MemberName          string            `db:"member_name" json:"memberName"`
	MembershipDuesTotal decimal.Decimal   `db:"membership_dues" json:"membershipDuesTotal"`
	TrainingDuesTotal   decimal.Decimal   `db:"training_dues" json:"trainingDuesTotal"`
	TotalDue            decimal.Decimal   `db:"total_due" json:"totalDue"`
	Subscriptions       []DueSubscription `db:"-" json:"subscriptions"`
}

type DuesFilter struct {
	MemberID *int
	Page     int
	Limit    int
}

type MonthSummary struct {
	Year      int             `json:"year"`
	Month     int             `json:"month"`
	Revenue   decimal.Decimal `json:"revenue"`
	Expenses  decimal.Decimal `json:"expenses"`
	NetProfit decimal.Decimal `json:"netProfit"`
}

type TrendPoint struct {
	Year     int             `json:"year"`
	Month    int             `json:"month"`
	Revenue  decimal.Decimal `json:"revenue"`
	Expenses decimal.Decimal `json:"expenses"`
}

type ROI struct {
	TotalInvested  decimal.Decimal `json:"totalInvested"`
	TotalNetProfit decimal.Decimal `json:"totalNetProfit"`
	ROIPercent     float64         `json:"roiPercent"`
	// PaybackMonths is null while the trailing average profit is not positive.
	PaybackMonths *int `json:"paybackMonths"`
}

// MonthTotal is a per-calendar-month sum read from the database.
type MonthTotal struct {
	Year   int             `db:"year"`
	Month  int             `db:"month"`
	Amount decimal.Decimal `db:"amount"`
}

// Totals are all-time sums used by the ROI view.
type Totals struct {
	Revenue  decimal.Decimal `db:"revenue"`
	Expenses decimal.Decimal `db:"expenses"`
	Invested decimal.Decimal `db:"invested"`
}

type Expense struct {
	ID          int             `db:"id" json:"id"`
	OrgID       string          `db:"org_id" json:"-"`
	Category    string          `db:"category" json:"category"`
	Description string          `db:"description" json:"description"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	IncurredOn  time.Time       `db:"incurred_on" json:"incurredOn"`
	CreatedAt   time.Time       `db:"created_at" json:"createdAt"`
}

type Investment struct {
	ID          int             `db:"id" json:"id"`
	OrgID       string          `db:"org_id" json:"-"`
	Description string          `db:"description" json:"description"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	InvestedOn  time.Time       `db:"invested_on" json:"investedOn"`
	CreatedAt   time.Time       `db:"created_at" json:"createdAt"`
}

type ExpenseRequest struct {
	Category    string          `json:"category" binding:"required,max=100"`
	Description string          `json:"description" binding:"max=500"`
	Amount      decimal.Decimal `json:"amount"`
	IncurredOn  string          `json:"incurredOn" binding:"required,datetime=2006-01-02"`
}

type InvestmentRequest struct {
	Description string          `json:"description" binding:"required,max=500"`
	Amount      decimal.Decimal `json:"amount"`
	InvestedOn  string          `json:"investedOn" binding:"required,datetime=2006-01-02"`
}
