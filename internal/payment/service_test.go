package payment

import (
	"context"
	"database/sql"
	"net/http"
	"testing"
	"time"

	"gymdesk/internal/api"
	"gymdesk/internal/notify"
	"gymdesk/internal/subscription"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRepository is a mock implementation of Repository. WithLock runs fn
// against the ledger configured in the test.
type MockRepository struct {
	mock.Mock
	ledger *fakeLedger
}

func (m *MockRepository) WithLock(ctx context.Context, orgID string, kind subscription.Kind, subID int, fn func(l Ledger) error) error {
	args := m.Called(ctx, orgID, kind, subID)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(m.ledger)
}

func (m *MockRepository) ListForSubscription(ctx context.Context, orgID string, subID int) ([]Payment, error) {
	args := m.Called(ctx, orgID, subID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Payment), args.Error(1)
}

func (m *MockRepository) Get(ctx context.Context, orgID string, kind subscription.Kind, id int) (*Payment, error) {
	args := m.Called(ctx, orgID, kind, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Payment), args.Error(1)
}

func (m *MockRepository) MarkRefunded(ctx context.Context, orgID string, id int) (*Payment, error) {
	args := m.Called(ctx, orgID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Payment), args.Error(1)
}

type fakeLedger struct {
	sub      *subscription.Subscription
	payments []Payment
	nextID   int
}

func (l *fakeLedger) Subscription() *subscription.Subscription { return l.sub }
func (l *fakeLedger) Payments() []Payment                      { return l.payments }

func (l *fakeLedger) Insert(p *Payment) (*Payment, error) {
	l.nextID++
	created := *p
	created.ID = l.nextID
	l.payments = append([]Payment{created}, l.payments...)
	return &created, nil
}

type MockSubscriptions struct {
	mock.Mock
}

func (m *MockSubscriptions) Get(ctx context.Context, orgID string, kind subscription.Kind, id int) (*subscription.Subscription, error) {
	args := m.Called(ctx, orgID, kind, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.Subscription), args.Error(1)
}

type fakeNotifier struct {
	jobs []notify.Job
}

func (f *fakeNotifier) Enqueue(_ context.Context, job notify.Job) error {
	f.jobs = append(f.jobs, job)
	return nil
}

const org = "org_1"

var now = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

func subscriptionWith(status subscription.Status) *subscription.Subscription {
	return &subscription.Subscription{
		ID:          1,
		Kind:        subscription.KindMembership,
		MemberID:    7,
		StartDate:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		FinalPrice:  decimal.NewFromInt(800),
		Status:      status,
		MemberEmail: "ana@example.com",
		MemberName:  "Ana",
	}
}

func newTestService(repo *MockRepository, subs *MockSubscriptions, n *fakeNotifier) Service {
	if n == nil {
		n = &fakeNotifier{}
	}
	svc := NewService(repo, subs, n).(*service)
	svc.now = func() time.Time { return now }
	return svc
}

func record(amount int64) RecordRequest {
	return RecordRequest{MembershipID: 1, Amount: decimal.NewFromInt(amount), Method: MethodCash}
}

func TestService_Record_FullPayment(t *testing.T) {
	repo := &MockRepository{ledger: &fakeLedger{sub: subscriptionWith(subscription.StatusActive)}}
	repo.On("WithLock", mock.Anything, org, subscription.KindMembership, 1).Return(nil)
	n := &fakeNotifier{}

	receipt, err := newTestService(repo, nil, n).Record(context.Background(), org, subscription.KindMembership, record(800))
	require.NoError(t, err)

	assert.Equal(t, StatusPaid, receipt.Payment.Status)
	require.NotNil(t, receipt.Payment.PaidAt)
	assert.True(t, receipt.Dues.IsFullyPaid)
	assert.Equal(t, "0.00", receipt.Dues.DueAmount.StringFixed(2))
	require.Len(t, n.jobs, 1)
	assert.Equal(t, notify.KindPayment, n.jobs[0].Kind)
}

func TestService_Record_TwoInstalments(t *testing.T) {
	repo := &MockRepository{ledger: &fakeLedger{sub: subscriptionWith(subscription.StatusActive)}}
	repo.On("WithLock", mock.Anything, org, subscription.KindMembership, 1).Return(nil)
	svc := newTestService(repo, nil, &fakeNotifier{})

	first, err := svc.Record(context.Background(), org, subscription.KindMembership, record(300))
	require.NoError(t, err)
	assert.Equal(t, "500.00", first.Dues.DueAmount.StringFixed(2))

	second, err := svc.Record(context.Background(), org, subscription.KindMembership, record(500))
	require.NoError(t, err)
	assert.True(t, second.Dues.IsFullyPaid)
	assert.Equal(t, "800.00", second.Dues.TotalPaid.StringFixed(2))
	assert.Len(t, repo.ledger.payments, 2)
}

func TestService_Record_FrozenAllowed(t *testing.T) {
	repo := &MockRepository{ledger: &fakeLedger{sub: subscriptionWith(subscription.StatusFrozen)}}
	repo.On("WithLock", mock.Anything, org, subscription.KindMembership, 1).Return(nil)

	_, err := newTestService(repo, nil, &fakeNotifier{}).Record(context.Background(), org, subscription.KindMembership, record(100))
	assert.NoError(t, err)
}

func TestService_Record_ExpiredAllowed(t *testing.T) {
	sub := subscriptionWith(subscription.StatusActive)
	sub.EndDate = time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	repo := &MockRepository{ledger: &fakeLedger{sub: sub}}
	repo.On("WithLock", mock.Anything, org, subscription.KindMembership, 1).Return(nil)

	_, err := newTestService(repo, nil, &fakeNotifier{}).Record(context.Background(), org, subscription.KindMembership, record(100))
	assert.NoError(t, err)
}

func TestService_Record_Refusals(t *testing.T) {
	tests := []struct {
		name       string
		status     subscription.Status
		existing   []Payment
		req        RecordRequest
		wantStatus int
	}{
		{"cancelled", subscription.StatusCancelled, nil, record(100), http.StatusConflict},
		{"fully paid", subscription.StatusActive, []Payment{paid(800)}, record(100), http.StatusConflict},
		{"zero amount", subscription.StatusActive, nil, record(0), http.StatusBadRequest},
		{"negative amount", subscription.StatusActive, nil, record(-5), http.StatusBadRequest},
		{"bad method", subscription.StatusActive, nil, RecordRequest{MembershipID: 1, Amount: decimal.NewFromInt(5), Method: "cheque"}, http.StatusBadRequest},
		{"refunded status", subscription.StatusActive, nil, RecordRequest{MembershipID: 1, Amount: decimal.NewFromInt(5), Method: MethodCard, Status: StatusRefunded}, http.StatusBadRequest},
		{"no target", subscription.StatusActive, nil, RecordRequest{Amount: decimal.NewFromInt(5), Method: MethodCard}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &MockRepository{ledger: &fakeLedger{sub: subscriptionWith(tt.status), payments: tt.existing}}
			repo.On("WithLock", mock.Anything, org, subscription.KindMembership, 1).Return(nil).Maybe()

			_, err := newTestService(repo, nil, &fakeNotifier{}).Record(context.Background(), org, subscription.KindMembership, tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.wantStatus, api.StatusOf(err))
			assert.Len(t, repo.ledger.payments, len(tt.existing))
		})
	}
}

func TestService_Record_OverpayAllowedWhileDue(t *testing.T) {
	repo := &MockRepository{ledger: &fakeLedger{sub: subscriptionWith(subscription.StatusActive), payments: []Payment{paid(700)}}}
	repo.On("WithLock", mock.Anything, org, subscription.KindMembership, 1).Return(nil)

	receipt, err := newTestService(repo, nil, &fakeNotifier{}).Record(context.Background(), org, subscription.KindMembership, record(500))
	require.NoError(t, err)
	assert.Equal(t, "1200.00", receipt.Dues.TotalPaid.StringFixed(2))
	assert.True(t, receipt.Dues.IsFullyPaid)
}

func TestService_Record_PendingSkipsReceipt(t *testing.T) {
	repo := &MockRepository{ledger: &fakeLedger{sub: subscriptionWith(subscription.StatusActive)}}
	repo.On("WithLock", mock.Anything, org, subscription.KindMembership, 1).Return(nil)
	n := &fakeNotifier{}

	req := record(800)
	req.Status = StatusPending
	receipt, err := newTestService(repo, nil, n).Record(context.Background(), org, subscription.KindMembership, req)
	require.NoError(t, err)
	assert.Nil(t, receipt.Payment.PaidAt)
	assert.False(t, receipt.Dues.IsFullyPaid)
	assert.Empty(t, n.jobs)
}

func TestService_Record_SubscriptionNotFound(t *testing.T) {
	repo := &MockRepository{}
	repo.On("WithLock", mock.Anything, org, subscription.KindTraining, 1).Return(sql.ErrNoRows)

	req := RecordRequest{TrainingID: 1, Amount: decimal.NewFromInt(5), Method: MethodUPI}
	_, err := newTestService(repo, nil, nil).Record(context.Background(), org, subscription.KindTraining, req)
	assert.ErrorIs(t, err, subscription.ErrTrainingNotFound)
}

func TestService_Refund(t *testing.T) {
	repo := &MockRepository{}
	repo.On("Get", mock.Anything, org, subscription.KindMembership, 5).Return(&Payment{ID: 5, Status: StatusPaid, Amount: decimal.NewFromInt(300)}, nil)
	repo.On("MarkRefunded", mock.Anything, org, 5).Return(&Payment{ID: 5, Status: StatusRefunded, Amount: decimal.NewFromInt(300)}, nil)
	repo.On("Get", mock.Anything, org, subscription.KindMembership, 6).Return(&Payment{ID: 6, Status: StatusPending}, nil)
	repo.On("Get", mock.Anything, org, subscription.KindMembership, 7).Return(nil, sql.ErrNoRows)

	svc := newTestService(repo, nil, nil)

	p, err := svc.Refund(context.Background(), org, subscription.KindMembership, 5)
	require.NoError(t, err)
	assert.Equal(t, StatusRefunded, p.Status)

	_, err = svc.Refund(context.Background(), org, subscription.KindMembership, 6)
	assert.ErrorIs(t, err, ErrNotRefundable)

	_, err = svc.Refund(context.Background(), org, subscription.KindMembership, 7)
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestService_GetDues(t *testing.T) {
	repo := &MockRepository{}
	subs := new(MockSubscriptions)
	subs.On("Get", mock.Anything, org, subscription.KindMembership, 1).Return(subscriptionWith(subscription.StatusActive), nil)
	repo.On("ListForSubscription", mock.Anything, org, 1).Return([]Payment{paid(500), paid(300)}, nil)

	view, err := newTestService(repo, subs, nil).GetDues(context.Background(), org, subscription.KindMembership, 1)
	require.NoError(t, err)
	assert.Equal(t, "0.00", view.DueAmount.StringFixed(2))
	assert.True(t, view.IsFullyPaid)
	assert.Len(t, view.Payments, 2)
}
