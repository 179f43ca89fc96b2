package notify

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"gymdesk/internal/logger"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

type fakeSender struct {
	sent []Job
	err  error
}

func (f *fakeSender) Send(job Job) error {
	f.sent = append(f.sent, job)
	return f.err
}

func newTestQueue(rdb *redis.Client, sender Sender) *Queue {
	q := NewQueue(rdb, sender)
	q.retryDelay = 0
	return q
}

var member = Recipient{Email: "ana@example.com", Name: "Ana", Kind: "membership", Plan: "Gold"}

func TestEnqueue(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.Regexp().ExpectLPush(QueueKey, `.*subscription_created.*`).SetVal(1)

	q := newTestQueue(db, &fakeSender{})
	job := SubscriptionCreated(member, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), decimal.NewFromInt(800))

	require.NoError(t, q.Enqueue(context.Background(), job))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnqueue_NoRecipient(t *testing.T) {
	db, mock := redismock.NewClientMock()

	q := newTestQueue(db, &fakeSender{})
	require.NoError(t, q.Enqueue(context.Background(), Job{Kind: KindExpired}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessNext_Delivers(t *testing.T) {
	db, mock := redismock.NewClientMock()
	payload, _ := json.Marshal(PaymentReceipt(member, decimal.NewFromInt(300), "cash", decimal.NewFromInt(500)))
	mock.ExpectBRPop(2*time.Second, QueueKey).SetVal([]string{QueueKey, string(payload)})

	sender := &fakeSender{}
	newTestQueue(db, sender).processNext(context.Background())

	require.Len(t, sender.sent, 1)
	assert.Equal(t, 1, sender.sent[0].Tries)
	assert.Contains(t, sender.sent[0].Body, "Remaining due: 500.00")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessNext_Requeues(t *testing.T) {
	db, mock := redismock.NewClientMock()
	payload, _ := json.Marshal(Job{Kind: KindExpired, To: "a@b.c", Tries: 0})
	mock.ExpectBRPop(2*time.Second, QueueKey).SetVal([]string{QueueKey, string(payload)})
	mock.Regexp().ExpectLPush(QueueKey, `.*"tries":1.*`).SetVal(1)

	newTestQueue(db, &fakeSender{err: errors.New("smtp down")}).processNext(context.Background())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessNext_MovesToFailedAfterThreeTries(t *testing.T) {
	db, mock := redismock.NewClientMock()
	payload, _ := json.Marshal(Job{Kind: KindExpired, To: "a@b.c", Tries: 2})
	mock.ExpectBRPop(2*time.Second, QueueKey).SetVal([]string{QueueKey, string(payload)})
	mock.Regexp().ExpectLPush(FailedQueueKey, `.*smtp down.*`).SetVal(1)

	newTestQueue(db, &fakeSender{err: errors.New("smtp down")}).processNext(context.Background())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueueLength(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectLLen(QueueKey).SetVal(4)

	assert.Equal(t, int64(4), newTestQueue(db, &fakeSender{}).QueueLength(context.Background()))
}

func TestMessages(t *testing.T) {
	j := SubscriptionCancelled(member, "")
	assert.Equal(t, KindCancelled, j.Kind)
	assert.Equal(t, "Membership cancelled - Gold", j.Subject)
	assert.Contains(t, j.Body, "Reason: not given")

	j = SubscriptionFrozen(member, false)
	assert.Equal(t, KindResumed, j.Kind)
	assert.Contains(t, j.Body, "resumed")

	j = SubscriptionExpired(Recipient{Email: "x@y.z", Name: "X", Plan: "PT"}, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "Subscription expired - PT", j.Subject)
	assert.Contains(t, j.Body, "Mar 1, 2024")
}
