package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/smtp"
	"time"

	"gymdesk/internal/logger"
	"gymdesk/internal/metrics"

	"github.com/redis/go-redis/v9"
)

const (
	QueueKey       = "notifications"
	FailedQueueKey = "notifications:failed"
	maxTries       = 3
)

// Job is one queued email.
type Job struct {
	Kind    string    `json:"kind"`
	To      string    `json:"to"`
	Name    string    `json:"name"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	Tries   int       `json:"tries"`
	Created time.Time `json:"created"`
}

// Sender delivers a single job.
type Sender interface {
	Send(job Job) error
}

type SMTPConfig struct {
	From     string
	FromName string
	Host     string
	Port     string
	User     string
	Pass     string
}

type smtpSender struct {
	cfg SMTPConfig
}

func NewSMTPSender(cfg SMTPConfig) Sender {
	return &smtpSender{cfg: cfg}
}

func (s *smtpSender) Send(job Job) error {
	message := fmt.Sprintf("From: %s <%s>\r\n", s.cfg.FromName, s.cfg.From)
	message += fmt.Sprintf("To: %s\r\n", job.To)
	message += fmt.Sprintf("Subject: %s\r\n", job.Subject)
	message += "MIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n"
	message += "\r\n" + job.Body

	var auth smtp.Auth
	if s.cfg.User != "" && s.cfg.Pass != "" {
		auth = smtp.PlainAuth("", s.cfg.User, s.cfg.Pass, s.cfg.Host)
	}

	return smtp.SendMail(s.cfg.Host+":"+s.cfg.Port, auth, s.cfg.From, []string{job.To}, []byte(message))
}

// Queue is a redis backed notification queue. Producers call Enqueue,
// a single worker started with Start drains it.
type Queue struct {
	redis      *redis.Client
	sender     Sender
	retryDelay time.Duration
	popTimeout time.Duration
}

func NewQueue(rdb *redis.Client, sender Sender) *Queue {
	return &Queue{
		redis:      rdb,
		sender:     sender,
		retryDelay: 5 * time.Second,
		popTimeout: 2 * time.Second,
	}
}

// Enqueue pushes job onto the queue. Jobs without a recipient are dropped.
func (q *Queue) Enqueue(ctx context.Context, job Job) error {
	if job.To == "" {
		logger.Debug("notification skipped, no recipient", "kind", job.Kind)
		return nil
	}
	job.Tries = 0
	if job.Created.IsZero() {
		job.Created = time.Now()
	}

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	if err := q.redis.LPush(ctx, QueueKey, data).Err(); err != nil {
		logger.Error("failed to queue notification", "kind", job.Kind, "to", job.To, "error", err)
		return err
	}

	logger.Debug("notification queued", "kind", job.Kind, "to", job.To)
	return nil
}

func (q *Queue) Start(ctx context.Context) {
	logger.Info("notification worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("notification worker stopped")
			return
		default:
			q.processNext(ctx)
		}
	}
}

func (q *Queue) processNext(ctx context.Context) {
	result, err := q.redis.BRPop(ctx, q.popTimeout, QueueKey).Result()
	if err != nil {
		return
	}

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		logger.Error("bad notification payload", "error", err)
		return
	}

	job.Tries++
	if err := q.sender.Send(job); err != nil {
		logger.Warn("notification delivery failed", "kind", job.Kind, "to", job.To, "attempt", job.Tries, "error", err)

		if job.Tries < maxTries {
			time.Sleep(q.retryDelay)
			data, _ := json.Marshal(job)
			q.redis.LPush(context.Background(), QueueKey, data)
		} else {
			metrics.RecordNotification(job.Kind, "failed")
			q.saveFailed(job, err)
		}
		return
	}

	metrics.RecordNotification(job.Kind, "sent")
	logger.Info("notification sent", "kind", job.Kind, "to", job.To)
}

func (q *Queue) saveFailed(job Job, err error) {
	failed := map[string]interface{}{
		"job":   job,
		"error": err.Error(),
		"time":  time.Now(),
	}
	data, _ := json.Marshal(failed)
	q.redis.LPush(context.Background(), FailedQueueKey, data)
	logger.Error("notification moved to failed queue", "kind", job.Kind, "to", job.To)
}

func (q *Queue) QueueLength(ctx context.Context) int64 {
	length, _ := q.redis.LLen(ctx, QueueKey).Result()
	return length
}

// ReportQueueLength publishes the queue length gauge every interval.
func (q *Queue) ReportQueueLength(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.NotificationQueueLength.Set(float64(q.QueueLength(ctx)))
		}
	}
}
