package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	KindCreated   = "subscription_created"
	KindCancelled = "subscription_cancelled"
	KindFrozen    = "subscription_frozen"
	KindResumed   = "subscription_resumed"
	KindExpired   = "subscription_expired"
	KindRenewed   = "subscription_renewed"
	KindPayment   = "payment_receipt"
)

const dateFormat = "Jan 2, 2006"

// Recipient identifies who a message goes to and what it is about.
type Recipient struct {
	Email string
	Name  string
	Kind  string // membership or training
	Plan  string
}

func (r Recipient) title() string {
	if r.Kind == "" {
		return "Subscription"
	}
	return strings.ToUpper(r.Kind[:1]) + r.Kind[1:]
}

func (r Recipient) job(kind, subject, body string) Job {
	return Job{Kind: kind, To: r.Email, Name: r.Name, Subject: subject, Body: body}
}

func SubscriptionCreated(r Recipient, start, end time.Time, finalPrice decimal.Decimal) Job {
	body := fmt.Sprintf(`Hi %s,

Your %s is set up.

Plan: %s
From: %s
Until: %s
Price: %s

- Front Desk`, r.Name, r.Kind, r.Plan, start.Format(dateFormat), end.Format(dateFormat), finalPrice.StringFixed(2))

	return r.job(KindCreated, r.title()+" confirmed - "+r.Plan, body)
}

func SubscriptionCancelled(r Recipient, reason string) Job {
	if reason == "" {
		reason = "not given"
	}
	body := fmt.Sprintf(`Hi %s,

Your %s has been cancelled.

Plan: %s
Reason: %s

- Front Desk`, r.Name, r.Kind, r.Plan, reason)

	return r.job(KindCancelled, r.title()+" cancelled - "+r.Plan, body)
}

// SubscriptionFrozen covers both freeze and resume.
func SubscriptionFrozen(r Recipient, frozen bool) Job {
	kind, verb := KindFrozen, "paused"
	if !frozen {
		kind, verb = KindResumed, "resumed"
	}
	body := fmt.Sprintf(`Hi %s,

Your %s (%s) has been %s.

- Front Desk`, r.Name, r.Kind, r.Plan, verb)

	return r.job(kind, r.title()+" "+verb+" - "+r.Plan, body)
}

func PaymentReceipt(r Recipient, amount decimal.Decimal, method string, due decimal.Decimal) Job {
	body := fmt.Sprintf(`Hi %s,

We received your payment.

Plan: %s
Amount: %s
Method: %s
Remaining due: %s

- Front Desk`, r.Name, r.Plan, amount.StringFixed(2), method, due.StringFixed(2))

	return r.job(KindPayment, "Payment receipt - "+r.Plan, body)
}

func SubscriptionExpired(r Recipient, end time.Time) Job {
	body := fmt.Sprintf(`Hi %s,

Your %s (%s) ended on %s. Visit the front desk to renew.

- Front Desk`, r.Name, r.Kind, r.Plan, end.Format(dateFormat))

	return r.job(KindExpired, r.title()+" expired - "+r.Plan, body)
}

func SubscriptionRenewed(r Recipient, start, end time.Time, finalPrice decimal.Decimal) Job {
	body := fmt.Sprintf(`Hi %s,

Your %s was renewed automatically.

Plan: %s
From: %s
Until: %s
Price: %s

- Front Desk`, r.Name, r.Kind, r.Plan, start.Format(dateFormat), end.Format(dateFormat), finalPrice.StringFixed(2))

	return r.job(KindRenewed, r.title()+" renewed - "+r.Plan, body)
}
