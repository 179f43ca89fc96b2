package subscription

import (
	"fmt"
	"strings"

	"gymdesk/internal/api"
)

// capabilities lists what each status permits. Expired subscriptions are
// read-only except for settling outstanding dues.
var capabilities = map[Status]map[Action]bool{
	StatusActive: {
		ActionEdit:   true,
		ActionFreeze: true,
		ActionCancel: true,
		ActionPay:    true,
	},
	StatusFrozen: {
		ActionEdit:     true,
		ActionUnfreeze: true,
		ActionCancel:   true,
		ActionPay:      true,
	},
	StatusCancelled: {},
	StatusExpired: {
		ActionPay: true,
	},
}

// transitions maps a user-triggered action to its target status. Expiry is
// applied by the sweeper and has no action.
var transitions = map[Action]Status{
	ActionFreeze:   StatusFrozen,
	ActionUnfreeze: StatusActive,
	ActionCancel:   StatusCancelled,
}

func Allowed(status Status, action Action) bool {
	return capabilities[status][action]
}

// Check returns a 409 naming the action and status when action is not
// permitted.
func Check(kind Kind, status Status, action Action) error {
	if Allowed(status, action) {
		return nil
	}
	if kind == "" {
		kind = "subscription"
	}
	return api.Conflict(fmt.Sprintf("cannot %s %s %s %s", action, article(string(status)), status, kind))
}

func article(word string) string {
	if word != "" && strings.ContainsRune("aeiou", rune(word[0])) {
		return "an"
	}
	return "a"
}

// Transition validates action against from and returns the resulting status.
func Transition(kind Kind, from Status, action Action) (Status, error) {
	to, ok := transitions[action]
	if !ok {
		return from, api.BadRequest(fmt.Sprintf("%s is not a lifecycle transition", action))
	}
	if err := Check(kind, from, action); err != nil {
		return from, err
	}
	return to, nil
}
