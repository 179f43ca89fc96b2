package plan

import (
	"fmt"
	"strings"
)

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// FormatDuration renders the preferred label for a day count.
func FormatDuration(days int) string {
	switch {
	case days%365 == 0:
		return plural(days/365, "Year")
	case days%30 == 0:
		return plural(days/30, "Month")
	case days%7 == 0:
		return plural(days/7, "Week")
	default:
		return plural(days, "Day")
	}
}

// ValidLabels lists every label accepted for a day count. The first entry
// is the FormatDuration rendering.
func ValidLabels(days int) []string {
	if days <= 0 {
		return nil
	}

	labels := []string{FormatDuration(days)}
	add := func(l string) {
		for _, existing := range labels {
			if existing == l {
				return
			}
		}
		labels = append(labels, l)
	}

	if days%365 == 0 {
		add(plural(days/365*12, "Month"))
	}
	if days%30 == 0 {
		add(plural(days/30, "Month"))
	}
	if days%7 == 0 {
		add(plural(days/7, "Week"))
	}
	add(plural(days, "Day"))
	return labels
}

// ResolveLabel returns the canonical label for days. An empty label is
// derived; anything else must match one of ValidLabels.
func ResolveLabel(days int, label string) (string, error) {
	if days <= 0 {
		return "", ErrInvalidDuration
	}

	label = strings.Join(strings.Fields(label), " ")
	if label == "" {
		return FormatDuration(days), nil
	}

	for _, valid := range ValidLabels(days) {
		if strings.EqualFold(valid, label) {
			return valid, nil
		}
	}
	return "", ErrLabelMismatch
}
