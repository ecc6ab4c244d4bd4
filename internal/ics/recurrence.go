package ics

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	appLog "barbercal/internal/log"
	"barbercal/internal/model"
)

const (
	// DefaultOccurrenceLimit caps previews of open-ended rules.
	DefaultOccurrenceLimit = 10

	maxOccurrenceLimit = 500
)

// Occurrence is one concrete instance of a repeating appointment.
type Occurrence struct {
	Start time.Time
	End   time.Time
}

// ValidateRule reports whether rule is an RRULE value rrule-go accepts.
// An empty rule is valid and means "no repeat".
func ValidateRule(rule string) error {
	rule = normalizeRule(rule)
	if rule == "" {
		return nil
	}
	if _, err := rrule.StrToRRule(rule); err != nil {
		return fmt.Errorf("ics: invalid repeat rule %q: %w", rule, err)
	}
	return nil
}

// normalizeRule accepts both "FREQ=..." and "RRULE:FREQ=...".
func normalizeRule(rule string) string {
	rule = strings.TrimSpace(rule)
	if len(rule) >= 6 && strings.EqualFold(rule[:6], "RRULE:") {
		rule = rule[6:]
	}
	return rule
}

// Occurrences expands rule from appt.Start, returning at most limit
// instances (DefaultOccurrenceLimit when limit <= 0). Each instance keeps the
// appointment's duration. An empty rule yields the appointment itself.
func Occurrences(appt model.Appointment, rule string, limit int) ([]Occurrence, error) {
	if limit <= 0 {
		limit = DefaultOccurrenceLimit
	}
	if limit > maxOccurrenceLimit {
		limit = maxOccurrenceLimit
	}

	rule = normalizeRule(rule)
	if rule == "" {
		return []Occurrence{{Start: appt.Start, End: appt.End}}, nil
	}

	r, err := rrule.StrToRRule(rule)
	if err != nil {
		return nil, fmt.Errorf("ics: invalid repeat rule %q: %w", rule, err)
	}

	// Ensure Dtstart is set to the appointment's start.
	r.DTStart(appt.Start)

	dur := appt.Length()
	out := make([]Occurrence, 0, limit)
	next := r.Iterator()
	for len(out) < limit {
		t, ok := next()
		if !ok {
			break
		}
		out = append(out, Occurrence{Start: t, End: t.Add(dur)})
	}

	if len(out) == limit {
		if _, more := next(); more {
			appLog.Warn("occurrence preview truncated", "rule", rule, "cap", limit)
		}
	}
	if len(out) == 0 {
		return nil, errors.New("ics: repeat rule yields no occurrences")
	}
	return out, nil
}
