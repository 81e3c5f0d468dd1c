// Package availability decides whether a candidate rendez-vous slot can be
// booked for a professional. The check is a pure function over an explicit
// Config snapshot and the professional's existing bookings; it never reads
// ambient state, which keeps it testable in isolation.
//
// The check is advisory: nothing here (or at the storage layer) serializes
// concurrent bookings, so two requests racing on the same slot can both be
// accepted. The professional resolves the duplicate manually by cancelling
// one of them.
package availability

import (
	"fmt"
	"time"
)

// DefaultSlotLength is used when a Config does not set one.
const DefaultSlotLength = 30 * time.Minute

// Reason codes a rejected slot carries back to the caller.
type Reason string

const (
	ReasonNone          Reason = ""
	ReasonVacation      Reason = "vacation"
	ReasonOutsideHours  Reason = "outside_hours"
	ReasonConflict      Reason = "conflict"
	ReasonInvalidWindow Reason = "invalid_window"
)

// Config is the snapshot of a professional's booking rules.
type Config struct {
	// WorkStart and WorkEnd are "HH:MM" wall-clock strings. The window is
	// inclusive of its start and exclusive of its end. A window whose end
	// is not after its start wraps across midnight.
	WorkStart string
	WorkEnd   string

	// Vacation suspends all bookings while set.
	Vacation bool

	// SlotLength is the exclusion radius around an existing booking.
	SlotLength time.Duration
}

// Decision is the outcome of a slot check.
type Decision struct {
	OK     bool   `json:"ok"`
	Reason Reason `json:"reason,omitempty"`
}

func accept() Decision         { return Decision{OK: true} }
func reject(r Reason) Decision { return Decision{OK: false, Reason: r} }

// ValidateWindow reports whether both window bounds parse as "HH:MM".
func ValidateWindow(start, end string) error {
	if _, err := parseClock(start); err != nil {
		return fmt.Errorf("work_start: %w", err)
	}
	if _, err := parseClock(end); err != nil {
		return fmt.Errorf("work_end: %w", err)
	}
	return nil
}

// Check decides whether candidate can be booked given the professional's
// config and the scheduled times of their existing non-cancelled bookings
// for the same day. The caller is responsible for pre-filtering existing to
// the relevant professional and date range.
func Check(cfg Config, existing []time.Time, candidate time.Time) Decision {
	if cfg.Vacation {
		return reject(ReasonVacation)
	}

	start, err := parseClock(cfg.WorkStart)
	if err != nil {
		return reject(ReasonInvalidWindow)
	}
	end, err := parseClock(cfg.WorkEnd)
	if err != nil {
		return reject(ReasonInvalidWindow)
	}
	if start == end {
		// Zero-length window: nothing is bookable.
		return reject(ReasonInvalidWindow)
	}

	minute := candidate.Hour()*60 + candidate.Minute()
	if !withinWindow(minute, start, end) {
		return reject(ReasonOutsideHours)
	}

	slot := cfg.SlotLength
	if slot <= 0 {
		slot = DefaultSlotLength
	}
	for _, booked := range existing {
		if absDuration(candidate.Sub(booked)) < slot {
			return reject(ReasonConflict)
		}
	}
	return accept()
}

// withinWindow is inclusive of start and exclusive of end. When end < start
// the window wraps across midnight: [start, 24h) union [0, end).
func withinWindow(minute, start, end int) bool {
	if start < end {
		return minute >= start && minute < end
	}
	return minute >= start || minute < end
}

func parseClock(v string) (int, error) {
	t, err := time.Parse("15:04", v)
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q", v)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
