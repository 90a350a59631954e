// Criticus - Personalized Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/criticus

package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Schedule is a parsed 5-field cron expression
// (minute hour day-of-month month day-of-week). Each field is a bitmask
// of accepted values; day-of-week 7 folds onto 0 (Sunday).
type Schedule struct {
	minute uint64
	hour   uint64
	dom    uint64
	month  uint64
	dow    uint64

	// A day field written to cover its whole range acts as a wildcard:
	// when one day field is a wildcard the other decides alone, when
	// both are restricted either matching is enough.
	domAny bool
	dowAny bool
}

type fieldBounds struct {
	name string
	min  int
	max  int
}

var (
	minuteBounds = fieldBounds{"minute", 0, 59}
	hourBounds   = fieldBounds{"hour", 0, 23}
	domBounds    = fieldBounds{"day-of-month", 1, 31}
	monthBounds  = fieldBounds{"month", 1, 12}
	dowBounds    = fieldBounds{"day-of-week", 0, 7}
)

// ParseSchedule parses a 5-field cron expression. Supported per field:
// "*", single values, ranges (a-b), lists (a,b,c), and steps (*/n, a-b/n,
// a/n).
func ParseSchedule(expr string) (*Schedule, error) {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return nil, fmt.Errorf("cron expression needs 5 fields, got %d", len(fields))
	}

	bounds := []fieldBounds{minuteBounds, hourBounds, domBounds, monthBounds, dowBounds}
	masks := make([]uint64, 5)
	for i, field := range fields {
		mask, err := parseField(field, bounds[i])
		if err != nil {
			return nil, fmt.Errorf("%s field: %w", bounds[i].name, err)
		}
		masks[i] = mask
	}

	dow := masks[4]
	if dow&(1<<7) != 0 {
		dow = (dow &^ (1 << 7)) | 1
	}

	return &Schedule{
		minute: masks[0],
		hour:   masks[1],
		dom:    masks[2],
		month:  masks[3],
		dow:    dow,
		domAny: masks[2] == rangeMask(domBounds.min, domBounds.max),
		dowAny: dow == rangeMask(0, 6),
	}, nil
}

// Next returns the first instant after t that the schedule matches,
// evaluated in t's location at minute granularity.
func (s *Schedule) Next(t time.Time) time.Time {
	t = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, t.Location())
	t = t.Add(time.Minute)

	// Any valid expression fires within four years (Feb 29 is the
	// slowest case).
	limit := t.AddDate(4, 0, 0)
	for t.Before(limit) {
		if s.matchesAt(t) {
			return t
		}
		t = t.Add(time.Minute)
	}
	return time.Time{}
}

func (s *Schedule) matchesAt(t time.Time) bool {
	if s.minute&(1<<uint(t.Minute())) == 0 {
		return false
	}
	if s.hour&(1<<uint(t.Hour())) == 0 {
		return false
	}
	if s.month&(1<<uint(t.Month())) == 0 {
		return false
	}

	domHit := s.dom&(1<<uint(t.Day())) != 0
	dowHit := s.dow&(1<<uint(t.Weekday())) != 0
	switch {
	case s.domAny && s.dowAny:
		return true
	case s.domAny:
		return dowHit
	case s.dowAny:
		return domHit
	default:
		return domHit || dowHit
	}
}

// parseField parses one comma-separated cron field into a bitmask.
func parseField(field string, b fieldBounds) (uint64, error) {
	var mask uint64
	for _, part := range strings.Split(field, ",") {
		m, err := parsePart(part, b)
		if err != nil {
			return 0, err
		}
		mask |= m
	}
	return mask, nil
}

func parsePart(part string, b fieldBounds) (uint64, error) {
	step := 1
	hasStep := false
	if i := strings.IndexByte(part, '/'); i >= 0 {
		v, err := strconv.Atoi(part[i+1:])
		if err != nil || v <= 0 {
			return 0, fmt.Errorf("invalid step %q", part[i+1:])
		}
		step = v
		hasStep = true
		part = part[:i]
	}

	lo, hi := b.min, b.max
	switch {
	case part == "*":
		// Full range.
	case strings.Contains(part, "-"):
		bounds := strings.SplitN(part, "-", 2)
		var err error
		if lo, err = strconv.Atoi(bounds[0]); err != nil {
			return 0, fmt.Errorf("invalid range start %q", bounds[0])
		}
		if hi, err = strconv.Atoi(bounds[1]); err != nil {
			return 0, fmt.Errorf("invalid range end %q", bounds[1])
		}
		if lo > hi || lo < b.min || hi > b.max {
			return 0, fmt.Errorf("range %d-%d outside %d-%d", lo, hi, b.min, b.max)
		}
	default:
		v, err := strconv.Atoi(part)
		if err != nil {
			return 0, fmt.Errorf("invalid value %q", part)
		}
		if v < b.min || v > b.max {
			return 0, fmt.Errorf("value %d outside %d-%d", v, b.min, b.max)
		}
		lo = v
		if hasStep {
			// "n/step" runs from n to the field maximum.
			hi = b.max
		} else {
			hi = v
		}
	}

	var mask uint64
	for v := lo; v <= hi; v += step {
		mask |= 1 << uint(v)
	}
	return mask, nil
}

func rangeMask(lo, hi int) uint64 {
	var mask uint64
	for v := lo; v <= hi; v++ {
		mask |= 1 << uint(v)
	}
	return mask
}
