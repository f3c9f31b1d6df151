package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// MaxAvailabilityDays bounds a single availability query.
const MaxAvailabilityDays = 366

// TimeOfDay is a wall-clock time at minute precision.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) String() string { return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute) }

func (t TimeOfDay) minutes() int { return t.Hour*60 + t.Minute }

// ParseTimeOfDay parses "15:04".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	tt, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("parse time of day %q: %w", s, err)
	}
	return TimeOfDay{Hour: tt.Hour(), Minute: tt.Minute()}, nil
}

// CanonicalSlots are the bookable daily times. There is no 14:00 slot.
var CanonicalSlots = []TimeOfDay{
	{10, 0}, {11, 0}, {12, 0}, {13, 0}, {15, 0}, {16, 0}, {17, 0},
}

// SlotClaim is the part of a request the availability calculation reads.
type SlotClaim struct {
	RequestID         uuid.UUID
	UserRequestedAt   time.Time
	FactoryProposedAt *time.Time
}

// DateSlots lists the occupied times of one date, ascending.
type DateSlots struct {
	Date  time.Time
	Times []TimeOfDay
}

// Availability is the advisory contention report for a date range.
type Availability struct {
	AvailableTimeSlots []TimeOfDay
	DisabledDates      []time.Time
	DisabledTimeSlots  []DateSlots
}

// DateRange returns the half-open instant range [start, end) covering the
// calendar dates from..to inclusive in loc.
func DateRange(from, to time.Time, loc *time.Location) (time.Time, time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	start := startOfDay(from, loc)
	last := startOfDay(to, loc)
	if last.Before(start) {
		return time.Time{}, time.Time{}, ErrInvalidRange
	}
	end := last.AddDate(0, 0, 1)
	if end.Sub(start) > MaxAvailabilityDays*24*time.Hour+time.Hour {
		return time.Time{}, time.Time{}, ErrRangeTooLarge
	}
	return start, end, nil
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// CalculateAvailability reports which canonical slots are taken on each date
// between from and to (inclusive, in loc) by any of claims. A date is fully
// disabled once every canonical slot is taken. Times outside the canonical
// list are reported but never saturate a date.
func CalculateAvailability(claims []SlotClaim, from, to time.Time, loc *time.Location) (Availability, error) {
	if loc == nil {
		loc = time.UTC
	}
	start, end, err := DateRange(from, to, loc)
	if err != nil {
		return Availability{}, err
	}

	occupied := make(map[time.Time]map[TimeOfDay]struct{})
	mark := func(t time.Time) {
		if t.Before(start) || !t.Before(end) {
			return
		}
		local := t.In(loc)
		day := startOfDay(local, loc)
		if occupied[day] == nil {
			occupied[day] = make(map[TimeOfDay]struct{})
		}
		occupied[day][TimeOfDay{Hour: local.Hour(), Minute: local.Minute()}] = struct{}{}
	}
	for _, c := range claims {
		mark(c.UserRequestedAt)
		if c.FactoryProposedAt != nil {
			mark(*c.FactoryProposedAt)
		}
	}

	days := make([]time.Time, 0, len(occupied))
	for day := range occupied {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	result := Availability{
		AvailableTimeSlots: append([]TimeOfDay(nil), CanonicalSlots...),
		DisabledDates:      []time.Time{},
		DisabledTimeSlots:  make([]DateSlots, 0, len(days)),
	}
	for _, day := range days {
		set := occupied[day]
		times := make([]TimeOfDay, 0, len(set))
		for t := range set {
			times = append(times, t)
		}
		sort.Slice(times, func(i, j int) bool { return times[i].minutes() < times[j].minutes() })

		if saturated(set) {
			result.DisabledDates = append(result.DisabledDates, day)
		}
		result.DisabledTimeSlots = append(result.DisabledTimeSlots, DateSlots{Date: day, Times: times})
	}
	return result, nil
}

func saturated(set map[TimeOfDay]struct{}) bool {
	for _, slot := range CanonicalSlots {
		if _, ok := set[slot]; !ok {
			return false
		}
	}
	return true
}
