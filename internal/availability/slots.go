// Package availability derives bookable time slots for a calendar day from
// therapist schedules. Slots are recomputed from scratch whenever the date
// or therapist list changes; nothing here is persisted.
package availability

import (
	"time"

	"github.com/harborpt/booking-platform/internal/clinicapi"
)

// The clinic books fixed 60-minute slots from 11:00 through 23:00.
const (
	FirstHour = 11
	LastHour  = 23
)

// SlotCount is the number of slots produced for any day.
const SlotCount = LastHour - FirstHour + 1

// Period is the time-of-day grouping attached to each slot. It is purely
// presentational and never reorders the slot sequence.
type Period string

const (
	PeriodMorning   Period = "Morning"
	PeriodAfternoon Period = "Afternoon"
	PeriodEvening   Period = "Evening"
)

// Slot is one candidate 60-minute booking unit on a given day.
type Slot struct {
	Time           time.Time
	Available      bool
	FreeTherapists []clinicapi.Therapist
	Period         Period
}

// ComputeSlots returns the day's slots in ascending hour order. A slot is
// available iff at least one therapist has no booked block at that exact
// timestamp. Inputs are never mutated.
func ComputeSlots(date time.Time, therapists []clinicapi.Therapist) []Slot {
	slots := make([]Slot, 0, SlotCount)
	for hour := FirstHour; hour <= LastHour; hour++ {
		at := time.Date(date.Year(), date.Month(), date.Day(), hour, 0, 0, 0, date.Location())

		var free []clinicapi.Therapist
		for _, th := range therapists {
			if therapistFree(th, at) {
				free = append(free, th)
			}
		}

		slots = append(slots, Slot{
			Time:           at,
			Available:      len(free) > 0,
			FreeTherapists: free,
			Period:         periodOf(hour),
		})
	}
	return slots
}

// therapistFree reports whether the therapist has no booked block matching
// the candidate timestamp. Blocks that fail to parse are skipped: the
// server is the source of truth and rejects real conflicts at submission,
// so bad stored data leans toward showing the slot rather than hiding it.
func therapistFree(th clinicapi.Therapist, at time.Time) bool {
	for _, block := range th.Schedule.TimeBlocks {
		booked, err := clinicapi.ParseWire(block.Date)
		if err != nil {
			continue
		}
		if sameMinute(booked, at) {
			return false
		}
	}
	return true
}

// sameMinute compares by exact year/month/day/hour/minute fields. Slots are
// fixed-width units, so there is deliberately no interval overlap logic.
func sameMinute(a, b time.Time) bool {
	return a.Year() == b.Year() &&
		a.Month() == b.Month() &&
		a.Day() == b.Day() &&
		a.Hour() == b.Hour() &&
		a.Minute() == b.Minute()
}

func periodOf(hour int) Period {
	switch {
	case hour < 12:
		return PeriodMorning
	case hour < 17:
		return PeriodAfternoon
	default:
		return PeriodEvening
	}
}

// FindSlot returns the slot at the given timestamp, or nil.
func FindSlot(slots []Slot, at time.Time) *Slot {
	for i := range slots {
		if sameMinute(slots[i].Time, at) {
			return &slots[i]
		}
	}
	return nil
}
