// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package booking

import (
	"fmt"
	"time"

	"github.com/nazca360/nazca360/internal/config"
)

// Date and time layouts used across the booking domain. Dates and slot
// times are strings in the site timezone, matching how reservations are
// stored.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Slot is one bookable interval of the daily grid.
type Slot struct {
	Start string `json:"start_time"`
	End   string `json:"end_time"`
}

// SlotGrid is the fixed daily schedule of a site: the same slots repeat
// every day between the opening and closing times. The grid is immutable
// after construction and safe for concurrent use.
type SlotGrid struct {
	slots          []Slot
	index          map[string]int // start -> position in slots
	cabins         int
	slotMinutes    int
	maxAdvanceDays int
	loc            *time.Location
}

// NewSlotGrid builds the grid from configuration. The slot length must
// divide the open window exactly so the last slot ends at closing time.
func NewSlotGrid(cfg config.BookingConfig) (*SlotGrid, error) {
	if cfg.Cabins <= 0 {
		return nil, fmt.Errorf("cabins must be positive, got %d", cfg.Cabins)
	}
	if cfg.SlotMinutes <= 0 {
		return nil, fmt.Errorf("slot_minutes must be positive, got %d", cfg.SlotMinutes)
	}

	open, err := minutesOfDay(cfg.OpenTime)
	if err != nil {
		return nil, fmt.Errorf("invalid open_time: %w", err)
	}
	closeAt, err := minutesOfDay(cfg.CloseTime)
	if err != nil {
		return nil, fmt.Errorf("invalid close_time: %w", err)
	}
	if closeAt <= open {
		return nil, fmt.Errorf("close_time %s must be after open_time %s", cfg.CloseTime, cfg.OpenTime)
	}

	window := closeAt - open
	if window%cfg.SlotMinutes != 0 {
		return nil, fmt.Errorf("slot length %dm does not divide the %s-%s window exactly",
			cfg.SlotMinutes, cfg.OpenTime, cfg.CloseTime)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}

	maxAdvance := cfg.MaxAdvanceDays
	if maxAdvance <= 0 {
		maxAdvance = 30
	}

	count := window / cfg.SlotMinutes
	slots := make([]Slot, 0, count)
	index := make(map[string]int, count)
	for i := 0; i < count; i++ {
		start := open + i*cfg.SlotMinutes
		slots = append(slots, Slot{
			Start: formatMinutes(start),
			End:   formatMinutes(start + cfg.SlotMinutes),
		})
		index[slots[i].Start] = i
	}

	return &SlotGrid{
		slots:          slots,
		index:          index,
		cabins:         cfg.Cabins,
		slotMinutes:    cfg.SlotMinutes,
		maxAdvanceDays: maxAdvance,
		loc:            loc,
	}, nil
}

// Slots returns the daily slots in chronological order.
func (g *SlotGrid) Slots() []Slot {
	out := make([]Slot, len(g.slots))
	copy(out, g.slots)
	return out
}

// Cabins returns the number of physical cabins.
func (g *SlotGrid) Cabins() int {
	return g.cabins
}

// SlotMinutes returns the length of one slot in minutes.
func (g *SlotGrid) SlotMinutes() int {
	return g.slotMinutes
}

// Location returns the site timezone.
func (g *SlotGrid) Location() *time.Location {
	return g.loc
}

// IsValidStart reports whether start names a slot of the grid.
func (g *SlotGrid) IsValidStart(start string) bool {
	_, ok := g.index[start]
	return ok
}

// EndFor returns the end time of the slot starting at start.
func (g *SlotGrid) EndFor(start string) (string, bool) {
	i, ok := g.index[start]
	if !ok {
		return "", false
	}
	return g.slots[i].End, true
}

// SlotStartAt resolves a (date, start) pair to its instant in the site
// timezone.
func (g *SlotGrid) SlotStartAt(date, start string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout+" "+TimeLayout, date+" "+start, g.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid slot %s %s: %w", date, start, err)
	}
	return t, nil
}

// CheckWindow validates that the (date, start) slot is bookable at the
// given instant: a real grid slot, not already started, and within the
// advance-booking window.
func (g *SlotGrid) CheckWindow(date, start string, now time.Time) error {
	if _, err := time.ParseInLocation(DateLayout, date, g.loc); err != nil {
		return ErrInvalidSlot
	}
	if !g.IsValidStart(start) {
		return ErrInvalidSlot
	}

	slotStart, err := g.SlotStartAt(date, start)
	if err != nil {
		return ErrInvalidSlot
	}

	localNow := now.In(g.loc)
	if !slotStart.After(localNow) {
		return ErrPastSlot
	}

	today := time.Date(localNow.Year(), localNow.Month(), localNow.Day(), 0, 0, 0, 0, g.loc)
	lastDay := today.AddDate(0, 0, g.maxAdvanceDays)
	if slotStart.After(lastDay.Add(24 * time.Hour)) {
		return ErrOutsideWindow
	}

	return nil
}

// minutesOfDay parses an "HH:MM" clock string to minutes since midnight.
func minutesOfDay(s string) (int, error) {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// formatMinutes renders minutes since midnight as "HH:MM".
func formatMinutes(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
