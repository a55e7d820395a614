package astro

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/devskill-org/astro-companion/ephemeris"
)

// Moon phase labels.
const (
	PhaseNewMoon        = "New Moon"
	PhaseWaxingCrescent = "Waxing Crescent"
	PhaseFirstQuarter   = "First Quarter"
	PhaseWaxingGibbous  = "Waxing Gibbous"
	PhaseFullMoon       = "Full Moon"
	PhaseWaningGibbous  = "Waning Gibbous"
	PhaseLastQuarter    = "Last Quarter"
	PhaseWaningCrescent = "Waning Crescent"
	PhaseUnknown        = "Unknown"
)

// SynodicMonthDays is the assumed constant length of a lunation used by
// the illumination model. A real lunation varies by several hours, which
// keeps this an at-a-glance approximation, not an ephemeris.
const SynodicMonthDays = 29.53

// phaseLookback and phaseWindow bound the cardinal-phase search so any
// date has at least one phase boundary on each side.
const (
	phaseLookback = 15 * 24 * time.Hour
	phaseWindow   = 30 * 24 * time.Hour
)

// PhaseInfo is the resolved qualitative phase and illumination of a day.
type PhaseInfo struct {
	Label               string
	IlluminationPercent int
}

// cardinalName maps a cardinal phase event to its display label.
func cardinalName(kind ephemeris.EventKind) (string, bool) {
	switch kind {
	case ephemeris.NewMoon:
		return PhaseNewMoon, true
	case ephemeris.FirstQuarter:
		return PhaseFirstQuarter, true
	case ephemeris.FullMoon:
		return PhaseFullMoon, true
	case ephemeris.LastQuarter:
		return PhaseLastQuarter, true
	}
	return "", false
}

// afterCardinal gives the intermediate label for a day that follows the
// given cardinal phase.
func afterCardinal(kind ephemeris.EventKind) string {
	switch kind {
	case ephemeris.NewMoon:
		return PhaseWaxingCrescent
	case ephemeris.FirstQuarter:
		return PhaseWaxingGibbous
	case ephemeris.FullMoon:
		return PhaseWaningGibbous
	case ephemeris.LastQuarter:
		return PhaseWaningCrescent
	}
	return PhaseUnknown
}

// beforeCardinal gives the intermediate label for a day that precedes the
// given cardinal phase, the mirror of afterCardinal.
func beforeCardinal(kind ephemeris.EventKind) string {
	switch kind {
	case ephemeris.NewMoon:
		return PhaseWaningCrescent
	case ephemeris.FirstQuarter:
		return PhaseWaxingCrescent
	case ephemeris.FullMoon:
		return PhaseWaxingGibbous
	case ephemeris.LastQuarter:
		return PhaseWaningGibbous
	}
	return PhaseUnknown
}

// ResolvePhase determines the moon phase label and illumination for the
// day starting at startOfDay. dayEvents are that day's own lunar events;
// a cardinal phase falling on the day itself keeps its exact name. The
// phase search window spans 15 days back through 30 days total.
//
// Illumination always uses the cosine model against the most recent New
// Moon in the window, even on cardinal-phase days; when none exists (the
// day of a New Moon, or the extreme edge of the lookback) it reports 0,
// a known accuracy gap of the windowed search.
func ResolvePhase(ctx context.Context, src ephemeris.Source, startOfDay time.Time, loc Location, dayEvents []ephemeris.Event) (PhaseInfo, error) {
	windowStart := startOfDay.Add(-phaseLookback)
	events, err := src.LunarEvents(windowStart, loc.Latitude, loc.Longitude, phaseWindow)
	if err != nil {
		return PhaseInfo{}, fmt.Errorf("lunar phase events: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return PhaseInfo{}, err
	}

	var prev, next *ephemeris.Event
	var lastNewMoon time.Time
	for i := range events {
		ev := events[i]
		if _, ok := cardinalName(ev.Kind); !ok {
			continue
		}
		if !ev.Time.After(startOfDay) {
			prev = &events[i]
			if ev.Kind == ephemeris.NewMoon {
				lastNewMoon = ev.Time
			}
		} else if next == nil {
			next = &events[i]
		}
	}

	info := PhaseInfo{Label: dayCardinalLabel(startOfDay, dayEvents)}
	switch {
	case info.Label != "":
	case prev != nil:
		info.Label = afterCardinal(prev.Kind)
	case next != nil:
		info.Label = beforeCardinal(next.Kind)
	default:
		info.Label = PhaseUnknown
	}

	if !lastNewMoon.IsZero() {
		info.IlluminationPercent = IlluminationPercent(startOfDay, lastNewMoon)
	}

	return info, nil
}

// dayCardinalLabel returns the exact label of a cardinal phase occurring
// within the day, or "" when the day holds none.
func dayCardinalLabel(startOfDay time.Time, dayEvents []ephemeris.Event) string {
	dayEnd := startOfDay.AddDate(0, 0, 1)
	for _, ev := range dayEvents {
		if name, ok := cardinalName(ev.Kind); ok && !ev.Time.Before(startOfDay) && ev.Time.Before(dayEnd) {
			return name
		}
	}
	return ""
}

// IlluminationPercent models the illuminated fraction of the moon's disk
// at instant t, given the instant of the New Moon preceding it, assuming
// a constant 29.53-day synodic month.
func IlluminationPercent(t, newMoon time.Time) int {
	daysFromNew := float64(t.UnixMilli()-newMoon.UnixMilli()) / 86400000.0
	angle := daysFromNew / SynodicMonthDays * 2 * math.Pi
	pct := int(math.Round((1 - math.Cos(angle)) / 2 * 100))
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
