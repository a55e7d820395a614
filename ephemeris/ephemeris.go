// Package ephemeris produces ordered solar and lunar event sequences for a
// geographic location and time window. It wraps the suncalc library and is
// the only package that talks to the underlying ephemeris math.
package ephemeris

import (
	"math"
	"sort"
	"time"

	"github.com/sixdouglas/suncalc"
)

// EventKind identifies a discrete solar or lunar event.
type EventKind string

const (
	Sunrise             EventKind = "sunrise"
	Sunset              EventKind = "sunset"
	SolarNoon           EventKind = "solarNoon"
	CivilDawn           EventKind = "civilDawn"
	NauticalDawn        EventKind = "nauticalDawn"
	AstronomicalDawn    EventKind = "astronomicalDawn"
	CivilDusk           EventKind = "civilDusk"
	NauticalDusk        EventKind = "nauticalDusk"
	AstronomicalDusk    EventKind = "astronomicalDusk"
	GoldenHourDawnStart EventKind = "goldenHourDawnStart"
	GoldenHourDawnEnd   EventKind = "goldenHourDawnEnd"
	GoldenHourDuskStart EventKind = "goldenHourDuskStart"
	GoldenHourDuskEnd   EventKind = "goldenHourDuskEnd"
	BlueHourDawnStart   EventKind = "blueHourDawnStart"
	BlueHourDawnEnd     EventKind = "blueHourDawnEnd"
	BlueHourDuskStart   EventKind = "blueHourDuskStart"
	BlueHourDuskEnd     EventKind = "blueHourDuskEnd"
	Moonrise            EventKind = "moonrise"
	Moonset             EventKind = "moonset"
	NewMoon             EventKind = "newMoon"
	FirstQuarter        EventKind = "firstQuarter"
	FullMoon            EventKind = "fullMoon"
	LastQuarter         EventKind = "lastQuarter"
)

// Event is a single named instant produced by the ephemeris.
type Event struct {
	Kind EventKind `json:"kind"`
	Time time.Time `json:"time"`
}

// Source supplies ordered event sequences. Implementations must be
// deterministic and side-effect free; every returned event falls within
// [start, start+window) and the slice is sorted by time.
type Source interface {
	SolarEvents(start time.Time, lat, lon float64, window time.Duration) ([]Event, error)
	LunarEvents(start time.Time, lat, lon float64, window time.Duration) ([]Event, error)
}

// SunCalc implements Source using the suncalc library.
type SunCalc struct{}

// NewSunCalc returns a suncalc-backed event source.
func NewSunCalc() *SunCalc {
	return &SunCalc{}
}

// blueGoldenBoundaryDeg is the solar altitude separating blue hour from
// golden hour. Suncalc has no named time at this elevation, so the adapter
// locates the crossing itself.
const blueGoldenBoundaryDeg = -4.0

// SolarEvents returns all solar events inside [start, start+window),
// ordered by time. Events that do not occur (polar day or night) are
// absent from the result rather than reported as errors.
func (s *SunCalc) SolarEvents(start time.Time, lat, lon float64, window time.Duration) ([]Event, error) {
	end := start.Add(window)
	var events []Event

	// A suncalc day is anchored to the solar noon nearest the query time.
	// Walking in 24h steps covers windows longer than one day.
	for day := start; day.Before(end.Add(24 * time.Hour)); day = day.Add(24 * time.Hour) {
		times := suncalc.GetTimes(day, lat, lon)

		add := func(kind EventKind, t time.Time) {
			if !plausible(t, day) {
				return
			}
			events = append(events, Event{Kind: kind, Time: t})
		}

		sunrise := times["sunrise"].Value
		sunset := times["sunset"].Value
		dawn := times["dawn"].Value
		dusk := times["dusk"].Value

		add(Sunrise, sunrise)
		add(Sunset, sunset)
		add(SolarNoon, times["solarNoon"].Value)
		add(CivilDawn, dawn)
		add(CivilDusk, dusk)
		add(NauticalDawn, times["nauticalDawn"].Value)
		add(NauticalDusk, times["nauticalDusk"].Value)
		add(AstronomicalDawn, times["nightEnd"].Value)
		add(AstronomicalDusk, times["night"].Value)
		add(GoldenHourDawnEnd, times["goldenHourEnd"].Value)
		add(GoldenHourDuskStart, times["goldenHour"].Value)
		add(BlueHourDawnStart, dawn)
		add(BlueHourDuskEnd, dusk)

		// The -4 degree boundary ends blue hour and starts golden hour.
		if plausible(dawn, day) && plausible(sunrise, day) {
			if t, ok := altitudeCrossing(dawn, sunrise, lat, lon); ok {
				add(BlueHourDawnEnd, t)
				add(GoldenHourDawnStart, t)
			}
		}
		if plausible(sunset, day) && plausible(dusk, day) {
			if t, ok := altitudeCrossing(sunset, dusk, lat, lon); ok {
				add(GoldenHourDuskEnd, t)
				add(BlueHourDuskStart, t)
			}
		}
	}

	return clipAndSort(events, start, end), nil
}

// plausible rejects the invalid instants suncalc yields when an elevation
// is never reached (polar conditions surface as zero or absurd times).
func plausible(t time.Time, anchor time.Time) bool {
	if t.IsZero() {
		return false
	}
	d := t.Sub(anchor)
	return d > -36*time.Hour && d < 36*time.Hour
}

// altitudeCrossing bisects the sun's altitude between lo and hi for the
// instant it crosses blueGoldenBoundaryDeg. Reports false when the
// bracket does not straddle the boundary.
func altitudeCrossing(lo, hi time.Time, lat, lon float64) (time.Time, bool) {
	target := blueGoldenBoundaryDeg * math.Pi / 180
	altAt := func(t time.Time) float64 {
		return suncalc.GetPosition(t, lat, lon).Altitude - target
	}
	a, b := altAt(lo), altAt(hi)
	if a == 0 {
		return lo, true
	}
	if b == 0 {
		return hi, true
	}
	if (a > 0) == (b > 0) {
		return time.Time{}, false
	}
	for hi.Sub(lo) > time.Second {
		mid := lo.Add(hi.Sub(lo) / 2)
		if (altAt(mid) > 0) == (a > 0) {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo, true
}

func clipAndSort(events []Event, start, end time.Time) []Event {
	kept := events[:0]
	for _, ev := range events {
		if !ev.Time.Before(start) && ev.Time.Before(end) {
			kept = append(kept, ev)
		}
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].Time.Before(kept[j].Time) })
	return kept
}
