package astro

import (
	"context"
	"fmt"
	"time"

	"github.com/devskill-org/astro-companion/ephemeris"
)

// ComputeDaily builds the full snapshot for the calendar day containing
// date at the given location. The day window starts at local midnight of
// date, exactly one calendar day long; on DST transition days that is
// 23 or 25 hours, not 24. Cancellation is checked after each call into
// the event source; a cancelled computation returns ctx.Err() and no
// snapshot.
func ComputeDaily(ctx context.Context, src ephemeris.Source, date time.Time, loc Location) (*DailySnapshot, error) {
	start := startOfDay(date)
	window := start.AddDate(0, 0, 1).Sub(start)

	solar, err := src.SolarEvents(start, loc.Latitude, loc.Longitude, window)
	if err != nil {
		return nil, fmt.Errorf("solar events: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lunar, err := src.LunarEvents(start, loc.Latitude, loc.Longitude, window)
	if err != nil {
		return nil, fmt.Errorf("lunar events: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snap := &DailySnapshot{Date: start, Location: loc}
	fillSolar(snap, solar)
	fillLunarHorizon(snap, lunar)
	fillDayLength(snap, solar)

	phase, err := ResolvePhase(ctx, src, start, loc, lunar)
	if err != nil {
		return nil, err
	}
	snap.MoonPhase = phase.Label
	snap.IlluminationPercent = phase.IlluminationPercent

	return snap, nil
}

// firstEvent returns the first event of the given kind, or the zero time.
func firstEvent(events []ephemeris.Event, kind ephemeris.EventKind) time.Time {
	for _, ev := range events {
		if ev.Kind == kind {
			return ev.Time
		}
	}
	return time.Time{}
}

func fillSolar(snap *DailySnapshot, solar []ephemeris.Event) {
	snap.Sunrise = formatClock(firstEvent(solar, ephemeris.Sunrise))
	snap.Sunset = formatClock(firstEvent(solar, ephemeris.Sunset))
	snap.SolarNoon = formatClock(firstEvent(solar, ephemeris.SolarNoon))
	snap.CivilDawn = formatClock(firstEvent(solar, ephemeris.CivilDawn))
	snap.NauticalDawn = formatClock(firstEvent(solar, ephemeris.NauticalDawn))
	snap.AstronomicalDawn = formatClock(firstEvent(solar, ephemeris.AstronomicalDawn))
	snap.CivilDusk = formatClock(firstEvent(solar, ephemeris.CivilDusk))
	snap.NauticalDusk = formatClock(firstEvent(solar, ephemeris.NauticalDusk))
	snap.AstronomicalDusk = formatClock(firstEvent(solar, ephemeris.AstronomicalDusk))
	snap.GoldenHourDawnStart = formatClock(firstEvent(solar, ephemeris.GoldenHourDawnStart))
	snap.GoldenHourDawnEnd = formatClock(firstEvent(solar, ephemeris.GoldenHourDawnEnd))
	snap.GoldenHourDuskStart = formatClock(firstEvent(solar, ephemeris.GoldenHourDuskStart))
	snap.GoldenHourDuskEnd = formatClock(firstEvent(solar, ephemeris.GoldenHourDuskEnd))
	snap.BlueHourDawnStart = formatClock(firstEvent(solar, ephemeris.BlueHourDawnStart))
	snap.BlueHourDawnEnd = formatClock(firstEvent(solar, ephemeris.BlueHourDawnEnd))
	snap.BlueHourDuskStart = formatClock(firstEvent(solar, ephemeris.BlueHourDuskStart))
	snap.BlueHourDuskEnd = formatClock(firstEvent(solar, ephemeris.BlueHourDuskEnd))
}

func fillLunarHorizon(snap *DailySnapshot, lunar []ephemeris.Event) {
	snap.Moonrise = formatClock(firstEvent(lunar, ephemeris.Moonrise))
	snap.Moonset = formatClock(firstEvent(lunar, ephemeris.Moonset))
}

// fillDayLength derives day and night length from sunrise and sunset.
// Both lengths are measured against the same 1440-minute day, so they
// always sum to 1440 when defined.
func fillDayLength(snap *DailySnapshot, solar []ephemeris.Event) {
	snap.DayLength = UnknownDuration
	snap.NightLength = UnknownDuration

	sunrise := firstEvent(solar, ephemeris.Sunrise)
	sunset := firstEvent(solar, ephemeris.Sunset)
	if sunrise.IsZero() || sunset.IsZero() || !sunset.After(sunrise) {
		return
	}

	dayMinutes := int(sunset.Sub(sunrise) / time.Minute)
	snap.DayLengthMinutes = &dayMinutes
	snap.DayLength = formatMinutes(dayMinutes)
	snap.NightLength = formatMinutes(24*60 - dayMinutes)
}
