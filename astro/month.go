package astro

import (
	"context"
	"fmt"
	"time"

	"github.com/devskill-org/astro-companion/ephemeris"
)

// ComputeMonth builds the reduced per-day table for every day of the
// given month, keyed 1..daysInMonth. Illumination is sampled at local
// noon of each day, unlike the daily snapshot which samples at midnight;
// both behaviors are intentional. Cancellation is checked once per day
// and discards all partial results.
func ComputeMonth(ctx context.Context, src ephemeris.Source, year int, month time.Month, loc Location) (map[int]CalendarDayData, error) {
	days := daysInMonth(year, month)
	table := make(map[int]CalendarDayData, days)

	for day := 1; day <= days; day++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := time.Date(year, month, day, 0, 0, 0, 0, time.Local)
		entry, err := computeCalendarDay(ctx, src, start, loc)
		if err != nil {
			return nil, fmt.Errorf("day %d: %w", day, err)
		}
		table[day] = entry
	}

	return table, nil
}

func computeCalendarDay(ctx context.Context, src ephemeris.Source, start time.Time, loc Location) (CalendarDayData, error) {
	// A calendar day, which is 23 or 25 hours on DST transition days.
	window := start.AddDate(0, 0, 1).Sub(start)

	solar, err := src.SolarEvents(start, loc.Latitude, loc.Longitude, window)
	if err != nil {
		return CalendarDayData{}, fmt.Errorf("solar events: %w", err)
	}
	lunar, err := src.LunarEvents(start, loc.Latitude, loc.Longitude, window)
	if err != nil {
		return CalendarDayData{}, fmt.Errorf("lunar events: %w", err)
	}

	// The month view samples illumination at midday, not midnight.
	phase, err := ResolvePhase(ctx, src, start.Add(12*time.Hour), loc, lunar)
	if err != nil {
		return CalendarDayData{}, err
	}

	return CalendarDayData{
		Sunrise:             formatClock(firstEvent(solar, ephemeris.Sunrise)),
		Sunset:              formatClock(firstEvent(solar, ephemeris.Sunset)),
		CivilDawn:           formatClock(firstEvent(solar, ephemeris.CivilDawn)),
		CivilDusk:           formatClock(firstEvent(solar, ephemeris.CivilDusk)),
		Moonrise:            formatClock(firstEvent(lunar, ephemeris.Moonrise)),
		Moonset:             formatClock(firstEvent(lunar, ephemeris.Moonset)),
		IlluminationPercent: phase.IlluminationPercent,
	}, nil
}
