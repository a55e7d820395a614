package astro

import (
	"time"

	"github.com/devskill-org/astro-companion/ephemeris"
)

// fakeSource serves preset event slices clipped to the requested window,
// so tests control every instant the calculators see.
type fakeSource struct {
	solar        []ephemeris.Event
	lunar        []ephemeris.Event
	solarErr     error
	lunarErr     error
	solarCalls   int
	lunarCalls   int
	solarWindows []time.Duration
}

func (f *fakeSource) SolarEvents(start time.Time, lat, lon float64, window time.Duration) ([]ephemeris.Event, error) {
	f.solarCalls++
	f.solarWindows = append(f.solarWindows, window)
	if f.solarErr != nil {
		return nil, f.solarErr
	}
	return clip(f.solar, start, start.Add(window)), nil
}

func (f *fakeSource) LunarEvents(start time.Time, lat, lon float64, window time.Duration) ([]ephemeris.Event, error) {
	f.lunarCalls++
	if f.lunarErr != nil {
		return nil, f.lunarErr
	}
	return clip(f.lunar, start, start.Add(window)), nil
}

func clip(events []ephemeris.Event, start, end time.Time) []ephemeris.Event {
	var out []ephemeris.Event
	for _, ev := range events {
		if !ev.Time.Before(start) && ev.Time.Before(end) {
			out = append(out, ev)
		}
	}
	return out
}

// at builds a local-time instant on the given day.
func at(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, time.Local)
}
