package ephemeris

import (
	"time"

	"github.com/sixdouglas/suncalc"
)

// phaseScanStep is the coarse sampling interval for locating cardinal
// phase instants. The lunar phase advances ~0.034/day, so a 3h step can
// never skip a cardinal crossing.
const phaseScanStep = 3 * time.Hour

// cardinalPhases maps the suncalc phase fraction of each cardinal phase
// to its event kind. Phase runs 0 -> 1 over one synodic month.
var cardinalPhases = []struct {
	fraction float64
	kind     EventKind
}{
	{0.0, NewMoon},
	{0.25, FirstQuarter},
	{0.5, FullMoon},
	{0.75, LastQuarter},
}

// LunarEvents returns moonrise/moonset and cardinal phase events inside
// [start, start+window), ordered by time.
func (s *SunCalc) LunarEvents(start time.Time, lat, lon float64, window time.Duration) ([]Event, error) {
	end := start.Add(window)
	var events []Event

	for day := start; day.Before(end.Add(24 * time.Hour)); day = day.Add(24 * time.Hour) {
		mt := suncalc.GetMoonTimes(day, lat, lon, false)
		if !mt.AlwaysUp && !mt.AlwaysDown {
			if plausible(mt.Rise, day) {
				events = append(events, Event{Kind: Moonrise, Time: mt.Rise})
			}
			if plausible(mt.Set, day) {
				events = append(events, Event{Kind: Moonset, Time: mt.Set})
			}
		}
	}

	events = append(events, scanCardinalPhases(start, end)...)

	return clipAndSort(events, start, end), nil
}

// scanCardinalPhases samples the moon's phase fraction across the window
// and bisects every bracketing step down to the crossing instant.
func scanCardinalPhases(start, end time.Time) []Event {
	var events []Event
	prev := start
	prevPhase := suncalc.GetMoonIllumination(prev).Phase
	for t := start.Add(phaseScanStep); t.Before(end.Add(phaseScanStep)); t = t.Add(phaseScanStep) {
		phase := suncalc.GetMoonIllumination(t).Phase
		for _, cp := range cardinalPhases {
			if crossed(prevPhase, phase, cp.fraction) {
				at := bisectPhase(prev, t, cp.fraction)
				events = append(events, Event{Kind: cp.kind, Time: at})
			}
		}
		prev, prevPhase = t, phase
	}
	return events
}

// crossed reports whether the monotonically increasing phase fraction
// passed target in (a, b], accounting for the wrap from 1 back to 0 at
// New Moon.
func crossed(a, b, target float64) bool {
	if b < a { // wrapped past New Moon
		return target > a || target <= b
	}
	return a < target && target <= b
}

// bisectPhase narrows [lo, hi] to the instant the phase fraction reaches
// target, wrap-aware, to better than a minute.
func bisectPhase(lo, hi time.Time, target float64) time.Time {
	loPhase := suncalc.GetMoonIllumination(lo).Phase
	for hi.Sub(lo) > 30*time.Second {
		mid := lo.Add(hi.Sub(lo) / 2)
		midPhase := suncalc.GetMoonIllumination(mid).Phase
		if crossed(loPhase, midPhase, target) {
			hi = mid
		} else {
			lo, loPhase = mid, midPhase
		}
	}
	return lo.Add(hi.Sub(lo) / 2).Round(time.Second)
}
