package astro

import (
	"context"
	"testing"
	"time"

	"github.com/devskill-org/astro-companion/ephemeris"
)

// referenceNewMoonMs is a known New Moon instant used as the illumination
// model's fixed point (2025-01-29 12:35 UTC).
const referenceNewMoonMs = 1738154100000

func TestIlluminationPercentAtReferenceEpoch(t *testing.T) {
	newMoon := time.UnixMilli(referenceNewMoonMs)

	if got := IlluminationPercent(newMoon, newMoon); got != 0 {
		t.Errorf("IlluminationPercent(newMoon) = %d, want 0", got)
	}

	halfSynodic := time.Duration(14.76525 * 24 * float64(time.Hour))
	if got := IlluminationPercent(newMoon.Add(halfSynodic), newMoon); got != 100 {
		t.Errorf("IlluminationPercent(newMoon + half synodic) = %d, want 100", got)
	}
}

func TestIlluminationPercentCurve(t *testing.T) {
	newMoon := time.UnixMilli(referenceNewMoonMs)

	tests := []struct {
		name string
		days float64
		want int
	}{
		{"new moon", 0, 0},
		{"one day in", 1, 1},
		{"first quarter", 29.53 / 4, 50},
		{"full moon", 29.53 / 2, 100},
		{"last quarter", 29.53 * 3 / 4, 50},
		{"next new moon", 29.53, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			at := newMoon.Add(time.Duration(tt.days * 24 * float64(time.Hour)))
			if got := IlluminationPercent(at, newMoon); got != tt.want {
				t.Errorf("IlluminationPercent(+%.2fd) = %d, want %d", tt.days, got, tt.want)
			}
		})
	}
}

func TestIlluminationPercentAlwaysClamped(t *testing.T) {
	newMoon := time.UnixMilli(referenceNewMoonMs)

	for days := -40.0; days <= 80.0; days += 0.37 {
		at := newMoon.Add(time.Duration(days * 24 * float64(time.Hour)))
		got := IlluminationPercent(at, newMoon)
		if got < 0 || got > 100 {
			t.Fatalf("IlluminationPercent(+%.2fd) = %d, out of [0, 100]", days, got)
		}
	}
}

func TestResolvePhaseLabels(t *testing.T) {
	day := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.Local)
	start := at(day, 0, 0)

	tests := []struct {
		name      string
		dayEvents []ephemeris.Event
		window    []ephemeris.Event
		wantLabel string
		wantPct   int
	}{
		{
			// The previous New Moon is a full synodic month back, outside
			// the 15-day lookback, so the model has no reference.
			name:      "new moon on the day keeps its exact name",
			dayEvents: []ephemeris.Event{{Kind: ephemeris.NewMoon, Time: at(day, 13, 20)}},
			wantLabel: PhaseNewMoon,
			wantPct:   0,
		},
		{
			name:      "full moon on the day keeps its exact name",
			dayEvents: []ephemeris.Event{{Kind: ephemeris.FullMoon, Time: at(day, 3, 0)}},
			window: []ephemeris.Event{{
				Kind: ephemeris.NewMoon,
				Time: start.Add(-time.Duration(14.765 * 24 * float64(time.Hour))),
			}},
			wantLabel: PhaseFullMoon,
			wantPct:   100,
		},
		{
			// A cardinal phase on the day keeps its label but illumination
			// still comes from the cosine model: 7.0 days from the New
			// Moon is 46%, not the quarter's nominal 50%.
			name:      "first quarter on the day still uses the cosine model",
			dayEvents: []ephemeris.Event{{Kind: ephemeris.FirstQuarter, Time: at(day, 22, 0)}},
			window:    []ephemeris.Event{{Kind: ephemeris.NewMoon, Time: start.Add(-7 * 24 * time.Hour)}},
			wantLabel: PhaseFirstQuarter,
			wantPct:   46,
		},
		{
			name:      "after first quarter is waxing gibbous",
			window:    []ephemeris.Event{{Kind: ephemeris.FirstQuarter, Time: start.AddDate(0, 0, -3)}},
			wantLabel: PhaseWaxingGibbous,
		},
		{
			name:      "after full moon is waning gibbous",
			window:    []ephemeris.Event{{Kind: ephemeris.FullMoon, Time: start.AddDate(0, 0, -2)}},
			wantLabel: PhaseWaningGibbous,
		},
		{
			name:      "after last quarter is waning crescent",
			window:    []ephemeris.Event{{Kind: ephemeris.LastQuarter, Time: start.AddDate(0, 0, -4)}},
			wantLabel: PhaseWaningCrescent,
		},
		{
			name:      "no previous phase mirrors the next one",
			window:    []ephemeris.Event{{Kind: ephemeris.FullMoon, Time: start.AddDate(0, 0, 6)}},
			wantLabel: PhaseWaxingGibbous,
		},
		{
			name:      "no next or previous phase is unknown",
			wantLabel: PhaseUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &fakeSource{lunar: tt.window}
			info, err := ResolvePhase(context.Background(), src, start, prague, tt.dayEvents)
			if err != nil {
				t.Fatalf("ResolvePhase() error = %v", err)
			}
			if info.Label != tt.wantLabel {
				t.Errorf("Label = %q, want %q", info.Label, tt.wantLabel)
			}
			if info.IlluminationPercent != tt.wantPct {
				t.Errorf("IlluminationPercent = %d, want %d", info.IlluminationPercent, tt.wantPct)
			}
		})
	}
}

func TestResolvePhaseIlluminationFromLastNewMoon(t *testing.T) {
	day := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.Local)
	start := at(day, 0, 0)

	src := &fakeSource{lunar: []ephemeris.Event{
		{Kind: ephemeris.NewMoon, Time: start.Add(-5 * 24 * time.Hour)},
		{Kind: ephemeris.FirstQuarter, Time: start.AddDate(0, 0, 2)},
	}}

	info, err := ResolvePhase(context.Background(), src, start, prague, nil)
	if err != nil {
		t.Fatalf("ResolvePhase() error = %v", err)
	}
	if info.Label != PhaseWaxingCrescent {
		t.Errorf("Label = %q, want %q", info.Label, PhaseWaxingCrescent)
	}
	if info.IlluminationPercent != 26 {
		t.Errorf("IlluminationPercent = %d, want 26", info.IlluminationPercent)
	}
}

// Without a New Moon in the window the model has no reference and
// reports 0. This mirrors the documented approximation gap.
func TestResolvePhaseNoNewMoonReference(t *testing.T) {
	day := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.Local)
	start := at(day, 0, 0)

	src := &fakeSource{lunar: []ephemeris.Event{
		{Kind: ephemeris.FullMoon, Time: start.AddDate(0, 0, -1)},
	}}

	info, err := ResolvePhase(context.Background(), src, start, prague, nil)
	if err != nil {
		t.Fatalf("ResolvePhase() error = %v", err)
	}
	if info.Label != PhaseWaningGibbous {
		t.Errorf("Label = %q, want %q", info.Label, PhaseWaningGibbous)
	}
	if info.IlluminationPercent != 0 {
		t.Errorf("IlluminationPercent = %d, want 0 (no reference)", info.IlluminationPercent)
	}
}
