// Package astro turns raw ephemeris event sequences into the structured
// daily and monthly records the presentation layer consumes.
package astro

import (
	"fmt"
	"time"
)

// UnknownTime is the sentinel rendered when an event does not occur,
// e.g. no sunrise during polar night.
const UnknownTime = "--:--"

// UnknownDuration is the sentinel for an undefined day or night length.
const UnknownDuration = "--"

// Location is an immutable geographic position. Values are replaced
// wholesale on update, never mutated in place.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Label     string  `json:"label"`
}

// DailySnapshot is the fully formatted astronomical picture of one day at
// one location. It is immutable once published.
type DailySnapshot struct {
	Date     time.Time `json:"date"`
	Location Location  `json:"location"`

	Sunrise          string `json:"sunrise"`
	Sunset           string `json:"sunset"`
	SolarNoon        string `json:"solar_noon"`
	CivilDawn        string `json:"civil_dawn"`
	NauticalDawn     string `json:"nautical_dawn"`
	AstronomicalDawn string `json:"astronomical_dawn"`
	CivilDusk        string `json:"civil_dusk"`
	NauticalDusk     string `json:"nautical_dusk"`
	AstronomicalDusk string `json:"astronomical_dusk"`

	GoldenHourDawnStart string `json:"golden_hour_dawn_start"`
	GoldenHourDawnEnd   string `json:"golden_hour_dawn_end"`
	GoldenHourDuskStart string `json:"golden_hour_dusk_start"`
	GoldenHourDuskEnd   string `json:"golden_hour_dusk_end"`
	BlueHourDawnStart   string `json:"blue_hour_dawn_start"`
	BlueHourDawnEnd     string `json:"blue_hour_dawn_end"`
	BlueHourDuskStart   string `json:"blue_hour_dusk_start"`
	BlueHourDuskEnd     string `json:"blue_hour_dusk_end"`

	Moonrise string `json:"moonrise"`
	Moonset  string `json:"moonset"`

	DayLengthMinutes *int   `json:"day_length_minutes,omitempty"`
	DayLength        string `json:"day_length"`
	NightLength      string `json:"night_length"`

	MoonPhase           string `json:"moon_phase"`
	IlluminationPercent int    `json:"illumination_percent"`
}

// CalendarDayData is the reduced per-day record of the month table.
type CalendarDayData struct {
	Sunrise             string `json:"sunrise"`
	Sunset              string `json:"sunset"`
	CivilDawn           string `json:"civil_dawn"`
	CivilDusk           string `json:"civil_dusk"`
	Moonrise            string `json:"moonrise"`
	Moonset             string `json:"moonset"`
	IlluminationPercent int    `json:"illumination_percent"`
}

// formatClock renders t as a local HH:mm string, or the unknown sentinel
// for the zero time.
func formatClock(t time.Time) string {
	if t.IsZero() {
		return UnknownTime
	}
	return t.Local().Format("15:04")
}

// formatMinutes renders whole minutes as "{h}h {m}m".
func formatMinutes(minutes int) string {
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

// daysInMonth returns the number of days in the given Gregorian month.
func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// startOfDay returns local midnight of the calendar day containing t.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
