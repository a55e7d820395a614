// Package sidereal computes local sidereal time and the Polaris
// hour-angle clock reading used for polar-scope alignment. Everything
// here is pure arithmetic on an instant and a longitude.
package sidereal

import (
	"fmt"
	"math"
	"time"
)

const (
	msPerDay       = 86400000.0
	jdUnixEpoch    = 2440587.5
	jdJ2000        = 2451545.0
	daysPerCentury = 36525.0

	// Polaris right ascension, modeled as a linear drift from J2000.
	// Valid on the order of decades; this is not a precession model.
	polarisRAJ2000Deg     = 37.946
	polarisRADriftPerYear = 0.3337
)

// Reading is one evaluation of the Polaris clock.
type Reading struct {
	LSTDegrees     float64 `json:"lst_degrees"`
	HourAngleHours float64 `json:"hour_angle_hours"`
	ClockHours     float64 `json:"clock_hours"`
}

// norm360 maps x into [0, 360) with floored modulo so negative inputs
// wrap correctly.
func norm360(x float64) float64 {
	m := math.Mod(x, 360)
	if m < 0 {
		m += 360
	}
	return m
}

// norm12 maps x into [0, 12) with floored modulo.
func norm12(x float64) float64 {
	m := math.Mod(x, 12)
	if m < 0 {
		m += 12
	}
	return m
}

// LocalSiderealTime returns the local sidereal time in degrees for the
// given longitude (east positive) and instant.
func LocalSiderealTime(longitudeDeg float64, t time.Time) float64 {
	jd := float64(t.UnixMilli())/msPerDay + jdUnixEpoch
	d := jd - jdJ2000
	centuries := d / daysPerCentury
	gmst := 280.46061837 +
		360.98564736629*d +
		0.000387933*centuries*centuries -
		centuries*centuries*centuries/38710000.0
	return norm360(gmst + longitudeDeg)
}

// polarisRA returns Polaris' right ascension in degrees at instant t.
func polarisRA(t time.Time) float64 {
	yearsSinceJ2000 := (float64(t.UnixMilli())/msPerDay + jdUnixEpoch - jdJ2000) / 365.25
	return norm360(polarisRAJ2000Deg + polarisRADriftPerYear*yearsSinceJ2000)
}

// HourAngleHours returns Polaris' hour angle in hours for the given
// longitude and instant.
func HourAngleHours(longitudeDeg float64, t time.Time) float64 {
	lst := LocalSiderealTime(longitudeDeg, t)
	return norm360(lst-polarisRA(t)) / 15
}

// Compute evaluates the full Polaris clock reading. The clock value maps
// the hour angle onto the analog polar-scope reticle dial:
//
//	clock = norm12(12 - hourAngle/2 + 6)
//
// The halving and the 6-hour offset encode the conventional reticle
// orientation; treat the formula as the definition of the dial.
func Compute(longitudeDeg float64, t time.Time) Reading {
	lst := LocalSiderealTime(longitudeDeg, t)
	ha := norm360(lst-polarisRA(t)) / 15
	return Reading{
		LSTDegrees:     lst,
		HourAngleHours: ha,
		ClockHours:     norm12(12 - ha/2 + 6),
	}
}

// FormatClock renders the dial reading as HH:MM on the 12-hour reticle.
func (r Reading) FormatClock() string {
	h := int(r.ClockHours)
	m := int(math.Round((r.ClockHours - float64(h)) * 60))
	if m == 60 {
		h, m = h+1, 0
	}
	if h == 12 {
		h = 0
	}
	return fmt.Sprintf("%02d:%02d", h, m)
}

// FormatLST renders the sidereal time in degrees with one decimal.
func (r Reading) FormatLST() string {
	return fmt.Sprintf("%.1f°", r.LSTDegrees)
}
