package spaceweather

import (
	"encoding/json"
	"fmt"
	"time"
)

// KIndexEntry is one planetary K-index observation.
type KIndexEntry struct {
	TimeTag time.Time `json:"time_tag"`
	Kp      float64   `json:"kp_index"`
}

// kIndexWire matches the SWPC planetary K-index JSON, whose time tags
// come without a zone designator (UTC implied).
type kIndexWire struct {
	TimeTag string  `json:"time_tag"`
	Kp      float64 `json:"kp_index"`
}

func (e *KIndexEntry) UnmarshalJSON(data []byte) error {
	var wire kIndexWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	t, err := time.Parse("2006-01-02T15:04:05", wire.TimeTag)
	if err != nil {
		return fmt.Errorf("invalid time_tag %q: %w", wire.TimeTag, err)
	}

	e.TimeTag = t.UTC()
	e.Kp = wire.Kp
	return nil
}

// SunspotRegion is one observed solar active region.
type SunspotRegion struct {
	ObservedDate string  `json:"observed_date"`
	Region       int     `json:"region"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	// Area in millionths of a solar hemisphere.
	Area float64 `json:"area"`
}

// LatestRegions filters a region batch down to the rows from the most
// recent observation date present in the batch. SWPC responses carry
// several days of history; only the newest picture is wanted.
func LatestRegions(regions []SunspotRegion) []SunspotRegion {
	var latest string
	for _, r := range regions {
		if r.ObservedDate > latest {
			latest = r.ObservedDate
		}
	}
	if latest == "" {
		return nil
	}

	var out []SunspotRegion
	for _, r := range regions {
		if r.ObservedDate == latest {
			out = append(out, r)
		}
	}
	return out
}

// LatestKIndex returns the most recent entry of a K-index batch.
func LatestKIndex(entries []KIndexEntry) (KIndexEntry, bool) {
	if len(entries) == 0 {
		return KIndexEntry{}, false
	}

	latest := entries[0]
	for _, e := range entries[1:] {
		if e.TimeTag.After(latest.TimeTag) {
			latest = e
		}
	}
	return latest, true
}
