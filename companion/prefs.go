package companion

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Prefs are the user preferences the presentation layer persists between
// sessions: the chosen observer location and the night-mode flag.
type Prefs struct {
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	LocationLabel string  `json:"location_label"`
	NightMode     bool    `json:"night_mode"`
}

// LoadPrefs reads preferences from a JSON file. A missing file is not an
// error; it returns nil so the caller falls back to config defaults.
func LoadPrefs(filename string) (*Prefs, error) {
	file, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open prefs file: %w", err)
	}
	defer file.Close()

	return LoadPrefsFromReader(file)
}

// LoadPrefsFromReader reads preferences from an io.Reader.
func LoadPrefsFromReader(reader io.Reader) (*Prefs, error) {
	prefs := &Prefs{}

	decoder := json.NewDecoder(reader)
	if err := decoder.Decode(prefs); err != nil {
		return nil, fmt.Errorf("failed to decode prefs JSON: %w", err)
	}

	if prefs.Latitude < -90 || prefs.Latitude > 90 {
		return nil, fmt.Errorf("latitude must be in [-90, 90], got: %g", prefs.Latitude)
	}
	if prefs.Longitude < -180 || prefs.Longitude > 180 {
		return nil, fmt.Errorf("longitude must be in [-180, 180], got: %g", prefs.Longitude)
	}

	return prefs, nil
}

// Save writes the preferences to a JSON file.
func (p *Prefs) Save(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create prefs file: %w", err)
	}
	defer file.Close()

	return p.SaveToWriter(file)
}

// SaveToWriter writes the preferences to an io.Writer.
func (p *Prefs) SaveToWriter(writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(p); err != nil {
		return fmt.Errorf("failed to encode prefs JSON: %w", err)
	}

	return nil
}
