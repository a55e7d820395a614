package companion

import (
	"strings"
	"testing"
	"time"
)

func TestLoadConfigFromReader(t *testing.T) {
	jsonConfig := `{
		"latitude": 48.2082,
		"longitude": 16.3738,
		"location_label": "Vienna, AT",
		"http_port": 8080,
		"api_timeout": 10000000000
	}`

	config, err := LoadConfigFromReader(strings.NewReader(jsonConfig))
	if err != nil {
		t.Fatalf("LoadConfigFromReader() error = %v", err)
	}

	if config.Latitude != 48.2082 {
		t.Errorf("Latitude = %g, want 48.2082", config.Latitude)
	}
	if config.LocationLabel != "Vienna, AT" {
		t.Errorf("LocationLabel = %q, want %q", config.LocationLabel, "Vienna, AT")
	}
	if config.HTTPPort != 8080 {
		t.Errorf("HTTPPort = %d, want 8080", config.HTTPPort)
	}
	if config.APITimeout != 10*time.Second {
		t.Errorf("APITimeout = %s, want 10s", config.APITimeout)
	}
	// Unset fields keep their defaults.
	if config.GeocodeCacheSize != 256 {
		t.Errorf("GeocodeCacheSize = %d, want default 256", config.GeocodeCacheSize)
	}
}

func TestLoadConfigFromReaderInvalidJSON(t *testing.T) {
	if _, err := LoadConfigFromReader(strings.NewReader("{not json")); err == nil {
		t.Fatal("LoadConfigFromReader() accepted malformed JSON")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults are valid", mutate: func(c *Config) {}},
		{name: "latitude too high", mutate: func(c *Config) { c.Latitude = 91 }, wantErr: true},
		{name: "latitude too low", mutate: func(c *Config) { c.Latitude = -90.5 }, wantErr: true},
		{name: "longitude out of range", mutate: func(c *Config) { c.Longitude = 200 }, wantErr: true},
		{name: "zero api timeout", mutate: func(c *Config) { c.APITimeout = 0 }, wantErr: true},
		{name: "negative http port", mutate: func(c *Config) { c.HTTPPort = -1 }, wantErr: true},
		{name: "port too large", mutate: func(c *Config) { c.HTTPPort = 70000 }, wantErr: true},
		{name: "negative cache size", mutate: func(c *Config) { c.GeocodeCacheSize = -1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)

			err := config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigSaveLoadRoundTrip(t *testing.T) {
	config := DefaultConfig()
	config.LocationLabel = "Tromsø, NO"
	config.Latitude = 69.6492
	config.Longitude = 18.9553

	var buf strings.Builder
	if err := config.SaveConfigToWriter(&buf); err != nil {
		t.Fatalf("SaveConfigToWriter() error = %v", err)
	}

	loaded, err := LoadConfigFromReader(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("LoadConfigFromReader() error = %v", err)
	}

	if loaded.LocationLabel != config.LocationLabel {
		t.Errorf("LocationLabel = %q, want %q", loaded.LocationLabel, config.LocationLabel)
	}
	if loaded.Latitude != config.Latitude || loaded.Longitude != config.Longitude {
		t.Errorf("coordinates = (%g, %g), want (%g, %g)",
			loaded.Latitude, loaded.Longitude, config.Latitude, config.Longitude)
	}
}

func TestPrefsRoundTrip(t *testing.T) {
	prefs := &Prefs{
		Latitude:      50.0755,
		Longitude:     14.4378,
		LocationLabel: "Prague, CZ",
		NightMode:     true,
	}

	var buf strings.Builder
	if err := prefs.SaveToWriter(&buf); err != nil {
		t.Fatalf("SaveToWriter() error = %v", err)
	}

	loaded, err := LoadPrefsFromReader(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("LoadPrefsFromReader() error = %v", err)
	}
	if *loaded != *prefs {
		t.Errorf("round trip = %+v, want %+v", loaded, prefs)
	}
}

func TestLoadPrefsMissingFileIsNil(t *testing.T) {
	prefs, err := LoadPrefs("testdata/does-not-exist.json")
	if err != nil {
		t.Fatalf("LoadPrefs() error = %v", err)
	}
	if prefs != nil {
		t.Errorf("LoadPrefs() = %+v, want nil for missing file", prefs)
	}
}

func TestLoadPrefsRejectsBadCoordinates(t *testing.T) {
	if _, err := LoadPrefsFromReader(strings.NewReader(`{"latitude": 95, "longitude": 0}`)); err == nil {
		t.Fatal("LoadPrefsFromReader() accepted latitude 95")
	}
	if _, err := LoadPrefsFromReader(strings.NewReader(`{"latitude": 0, "longitude": -190}`)); err == nil {
		t.Fatal("LoadPrefsFromReader() accepted longitude -190")
	}
}
