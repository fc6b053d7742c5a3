package core

import (
	"testing"
	"time"

	"github.com/pkg/errors"
)

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		conf := NewConfig()
		conf.Backend.BaseURL = "http://localhost:8000/api"
		return conf
	}

	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{"defaults are valid", func(c *Config) {}, ""},
		{
			"missing backend URL",
			func(c *Config) { c.Backend.BaseURL = "" },
			"backend.baseURL",
		},
		{
			"zero tick interval",
			func(c *Config) { c.Capture.TickInterval = 0 },
			"capture.tickInterval",
		},
		{
			"jpeg quality out of range",
			func(c *Config) { c.Capture.JPEGQuality = 101 },
			"capture.jpegQuality",
		},
		{
			"inverted brightness window",
			func(c *Config) { c.Capture.MinBrightness = 0.9; c.Capture.MaxBrightness = 0.2 },
			"capture.minBrightness",
		},
		{
			"thresholds crossed",
			func(c *Config) { c.Live.HighConfidence = 0.3; c.Live.LowConfidence = 0.6 },
			"live.highConfidence",
		},
		{
			"zero log capacity",
			func(c *Config) { c.Live.LogCapacity = 0 },
			"live.logCapacity",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := valid()
			tt.mutate(conf)

			err := conf.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			vErr, ok := errors.Cause(err).(*ValidationError)
			if !ok {
				t.Fatalf("Validate() = %v, want *ValidationError", err)
			}
			found := false
			for _, fld := range vErr.Fields {
				if fld.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("field %q missing from %+v", tt.wantField, vErr.Fields)
			}
		})
	}
}

func TestConfigDefaults(t *testing.T) {
	conf := NewConfig()
	if conf.Capture.TickInterval != 1200*time.Millisecond {
		t.Errorf("TickInterval = %v, want 1.2s", conf.Capture.TickInterval)
	}
	if conf.Capture.JPEGQuality != 92 {
		t.Errorf("JPEGQuality = %d, want 92", conf.Capture.JPEGQuality)
	}
	if conf.Live.HighConfidence != 0.85 || conf.Live.LowConfidence != 0.60 {
		t.Errorf("thresholds = %v/%v, want 0.85/0.60", conf.Live.HighConfidence, conf.Live.LowConfidence)
	}
	if conf.Live.LogCapacity != 50 {
		t.Errorf("LogCapacity = %d, want 50", conf.Live.LogCapacity)
	}
}

func TestErrorHelpers(t *testing.T) {
	if !IsUnauthorized(errors.Wrap(ErrUnauthorized, "backend.GetSession")) {
		t.Error("IsUnauthorized() should see through wrapping")
	}
	if IsUnauthorized(errors.New("boom")) {
		t.Error("IsUnauthorized() matched an unrelated error")
	}
	if !IsShutdown(errors.Wrap(NewShutdownError("integrity issue"), "handler")) {
		t.Error("IsShutdown() should see through wrapping")
	}
	if IsShutdown(errors.New("boom")) {
		t.Error("IsShutdown() matched an unrelated error")
	}
}
