package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host            string
		DebugHost       string
		ShutdownTimeout time.Duration
	}

	BackendConfig struct {
		BaseURL string
		Token   string
	}

	// CaptureConfig bounds the auto-capture loop and the frame quality gate.
	CaptureConfig struct {
		TickInterval  time.Duration
		JPEGQuality   int // 1-100
		MinBrightness float64
		MaxBrightness float64
		MinSharpness  float64
	}

	EnrollConfig struct {
		// PoseQuality is a fixed quality component until a real pose
		// estimation signal exists upstream.
		PoseQuality       float64
		SharpnessNorm     float64
		DefaultConfidence float64
	}

	LiveConfig struct {
		HighConfidence float64
		LowConfidence  float64
		LogCapacity    int
	}

	Config struct {
		Debug        bool
		Env          string
		Build        string
		AppName      string
		RollbarToken string
		Server       ServerConfig
		Backend      BackendConfig
		Capture      CaptureConfig
		Enroll       EnrollConfig
		Live         LiveConfig
	}
)

func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("appName", "SmartAttendance")
	conf.SetDefault("build", "dev")
	conf.SetDefault("rollbarToken", "")
	conf.SetDefault("server.host", "127.0.0.1:8480")
	conf.SetDefault("server.debugHost", "127.0.0.1:8481")
	conf.SetDefault("server.shutdownTimeout", 5*time.Second)
	conf.SetDefault("backend.baseURL", "http://localhost:8000/api")
	conf.SetDefault("backend.token", "")
	conf.SetDefault("capture.tickInterval", 1200*time.Millisecond)
	conf.SetDefault("capture.jpegQuality", 92)
	conf.SetDefault("capture.minBrightness", 0.22)
	conf.SetDefault("capture.maxBrightness", 0.95)
	conf.SetDefault("capture.minSharpness", 18.0)
	conf.SetDefault("enroll.poseQuality", 0.8)
	conf.SetDefault("enroll.sharpnessNorm", 60.0)
	conf.SetDefault("enroll.defaultConfidence", 1.0)
	conf.SetDefault("live.highConfidence", 0.85)
	conf.SetDefault("live.lowConfidence", 0.60)
	conf.SetDefault("live.logCapacity", 50)

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	conf.SetEnvPrefix(env)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	return &Config{
		Debug:        conf.GetBool("debug"),
		Env:          env,
		Build:        conf.GetString("build"),
		AppName:      conf.GetString("appName"),
		RollbarToken: conf.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:            conf.GetString("server.host"),
			DebugHost:       conf.GetString("server.debugHost"),
			ShutdownTimeout: conf.GetDuration("server.shutdownTimeout"),
		},
		Backend: BackendConfig{
			BaseURL: strings.TrimRight(conf.GetString("backend.baseURL"), "/"),
			Token:   conf.GetString("backend.token"),
		},
		Capture: CaptureConfig{
			TickInterval:  conf.GetDuration("capture.tickInterval"),
			JPEGQuality:   conf.GetInt("capture.jpegQuality"),
			MinBrightness: conf.GetFloat64("capture.minBrightness"),
			MaxBrightness: conf.GetFloat64("capture.maxBrightness"),
			MinSharpness:  conf.GetFloat64("capture.minSharpness"),
		},
		Enroll: EnrollConfig{
			PoseQuality:       conf.GetFloat64("enroll.poseQuality"),
			SharpnessNorm:     conf.GetFloat64("enroll.sharpnessNorm"),
			DefaultConfidence: conf.GetFloat64("enroll.defaultConfidence"),
		},
		Live: LiveConfig{
			HighConfidence: conf.GetFloat64("live.highConfidence"),
			LowConfidence:  conf.GetFloat64("live.lowConfidence"),
			LogCapacity:    conf.GetInt("live.logCapacity"),
		},
	}
}

// Validate sanity-checks values an env overlay may have broken.
func (c *Config) Validate() error {
	var flds []FieldError
	if c.Backend.BaseURL == "" {
		flds = append(flds, FieldError{Field: "backend.baseURL", Error: "backend base URL is required"})
	}
	if c.Capture.TickInterval <= 0 {
		flds = append(flds, FieldError{Field: "capture.tickInterval", Error: "tick interval must be positive"})
	}
	if c.Capture.JPEGQuality < 1 || c.Capture.JPEGQuality > 100 {
		flds = append(flds, FieldError{Field: "capture.jpegQuality", Error: "jpeg quality must be within 1-100"})
	}
	if c.Capture.MinBrightness < 0 || c.Capture.MaxBrightness > 1 || c.Capture.MinBrightness >= c.Capture.MaxBrightness {
		flds = append(flds, FieldError{Field: "capture.minBrightness", Error: "brightness window must be within [0,1] and non-empty"})
	}
	if c.Live.HighConfidence < c.Live.LowConfidence {
		flds = append(flds, FieldError{Field: "live.highConfidence", Error: "high confidence threshold cannot be below the low threshold"})
	}
	if c.Live.LogCapacity <= 0 {
		flds = append(flds, FieldError{Field: "live.logCapacity", Error: "log capacity must be positive"})
	}
	if len(flds) > 0 {
		return NewValidationError(errInvalidConfig, flds...)
	}
	return nil
}
