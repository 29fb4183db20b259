package config

import (
	_ "embed"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed profiles.yaml
var profilesYAML []byte

type Config struct {
	Encoder  EncoderConfig
	Match    MatchConfig
	Liveness LivenessConfig
	Store    StoreConfig
	Database DatabaseConfig
	Web      WebConfig
}

type EncoderConfig struct {
	URL     string        // encoder service base URL (e.g. http://localhost:8100)
	Dim     int           // embedding dimension the encoder produces (default 128)
	Timeout time.Duration // bound on a single inference call
}

type MatchConfig struct {
	// Threshold is the strict lower bound a best score must exceed to
	// count as a match. Resolved from MATCH_THRESHOLD, or from the named
	// MATCH_PROFILE in the embedded profiles file.
	Threshold float64
	Profile   string
}

type LivenessConfig struct {
	Threshold float64 // minimum sharpness score
	FailOpen  bool    // pass undecodable images through the gate
}

type StoreConfig struct {
	Backend      string        // "file" or "postgres"
	SnapshotPath string        // JSON snapshot path for the file backend
	Timeout      time.Duration // bound on a single durable-store call
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type WebConfig struct {
	// AllowedOrigins is the CORS origin policy. The default "*" keeps the
	// transport open to all origins; a deliberate, documented default.
	AllowedOrigins string
}

// ProfilesConfig mirrors the embedded profiles.yaml document.
type ProfilesConfig struct {
	Profiles       map[string]float64 `yaml:"profiles"`
	DefaultProfile string             `yaml:"default_profile"`
	Liveness       struct {
		SharpnessThreshold float64 `yaml:"sharpness_threshold"`
	} `yaml:"liveness"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a float.
// Returns the default value if the env var is unset, empty, or invalid.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return defaultVal
}

// envBool reads an environment variable as a boolean.
// Returns the default value if the env var is unset, empty, or invalid.
func envBool(key string, defaultVal bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return defaultVal
}

// envString reads an environment variable with a default.
func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// loadProfiles parses the embedded profiles file.
func loadProfiles() ProfilesConfig {
	var profiles ProfilesConfig
	if err := yaml.Unmarshal(profilesYAML, &profiles); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded profiles.yaml: " + err.Error())
	}
	return profiles
}

// resolveMatchThreshold picks the match threshold: an explicit
// MATCH_THRESHOLD wins, otherwise the named profile from profiles.yaml.
func resolveMatchThreshold(profiles ProfilesConfig, profile string) float64 {
	base, ok := profiles.Profiles[profile]
	if !ok {
		base = profiles.Profiles[profiles.DefaultProfile]
	}
	return envFloat("MATCH_THRESHOLD", base)
}

func Load() *Config {
	profiles := loadProfiles()
	profile := envString("MATCH_PROFILE", profiles.DefaultProfile)

	return &Config{
		Encoder: EncoderConfig{
			URL:     os.Getenv("ENCODER_URL"),
			Dim:     envInt("ENCODER_DIM", 128),
			Timeout: time.Duration(envInt("ENCODER_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		Match: MatchConfig{
			Threshold: resolveMatchThreshold(profiles, profile),
			Profile:   profile,
		},
		Liveness: LivenessConfig{
			Threshold: envFloat("LIVENESS_THRESHOLD", profiles.Liveness.SharpnessThreshold),
			FailOpen:  envBool("LIVENESS_FAIL_OPEN", true),
		},
		Store: StoreConfig{
			Backend:      envString("STORE_BACKEND", "file"),
			SnapshotPath: envString("SNAPSHOT_PATH", "face_database.json"),
			Timeout:      time.Duration(envInt("STORE_TIMEOUT_SECONDS", 5)) * time.Second,
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Web: WebConfig{
			AllowedOrigins: envString("WEB_ALLOWED_ORIGINS", "*"),
		},
	}
}
