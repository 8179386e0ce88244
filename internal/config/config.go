// Package config loads speakwave settings from defaults, an optional YAML
// file, a .env file and the environment, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ConfigPathEnv names the YAML file when no path is passed to Load.
const ConfigPathEnv = "SPEAKWAVE_CONFIG"

// Config holds all application configuration.
type Config struct {
	// HTTP settings
	HTTPHost    string `yaml:"http_host"`
	HTTPPort    int    `yaml:"http_port"`
	BearerToken string `yaml:"bearer_token"`

	// TTS settings
	TTSEngine    string `yaml:"tts_engine"`
	PiperPath    string `yaml:"piper_path"`
	PiperModel   string `yaml:"piper_model"`
	EspeakPath   string `yaml:"espeak_path"`
	DefaultVoice string `yaml:"default_voice"`

	// Form defaults
	DefaultRate   int    `yaml:"default_rate"`
	DefaultVolume int    `yaml:"default_volume"`
	DefaultPitch  int    `yaml:"default_pitch"`
	DefaultFormat string `yaml:"default_format"`

	// Output settings
	OutputDir  string `yaml:"output_dir"`
	FFmpegPath string `yaml:"ffmpeg_path"`
	Player     string `yaml:"player"`
	// TempDir holds synthesis and preview scratch files. Empty means os.TempDir.
	TempDir string `yaml:"temp_dir"`

	// Behavior settings
	WelcomeText      string        `yaml:"welcome_text"`
	MaxTextLength    int           `yaml:"max_text_length"`
	SynthesisTimeout time.Duration `yaml:"synthesis_timeout"`

	// Logging settings
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		HTTPHost:         "127.0.0.1",
		HTTPPort:         8080,
		TTSEngine:        "",
		PiperPath:        "piper",
		DefaultRate:      200,
		DefaultVolume:    10,
		DefaultPitch:     100,
		DefaultFormat:    "mp3",
		OutputDir:        ".",
		Player:           "auto",
		WelcomeText:      "Welcome to the text to speech converter.",
		MaxTextLength:    5000,
		SynthesisTimeout: 60 * time.Second,
		LogLevel:         "info",
		LogFormat:        "text",
	}
}

// Load reads configuration. path names a YAML file; when empty the
// SPEAKWAVE_CONFIG variable is consulted. A .env file in the working
// directory is loaded if present; it never overrides the real environment.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()

	if path == "" {
		path = os.Getenv(ConfigPathEnv)
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.HTTPHost = getEnvStringAllowEmpty("HTTP_HOST", c.HTTPHost)
	c.HTTPPort = getEnvInt("HTTP_PORT", c.HTTPPort)
	c.BearerToken = getEnvString("BEARER_TOKEN", c.BearerToken)

	c.TTSEngine = getEnvString("TTS_ENGINE", c.TTSEngine)
	c.PiperPath = getEnvString("PIPER_PATH", c.PiperPath)
	c.PiperModel = getEnvString("PIPER_MODEL", c.PiperModel)
	c.EspeakPath = getEnvString("ESPEAK_PATH", c.EspeakPath)
	c.DefaultVoice = getEnvString("DEFAULT_VOICE", c.DefaultVoice)

	c.DefaultRate = getEnvInt("DEFAULT_RATE", c.DefaultRate)
	c.DefaultVolume = getEnvInt("DEFAULT_VOLUME", c.DefaultVolume)
	c.DefaultPitch = getEnvInt("DEFAULT_PITCH", c.DefaultPitch)
	c.DefaultFormat = getEnvString("DEFAULT_FORMAT", c.DefaultFormat)

	c.OutputDir = getEnvString("OUTPUT_DIR", c.OutputDir)
	c.FFmpegPath = getEnvString("FFMPEG_PATH", c.FFmpegPath)
	c.Player = getEnvString("PLAYER", c.Player)
	c.TempDir = getEnvString("TEMP_DIR", c.TempDir)

	c.WelcomeText = getEnvStringAllowEmpty("WELCOME_TEXT", c.WelcomeText)
	c.MaxTextLength = getEnvInt("MAX_TEXT_LENGTH", c.MaxTextLength)
	c.SynthesisTimeout = getEnvDuration("SYNTHESIS_TIMEOUT", c.SynthesisTimeout)

	c.LogLevel = getEnvString("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnvString("LOG_FORMAT", c.LogFormat)
}

// ListenAddr is the host:port the API binds. An empty HTTP_HOST listens
// on every interface.
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.HTTPHost, strconv.Itoa(c.HTTPPort))
}

// AuthDisabled returns true if bearer token authentication is disabled.
func (c *Config) AuthDisabled() bool {
	return c.BearerToken == ""
}

// Validate checks that configuration values are in range.
func (c *Config) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return errors.New("HTTP_PORT must be between 1 and 65535")
	}

	if c.MaxTextLength < 1 {
		return errors.New("MAX_TEXT_LENGTH must be at least 1")
	}

	if c.SynthesisTimeout < 0 {
		return errors.New("SYNTHESIS_TIMEOUT must be non-negative")
	}

	validEngines := map[string]bool{"": true, "espeak": true, "say": true, "sapi": true, "piper": true}
	if !validEngines[c.TTSEngine] {
		return errors.New("TTS_ENGINE must be one of: espeak, say, sapi, piper")
	}

	if c.TTSEngine == "piper" && c.PiperModel == "" {
		return errors.New("PIPER_MODEL is required when TTS_ENGINE is piper")
	}

	if c.DefaultRate < 100 || c.DefaultRate > 300 {
		return errors.New("DEFAULT_RATE must be between 100 and 300")
	}

	if c.DefaultVolume < 0 || c.DefaultVolume > 10 {
		return errors.New("DEFAULT_VOLUME must be between 0 and 10")
	}

	if c.DefaultPitch < 50 || c.DefaultPitch > 200 {
		return errors.New("DEFAULT_PITCH must be between 50 and 200")
	}

	validFormats := map[string]bool{"mp3": true, "wav": true}
	if !validFormats[strings.ToLower(c.DefaultFormat)] {
		return errors.New("DEFAULT_FORMAT must be one of: mp3, wav")
	}

	validPlayers := map[string]bool{"auto": true, "none": true, "native": true, "afplay": true, "aplay": true, "paplay": true}
	if !validPlayers[c.Player] {
		return errors.New("PLAYER must be one of: auto, none, native, afplay, aplay, paplay")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.LogLevel] {
		return errors.New("LOG_LEVEL must be one of: debug, info, warn, error")
	}

	validLogFormats := map[string]bool{"text": true, "json": true}
	if !validLogFormats[c.LogFormat] {
		return errors.New("LOG_FORMAT must be one of: text, json")
	}

	return nil
}

// getEnvString returns the environment variable value or a default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvStringAllowEmpty treats a set but empty variable as a value.
func getEnvStringAllowEmpty(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as an int or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns the environment variable as a duration or a default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
