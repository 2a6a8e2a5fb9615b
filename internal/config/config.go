package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"tgcourse/internal/dirs"
	"tgcourse/internal/pipeline"
	"tgcourse/internal/thumb"
)

// Keys.
const (
	KeyBaseDir     = "base_dir"
	KeySessionName = "session_name"
	KeyFFmpeg      = "ffmpeg"
	KeyDelay       = "delay"
	KeyThumbOffset = "thumb_offset"
	KeyLogLevel    = "log_level"
	KeyVerbose     = "verbose"
	KeyNoUI        = "no_ui"
)

// Defaults.
const (
	DefaultSessionName = "user_session"
	DefaultDelay       = pipeline.DefaultDelay
	DefaultThumbOffset = thumb.DefaultOffset
)

// Settings is the resolved runtime configuration shared by all commands.
type Settings struct {
	BaseDir     string
	SessionName string
	FFmpeg      string
	Delay       time.Duration
	ThumbOffset string
	LogLevel    string
	Verbose     bool
	NoUI        bool
}

// SessionPath returns the session file for these settings.
func (s Settings) SessionPath() string {
	return dirs.SessionPath(s.BaseDir, s.SessionName)
}

// flagKeys maps root persistent flag names to viper keys.
var flagKeys = map[string]string{
	"base-dir":     KeyBaseDir,
	"session-name": KeySessionName,
	"ffmpeg":       KeyFFmpeg,
	"delay":        KeyDelay,
	"thumb-offset": KeyThumbOffset,
	"log-level":    KeyLogLevel,
	"verbose":      KeyVerbose,
	"no-ui":        KeyNoUI,
}

// Init wires Viper with config paths, env, defaults, and flag bindings.
// It is non-fatal: a missing config file is ignored.
func Init(root *cobra.Command) error {
	if cfgDir, err := dirs.ConfigDir(); err == nil {
		viper.AddConfigPath(cfgDir)
	}
	viper.SetConfigName("config") // supports config.{yaml|yml|json|toml}

	// Environment variables: TGCOURSE_*
	viper.SetEnvPrefix("TGCOURSE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault(KeySessionName, DefaultSessionName)
	viper.SetDefault(KeyDelay, DefaultDelay)
	viper.SetDefault(KeyThumbOffset, DefaultThumbOffset)
	viper.SetDefault(KeyLogLevel, "info")

	for name, key := range flagKeys {
		if f := root.PersistentFlags().Lookup(name); f != nil {
			if err := viper.BindPFlag(key, f); err != nil {
				return fmt.Errorf("bind --%s: %w", name, err)
			}
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

// Load resolves Settings from the initialised Viper state.
func Load() (Settings, error) {
	base, err := dirs.BaseDir(viper.GetString(KeyBaseDir))
	if err != nil {
		return Settings{}, fmt.Errorf("resolve base dir: %w", err)
	}
	s := Settings{
		BaseDir:     base,
		SessionName: viper.GetString(KeySessionName),
		FFmpeg:      viper.GetString(KeyFFmpeg),
		Delay:       viper.GetDuration(KeyDelay),
		ThumbOffset: viper.GetString(KeyThumbOffset),
		LogLevel:    viper.GetString(KeyLogLevel),
		Verbose:     viper.GetBool(KeyVerbose),
		NoUI:        viper.GetBool(KeyNoUI),
	}
	if s.SessionName == "" {
		s.SessionName = DefaultSessionName
	}
	if s.Delay < 0 {
		return Settings{}, fmt.Errorf("invalid %s: %s", KeyDelay, s.Delay)
	}
	if s.ThumbOffset == "" {
		s.ThumbOffset = DefaultThumbOffset
	}
	return s, nil
}
