// Package core contains the configuration layer for pulse: loading,
// defaulting, and validating the observability settings that drive the
// hub and its sinks.
package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/agentwf/pulse/pkg/models"
)

// ConfigurationManager defines the interface for loading and validating
// configuration from the .pulseconfig file and the environment.
type ConfigurationManager interface {
	LoadGlobalConfig() (*models.GlobalConfig, error)
	ValidateConfig(cfg *models.GlobalConfig) error
}

// viperConfigManager implements ConfigurationManager using Viper for
// reading the YAML configuration file with environment overrides.
type viperConfigManager struct {
	// basePath is the directory where .pulseconfig resides.
	basePath string
}

// NewConfigurationManager creates a ConfigurationManager that reads
// configuration relative to basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

// DefaultGlobalConfig returns a GlobalConfig populated with defaults:
// both local sinks on, notifications enabled but with no destination.
func DefaultGlobalConfig() models.GlobalConfig {
	return models.GlobalConfig{
		Notifications: models.NotificationConfig{
			Enabled: true,
			Slack: models.SlackConfig{
				Username:  "Agent Workflow",
				IconEmoji: ":robot_face:",
			},
		},
		Sinks: models.SinkConfig{
			Console: true,
			File:    true,
		},
		LogDir: filepath.Join(".tmp", "logs"),
	}
}

// envBindings maps viper keys to the environment variables that override
// them. The env names predate the config file and are kept for
// compatibility with existing workflow scripts.
var envBindings = map[string]string{
	"notifications.slack.webhook_url": "SLACK_WEBHOOK_URL",
	"notifications.slack.channel":     "SLACK_CHANNEL",
	"notifications.slack.username":    "SLACK_USERNAME",
	"notifications.slack.icon":        "SLACK_ICON",
	"notifications.enabled":           "SLACK_ENABLED",
	"sinks.console":                   "OBSERVABILITY_CONSOLE",
	"sinks.file":                      "OBSERVABILITY_FILE",
	"log_dir":                         "LOG_DIR",
}

// LoadGlobalConfig reads .pulseconfig from the base path using Viper.
// Environment variables override file values; a missing file yields the
// defaults rather than an error.
func (cm *viperConfigManager) LoadGlobalConfig() (*models.GlobalConfig, error) {
	defaults := DefaultGlobalConfig()

	v := viper.New()
	v.SetConfigName(".pulseconfig")
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)

	v.SetDefault("notifications.enabled", defaults.Notifications.Enabled)
	v.SetDefault("notifications.slack.webhook_url", defaults.Notifications.Slack.WebhookURL)
	v.SetDefault("notifications.slack.channel", defaults.Notifications.Slack.Channel)
	v.SetDefault("notifications.slack.username", defaults.Notifications.Slack.Username)
	v.SetDefault("notifications.slack.icon", defaults.Notifications.Slack.IconEmoji)
	v.SetDefault("sinks.console", defaults.Sinks.Console)
	v.SetDefault("sinks.file", defaults.Sinks.File)
	v.SetDefault("log_dir", defaults.LogDir)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading .pulseconfig: %w", err)
		}
		// No config file found - env and defaults still apply.
	}

	cfg := &models.GlobalConfig{
		Notifications: models.NotificationConfig{
			Enabled: v.GetBool("notifications.enabled"),
			Slack: models.SlackConfig{
				WebhookURL: v.GetString("notifications.slack.webhook_url"),
				Channel:    v.GetString("notifications.slack.channel"),
				Username:   v.GetString("notifications.slack.username"),
				IconEmoji:  v.GetString("notifications.slack.icon"),
			},
		},
		Sinks: models.SinkConfig{
			Console: v.GetBool("sinks.console"),
			File:    v.GetBool("sinks.file"),
		},
		LogDir: v.GetString("log_dir"),
	}

	return cfg, nil
}

// ValidateConfig checks the provided configuration for invalid values
// and returns a clear error message identifying each problem.
func (cm *viperConfigManager) ValidateConfig(cfg *models.GlobalConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var errs []string

	if cfg.Sinks.File && cfg.LogDir == "" {
		errs = append(errs, "log_dir must not be empty when the file sink is enabled")
	}

	if url := cfg.Notifications.Slack.WebhookURL; url != "" &&
		!strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		errs = append(errs, fmt.Sprintf(
			"notifications.slack.webhook_url %q is invalid, must be an http(s) URL", url))
	}

	if cfg.Notifications.Slack.Username == "" {
		errs = append(errs, "notifications.slack.username must not be empty")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// ResolveBasePath determines where .pulseconfig lives: the PULSE_HOME
// env var if set, otherwise the nearest ancestor of the working
// directory containing a .pulseconfig, otherwise the working directory.
func ResolveBasePath() string {
	if home := os.Getenv("PULSE_HOME"); home != "" {
		return home
	}

	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, ".pulseconfig")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	cwd, _ := os.Getwd()
	return cwd
}
