package models

// SlackConfig holds the outbound notification channel settings.
type SlackConfig struct {
	WebhookURL string `yaml:"webhook_url,omitempty" mapstructure:"webhook_url"`
	Channel    string `yaml:"channel,omitempty" mapstructure:"channel"`
	Username   string `yaml:"username" mapstructure:"username"`
	IconEmoji  string `yaml:"icon" mapstructure:"icon"`
}

// NotificationConfig groups notification settings from .pulseconfig.
type NotificationConfig struct {
	Enabled bool        `yaml:"enabled" mapstructure:"enabled"`
	Slack   SlackConfig `yaml:"slack" mapstructure:"slack"`
}

// SinkConfig toggles the unconditional event sinks.
type SinkConfig struct {
	Console bool `yaml:"console" mapstructure:"console"`
	File    bool `yaml:"file" mapstructure:"file"`
}

// GlobalConfig holds system-wide settings read from .pulseconfig via
// Viper, with environment variables taking precedence.
type GlobalConfig struct {
	Notifications NotificationConfig `yaml:"notifications" mapstructure:"notifications"`
	Sinks         SinkConfig         `yaml:"sinks" mapstructure:"sinks"`
	LogDir        string             `yaml:"log_dir" mapstructure:"log_dir"`
}
