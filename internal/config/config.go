package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config top-level struct
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Twilio    TwilioConfig    `yaml:"twilio"`
	Sendgrid  SendgridConfig  `yaml:"sendgrid"`
	Notifier  NotifierConfig  `yaml:"notifier"`
	RateLimit RateLimitConfig `yaml:"ratelimit"`
	LogLevel  string          `yaml:"log_level"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// KafkaConfig points at the topic the mobile push relay consumes.
type KafkaConfig struct {
	Brokers   []string `yaml:"brokers"`
	PushTopic string   `yaml:"push_topic"`
}

type TwilioConfig struct {
	AccountSID string `yaml:"account_sid"`
	AuthToken  string `yaml:"auth_token"`
	FromNumber string `yaml:"from_number"`
}

type SendgridConfig struct {
	APIKey    string `yaml:"api_key"`
	FromEmail string `yaml:"from_email"`
	FromName  string `yaml:"from_name"`
}

// Duration wraps time.Duration so yaml values like "5s" decode.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the plain time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// NotifierConfig tunes the queue-draining engine.
type NotifierConfig struct {
	DrainInterval    Duration `yaml:"drain_interval"`
	ReminderInterval Duration `yaml:"reminder_interval"`
	ReminderLead     Duration `yaml:"reminder_lead"`
	BatchSize        int      `yaml:"batch_size"`
	SendTimeout      Duration `yaml:"send_timeout"`
	DeliverOnMerge   *bool    `yaml:"deliver_on_merge"`
	PublicBaseURL    string   `yaml:"public_base_url"`
}

// DeliverOnMergeEnabled defaults to true when the flag is absent.
func (n NotifierConfig) DeliverOnMergeEnabled() bool {
	if n.DeliverOnMerge == nil {
		return true
	}
	return *n.DeliverOnMerge
}

type RateLimitConfig struct {
	PushRPS   int `yaml:"push_rps"`
	PushBurst int `yaml:"push_burst"`
	HTTPRPS   int `yaml:"http_rps"`
	HTTPBurst int `yaml:"http_burst"`
}

// Load reads yaml file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	// secrets come from the environment when present
	if pw := os.Getenv("POSTGRES_PASSWORD"); pw != "" {
		cfg.Postgres.DSN = cfg.Postgres.DSN + " password=" + pw
	}
	if tok := os.Getenv("TWILIO_AUTH_TOKEN"); tok != "" {
		cfg.Twilio.AuthToken = tok
	}
	if key := os.Getenv("SENDGRID_API_KEY"); key != "" {
		cfg.Sendgrid.APIKey = key
	}

	if cfg.Notifier.DrainInterval == 0 {
		cfg.Notifier.DrainInterval = Duration(5 * time.Second)
	}
	if cfg.Notifier.ReminderInterval == 0 {
		cfg.Notifier.ReminderInterval = Duration(time.Hour)
	}
	if cfg.Notifier.ReminderLead == 0 {
		cfg.Notifier.ReminderLead = Duration(time.Hour)
	}
	if cfg.Notifier.BatchSize == 0 {
		cfg.Notifier.BatchSize = 100
	}
	if cfg.Notifier.SendTimeout == 0 {
		cfg.Notifier.SendTimeout = Duration(10 * time.Second)
	}
	return &cfg, nil
}
