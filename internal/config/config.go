// internal/config/config.go
package config

import (
    "fmt"
    "os"
    "time"

    "github.com/joho/godotenv"
    "gopkg.in/yaml.v3"
)

type Config struct {
    Server struct {
        Addr string `yaml:"addr"`
    } `yaml:"server"`
    Outreach struct {
        DailyLimit      int    `yaml:"daily_limit"`
        DenyCooldownDays int   `yaml:"deny_cooldown_days"`
        MorningSendHour int    `yaml:"morning_send_hour"`
        DefaultTimezone string `yaml:"default_timezone"`
    } `yaml:"outreach"`
    Scheduler struct {
        PollInterval string `yaml:"poll_interval"`
        BatchSize    int    `yaml:"batch_size"`
    } `yaml:"scheduler"`
    Dispatch struct {
        SSHUser        string `yaml:"ssh_user"`
        SSHHost        string `yaml:"ssh_host"`
        TimeoutSeconds int    `yaml:"timeout_seconds"`
    } `yaml:"dispatch"`
    Queue struct {
        RabbitMQURL string `yaml:"rabbitmq_url"`
        Name        string `yaml:"name"`
    } `yaml:"queue"`
}

// Load reads config.yaml (path from OUTREACH_CONFIG or the given fallback)
// after loading .env, then applies defaults and env overrides. A missing file
// is fine: everything has a default.
func Load(path string) (*Config, error) {
    _ = godotenv.Load()

    if env := os.Getenv("OUTREACH_CONFIG"); env != "" {
        path = env
    }

    cfg := &Config{}
    if data, err := os.ReadFile(path); err == nil {
        if err := yaml.Unmarshal(data, cfg); err != nil {
            return nil, fmt.Errorf("parse %s: %w", path, err)
        }
    } else if !os.IsNotExist(err) {
        return nil, fmt.Errorf("read %s: %w", path, err)
    }

    cfg.applyDefaults()

    if url := os.Getenv("RABBITMQ_URL"); url != "" {
        cfg.Queue.RabbitMQURL = url
    }
    if host := os.Getenv("DISPATCH_SSH_HOST"); host != "" {
        cfg.Dispatch.SSHHost = host
    }
    if user := os.Getenv("DISPATCH_SSH_USER"); user != "" {
        cfg.Dispatch.SSHUser = user
    }

    return cfg, nil
}

func (c *Config) applyDefaults() {
    if c.Server.Addr == "" {
        c.Server.Addr = ":8080"
    }
    if c.Outreach.DailyLimit <= 0 {
        c.Outreach.DailyLimit = 5
    }
    if c.Outreach.DenyCooldownDays <= 0 {
        c.Outreach.DenyCooldownDays = 7
    }
    if c.Outreach.MorningSendHour <= 0 || c.Outreach.MorningSendHour > 23 {
        c.Outreach.MorningSendHour = 9
    }
    if c.Outreach.DefaultTimezone == "" {
        c.Outreach.DefaultTimezone = "America/Los_Angeles"
    }
    if c.Scheduler.PollInterval == "" {
        c.Scheduler.PollInterval = "1m"
    }
    if c.Scheduler.BatchSize <= 0 {
        c.Scheduler.BatchSize = 10
    }
    if c.Dispatch.TimeoutSeconds <= 0 {
        c.Dispatch.TimeoutSeconds = 30
    }
    if c.Queue.Name == "" {
        c.Queue.Name = "outreach_sends"
    }
}

// PollInterval parses the scheduler cadence, falling back to a minute if the
// config value is unparseable.
func (c *Config) PollInterval() time.Duration {
    d, err := time.ParseDuration(c.Scheduler.PollInterval)
    if err != nil || d <= 0 {
        return time.Minute
    }
    return d
}
