package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration required by the API process.
// All values come from env (or an env-file loaded at startup).
// No business logic should depend on raw environment variables.
type Config struct {
	App       AppConfig
	Twilio    TwilioConfig
	Scheduler SchedulerConfig
}

type AppConfig struct {
	Env  string
	Port int
}

type TwilioConfig struct {
	AccountSID string
	AuthToken  string

	// FromNumber is the caller id presented on every escape call (E.164).
	FromNumber string

	// Timeout bounds each provider API request.
	Timeout time.Duration

	// RateLimitRPS caps outbound provider requests per second.
	RateLimitRPS float64
}

type SchedulerConfig struct {
	// DefaultMessage is spoken when a call request carries no message.
	// Empty means the built-in default.
	DefaultMessage string

	// Timezone is the IANA zone for the periodic history prune.
	Timezone string

	// RetentionCap bounds terminal history entries kept before pruning.
	RetentionCap int
}

func Load() (Config, error) {
	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	{
		n, err := mustInt("APP_PORT")
		if err != nil {
			parseErrs = append(parseErrs, err)
		}
		c.App.Port = n
	}

	c.Twilio.AccountSID = strings.TrimSpace(os.Getenv("TWILIO_ACCOUNT_SID"))
	c.Twilio.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	c.Twilio.FromNumber = strings.TrimSpace(os.Getenv("TWILIO_PHONE_NUMBER"))
	c.Twilio.Timeout = optDuration("GATEWAY_TIMEOUT")
	{
		f, err := optFloat("GATEWAY_RATE_LIMIT_RPS")
		if err != nil {
			parseErrs = append(parseErrs, err)
		}
		c.Twilio.RateLimitRPS = f
	}

	c.Scheduler.DefaultMessage = strings.TrimSpace(os.Getenv("DEFAULT_MESSAGE"))
	c.Scheduler.Timezone = strings.TrimSpace(os.Getenv("SCHEDULER_TZ"))
	{
		n, err := optInt("HISTORY_RETENTION")
		if err != nil {
			parseErrs = append(parseErrs, err)
		}
		c.Scheduler.RetentionCap = n
	}

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks required values and applies defaults for optional ones.
func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}

	if c.Twilio.AccountSID == "" {
		errs = append(errs, errors.New("TWILIO_ACCOUNT_SID is required"))
	}
	if c.Twilio.AuthToken == "" {
		errs = append(errs, errors.New("TWILIO_AUTH_TOKEN is required"))
	}
	if c.Twilio.FromNumber == "" {
		errs = append(errs, errors.New("TWILIO_PHONE_NUMBER is required"))
	} else if !strings.HasPrefix(c.Twilio.FromNumber, "+") {
		errs = append(errs, fmt.Errorf("TWILIO_PHONE_NUMBER must be E.164, got %q", c.Twilio.FromNumber))
	}
	if c.Twilio.Timeout <= 0 {
		c.Twilio.Timeout = 15 * time.Second
	}
	if c.Twilio.RateLimitRPS < 0 {
		errs = append(errs, fmt.Errorf("GATEWAY_RATE_LIMIT_RPS must be positive, got %v", c.Twilio.RateLimitRPS))
	} else if c.Twilio.RateLimitRPS == 0 {
		c.Twilio.RateLimitRPS = 1
	}

	if c.Scheduler.Timezone == "" {
		c.Scheduler.Timezone = "UTC"
	}
	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("SCHEDULER_TZ must be an IANA timezone, got %q", c.Scheduler.Timezone))
	}
	if c.Scheduler.RetentionCap < 0 {
		errs = append(errs, fmt.Errorf("HISTORY_RETENTION must be positive, got %d", c.Scheduler.RetentionCap))
	} else if c.Scheduler.RetentionCap == 0 {
		c.Scheduler.RetentionCap = 100
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

// Location resolves the scheduler timezone. Call after Validate.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func mustInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func optInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func optFloat(key string) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number, got %q", key, v)
	}
	return f, nil
}

func optDuration(key string) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0
	}
	return d
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
