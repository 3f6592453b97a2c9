package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		App: AppConfig{Env: "local", Port: 3000},
		Twilio: TwilioConfig{
			AccountSID: "AC_test",
			AuthToken:  "secret",
			FromNumber: "+15550000001",
		},
	}
}

func TestValidate_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	err := c.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, key := range []string{"APP_ENV", "TWILIO_ACCOUNT_SID", "TWILIO_AUTH_TOKEN", "TWILIO_PHONE_NUMBER"} {
		if !strings.Contains(err.Error(), key) {
			t.Fatalf("expected %s in error, got: %v", key, err)
		}
	}
}

func TestValidate_AppliesDefaults(t *testing.T) {
	c := validConfig()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.Scheduler.Timezone != "UTC" {
		t.Fatalf("expected UTC default, got %q", c.Scheduler.Timezone)
	}
	if c.Scheduler.RetentionCap != 100 {
		t.Fatalf("expected retention cap 100, got %d", c.Scheduler.RetentionCap)
	}
	if c.Twilio.Timeout != 15*time.Second {
		t.Fatalf("expected 15s gateway timeout, got %v", c.Twilio.Timeout)
	}
	if c.Twilio.RateLimitRPS != 1 {
		t.Fatalf("expected 1 rps default, got %v", c.Twilio.RateLimitRPS)
	}
}

func TestValidate_RejectsBadTimezone(t *testing.T) {
	c := validConfig()
	c.Scheduler.Timezone = "Mars/Olympus_Mons"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for unknown timezone")
	}
}

func TestValidate_RejectsNonE164FromNumber(t *testing.T) {
	c := validConfig()
	c.Twilio.FromNumber = "5550000001"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for non-E.164 from number")
	}
}

func TestLocation(t *testing.T) {
	c := validConfig()
	c.Scheduler.Timezone = "America/New_York"
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := c.Location().String(); got != "America/New_York" {
		t.Fatalf("expected America/New_York, got %q", got)
	}
}

func TestHTTPAddr(t *testing.T) {
	c := validConfig()
	if got := c.HTTPAddr(); got != ":3000" {
		t.Fatalf("expected :3000, got %q", got)
	}
}
