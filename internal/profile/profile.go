package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

const (
	DefaultTimezone          = "Asia/Kolkata"
	DefaultBusinessOpenHour  = 9
	DefaultBusinessCloseHour = 18
	DefaultDurationMinutes   = 30
	DefaultSessionTTL        = 30 * time.Minute
	DefaultRateLimitRPS      = 10
	DefaultRateLimitBurst    = 20
)

// Profile is the configuration to start main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string `validate:"oneof=prod dev demo"`
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int `validate:"gte=0,lte=65535"`
	// Data is the data directory
	Data string
	// DSN points to where slotdesk stores its own data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string `validate:"oneof=sqlite postgres"`
	// Version is the current version of server
	Version string

	// Scheduling
	Timezone               string `validate:"required,timezone"`
	BusinessOpenHour       int    `validate:"gte=0,lte=23"`
	BusinessCloseHour      int    `validate:"gtfield=BusinessOpenHour,lte=24"`
	DefaultDurationMinutes int    `validate:"gte=1,lte=1440"`

	// Calendar collaborator
	CalendarBackend         string `validate:"oneof=memory store google"`
	GoogleCredentialsBase64 string `validate:"required_if=CalendarBackend google"`
	GoogleCalendarID        string `validate:"required_if=CalendarBackend google"`

	// Conversation sessions
	SessionBackend       string        `validate:"oneof=memory store redis"`
	SessionTTL           time.Duration `validate:"gte=0"`
	SessionRetentionDays int           `validate:"gte=0"`
	RedisAddr            string        `validate:"required_if=SessionBackend redis"`
	RedisPassword        string
	RedisDB              int `validate:"gte=0,lte=15"`

	// Transport
	RateLimitRPS   float64 `validate:"gte=0"`
	RateLimitBurst int     `validate:"gte=0"`

	// Optional model fallback for intents the rules leave unknown
	IntentLLMEnabled bool
	IntentLLMAPIKey  string `validate:"required_if=IntentLLMEnabled true"`
	IntentLLMBaseURL string `validate:"omitempty,url"`
	IntentLLMModel   string
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// FromEnv fills unset fields from SLOTDESK_* environment variables.
func (p *Profile) FromEnv() {
	setString := func(dst *string, key string) {
		if *dst == "" {
			*dst = os.Getenv("SLOTDESK_" + key)
		}
	}
	setInt := func(dst *int, key string) {
		if *dst != 0 {
			return
		}
		if v, err := strconv.Atoi(os.Getenv("SLOTDESK_" + key)); err == nil {
			*dst = v
		}
	}

	setString(&p.Timezone, "TIMEZONE")
	setInt(&p.BusinessOpenHour, "BUSINESS_OPEN_HOUR")
	setInt(&p.BusinessCloseHour, "BUSINESS_CLOSE_HOUR")
	setInt(&p.DefaultDurationMinutes, "DEFAULT_DURATION_MINUTES")

	setString(&p.CalendarBackend, "CALENDAR_BACKEND")
	setString(&p.GoogleCredentialsBase64, "GOOGLE_CREDENTIALS_BASE64")
	setString(&p.GoogleCalendarID, "GOOGLE_CALENDAR_ID")

	setString(&p.SessionBackend, "SESSION_BACKEND")
	if p.SessionTTL == 0 {
		if v, err := time.ParseDuration(os.Getenv("SLOTDESK_SESSION_TTL")); err == nil {
			p.SessionTTL = v
		}
	}
	setInt(&p.SessionRetentionDays, "SESSION_RETENTION_DAYS")
	setString(&p.RedisAddr, "REDIS_ADDR")
	setString(&p.RedisPassword, "REDIS_PASSWORD")
	setInt(&p.RedisDB, "REDIS_DB")

	if p.RateLimitRPS == 0 {
		if v, err := strconv.ParseFloat(os.Getenv("SLOTDESK_RATE_LIMIT_RPS"), 64); err == nil {
			p.RateLimitRPS = v
		}
	}
	setInt(&p.RateLimitBurst, "RATE_LIMIT_BURST")

	if !p.IntentLLMEnabled {
		p.IntentLLMEnabled = os.Getenv("SLOTDESK_INTENT_LLM_ENABLED") == "true"
	}
	setString(&p.IntentLLMAPIKey, "INTENT_LLM_API_KEY")
	setString(&p.IntentLLMBaseURL, "INTENT_LLM_BASE_URL")
	setString(&p.IntentLLMModel, "INTENT_LLM_MODEL")
}

// applyDefaults fills zero values. Business hours are defaulted as a pair.
func (p *Profile) applyDefaults() {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}
	if p.Driver == "" {
		p.Driver = "sqlite"
	}
	if p.Timezone == "" {
		p.Timezone = DefaultTimezone
	}
	if p.BusinessOpenHour == 0 && p.BusinessCloseHour == 0 {
		p.BusinessOpenHour = DefaultBusinessOpenHour
		p.BusinessCloseHour = DefaultBusinessCloseHour
	}
	if p.DefaultDurationMinutes == 0 {
		p.DefaultDurationMinutes = DefaultDurationMinutes
	}
	if p.CalendarBackend == "" {
		p.CalendarBackend = "store"
	}
	if p.SessionBackend == "" {
		p.SessionBackend = "store"
	}
	if p.SessionTTL == 0 {
		p.SessionTTL = DefaultSessionTTL
	}
	if p.RateLimitRPS == 0 {
		p.RateLimitRPS = DefaultRateLimitRPS
	}
	if p.RateLimitBurst == 0 {
		p.RateLimitBurst = DefaultRateLimitBurst
	}
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate applies defaults, checks field constraints and resolves the data directory.
func (p *Profile) Validate() error {
	p.applyDefaults()

	if err := validate.Struct(p); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return errors.Errorf("invalid profile field %s: failed %q (value %v)", fe.Field(), fe.Tag(), fe.Value())
		}
		return errors.Wrap(err, "invalid profile")
	}

	if p.Mode == "prod" && p.Data == "" {
		p.Data = "/var/opt/slotdesk"
	}
	if p.Data == "" {
		p.Data = "."
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check dsn", slog.String("data", dataDir), slog.String("error", err.Error()))
		return err
	}

	p.Data = dataDir
	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("slotdesk_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}
	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("postgres driver requires a DSN")
	}
	return nil
}
