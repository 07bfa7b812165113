// Package config defines the configuration contract and handles loading and
// validating environment configuration.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// Canonical environment variable keys.
	KeyTelegramToken     = "TELEGRAM_TOKEN"
	KeyAdminID           = "ADMIN_ID"
	KeyChannelID         = "CHANNEL_ID"
	KeyChannelLink       = "CHANNEL_LINK"
	KeyRegisterURL       = "REGISTER_URL"
	KeyDepositURL        = "DEPOSIT_URL"
	KeyMongoURI          = "MONGO_URI"
	KeyMongoDB           = "MONGO_DB"
	KeyAppEnv            = "APP_ENV"
	KeyLogLevel          = "LOG_LEVEL"
	KeyHTTPPort          = "HTTP_PORT"
	KeyTimezone          = "BOT_TIMEZONE"
	KeySignupBonus       = "SIGNUP_BONUS"
	KeyInviteBonus       = "INVITE_BONUS"
	KeyChannelMinMembers = "CHANNEL_MIN_MEMBERS"

	// Allowed environment values.
	EnvDevelopment = "development"
	EnvProduction  = "production"

	// Defaults for optional settings.
	DefaultAppEnv            = EnvProduction
	DefaultLogLevel          = "info"
	DefaultHTTPPort          = 8080
	DefaultTimezone          = "Africa/Maputo"
	DefaultSignupBonus       = 20
	DefaultInviteBonus       = 4
	DefaultChannelMinMembers = 20
	DefaultRegisterURL       = "https://receber.netlify.app/register"
	DefaultDepositURL        = "https://receber.netlify.app/deposit"
)

// VarSpec describes a single configuration key.
type VarSpec struct {
	Key         string // environment variable name
	Example     string // human-friendly sample value
	Required    bool   // whether the bot must refuse to start without this value
	Default     string // default when unset (empty when required)
	Description string // what the variable controls
}

// Contract enumerates the authoritative configuration keys for the bot.
// .env loading is only permitted when APP_ENV=development; production must
// rely on environment variables supplied by the runtime.
var Contract = []VarSpec{
	{
		Key:         KeyTelegramToken,
		Example:     "123:ABC",
		Required:    true,
		Description: "Telegram Bot Token issued by BotFather.",
	},
	{
		Key:         KeyAdminID,
		Example:     "123456789",
		Required:    true,
		Description: "Telegram user_id with admin privileges.",
	},
	{
		Key:         KeyChannelID,
		Example:     "-1001234567890",
		Required:    true,
		Description: "Primary broadcast channel chat_id.",
	},
	{
		Key:         KeyChannelLink,
		Example:     "https://t.me/signals_channel",
		Required:    true,
		Description: "Invite link shown to users who have not joined the primary channel.",
	},
	{
		Key:         KeyRegisterURL,
		Example:     DefaultRegisterURL,
		Default:     DefaultRegisterURL,
		Description: "External account registration page.",
	},
	{
		Key:         KeyDepositURL,
		Example:     DefaultDepositURL,
		Default:     DefaultDepositURL,
		Description: "External deposit page.",
	},
	{
		Key:         KeyMongoURI,
		Example:     "mongodb://localhost:27017",
		Required:    true,
		Description: "MongoDB connection string.",
	},
	{
		Key:         KeyMongoDB,
		Example:     "signals_bot",
		Required:    true,
		Description: "MongoDB database name.",
	},
	{
		Key:         KeyAppEnv,
		Example:     EnvDevelopment + " / " + EnvProduction,
		Default:     DefaultAppEnv,
		Description: "Runtime environment; controls log format and dotenv usage.",
	},
	{
		Key:         KeyLogLevel,
		Example:     DefaultLogLevel,
		Default:     DefaultLogLevel,
		Description: "Overrides default log level.",
	},
	{
		Key:         KeyHTTPPort,
		Example:     strconv.Itoa(DefaultHTTPPort),
		Default:     strconv.Itoa(DefaultHTTPPort),
		Description: "HTTP health/diagnostics port.",
	},
	{
		Key:         KeyTimezone,
		Example:     DefaultTimezone,
		Default:     DefaultTimezone,
		Description: "IANA timezone used for game operating windows.",
	},
	{
		Key:         KeySignupBonus,
		Example:     strconv.Itoa(DefaultSignupBonus),
		Default:     strconv.Itoa(DefaultSignupBonus),
		Description: "Credits granted to a user on completed onboarding.",
	},
	{
		Key:         KeyInviteBonus,
		Example:     strconv.Itoa(DefaultInviteBonus),
		Default:     strconv.Itoa(DefaultInviteBonus),
		Description: "Credits granted to an inviter per referred user.",
	},
	{
		Key:         KeyChannelMinMembers,
		Example:     strconv.Itoa(DefaultChannelMinMembers),
		Default:     strconv.Itoa(DefaultChannelMinMembers),
		Description: "Member count at which a registered channel auto-activates.",
	},
}

// Config mirrors resolved configuration values after loading.
type Config struct {
	TelegramToken     string
	AdminID           int64
	ChannelID         int64
	ChannelLink       string
	RegisterURL       string
	DepositURL        string
	MongoURI          string
	MongoDB           string
	AppEnv            string
	LogLevel          string
	HTTPPort          int
	Timezone          *time.Location
	SignupBonus       int
	InviteBonus       int
	ChannelMinMembers int
}

// Load resolves configuration from the environment (with optional dotenv in
// development).
func Load() (Config, error) {
	appEnv, err := resolveAppEnv()
	if err != nil {
		return Config{}, err
	}

	if err := loadDotEnv(appEnv); err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:            firstNonEmpty(normalizeEnv(os.Getenv(KeyAppEnv)), appEnv),
		TelegramToken:     strings.TrimSpace(os.Getenv(KeyTelegramToken)),
		ChannelLink:       strings.TrimSpace(os.Getenv(KeyChannelLink)),
		RegisterURL:       firstNonEmpty(strings.TrimSpace(os.Getenv(KeyRegisterURL)), DefaultRegisterURL),
		DepositURL:        firstNonEmpty(strings.TrimSpace(os.Getenv(KeyDepositURL)), DefaultDepositURL),
		MongoURI:          strings.TrimSpace(os.Getenv(KeyMongoURI)),
		MongoDB:           strings.TrimSpace(os.Getenv(KeyMongoDB)),
		LogLevel:          firstNonEmpty(strings.TrimSpace(os.Getenv(KeyLogLevel)), DefaultLogLevel),
		HTTPPort:          DefaultHTTPPort,
		SignupBonus:       DefaultSignupBonus,
		InviteBonus:       DefaultInviteBonus,
		ChannelMinMembers: DefaultChannelMinMembers,
	}

	if err := validateAppEnv(cfg.AppEnv); err != nil {
		return Config{}, err
	}

	missing := make([]string, 0)

	if cfg.TelegramToken == "" {
		missing = append(missing, KeyTelegramToken)
	}
	if cfg.ChannelLink == "" {
		missing = append(missing, KeyChannelLink)
	}
	if cfg.MongoURI == "" {
		missing = append(missing, KeyMongoURI)
	} else if !strings.HasPrefix(cfg.MongoURI, "mongodb://") && !strings.HasPrefix(cfg.MongoURI, "mongodb+srv://") {
		return Config{}, fmt.Errorf("invalid %s: must start with mongodb:// or mongodb+srv://", KeyMongoURI)
	}
	if cfg.MongoDB == "" {
		missing = append(missing, KeyMongoDB)
	}

	adminRaw := strings.TrimSpace(os.Getenv(KeyAdminID))
	if adminRaw == "" {
		missing = append(missing, KeyAdminID)
	} else {
		adminID, parseErr := strconv.ParseInt(adminRaw, 10, 64)
		if parseErr != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", KeyAdminID, parseErr)
		}
		cfg.AdminID = adminID
	}

	channelRaw := strings.TrimSpace(os.Getenv(KeyChannelID))
	if channelRaw == "" {
		missing = append(missing, KeyChannelID)
	} else {
		channelID, parseErr := strconv.ParseInt(channelRaw, 10, 64)
		if parseErr != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", KeyChannelID, parseErr)
		}
		cfg.ChannelID = channelID
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variable(s): %s", strings.Join(missing, ", "))
	}

	if cfg.HTTPPort, err = intSetting(KeyHTTPPort, DefaultHTTPPort, 1); err != nil {
		return Config{}, err
	}
	if cfg.SignupBonus, err = intSetting(KeySignupBonus, DefaultSignupBonus, 0); err != nil {
		return Config{}, err
	}
	if cfg.InviteBonus, err = intSetting(KeyInviteBonus, DefaultInviteBonus, 0); err != nil {
		return Config{}, err
	}
	if cfg.ChannelMinMembers, err = intSetting(KeyChannelMinMembers, DefaultChannelMinMembers, 1); err != nil {
		return Config{}, err
	}

	tzName := firstNonEmpty(strings.TrimSpace(os.Getenv(KeyTimezone)), DefaultTimezone)
	loc, tzErr := time.LoadLocation(tzName)
	if tzErr != nil {
		return Config{}, fmt.Errorf("invalid %s: %w", KeyTimezone, tzErr)
	}
	cfg.Timezone = loc

	return cfg, nil
}

// IsDevelopment reports if APP_ENV is development.
func (c Config) IsDevelopment() bool {
	return c.AppEnv == EnvDevelopment
}

// FormatRedacted renders a config summary safe for startup logs: the token is
// masked and Mongo URI credentials are stripped.
func FormatRedacted(cfg Config) string {
	token := cfg.TelegramToken
	if len(token) > 4 {
		token = token[:4] + "...redacted"
	} else if token != "" {
		token = "...redacted"
	}

	tz := ""
	if cfg.Timezone != nil {
		tz = cfg.Timezone.String()
	}

	lines := []string{
		"app_env: " + cfg.AppEnv,
		"telegram_token: " + token,
		fmt.Sprintf("admin_id: %d", cfg.AdminID),
		fmt.Sprintf("channel_id: %d", cfg.ChannelID),
		"mongo_uri: " + redactMongoURI(cfg.MongoURI),
		"mongo_db: " + cfg.MongoDB,
		"log_level: " + cfg.LogLevel,
		fmt.Sprintf("http_port: %d", cfg.HTTPPort),
		"timezone: " + tz,
		fmt.Sprintf("signup_bonus: %d", cfg.SignupBonus),
		fmt.Sprintf("invite_bonus: %d", cfg.InviteBonus),
		fmt.Sprintf("channel_min_members: %d", cfg.ChannelMinMembers),
	}

	return strings.Join(lines, "\n")
}

func redactMongoURI(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "redacted"
	}
	parsed.User = nil
	return parsed.String()
}

func intSetting(key string, fallback, min int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if value < min {
		return 0, fmt.Errorf("%s must be at least %d", key, min)
	}

	return value, nil
}

func resolveAppEnv() (string, error) {
	if explicit := normalizeEnv(os.Getenv(KeyAppEnv)); explicit != "" {
		return explicit, nil
	}

	dotEnvValues, err := godotenv.Read()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultAppEnv, nil
		}
		return "", fmt.Errorf("read .env: %w", err)
	}

	if envFromFile := normalizeEnv(dotEnvValues[KeyAppEnv]); envFromFile != "" {
		return envFromFile, nil
	}

	return DefaultAppEnv, nil
}

func loadDotEnv(appEnv string) error {
	if appEnv != EnvDevelopment {
		return nil
	}

	if err := godotenv.Load(); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load .env: %w", err)
	}

	return nil
}

func validateAppEnv(appEnv string) error {
	if appEnv == EnvDevelopment || appEnv == EnvProduction {
		return nil
	}

	return fmt.Errorf("invalid %s: must be %q or %q", KeyAppEnv, EnvDevelopment, EnvProduction)
}

func normalizeEnv(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func firstNonEmpty(values ...string) string {
	for _, val := range values {
		if strings.TrimSpace(val) != "" {
			return strings.TrimSpace(val)
		}
	}
	return ""
}
