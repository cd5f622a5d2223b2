package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"receptionist/models"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`
	PublicBaseURL     string `mapstructure:"PUBLIC_BASE_URL"`

	// Redis configuration.
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	RedisPassword  string `mapstructure:"REDIS_PASSWORD"`
	RedisSessionDB int    `mapstructure:"REDIS_SESSION_DB"`
	RedisQueueDB   int    `mapstructure:"REDIS_QUEUE_DB"`
	UseMemoryStore bool   `mapstructure:"USE_MEMORY_STORE"`

	// MongoDB call archive. Archival is disabled when DATABASE_URL is empty.
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`

	// Session lifetimes.
	SessionTTLMinutes     int `mapstructure:"SESSION_TTL_MINUTES"`
	EndedSessionTTLHours  int `mapstructure:"ENDED_SESSION_TTL_HOURS"`
	ClassifierTimeoutSecs int `mapstructure:"CLASSIFIER_TIMEOUT_SECONDS"`
	CalendarTimeoutSecs   int `mapstructure:"CALENDAR_TIMEOUT_SECONDS"`

	// Gemini intent classification.
	GeminiAPIKey string `mapstructure:"GEMINI_API_KEY"`
	GeminiModel  string `mapstructure:"GEMINI_MODEL"`

	// Google Calendar + Speech credentials.
	GoogleCredentialsPath string `mapstructure:"GOOGLE_CREDENTIALS_PATH"`
	GoogleCredentialsJSON string `mapstructure:"GOOGLE_CREDENTIALS_JSON"`
	GoogleCalendarID      string `mapstructure:"GOOGLE_CALENDAR_ID"`
	SpeechLanguage        string `mapstructure:"SPEECH_LANGUAGE"`

	// Twilio.
	TwilioAccountSID string `mapstructure:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken  string `mapstructure:"TWILIO_AUTH_TOKEN"`

	// Admin API.
	AdminUsername     string `mapstructure:"ADMIN_USERNAME"`
	AdminPasswordHash string `mapstructure:"ADMIN_PASSWORD_HASH"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`

	Shop ShopSettings `mapstructure:"SHOP"`
}

// ShopSettings is the shop section of config.yaml.
type ShopSettings struct {
	Name                   string               `mapstructure:"name"`
	Location               string               `mapstructure:"location"`
	Phone                  string               `mapstructure:"phone"`
	Timezone               string               `mapstructure:"timezone"`
	Languages              []string             `mapstructure:"languages"`
	HoursSummary           string               `mapstructure:"hours_summary"`
	Greeting               string               `mapstructure:"greeting"`
	Hours                  models.BusinessHours `mapstructure:"hours"`
	Services               []models.Service     `mapstructure:"services"`
	DefaultDurationMinutes int                  `mapstructure:"default_duration_minutes"`
}

var AppConfig Config

// LoadConfig loads AppConfig and exits the process when it is unusable.
func LoadConfig() {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	AppConfig = cfg
}

// Load reads .env, config.yaml and the environment, in increasing priority.
func Load() (Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Shop = cfg.Shop.withDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MAX_REQUESTS_PER_MIN", 200)
	v.SetDefault("PUBLIC_BASE_URL", "")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_SESSION_DB", 0)
	v.SetDefault("REDIS_QUEUE_DB", 1)
	v.SetDefault("USE_MEMORY_STORE", false)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DATABASE_NAME", "receptionist")
	v.SetDefault("SESSION_TTL_MINUTES", 60)
	v.SetDefault("ENDED_SESSION_TTL_HOURS", 24)
	v.SetDefault("CLASSIFIER_TIMEOUT_SECONDS", 8)
	v.SetDefault("CALENDAR_TIMEOUT_SECONDS", 5)
	v.SetDefault("GEMINI_API_KEY", "")
	v.SetDefault("GEMINI_MODEL", "gemini-1.5-flash")
	v.SetDefault("GOOGLE_CREDENTIALS_PATH", "")
	v.SetDefault("GOOGLE_CREDENTIALS_JSON", "")
	v.SetDefault("GOOGLE_CALENDAR_ID", "primary")
	v.SetDefault("SPEECH_LANGUAGE", "en-US")
	v.SetDefault("TWILIO_ACCOUNT_SID", "")
	v.SetDefault("TWILIO_AUTH_TOKEN", "")
	v.SetDefault("ADMIN_USERNAME", "admin")
	v.SetDefault("ADMIN_PASSWORD_HASH", "")
	v.SetDefault("JWT_SECRET", "")
}

// DefaultShop is the barber shop the receptionist answers for out of the box.
func DefaultShop() ShopSettings {
	weekday := models.DayHours{Open: "09:00", Close: "20:00"}
	return ShopSettings{
		Name:         "Mounir Cutzz",
		Location:     "Lebanon",
		Phone:        "+961 XX XXX XXX",
		Timezone:     "Asia/Beirut",
		Languages:    []string{"Arabic", "English"},
		HoursSummary: "Monday to Saturday, 9 AM to 8 PM. Closed on Sundays",
		Greeting:     "مرحبا بكم في صالون منير كتز. أهلا وسهلا! Welcome to Mounir Cutzz barber shop. How can I help you today?",
		Hours: models.BusinessHours{
			"monday":    weekday,
			"tuesday":   weekday,
			"wednesday": weekday,
			"thursday":  weekday,
			"friday":    weekday,
			"saturday":  weekday,
			"sunday":    {},
		},
		Services: []models.Service{
			{ID: "haircut", Name: "Haircut", DurationMinutes: 30, Price: "$15", Aliases: []string{"hair cut", "cut", "trim my hair"}},
			{ID: "beard_trim", Name: "Beard trim", DurationMinutes: 15, Price: "$8", Aliases: []string{"beard", "shave"}},
			{ID: "hair_wash", Name: "Hair wash", DurationMinutes: 10, Price: "$5", Aliases: []string{"wash"}},
			{ID: "full_service", Name: "Full service", DurationMinutes: 45, Price: "$25", Aliases: []string{"everything", "the works"}},
		},
		DefaultDurationMinutes: 30,
	}
}

func (s ShopSettings) withDefaults() ShopSettings {
	def := DefaultShop()
	if s.Name == "" {
		s.Name = def.Name
	}
	if s.Location == "" {
		s.Location = def.Location
	}
	if s.Phone == "" {
		s.Phone = def.Phone
	}
	if s.Timezone == "" {
		s.Timezone = def.Timezone
	}
	if len(s.Languages) == 0 {
		s.Languages = def.Languages
	}
	if s.Greeting == "" && s.Name == def.Name {
		s.Greeting = def.Greeting
	}
	if len(s.Hours) == 0 {
		s.Hours = def.Hours
		if s.HoursSummary == "" {
			s.HoursSummary = def.HoursSummary
		}
	}
	if len(s.Services) == 0 {
		s.Services = def.Services
	}
	if s.DefaultDurationMinutes <= 0 {
		s.DefaultDurationMinutes = def.DefaultDurationMinutes
	}
	return s
}

// Validate checks the values the receptionist cannot run without.
func (c Config) Validate() error {
	if strings.TrimSpace(c.AppPort) == "" {
		return fmt.Errorf("APP_PORT is required")
	}
	if c.SessionTTLMinutes <= 0 {
		return fmt.Errorf("SESSION_TTL_MINUTES must be positive, got %d", c.SessionTTLMinutes)
	}
	if c.EndedSessionTTLHours <= 0 {
		return fmt.Errorf("ENDED_SESSION_TTL_HOURS must be positive, got %d", c.EndedSessionTTLHours)
	}
	if c.AdminPasswordHash != "" && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when ADMIN_PASSWORD_HASH is set")
	}
	if _, err := c.Shop.Build(); err != nil {
		return err
	}
	return nil
}

// Build turns the settings into the ShopConfig used by the conversation core.
func (s ShopSettings) Build() (models.ShopConfig, error) {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return models.ShopConfig{}, fmt.Errorf("SHOP.timezone is invalid: %w", err)
	}
	for day, h := range s.Hours {
		if h.Open == "" && h.Close == "" {
			continue
		}
		if _, err := models.ParseClock(h.Open); err != nil {
			return models.ShopConfig{}, fmt.Errorf("SHOP.hours.%s.open: %w", day, err)
		}
		if _, err := models.ParseClock(h.Close); err != nil {
			return models.ShopConfig{}, fmt.Errorf("SHOP.hours.%s.close: %w", day, err)
		}
	}
	if len(s.Services) == 0 {
		return models.ShopConfig{}, fmt.Errorf("SHOP.services must list at least one service")
	}
	return models.ShopConfig{
		Name:                   s.Name,
		Location:               s.Location,
		Phone:                  s.Phone,
		Timezone:               loc,
		Languages:              s.Languages,
		Hours:                  s.Hours,
		HoursSummary:           s.HoursSummary,
		Greeting:               s.Greeting,
		Services:               s.Services,
		DefaultDurationMinutes: s.DefaultDurationMinutes,
	}, nil
}

// Shop returns the loaded shop configuration.
func Shop() models.ShopConfig {
	shop, err := AppConfig.Shop.Build()
	if err != nil {
		log.Fatalf("Invalid shop configuration: %v", err)
	}
	return shop
}

// SessionTTL is how long an idle call session lives.
func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

// EndedSessionTTL is how long a finished call is kept for audit.
func (c Config) EndedSessionTTL() time.Duration {
	return time.Duration(c.EndedSessionTTLHours) * time.Hour
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
