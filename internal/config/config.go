package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Booking   BookingConfig
	Mail      MailConfig
	Payment   PaymentConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Security  SecurityConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port          string
	Environment   string // development, staging, production
	LogLevel      string // debug, info, warn, error
	PublicBaseURL string // external base URL used in emailed action links
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	URL                string
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

// BookingConfig holds the scheduling rules for the booking engine.
// Hours are minutes-from-midnight in the operator's local timezone.
type BookingConfig struct {
	WeekdayOpenMin  int
	WeekdayCloseMin int
	WeekendOpenMin  int
	WeekendCloseMin int
	SlotStepMin     int
	HoldDuration    time.Duration // soft-hold lifetime for pending requests
	MinDurationMin  int
	MaxDurationMin  int
	BusinessEmail   string // operator inbox that receives approval requests
}

// MailConfig holds Resend email configuration
type MailConfig struct {
	Mode     string // "dev" logs instead of sending, "production" calls Resend
	APIURL   string
	APIKey   string
	From     string
	FromName string
}

// PaymentConfig holds Stripe and PayPal configuration
type PaymentConfig struct {
	StripeAPIURL    string
	StripeSecretKey string
	PayPalAPIBase   string
	PayPalClientID  string
	PayPalSecret    string
	SuccessURL      string
	CancelURL       string
}

// RateLimitConfig holds booking-form rate limiting configuration
type RateLimitConfig struct {
	MaxEmailRequests int
	EmailWindow      time.Duration
	MaxIPRequests    int
	IPWindow         time.Duration
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	EnableRequestLog bool
	EnableAuditLog   bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:          getEnv("PORT", "8080"),
			Environment:   getEnv("ENVIRONMENT", "development"),
			LogLevel:      getEnv("LOG_LEVEL", "info"),
			PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		},
		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			MaxConnections:     getEnvAsInt("DATABASE_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    time.Duration(getEnvAsInt("DATABASE_CONN_MAX_LIFETIME", 300)) * time.Second,
		},
		Booking: BookingConfig{
			WeekdayOpenMin:  getEnvAsInt("BOOKING_WEEKDAY_OPEN_MIN", 16*60+30), // 16:30
			WeekdayCloseMin: getEnvAsInt("BOOKING_WEEKDAY_CLOSE_MIN", 22*60),   // 22:00
			WeekendOpenMin:  getEnvAsInt("BOOKING_WEEKEND_OPEN_MIN", 10*60),    // 10:00
			WeekendCloseMin: getEnvAsInt("BOOKING_WEEKEND_CLOSE_MIN", 22*60),   // 22:00
			SlotStepMin:     getEnvAsInt("BOOKING_SLOT_STEP_MIN", 30),
			HoldDuration:    time.Duration(getEnvAsInt("BOOKING_HOLD_MINUTES", 45)) * time.Minute,
			MinDurationMin:  getEnvAsInt("BOOKING_MIN_DURATION_MIN", 30),
			MaxDurationMin:  getEnvAsInt("BOOKING_MAX_DURATION_MIN", 12*60),
			BusinessEmail:   getEnv("BUSINESS_EMAIL", ""),
		},
		Mail: MailConfig{
			Mode:     getEnv("MAIL_MODE", "dev"), // "dev" or "production"
			APIURL:   getEnv("RESEND_API_URL", "https://api.resend.com"),
			APIKey:   getEnv("RESEND_API_KEY", ""),
			From:     getEnv("MAIL_FROM", "bookings@detailnco.com"),
			FromName: getEnv("MAIL_FROM_NAME", "Detail'N Co. Booking"),
		},
		Payment: PaymentConfig{
			StripeAPIURL:    getEnv("STRIPE_API_URL", "https://api.stripe.com"),
			StripeSecretKey: getEnv("STRIPE_SECRET_KEY", ""),
			PayPalAPIBase:   getEnv("PAYPAL_API_BASE", "https://api-m.paypal.com"),
			PayPalClientID:  getEnv("PAYPAL_CLIENT_ID", ""),
			PayPalSecret:    getEnv("PAYPAL_SECRET", ""),
			SuccessURL:      getEnv("PAYMENT_SUCCESS_URL", ""),
			CancelURL:       getEnv("PAYMENT_CANCEL_URL", ""),
		},
		RateLimit: RateLimitConfig{
			MaxEmailRequests: getEnvAsInt("RATE_LIMIT_EMAIL_REQUESTS", 3),
			EmailWindow:      time.Duration(getEnvAsInt("RATE_LIMIT_EMAIL_WINDOW_MINUTES", 10)) * time.Minute,
			MaxIPRequests:    getEnvAsInt("RATE_LIMIT_IP_REQUESTS", 10),
			IPWindow:         time.Duration(getEnvAsInt("RATE_LIMIT_IP_WINDOW_MINUTES", 60)) * time.Minute,
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "OPTIONS"}),
			AllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type"}),
		},
		Security: SecurityConfig{
			EnableRequestLog: getEnvAsBool("ENABLE_REQUEST_LOGGING", true),
			EnableAuditLog:   getEnvAsBool("ENABLE_AUDIT_LOGGING", true),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Booking.BusinessEmail == "" {
		return fmt.Errorf("BUSINESS_EMAIL is required")
	}

	if c.Booking.SlotStepMin <= 0 {
		return fmt.Errorf("BOOKING_SLOT_STEP_MIN must be positive")
	}

	if c.Booking.WeekdayOpenMin >= c.Booking.WeekdayCloseMin {
		return fmt.Errorf("weekday booking hours are inverted")
	}

	if c.Booking.WeekendOpenMin >= c.Booking.WeekendCloseMin {
		return fmt.Errorf("weekend booking hours are inverted")
	}

	if c.Mail.Mode == "production" && c.Mail.APIKey == "" {
		return fmt.Errorf("RESEND_API_KEY is required in production mail mode")
	}

	return nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

// getEnvAsBool gets an environment variable as a boolean with a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Invalid value for %s, using default: %v", key, defaultValue)
		return defaultValue
	}

	return value
}

// getEnvAsSlice gets an environment variable as a comma-separated slice
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	parts := strings.Split(valueStr, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
