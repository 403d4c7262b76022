package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port int

	MongoURI      string
	MongoDatabase string
	MongoTimeout  time.Duration

	AllowedOrigins     []string
	AllowedEmailDomain string

	OTPTTL              time.Duration
	OTPRetention        time.Duration
	OTPSweepInterval    time.Duration
	RequireVerification bool
	VerificationSecret  string
	VerificationTTL     time.Duration

	SMTPHost      string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string
	SenderEmail   string
	MailWorkers   int
	MailQueueSize int

	RateLimitRPS   float64
	RateLimitBurst int

	LogLevel  string
	LogFormat string
}

// Load reads the process environment, after merging any .env file found in
// the working directory.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:                getEnvInt("PORT", 8080),
		MongoURI:            os.Getenv("MONGO_URI"),
		MongoDatabase:       getEnv("MONGO_DATABASE", "ideabox"),
		MongoTimeout:        getEnvDuration("MONGO_TIMEOUT", 5*time.Second),
		AllowedOrigins:      splitList(os.Getenv("ALLOWED_ORIGINS")),
		AllowedEmailDomain:  strings.ToLower(strings.TrimSpace(os.Getenv("ALLOWED_EMAIL_DOMAIN"))),
		OTPTTL:              getEnvDuration("OTP_TTL", 10*time.Minute),
		OTPRetention:        getEnvDuration("OTP_RETENTION", 24*time.Hour),
		OTPSweepInterval:    getEnvDuration("OTP_SWEEP_INTERVAL", time.Hour),
		RequireVerification: getEnvBool("OTP_REQUIRED_FOR_SUBMIT", false),
		VerificationSecret:  os.Getenv("VERIFICATION_SECRET"),
		VerificationTTL:     getEnvDuration("VERIFICATION_TTL", 30*time.Minute),
		SMTPHost:            getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:            getEnvInt("SMTP_PORT", 587),
		SMTPUsername:        os.Getenv("SMTP_USERNAME"),
		SMTPPassword:        os.Getenv("SMTP_PASSWORD"),
		SenderEmail:         os.Getenv("SENDER_EMAIL"),
		MailWorkers:         getEnvInt("MAIL_WORKERS", 2),
		MailQueueSize:       getEnvInt("MAIL_QUEUE_SIZE", 64),
		RateLimitRPS:        getEnvFloat("RATE_LIMIT_RPS", 3),
		RateLimitBurst:      getEnvInt("RATE_LIMIT_BURST", 5),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", "console"),
	}
	if cfg.SenderEmail == "" {
		cfg.SenderEmail = cfg.SMTPUsername
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	missing := []string{}
	if c.MongoURI == "" {
		missing = append(missing, "MONGO_URI")
	}
	if c.RequireVerification && c.VerificationSecret == "" {
		missing = append(missing, "VERIFICATION_SECRET")
	}
	if len(missing) > 0 {
		return errors.New("missing env: " + strings.Join(missing, ", "))
	}
	if c.MailWorkers < 1 {
		return errors.New("MAIL_WORKERS must be at least 1")
	}
	return nil
}

// MailConfigured reports whether SMTP credentials are present.
func (c Config) MailConfigured() bool {
	return c.SMTPUsername != "" && c.SMTPPassword != ""
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
