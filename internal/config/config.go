package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dennisdiepolder/teamops/internal/storage"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Port           string
	AllowedOrigins []string
	WSReadTimeout  time.Duration
	WSWriteTimeout time.Duration
	LogLevel       string
	PingPeriod     time.Duration
	PongWait       time.Duration
	WriteWait      time.Duration
	MaxMessageSize int64

	Timezone     string
	TickInterval time.Duration

	// Roster
	Agents        []string
	PayrollAgents []string
	ClockInMirror map[string]string // agent -> partner clocked in alongside

	// Invoicing
	HourlyRate        float64
	BaseInvoiceFriday time.Time
	BaseInvoiceNumber int
	InvoiceFrom       []string // address lines, "|" separated in env
	InvoiceTo         []string

	// Admin gate. An empty AdminPIN disables unlocking.
	AdminAgent      string
	AdminPIN        string
	AdminSessionTTL time.Duration

	Storage storage.Config
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:5173")),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Timezone:       getEnv("TIMEZONE", "America/Phoenix"),
		Agents:         splitList(getEnv("AGENTS", "Mel,Bern,Via,Shaira")),
		PayrollAgents:  splitList(getEnv("PAYROLL_AGENTS", "Via,Bern")),
		AdminAgent:     getEnv("ADMIN_AGENT", "Via"),
		AdminPIN:       os.Getenv("ADMIN_PIN"),
		InvoiceFrom:    splitLines(os.Getenv("INVOICE_FROM")),
		InvoiceTo:      splitLines(os.Getenv("INVOICE_TO")),
		Storage:        storage.LoadConfig(),
	}

	// Parse WebSocket timeouts
	wsReadTimeout, err := strconv.Atoi(getEnv("WS_READ_TIMEOUT", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid WS_READ_TIMEOUT: %w", err)
	}
	config.WSReadTimeout = time.Duration(wsReadTimeout) * time.Second

	wsWriteTimeout, err := strconv.Atoi(getEnv("WS_WRITE_TIMEOUT", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid WS_WRITE_TIMEOUT: %w", err)
	}
	config.WSWriteTimeout = time.Duration(wsWriteTimeout) * time.Second

	// Calculate WebSocket constants
	config.PongWait = config.WSReadTimeout
	config.PingPeriod = (config.PongWait * 9) / 10 // Must be less than pongWait
	config.WriteWait = config.WSWriteTimeout
	config.MaxMessageSize = 512

	config.TickInterval, err = time.ParseDuration(getEnv("TICK_INTERVAL", "5s"))
	if err != nil || config.TickInterval <= 0 {
		return nil, fmt.Errorf("invalid TICK_INTERVAL %q", getEnv("TICK_INTERVAL", "5s"))
	}

	config.AdminSessionTTL, err = time.ParseDuration(getEnv("ADMIN_SESSION_TTL", "12h"))
	if err != nil || config.AdminSessionTTL <= 0 {
		return nil, fmt.Errorf("invalid ADMIN_SESSION_TTL %q", getEnv("ADMIN_SESSION_TTL", "12h"))
	}

	config.HourlyRate, err = strconv.ParseFloat(getEnv("HOURLY_RATE", "10"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid HOURLY_RATE: %w", err)
	}

	// Invoice numbering is anchored at noon UTC of the base Friday
	baseFriday, err := time.Parse("2006-01-02", getEnv("BASE_INVOICE_FRIDAY", "2025-09-19"))
	if err != nil {
		return nil, fmt.Errorf("invalid BASE_INVOICE_FRIDAY: %w", err)
	}
	config.BaseInvoiceFriday = baseFriday.Add(12 * time.Hour)

	config.BaseInvoiceNumber, err = strconv.Atoi(getEnv("BASE_INVOICE_NUMBER", "24"))
	if err != nil {
		return nil, fmt.Errorf("invalid BASE_INVOICE_NUMBER: %w", err)
	}

	config.ClockInMirror, err = parseMirror(getEnv("CLOCKIN_MIRROR", "Via:Bern"))
	if err != nil {
		return nil, err
	}

	if len(config.Agents) == 0 {
		return nil, fmt.Errorf("AGENTS must name at least one agent")
	}
	for _, p := range config.PayrollAgents {
		if !contains(config.Agents, p) {
			return nil, fmt.Errorf("payroll agent %q is not in AGENTS", p)
		}
	}
	for from, to := range config.ClockInMirror {
		if !contains(config.Agents, from) || !contains(config.Agents, to) {
			return nil, fmt.Errorf("CLOCKIN_MIRROR pair %s:%s names an agent outside AGENTS", from, to)
		}
	}

	return config, nil
}

// parseMirror reads "A:B,C:D" pairs
func parseMirror(raw string) (map[string]string, error) {
	mirror := make(map[string]string)
	for _, pair := range splitList(raw) {
		from, to, ok := strings.Cut(pair, ":")
		from, to = strings.TrimSpace(from), strings.TrimSpace(to)
		if !ok || from == "" || to == "" {
			return nil, fmt.Errorf("invalid CLOCKIN_MIRROR entry %q", pair)
		}
		mirror[from] = to
	}
	return mirror, nil
}

// splitList splits a comma separated value, trimming spaces and dropping
// empty entries
func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// splitLines splits a "|" separated address into trimmed lines
func splitLines(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "|") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
