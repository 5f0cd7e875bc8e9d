package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string
	JWTSecret   string
	Env         string
	AdminKey    string
	ExportDir   string
	BaseURL     string

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
}

// Load reads configuration from the environment. A .env file is honored for
// local development. Missing required keys are fatal.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:        get("PORT", "8080"),
		DatabaseURL: must("DATABASE_URL"),
		JWTSecret:   must("JWT_SECRET"),
		Env:         get("ENV", "dev"),
		AdminKey:    os.Getenv("ADMIN_KEY"),
		ExportDir:   get("EXPORT_DIR", "exports"),
		BaseURL:     get("BASE_URL", "http://localhost:8080"),
		SMTPHost:    os.Getenv("SMTP_HOST"),
		SMTPPort:    getInt("SMTP_PORT", 587),
		SMTPUser:    os.Getenv("SMTP_USER"),
		SMTPPass:    os.Getenv("SMTP_PASSWORD"),
	}
}

func get(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		log.Fatalf("missing env %s", k)
	}
	return v
}
