/*
 * file: config.go
 * package: config
 * description:
 *     Loads process configuration: a .env file (if present, via godotenv)
 *     followed by plain os.Getenv reads with defaults, mirroring the
 *     teacher's flat environment-variable style in db.InitializeDatabase.
 */
package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds every environment-derived setting the server needs.
type Config struct {
	Port       string
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
}

// Load reads .env (if present; godotenv never overrides a variable already
// set in the process environment) and then the individual settings, with
// the defaults spec.md §6 specifies.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("INFO: no .env file found, relying on process environment")
	}

	return Config{
		Port:       getEnv("PORT", "8080"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "roomserver"),
		DBPort:     getEnv("DB_PORT", "5432"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
