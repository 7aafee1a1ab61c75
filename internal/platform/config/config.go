package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Load reads the .env file from the current working directory and sets
// environment variables. If .env does not exist, Load returns an error but
// callers can ignore it and use system env or defaults. Pass one or more paths
// to load from specific files; with no paths, ".env" is used.
func Load(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	return godotenv.Load(paths...)
}

// GetEnv returns the value of the environment variable named by key, or fallback
// if the variable is unset or empty.
func GetEnv(key, fallback string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return fallback
}

// GetEnvInt returns the integer value of the environment variable named by key,
// or fallback if the variable is unset, empty, or not a valid integer.
func GetEnvInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return fallback
}

// GetEnvBool returns the boolean value of the environment variable named by key,
// or fallback if the variable is unset, empty, or not a valid boolean.
func GetEnvBool(key string, fallback bool) bool {
	if s := os.Getenv(key); s != "" {
		if b, err := strconv.ParseBool(s); err == nil {
			return b
		}
	}
	return fallback
}

// Board is the client and relay configuration.
type Board struct {
	Endpoint  string
	Port      int
	Width     int
	Height    int
	MDNS      bool
	ExportPDF string
	ExportPNG string
	LogLevel  string
	LogFormat string
}

// FromEnv reads the board configuration from the environment.
func FromEnv() Board {
	return Board{
		Endpoint:  GetEnv("LIVEBOARD_ENDPOINT", ""),
		Port:      GetEnvInt("PORT", 8888),
		Width:     GetEnvInt("BOARD_WIDTH", 400),
		Height:    GetEnvInt("BOARD_HEIGHT", 400),
		MDNS:      GetEnvBool("MDNS_ENABLED", true),
		ExportPDF: GetEnv("EXPORT_PDF", ""),
		ExportPNG: GetEnv("EXPORT_PNG", ""),
		LogLevel:  GetEnv("LOG_LEVEL", "info"),
		LogFormat: GetEnv("LOG_FORMAT", "text"),
	}
}
