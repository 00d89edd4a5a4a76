// Package config reads settings from the process environment, optionally
// seeded from a .env file.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Load copies the variables of the given .env files (".env" when none are
// named) into the environment. Variables already set win. A missing file is
// reported, and callers usually ignore that.
func Load(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	return godotenv.Load(paths...)
}

// GetEnv returns the variable named by key, or fallback when it is unset or
// empty.
func GetEnv(key, fallback string) string {
	return lookup(key, fallback, func(s string) (string, error) { return s, nil })
}

// GetEnvInt is GetEnv for integers. Unparsable values yield fallback.
func GetEnvInt(key string, fallback int) int {
	return lookup(key, fallback, strconv.Atoi)
}

// GetEnvDuration is GetEnv for durations such as "5s" or "250ms".
func GetEnvDuration(key string, fallback time.Duration) time.Duration {
	return lookup(key, fallback, time.ParseDuration)
}

func lookup[T any](key string, fallback T, parse func(string) (T, error)) T {
	s, ok := os.LookupEnv(key)
	if !ok || s == "" {
		return fallback
	}
	v, err := parse(s)
	if err != nil {
		return fallback
	}
	return v
}
