package config

import (
	"errors"
	"strconv"
	"strings"
)

// envKeys maps environment variables onto configuration keys.
var envKeys = map[string]string{
	"PORT":                 "port",
	"STORE":                "store",
	"DATABASE_URL":         "database-url",
	"JWT_SECRET":           "jwt-secret",
	"JWT_ISSUER":           "jwt-issuer",
	"CORS_ALLOWED_ORIGINS": "cors-origins",
	"ATTENDANCE_TIMEZONE":  "timezone",
	"ATTENDANCE_POLICY":    "attendance-policy",
	"SECRET_SCHEME":        "secret-scheme",
	"DOWNSTREAM_URL":       "downstream-url",
	"DOWNSTREAM_TIMEOUT":   "downstream-timeout",
	"LOG_FORMAT":           "log-format",
}

// envProvider is a koanf.Provider over the process environment. Blank values
// are skipped so they do not mask lower layers.
type envProvider struct {
	lookup func(string) (string, bool)
}

func (envProvider) ReadBytes() ([]byte, error) {
	return nil, errors.New("env provider does not support ReadBytes")
}

func (p envProvider) Read() (map[string]any, error) {
	out := make(map[string]any)
	for name, key := range envKeys {
		if v, ok := p.lookup(name); ok && strings.TrimSpace(v) != "" {
			out[key] = strings.TrimSpace(v)
		}
	}
	// JWT_TTL_MINUTES is a bare minute count; malformed or non-positive
	// values keep the lower layer.
	if v, ok := p.lookup("JWT_TTL_MINUTES"); ok {
		if minutes, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && minutes > 0 {
			out["jwt-ttl"] = strconv.Itoa(minutes) + "m"
		}
	}
	return out, nil
}
