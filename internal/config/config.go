package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/hongminglow/reward-auth/internal/attendance"
	"github.com/hongminglow/reward-auth/internal/auth"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds runtime configuration.
type Config struct {
	Port              string
	Store             string
	DatabaseURL       string
	JWTSecret         string
	JWTIssuer         string
	JWTTTL            time.Duration
	CORSOrigins       []string
	Timezone          string
	AttendancePolicy  string
	SecretScheme      string
	DownstreamURL     string
	DownstreamTimeout time.Duration
	LogFormat         string

	location *time.Location
}

// Flags returns the flag set understood by Load. Flag names double as
// configuration keys.
func Flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("reward-auth", pflag.ContinueOnError)
	fs.String("config", "", "path to a YAML config file")
	fs.String("port", "8080", "HTTP listen port")
	fs.String("store", StorePostgres, "credential store: postgres or memory")
	fs.String("database-url", "", "Postgres connection string")
	fs.String("jwt-secret", "", "HMAC key for session tokens")
	fs.String("jwt-issuer", "reward-auth", "token issuer")
	fs.Duration("jwt-ttl", 60*time.Minute, "token lifetime")
	fs.String("cors-origins", "*", "comma separated allowed origins")
	fs.String("timezone", "Asia/Seoul", "reference timezone for attendance")
	fs.String("attendance-policy", attendance.PolicyLegacy, "attendance policy: legacy or calendar-day")
	fs.String("secret-scheme", auth.SchemePlain, "secret storage: plain or bcrypt")
	fs.String("downstream-url", "", "event service base URL")
	fs.Duration("downstream-timeout", 10*time.Second, "event service request timeout")
	fs.String("log-format", "json", "log format: json or text")
	return fs
}

// Load merges flag defaults, the optional YAML file, the environment and
// explicitly set flags, in that order, and validates the result.
func Load(fs *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
		return Config{}, oops.Code("CONFIG_INVALID").Wrapf(err, "load flag defaults")
	}
	if path, _ := fs.GetString("config"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, oops.Code("CONFIG_INVALID").With("path", path).Wrapf(err, "load config file")
		}
	}
	if err := k.Load(envProvider{lookup: os.LookupEnv}, nil); err != nil {
		return Config{}, oops.Code("CONFIG_INVALID").Wrapf(err, "load environment")
	}
	if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
		return Config{}, oops.Code("CONFIG_INVALID").Wrapf(err, "load flags")
	}

	cfg := Config{
		Port:             strings.TrimSpace(k.String("port")),
		Store:            strings.ToLower(strings.TrimSpace(k.String("store"))),
		DatabaseURL:      strings.TrimSpace(k.String("database-url")),
		JWTSecret:        strings.TrimSpace(k.String("jwt-secret")),
		JWTIssuer:        strings.TrimSpace(k.String("jwt-issuer")),
		CORSOrigins:      parseCSV(k.String("cors-origins")),
		Timezone:         strings.TrimSpace(k.String("timezone")),
		AttendancePolicy: strings.TrimSpace(k.String("attendance-policy")),
		SecretScheme:     strings.TrimSpace(k.String("secret-scheme")),
		DownstreamURL:    strings.TrimSpace(k.String("downstream-url")),
		LogFormat:        strings.TrimSpace(k.String("log-format")),
	}
	var err error
	if cfg.JWTTTL, err = duration(k, "jwt-ttl"); err != nil {
		return Config{}, err
	}
	if cfg.DownstreamTimeout, err = duration(k, "downstream-timeout"); err != nil {
		return Config{}, err
	}
	if cfg.DownstreamURL == "" {
		cfg.DownstreamURL = defaultDownstream(os.Getenv("IS_DOCKER"))
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	invalid := oops.Code("CONFIG_INVALID")
	if c.JWTSecret == "" {
		return invalid.Errorf("JWT_SECRET is required")
	}
	if c.JWTTTL <= 0 {
		return invalid.With("jwt_ttl", c.JWTTTL).Errorf("token lifetime must be positive")
	}
	switch c.Store {
	case StorePostgres:
		if c.DatabaseURL == "" {
			return invalid.Errorf("DATABASE_URL is required")
		}
	case StoreMemory:
	default:
		return invalid.With("store", c.Store).Errorf("unknown store %q", c.Store)
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return invalid.With("timezone", c.Timezone).Wrapf(err, "load timezone")
	}
	c.location = loc
	if _, err := attendance.New(c.AttendancePolicy, loc); err != nil {
		return invalid.Wrap(err)
	}
	if _, err := auth.NewSecretVerifier(c.SecretScheme); err != nil {
		return invalid.Wrap(err)
	}
	if c.DownstreamTimeout <= 0 {
		return invalid.With("downstream_timeout", c.DownstreamTimeout).Errorf("downstream timeout must be positive")
	}
	return nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

// Location returns the attendance reference timezone.
func (c Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// duration parses key from its string form, which covers both flag values and
// strings from the file or environment.
func duration(k *koanf.Koanf, key string) (time.Duration, error) {
	raw := strings.TrimSpace(k.String(key))
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, oops.Code("CONFIG_INVALID").With("key", key).Wrapf(err, "parse duration %q", raw)
	}
	return d, nil
}

func defaultDownstream(isDocker string) string {
	if docker, _ := strconv.ParseBool(strings.TrimSpace(isDocker)); docker {
		return "http://event:8002"
	}
	return "http://localhost:8002"
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
