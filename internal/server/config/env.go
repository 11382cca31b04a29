package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/luminary-catalog/luminary/internal/flagx"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// parseEnv overlays environment variables. A dotenv file given with -env, or
// ./.env when present, is loaded first; variables already set in the process
// environment win over the file. Invalid values panic.
func parseEnv(config *Config, args []string, lookup LookupFunc) {
	fileVars := loadDotEnv(flagx.EnvFileFlag(args))

	get := func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := fileVars[key]
		return v, ok
	}

	if v, ok := get("PORT"); ok && v != "" {
		config.EndpointAddrHTTP = ":" + strings.TrimPrefix(v, ":")
	}
	if v, ok := get("HTTP_ADDR"); ok && v != "" {
		config.EndpointAddrHTTP = v
	}
	if v, ok := get("GRPC_ADDR"); ok && v != "" {
		config.EndpointAddrGRPC = v
	}
	if v, ok := get("DATABASE_URL"); ok && v != "" {
		config.DatabaseDSN = v
	}
	if v, ok := get("JWT_SECRET"); ok && v != "" {
		config.SecretKey = v
	}
	if v, ok := get("JWT_TTL"); ok && v != "" {
		config.AccessTokenValidityDuration = mustDuration("JWT_TTL", v)
	}
	if v, ok := get("STORE_TIMEOUT"); ok && v != "" {
		config.StoreTimeout = mustDuration("STORE_TIMEOUT", v)
	}
	if v, ok := get("REDIS_ADDR"); ok {
		config.RedisAddr = v
	}
	if v, ok := get("RATE_LIMIT_REQUESTS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			panic(fmt.Errorf("RATE_LIMIT_REQUESTS: %w", err))
		}
		config.RateLimitRequests = n
	}
	if v, ok := get("RATE_LIMIT_WINDOW"); ok && v != "" {
		config.RateLimitWindow = mustDuration("RATE_LIMIT_WINDOW", v)
	}
	if v, ok := get("LEGACY_PLAINTEXT_PASSWORDS"); ok && v != "" {
		config.LegacyPlaintextPasswords = mustBool("LEGACY_PLAINTEXT_PASSWORDS", v)
	}
	if v, ok := get("REQUIRE_ACTIVE_ACCOUNT"); ok && v != "" {
		config.RequireActiveAccount = mustBool("REQUIRE_ACTIVE_ACCOUNT", v)
	}
	if v, ok := get("CORS_ORIGINS"); ok && v != "" {
		config.CORSOrigins = splitList(v)
	}
	if v, ok := get("LOG_LEVEL"); ok && v != "" {
		config.LogLevel = v
	}
}

// loadDotEnv reads path (or ./.env when path is empty) without touching the
// process environment. A missing default file is not an error; a missing
// explicit file panics.
func loadDotEnv(path string) map[string]string {
	explicit := path != ""
	if !explicit {
		path = ".env"
	}

	vars, err := godotenv.Read(path)
	if err != nil {
		if explicit {
			panic(fmt.Errorf("read env file %s: %w", path, err))
		}
		return map[string]string{}
	}
	return vars
}

func mustDuration(key, v string) time.Duration {
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(fmt.Errorf("%s: %w", key, err))
	}
	return d
}

func mustBool(key, v string) bool {
	b, err := strconv.ParseBool(v)
	if err != nil {
		panic(fmt.Errorf("%s: %w", key, err))
	}
	return b
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
