package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/luminary-catalog/luminary/internal/flagx"
	"github.com/luminary-catalog/luminary/internal/timex"
)

// JsonConfig is the on-disk shape of the optional config file. Durations use
// timex.Duration so both "1h" and integer nanoseconds are accepted. Fields
// absent from the file leave the current value untouched.
type JsonConfig struct {
	EndpointAddrHTTP            *string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC            *string         `json:"endpoint_addr_grpc"`
	DatabaseDSN                 *string         `json:"database_dsn"`
	SecretKey                   *string         `json:"secret_key"`
	AccessTokenValidityDuration *timex.Duration `json:"access_token_validity_duration"`
	StoreTimeout                *timex.Duration `json:"store_timeout"`
	RedisAddr                   *string         `json:"redis_addr"`
	RateLimitRequests           *int            `json:"rate_limit_requests"`
	RateLimitWindow             *timex.Duration `json:"rate_limit_window"`
	LegacyPlaintextPasswords    *bool           `json:"legacy_plaintext_passwords"`
	RequireActiveAccount        *bool           `json:"require_active_account"`
	CORSOrigins                 []string        `json:"cors_origins"`
	LogLevel                    *string         `json:"log_level"`
}

// parseJson loads the file named by -c / -config, if any, into config.
// An unreadable file or invalid JSON panics.
func parseJson(config *Config, args []string) {

	jsonConfigFile := flagx.ConfigFileFlag(args)

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setDuration(&config.AccessTokenValidityDuration, c.AccessTokenValidityDuration)
	setDuration(&config.StoreTimeout, c.StoreTimeout)
	setString(&config.RedisAddr, c.RedisAddr)
	if c.RateLimitRequests != nil {
		config.RateLimitRequests = *c.RateLimitRequests
	}
	setDuration(&config.RateLimitWindow, c.RateLimitWindow)
	if c.LegacyPlaintextPasswords != nil {
		config.LegacyPlaintextPasswords = *c.LegacyPlaintextPasswords
	}
	if c.RequireActiveAccount != nil {
		config.RequireActiveAccount = *c.RequireActiveAccount
	}
	if c.CORSOrigins != nil {
		config.CORSOrigins = c.CORSOrigins
	}
	setString(&config.LogLevel, c.LogLevel)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
