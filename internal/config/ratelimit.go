package config

import (
	"os"
	"strconv"
	"time"
)

// RateLimitConfig drives the per-IP token bucket.  Rate is tokens refilled
// per second, Burst is the bucket capacity, IdleTTL is how long an idle
// client's bucket survives in Redis before it is forgotten.
type RateLimitConfig struct {
	Enabled bool
	Rate    int
	Burst   int
	IdleTTL time.Duration
}

// LoadRateLimitConfig reads environment variables and clamps the values to
// something workable.
func LoadRateLimitConfig() RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled: envBool("RATE_LIMIT_ENABLED", true),
		Rate:    envInt("RATE_LIMIT_RATE", 10),
		Burst:   envInt("RATE_LIMIT_BURST", 30),
		IdleTTL: envDur("RATE_LIMIT_TTL", 10*time.Minute),
	}
	if cfg.Rate < 1 {
		cfg.Rate = 1
	}
	if cfg.Burst < cfg.Rate {
		cfg.Burst = cfg.Rate
	}
	if cfg.IdleTTL < time.Minute {
		cfg.IdleTTL = time.Minute
	}
	return cfg
}

func envBool(k string, d bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "True", "yes", "on":
		return true
	case "0", "false", "FALSE", "False", "no", "off":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}
