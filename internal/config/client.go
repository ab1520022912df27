package config

import "time"

// ClientConfig configures the seatctl terminal client.
type ClientConfig struct {
	APIURL         string        // base URL of the booking API
	PollInterval   time.Duration // seat refresh period used by watch
	RequestTimeout time.Duration // per-request deadline
	SessionFile    string        // overrides the default session location
}

func LoadClientConfig() ClientConfig {
	cfg := ClientConfig{
		APIURL:         envStr("SEATCTL_API_URL", "http://localhost:8080"),
		PollInterval:   envDur("SEATCTL_POLL_INTERVAL", 5*time.Second),
		RequestTimeout: envDur("SEATCTL_TIMEOUT", 10*time.Second),
		SessionFile:    envStr("SEATCTL_SESSION_FILE", ""),
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	return cfg
}
