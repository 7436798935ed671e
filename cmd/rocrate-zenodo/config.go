package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/G-Node/libgin/libgin"
	"github.com/G-Node/rocrate-zenodo/zenodo"
	log "github.com/sirupsen/logrus"
)

// Configuration holds the settings of a Zenodo upload.
type Configuration struct {
	// Zenodo personal access token
	Token string
	// Sandbox selects sandbox.zenodo.org
	Sandbox bool
	// BaseURL overrides the Zenodo API address
	BaseURL string
	// Timeout of a single API call
	Timeout time.Duration
	// RateLimit in requests per second
	RateLimit float64
}

// tokenKey returns the name of the env variable holding the API token.
func tokenKey(sandbox bool) string {
	if sandbox {
		return "ZENODO_SANDBOX_API_TOKEN"
	}
	return "ZENODO_API_TOKEN"
}

// loadconfig reads all the configuration variables (from the environment).
func loadconfig(sandbox bool) (*Configuration, error) {
	cfg := Configuration{Sandbox: sandbox}

	cfg.Token = libgin.ReadConf(tokenKey(sandbox))
	if cfg.Token == "" {
		return nil, fmt.Errorf("no Zenodo API token found: set %s in the environment or in a .env file", tokenKey(sandbox))
	}
	cfg.BaseURL = libgin.ReadConf("ZENODO_API_URL")

	timeout, err := strconv.Atoi(libgin.ReadConfDefault("ZENODO_TIMEOUT", "60"))
	if err != nil || timeout <= 0 {
		log.Printf("Invalid ZENODO_TIMEOUT value; using default")
		timeout = 60
	}
	cfg.Timeout = time.Duration(timeout) * time.Second

	ratelimit, err := strconv.ParseFloat(libgin.ReadConfDefault("ZENODO_RATELIMIT", "1.5"), 64)
	if err != nil || ratelimit <= 0 {
		log.Printf("Invalid ZENODO_RATELIMIT value; using default")
		ratelimit = zenodo.DefaultRateLimit
	}
	cfg.RateLimit = ratelimit

	return &cfg, nil
}

// newClient sets up a Zenodo client for the configuration.
func newClient(cfg *Configuration) *zenodo.Client {
	opts := []zenodo.ClientOption{
		zenodo.WithTimeout(cfg.Timeout),
		zenodo.WithRateLimit(cfg.RateLimit),
	}
	if cfg.Sandbox {
		opts = append(opts, zenodo.WithSandbox())
	}
	if cfg.BaseURL != "" {
		opts = append(opts, zenodo.WithBaseURL(cfg.BaseURL))
	}
	return zenodo.NewClient(cfg.Token, opts...)
}
