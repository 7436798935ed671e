package main

import (
	"strings"
	"testing"
	"time"

	"github.com/G-Node/rocrate-zenodo/zenodo"
)

func TestLoadconfig(t *testing.T) {
	t.Setenv("ZENODO_API_TOKEN", "")
	t.Setenv("ZENODO_SANDBOX_API_TOKEN", "")

	// check token env vars
	_, err := loadconfig(false)
	if err == nil || !strings.Contains(err.Error(), "ZENODO_API_TOKEN") {
		t.Fatalf("Expected error on missing 'ZENODO_API_TOKEN' env var: %v", err)
	}
	t.Setenv("ZENODO_API_TOKEN", "prodtoken")
	_, err = loadconfig(true)
	if err == nil || !strings.Contains(err.Error(), "ZENODO_SANDBOX_API_TOKEN") {
		t.Fatalf("Expected error on missing 'ZENODO_SANDBOX_API_TOKEN' env var: %v", err)
	}
	t.Setenv("ZENODO_SANDBOX_API_TOKEN", "sandboxtoken")

	// defaults
	t.Setenv("ZENODO_API_URL", "")
	cfg, err := loadconfig(false)
	if err != nil {
		t.Fatalf("Error loading config: %v", err)
	}
	if cfg.Token != "prodtoken" || cfg.Sandbox || cfg.Timeout != 60*time.Second || cfg.RateLimit != zenodo.DefaultRateLimit {
		t.Fatalf("Unexpected default configuration: %+v", cfg)
	}
	if client := newClient(cfg); client.BaseURL() != zenodo.ProductionURL {
		t.Fatalf("Unexpected client URL: %s", client.BaseURL())
	}

	cfg, err = loadconfig(true)
	if err != nil {
		t.Fatalf("Error loading config: %v", err)
	}
	if cfg.Token != "sandboxtoken" {
		t.Fatalf("Unexpected sandbox token: %q", cfg.Token)
	}
	if client := newClient(cfg); client.BaseURL() != zenodo.SandboxURL {
		t.Fatalf("Unexpected client URL: %s", client.BaseURL())
	}

	// custom values
	t.Setenv("ZENODO_TIMEOUT", "5")
	t.Setenv("ZENODO_RATELIMIT", "0.5")
	t.Setenv("ZENODO_API_URL", "http://localhost:5000/api")
	cfg, err = loadconfig(true)
	if err != nil {
		t.Fatalf("Error loading config: %v", err)
	}
	if cfg.Timeout != 5*time.Second || cfg.RateLimit != 0.5 {
		t.Fatalf("Unexpected custom configuration: %+v", cfg)
	}
	if client := newClient(cfg); client.BaseURL() != "http://localhost:5000/api" {
		t.Fatalf("API URL override ignored: %s", client.BaseURL())
	}

	// invalid values fall back to defaults
	t.Setenv("ZENODO_TIMEOUT", "soon")
	t.Setenv("ZENODO_RATELIMIT", "-1")
	cfg, err = loadconfig(false)
	if err != nil {
		t.Fatalf("Error loading config: %v", err)
	}
	if cfg.Timeout != 60*time.Second || cfg.RateLimit != zenodo.DefaultRateLimit {
		t.Fatalf("Invalid values not replaced by defaults: %+v", cfg)
	}
}
