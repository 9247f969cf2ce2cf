package config

import (
	"fmt"
	"net/netip"
	"strings"

	"github.com/rotisserie/eris"
)

// Validate checks the settings a command needs. mode is one of "serve",
// "score", "batch", "migrate" or "refdata". All problems are reported at once.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Sprintf("log.format must be json or console, got %q", c.Log.Format))
	}
	if c.Scoring.AsOfYear < 0 {
		errs = append(errs, "scoring.as_of_year must be >= 0")
	}

	switch mode {
	case "serve":
		errs = append(errs, c.storeErrors()...)
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
		if c.API.RateLimitRPS <= 0 {
			errs = append(errs, "api.rate_limit_rps must be > 0")
		}
		if c.API.RateLimitBurst < 1 {
			errs = append(errs, "api.rate_limit_burst must be >= 1")
		}
		for _, p := range c.API.TrustedProxies {
			if !validProxy(p) {
				errs = append(errs, fmt.Sprintf("api.trusted_proxies: %q is not an IP or CIDR", p))
			}
		}
	case "batch":
		if c.Batch.Concurrency < 1 || c.Batch.Concurrency > 64 {
			errs = append(errs, "batch.concurrency must be between 1 and 64")
		}
	case "migrate":
		errs = append(errs, c.storeErrors()...)
	case "score", "refdata":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) storeErrors() []string {
	var errs []string
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Sprintf("store.driver must be sqlite or postgres, got %q", c.Store.Driver))
	}
	if c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required")
	}
	return errs
}

func validProxy(p string) bool {
	p = strings.TrimSpace(p)
	if _, err := netip.ParsePrefix(p); err == nil {
		return true
	}
	_, err := netip.ParseAddr(p)
	return err == nil
}
