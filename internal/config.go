package internal

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sensiblebit/certcheck/internal/inventory"
)

// Config holds the settings of a check run. Command-line flags that were set
// explicitly take precedence over values read from a file.
type Config struct {
	TrustDir     string   `yaml:"trustDir"`     // default /etc/ssl/certs
	Grace        string   `yaml:"grace"`        // Go duration or "Nd", default 24h
	Match        string   `yaml:"match"`        // basename or fingerprint
	MozillaRoots bool     `yaml:"mozillaRoots"` // fingerprint mode only
	Formats      string   `yaml:"formats"`      // pem or any
	Lenient      bool     `yaml:"lenient"`
	Workers      int      `yaml:"workers"` // 0 = GOMAXPROCS
	Passwords    []string `yaml:"passwords,omitempty"`
	Output       string   `yaml:"output"` // text or json
}

// Defaults returns a Config with the built-in defaults.
func Defaults() *Config {
	return &Config{
		TrustDir: inventory.DefaultTrustDir,
		Grace:    "24h",
		Match:    string(inventory.MatchBasename),
		Formats:  string(inventory.FormatsPEM),
		Output:   "text",
	}
}

// LoadConfig reads a YAML config file over the defaults and validates the
// result.
func LoadConfig(path string) (*Config, error) {
	c := Defaults()
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return c, nil
}

// Validate checks that the config values are usable.
func (c *Config) Validate() error {
	var errs []error
	if c.TrustDir == "" {
		errs = append(errs, errors.New("trustDir must not be empty"))
	}
	if g, err := ParseDuration(c.Grace); err != nil {
		errs = append(errs, fmt.Errorf("grace: %w", err))
	} else if g < 0 {
		errs = append(errs, fmt.Errorf("grace must not be negative, got %s", c.Grace))
	}
	if _, err := inventory.ParseMatchMode(c.Match); err != nil {
		errs = append(errs, err)
	}
	if _, err := inventory.ParseFormats(c.Formats); err != nil {
		errs = append(errs, err)
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}
	if c.Output != "text" && c.Output != "json" {
		errs = append(errs, fmt.Errorf("unsupported output format %q (use text or json)", c.Output))
	}
	return errors.Join(errs...)
}

// GraceDuration returns the parsed grace window. Call Validate first.
func (c *Config) GraceDuration() time.Duration {
	d, _ := ParseDuration(c.Grace)
	return d
}

const day = 24 * time.Hour

// maxDays is the largest day count a time.Duration can hold.
const maxDays = int64(math.MaxInt64 / day)

// ParseDuration parses a Go duration string, additionally accepting a whole
// number of days such as "30d".
func ParseDuration(s string) (time.Duration, error) {
	if strings.HasSuffix(s, "d") {
		trimmed := strings.TrimSuffix(s, "d")
		days, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid day duration %q: %w", s, err)
		}
		if days > maxDays || days < -maxDays {
			return 0, fmt.Errorf("day duration %q out of range (max %dd)", s, maxDays)
		}
		return time.Duration(days) * day, nil
	}
	return time.ParseDuration(s)
}
