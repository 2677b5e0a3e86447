package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"nlu-regress/internal/matcher"
	"nlu-regress/internal/nlu"
	"nlu-regress/internal/util"
)

const (
	// FileBase is the configuration file name without extension.
	FileBase = "config"
	// EnvFile holds optional per-project overrides.
	EnvFile = ".env"

	DefaultMediumConfidence = 0.65
	DefaultHighConfidence   = 0.75
)

// Environment variables that override file configuration.
const (
	EnvDevURL           = "NLU_REGRESS_DEV_URL"
	EnvProdURL          = "NLU_REGRESS_PROD_URL"
	EnvMediumConfidence = "NLU_REGRESS_MEDIUM_CONFIDENCE"
	EnvHighConfidence   = "NLU_REGRESS_HIGH_CONFIDENCE"
	EnvTimeout          = "NLU_REGRESS_TIMEOUT"
	EnvToken            = "NLU_REGRESS_TOKEN"
)

// Target selects which configured endpoint a run talks to.
type Target string

const (
	Development Target = "dev"
	Production  Target = "prod"
)

// Endpoint is a named NLU parse URL.
type Endpoint struct {
	URL  string `yaml:"url" json:"url"`
	Name string `yaml:"name" json:"name"`
}

// Endpoints holds the development and production endpoints.
type Endpoints struct {
	Dev  Endpoint `yaml:"dev" json:"dev"`
	Prod Endpoint `yaml:"prod" json:"prod"`
}

// Config is the project configuration, loaded once per run.
type Config struct {
	Project          string    `yaml:"project" json:"project"`
	MediumConfidence *float64  `yaml:"mediumConfidence" json:"mediumConfidence"`
	HighConfidence   *float64  `yaml:"highConfidence" json:"highConfidence"`
	Endpoints        Endpoints `yaml:"endpoints" json:"endpoints"`
	Timeout          string    `yaml:"timeout" json:"timeout"`
	Concurrency      int       `yaml:"concurrency" json:"concurrency"`
	Token            string    `yaml:"-" json:"-"`

	path    string
	timeout time.Duration
}

// ErrUnknownTarget is returned for an endpoint selection other than dev or prod.
var ErrUnknownTarget = errors.New("unknown endpoint target")

// Load reads config.json (or config.yaml/config.yml) from the project
// directory, then applies overrides from <dir>/.env and the process
// environment, in that order of increasing precedence.
func Load(projectDir string) (*Config, error) {
	path, err := util.FindProjectFile(projectDir, FileBase)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &Config{}
	if err := util.DecodeProjectFile(path, data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.path = path

	dotenv, err := readDotenv(filepath.Join(projectDir, EnvFile))
	if err != nil {
		return nil, err
	}
	if err := cfg.applyOverrides(lookupFunc(dotenv)); err != nil {
		return nil, err
	}
	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readDotenv(path string) (map[string]string, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return values, nil
}

// lookupFunc resolves a key from the process environment first and the
// project's .env second.
func lookupFunc(dotenv map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), true
		}
		if v, ok := dotenv[key]; ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), true
		}
		return "", false
	}
}

func (c *Config) applyOverrides(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvDevURL); ok {
		c.Endpoints.Dev.URL = v
	}
	if v, ok := lookup(EnvProdURL); ok {
		c.Endpoints.Prod.URL = v
	}
	if v, ok := lookup(EnvMediumConfidence); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMediumConfidence, err)
		}
		c.MediumConfidence = &f
	}
	if v, ok := lookup(EnvHighConfidence); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvHighConfidence, err)
		}
		c.HighConfidence = &f
	}
	if v, ok := lookup(EnvTimeout); ok {
		c.Timeout = v
	}
	if v, ok := lookup(EnvToken); ok {
		c.Token = v
	}
	return nil
}

func (c *Config) finalize() error {
	if c.MediumConfidence == nil {
		v := DefaultMediumConfidence
		c.MediumConfidence = &v
	}
	if c.HighConfidence == nil {
		v := DefaultHighConfidence
		c.HighConfidence = &v
	}
	if err := c.Thresholds().Validate(); err != nil {
		return err
	}

	c.timeout = nlu.DefaultTimeout
	if strings.TrimSpace(c.Timeout) != "" {
		d, err := time.ParseDuration(strings.TrimSpace(c.Timeout))
		if err != nil {
			return fmt.Errorf("parse timeout %q: %w", c.Timeout, err)
		}
		if d <= 0 {
			return fmt.Errorf("timeout must be positive, got %s", d)
		}
		c.timeout = d
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must not be negative, got %d", c.Concurrency)
	}
	return nil
}

// Path is the file the configuration was read from.
func (c *Config) Path() string {
	return c.path
}

// Thresholds returns the confidence thresholds used for severity.
func (c *Config) Thresholds() matcher.Thresholds {
	th := matcher.Thresholds{Medium: DefaultMediumConfidence, High: DefaultHighConfidence}
	if c.MediumConfidence != nil {
		th.Medium = *c.MediumConfidence
	}
	if c.HighConfidence != nil {
		th.High = *c.HighConfidence
	}
	return th
}

// RequestTimeout is the per-request NLU timeout.
func (c *Config) RequestTimeout() time.Duration {
	if c.timeout <= 0 {
		return nlu.DefaultTimeout
	}
	return c.timeout
}

// Endpoint resolves the endpoint for a target. An endpoint without a name is
// named after its target.
func (c *Config) Endpoint(target Target) (Endpoint, error) {
	var ep Endpoint
	switch target {
	case Development, "":
		ep = c.Endpoints.Dev
		target = Development
	case Production:
		ep = c.Endpoints.Prod
	default:
		return Endpoint{}, fmt.Errorf("%w: %q", ErrUnknownTarget, target)
	}
	ep.URL = strings.TrimSpace(ep.URL)
	if ep.URL == "" {
		return Endpoint{}, fmt.Errorf("endpoint %s has no url", target)
	}
	if strings.TrimSpace(ep.Name) == "" {
		ep.Name = string(target)
	}
	return ep, nil
}

// ClientConfig builds the NLU transport configuration for a target.
func (c *Config) ClientConfig(target Target) (nlu.Config, Endpoint, error) {
	ep, err := c.Endpoint(target)
	if err != nil {
		return nlu.Config{}, Endpoint{}, err
	}
	return nlu.Config{
		URL:     ep.URL,
		Project: c.Project,
		Token:   c.Token,
		Timeout: c.RequestTimeout(),
	}, ep, nil
}
