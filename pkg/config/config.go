// Package config holds the settings of the jscore front end and the CLI,
// read from a YAML file and overridden by command-line flags.
package config

import (
	"io/ioutil"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v2"

	"jscore/pkg/parser"
)

// Destructuring tunes when object-pattern lookups switch to a hash table.
type Destructuring struct {
	StepHashThreshold int `yaml:"step_hash_threshold"`
	BigDestructuring  int `yaml:"big_destructuring"`
	BigObjectInit     int `yaml:"big_object_init"`
}

// Cache sizes the compile cache. A size of 0 disables it.
type Cache struct {
	Size int `yaml:"size"`
}

// Log configures the zap logger.
type Log struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Config is the effective configuration.
type Config struct {
	Version                string        `yaml:"version"`
	Strict                 bool          `yaml:"strict"`
	Fold                   bool          `yaml:"fold"`
	RequireLiteralKeyPaths bool          `yaml:"require_literal_key_paths"`
	MaxCallDepth           int           `yaml:"max_call_depth"`
	Workers                int           `yaml:"workers"`
	Destructuring          Destructuring `yaml:"destructuring"`
	Cache                  Cache         `yaml:"cache"`
	Log                    Log           `yaml:"log"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Version:                "1.8",
		Fold:                   true,
		RequireLiteralKeyPaths: true,
		MaxCallDepth:           1000,
		Workers:                4,
		Destructuring: Destructuring{
			StepHashThreshold: 10,
			BigDestructuring:  5,
			BigObjectInit:     20,
		},
		Cache: Cache{Size: 128},
		Log:   Log{Level: "info"},
	}
}

// Load reads path over the defaults and validates the result. Keys the
// file leaves out keep their default values.
func Load(path string) (*Config, error) {
	buf, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %s", path)
	}
	return Parse(buf)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(buf []byte) (*Config, error) {
	c := Default()
	if err := yaml.UnmarshalStrict(buf, c); err != nil {
		return nil, errors.Wrap(err, "decoding config")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks that every setting is usable.
func (c *Config) Validate() error {
	if _, err := c.ParserVersion(); err != nil {
		return err
	}
	d := c.Destructuring
	if d.StepHashThreshold < 1 || d.BigDestructuring < 1 || d.BigObjectInit < 1 {
		return errors.Errorf("destructuring thresholds must be positive, got %d/%d/%d",
			d.StepHashThreshold, d.BigDestructuring, d.BigObjectInit)
	}
	if c.Cache.Size < 0 {
		return errors.Errorf("cache size must not be negative, got %d", c.Cache.Size)
	}
	if c.MaxCallDepth < 1 {
		return errors.Errorf("max_call_depth must be positive, got %d", c.MaxCallDepth)
	}
	if c.Workers < 1 {
		return errors.Errorf("workers must be positive, got %d", c.Workers)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// ParserVersion maps the version setting to the parser's.
func (c *Config) ParserVersion() (parser.Version, error) {
	switch c.Version {
	case "1.7":
		return parser.Version17, nil
	case "1.8", "":
		return parser.Version18, nil
	}
	return 0, errors.Errorf("unsupported language version %q (want 1.7 or 1.8)", c.Version)
}

// ParserOptions returns the parse options the configuration selects.
func (c *Config) ParserOptions() parser.Options {
	v, err := c.ParserVersion()
	if err != nil {
		v = parser.Version18
	}
	return parser.Options{
		Version:                v,
		Strict:                 c.Strict,
		RequireLiteralKeyPaths: c.RequireLiteralKeyPaths,
		StepHashThreshold:      c.Destructuring.StepHashThreshold,
		BigDestructuring:       c.Destructuring.BigDestructuring,
		BigObjectInit:          c.Destructuring.BigObjectInit,
	}
}

// LogLevel parses the log level setting.
func (c *Config) LogLevel() (zapcore.Level, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return lvl, errors.Wrapf(err, "log level %q", c.Log.Level)
	}
	return lvl, nil
}

// NewLogger builds the logger the configuration describes.
func (c *Config) NewLogger() (*zap.Logger, error) {
	lvl, err := c.LogLevel()
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.OutputPaths = []string{"stderr"}
	logger, err := zc.Build()
	if err != nil {
		return nil, errors.Wrap(err, "building logger")
	}
	return logger, nil
}
