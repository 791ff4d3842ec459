// Package config loads mdzip settings from mdzip.yaml, MDZIP_* environment
// variables and command flags through viper, and validates the result.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides, e.g. MDZIP_LAYOUT.
const EnvPrefix = "MDZIP"

type Columns struct {
	Title   string `mapstructure:"title" validate:"required"`
	Body    string `mapstructure:"body" validate:"required"`
	Section string `mapstructure:"section"`
}

type Slug struct {
	Lowercase   bool `mapstructure:"lowercase"`
	StripDigits bool `mapstructure:"strip_digits"`
	Number      bool `mapstructure:"number"`
}

type Server struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port" validate:"min=1,max=65535"`
	MaxUploadMB int64  `mapstructure:"max_upload_mb" validate:"min=1"`
}

type Log struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error disabled"`
	JSON  bool   `mapstructure:"json"`
}

// Config is the full set of conversion and server settings.
type Config struct {
	Layout          string  `mapstructure:"layout" validate:"oneof=flat sections single"`
	Format          string  `mapstructure:"format" validate:"oneof=markdown json html pdf"`
	Engine          string  `mapstructure:"engine" validate:"oneof=rules commonmark"`
	Columns         Columns `mapstructure:"columns"`
	ImageFolder     string  `mapstructure:"image_folder" validate:"required,excludesall=/\\"`
	Summary         bool    `mapstructure:"summary"`
	Slug            Slug    `mapstructure:"slug"`
	Dedupe          bool    `mapstructure:"dedupe"`
	ExtractMain     bool    `mapstructure:"extract_main"`
	LenientCallouts bool    `mapstructure:"lenient_callouts"`
	Workspace       string  `mapstructure:"workspace" validate:"oneof=os memory"`
	Server          Server  `mapstructure:"server"`
	Log             Log     `mapstructure:"log"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("layout", "sections")
	v.SetDefault("format", "markdown")
	v.SetDefault("engine", "rules")
	v.SetDefault("columns.title", "article_title")
	v.SetDefault("columns.body", "article_body")
	v.SetDefault("columns.section", "section")
	v.SetDefault("image_folder", "images")
	v.SetDefault("summary", false)
	v.SetDefault("slug.lowercase", false)
	v.SetDefault("slug.strip_digits", false)
	v.SetDefault("slug.number", true)
	v.SetDefault("dedupe", false)
	v.SetDefault("extract_main", false)
	v.SetDefault("lenient_callouts", false)
	v.SetDefault("workspace", "os")
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.max_upload_mb", 32)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
}

// Init prepares v: defaults, environment binding and the config file
// search path. An explicit file path overrides the search.
func Init(v *viper.Viper, file string) error {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("mdzip")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "mdzip"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// Load decodes and validates the settings held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New()

// Validate checks struct constraints on cfg.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("configuration cannot be nil")
	}
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Default returns the configuration produced by the defaults alone.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := Load(v)
	if err != nil {
		panic(fmt.Sprintf("default configuration is invalid: %v", err))
	}
	return cfg
}

// MaxUploadBytes is the server upload limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.Server.MaxUploadMB << 20
}

// Addr is the server listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
