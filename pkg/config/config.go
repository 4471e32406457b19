// CLAUDE:SUMMARY Application configuration (viper: config.yaml, CLEANER_* env, defaults) and the global zap logger.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hazyhaar/touchstone-cleaner/pkg/cleaning"
	"github.com/hazyhaar/touchstone-cleaner/pkg/names"
)

// Config holds the full application configuration.
type Config struct {
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	LegalForms LegalFormsConfig `yaml:"legal_forms" mapstructure:"legal_forms"`
	Names      NamesConfig      `yaml:"names" mapstructure:"names"`
	Import     ImportConfig     `yaml:"import" mapstructure:"import"`
	Batch      BatchConfig      `yaml:"batch" mapstructure:"batch"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ServerConfig configures the HTTP and MCP server.
type ServerConfig struct {
	Addr        string   `yaml:"addr" mapstructure:"addr"`
	RateLimit   float64  `yaml:"rate_limit" mapstructure:"rate_limit"`
	Burst       int      `yaml:"burst" mapstructure:"burst"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	MaxBatch    int      `yaml:"max_batch" mapstructure:"max_batch"`
	// QUICAddr enables MCP over QUIC when set. Without a certificate pair a
	// self-signed one is generated.
	QUICAddr string `yaml:"quic_addr" mapstructure:"quic_addr"`
	TLSCert  string `yaml:"tls_cert" mapstructure:"tls_cert"`
	TLSKey   string `yaml:"tls_key" mapstructure:"tls_key"`
}

// LegalFormsConfig points at a resource directory. Empty means the embedded resources.
type LegalFormsConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// NamesConfig holds the default normalizer options.
type NamesConfig struct {
	LetterCase          string `yaml:"letter_case" mapstructure:"letter_case"`
	LegalTermLocation   string `yaml:"legal_term_location" mapstructure:"legal_term_location"`
	RemoveUnicode       bool   `yaml:"remove_unicode" mapstructure:"remove_unicode"`
	RemoveAccents       bool   `yaml:"remove_accents" mapstructure:"remove_accents"`
	NormalizeLegalTerms bool   `yaml:"normalize_legal_terms" mapstructure:"normalize_legal_terms"`
	Strict              bool   `yaml:"strict" mapstructure:"strict"`
}

// ImportConfig configures legal-form imports and source checks.
type ImportConfig struct {
	SourcesDB     string        `yaml:"sources_db" mapstructure:"sources_db"`
	OutputDir     string        `yaml:"output_dir" mapstructure:"output_dir"`
	CheckInterval time.Duration `yaml:"check_interval" mapstructure:"check_interval"`
}

// BatchConfig configures table cleaning.
type BatchConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// Load reads configuration from file and environment. path may name a config
// file; otherwise config.yaml is looked up in the working directory.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix("CLEANER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.addr", ":8420")
	v.SetDefault("server.rate_limit", 50.0)
	v.SetDefault("server.burst", 100)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.max_batch", 1000)
	v.SetDefault("server.quic_addr", "")
	v.SetDefault("server.tls_cert", "")
	v.SetDefault("server.tls_key", "")
	v.SetDefault("legal_forms.dir", "")
	v.SetDefault("names.letter_case", "lower")
	v.SetDefault("names.legal_term_location", "at_end")
	v.SetDefault("names.remove_unicode", false)
	v.SetDefault("names.remove_accents", false)
	v.SetDefault("names.normalize_legal_terms", true)
	v.SetDefault("names.strict", false)
	v.SetDefault("import.sources_db", "sources.db")
	v.SetDefault("import.output_dir", "legal_forms")
	v.SetDefault("import.check_interval", 24*time.Hour)
	v.SetDefault("batch.concurrency", 0)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	if _, err := cfg.Names.Normalizer(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalizer converts the names section into normalizer options.
func (c NamesConfig) Normalizer() (names.Config, error) {
	cfg := names.DefaultConfig()
	lc, err := cleaning.ParseLetterCase(c.LetterCase)
	if err != nil {
		return cfg, eris.Wrap(err, "config: names.letter_case")
	}
	loc, err := names.ParseLocation(c.LegalTermLocation)
	if err != nil {
		return cfg, eris.Wrap(err, "config: names.legal_term_location")
	}
	cfg.LetterCase = lc
	cfg.Location = loc
	cfg.RemoveUnicode = c.RemoveUnicode
	cfg.RemoveAccents = c.RemoveAccents
	cfg.NormalizeLegalTerms = c.NormalizeLegalTerms
	if c.Strict {
		cfg.Mode = cleaning.Strict
	}
	return cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
