// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ExponentialDS/vid-text/internal/config"
	"github.com/ExponentialDS/vid-text/internal/version"
)

func runConfigCLI(args []string) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printConfigUsage()
		return 0
	}

	switch args[0] {
	case "validate":
		return runConfigValidate(args[1:])
	case "dump":
		return runConfigDump(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown subcommand: %s\n\n", args[0])
		printConfigUsage()
		return 2
	}
}

func printConfigUsage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  vid-text config validate [--file|-f config.yaml]")
	fmt.Fprintln(os.Stderr, "  vid-text config dump --effective [--file|-f config.yaml] [--format=yaml|json]")
}

func runConfigValidate(args []string) int {
	fs := flag.NewFlagSet("vid-text config validate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var file string
	fs.StringVar(&file, "file", "", "path to YAML configuration file")
	fs.StringVar(&file, "f", "", "path to YAML configuration file (shorthand)")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	configPath := strings.TrimSpace(file)
	if configPath == "" {
		configPath = resolveDefaultConfigPath()
	}
	if configPath == "" {
		fmt.Fprintln(os.Stderr, "Error: --file is required (no default config.yaml found in $VIDTEXT_DATA_DIR)")
		return 2
	}

	loader := config.NewLoader(configPath, version.Version)
	if _, err := loader.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error in %s:\n  %v\n", configPath, err)
		return 1
	}

	fmt.Printf("✓ %s is valid\n", configPath)
	return 0
}

func runConfigDump(args []string) int {
	fs := flag.NewFlagSet("vid-text config dump", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var file string
	var format string
	var effective bool

	fs.StringVar(&file, "file", "", "path to YAML configuration file")
	fs.StringVar(&file, "f", "", "path to YAML configuration file (shorthand)")
	fs.StringVar(&format, "format", "yaml", "output format: yaml or json")
	fs.BoolVar(&effective, "effective", false, "dump effective configuration (defaults + file + env)")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if !effective {
		fmt.Fprintln(os.Stderr, "Error: --effective is required")
		return 2
	}

	configPath := strings.TrimSpace(file)
	if configPath == "" {
		configPath = resolveDefaultConfigPath()
	}

	loader := config.NewLoader(configPath, version.Version)
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error in %s:\n  %v\n", configPath, err)
		return 1
	}

	view := effectiveViewFromConfig(cfg)

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "yaml", "yml":
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(view); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode YAML: %v\n", err)
			return 1
		}
		_ = enc.Close()
		return 0
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(view); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unsupported format: %s (use yaml or json)\n", format)
		return 2
	}
}

// effectiveView is the printable shape of the resolved configuration.
// Secrets are redacted, durations rendered as strings.
type effectiveView struct {
	Version       string   `yaml:"version" json:"version"`
	Listen        string   `yaml:"listen" json:"listen"`
	MetricsListen string   `yaml:"metricsListen,omitempty" json:"metricsListen,omitempty"`
	DataDir       string   `yaml:"dataDir" json:"dataDir"`
	APIToken      string   `yaml:"apiToken,omitempty" json:"apiToken,omitempty"`
	LogLevel      string   `yaml:"logLevel" json:"logLevel"`
	CORSOrigins   []string `yaml:"corsOrigins,omitempty" json:"corsOrigins,omitempty"`
	ReadyStrict   bool     `yaml:"readyStrict" json:"readyStrict"`

	Languages          []string `yaml:"languages" json:"languages"`
	TranslateTo        string   `yaml:"translateTo" json:"translateTo"`
	PreserveFormatting bool     `yaml:"preserveFormatting" json:"preserveFormatting"`

	YouTube struct {
		Timeout          string  `yaml:"timeout" json:"timeout"`
		UserAgent        string  `yaml:"userAgent" json:"userAgent"`
		RateRPS          float64 `yaml:"rateRps" json:"rateRps"`
		RateBurst        int     `yaml:"rateBurst" json:"rateBurst"`
		BreakerThreshold int     `yaml:"breakerThreshold" json:"breakerThreshold"`
		BreakerReset     string  `yaml:"breakerReset" json:"breakerReset"`
	} `yaml:"youtube" json:"youtube"`

	Proxy struct {
		HTTPURL           string   `yaml:"httpUrl,omitempty" json:"httpUrl,omitempty"`
		HTTPSURL          string   `yaml:"httpsUrl,omitempty" json:"httpsUrl,omitempty"`
		WebshareUsername  string   `yaml:"webshareUsername,omitempty" json:"webshareUsername,omitempty"`
		WebsharePassword  string   `yaml:"websharePassword,omitempty" json:"websharePassword,omitempty"`
		WebshareCountries []string `yaml:"webshareCountries,omitempty" json:"webshareCountries,omitempty"`
	} `yaml:"proxy" json:"proxy"`

	Cache struct {
		Backend   string `yaml:"backend" json:"backend"`
		TTL       string `yaml:"ttl" json:"ttl"`
		RedisAddr string `yaml:"redisAddr,omitempty" json:"redisAddr,omitempty"`
		RedisDB   int    `yaml:"redisDb,omitempty" json:"redisDb,omitempty"`
	} `yaml:"cache" json:"cache"`

	Store struct {
		Dir string `yaml:"dir" json:"dir"`
		TTL string `yaml:"ttl" json:"ttl"`
	} `yaml:"store" json:"store"`

	Archive struct {
		Path string `yaml:"path" json:"path"`
	} `yaml:"archive" json:"archive"`
}

func effectiveViewFromConfig(cfg config.AppConfig) effectiveView {
	var v effectiveView
	v.Version = cfg.Version
	v.Listen = cfg.Listen
	v.MetricsListen = cfg.MetricsListen
	v.DataDir = cfg.DataDir
	v.APIToken = redact(cfg.APIToken)
	v.LogLevel = cfg.LogLevel
	v.CORSOrigins = cfg.CORSOrigins
	v.ReadyStrict = cfg.ReadyStrict

	v.Languages = cfg.Languages
	v.TranslateTo = cfg.TranslateTo
	v.PreserveFormatting = cfg.PreserveFormatting

	v.YouTube.Timeout = cfg.YouTube.Timeout.String()
	v.YouTube.UserAgent = cfg.YouTube.UserAgent
	v.YouTube.RateRPS = cfg.YouTube.RateRPS
	v.YouTube.RateBurst = cfg.YouTube.RateBurst
	v.YouTube.BreakerThreshold = cfg.YouTube.BreakerThreshold
	v.YouTube.BreakerReset = cfg.YouTube.BreakerReset.String()

	v.Proxy.HTTPURL = maskURL(cfg.Proxy.HTTPURL)
	v.Proxy.HTTPSURL = maskURL(cfg.Proxy.HTTPSURL)
	v.Proxy.WebshareUsername = cfg.Proxy.WebshareUsername
	v.Proxy.WebsharePassword = redact(cfg.Proxy.WebsharePassword)
	v.Proxy.WebshareCountries = cfg.Proxy.WebshareCountries

	v.Cache.Backend = cfg.Cache.Backend
	v.Cache.TTL = cfg.Cache.TTL.String()
	v.Cache.RedisAddr = cfg.Cache.RedisAddr
	v.Cache.RedisDB = cfg.Cache.RedisDB

	v.Store.Dir = cfg.Store.Dir
	v.Store.TTL = cfg.Store.TTL.String()

	v.Archive.Path = cfg.Archive.Path
	return v
}

func redact(secret string) string {
	if secret == "" {
		return ""
	}
	return "***"
}
