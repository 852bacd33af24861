package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	skemajson "github.com/reoring/skemajson"
	"github.com/reoring/skemajson/i18n"
)

// defaultConfigFile is read from the working directory when --config is not
// given. A missing default file is not an error.
const defaultConfigFile = ".skemajson.yaml"

// Config holds the settings shared by every subcommand. Command-line flags
// override the file.
type Config struct {
	Indent      string     `yaml:"indent"`
	Compression string     `yaml:"compression"`
	Driver      string     `yaml:"driver"` // "std" or "gojson"
	Lang        string     `yaml:"lang"`   // message language, "en" or "ja"
	Jobs        int        `yaml:"jobs"`
	Read        ReadConfig `yaml:"read"`
}

type ReadConfig struct {
	MaxDepth      int    `yaml:"maxDepth"`
	MaxBytes      int64  `yaml:"maxBytes"`
	AllowComments bool   `yaml:"allowComments"`
	DuplicateKeys string `yaml:"duplicateKeys"` // ignore, warn or error
}

func defaultConfig() Config {
	return Config{
		Indent: "  ",
		Driver: "std",
		Lang:   "en",
		Jobs:   4,
		Read:   ReadConfig{DuplicateKeys: "error"},
	}
}

// loadConfig reads path over the defaults. Unknown keys are rejected.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.Jobs < 1 {
		return fmt.Errorf("jobs must be positive, got %d", c.Jobs)
	}
	switch c.Driver {
	case "std", "gojson":
	default:
		return fmt.Errorf("unknown driver %q", c.Driver)
	}
	if _, err := skemajson.ParseCompression(c.Compression); err != nil {
		return err
	}
	_, err := parseSeverity(c.Read.DuplicateKeys)
	return err
}

func (c Config) readOpt(onWarning func(skemajson.Warning)) (skemajson.ReadOpt, error) {
	sev, err := parseSeverity(c.Read.DuplicateKeys)
	if err != nil {
		return skemajson.ReadOpt{}, err
	}
	return skemajson.ReadOpt{
		Strictness:    skemajson.Strictness{OnDuplicateKey: sev},
		MaxDepth:      c.Read.MaxDepth,
		MaxBytes:      c.Read.MaxBytes,
		AllowComments: c.Read.AllowComments,
		OnWarning:     onWarning,
	}, nil
}

func (c Config) writeOpt() (skemajson.WriteOpt, error) {
	comp, err := skemajson.ParseCompression(c.Compression)
	if err != nil {
		return skemajson.WriteOpt{}, err
	}
	return skemajson.WriteOpt{Indent: c.Indent, Compression: comp}, nil
}

// apply makes the process-wide settings (driver, message language) current.
func (c Config) apply() {
	if c.Driver == "gojson" {
		skemajson.UseGoJSONDriver()
	} else {
		skemajson.UseDefaultJSONDriver()
	}
	i18n.SetLanguage(c.Lang)
}

func parseSeverity(s string) (skemajson.Severity, error) {
	switch strings.ToLower(s) {
	case "", "ignore":
		return skemajson.Ignore, nil
	case "warn":
		return skemajson.Warn, nil
	case "error":
		return skemajson.Error, nil
	}
	return skemajson.Ignore, fmt.Errorf("unknown severity %q", s)
}
