package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/pelletier/go-toml/v2"

	"github.com/maksimkurb/fw-ipsets/src/internal/log"
)

var (
	setNameRegexp = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.\-]*$`)
	suffixRegexp  = regexp.MustCompile(`^[A-Za-z0-9_.\-]+$`)
)

func LoadConfig(configPath string) (*Config, error) {
	configFile := filepath.Clean(configPath)

	if !filepath.IsAbs(configFile) {
		if path, err := filepath.Abs(configFile); err != nil {
			return nil, fmt.Errorf("failed to get absolute path: %v", err)
		} else {
			configFile = path
		}
	}

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		log.Errorf("Configuration file not found: %s", configFile)
		return nil, fmt.Errorf("configuration file not found: %s", configFile)
	}

	content, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %v", err)
	}

	config, err := ParseConfig(content)
	if err != nil {
		return nil, err
	}

	config._absConfigFilePath = configFile

	log.Debugf("Configuration file path: %s", configFile)
	log.Debugf("Configured ipsets: %d", len(config.IPSets))

	return config, nil
}

// ParseConfig decodes TOML content. Unknown keys are rejected so typos in
// set definitions do not silently fall back to defaults.
func ParseConfig(content []byte) (*Config, error) {
	var config Config

	dec := toml.NewDecoder(bytes.NewReader(content))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&config); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			log.Errorf(derr.String())
			row, col := derr.Position()
			log.Errorf("Error at line %d, column %d", row, col)
			return nil, fmt.Errorf("failed to parse config file: %v", err)
		}
		var serr *toml.StrictMissingError
		if errors.As(err, &serr) {
			log.Errorf(serr.String())
			return nil, fmt.Errorf("failed to parse config file: unknown configuration keys")
		}
		return nil, fmt.Errorf("failed to parse config file: %v", err)
	}

	return &config, nil
}

func (c *Config) SerializeConfig() (*bytes.Buffer, error) {
	buf := bytes.Buffer{}
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	return &buf, nil
}

// ApplyDefaults fills optional fields with their effective values.
// It must run after ValidateConfig: validation checks what the user wrote.
func (c *Config) ApplyDefaults() {
	for _, def := range c.IPSets {
		def.Backend = def.Backend.Normalized()
		if def.IPVersion == 0 {
			def.IPVersion = Ipv4
		}
		if def.IsNFT() && def.Family == "" {
			def.Family = DefaultNFTFamily
		}
		if def.KernelOpts == nil {
			def.KernelOpts = []string{}
		}
	}
}
