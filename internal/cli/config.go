package cli

import (
	"fmt"

	"github.com/mcoot/dilemmagame/internal/config"
)

// Output formats
const (
	OutputText = "text"
	OutputJSON = "json"
)

// Config holds CLI configuration
type Config struct {
	ServerURL string `env:"DILEMMA_SERVER" envDefault:"http://localhost:3001"`
	Output    string `env:"DILEMMA_OUTPUT" envDefault:"text"`
	Verbose   bool   `env:"DILEMMA_VERBOSE"`
}

// DefaultConfig returns a Config populated from the environment
func DefaultConfig() *Config {
	c := &Config{ServerURL: "http://localhost:3001", Output: OutputText}
	// Flags still apply when the environment is malformed
	_ = config.ParseEnv(c)
	return c
}

// Validate checks flag values after parsing
func (c *Config) Validate() error {
	if c.Output != OutputText && c.Output != OutputJSON {
		return fmt.Errorf("invalid output format %q: must be text or json", c.Output)
	}
	if c.ServerURL == "" {
		return fmt.Errorf("server URL is required")
	}
	return nil
}
