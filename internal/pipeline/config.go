package pipeline

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// RunConfig describes one batch run. Empty Characters or Scenarios
// mean everything loaded.
type RunConfig struct {
	Characters []string `yaml:"characters"`
	Scenarios  []string `yaml:"scenarios"`

	// Provider is the chat provider spec answering as the character.
	Provider string `yaml:"provider" validate:"required"`

	// Judges lists the provider specs forming the judge panel.
	Judges []string `yaml:"judges" validate:"required,min=1,dive,required"`

	// SessionID groups the run's artifacts; empty means auto-generated.
	SessionID string `yaml:"session_id"`

	// Workers bounds concurrent jobs; zero means the default.
	Workers int `yaml:"workers" validate:"gte=0,lte=64"`

	// UserName is the simulated user's name in conversations.
	UserName string `yaml:"user_name"`
}

// Validate checks the config against its constraints.
func (c RunConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid run config: %w", err)
	}
	return nil
}

func (c RunConfig) withDefaults() RunConfig {
	if c.Workers == 0 {
		c.Workers = DefaultWorkers
	}
	return c
}

// LoadRunConfig reads a YAML run config from path and validates it.
func LoadRunConfig(path string) (RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RunConfig{}, fmt.Errorf("reading run config: %w", err)
	}

	var cfg RunConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return RunConfig{}, fmt.Errorf("parsing run config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return RunConfig{}, err
	}
	return cfg, nil
}
