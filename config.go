package receiver

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the construction parameters of a Receiver.
type Config struct {
	// Mode is the initial demodulation mode.
	Mode string `yaml:"mode"`

	// InputRate is the IQ sample rate in Hz.
	InputRate int `yaml:"input_rate"`

	// InputCenterFreq is the RF frequency at the center of the input band.
	InputCenterFreq float64 `yaml:"input_center_freq"`

	// RecFreq is the RF frequency to receive.
	RecFreq float64 `yaml:"rec_freq"`

	// AudioRate is the output sample rate in Hz. It is fixed for the life of
	// the receiver.
	AudioRate int `yaml:"audio_rate"`

	AudioGain float64 `yaml:"audio_gain"`
	AudioPan  float64 `yaml:"audio_pan"`

	// State seeds the first demodulator.
	State DemodState `yaml:"state,omitempty"`
}

// DefaultConfig returns a configuration with the package defaults.
func DefaultConfig() *Config {
	return &Config{
		Mode:      defaultMode,
		InputRate: defaultInputRate,
		AudioRate: defaultAudioRate,
		AudioGain: defaultAudioGain,
		AudioPan:  defaultAudioPan,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.InputRate <= 0 || c.AudioRate <= 0 {
		return fmt.Errorf("%w: sample rates must be positive", ErrInvalidConfig)
	}
	if c.Mode == "" {
		return fmt.Errorf("%w: mode must be set", ErrInvalidConfig)
	}
	return nil
}

// ParseConfig decodes YAML on top of DefaultConfig and validates the result.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Marshal encodes the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
