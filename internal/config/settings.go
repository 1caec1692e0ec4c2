package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultConfigFile = "deploy.yml"
	DefaultTimeout    = 10 * time.Second
	EnvPrefix         = "GAEDEPLOY"
)

// Settings are the per-invocation knobs that do not live in deploy.yml.
type Settings struct {
	ConfigFile  string        `mapstructure:"config"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Verbose     bool          `mapstructure:"verbose"`
	DryRun      bool          `mapstructure:"dry-run"`
	MetricsFile string        `mapstructure:"metrics-file"`
	Trace       bool          `mapstructure:"trace"`
	GitToken    string        `mapstructure:"git-token"`
}

// NewViper returns a viper instance with defaults and GAEDEPLOY_* env lookup.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("config", DefaultConfigFile)
	v.SetDefault("timeout", DefaultTimeout.String())
	v.SetDefault("verbose", false)
	v.SetDefault("dry-run", false)
	v.SetDefault("metrics-file", "")
	v.SetDefault("trace", false)
	v.SetDefault("git-token", "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	// fall back to the tokens CI systems usually export
	_ = v.BindEnv("git-token", EnvPrefix+"_GIT_TOKEN", "GIT_TOKEN", "GITHUB_TOKEN")
	return v
}

// LoadSettings reads the resolved settings out of v.
func LoadSettings(v *viper.Viper) (Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, err
	}
	if s.ConfigFile == "" {
		s.ConfigFile = DefaultConfigFile
	}
	if s.Timeout <= 0 {
		s.Timeout = DefaultTimeout
	}
	return s, nil
}
