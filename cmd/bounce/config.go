package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// settings is the merged view of defaults, config file, BOUNCE_* environment
// variables and flags, in increasing order of precedence.
type settings struct {
	Height      float64       `mapstructure:"height"`
	Restitution float64       `mapstructure:"restitution"`
	Bounces     int           `mapstructure:"bounces"`
	Variants    []string      `mapstructure:"variants"`
	LogLevel    string        `mapstructure:"log_level"`
	Bench       benchSettings `mapstructure:"bench"`
}

type benchSettings struct {
	MaxN     int           `mapstructure:"max_n"`
	MinTime  time.Duration `mapstructure:"min_time"`
	Warmup   time.Duration `mapstructure:"warmup"`
	Samples  int           `mapstructure:"samples"`
	MaxProcs int           `mapstructure:"max_procs"`
	Out      string        `mapstructure:"out"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("height", 10.0)
	v.SetDefault("restitution", 0.85)
	v.SetDefault("bounces", 10)
	v.SetDefault("variants", []string{})
	v.SetDefault("log_level", "info")

	v.SetDefault("bench.max_n", 4096)
	v.SetDefault("bench.min_time", "20ms")
	v.SetDefault("bench.warmup", "5ms")
	v.SetDefault("bench.samples", 3)
	v.SetDefault("bench.max_procs", 0)
	v.SetDefault("bench.out", "")
}

// loadSettings reads the optional config file and decodes everything into
// settings. Flags must already be bound.
func loadSettings(v *viper.Viper, configPath string) (settings, error) {
	setDefaults(v)

	v.SetEnvPrefix("BOUNCE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return settings{}, fmt.Errorf("read config %s: %w", configPath, err)
		}
	}

	var s settings
	if err := v.Unmarshal(&s); err != nil {
		return settings{}, fmt.Errorf("decode config: %w", err)
	}
	if s.Bounces < 1 {
		return settings{}, fmt.Errorf("bounces must be at least 1, got %d", s.Bounces)
	}
	return s, nil
}

// bindFlags binds each named flag in fs to the viper key of the same name
// with dashes turned into underscores, under prefix.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet, prefix string, names ...string) error {
	for _, name := range names {
		key := strings.ReplaceAll(name, "-", "_")
		if prefix != "" {
			key = prefix + "." + key
		}
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			return fmt.Errorf("bind --%s: %w", name, err)
		}
	}
	return nil
}

func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      lvl,
		TimeFormat: "15:04:05",
	})), nil
}
