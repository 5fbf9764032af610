package config

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/spf13/viper"

	"github.com/dvirhilu/NMR-Preamplifier/pkg/models"
)

// EnvPrefix is prepended to every environment variable, e.g. AMPDESIGN_VCC
const EnvPrefix = "AMPDESIGN"

// Keys shared by flags, environment variables and config files
const (
	KeyVcc             = "Vcc"
	KeyVbe             = "Vbe"
	KeyEmitterCurrent  = "emitterCurrent"
	KeyBeta            = "beta"
	KeyThermalVoltage  = "thermalVoltage"
	KeyCPi             = "Cpi"
	KeyCMu             = "Cmu"
	KeyCSeries         = "Cseries"
	KeyRC              = "RC"
	KeyRE              = "RE"
	KeyVce             = "Vce"
	KeyVce1            = "Vce1"
	KeyVce2            = "Vce2"
	KeyRParallel       = "rParallel"
	KeyTargetImpedance = "targetImpedanceMagnitude"

	KeySweepStart   = "fStart"
	KeySweepStop    = "fStop"
	KeySweepPoints  = "points"
	KeySweepSpacing = "spacing"

	KeyOutputDir    = "output"
	KeyOutputFormat = "format"
	KeyNoPlots      = "no-plots"

	KeyLogLevel  = "log-level"
	KeyLogPretty = "log-pretty"
)

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config holds all configuration for a run
type Config struct {
	Amplifier AmplifierConfig
	Sweep     SweepConfig
	Output    OutputConfig
	Log       LogConfig
}

// AmplifierConfig holds the design inputs
type AmplifierConfig struct {
	Vcc             float64
	Vbe             float64
	EmitterCurrent  float64
	Beta            float64
	ThermalVoltage  float64
	CPi             float64
	CMu             float64
	CSeries         float64
	RC              float64
	Vce             float64
	Vce1            float64
	Vce2            float64
	RParallel       float64
	TargetImpedance float64

	// RE is only used when RESupplied is set
	RE         float64
	RESupplied bool
}

// SweepConfig holds the frequency sweep
type SweepConfig struct {
	Start   float64
	Stop    float64
	Points  int
	Spacing string
}

// OutputConfig holds where and how results are written
type OutputConfig struct {
	Dir     string
	Format  string
	NoPlots bool
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string
	Pretty bool
}

// SetDefaults registers every documented default on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyVcc, 3.3)
	v.SetDefault(KeyVbe, 0.76)
	v.SetDefault(KeyEmitterCurrent, 5e-3)
	v.SetDefault(KeyBeta, 330.0)
	v.SetDefault(KeyThermalVoltage, 27e-3)
	v.SetDefault(KeyCPi, 0.595e-12)
	v.SetDefault(KeyCMu, 0.147e-12)
	v.SetDefault(KeyCSeries, math.Inf(1))
	v.SetDefault(KeyRC, 50.0)
	v.SetDefault(KeyVce, 1.0)
	v.SetDefault(KeyVce1, 1.0)
	v.SetDefault(KeyVce2, 0.5)
	v.SetDefault(KeyRParallel, 50.0)
	v.SetDefault(KeyTargetImpedance, 50.0)

	v.SetDefault(KeySweepStart, 125e6)
	v.SetDefault(KeySweepStop, 500e6)
	v.SetDefault(KeySweepPoints, 1000)
	v.SetDefault(KeySweepSpacing, "linear")

	v.SetDefault(KeyOutputDir, "out")
	v.SetDefault(KeyOutputFormat, FormatText)
	v.SetDefault(KeyNoPlots, false)

	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogPretty, true)
}

// New returns a viper instance with defaults and environment binding.
// RE deliberately has no default so that IsSet reports whether it was given.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv(KeyRE)
	return v
}

// ReadFile merges a config file into v. An empty path looks for an
// optional ampdesign.{yaml,json,toml} in the working directory.
func ReadFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigName("ampdesign")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// Load builds a Config from everything bound to v
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config

	cfg.Amplifier = AmplifierConfig{
		Vcc:             v.GetFloat64(KeyVcc),
		Vbe:             v.GetFloat64(KeyVbe),
		EmitterCurrent:  v.GetFloat64(KeyEmitterCurrent),
		Beta:            v.GetFloat64(KeyBeta),
		ThermalVoltage:  v.GetFloat64(KeyThermalVoltage),
		CPi:             v.GetFloat64(KeyCPi),
		CMu:             v.GetFloat64(KeyCMu),
		CSeries:         v.GetFloat64(KeyCSeries),
		RC:              v.GetFloat64(KeyRC),
		Vce:             v.GetFloat64(KeyVce),
		Vce1:            v.GetFloat64(KeyVce1),
		Vce2:            v.GetFloat64(KeyVce2),
		RParallel:       v.GetFloat64(KeyRParallel),
		TargetImpedance: v.GetFloat64(KeyTargetImpedance),
	}
	if v.IsSet(KeyRE) {
		cfg.Amplifier.RE = v.GetFloat64(KeyRE)
		cfg.Amplifier.RESupplied = true
	}

	cfg.Sweep = SweepConfig{
		Start:   v.GetFloat64(KeySweepStart),
		Stop:    v.GetFloat64(KeySweepStop),
		Points:  v.GetInt(KeySweepPoints),
		Spacing: v.GetString(KeySweepSpacing),
	}

	cfg.Output = OutputConfig{
		Dir:     v.GetString(KeyOutputDir),
		Format:  strings.ToLower(v.GetString(KeyOutputFormat)),
		NoPlots: v.GetBool(KeyNoPlots),
	}
	if cfg.Output.Format != FormatText && cfg.Output.Format != FormatJSON {
		return nil, fmt.Errorf("unknown output format %q: want %s or %s", cfg.Output.Format, FormatText, FormatJSON)
	}

	cfg.Log = LogConfig{
		Level:  v.GetString(KeyLogLevel),
		Pretty: v.GetBool(KeyLogPretty),
	}

	return &cfg, nil
}

// Parameters converts the amplifier configuration to solver input
func (a AmplifierConfig) Parameters() models.AmplifierParameters {
	return models.AmplifierParameters{
		Vcc:             a.Vcc,
		Vbe:             a.Vbe,
		EmitterCurrent:  a.EmitterCurrent,
		Beta:            a.Beta,
		ThermalVoltage:  a.ThermalVoltage,
		CPi:             a.CPi,
		CMu:             a.CMu,
		CSeries:         a.CSeries,
		RC:              a.RC,
		Vce:             a.Vce,
		Vce1:            a.Vce1,
		Vce2:            a.Vce2,
		RParallel:       a.RParallel,
		RE:              a.RE,
		RESupplied:      a.RESupplied,
		TargetImpedance: a.TargetImpedance,
	}
}
