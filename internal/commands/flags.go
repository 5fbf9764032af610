package commands

import (
	"math"

	"github.com/spf13/pflag"

	"github.com/dvirhilu/NMR-Preamplifier/internal/config"
)

// flagDef describes a flag backed by a config key. Defaults here are for
// help output only; the effective default comes from config.SetDefaults.
type flagDef struct {
	shorthand string
	value     float64
	usage     string
}

var amplifierFlags = map[string]flagDef{
	config.KeyVcc:             {"v", 3.3, "The power supply voltage of the circuit in V"},
	config.KeyVbe:             {"", 0.76, "The base-emitter voltage of the BJT in V"},
	config.KeyEmitterCurrent:  {"i", 5e-3, "Target current flow in the emitter branch in A"},
	config.KeyBeta:            {"b", 330, "Current amplification factor of the transistor"},
	config.KeyThermalVoltage:  {"", 27e-3, "Thermal voltage V_T in V"},
	config.KeyCPi:             {"", 0.595e-12, "C_pi of the transistor in the hybrid-pi model in F"},
	config.KeyCMu:             {"", 0.147e-12, "C_mu of the transistor in the hybrid-pi model in F"},
	config.KeyCSeries:         {"", math.Inf(1), "Series input capacitor in F (inf for none)"},
	config.KeyRC:              {"", 50, "Collector resistor in Ohms"},
	config.KeyRE:              {"", 0, "Emitter resistor in Ohms. When given, Vce and RC are not used to derive it"},
	config.KeyVce:             {"", 1, "Desired collector-emitter voltage of the common-emitter BJT in V"},
	config.KeyVce1:            {"", 1, "Desired collector-emitter voltage of the lower cascode BJT in V"},
	config.KeyVce2:            {"", 0.5, "Desired collector-emitter voltage of the upper cascode BJT in V"},
	config.KeyRParallel:       {"r", 50, "Desired parallel resistance of the input divider in Ohms"},
	config.KeyTargetImpedance: {"z", 50, "Target input impedance magnitude in Ohms"},
	config.KeySweepStart:      {"", 125e6, "Sweep start frequency in Hz"},
	config.KeySweepStop:       {"", 500e6, "Sweep stop frequency in Hz"},
}

// addAmplifierFlags registers the named config-backed flags on fs
func addAmplifierFlags(fs *pflag.FlagSet, keys ...string) {
	for _, key := range keys {
		def, ok := amplifierFlags[key]
		if !ok {
			panic("commands: no flag registered for " + key)
		}
		fs.Float64P(key, def.shorthand, def.value, def.usage)
	}
}

// addSweepFlags registers the frequency sweep flags on fs
func addSweepFlags(fs *pflag.FlagSet) {
	addAmplifierFlags(fs, config.KeySweepStart, config.KeySweepStop)
	fs.Int(config.KeySweepPoints, 1000, "Number of sweep points")
	fs.String(config.KeySweepSpacing, "linear", "Sweep spacing: linear or log")
}

// Flag sets shared by the subcommands
var (
	biasKeys = []string{
		config.KeyVcc, config.KeyVbe, config.KeyEmitterCurrent, config.KeyBeta,
		config.KeyRC, config.KeyRE, config.KeyVce, config.KeyVce1, config.KeyVce2,
		config.KeyRParallel,
	}
	smallSignalKeys = []string{
		config.KeyEmitterCurrent, config.KeyBeta, config.KeyThermalVoltage,
		config.KeyCPi, config.KeyCMu, config.KeyRC,
	}
	sensitivityKeys = []string{
		config.KeyVcc, config.KeyEmitterCurrent, config.KeyRC, config.KeyRE, config.KeyVce,
	}
)
