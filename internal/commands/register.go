package commands

import (
	"github.com/spf13/cobra"

	"github.com/dvirhilu/NMR-Preamplifier/internal/config"
)

// Local flag names that are not configuration keys
const (
	flagCascode        = "cascode"
	flagMaximize       = "maximize"
	flagUseCascode     = "useCascode"
	flagR1             = "R1"
	flagR2             = "R2"
	flagTestData       = "test-data"
	flagCalculatedGain = "calculated-gain"
	flagNoRefs         = "no-refs"
)

// Defaults of the sensitivity divider and Bode reference lines
const (
	DefaultR1             = 60.4
	DefaultR2             = 357.0
	DefaultBodeFile       = "bodePlot.csv"
	DefaultCalculatedGain = 19.328
)

// registerCommands adds every subcommand to root
func registerCommands(root *cobra.Command, a *app) {
	biasCmd := &cobra.Command{
		Use:   "bias",
		Short: "Solve the bias resistor network",
		Long: "Computes the divider and emitter resistors that bias the BJT at the target emitter current.\n" +
			"The common-emitter stage uses R1 (supply) and R2 (ground); the cascode stage adds R3 at the supply.",
		Args: cobra.NoArgs,
		RunE: a.runBias,
	}
	addAmplifierFlags(biasCmd.Flags(), biasKeys...)
	biasCmd.Flags().Bool(flagCascode, false, "Solve the cascode network instead of the common-emitter one")
	biasCmd.Flags().Bool(flagMaximize, false, "Pick the largest divider that keeps the current insensitive to beta")

	zinCmd := &cobra.Command{
		Use:   "zin",
		Short: "Sweep the amplifier input impedance",
		Args:  cobra.NoArgs,
		RunE:  a.runInputImpedance,
	}
	addAmplifierFlags(zinCmd.Flags(), smallSignalKeys...)
	addAmplifierFlags(zinCmd.Flags(), config.KeyCSeries, config.KeyRParallel, config.KeyTargetImpedance)
	addSweepFlags(zinCmd.Flags())
	zinCmd.Flags().BoolP(flagUseCascode, "d", false, "Use the cascode amplifier instead of common-emitter")

	gainCmd := &cobra.Command{
		Use:   "gain",
		Short: "Sweep the open-circuit voltage gain",
		Args:  cobra.NoArgs,
		RunE:  a.runGain,
	}
	addAmplifierFlags(gainCmd.Flags(), smallSignalKeys...)
	addSweepFlags(gainCmd.Flags())
	gainCmd.Flags().BoolP(flagUseCascode, "d", false, "Use the cascode amplifier instead of common-emitter")

	findCmd := &cobra.Command{
		Use:   "find-rparallel",
		Short: "Estimate the divider resistance for a target input impedance",
		Args:  cobra.NoArgs,
		RunE:  a.runFindRParallel,
	}
	addAmplifierFlags(findCmd.Flags(), smallSignalKeys...)
	addAmplifierFlags(findCmd.Flags(), config.KeyTargetImpedance)
	findCmd.Flags().BoolP(flagUseCascode, "d", false, "Use the cascode amplifier instead of common-emitter")

	sensitivityCmd := &cobra.Command{
		Use:   "sensitivity",
		Short: "Plot collector current sensitivity to Vbe and beta",
		Args:  cobra.NoArgs,
		RunE:  a.runSensitivity,
	}
	addAmplifierFlags(sensitivityCmd.Flags(), sensitivityKeys...)
	sensitivityCmd.Flags().Float64(flagR1, DefaultR1, "Top resistor of the input divider in Ohms")
	sensitivityCmd.Flags().Float64(flagR2, DefaultR2, "Bottom resistor of the input divider in Ohms")
	sensitivityCmd.Flags().BoolP(flagTestData, "d", false, "Include the measured device points")

	spiceCmd := &cobra.Command{
		Use:   "spice-plot [file]",
		Short: "Plot a simulated Bode response exported as CSV",
		Long: "Reads rows of frequency (Hz), gain (dB) and phase (degrees) and draws the gain and phase\n" +
			"with reference lines at the band edges and the calculated gain. Defaults to " + DefaultBodeFile + ".",
		Args: cobra.MaximumNArgs(1),
		RunE: a.runSpicePlot,
	}
	spiceCmd.Flags().Float64(flagCalculatedGain, DefaultCalculatedGain, "Calculated gain in dB drawn as a reference line")
	spiceCmd.Flags().Bool(flagNoRefs, false, "Omit the reference lines")

	root.AddCommand(biasCmd, zinCmd, gainCmd, findCmd, sensitivityCmd, spiceCmd)
}
