package commands

import (
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dvirhilu/NMR-Preamplifier/internal/config"
	"github.com/dvirhilu/NMR-Preamplifier/internal/report"
	"github.com/dvirhilu/NMR-Preamplifier/internal/response"
	"github.com/dvirhilu/NMR-Preamplifier/pkg/models"
)

func (a *app) runBias(cmd *cobra.Command, args []string) error {
	topology := models.CommonEmitter
	if cascode, _ := cmd.Flags().GetBool(flagCascode); cascode {
		topology = models.Cascode
	}
	mode := models.TargetParallel
	if maximize, _ := cmd.Flags().GetBool(flagMaximize); maximize {
		mode = models.MaximizeParallel
	}

	result, err := a.svc.Bias(cmd.Context(), a.cfg.Amplifier.Parameters(), topology, mode)
	if err != nil {
		return err
	}

	return a.write(cmd.OutOrStdout(), result, func(w io.Writer) error {
		return report.WriteBias(w, result.Parameters, result.Solution, result.OperatingPoint)
	})
}

func (a *app) runInputImpedance(cmd *cobra.Command, args []string) error {
	sweep, err := a.sweep()
	if err != nil {
		return err
	}

	result, err := a.svc.InputImpedance(cmd.Context(), a.cfg.Amplifier.Parameters(), sweep, topologyFlag(cmd))
	if err != nil {
		return err
	}

	return a.write(cmd.OutOrStdout(), result, func(w io.Writer) error {
		if err := report.WriteResponse(w, result.Response); err != nil {
			return err
		}
		return writeArtifacts(w, result.Run)
	})
}

func (a *app) runGain(cmd *cobra.Command, args []string) error {
	sweep, err := a.sweep()
	if err != nil {
		return err
	}

	result, err := a.svc.Gain(cmd.Context(), a.cfg.Amplifier.Parameters(), sweep, topologyFlag(cmd))
	if err != nil {
		return err
	}

	return a.write(cmd.OutOrStdout(), result, func(w io.Writer) error {
		if err := report.WriteResponse(w, result.Response); err != nil {
			return err
		}
		return writeArtifacts(w, result.Run)
	})
}

func (a *app) runFindRParallel(cmd *cobra.Command, args []string) error {
	result, err := a.svc.FindRParallel(cmd.Context(), a.cfg.Amplifier.Parameters(), topologyFlag(cmd))
	if err != nil {
		return err
	}

	return a.write(cmd.OutOrStdout(), result, func(w io.Writer) error {
		return report.WriteDivider(w, result.Estimate)
	})
}

func (a *app) runSensitivity(cmd *cobra.Command, args []string) error {
	r1, err := cmd.Flags().GetFloat64(flagR1)
	if err != nil {
		return err
	}
	r2, err := cmd.Flags().GetFloat64(flagR2)
	if err != nil {
		return err
	}
	withTestData, _ := cmd.Flags().GetBool(flagTestData)

	result, err := a.svc.Sensitivity(cmd.Context(), a.cfg.Amplifier.Parameters(), r1, r2, withTestData)
	if err != nil {
		return err
	}

	return a.write(cmd.OutOrStdout(), result, func(w io.Writer) error {
		if err := report.WriteSensitivity(w, result.Sensitivity); err != nil {
			return err
		}
		return writeArtifacts(w, result.Run)
	})
}

func (a *app) runSpicePlot(cmd *cobra.Command, args []string) error {
	source := DefaultBodeFile
	if len(args) == 1 {
		source = args[0]
	}

	var refs *report.BodeReferences
	if noRefs, _ := cmd.Flags().GetBool(flagNoRefs); !noRefs {
		gain, err := cmd.Flags().GetFloat64(flagCalculatedGain)
		if err != nil {
			return err
		}
		refs = &report.BodeReferences{
			BandStart:      response.BandStart,
			BandStop:       response.BandStop,
			CalculatedGain: gain,
		}
	}

	result, err := a.svc.SpicePlot(cmd.Context(), source, refs)
	if err != nil {
		return err
	}

	return a.write(cmd.OutOrStdout(), result, func(w io.Writer) error {
		if _, err := fmt.Fprintf(w, "Loaded %d points from %s\n", len(result.Data.Points), result.Data.Source); err != nil {
			return err
		}
		return writeArtifacts(w, result.Run)
	})
}

// write emits v as JSON or runs the text report
func (a *app) write(w io.Writer, v any, text func(io.Writer) error) error {
	if a.cfg.Output.Format == config.FormatJSON {
		return report.WriteJSON(w, v)
	}
	return text(w)
}

func (a *app) sweep() (models.FrequencySweep, error) {
	s := a.cfg.Sweep
	sweep, err := response.NewSweep(s.Start, s.Stop, s.Points, response.Spacing(s.Spacing))
	if err != nil {
		return models.FrequencySweep{}, err
	}
	log.Debug().Float64("start", s.Start).Float64("stop", s.Stop).Int("points", s.Points).
		Str("spacing", s.Spacing).Msg("Sweep built")
	return sweep, nil
}

func topologyFlag(cmd *cobra.Command) models.Topology {
	if cascode, _ := cmd.Flags().GetBool(flagUseCascode); cascode {
		return models.Cascode
	}
	return models.CommonEmitter
}

func writeArtifacts(w io.Writer, run models.Run) error {
	for _, path := range run.Artifacts {
		if _, err := fmt.Fprintf(w, "Saved %s\n", path); err != nil {
			return err
		}
	}
	return nil
}
