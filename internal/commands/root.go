// Package commands exposes the design service as a cobra command tree.
package commands

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dvirhilu/NMR-Preamplifier/internal/config"
	"github.com/dvirhilu/NMR-Preamplifier/internal/processing"
	"github.com/dvirhilu/NMR-Preamplifier/internal/report"
	"github.com/dvirhilu/NMR-Preamplifier/internal/repository/csv"
	"github.com/dvirhilu/NMR-Preamplifier/internal/storage"
)

const flagConfig = "config"

// ServiceFactory builds the design service once configuration is known
type ServiceFactory func(cfg *config.Config, fs afero.Fs) (processing.DesignService, error)

// NewDesignService is the ServiceFactory used by the binary. Figures are
// written under cfg.Output.Dir unless plots are disabled.
func NewDesignService(cfg *config.Config, fs afero.Fs) (processing.DesignService, error) {
	repo := csv.NewRepository(fs)
	if cfg.Output.NoPlots {
		return processing.NewDesignService(nil, nil, repo), nil
	}

	store, err := storage.NewFSStore(fs, storage.Config{Dir: cfg.Output.Dir})
	if err != nil {
		return nil, err
	}
	return processing.NewDesignService(report.NewRenderer(), store, repo), nil
}

// app carries state from flag parsing into the command handlers
type app struct {
	fs         afero.Fs
	v          *viper.Viper
	newService ServiceFactory

	cfg *config.Config
	svc processing.DesignService
}

// NewRootCommand builds the ampdesign command tree on fs
func NewRootCommand(fs afero.Fs, newService ServiceFactory) *cobra.Command {
	a := &app{
		fs:         fs,
		v:          config.New(),
		newService: newService,
	}
	a.v.SetFs(fs)

	root := &cobra.Command{
		Use:   "ampdesign",
		Short: "Design calculations for a single-stage BJT RF preamplifier",
		Long: "ampdesign solves the DC bias network of a common-emitter or cascode BJT stage\n" +
			"and evaluates its small-signal input impedance and gain across the 125-500 MHz band.",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	pf := root.PersistentFlags()
	pf.String(flagConfig, "", "Config file (default ./ampdesign.{yaml,json,toml} when present)")
	pf.StringP(config.KeyOutputDir, "o", "out", "Directory for generated figures")
	pf.String(config.KeyOutputFormat, config.FormatText, "Report format: text or json")
	pf.Bool(config.KeyNoPlots, false, "Skip rendering figures")
	pf.String(config.KeyLogLevel, "info", "Log level (trace, debug, info, warn, error)")
	pf.Bool(config.KeyLogPretty, true, "Human readable console logs instead of JSON")

	registerCommands(root, a)
	return root
}

// setup runs before every subcommand: it merges the config file, binds the
// parsed flags and builds the service
func (a *app) setup(cmd *cobra.Command, args []string) error {
	path, err := cmd.Flags().GetString(flagConfig)
	if err != nil {
		return err
	}
	if err := config.ReadFile(a.v, path); err != nil {
		return err
	}
	if err := a.v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}

	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	if err := configureLogging(cfg.Log, cmd.ErrOrStderr()); err != nil {
		return err
	}
	if used := a.v.ConfigFileUsed(); used != "" {
		log.Debug().Str("file", used).Msg("Loaded config file")
	}

	svc, err := a.newService(cfg, a.fs)
	if err != nil {
		return fmt.Errorf("failed to initialize design service: %w", err)
	}
	a.cfg = cfg
	a.svc = svc
	return nil
}

// configureLogging applies the configured level and output style to the
// global logger
func configureLogging(cfg config.LogConfig, w io.Writer) error {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: w})
	} else {
		log.Logger = zerolog.New(w).With().Timestamp().Logger()
	}
	return nil
}
