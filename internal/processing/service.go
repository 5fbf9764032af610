package processing

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dvirhilu/NMR-Preamplifier/internal/bias"
	"github.com/dvirhilu/NMR-Preamplifier/internal/report"
	"github.com/dvirhilu/NMR-Preamplifier/internal/repository"
	"github.com/dvirhilu/NMR-Preamplifier/internal/response"
	"github.com/dvirhilu/NMR-Preamplifier/internal/storage"
	"github.com/dvirhilu/NMR-Preamplifier/pkg/models"
)

// Commands recorded on a Run
const (
	CommandBias          = "bias"
	CommandInputZ        = "zin"
	CommandGain          = "gain"
	CommandFindRParallel = "find-rparallel"
	CommandSensitivity   = "sensitivity"
	CommandSpicePlot     = "spice-plot"
)

// Renderer turns computed results into figures
type Renderer interface {
	Impedance(resp *models.FrequencyResponse) ([]report.Figure, error)
	Gain(resp *models.FrequencyResponse) ([]report.Figure, error)
	SimulatedBode(data *models.BodeData, refs *report.BodeReferences) ([]report.Figure, error)
	Sensitivity(s *models.Sensitivity) ([]report.Figure, error)
}

// DesignService defines the design operations behind each command
type DesignService interface {
	Bias(ctx context.Context, p models.AmplifierParameters, topology models.Topology, mode models.SolveMode) (*BiasResult, error)
	InputImpedance(ctx context.Context, p models.AmplifierParameters, sweep models.FrequencySweep, topology models.Topology) (*ResponseResult, error)
	Gain(ctx context.Context, p models.AmplifierParameters, sweep models.FrequencySweep, topology models.Topology) (*ResponseResult, error)
	FindRParallel(ctx context.Context, p models.AmplifierParameters, topology models.Topology) (*DividerResult, error)
	Sensitivity(ctx context.Context, p models.AmplifierParameters, r1, r2 float64, withTestData bool) (*SensitivityResult, error)
	SpicePlot(ctx context.Context, source string, refs *report.BodeReferences) (*BodeResult, error)
}

// BiasResult is a solved bias network and its finite-beta check
type BiasResult struct {
	Run            models.Run                 `json:"run"`
	Parameters     models.AmplifierParameters `json:"parameters"`
	Solution       *models.BiasSolution       `json:"solution"`
	OperatingPoint *models.OperatingPoint     `json:"operating_point"`
}

// ResponseResult is one evaluated frequency sweep
type ResponseResult struct {
	Run      models.Run                `json:"run"`
	Response *models.FrequencyResponse `json:"response"`
}

// DividerResult is a divider estimate for a target input impedance
type DividerResult struct {
	Run      models.Run              `json:"run"`
	Estimate *models.DividerEstimate `json:"estimate"`
}

// SensitivityResult is the collector-current analysis of a fixed divider
type SensitivityResult struct {
	Run         models.Run          `json:"run"`
	Divider     bias.Divider        `json:"divider"`
	Sensitivity *models.Sensitivity `json:"sensitivity"`
}

// BodeResult is an externally simulated Bode response
type BodeResult struct {
	Run  models.Run       `json:"run"`
	Data *models.BodeData `json:"data"`
}

type designService struct {
	renderer Renderer
	store    storage.ArtifactStore
	repo     repository.SimulationRepository
	ranges   bias.Ranges
}

// NewDesignService wires the solvers to rendering and output. A nil renderer
// or store disables figures.
func NewDesignService(renderer Renderer, store storage.ArtifactStore, repo repository.SimulationRepository) DesignService {
	return &designService{
		renderer: renderer,
		store:    store,
		repo:     repo,
		ranges:   bias.DefaultRanges(),
	}
}

func (s *designService) Bias(ctx context.Context, p models.AmplifierParameters, topology models.Topology, mode models.SolveMode) (*BiasResult, error) {
	run := newRun(CommandBias)
	log.Info().Str("run_id", run.ID).Str("topology", topology.String()).Str("mode", string(mode)).
		Bool("re_supplied", p.RESupplied).Msg("Solving bias network")

	// Step 1: Solve the divider
	sol, err := bias.Solve(p, topology, mode)
	if err != nil {
		log.Error().Err(err).Str("run_id", run.ID).Msg("Bias design rejected")
		return nil, fmt.Errorf("bias: %w", err)
	}

	// Step 2: Check the operating point with finite beta
	op, err := bias.OperatingPoint(p, sol)
	if err != nil {
		return nil, fmt.Errorf("operating point: %w", err)
	}
	log.Info().Str("run_id", run.ID).Float64("r1", sol.R1).Float64("r2", sol.R2).Float64("re", sol.RE).
		Float64("deviation", op.Deviation).Msg("Bias network solved")

	return &BiasResult{Run: run, Parameters: p, Solution: sol, OperatingPoint: op}, nil
}

func (s *designService) InputImpedance(ctx context.Context, p models.AmplifierParameters, sweep models.FrequencySweep, topology models.Topology) (*ResponseResult, error) {
	run := newRun(CommandInputZ)
	log.Info().Str("run_id", run.ID).Str("topology", topology.String()).Int("points", sweep.Len()).
		Msg("Evaluating input impedance")

	resp, err := response.InputImpedance(p, sweep, topology)
	if err != nil {
		return nil, fmt.Errorf("input impedance: %w", err)
	}

	if s.plotting() {
		figs, err := s.renderer.Impedance(resp)
		if err != nil {
			return nil, fmt.Errorf("failed to render input impedance: %w", err)
		}
		if err := s.saveFigures(ctx, &run, figs); err != nil {
			return nil, err
		}
	}

	return &ResponseResult{Run: run, Response: resp}, nil
}

func (s *designService) Gain(ctx context.Context, p models.AmplifierParameters, sweep models.FrequencySweep, topology models.Topology) (*ResponseResult, error) {
	run := newRun(CommandGain)
	log.Info().Str("run_id", run.ID).Str("topology", topology.String()).Int("points", sweep.Len()).
		Msg("Evaluating voltage gain")

	resp, err := response.Gain(p, sweep, topology)
	if err != nil {
		return nil, fmt.Errorf("gain: %w", err)
	}

	if s.plotting() {
		figs, err := s.renderer.Gain(resp)
		if err != nil {
			return nil, fmt.Errorf("failed to render gain: %w", err)
		}
		if err := s.saveFigures(ctx, &run, figs); err != nil {
			return nil, err
		}
	}

	return &ResponseResult{Run: run, Response: resp}, nil
}

func (s *designService) FindRParallel(ctx context.Context, p models.AmplifierParameters, topology models.Topology) (*DividerResult, error) {
	run := newRun(CommandFindRParallel)

	est, err := response.EstimateDividerForTargetImpedance(p, topology)
	if err != nil {
		return nil, fmt.Errorf("divider estimate: %w", err)
	}
	log.Info().Str("run_id", run.ID).Str("topology", topology.String()).
		Float64("r_parallel_no_cap", est.RParallelNoCap).Float64("r_parallel_with_cap", est.RParallelWithCap).
		Bool("series_cap_required", est.SeriesCapRequired).Msg("Divider estimated")

	return &DividerResult{Run: run, Estimate: est}, nil
}

func (s *designService) Sensitivity(ctx context.Context, p models.AmplifierParameters, r1, r2 float64, withTestData bool) (*SensitivityResult, error) {
	run := newRun(CommandSensitivity)

	// Step 1: Fix the divider
	d, err := bias.NewDivider(p, r1, r2)
	if err != nil {
		return nil, fmt.Errorf("sensitivity: %w", err)
	}
	log.Info().Str("run_id", run.ID).Float64("r1", d.R1).Float64("r2", d.R2).Float64("re", d.RE).
		Bool("test_data", withTestData).Msg("Analyzing collector current sensitivity")

	// Step 2: Sweep Vbe and beta
	sens := bias.Analyze(d, s.ranges, withTestData)

	// Step 3: Render
	if s.plotting() {
		figs, err := s.renderer.Sensitivity(sens)
		if err != nil {
			return nil, fmt.Errorf("failed to render sensitivity: %w", err)
		}
		if err := s.saveFigures(ctx, &run, figs); err != nil {
			return nil, err
		}
	}

	return &SensitivityResult{Run: run, Divider: d, Sensitivity: sens}, nil
}

func (s *designService) SpicePlot(ctx context.Context, source string, refs *report.BodeReferences) (*BodeResult, error) {
	run := newRun(CommandSpicePlot)
	log.Info().Str("run_id", run.ID).Str("source", source).Msg("Loading simulated bode data")

	data, err := s.repo.LoadBode(ctx, source)
	if err != nil {
		return nil, err
	}
	log.Info().Str("run_id", run.ID).Int("points", len(data.Points)).Msg("Bode data loaded")

	if s.plotting() {
		figs, err := s.renderer.SimulatedBode(data, refs)
		if err != nil {
			return nil, fmt.Errorf("failed to render bode data: %w", err)
		}
		if err := s.saveFigures(ctx, &run, figs); err != nil {
			return nil, err
		}
	}

	return &BodeResult{Run: run, Data: data}, nil
}

func (s *designService) plotting() bool {
	return s.renderer != nil && s.store != nil
}

// saveFigures stores figs under the run's key prefix. Existing artifacts are
// never overwritten, and a failure removes the figures this run already saved.
func (s *designService) saveFigures(ctx context.Context, run *models.Run, figs []report.Figure) error {
	prefix := run.ID[:8]
	saved := make([]string, 0, len(figs))
	for _, fig := range figs {
		key := storage.ArtifactKey(prefix, fig.Kind, "png")
		path, err := s.saveFigure(ctx, key, fig)
		if err != nil {
			log.Error().Err(err).Str("run_id", run.ID).Str("key", key).Msg("Failed to save figure")
			s.discard(ctx, run, saved)
			return err
		}
		log.Debug().Str("run_id", run.ID).Str("path", path).Msg("Figure saved")
		saved = append(saved, key)
		run.Artifacts = append(run.Artifacts, path)
	}
	return nil
}

func (s *designService) saveFigure(ctx context.Context, key string, fig report.Figure) (string, error) {
	exists, err := s.store.Exists(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to check artifact %s: %w", key, err)
	}
	if exists {
		return "", fmt.Errorf("%w: %s", storage.ErrArtifactExists, key)
	}

	return s.store.Save(ctx, key, func(w io.Writer) error {
		_, err := fig.WriteTo(w)
		return err
	})
}

// discard deletes the artifacts saved so far in a failed run
func (s *designService) discard(ctx context.Context, run *models.Run, keys []string) {
	for _, key := range keys {
		if err := s.store.DeleteFile(ctx, key); err != nil {
			log.Warn().Err(err).Str("run_id", run.ID).Str("key", key).Msg("Failed to remove partial artifact")
		}
	}
	run.Artifacts = nil
}

func newRun(command string) models.Run {
	return models.Run{
		ID:        uuid.New().String(),
		Command:   command,
		CreatedAt: time.Now(),
	}
}
