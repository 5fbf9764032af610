package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dvirhilu/NMR-Preamplifier/internal/config"
	"github.com/dvirhilu/NMR-Preamplifier/internal/processing"
	"github.com/dvirhilu/NMR-Preamplifier/internal/report"
	"github.com/dvirhilu/NMR-Preamplifier/pkg/models"
)

// MockDesignService implements processing.DesignService for testing
type MockDesignService struct {
	mock.Mock
}

func (m *MockDesignService) Bias(ctx context.Context, p models.AmplifierParameters, topology models.Topology, mode models.SolveMode) (*processing.BiasResult, error) {
	args := m.Called(ctx, p, topology, mode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*processing.BiasResult), args.Error(1)
}

func (m *MockDesignService) InputImpedance(ctx context.Context, p models.AmplifierParameters, sweep models.FrequencySweep, topology models.Topology) (*processing.ResponseResult, error) {
	args := m.Called(ctx, p, sweep, topology)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*processing.ResponseResult), args.Error(1)
}

func (m *MockDesignService) Gain(ctx context.Context, p models.AmplifierParameters, sweep models.FrequencySweep, topology models.Topology) (*processing.ResponseResult, error) {
	args := m.Called(ctx, p, sweep, topology)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*processing.ResponseResult), args.Error(1)
}

func (m *MockDesignService) FindRParallel(ctx context.Context, p models.AmplifierParameters, topology models.Topology) (*processing.DividerResult, error) {
	args := m.Called(ctx, p, topology)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*processing.DividerResult), args.Error(1)
}

func (m *MockDesignService) Sensitivity(ctx context.Context, p models.AmplifierParameters, r1, r2 float64, withTestData bool) (*processing.SensitivityResult, error) {
	args := m.Called(ctx, p, r1, r2, withTestData)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*processing.SensitivityResult), args.Error(1)
}

func (m *MockDesignService) SpicePlot(ctx context.Context, source string, refs *report.BodeReferences) (*processing.BodeResult, error) {
	args := m.Called(ctx, source, refs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*processing.BodeResult), args.Error(1)
}

// execute runs the command tree against a mock service and returns stdout
func execute(t *testing.T, fs afero.Fs, svc processing.DesignService, args ...string) (string, error) {
	t.Helper()
	factory := func(cfg *config.Config, fs afero.Fs) (processing.DesignService, error) {
		return svc, nil
	}
	return run(t, fs, factory, args...)
}

func run(t *testing.T, fs afero.Fs, factory ServiceFactory, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand(fs, factory)
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func biasResult(topology models.Topology, mode models.SolveMode) *processing.BiasResult {
	return &processing.BiasResult{
		Run:        models.Run{ID: "0f8fad5b-d9cb-469f-a165-70867728950e", Command: processing.CommandBias},
		Parameters: models.AmplifierParameters{Vcc: 3.3, Vbe: 0.76, EmitterCurrent: 5e-3, RC: 50},
		Solution: &models.BiasSolution{
			Topology: topology, Mode: mode,
			R1: 58.71886120996442, R2: 336.73469387755085, RE: 410, RParallel: 50, VDiv: 2.81, Vce: 1,
		},
		OperatingPoint: &models.OperatingPoint{Beta: 330, NodeVoltages: []float64{2.808}, EmitterCurrent: 4.996e-3, TargetCurrent: 5e-3},
	}
}

func TestBiasCommand(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		topology models.Topology
		mode     models.SolveMode
		params   func(p models.AmplifierParameters) bool
	}{
		{
			name:     "defaults",
			args:     []string{"bias"},
			topology: models.CommonEmitter,
			mode:     models.TargetParallel,
			params: func(p models.AmplifierParameters) bool {
				return p.Vcc == 3.3 && p.RParallel == 50 && p.Vce == 1 && !p.RESupplied
			},
		},
		{
			name:     "cascode maximize with RE",
			args:     []string{"bias", "--cascode", "--maximize", "--RE", "300", "-v", "5"},
			topology: models.Cascode,
			mode:     models.MaximizeParallel,
			params: func(p models.AmplifierParameters) bool {
				return p.Vcc == 5 && p.RE == 300 && p.RESupplied
			},
		},
		{
			name:     "short flags",
			args:     []string{"bias", "-r", "40", "-i", "0.01", "-b", "200"},
			topology: models.CommonEmitter,
			mode:     models.TargetParallel,
			params: func(p models.AmplifierParameters) bool {
				return p.RParallel == 40 && p.EmitterCurrent == 0.01 && p.Beta == 200
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockDesignService)
			svc.On("Bias", mock.Anything, mock.MatchedBy(tt.params), tt.topology, tt.mode).
				Return(biasResult(tt.topology, tt.mode), nil)

			out, err := execute(t, afero.NewMemMapFs(), svc, tt.args...)

			require.NoError(t, err)
			assert.Contains(t, out, "R1 = ")
			assert.Contains(t, out, "Operating point with beta = 330")
			svc.AssertExpectations(t)
		})
	}
}

func TestBiasCommand_JSON(t *testing.T) {
	svc := new(MockDesignService)
	svc.On("Bias", mock.Anything, mock.Anything, models.CommonEmitter, models.TargetParallel).
		Return(biasResult(models.CommonEmitter, models.TargetParallel), nil)

	out, err := execute(t, afero.NewMemMapFs(), svc, "bias", "--format", "json")
	require.NoError(t, err)

	var decoded struct {
		Run      models.Run          `json:"run"`
		Solution models.BiasSolution `json:"solution"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, processing.CommandBias, decoded.Run.Command)
	assert.InDelta(t, 410.0, decoded.Solution.RE, 1e-9)
}

func TestBiasCommand_ServiceError(t *testing.T) {
	svc := new(MockDesignService)
	svc.On("Bias", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("invalid common-emitter design"))

	out, err := execute(t, afero.NewMemMapFs(), svc, "bias")

	assert.EqualError(t, err, "invalid common-emitter design")
	assert.Empty(t, out)
}

func TestRootCommand_Configuration(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(t *testing.T, fs afero.Fs)
		args      []string
		params    func(p models.AmplifierParameters) bool
		wantError bool
	}{
		{
			name: "environment",
			setup: func(t *testing.T, fs afero.Fs) {
				t.Setenv("AMPDESIGN_VCC", "5")
				t.Setenv("AMPDESIGN_RE", "250")
			},
			args: []string{"bias"},
			params: func(p models.AmplifierParameters) bool {
				return p.Vcc == 5 && p.RE == 250 && p.RESupplied
			},
		},
		{
			name: "config file",
			setup: func(t *testing.T, fs afero.Fs) {
				require.NoError(t, afero.WriteFile(fs, "/etc/ampdesign.yaml", []byte("Vcc: 4.5\nVbe: 0.7\n"), 0o644))
			},
			args: []string{"bias", "--config", "/etc/ampdesign.yaml"},
			params: func(p models.AmplifierParameters) bool {
				return p.Vcc == 4.5 && p.Vbe == 0.7 && !p.RESupplied
			},
		},
		{
			name: "flag overrides config file",
			setup: func(t *testing.T, fs afero.Fs) {
				require.NoError(t, afero.WriteFile(fs, "/etc/ampdesign.yaml", []byte("Vcc: 4.5\n"), 0o644))
			},
			args: []string{"bias", "--config", "/etc/ampdesign.yaml", "--Vcc", "3"},
			params: func(p models.AmplifierParameters) bool {
				return p.Vcc == 3
			},
		},
		{
			name:      "missing config file",
			args:      []string{"bias", "--config", "/etc/missing.yaml"},
			wantError: true,
		},
		{
			name:      "unknown format",
			args:      []string{"bias", "--format", "xml"},
			wantError: true,
		},
		{
			name:      "unknown log level",
			args:      []string{"bias", "--log-level", "loud"},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			if tt.setup != nil {
				tt.setup(t, fs)
			}
			svc := new(MockDesignService)
			if !tt.wantError {
				svc.On("Bias", mock.Anything, mock.MatchedBy(tt.params), models.CommonEmitter, models.TargetParallel).
					Return(biasResult(models.CommonEmitter, models.TargetParallel), nil)
			}

			_, err := execute(t, fs, svc, tt.args...)

			if tt.wantError {
				assert.Error(t, err)
				svc.AssertNotCalled(t, "Bias", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			} else {
				assert.NoError(t, err)
				svc.AssertExpectations(t)
			}
		})
	}
}

func TestResponseCommands(t *testing.T) {
	resp := &models.FrequencyResponse{
		Quantity:    models.InputImpedance,
		Topology:    models.Cascode,
		Frequencies: []float64{125e6, 500e6},
		Magnitude:   []float64{57.8, 46.7},
		MagnitudeDB: []float64{1.26, -0.59},
		PhaseDeg:    []float64{-13.3, -41.3},
		Reference:   50,
	}

	tests := []struct {
		name     string
		method   string
		args     []string
		topology models.Topology
		points   int
	}{
		{
			name:     "zin cascode",
			method:   "InputImpedance",
			args:     []string{"zin", "-d", "--points", "2"},
			topology: models.Cascode,
			points:   2,
		},
		{
			name:     "gain log sweep",
			method:   "Gain",
			args:     []string{"gain", "--points", "11", "--spacing", "log"},
			topology: models.CommonEmitter,
			points:   11,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockDesignService)
			result := &processing.ResponseResult{
				Run:      models.Run{ID: "run", Artifacts: []string{"out/run-figure.png"}},
				Response: resp,
			}
			svc.On(tt.method, mock.Anything, mock.Anything, mock.MatchedBy(func(s models.FrequencySweep) bool {
				return s.Len() == tt.points && s.Frequencies[0] == 125e6 && s.Frequencies[s.Len()-1] == 500e6
			}), tt.topology).Return(result, nil)

			out, err := execute(t, afero.NewMemMapFs(), svc, tt.args...)

			require.NoError(t, err)
			assert.Contains(t, out, "Saved out/run-figure.png")
			svc.AssertExpectations(t)
		})
	}
}

func TestResponseCommands_InvalidSweep(t *testing.T) {
	svc := new(MockDesignService)

	_, err := execute(t, afero.NewMemMapFs(), svc, "zin", "--fStart", "600e6")

	assert.Error(t, err)
	svc.AssertNotCalled(t, "InputImpedance", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestFindRParallelCommand(t *testing.T) {
	svc := new(MockDesignService)
	est := &models.DividerEstimate{
		Frequency:        312.5e6,
		TargetImpedance:  75,
		ZExt:             complex(80, 20),
		RParallelNoCap:   82.46,
		RParallelWithCap: 80,
		CSeries:          25.5e-12,
	}
	svc.On("FindRParallel", mock.Anything, mock.MatchedBy(func(p models.AmplifierParameters) bool {
		return p.TargetImpedance == 75
	}), models.Cascode).Return(&processing.DividerResult{Estimate: est}, nil)

	out, err := execute(t, afero.NewMemMapFs(), svc, "find-rparallel", "-d", "-z", "75")

	require.NoError(t, err)
	assert.Contains(t, out, "First guess to achieve Z_in = 75 Ohms")
	svc.AssertExpectations(t)
}

func TestSensitivityCommand(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		r1, r2   float64
		testData bool
	}{
		{
			name: "defaults",
			args: []string{"sensitivity"},
			r1:   DefaultR1,
			r2:   DefaultR2,
		},
		{
			name:     "custom divider with test data",
			args:     []string{"sensitivity", "--R1", "100", "--R2", "400", "-d"},
			r1:       100,
			r2:       400,
			testData: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockDesignService)
			svc.On("Sensitivity", mock.Anything, mock.Anything, tt.r1, tt.r2, tt.testData).
				Return(&processing.SensitivityResult{Sensitivity: &models.Sensitivity{TargetCurrent: 5e-3}}, nil)

			out, err := execute(t, afero.NewMemMapFs(), svc, tt.args...)

			require.NoError(t, err)
			assert.Contains(t, out, "Target collector current: 5.000 mA")
			svc.AssertExpectations(t)
		})
	}
}

func TestSpicePlotCommand(t *testing.T) {
	bode := &models.BodeData{Source: "sim.csv", Points: []models.FrequencyPoint{{Frequency: 1e8, Magnitude: 19, Phase: -170}}}

	tests := []struct {
		name   string
		args   []string
		source string
		refs   *report.BodeReferences
	}{
		{
			name:   "default file with references",
			args:   []string{"spice-plot"},
			source: DefaultBodeFile,
			refs:   &report.BodeReferences{BandStart: 125e6, BandStop: 500e6, CalculatedGain: DefaultCalculatedGain},
		},
		{
			name:   "custom gain",
			args:   []string{"spice-plot", "sim.csv", "--calculated-gain", "18"},
			source: "sim.csv",
			refs:   &report.BodeReferences{BandStart: 125e6, BandStop: 500e6, CalculatedGain: 18},
		},
		{
			name:   "no references",
			args:   []string{"spice-plot", "sim.csv", "--no-refs"},
			source: "sim.csv",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockDesignService)
			svc.On("SpicePlot", mock.Anything, tt.source, tt.refs).
				Return(&processing.BodeResult{Data: bode}, nil)

			out, err := execute(t, afero.NewMemMapFs(), svc, tt.args...)

			require.NoError(t, err)
			assert.Contains(t, out, "Loaded 1 points from sim.csv")
			svc.AssertExpectations(t)
		})
	}
}

func TestRootCommand_FactoryError(t *testing.T) {
	factory := func(cfg *config.Config, fs afero.Fs) (processing.DesignService, error) {
		return nil, fmt.Errorf("no output directory")
	}

	_, err := run(t, afero.NewMemMapFs(), factory, "bias")

	assert.ErrorContains(t, err, "no output directory")
}

func TestNewDesignService_EndToEnd(t *testing.T) {
	fs := afero.NewMemMapFs()

	out, err := run(t, fs, NewDesignService, "zin", "--points", "20", "-o", "/results")
	require.NoError(t, err)

	files, err := afero.ReadDir(fs, "/results")
	require.NoError(t, err)
	assert.Len(t, files, 4)
	for _, f := range files {
		assert.Contains(t, out, "Saved /results/"+f.Name())
		data, err := afero.ReadFile(fs, "/results/"+f.Name())
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
	}

	out, err = run(t, fs, NewDesignService, "bias", "--no-plots")
	require.NoError(t, err)
	assert.Contains(t, out, "Common-Emitter bias network")
	assert.Contains(t, out, "Operating point with beta = 330")

	require.NoError(t, afero.WriteFile(fs, "/data/bode.csv", []byte("1e8,19.1,-170\n2e8,18.7,10\n"), 0o644))
	out, err = run(t, fs, NewDesignService, "spice-plot", "/data/bode.csv", "--no-plots")
	require.NoError(t, err)
	assert.Contains(t, out, "Loaded 2 points from /data/bode.csv")
}
