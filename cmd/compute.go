package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strconv"

	"markov_occupancy/internal/config"
	"markov_occupancy/internal/engine"
	"markov_occupancy/internal/service"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

var errUnknownOutput = errors.New("unknown output format")

// modelFile is the YAML layout accepted by "compute --model".
type modelFile struct {
	States       []string       `yaml:"states" validate:"required,min=1,dive,required"`
	Transitions  map[string]any `yaml:"transitions"`
	HoldingTimes map[string]any `yaml:"holding_times" validate:"required"`
	Hours        int            `yaml:"hours" validate:"gte=0"`
	StartState   string         `yaml:"start_state"`
}

type computeFlags struct {
	model  string
	hours  int
	start  string
	output string
}

var computeOpts computeFlags

var computeCmd = &cobra.Command{
	Use:   "compute",
	Short: "Compute occupancy for a model file",
	Long: `Reads a YAML model (states, transitions, holding_times and optionally hours
and start_state) and prints the long-run share of time spent in each state.
Without --model the built-in weather model is used.`,
	Example: `  occupancy compute --model configs/weather.yml
  occupancy compute --hours 24 --output json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCompute(cmd.OutOrStdout(), computeOpts)
	},
}

func init() {
	f := computeCmd.Flags()
	f.StringVarP(&computeOpts.model, "model", "m", "", "YAML model file")
	f.IntVar(&computeOpts.hours, "hours", 0, "horizon in hours (overrides the file)")
	f.StringVar(&computeOpts.start, "start", "", "start state (overrides the file)")
	f.StringVarP(&computeOpts.output, "output", "o", outputTable, "output format: table | json")
	rootCmd.AddCommand(computeCmd)
}

func runCompute(w io.Writer, opts computeFlags) error {
	if opts.output != outputTable && opts.output != outputJSON {
		return fmt.Errorf("%w: %q", errUnknownOutput, opts.output)
	}

	in, err := loadInput(opts.model)
	if err != nil {
		return err
	}
	if opts.hours != 0 {
		in.Hours = opts.hours
	}
	if opts.start != "" {
		in.StartState = opts.start
	}

	engOpts := engine.Options{}
	defaultHours := service.DefaultHours
	if cfg, err := config.Load(configPath); err == nil {
		engOpts = engineOptions(cfg.Engine)
		defaultHours = cfg.Engine.DefaultHours
	} else if configPath != "" {
		return err
	}
	if in.Hours == 0 {
		in.Hours = defaultHours
	}

	res, err := engine.New(engOpts).Compute(in)
	if err != nil {
		return err
	}
	if opts.output == outputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	return printTable(w, res)
}

// loadInput reads path into an engine input; an empty path yields the
// default weather model.
func loadInput(path string) (engine.Input, error) {
	if path == "" {
		m := service.DefaultModel()
		return engine.Input{
			States:       m.States,
			Transitions:  engine.RawFromFloats(m.Transitions),
			HoldingTimes: m.HoldingTimes,
		}, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return engine.Input{}, fmt.Errorf("read model: %w", err)
	}
	var mf modelFile
	if err := yaml.Unmarshal(b, &mf); err != nil {
		return engine.Input{}, fmt.Errorf("parse model %s: %w", path, err)
	}
	if err := validator.New().Struct(mf); err != nil {
		return engine.Input{}, fmt.Errorf("invalid model %s: %w", path, err)
	}
	return mf.input()
}

func (mf modelFile) input() (engine.Input, error) {
	holding := make(map[string]float64, len(mf.HoldingTimes))
	for _, st := range slices.Sorted(maps.Keys(mf.HoldingTimes)) {
		h, ok := engine.ParseNumber(mf.HoldingTimes[st])
		if !ok {
			return engine.Input{}, fmt.Errorf("%w: holding time for %q is not a number", engine.ErrValidation, st)
		}
		holding[st] = h
	}
	return engine.Input{
		States:       mf.States,
		Transitions:  engine.ParseRawTransitions(mf.Transitions),
		HoldingTimes: holding,
		Hours:        mf.Hours,
		StartState:   mf.StartState,
	}, nil
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	noteStyle   = lipgloss.NewStyle().Faint(true)
)

func printTable(w io.Writer, res *engine.Result) error {
	rows := make([][]string, len(res.States))
	for i, st := range res.States {
		rows[i] = []string{
			st,
			strconv.FormatFloat(res.Frequencies[i], 'f', 4, 64),
			strconv.FormatFloat(res.Stationary[i], 'f', 6, 64),
		}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("STATE", "PERCENT", "STATIONARY").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	d := res.Diagnostics
	note := fmt.Sprintf("hours=%d iterations=%d cesaro=%t", res.Hours, d.Iterations, d.Cesaro)
	if d.MultipleStationary {
		note += fmt.Sprintf(" multiple_stationary=true closed_classes=%v", d.ClosedClasses)
	}
	_, err := fmt.Fprintf(w, "%s\n%s\n", t.Render(), noteStyle.Render(note))
	return err
}
