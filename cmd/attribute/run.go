package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/johnquangdev/speaker-attribution/internal/usecase/attribution"
	"github.com/johnquangdev/speaker-attribution/internal/usecase/report"
	"github.com/johnquangdev/speaker-attribution/pkg/config"
	pkglogger "github.com/johnquangdev/speaker-attribution/pkg/logger"
)

var (
	runInput     string
	runFormat    string
	runOutput    string
	runThreshold float64
	runWindow    int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Attribute speakers of one meeting bundle",
	Long: `Reads a meeting bundle (utterances, roster and optional speaker changes)
from a .json or .yaml file, runs the attribution engine and prints the
result in the requested format.

Thresholds come from the ATTRIBUTION_* environment, then the bundle's
params block, then the flags given here.`,
	Example: `  attribute run --input meeting.yaml
  attribute run --input meeting.json --format report --output report.md`,
	RunE: runAttribution,
}

func init() {
	runCmd.Flags().StringVarP(&runInput, "input", "i", "", "meeting bundle (.json, .yaml)")
	runCmd.Flags().StringVarP(&runFormat, "format", "f", string(report.FormatLabeled), "output format: flat, labeled, labels, report, json")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "write to file instead of stdout")
	runCmd.Flags().Float64Var(&runThreshold, "threshold", 0, "override the mention score needed to assign a label")
	runCmd.Flags().IntVar(&runWindow, "near-window", 0, "override the near-mention window in utterances")
	_ = runCmd.MarkFlagRequired("input")
}

func runAttribution(cmd *cobra.Command, args []string) error {
	format, err := report.ParseFormat(runFormat)
	if err != nil {
		return err
	}

	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	b, err := loadBundle(runInput)
	if err != nil {
		return err
	}

	params := b.Params.apply(attribution.ParamsFromConfig(cfg.Attribution))
	if cmd.Flags().Changed("threshold") {
		params.AssignThreshold = runThreshold
	}
	if cmd.Flags().Changed("near-window") {
		params.NearWindow = runWindow
	}

	var opts []attribution.Option
	if verbose {
		logger, err := pkglogger.New("development", logLevel)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		defer logger.Sync()
		opts = append(opts, attribution.WithObserver(attribution.NewZapObserver(logger.Named("engine"))))
	}

	engine, err := attribution.NewEngine(params, opts...)
	if err != nil {
		return err
	}
	res, err := engine.Attribute(b.Input)
	if err != nil {
		return err
	}

	body, err := report.NewRenderer().Render(format, res, b.MeetingStartMs)
	if err != nil {
		return err
	}

	var out io.Writer = cmd.OutOrStdout()
	if runOutput != "" {
		f, err := os.Create(runOutput)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer f.Close()
		out = f
	}
	if _, err := io.WriteString(out, body); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if res.Outcome != attribution.OutcomeMapped {
		fmt.Fprintf(cmd.ErrOrStderr(), "outcome: %s\n", res.Outcome)
	}
	if verbose {
		for _, label := range res.Mapping.Labels() {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s -> %s\n", label, res.Mapping[label])
		}
	}
	return nil
}
