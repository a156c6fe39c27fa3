// cmd/compute.go
package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/xkilldash9x/vvprobe/internal/config"
	"github.com/xkilldash9x/vvprobe/internal/observability"
	"github.com/xkilldash9x/vvprobe/internal/viewport"
)

// newComputeCmd creates the `compute` command, which corrects a recorded
// platform snapshot without a browser.
func newComputeCmd(v *viper.Viper) *cobra.Command {
	var input string
	computeCmd := &cobra.Command{
		Use:   "compute",
		Short: "Correct a recorded platform snapshot (YAML or JSON)",
		Example: `  vvprobe compute --input snapshot.yaml --resize-dimensions --format text
  cat snapshot.json | vvprobe compute --clamp-offsets --mobile`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(v, cmd.Flags(), mergeKeys(correctionFlagKeys, outputFlagKeys))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewConfigFromViper(v)
			if err != nil {
				return err
			}
			logger := observability.GetLogger().Named("compute")

			snap, err := loadSnapshot(cmd.InOrStdin(), input)
			if err != nil {
				return err
			}
			return runCompute(snap, cfg, logger)
		},
	}

	computeCmd.Flags().StringVarP(&input, "input", "i", "-", "recorded snapshot file, - for stdin")
	addCorrectionFlags(computeCmd)
	addOutputFlags(computeCmd)
	return computeCmd
}

func runCompute(snap viewport.PlatformSnapshot, cfg *config.Config, logger *zap.Logger) error {
	reporter, err := openReporter(cfg.Output)
	if err != nil {
		return err
	}

	report := newCorrector(cfg.Correction, logger).report(snap)
	logger.Debug("Snapshot corrected.",
		zap.String("flags", describeFlags(report.Flags)),
		zap.Bool("mobile_engine", report.MobileEngine),
		zap.Bool("changed", report.Visual != nil && report.Visual.Changed()))

	if err := reporter.Write(report); err != nil {
		reporter.Close()
		return fmt.Errorf("failed to write report: %w", err)
	}
	return reporter.Close()
}

// loadSnapshot reads a snapshot from path ("-" is stdin). JSON is detected by
// a leading brace; everything else is parsed as YAML.
func loadSnapshot(stdin io.Reader, path string) (viewport.PlatformSnapshot, error) {
	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		var expanded string
		if expanded, err = homedir.Expand(path); err == nil {
			data, err = os.ReadFile(expanded)
		}
	}
	if err != nil {
		return viewport.PlatformSnapshot{}, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snap viewport.PlatformSnapshot
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return snap, fmt.Errorf("snapshot input is empty")
	}
	if trimmed[0] == '{' {
		err = jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(trimmed, &snap)
	} else {
		err = yaml.Unmarshal(trimmed, &snap)
	}
	if err != nil {
		return snap, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	return snap, nil
}
