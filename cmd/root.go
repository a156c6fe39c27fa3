// cmd/root.go
package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/vvprobe/internal/config"
	"github.com/xkilldash9x/vvprobe/internal/observability"
)

// NewRootCommand builds a fresh command tree with its own viper instance.
func NewRootCommand() *cobra.Command {
	return newRootCommand(newBrowserProber)
}

func newRootCommand(factory ProberFactory) *cobra.Command {
	v := viper.New()
	config.SetDefaults(v)
	config.BindEnvironment(v)

	var cfgFile string
	rootCmd := &cobra.Command{
		Use:   "vvprobe",
		Short: "vvprobe measures and corrects a page's visual viewport during overscroll.",
		Long: `vvprobe reads the visual viewport, scroll position, layout viewport and
window geometry of a page and corrects visual viewport values that go
inconsistent while the page rubber-bands past its edges.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initializeConfig(v, cfgFile); err != nil {
				return err
			}
			var loggerCfg config.LoggerConfig
			if err := v.UnmarshalKey("logger", &loggerCfg); err != nil {
				observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "vvprobe"})
				return fmt.Errorf("failed to unmarshal logger config: %w", err)
			}
			observability.InitializeLogger(loggerCfg)
			observability.GetLogger().Debug("Starting vvprobe", zap.String("version", Version))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	_ = v.BindPFlag("logger.level", rootCmd.PersistentFlags().Lookup("log-level"))
	rootCmd.SetVersionTemplate(`{{printf "%s version %s\n" .Name .Version}}`)

	rootCmd.AddCommand(
		newComputeCmd(v),
		newProbeCmd(v, factory),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute runs the root command. Failures are logged; a canceled context is
// reported as such so main can exit cleanly.
func Execute(ctx context.Context) error {
	err := NewRootCommand().ExecuteContext(ctx)
	if err != nil {
		logger := observability.GetLogger()
		if errors.Is(err, context.Canceled) {
			logger.Info("Command canceled.")
		} else {
			logger.Error("Command execution failed", zap.Error(err))
		}
	}
	observability.Sync()
	return err
}

// initializeConfig reads the config file, if any. A missing default
// config.yaml is not an error.
func initializeConfig(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

// bindFlags maps flags onto config keys. Commands bind in PreRunE so that
// only the running command's flags override shared keys.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) error {
	for name, key := range keys {
		flag := flags.Lookup(name)
		if flag == nil {
			return fmt.Errorf("unknown flag %q", name)
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag %q: %w", name, err)
		}
	}
	return nil
}
