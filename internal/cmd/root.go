package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/atikulmunna/threadline/internal/config"
	"github.com/atikulmunna/threadline/internal/metrics"
	"github.com/atikulmunna/threadline/internal/pipeline"
	"github.com/atikulmunna/threadline/internal/render"
)

var (
	cfgFile   string
	verbose   bool
	outputFmt string

	cfg    config.Config
	logger *zap.SugaredLogger
)

// rootCmd renders a timeline when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "threadline [log] [svg]",
	Short: "threadline: thread timelines from arrow debug logs",
	Long: `threadline reads the debug log of a multi-threaded arrow scheduler,
pairs every "Executing arrow" with its "Executed arrow" line per thread,
and draws the result as an SVG timeline: one lane per thread, one
rectangle per arrow run, bands for barrier windows.

The producer must run with jana:loglevel=debug and
jana:log:show_threadstamp=1.

Examples:
  threadline
  threadline run.log
  threadline run.log run.svg`,
	Args:              cobra.MaximumNArgs(2),
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
	RunE: runRender,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "threadline:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: $HOME/.threadline.yaml or ./.threadline.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log reconstruction details")
}

func initConfig() {
	config.SetDefaults(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigName(".threadline")
		viper.SetConfigType("yaml")
	}
}

// setup loads the configuration and builds the logger for every command.
func setup(cmd *cobra.Command, args []string) error {
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	var err error
	cfg, err = config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err = newLogger(verbose)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	if used := viper.ConfigFileUsed(); used != "" {
		logger.Debugw("loaded config", "path", used)
	}
	return nil
}

func newLogger(verbose bool) (*zap.SugaredLogger, error) {
	zcfg := zap.NewDevelopmentConfig()
	zcfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if verbose {
		zcfg.Level.SetLevel(zapcore.DebugLevel)
	}
	zcfg.DisableStacktrace = true
	zcfg.DisableCaller = true
	zcfg.EncoderConfig.TimeKey = ""
	l, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

// paths resolves the positional [log] [svg] arguments against the config.
func paths(args []string) (in, out string) {
	in, out = cfg.Input, cfg.Output
	if len(args) > 0 {
		in = args[0]
	}
	if len(args) > 1 {
		out = args[1]
	}
	return in, out
}

func newPipeline(m *metrics.Metrics) *pipeline.Pipeline {
	return pipeline.New(
		render.NewSVGRenderer(cfg.RenderOptions()),
		pipeline.WithMidnightWrap(cfg.WrapMidnight),
		pipeline.WithMetrics(m),
		pipeline.WithLogger(logger),
	)
}

func runRender(cmd *cobra.Command, args []string) error {
	in, out := paths(args)
	_, err := newPipeline(nil).RenderFile(in, out)
	return err
}
