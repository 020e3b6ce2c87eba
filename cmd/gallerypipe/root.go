package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/gallerypipe/internal/config"
	"github.com/five82/gallerypipe/internal/logging"
)

// globalOptions holds the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath  string
	ffmpegPath  string
	ffprobePath string
	verbose     bool
	logLevel    string
	logFormat   string
}

func newRootCommand() *cobra.Command {
	g := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:           appName,
		Short:         "Produce compressed copies, thumbnails and previews for gallery videos",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&g.configPath, "config", "c", "", "TOML configuration file")
	flags.StringVar(&g.ffmpegPath, "ffmpeg", "ffmpeg", "ffmpeg executable")
	flags.StringVar(&g.ffprobePath, "ffprobe", "ffprobe", "ffprobe executable")
	flags.BoolVarP(&g.verbose, "verbose", "v", false, "Enable debug logging on stderr")
	flags.StringVar(&g.logLevel, "log-level", "info", "Log file level (debug, info, warn, error)")
	flags.StringVar(&g.logFormat, "log-format", logging.FormatText, "Log format (text or json)")

	rootCmd.AddCommand(newProcessCommand(g))
	rootCmd.AddCommand(newCheckCommand(g))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// loadConfig builds the configuration from defaults, the optional TOML
// file and any explicitly set persistent flags, in that order.
func (g *globalOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	if path := strings.TrimSpace(g.configPath); path != "" {
		if err := config.LoadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if f := cmd.Flag("ffmpeg"); f != nil && f.Changed {
		cfg.FFmpegPath = g.ffmpegPath
	}
	if f := cmd.Flag("ffprobe"); f != nil && f.Changed {
		cfg.FFprobePath = g.ffprobePath
	}
	return cfg, nil
}

// initLogging installs the global logger writing to w at --log-level.
// With --verbose it logs at debug level and also to stderr.
func (g *globalOptions) initLogging(w io.Writer) (*logging.Logger, error) {
	level, err := logging.ParseLevel(g.logLevel)
	if err != nil {
		return nil, err
	}
	if g.verbose {
		level = logging.LevelDebug
		if w == io.Discard {
			w = os.Stderr
		} else {
			w = io.MultiWriter(w, os.Stderr)
		}
	}
	logging.Init(level, g.logFormat, w)
	return logging.Global(), nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, appVersion)
			return err
		},
	}
}
