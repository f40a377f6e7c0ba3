package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/tactuslabs/tactus/config"
)

var (
	cfg    *config.Config
	logger *slog.Logger

	debugFlag   bool
	channelFlag int
)

var rootCmd = &cobra.Command{
	Use:   "tactus",
	Short: "Distributed multi-instrument playback",
	Long: `tactus coordinates a multi-instrument performance across linked
devices: one conductor owns the song, satellites replicate their own
channel and play it in sync.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if debugFlag {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level:     level,
			AddSource: debugFlag,
		}))
		slog.SetDefault(logger)

		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("channel") {
			cfg.Channel = uint8(channelFlag)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().IntVar(&channelFlag, "channel", 0, "override the configured instrument channel")
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
