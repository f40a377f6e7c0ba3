package cmd

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/tactuslabs/tactus/player"
	"github.com/tactuslabs/tactus/wire"
)

func init() {
	rootCmd.AddCommand(followCmd)
}

var followCmd = &cobra.Command{
	Use:   "follow",
	Short: "Run a satellite",
	Long: `Run a satellite for the configured channel: announce presence,
replicate the channel's portion of the song, and play it in time with
the conductor's clock.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return follow()
	},
}

func follow() error {
	tr, err := openTransport()
	if err != nil {
		return err
	}
	handler := wire.NewHandler(tr, cfg.Channel, logger)
	defer handler.Close()

	out, closeOut := openRenderer(func(position int) {
		logger.Debug("cursor", "position", position)
	})
	defer closeOut()

	f := player.NewFollower(cfg.Channel, out, nil, logger)

	if err := handler.SendPair(); err != nil {
		logger.Warn("pair request failed", "err", err)
	}
	logger.Info("waiting for packets", "channel", cfg.Channel)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case <-sigs:
			logger.Info("shutting down")
			return nil
		default:
		}

		if err := f.Update(); err != nil {
			logger.Error("playback error", "err", err)
		}

		pkt, err := handler.Read()
		if err != nil {
			logger.Warn("packet read failed", "err", err)
		} else if pkt != nil {
			f.HandlePacket(pkt)
		}

		time.Sleep(time.Millisecond)
	}
}
