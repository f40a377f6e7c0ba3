package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tactuslabs/tactus/wire"
	"gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // autoregisters driver
)

func init() {
	liveCmd.Flags().IntVar(&livePort, "port", 0, "MIDI input port number")
	rootCmd.AddCommand(liveCmd)
}

var livePort int

var liveCmd = &cobra.Command{
	Use:   "live",
	Short: "Broadcast live notes from a local MIDI keyboard",
	Long: `Listen on a local MIDI input port and broadcast each note as a
live packet on the configured channel, so a keyboard can join the
ensemble without scheduling.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return live()
	},
}

func live() error {
	defer midi.CloseDriver()

	in, err := midi.InPort(livePort)
	if err != nil {
		return err
	}

	tr, err := openTransport()
	if err != nil {
		return err
	}
	handler := wire.NewHandler(tr, cfg.Channel, logger)
	defer handler.Close()

	stop, err := midi.ListenTo(in, func(msg midi.Message, timestampms int32) {
		var ch, key, vel uint8
		switch {
		case msg.GetNoteStart(&ch, &key, &vel):
			send(handler, key, vel)
		case msg.GetNoteEnd(&ch, &key):
			send(handler, key, 0)
		}
	})
	if err != nil {
		return err
	}
	defer stop()

	logger.Info("live input running", "port", livePort, "channel", cfg.Channel)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	<-sigs
	return nil
}

func send(handler *wire.Handler, note, intensity uint8) {
	pkt := wire.Live{Channel: cfg.Channel, Note: note, Intensity: intensity}
	if err := handler.Send(pkt, wire.Broadcast, wire.DefaultRetransmit); err != nil {
		logger.Warn("live note send failed", "note", note, "err", err)
	}
}
