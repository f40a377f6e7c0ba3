package cmd

import (
	"fmt"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"
	"github.com/tactuslabs/tactus/score"
)

func init() {
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <song.bin>",
	Short: "Inspect a song binary",
	Long:  `Decode a song binary and dump its header and note spans.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return inspect(args[0])
	},
}

func inspect(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	h, spans, err := score.Decode(data)
	if err != nil {
		return err
	}
	meta := score.Derive(h)

	fmt.Printf("header: %v", spew.Sdump(h))
	fmt.Printf("tick_to_time: %.7fs  song_length: %.2fs\n", meta.TickToTime, meta.SongLength)
	fmt.Printf("spans: %v\n", len(spans))
	for _, sp := range spans {
		fmt.Printf("  %5d..%-5d ch=%d note=%d vel=%d\n", sp.Start, sp.End, sp.Channel, sp.Note, sp.Intensity)
	}
	return nil
}
