package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tactuslabs/tactus/convert"
)

func init() {
	rootCmd.AddCommand(convertCmd)
}

var convertCmd = &cobra.Command{
	Use:   "convert <file.mid>",
	Short: "Convert a MIDI file to the song binary format",
	Long: `Convert a standard MIDI file into the compact song binary the
devices distribute and play. The output lands next to the input with a
.bin extension.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConvert(args[0])
	},
}

func runConvert(path string) error {
	data, err := convert.File(path)
	if err != nil {
		return err
	}
	out := strings.TrimSuffix(strings.TrimSuffix(path, ".midi"), ".mid") + ".bin"
	if err := os.WriteFile(out, data, 0644); err != nil {
		return err
	}
	logger.Info("song written", "path", out, "bytes", len(data))
	return nil
}
