package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tactuslabs/tactus/library"
)

func init() {
	libraryCmd.AddCommand(libraryListCmd, libraryPullCmd, libraryPushCmd)
	rootCmd.AddCommand(libraryCmd)
}

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "Manage the song library",
}

func openLibrary() *library.Library {
	return &library.Library{Dir: cfg.GetSongDir(), Bucket: cfg.GetBucket()}
}

var libraryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List local songs",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range openLibrary().List() {
			fmt.Println(name)
		}
		return nil
	},
}

var libraryPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Download songs from the shared bucket",
	RunE: func(cmd *cobra.Command, args []string) error {
		pulled, err := openLibrary().Pull()
		if err != nil {
			return err
		}
		logger.Info("library pulled", "songs", len(pulled))
		return nil
	},
}

var libraryPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Upload local songs to the shared bucket",
	RunE: func(cmd *cobra.Command, args []string) error {
		pushed, err := openLibrary().Push()
		if err != nil {
			return err
		}
		logger.Info("library pushed", "songs", len(pushed))
		return nil
	},
}
