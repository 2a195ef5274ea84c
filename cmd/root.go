package cmd

import (
	"fmt"
	"log"
	"os"

	"SplitTrackFM/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "splittrack_server",
	Short: "SplitTrack FM is a music revenue splitting service.",
	Run: func(cmd *cobra.Command, args []string) {
		log.Println("Starting SplitTrack FM server...")
		server.Start()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
