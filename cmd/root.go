package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "landmark-studio",
	Short: "A tool for detecting and adjusting facial landmarks",
	Long: `Landmark Studio detects facial landmarks on portrait images using a
face-mesh detection service, aggregates them into anatomical groups
(nose tip, nose bridge, nostrils, eye centers) and lets you review,
adjust and export the results from the CLI or a web interface.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
