// Package cmd contains the CLI commands of the veriface service.
package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var debugLogging bool

var rootCmd = &cobra.Command{
	Use:   "veriface",
	Short: "Face enrollment and verification service",
	Long: `Veriface is a face verification service. It enrolls face images under
identity names, gates verification probes with a sharpness-based liveness
check, and matches embeddings against the enrolled set by cosine similarity.
Embeddings are produced by an external encoder service.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().BoolVar(&debugLogging, "debug", false, "Enable debug logging")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
