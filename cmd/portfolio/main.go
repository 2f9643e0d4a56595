// Package main provides the portfolio command: API server, HTML site, seeding
// and admin reads.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jonathan/portfolio-site/internal/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath string
	cfg        config.Config
)

var rootCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Portfolio site and API",
	Long:  "Serves a single-page professional portfolio backed by a small REST API with contact and analytics endpoints.",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		resolved, err := config.Resolve(configPath)
		if err != nil {
			return err
		}
		cfg = resolved
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a JSON config file (environment variables take precedence)")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
