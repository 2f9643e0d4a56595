package main

import (
	"context"
	"fmt"
	"io"

	"github.com/jonathan/portfolio-site/internal/db"
	"github.com/jonathan/portfolio-site/internal/seed"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load a portfolio document into the database",
	Long:  "Validates a portfolio JSON or YAML file against the portfolio schema and stores it as the served snapshot.",
	RunE:  runSeed,
}

var (
	seedFile    string
	seedIfEmpty bool
	seedDryRun  bool
)

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "Path to portfolio JSON/YAML file (required)")
	seedCmd.Flags().BoolVar(&seedIfEmpty, "if-empty", false, "Only store the document when no portfolio exists")
	seedCmd.Flags().BoolVar(&seedDryRun, "dry-run", false, "Validate the file without touching the database")

	if err := seedCmd.MarkFlagRequired("file"); err != nil {
		panic(fmt.Sprintf("failed to mark file flag as required: %v", err))
	}

	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	return seedDatabase(ctx, cmd.OutOrStdout(), cfg.DatabaseURL, seedFile, seedIfEmpty, seedDryRun)
}

func seedDatabase(ctx context.Context, out io.Writer, databaseURL, path string, ifEmpty, dryRun bool) error {
	snap, err := seed.LoadFile(path)
	if err != nil {
		return err
	}
	if dryRun {
		_, _ = fmt.Fprintf(out, "%s is valid: %d experience entries, %d projects\n", path, len(snap.Experience), len(snap.Projects))
		return nil
	}

	if databaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}
	store, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer store.Close()

	if ifEmpty {
		stored, err := seed.IfEmpty(ctx, store, snap)
		if err != nil {
			return err
		}
		if !stored {
			_, _ = fmt.Fprintln(out, "Portfolio already present, nothing stored")
			return nil
		}
	} else if err := seed.Replace(ctx, store, snap); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(out, "Stored portfolio for %s\n", snap.Personal.Name)
	return nil
}
