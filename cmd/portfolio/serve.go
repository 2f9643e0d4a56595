package main

import (
	"context"
	"fmt"
	"log"

	"github.com/jonathan/portfolio-site/internal/db"
	"github.com/jonathan/portfolio-site/internal/seed"
	"github.com/jonathan/portfolio-site/internal/server"
	"github.com/spf13/cobra"
)

var (
	servePort int
	serveSeed string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start the portfolio API. With --seed, the given portfolio file is stored when the database holds none.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default from SERVER_PORT or 8001)")
	serveCmd.Flags().StringVar(&serveSeed, "seed", "", "Portfolio JSON/YAML file to load into an empty database")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}
	port := cfg.ServerPort
	if servePort != 0 {
		port = servePort
	}

	jwtConfig, err := cfg.JWT()
	if err != nil {
		return fmt.Errorf("invalid JWT configuration: %w", err)
	}

	ctx := commandContext(cmd)

	store, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if serveSeed != "" {
		if err := seedEmptyStore(ctx, store, serveSeed); err != nil {
			store.Close()
			return err
		}
	}

	srv, err := server.New(server.Config{
		Port:           port,
		Store:          store,
		JWT:            jwtConfig,
		IPHashKey:      cfg.IPHashKey,
		TrustedProxies: cfg.TrustedProxyList(),
	})
	if err != nil {
		store.Close()
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start(ctx)
}

func seedEmptyStore(ctx context.Context, store db.Store, path string) error {
	snap, err := seed.LoadFile(path)
	if err != nil {
		return err
	}
	stored, err := seed.IfEmpty(ctx, store, snap)
	if err != nil {
		return err
	}
	if stored {
		log.Printf("Seeded portfolio from %s", path)
	}
	return nil
}
