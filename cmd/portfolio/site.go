package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonathan/portfolio-site/internal/apiclient"
	"github.com/jonathan/portfolio-site/internal/site"
	"github.com/spf13/cobra"
)

var (
	sitePort       int
	siteNoTracking bool
)

var siteCmd = &cobra.Command{
	Use:   "site",
	Short: "Serve the portfolio web page",
	Long:  `Serve the server-rendered portfolio page. All data is read from the API at PORTFOLIO_API_URL.`,
	RunE:  runSite,
}

func init() {
	siteCmd.Flags().IntVar(&sitePort, "port", 0, "Port to listen on (default from SITE_PORT or 3000)")
	siteCmd.Flags().BoolVar(&siteNoTracking, "no-tracking", false, "Do not log page views")
	rootCmd.AddCommand(siteCmd)
}

func runSite(cmd *cobra.Command, _ []string) error {
	port := cfg.SitePort
	if sitePort != 0 {
		port = sitePort
	}

	client, err := newClient()
	if err != nil {
		return err
	}

	s, err := site.New(site.Options{
		Client:           client,
		SharedSnapshot:   cfg.SharedSnapshot,
		DisablePageViews: siteNoTracking,
	})
	if err != nil {
		return fmt.Errorf("failed to create site: %w", err)
	}

	ctx := commandContext(cmd)
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return s.ListenAndServe(ctx, fmt.Sprintf(":%d", port))
}

// newClient builds a Data Client from the resolved configuration.
func newClient() (*apiclient.Client, error) {
	client, err := apiclient.New(apiclient.Options{
		BaseURL:    cfg.APIURL,
		Timeout:    cfg.APITimeout(),
		AdminToken: cfg.AdminToken,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}
	return client, nil
}
