package main

import (
	"context"
	"fmt"
	"io"

	"github.com/jonathan/portfolio-site/internal/config"
	"github.com/jonathan/portfolio-site/internal/server"
	"github.com/spf13/cobra"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Admin tasks against a running API",
}

var adminTokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an admin bearer token signed with JWT_SECRET",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return issueToken(cmd.OutOrStdout(), cfg)
	},
}

var adminHealthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check API health",
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		status, err := client.HealthCheck(commandContext(cmd))
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), status)
	},
}

var adminSubmissionsLimit int

var adminSubmissionsCmd = &cobra.Command{
	Use:   "submissions",
	Short: "List recent contact submissions",
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		records, err := client.GetContactSubmissions(commandContext(cmd), adminSubmissionsLimit)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), records)
	},
}

var adminAnalyticsDays int

var adminAnalyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Show the page-view summary",
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		summary, err := client.GetAnalyticsSummary(commandContext(cmd), adminAnalyticsDays)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), summary)
	},
}

func init() {
	adminSubmissionsCmd.Flags().IntVar(&adminSubmissionsLimit, "limit", 50, "Maximum number of submissions")
	adminAnalyticsCmd.Flags().IntVar(&adminAnalyticsDays, "days", 30, "Trailing window in days")

	adminCmd.AddCommand(adminTokenCmd, adminHealthCmd, adminSubmissionsCmd, adminAnalyticsCmd)
	rootCmd.AddCommand(adminCmd)
}

func issueToken(out io.Writer, c config.Config) error {
	jwtConfig, err := c.JWT()
	if err != nil {
		return fmt.Errorf("invalid JWT configuration: %w", err)
	}
	if jwtConfig == nil {
		return fmt.Errorf("JWT_SECRET environment variable is required")
	}
	token, err := server.NewJWTService(jwtConfig).GenerateToken()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, token)
	return err
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
