package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"servicewatchdog/internal/clock"
	"servicewatchdog/internal/config"
	"servicewatchdog/internal/models"
	"servicewatchdog/internal/service"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Query the target service once and print its state",
	RunE:  runStatus,
}

var checkConfigCmd = &cobra.Command{
	Use:   "check-config",
	Short: "Validate the configuration and print the effective settings",
	RunE:  runCheckConfig,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(checkConfigCmd)
}

type statusReport struct {
	Target    string               `json:"target"`
	Exists    bool                 `json:"exists"`
	Status    models.ServiceStatus `json:"status,omitempty"`
	Error     string               `json:"error,omitempty"`
	CheckedAt time.Time            `json:"checked_at"`
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	oracle, err := service.New(clock.Real())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	report := statusReport{Target: cfg.Monitor.Target, CheckedAt: time.Now().UTC()}
	report.Exists = oracle.Exists(ctx, report.Target)
	if report.Exists {
		status, err := oracle.Status(ctx, report.Target)
		if err != nil {
			report.Error = err.Error()
		} else {
			report.Status = status
		}
	}
	return printStatus(cmd.OutOrStdout(), report, statusJSON)
}

func printStatus(w io.Writer, report statusReport, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	switch {
	case !report.Exists:
		_, err := fmt.Fprintf(w, "%s: not installed\n", report.Target)
		return err
	case report.Error != "":
		_, err := fmt.Fprintf(w, "%s: status unavailable: %s\n", report.Target, report.Error)
		return err
	}
	_, err := fmt.Fprintf(w, "%s: %s\n", report.Target, report.Status)
	return err
}
