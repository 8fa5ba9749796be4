// Command ascendctl runs the backend's jobs from a terminal: the HTTP server,
// migrations, a reminder pass, or a one-off certificate extraction.
package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ascend-backend/internal/bootstrap"
	"ascend-backend/internal/extraction"
	"ascend-backend/internal/shared/config"
	"ascend-backend/internal/shared/server"
	"ascend-backend/internal/shared/storage/db"
	"ascend-backend/internal/shared/telemetry"
)

var (
	timeout time.Duration
	docType string
)

var rootCmd = &cobra.Command{
	Use:           "ascendctl",
	Short:         "Ascend Roofing backend tools",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		app, err := bootstrap.Build(cfg)
		if err != nil {
			return err
		}
		addr := server.Addr(cfg.Port)
		telemetry.Info("api.listening", map[string]any{"addr": addr, "env": cfg.Env})
		return app.Router.Run(addr)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.PoolFor(db.RoleCommand))
		if err != nil {
			return err
		}
		defer sqlDB.Close()
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			return err
		}
		version, err := db.MigrationVersion(ctx, sqlDB)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "database at version %d\n", version)
		return nil
	},
}

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Send expiry reminders once",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := bootstrap.Build(config.Load())
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		report, err := app.ReminderJob.Run(ctx)
		if err != nil {
			return err
		}
		return printJSON(cmd, map[string]any{
			"documentsFound": report.DocumentsFound,
			"emailsSent":     report.EmailsSent(),
			"details":        report.Details,
		})
	},
}

var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Extract insurance fields from a certificate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hint := extraction.DocumentType(docType)
		if !hint.Valid() {
			return fmt.Errorf("unknown document type %q", docType)
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		mime := mimeFor(args[0], data)

		app, err := bootstrap.Build(config.Load())
		if err != nil {
			return err
		}
		if !app.Extractor.Configured() {
			return fmt.Errorf("no LLM provider configured")
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		res := app.Extractor.Extract(ctx, extraction.Input{
			DataURI:      "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data),
			MimeType:     mime,
			DocumentType: hint,
		})
		out := map[string]any{"outcome": res.Outcome.String()}
		if res.OK() {
			out["fields"] = res.Fields
		} else {
			out["message"] = res.Message
		}
		return printJSON(cmd, out)
	},
}

func mimeFor(path string, data []byte) string {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return "application/pdf"
	}
	return http.DetectContentType(data)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Operation timeout")
	extractCmd.Flags().StringVar(&docType, "type", string(extraction.PublicLiability), "public_liability, workers_comp or other")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(remindCmd)
	rootCmd.AddCommand(extractCmd)
}

func main() {
	defer telemetry.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
