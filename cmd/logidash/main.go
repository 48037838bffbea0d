package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/TobiSchelling/LogiDash/internal/cache"
	"github.com/TobiSchelling/LogiDash/internal/config"
	"github.com/TobiSchelling/LogiDash/internal/dashboard"
	"github.com/TobiSchelling/LogiDash/internal/database"
	"github.com/TobiSchelling/LogiDash/internal/export"
	"github.com/TobiSchelling/LogiDash/internal/logging"
	"github.com/TobiSchelling/LogiDash/internal/pipeline"
	"github.com/TobiSchelling/LogiDash/internal/report"
	"github.com/TobiSchelling/LogiDash/internal/server"
	"github.com/TobiSchelling/LogiDash/internal/sheets"
	"github.com/TobiSchelling/LogiDash/internal/status"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "logidash",
	Short:        "Logistics dashboard for spreadsheet-tracked orders",
	Long:         "LogiDash reads daily order and parcel rows from a spreadsheet, normalizes them, and serves aggregated dashboard metrics.",
	Version:      version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.LoadDotEnv()
		logging.Setup("info", verbose)

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		logging.Setup(cfg.Logging.Level, verbose)
		log.Debug().Str("config", path).Str("environment", cfg.Environment).Msg("config loaded")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(forecastCmd)
	rootCmd.AddCommand(parcelsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(auditCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("logidash", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/logidash/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Printf("Set sheets.orders.url or sheets.orders.file, or export %s.\n", config.EnvOrdersURL)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and sync status",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("Environment: %s\n\n", cfg.Environment)
		fmt.Println("Sheets:")
		fmt.Printf("  Orders:  %s\n", describeSheet(cfg.Sheets.Orders))
		fmt.Printf("  Parcels: %s\n", describeSheet(cfg.Sheets.Parcels))
		if err := cfg.Validate(); err != nil {
			fmt.Printf("  Problem: %v\n", err)
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		schema, _ := db.SchemaVersion()
		audits, err := db.CountAudit()
		if err != nil {
			return fmt.Errorf("counting audit entries: %w", err)
		}
		fmt.Println("\nDatabase:")
		fmt.Printf("  Path: %s\n", db.Path())
		fmt.Printf("  Schema version: %d\n", schema)
		fmt.Printf("  Audit entries: %d\n", audits)

		last, err := db.GetLastSyncReport()
		if err != nil {
			return fmt.Errorf("reading sync reports: %w", err)
		}
		fmt.Println("\nLast sync:")
		if last == nil {
			fmt.Println("  never (run 'logidash run')")
			return nil
		}
		state := "ok"
		if !last.Success {
			state = "failed: " + last.ErrorMessage
		}
		fmt.Printf("  Finished: %s (%s)\n", last.FinishedAt.Local().Format("2006-01-02 15:04"), state)
		fmt.Printf("  Records: %d from %d rows (%d skipped)\n", last.Records, last.RowsRead, last.RowsSkipped)
		if last.DateStart != "" {
			fmt.Printf("  Dates: %s to %s\n", last.DateStart, last.DateEnd)
		}
		fmt.Printf("  Parcels: %d, alerts: %d\n", last.Parcels, last.Alerts)
		return nil
	},
}

func describeSheet(s config.SheetSource) string {
	switch {
	case s.URL != "":
		return fmt.Sprintf("%s (%s)", s.URL, s.Range)
	case s.File != "":
		return fmt.Sprintf("%s (%s)", s.File, s.Range)
	}
	return "not configured"
}

// --- run command ---

var dryRun bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Sync once: fetch orders -> transform -> fetch parcels -> transform parcels -> aggregate -> record",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		orders, parcels := buildSources()
		pipe := pipeline.New(orders, parcels, serviceOptions(), db)

		var result *pipeline.Result
		if dryRun {
			result = pipe.DryRun()
		} else {
			result = pipe.Run(cmd.Context())
		}

		for i, step := range result.Steps {
			fmt.Printf("\nStep %d/%d: %s\n", i+1, len(result.Steps), step.Name)
			if step.Err != nil {
				fmt.Printf("  Error: %v\n", step.Err)
			} else {
				fmt.Printf("  %s\n", step.Summary)
			}
		}

		if dryRun {
			return nil
		}
		if err := result.Err(); err != nil {
			return err
		}
		fmt.Println("\nSync complete! Run 'logidash serve' to view the dashboard.")
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be done without executing")
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard API and web UI",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		if cfg.IsDevelopment() {
			gin.SetMode(gin.DebugMode)
		} else {
			gin.SetMode(gin.ReleaseMode)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		responses := cache.New(cfg.CacheTTLs())
		go responses.Run(ctx, time.Minute)

		srv, err := server.New(newService(), db, responses, server.Options{
			Dev:         cfg.IsDevelopment(),
			CORSOrigins: cfg.Server.CORSOrigins,
		})
		if err != nil {
			return err
		}

		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}
		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(ctx, srv, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8000, "Port to run server on")
}

// --- dashboard command ---

var (
	sortBy    string
	startDate string
	endDate   string
	asJSON    bool
)

func addQueryFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&sortBy, "sort-by", "day", "Group records by day, month or year")
	cmd.Flags().StringVar(&startDate, "start", "", "First date to include (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endDate, "end", "", "Last date to include (YYYY-MM-DD)")
}

func currentQuery() dashboard.Query {
	return dashboard.Query{SortBy: sortBy, StartDate: startDate, EndDate: endDate}
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Print the dashboard as a markdown report or JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := newService()
		p, err := svc.GetCompleteDashboard(cmd.Context(), sortBy, startDate, endDate)
		if err != nil {
			return err
		}
		if asJSON {
			return writeJSON(os.Stdout, p)
		}

		parcels, err := svc.Parcels(cmd.Context())
		if err != nil {
			log.Debug().Err(err).Msg("report without parcels")
		}
		fmt.Print(report.Compose(p, parcels).Markdown())
		return nil
	},
}

func init() {
	addQueryFlags(dashboardCmd)
	dashboardCmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw payload as JSON")
}

// --- forecast command ---

var forecastDays int

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Project orders and revenue for the coming days",
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := newService().Forecast(cmd.Context(), currentQuery(), forecastDays)
		if err != nil {
			return err
		}
		if res == nil {
			fmt.Println("Not enough data to forecast.")
			return nil
		}
		if asJSON {
			return writeJSON(os.Stdout, res)
		}

		fmt.Printf("Based on %d days (orders %+.2f/day, revenue %+.2f/day)\n\n",
			res.BasedOnDays, res.OrdersGrowthRate, res.RevenueGrowthRate)
		fmt.Printf("  %-10s  %8s  %12s  %s\n", "Date", "Orders", "Revenue", "Confidence")
		for _, pt := range res.Forecast {
			fmt.Printf("  %-10s  %8d  %12.2f  %.0f%%\n", pt.Date, pt.ForecastOrders, pt.ForecastRevenue, pt.Confidence*100)
		}
		return nil
	},
}

func init() {
	forecastCmd.Flags().StringVar(&startDate, "start", "", "First date to include (YYYY-MM-DD)")
	forecastCmd.Flags().StringVar(&endDate, "end", "", "Last date to include (YYYY-MM-DD)")
	forecastCmd.Flags().IntVarP(&forecastDays, "days", "d", 0, "Days to forecast (default from config)")
	forecastCmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
}

// --- parcels command ---

var (
	island    string
	parcelCSV string
)

var parcelsCmd = &cobra.Command{
	Use:   "parcels",
	Short: "Summarize parcels by island",
	RunE: func(cmd *cobra.Command, args []string) error {
		groups, err := newService().Parcels(cmd.Context())
		if err != nil {
			return err
		}

		bucket := groups.All
		if island != "" && island != "all" {
			if bucket = groups.Island(strings.ToLower(island)); bucket == nil {
				return fmt.Errorf("unknown island %q (use luzon, visayas or mindanao)", island)
			}
		}

		if parcelCSV != "" {
			f, err := os.Create(parcelCSV)
			if err != nil {
				return fmt.Errorf("creating %s: %w", parcelCSV, err)
			}
			defer f.Close()
			if err := export.WriteParcelsCSV(f, bucket.Parcels); err != nil {
				return err
			}
			fmt.Printf("Wrote %d parcels to %s\n", bucket.Total, parcelCSV)
			return nil
		}
		if asJSON {
			return writeJSON(os.Stdout, bucket)
		}

		fmt.Printf("Parcels: %d\n", bucket.Total)
		fmt.Printf("COD: %.2f, service charges: %.2f, RTS fees: %.2f\n\n", bucket.TotalCOD, bucket.TotalService, bucket.TotalRTSFee)
		fmt.Println("By status:")
		for _, st := range status.All {
			fmt.Printf("  %-12s %d\n", st, bucket.StatusCounts[st])
		}
		fmt.Println("\nBy island:")
		fmt.Printf("  Luzon: %d, Visayas: %d, Mindanao: %d\n", groups.Luzon.Total, groups.Visayas.Total, groups.Mindanao.Total)
		return nil
	},
}

func init() {
	parcelsCmd.Flags().StringVar(&island, "island", "", "Restrict to luzon, visayas or mindanao")
	parcelsCmd.Flags().StringVar(&parcelCSV, "csv", "", "Write the parcels to a CSV file")
	parcelsCmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
}

// --- export command ---

var (
	exportFormat string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export daily records as CSV or XLSX",
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := newService().Table(cmd.Context(), currentQuery())
		if err != nil {
			return err
		}

		format := strings.ToLower(exportFormat)
		if format != "csv" && format != "xlsx" {
			return fmt.Errorf("unknown format %q (use csv or xlsx)", exportFormat)
		}

		var w io.Writer = os.Stdout
		if exportOutput != "" {
			f, err := os.Create(exportOutput)
			if err != nil {
				return fmt.Errorf("creating %s: %w", exportOutput, err)
			}
			defer f.Close()
			w = f
		} else if format == "xlsx" {
			return fmt.Errorf("xlsx export needs --output")
		}

		if format == "xlsx" {
			err = export.WriteXLSX(w, table)
		} else {
			err = export.WriteCSV(w, table)
		}
		if err != nil {
			return err
		}
		if exportOutput != "" {
			fmt.Printf("Exported %d records to %s\n", len(table), exportOutput)
		}
		return nil
	},
}

func init() {
	addQueryFlags(exportCmd)
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "csv", "Output format: csv or xlsx")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default stdout for csv)")
}

// --- audit command ---

var (
	auditLimit  int
	auditActor  string
	auditAction string
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "List recent audit log entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		entries, err := db.ListAudit(database.AuditFilter{
			Action: auditAction,
			Actor:  auditActor,
			Limit:  auditLimit,
		})
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No audit entries.")
			return nil
		}
		for _, e := range entries {
			mark := " "
			if !e.Success {
				mark = "!"
			}
			fmt.Printf("%s %s  %-14s %-12s %s %s (%d)\n", mark,
				e.CreatedAt.Local().Format("2006-01-02 15:04:05"), e.Action, e.Actor, e.Method, e.Path, e.StatusCode)
		}
		return nil
	},
}

func init() {
	auditCmd.Flags().IntVarP(&auditLimit, "limit", "n", 20, "Number of entries to show")
	auditCmd.Flags().StringVar(&auditActor, "actor", "", "Only entries by this actor")
	auditCmd.Flags().StringVar(&auditAction, "action", "", "Only entries with this action")
}

// --- helpers ---

// buildSources creates the sheet clients once per process.
func buildSources() (orders, parcels sheets.Source) {
	return buildSource(cfg.Sheets.Orders), buildSource(cfg.Sheets.Parcels)
}

func buildSource(s config.SheetSource) sheets.Source {
	switch {
	case s.URL != "":
		return sheets.NewHTTPSource(s.URL, cfg.SheetsAPIKey(), cfg.SheetsTimeout())
	case s.File != "":
		return sheets.NewXLSXSource(s.File)
	}
	return nil
}

func serviceOptions() dashboard.Options {
	return dashboard.Options{
		OrdersRange:     cfg.Sheets.Orders.Range,
		ParcelsRange:    cfg.Sheets.Parcels.Range,
		ForecastHorizon: cfg.Forecast.HorizonDays,
	}
}

func newService() *dashboard.Service {
	orders, parcels := buildSources()
	return dashboard.NewService(orders, parcels, serviceOptions())
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return database.Open(cfg.DBPath())
}
