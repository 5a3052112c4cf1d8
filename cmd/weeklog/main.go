package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oleanders/weeklog/internal/api"
	"github.com/oleanders/weeklog/internal/config"
	"github.com/oleanders/weeklog/internal/export"
	"github.com/oleanders/weeklog/internal/grid"
	"github.com/oleanders/weeklog/internal/lifecycle"
	"github.com/oleanders/weeklog/internal/notify"
	"github.com/oleanders/weeklog/internal/server"
	"github.com/oleanders/weeklog/internal/session"
	"github.com/oleanders/weeklog/internal/store"
	"github.com/oleanders/weeklog/internal/timevalue"
	"github.com/oleanders/weeklog/internal/tui"
	"github.com/spf13/cobra"
	naturaldate "github.com/tj/go-naturaldate"
)

var rootCmd = &cobra.Command{
	Use:   "weeklog",
	Short: "Weekly timesheet grid",
	Long:  "weeklog shows your week as a grid of projects and days, saves it as a timesheet and walks it through submit, cancel and amend.",
}

var openCmd = &cobra.Command{
	Use:   "open",
	Short: "Open the weekly grid",
	RunE:  runOpen,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the timesheet service",
	RunE:  runServe,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the week's hours and timesheet state",
	RunE:  runStatus,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the week as an iCalendar file",
	RunE:  runExport,
}

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Send a desktop reminder if the week needs attention",
	RunE:  runRemind,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Open config file in your editor",
	RunE:  runConfig,
}

func init() {
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("week", "", "Week to operate on (2026-03-02, 'last week', '2 weeks ago')")
	rootCmd.PersistentFlags().String("employee", "", "Employee to act as (overrides config)")

	exportCmd.Flags().StringP("output", "o", "", "Write to file instead of stdout")

	rootCmd.AddCommand(openCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(remindCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if v, _ := cmd.Flags().GetBool("verbose"); v {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// resolveWeek turns the --week flag into a Monday-anchored window.
// Dates and natural phrases both work; empty means the current week.
func resolveWeek(cmd *cobra.Command) (grid.Week, error) {
	raw, _ := cmd.Flags().GetString("week")
	if raw == "" {
		return grid.WeekOf(time.Now()), nil
	}

	if t, err := time.Parse(api.DateOnly, raw); err == nil {
		return grid.WeekOf(t), nil
	}

	t, err := naturaldate.Parse(raw, time.Now(), naturaldate.WithDirection(naturaldate.Past))
	if err != nil {
		return grid.Week{}, fmt.Errorf("cannot understand week %q", raw)
	}
	return grid.WeekOf(t), nil
}

func newSession(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) (*session.Session, *api.Client, error) {
	week, err := resolveWeek(cmd)
	if err != nil {
		return nil, nil, err
	}

	employee, _ := cmd.Flags().GetString("employee")
	if employee == "" {
		employee = cfg.Service.Employee
	}

	client := api.NewClient(cfg.Service.BaseURL, logger)
	return session.New(client, employee, week, logger), client, nil
}

func runOpen(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	sess, client, err := newSession(cmd, cfg, newLogger(cmd))
	if err != nil {
		return err
	}

	if err := tui.Run(sess, client); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cmd)

	db, err := store.Open(cfg.Server.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := db.Seed(); err != nil {
		return fmt.Errorf("seeding database: %w", err)
	}

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: server.New(db, cfg.Server.DefaultEmployee, logger).Handler(),
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}()

	logger.Info("timesheet service listening", "addr", cfg.Server.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}

func fetchWeek(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) (*session.Session, error) {
	sess, _, err := newSession(cmd, cfg, logger)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	snap, err := sess.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching week: %w", err)
	}
	sess.Install(snap)
	return sess, nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	sess, err := fetchWeek(cmd, cfg, newLogger(cmd))
	if err != nil {
		return err
	}

	week := sess.Week()
	fmt.Printf("Week %s\n\n", week.String())

	rows := sess.Rows()
	if len(rows) == 0 {
		fmt.Println("No entries this week.")
		return nil
	}

	totals := sess.Totals()
	for i, r := range rows {
		label := r.ProjectName
		if label == "" {
			label = r.Project
		}
		if r.ActivityName != "" {
			label += " / " + r.ActivityName
		} else if r.ActivityType != "" {
			label += " / " + r.ActivityType
		}
		fmt.Printf("  %-40s %s\n", label, timevalue.Format(totals.PerRow[i]))
	}

	fmt.Printf("\nTotal: %s (billable %s, non-billable %s)\n",
		timevalue.Format(totals.Week),
		timevalue.Format(totals.Billable),
		timevalue.Format(totals.NonBillable))

	if doc := sess.Doc(); doc != nil {
		fmt.Printf("Timesheet: %s [%s]\n", doc.Name, doc.Status)
		if doc.Docstatus == lifecycle.Draft {
			fmt.Println("Draft has not been submitted yet.")
		}
	} else {
		fmt.Println("Week has not been saved to a timesheet yet.")
	}

	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	sess, err := fetchWeek(cmd, cfg, newLogger(cmd))
	if err != nil {
		return err
	}

	out := os.Stdout
	if path, _ := cmd.Flags().GetString("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if err := export.WriteWeek(out, sess.Rows(), sess.Week(), cfg.Calendar.Name); err != nil {
		return err
	}
	return nil
}

func runRemind(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if !cfg.Notifications.Enabled {
		return nil
	}

	sess, err := fetchWeek(cmd, cfg, newLogger(cmd))
	if err != nil {
		return err
	}

	return notify.WeekReminder(sess.Week(), sess.Totals(), sess.Doc())
}

func runConfig(cmd *cobra.Command, args []string) error {
	if err := config.EnsureConfigDir(); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath, err := config.ConfigPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := config.DefaultConfig()
		if err := config.Save(&cfg); err != nil {
			return fmt.Errorf("writing default config: %w", err)
		}
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	fmt.Printf("Opening %s with %s...\n", configPath, editor)

	proc := os.ProcAttr{
		Files: []*os.File{os.Stdin, os.Stdout, os.Stderr},
	}
	process, err := os.StartProcess(editor, []string{editor, configPath}, &proc)
	if err != nil {
		return fmt.Errorf("starting editor: %w", err)
	}
	_, err = process.Wait()
	return err
}
