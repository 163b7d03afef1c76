package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yungbote/outcomes-backend/internal/app"
	"github.com/yungbote/outcomes-backend/internal/config"
	"github.com/yungbote/outcomes-backend/internal/data/db"
	"github.com/yungbote/outcomes-backend/internal/platform/logger"
)

var (
	configPath  string
	logMode     string
	metricsAddr string

	olderThan time.Duration
	setID     uint
	courseID  uint
	groupID   uint
	userID    uint
	outFormat string

	rt *app.App

	rootCmd = &cobra.Command{
		Use:               "outcomes",
		Short:             "Outcome taxonomy, mastery marks and outcome reports",
		SilenceUsage:      true,
		PersistentPreRunE: bootstrap,
		PersistentPostRun: func(cmd *cobra.Command, args []string) { rt.Close() },
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the outcome tables",
		RunE:  runMigrate,
	}

	pruneHistoryCmd = &cobra.Command{
		Use:   "prune-history",
		Short: "Delete mark history rows older than the retention window",
		RunE:  runPruneHistory,
	}

	repairSortOrderCmd = &cobra.Command{
		Use:   "repair-sortorder",
		Short: "Re-linearize the sort order of every outcome in a set",
		RunE:  runRepairSortOrder,
	}

	reportCmd = &cobra.Command{
		Use:   "report",
		Short: "Print outcome reports",
	}
	reportCourseCmd = &cobra.Command{
		Use:   "course",
		Short: "Completion, grade, attempt and coverage rows for every visible outcome of a set",
		RunE:  runReportCourse,
	}
	reportUserCmd = &cobra.Command{
		Use:   "user",
		Short: "One user's marks, awards, scale grades and attempts",
		RunE:  runReportUser,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&logMode, "log-mode", "", "override log.mode (development|production)")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while the command runs")

	pruneHistoryCmd.Flags().DurationVar(&olderThan, "older-than", 0, "retention window; defaults to history.retention")

	repairSortOrderCmd.Flags().UintVar(&setID, "set", 0, "outcome set id")
	_ = repairSortOrderCmd.MarkFlagRequired("set")

	for _, c := range []*cobra.Command{reportCourseCmd, reportUserCmd} {
		c.Flags().UintVar(&courseID, "course", 0, "course id")
		c.Flags().UintVar(&setID, "set", 0, "outcome set id")
		c.Flags().StringVarP(&outFormat, "output", "o", "yaml", "output format (yaml|json)")
		_ = c.MarkFlagRequired("course")
		_ = c.MarkFlagRequired("set")
	}
	reportCourseCmd.Flags().UintVar(&groupID, "group", 0, "restrict to one group")
	reportUserCmd.Flags().UintVar(&userID, "user", 0, "user id")
	_ = reportUserCmd.MarkFlagRequired("user")

	reportCmd.AddCommand(reportCourseCmd, reportUserCmd)
	rootCmd.AddCommand(migrateCmd, pruneHistoryCmd, repairSortOrderCmd, reportCmd)
}

func bootstrap(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if logMode != "" {
		cfg.Log.Mode = logMode
	}
	base, err := logger.NewWithOptions(logger.Options{
		Mode:     cfg.Log.Mode,
		Level:    cfg.Log.Level,
		Redact:   cfg.Log.Redact,
		HashSalt: cfg.Log.HashSalt,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	log := base.With("run_id", uuid.NewString(), "command", cmd.CommandPath())

	rt, err = app.New(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	rt.ServeMetrics(metricsAddr)
	return nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	if err := db.AutoMigrateAll(rt.DB); err != nil {
		return err
	}
	rt.Log.Info("migration complete")
	return nil
}

func runPruneHistory(cmd *cobra.Command, args []string) error {
	window := olderThan
	if window <= 0 {
		window = rt.Cfg.History.Retention
	}
	if window <= 0 {
		return fmt.Errorf("--older-than or history.retention must be positive")
	}
	cutoff := time.Now().Add(-window)
	n, err := rt.Services.Marking.PruneHistory(ctx(cmd), cutoff)
	if err != nil {
		return err
	}
	rt.Log.Info("history pruned", "removed", n, "cutoff", cutoff.Unix())
	fmt.Fprintf(cmd.OutOrStdout(), "removed %d history rows older than %s\n", n, cutoff.UTC().Format(time.RFC3339))
	return nil
}

func runRepairSortOrder(cmd *cobra.Command, args []string) error {
	res, err := rt.Services.Taxonomy.RepairSortOrder(ctx(cmd), setID)
	if err != nil {
		return err
	}
	rt.Log.Info("sort order repaired", "setid", res.SetID, "total", res.Total, "changed", len(res.Changed))
	fmt.Fprintf(cmd.OutOrStdout(), "set %d: %d of %d outcomes reordered\n", res.SetID, len(res.Changed), res.Total)
	return nil
}

func runReportCourse(cmd *cobra.Command, args []string) error {
	rep, err := rt.Services.Reports.CourseReport(ctx(cmd), courseID, setID, groupID)
	if err != nil {
		return err
	}
	return writeOutput(cmd.OutOrStdout(), outFormat, rep)
}

func runReportUser(cmd *cobra.Command, args []string) error {
	rep, err := rt.Services.Reports.UserReport(ctx(cmd), courseID, setID, userID)
	if err != nil {
		return err
	}
	return writeOutput(cmd.OutOrStdout(), outFormat, rep)
}

func ctx(cmd *cobra.Command) context.Context {
	if c := cmd.Context(); c != nil {
		return c
	}
	return context.Background()
}
