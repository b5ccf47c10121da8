package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sentinelcare/sentinel/internal/profile"
	"github.com/sentinelcare/sentinel/plugin/ai"
	"github.com/sentinelcare/sentinel/server/memory"
	"github.com/sentinelcare/sentinel/server/workflow"
	"github.com/sentinelcare/sentinel/store"
	"github.com/sentinelcare/sentinel/store/db"
)

const (
	greetingBanner = `
                _   _            _
 ___  ___ _ __ | |_(_)_ __   ___| |
/ __|/ _ \ '_ \| __| | '_ \ / _ \ |
\__ \  __/ | | | |_| | | | |  __/ |
|___/\___|_| |_|\__|_|_| |_|\___|_|
`
)

var (
	instanceProfile *profile.Profile

	rootCmd = &cobra.Command{
		Use:   "sentinel",
		Short: "Clinical night and day surveillance agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	admitCmd = &cobra.Command{
		Use:   "admit <patient.json>",
		Short: "Register or update a patient from a profile file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdmit(cmd.Context(), args[0])
		},
	}

	sessionCmd *cobra.Command

	statsCmd *cobra.Command
)

func init() {
	sessionCmd = &cobra.Command{
		Use:   "session",
		Short: "Run one full surveillance and consultation cycle",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd.Context())
		},
	}

	statsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Print patient graph statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd.Context())
		},
	}

	viper.SetEnvPrefix("sentinel")
	viper.AutomaticEnv()

	rootCmd.PersistentFlags().String("mode", "dev", `mode of the instance, "dev" or "prod"`)
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", `store driver, "sqlite" or "postgres"`)
	rootCmd.PersistentFlags().String("dsn", "", "database connection string")
	rootCmd.PersistentFlags().String("report-dir", "", "directory for rendered reports")

	for _, flag := range []string{"mode", "data", "driver", "dsn", "report-dir"} {
		if err := viper.BindPFlag(strings.ReplaceAll(flag, "-", "_"), rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(err)
		}
	}

	sessionCmd.Flags().String("patient", "", "patient identifier (required)")
	sessionCmd.Flags().String("vitals", "", "path to a night vitals recording")
	sessionCmd.Flags().String("signals", "", "path to an audio/vision signals JSON file")
	sessionCmd.Flags().StringSlice("symptom", nil, "reported symptom, repeatable")
	sessionCmd.Flags().String("exam", "", "examination notes")
	sessionCmd.Flags().String("consult-mode", "", `consultation mode, "cardio" or "general"`)
	sessionCmd.Flags().String("day-vitals", "", "path to a consultation vitals recording")
	_ = sessionCmd.MarkFlagRequired("patient")

	statsCmd.Flags().Bool("vacuum", false, "prune dangling edges before counting")

	rootCmd.AddCommand(admitCmd, sessionCmd, statsCmd)

	cobra.OnInitialize(func() {
		instanceProfile = &profile.Profile{
			Mode:      viper.GetString("mode"),
			Data:      viper.GetString("data"),
			Driver:    viper.GetString("driver"),
			DSN:       viper.GetString("dsn"),
			ReportDir: viper.GetString("report_dir"),
		}
		instanceProfile.FromEnv()
		if err := instanceProfile.Validate(); err != nil {
			slog.Error("invalid configuration", "error", err)
			os.Exit(1)
		}

		level := slog.LevelInfo
		if instanceProfile.IsDev() {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	})
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// openServices wires the store, memory service and engine from the profile.
func openServices(ctx context.Context) (*store.Store, *memory.Service, *workflow.Engine, error) {
	driver, err := db.NewDBDriver(instanceProfile)
	if err != nil {
		return nil, nil, nil, err
	}
	graphStore := store.New(driver, instanceProfile)
	if err := graphStore.Migrate(ctx); err != nil {
		_ = graphStore.Close()
		return nil, nil, nil, err
	}

	memoryService := memory.NewService(graphStore, instanceProfile.RecentEventLimit)

	var provider ai.CompletionProvider
	if instanceProfile.IsAIEnabled() {
		cfg := ai.NewConfigFromProfile(instanceProfile)
		base, err := ai.NewCompletionProvider(cfg)
		if err != nil {
			_ = graphStore.Close()
			return nil, nil, nil, err
		}
		// One shared inference endpoint serves every concurrent session.
		provider = ai.NewRateLimited(base, 1, 2)
		slog.Info("completion provider ready", "provider", base.Name(), "model", cfg.Model)
	} else {
		slog.Warn("AI disabled, reports degrade to deterministic templates")
	}

	engine := workflow.NewEngine(memoryService, provider, nil, workflow.Options{
		ReportDir:  instanceProfile.ReportDir,
		LLMTimeout: instanceProfile.AITimeout,
	})
	return graphStore, memoryService, engine, nil
}

func runAdmit(ctx context.Context, path string) error {
	graphStore, memoryService, _, err := openServices(ctx)
	if err != nil {
		return err
	}
	defer graphStore.Close()

	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var patient memory.PatientProfile
	if err := json.Unmarshal(raw, &patient); err != nil {
		return err
	}

	node, err := memoryService.AddPatient(ctx, &patient)
	if err != nil {
		return err
	}
	fmt.Printf("patient %s registered as node %s\n", patient.ID, node.ID)
	return nil
}

func runSession(ctx context.Context) error {
	graphStore, _, engine, err := openServices(ctx)
	if err != nil {
		return err
	}
	defer graphStore.Close()

	input, err := sessionInputFromFlags()
	if err != nil {
		return err
	}

	fmt.Print(greetingBanner)
	state, err := engine.StartSession(ctx, input.PatientID)
	if err != nil {
		return err
	}
	if err := engine.RunSession(ctx, state, input); err != nil {
		return err
	}

	fmt.Printf("session %s finished in phase %s\n", state.SessionID, state.Phase)
	if state.Rap1Report != nil && state.Rap1Report.Path != "" {
		fmt.Printf("night report: %s\n", state.Rap1Report.Path)
	}
	if state.Rap2Report != nil {
		if state.Rap2Report.Path != "" {
			fmt.Printf("day report: %s\n", state.Rap2Report.Path)
		}
		if state.Rap2Report.Trend != "" {
			fmt.Printf("evolution: %s\n", state.Rap2Report.Trend)
		}
	}
	for _, warning := range state.Warnings {
		fmt.Printf("warning: %s\n", warning)
	}
	for _, errMsg := range state.Errors {
		fmt.Printf("error: %s\n", errMsg)
	}
	return nil
}

func sessionInputFromFlags() (*workflow.SessionInput, error) {
	input := &workflow.SessionInput{
		PatientID:        mustFlagString(sessionCmd, "patient"),
		ExamNotes:        mustFlagString(sessionCmd, "exam"),
		ConsultationMode: workflow.ConsultationMode(mustFlagString(sessionCmd, "consult-mode")),
	}
	input.Symptoms, _ = sessionCmd.Flags().GetStringSlice("symptom")

	if path := mustFlagString(sessionCmd, "vitals"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		input.VitalLines = strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	}
	if path := mustFlagString(sessionCmd, "day-vitals"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		input.DayVitalLines = strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	}
	if path := mustFlagString(sessionCmd, "signals"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &input.Signals); err != nil {
			return nil, err
		}
	}
	return input, nil
}

func mustFlagString(cmd *cobra.Command, name string) string {
	value, _ := cmd.Flags().GetString(name)
	return value
}

func runStats(ctx context.Context) error {
	graphStore, memoryService, _, err := openServices(ctx)
	if err != nil {
		return err
	}
	defer graphStore.Close()

	if vacuum, _ := statsCmd.Flags().GetBool("vacuum"); vacuum {
		if err := graphStore.Vacuum(ctx); err != nil {
			return err
		}
	}

	stats, err := memoryService.GraphStats(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("nodes: %d, edges: %d\n", stats.NodeCount, stats.EdgeCount)
	for nodeType, count := range stats.NodesByType {
		fmt.Printf("  %s: %d\n", nodeType, count)
	}
	return nil
}
