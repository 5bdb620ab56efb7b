package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/codeready-toolchain/remedy/pkg/config"
	"github.com/codeready-toolchain/remedy/pkg/models"
	"github.com/codeready-toolchain/remedy/pkg/oc"
	"github.com/codeready-toolchain/remedy/pkg/queue"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one remediation workflow without the server",
	Long: `Drives a single alert through the remediation workflow in-process, with no
database or HTTP API, and prints the final report as JSON. Useful for trying
out a remediation locally; --dry-run echoes commands instead of executing
them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnce(cmd)
	},
}

func init() {
	runCmd.Flags().String("config-dir", os.Getenv("CONFIG_DIR"), "Path to configuration directory (optional, defaults apply)")
	runCmd.Flags().String("alert", "", "Alert name (required)")
	runCmd.Flags().String("namespace", "", "Alert namespace (required)")
	runCmd.Flags().String("diagnostics", "", "File holding alert diagnostics text")
	runCmd.Flags().String("recommendation", "", "File holding the remediation recommendation")
	runCmd.Flags().String("runbook-url", "", "Runbook URL attached to the alert")
	runCmd.Flags().Bool("dry-run", false, "Echo commands instead of executing them")
	_ = runCmd.MarkFlagRequired("alert")
	_ = runCmd.MarkFlagRequired("namespace")
}

// dryRunner satisfies oc.Runner by echoing every command as a success. The
// one-shot CLI swaps it in under --dry-run so a plan can be previewed without
// touching the cluster.
type dryRunner struct{}

func (dryRunner) Run(_ context.Context, argv []string, _ time.Duration) (*oc.Result, error) {
	return &oc.Result{ExitCode: 0, Stdout: "(dry-run) " + oc.CommandString(argv)}, nil
}

func runOnce(cmd *cobra.Command) error {
	configDir, _ := cmd.Flags().GetString("config-dir")
	alertName, _ := cmd.Flags().GetString("alert")
	namespace, _ := cmd.Flags().GetString("namespace")
	diagnosticsFile, _ := cmd.Flags().GetString("diagnostics")
	recommendationFile, _ := cmd.Flags().GetString("recommendation")
	runbookURL, _ := cmd.Flags().GetString("runbook-url")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Config directory is optional here; without one the built-in defaults
	// apply and no .env is loaded.
	cfg := config.Default()
	if configDir != "" {
		loadDotEnv(configDir)
		loaded, err := config.Initialize(ctx, configDir)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	diagnostics, err := readOptionalFile(diagnosticsFile)
	if err != nil {
		return err
	}
	recommendation, err := readOptionalFile(recommendationFile)
	if err != nil {
		return err
	}

	var runner oc.Runner = oc.ExecRunner{}
	if dryRun {
		runner = dryRunner{}
	}
	collabs := buildCollaborators(cfg, runner)

	executor := queue.NewWorkflowExecutor(queue.ExecutorDeps{
		Runner:            runner,
		Investigator:      collabs.investigator,
		Verifier:          collabs.verifier,
		Reporter:          collabs.reporter,
		MaxTools:          cfg.Budget.MaxTools,
		Timeouts:          workflowTimeouts(cfg.Timeouts),
		MaxRetries:        cfg.Workflow.MaxRetries,
		ResetStateOnRetry: cfg.Workflow.ResetStateOnRetry,
	})

	session := &models.Session{
		ID:             uuid.New().String(),
		AlertName:      alertName,
		Namespace:      namespace,
		Diagnostics:    diagnostics,
		Recommendation: recommendation,
		RunbookURL:     runbookURL,
		Status:         models.SessionStatusInProgress,
		CreatedAt:      time.Now(),
	}

	result := executor.Execute(ctx, session)

	if result.Report != nil {
		out, err := json.MarshalIndent(result.Report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to render report: %w", err)
		}
		fmt.Println(string(out))
	}

	if result.Status != models.SessionStatusCompleted {
		if result.Error != nil {
			return fmt.Errorf("workflow %s: %w", result.Status, result.Error)
		}
		return fmt.Errorf("workflow %s without a report", result.Status)
	}
	return nil
}

func readOptionalFile(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}
