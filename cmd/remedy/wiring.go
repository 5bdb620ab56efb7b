package main

import (
	"os"

	"github.com/codeready-toolchain/remedy/pkg/agents"
	"github.com/codeready-toolchain/remedy/pkg/config"
	"github.com/codeready-toolchain/remedy/pkg/oc"
	"github.com/codeready-toolchain/remedy/pkg/runbook"
	"github.com/codeready-toolchain/remedy/pkg/workflow"
)

// workflowTimeouts translates the config section into the engine's timeout set.
func workflowTimeouts(t *config.TimeoutsConfig) workflow.Timeouts {
	return workflow.Timeouts{
		Investigation: t.Investigation(),
		Execution:     t.Execution(),
		Verification:  t.Verification(),
		Lookup:        t.Lookup(),
	}
}

// collaborators holds the built-in workflow collaborators shared by every run.
type collaborators struct {
	investigator *agents.OCInvestigator
	verifier     *agents.AmtoolVerifier
	reporter     *agents.SummaryReporter
}

// buildCollaborators wires the built-in investigator, verifier, and reporter
// from configuration. The same instances serve every session; per-run state
// lives in the workflow engine.
func buildCollaborators(cfg *config.Config, runner oc.Runner) collaborators {
	runbooks := runbook.NewService(cfg.Runbooks, os.Getenv(cfg.Runbooks.TokenEnv))

	return collaborators{
		investigator: agents.NewOCInvestigator(agents.InvestigatorOptions{
			EventsTail: cfg.Logs.EventsTail,
			LogsTail:   cfg.Logs.LogsTail,
			Runbooks:   runbooks,
		}),
		verifier: agents.NewAmtoolVerifier(runner, agents.VerifierOptions{
			Namespace: cfg.Alertmanager.Namespace,
			PodName:   cfg.Alertmanager.PodName,
			URL:       cfg.Alertmanager.URL,
			Settle:    cfg.Alertmanager.Settle(),
			Timeout:   cfg.Timeouts.Verification(),
		}),
		reporter: agents.NewSummaryReporter(),
	}
}
