package models

// AlertContext identifies the alert a workflow run remediates, plus the
// diagnostic context it arrived with. Written once at the start of a run and
// immutable for the rest of it.
type AlertContext struct {
	AlertName      string `json:"alert_name"`
	Namespace      string `json:"namespace"`
	Diagnostics    string `json:"diagnostics,omitempty"`
	Recommendation string `json:"recommendation,omitempty"`
	RunbookURL     string `json:"runbook_url,omitempty"`
}

// RemediationPlan is an explanation plus an ordered list of cluster-mutating
// commands. Replanning overwrites the whole plan; commands are never appended
// to an existing one.
type RemediationPlan struct {
	Explanation string   `json:"explanation"`
	Commands    []string `json:"commands"`
}

// CommandStatus is the per-command outcome recorded by batch execution.
type CommandStatus string

const (
	CommandSuccess CommandStatus = "Success"
	CommandFailed  CommandStatus = "Failed"
)

// CommandResult records the outcome of one executed remediation command.
// Error is set only for failed commands, carrying the classified failure.
type CommandResult struct {
	Command string        `json:"command"`
	Status  CommandStatus `json:"status"`
	Error   *ToolError    `json:"error,omitempty"`
}

// BatchResult aggregates one full execution of a remediation plan: one
// CommandResult per plan command, in plan order, plus the derived AND across
// all statuses. Never mutated after creation; re-execution replaces it
// wholesale.
type BatchResult struct {
	Results      []CommandResult `json:"results"`
	AllSucceeded bool            `json:"all_succeeded"`
}

// Report is the final artifact of a workflow run. A non-empty report is the
// signal that stops the whole-run retry loop.
type Report struct {
	Summary          string          `json:"summary"`
	RootCause        string          `json:"root_cause"`
	RemediationSteps string          `json:"remediation_steps,omitempty"`
	Recommendations  []string        `json:"recommendations,omitempty"`
	CommandsExecuted []CommandResult `json:"commands_executed,omitempty"`
	AlertStatus      string          `json:"alert_status,omitempty"`
	Resolved         bool            `json:"resolved"`
}

// IsEmpty reports whether the report counts as "not produced" for retry
// purposes. A report with neither summary nor root cause is empty.
func (r *Report) IsEmpty() bool {
	return r == nil || (r.Summary == "" && r.RootCause == "")
}

// WorkflowState is the aggregate mutable record threaded through one workflow
// run. Each field is written by exactly one step and readable by every later
// step. Access goes through workflow.State, which enforces the
// single-writer-at-a-time edit discipline.
type WorkflowState struct {
	AlertName        string           `json:"alert_name"`
	Namespace        string           `json:"namespace"`
	AlertDiagnostics string           `json:"alert_diagnostics,omitempty"`
	Recommendation   string           `json:"recommendation,omitempty"`
	RunbookURL       string           `json:"runbook_url,omitempty"`
	RemediationPlan  *RemediationPlan `json:"remediation_plan,omitempty"`
	ExecutionResults []CommandResult  `json:"commands_execution_results,omitempty"`
	ExecutionSuccess *bool            `json:"execution_success,omitempty"`
	AlertStatus      string           `json:"alert_status,omitempty"`
	Report           *Report          `json:"report,omitempty"`
}

// Clone returns a deep copy. Snapshots handed outside the state store must
// not alias the live slices and pointers.
func (s *WorkflowState) Clone() WorkflowState {
	out := *s
	if s.RemediationPlan != nil {
		plan := *s.RemediationPlan
		plan.Commands = append([]string(nil), s.RemediationPlan.Commands...)
		out.RemediationPlan = &plan
	}
	if s.ExecutionResults != nil {
		out.ExecutionResults = cloneResults(s.ExecutionResults)
	}
	if s.ExecutionSuccess != nil {
		v := *s.ExecutionSuccess
		out.ExecutionSuccess = &v
	}
	if s.Report != nil {
		rep := *s.Report
		rep.Recommendations = append([]string(nil), s.Report.Recommendations...)
		rep.CommandsExecuted = cloneResults(s.Report.CommandsExecuted)
		out.Report = &rep
	}
	return out
}

func cloneResults(in []CommandResult) []CommandResult {
	if in == nil {
		return nil
	}
	out := make([]CommandResult, len(in))
	for i, r := range in {
		out[i] = r
		if r.Error != nil {
			e := *r.Error
			out[i].Error = &e
		}
	}
	return out
}
