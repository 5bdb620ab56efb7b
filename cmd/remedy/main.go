// Remedy orchestrator server — ingests alerts, queues remediation sessions,
// and drives each through the deterministic remediation workflow.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
