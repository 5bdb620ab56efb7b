package config

import "time"

// AlertmanagerConfig locates the in-cluster Alertmanager that verification
// queries through oc exec + amtool.
type AlertmanagerConfig struct {
	// Namespace holding the Alertmanager pod.
	Namespace string `yaml:"namespace"`

	// PodName of the Alertmanager instance to exec into.
	PodName string `yaml:"pod_name"`

	// URL is the Alertmanager API endpoint as seen from inside the pod.
	URL string `yaml:"url"`

	// SettleSeconds is how long to wait after remediation before querying,
	// giving Alertmanager time to re-evaluate the alert.
	SettleSeconds int `yaml:"settle_seconds"`
}

// DefaultAlertmanagerConfig returns the built-in Alertmanager defaults,
// matching a stock OpenShift monitoring stack.
func DefaultAlertmanagerConfig() *AlertmanagerConfig {
	return &AlertmanagerConfig{
		Namespace:     "openshift-monitoring",
		PodName:       "alertmanager-main-0",
		URL:           "http://localhost:9093",
		SettleSeconds: 30,
	}
}

// Settle returns the settle wait as a duration.
func (a *AlertmanagerConfig) Settle() time.Duration {
	return time.Duration(a.SettleSeconds) * time.Second
}
