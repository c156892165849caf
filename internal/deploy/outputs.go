package deploy

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/edvin/deployctl/internal/health"
)

// Final deployment status values.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Outputs is the cross-step state a run accumulates: every resolved id plus
// the computed URL and final statuses. Consumed by CI systems as key=value
// lines.
type Outputs struct {
	ProjectID         string
	EnvironmentID     string
	ServerID          string
	ApplicationID     string
	ComposeID         string
	DeploymentID      string
	DeploymentURL     string
	DeploymentStatus  string
	HealthCheckStatus health.Result
}

// Pairs returns the outputs as ordered key/value pairs. Unresolved ids are
// omitted; the two statuses are always present.
func (o *Outputs) Pairs() [][2]string {
	pairs := make([][2]string, 0, 9)
	add := func(k, v string) {
		if v != "" {
			pairs = append(pairs, [2]string{k, v})
		}
	}
	add("project-id", o.ProjectID)
	add("environment-id", o.EnvironmentID)
	add("server-id", o.ServerID)
	add("application-id", o.ApplicationID)
	add("compose-id", o.ComposeID)
	add("deployment-id", o.DeploymentID)
	add("deployment-url", o.DeploymentURL)
	pairs = append(pairs, [2]string{"deployment-status", o.DeploymentStatus})
	pairs = append(pairs, [2]string{"health-check-status", string(o.HealthCheckStatus)})
	return pairs
}

// WriteFile appends the outputs as key=value lines to path.
func (o *Outputs) WriteFile(path string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer f.Close()

	for _, p := range o.Pairs() {
		if _, err := fmt.Fprintf(f, "%s=%s\n", p[0], p[1]); err != nil {
			return fmt.Errorf("write output file: %w", err)
		}
	}
	return nil
}

// Log emits the outputs through the logger as one summary event.
func (o *Outputs) Log(logger zerolog.Logger) {
	ev := logger.Info()
	for _, p := range o.Pairs() {
		ev = ev.Str(p[0], p[1])
	}
	ev.Msg("deployment summary")
}
