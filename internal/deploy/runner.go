// Package deploy drives one deployment run against the platform: an ordered
// sequence of idempotent ensure steps followed by the deploy call and the
// wait/health-check policy. Nothing is rolled back on failure; every step is
// a find-or-create, so re-running after a fix is the recovery path.
package deploy

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/compose-spec/compose-go/v2/loader"
	"github.com/rs/zerolog"

	"github.com/edvin/deployctl/internal/api"
	"github.com/edvin/deployctl/internal/config"
	"github.com/edvin/deployctl/internal/health"
)

// Verifier answers whether a URL reports healthy. Satisfied by
// *health.Checker; the orchestrator treats it as a black-box predicate.
type Verifier interface {
	Check(ctx context.Context, opts health.Options) health.Result
}

type Runner struct {
	cfg    *config.Config
	client *api.Client
	health Verifier
	logger zerolog.Logger

	// Settle delays, shortened in tests.
	domainDeleteDelay time.Duration
	quickProbeDelay   time.Duration
}

func NewRunner(cfg *config.Config, client *api.Client, verifier Verifier, logger zerolog.Logger) *Runner {
	return &Runner{
		cfg:               cfg,
		client:            client,
		health:            verifier,
		logger:            logger.With().Str("component", "deploy").Logger(),
		domainDeleteDelay: 2 * time.Second,
		quickProbeDelay:   3 * time.Second,
	}
}

// Run executes the full deployment sequence and returns the run outputs. The
// returned Outputs are valid even on error so callers can still emit whatever
// ids were resolved before the failure.
func (r *Runner) Run(ctx context.Context) (*Outputs, error) {
	cfg := r.cfg
	// Failed until proven otherwise, so aborted runs still emit a status.
	out := &Outputs{DeploymentStatus: StatusFailed, HealthCheckStatus: health.Skipped}

	projectID, freshProject, defaultEnvID, err := r.ensureProject(ctx)
	if err != nil {
		return out, err
	}
	out.ProjectID = projectID

	environmentID, err := r.ensureEnvironment(ctx, projectID, freshProject, defaultEnvID)
	if err != nil {
		return out, err
	}
	out.EnvironmentID = environmentID

	serverID, err := r.resolveServer(ctx)
	if err != nil {
		return out, err
	}
	out.ServerID = serverID

	var deploymentID string
	if cfg.Type == config.TypeCompose {
		deploymentID, err = r.runCompose(ctx, out, projectID, environmentID, serverID)
	} else {
		deploymentID, err = r.runApplication(ctx, out, projectID, environmentID, serverID)
	}
	if err != nil {
		return out, err
	}
	out.DeploymentID = deploymentID

	confirmedHealthy := false
	if cfg.Wait {
		switch {
		case deploymentID == "":
			// Fire-and-forget deploy API; nothing to poll.
			r.logger.Warn().Msg("deploy returned no deployment id; skipping wait")
		default:
			if cfg.HealthCheck && out.DeploymentURL != "" && r.quickProbe(ctx, out.DeploymentURL) == health.Healthy {
				r.logger.Info().Msg("quick health check passed; skipping deployment wait")
				out.HealthCheckStatus = health.Healthy
				confirmedHealthy = true
			}
			if !confirmedHealthy {
				r.logger.Info().Str("deployment_id", deploymentID).Msg("waiting for deployment")
				if _, err := r.client.WaitForDeployment(ctx, deploymentID, cfg.PollInterval, cfg.WaitTimeout); err != nil {
					out.DeploymentStatus = StatusFailed
					return out, err
				}
			}
		}
	}

	if cfg.HealthCheck && !confirmedHealthy {
		if out.DeploymentURL == "" {
			r.logger.Warn().Msg("health check enabled but no domain configured; skipping")
		} else {
			result := r.health.Check(ctx, health.Options{
				URL:            out.DeploymentURL,
				ExpectedStatus: cfg.HealthCheckExpectedStatus,
				Retries:        cfg.HealthCheckRetries,
				Interval:       cfg.HealthCheckInterval,
				RequestTimeout: cfg.HealthCheckTimeout,
			})
			out.HealthCheckStatus = result
			if result == health.Unhealthy {
				out.DeploymentStatus = StatusFailed
				if cfg.FailOnHealthCheckError {
					return out, fmt.Errorf("health check failed for %s", out.DeploymentURL)
				}
				r.logger.Warn().Str("url", out.DeploymentURL).Msg("health check failed; run completes with failed status")
				return out, nil
			}
		}
	}

	out.DeploymentStatus = StatusSuccess
	return out, nil
}

func (r *Runner) runApplication(ctx context.Context, out *Outputs, projectID, environmentID, serverID string) (string, error) {
	cfg := r.cfg

	applicationID, err := r.ensureApplication(ctx, projectID, environmentID, serverID)
	if err != nil {
		return "", err
	}
	out.ApplicationID = applicationID
	r.logger.Info().Str("application_id", applicationID).Msg("application resolved")

	settings, err := buildApplicationSettings(cfg, cfg.ApplicationName, cfg.EnvironmentName)
	if err != nil {
		return "", err
	}
	if err := r.client.UpdateApplication(ctx, applicationID, settings); err != nil {
		return "", err
	}

	if err := r.client.SaveDockerProvider(ctx, applicationID, cfg.Image,
		cfg.RegistryUsername, cfg.RegistryPassword, cfg.RegistryURL); err != nil {
		return "", err
	}

	env, err := cfg.EnvBlob()
	if err != nil {
		return "", err
	}
	if err := r.client.SaveApplicationEnvironment(ctx, applicationID, env); err != nil {
		return "", err
	}

	url, err := r.ensureDomain(ctx, applicationID, "")
	if err != nil {
		return "", err
	}
	out.DeploymentURL = url

	if cfg.CleanupOldContainers {
		if err := r.cleanupOldContainers(ctx, applicationID, ""); err != nil {
			return "", err
		}
	}

	r.logger.Info().Str("image", cfg.Image).Msg("deploying application")
	return r.client.DeployApplication(ctx, applicationID, cfg.Title, cfg.Description)
}

func (r *Runner) runCompose(ctx context.Context, out *Outputs, projectID, environmentID, serverID string) (string, error) {
	cfg := r.cfg

	composeID, err := r.ensureCompose(ctx, projectID, environmentID, serverID)
	if err != nil {
		return "", err
	}
	out.ComposeID = composeID
	r.logger.Info().Str("compose_id", composeID).Msg("compose service resolved")

	content, err := os.ReadFile(cfg.ComposeFile)
	if err != nil {
		return "", fmt.Errorf("read compose file: %w", err)
	}
	// Validate locally before any remote write; a broken file fails fast.
	if _, err := loader.ParseYAML(content); err != nil {
		return "", fmt.Errorf("compose file %s is not valid: %w", cfg.ComposeFile, err)
	}
	if err := r.client.SaveComposeFile(ctx, composeID, string(content)); err != nil {
		return "", err
	}

	env, err := cfg.EnvBlob()
	if err != nil {
		return "", err
	}
	if err := r.client.SaveComposeEnvironment(ctx, composeID, env); err != nil {
		return "", err
	}

	url, err := r.ensureDomain(ctx, "", composeID)
	if err != nil {
		return "", err
	}
	out.DeploymentURL = url

	if cfg.CleanupOldContainers {
		if err := r.cleanupOldContainers(ctx, "", composeID); err != nil {
			return "", err
		}
	}

	r.logger.Info().Str("compose_file", cfg.ComposeFile).Msg("deploying compose stack")
	return r.client.DeployCompose(ctx, composeID, cfg.Title, cfg.Description)
}

// cleanupOldContainers stops the deployable and waits for the platform's
// asynchronous teardown before the deploy call. Deploying while old containers
// are mid-shutdown causes port conflicts on the remote side, so the order is
// strictly stop, settle, deploy.
func (r *Runner) cleanupOldContainers(ctx context.Context, applicationID, composeID string) error {
	r.logger.Info().Msg("stopping old containers before deploy")
	var err error
	if composeID != "" {
		err = r.client.StopCompose(ctx, composeID)
	} else {
		err = r.client.StopApplication(ctx, applicationID)
	}
	if err != nil {
		return fmt.Errorf("stop old containers: %w", err)
	}
	return sleepCtx(ctx, r.cfg.CleanupSettleDelay)
}

// quickProbe is the latency optimization in front of the polling wait: a
// short settle, then a handful of fast attempts. Its failure is never fatal;
// the caller falls through to the normal wait.
func (r *Runner) quickProbe(ctx context.Context, url string) health.Result {
	if err := sleepCtx(ctx, r.quickProbeDelay); err != nil {
		return health.Unhealthy
	}
	return r.health.Check(ctx, health.Options{
		URL:            url,
		ExpectedStatus: r.cfg.HealthCheckExpectedStatus,
		Retries:        3,
		Interval:       time.Second,
		RequestTimeout: 2 * time.Second,
	})
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
