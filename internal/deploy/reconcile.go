package deploy

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/edvin/deployctl/internal/api"
)

// ensureProject resolves the project id, creating the project when allowed.
// A freshly created project is flagged so the environment step can decide
// whether the implicit default environment may be reused.
func (r *Runner) ensureProject(ctx context.Context) (id string, fresh bool, defaultEnvID string, err error) {
	cfg := r.cfg
	if cfg.ProjectID != "" {
		return cfg.ProjectID, false, "", nil
	}
	if cfg.ProjectName == "" {
		return "", false, "", fmt.Errorf("project: must provide id or name")
	}

	projects, err := r.client.ListProjects(ctx)
	if err != nil {
		return "", false, "", err
	}
	for _, p := range projects {
		if p.Name == cfg.ProjectName {
			return p.ProjectID, false, "", nil
		}
	}

	if !cfg.AutoCreate {
		return "", false, "", fmt.Errorf("project %q not found and auto-create is disabled", cfg.ProjectName)
	}

	created, err := r.client.CreateProject(ctx, cfg.ProjectName, cfg.ProjectDescription)
	if err != nil {
		return "", false, "", err
	}
	r.logger.Info().Str("project_id", created.ProjectID).Str("name", cfg.ProjectName).Msg("project created")
	return created.ProjectID, true, created.DefaultEnvironmentID, nil
}

// ensureEnvironment resolves the environment id within the project. The
// implicit default environment of a freshly created project is reused only
// when the requested name is "production" (case-insensitive); any other name
// gets a genuine create call so unrelated environments never silently attach
// to the wrong implicit resource.
func (r *Runner) ensureEnvironment(ctx context.Context, projectID string, freshProject bool, defaultEnvID string) (string, error) {
	cfg := r.cfg
	if cfg.EnvironmentID != "" {
		return cfg.EnvironmentID, nil
	}
	name := cfg.EnvironmentName
	if name == "" {
		return "", fmt.Errorf("environment: must provide id or name")
	}

	if freshProject {
		if strings.EqualFold(name, "production") {
			if defaultEnvID != "" {
				r.logger.Info().Str("environment_id", defaultEnvID).Msg("reusing implicit default environment")
				return defaultEnvID, nil
			}
			// The create response did not report the implicit environment;
			// fall back to looking it up.
			project, err := r.client.GetProject(ctx, projectID)
			if err != nil {
				return "", err
			}
			for _, env := range project.Environments {
				if strings.EqualFold(env.Name, "production") {
					return env.EnvironmentID, nil
				}
			}
		}
		id, err := r.client.CreateEnvironment(ctx, projectID, name)
		if err != nil {
			return "", err
		}
		r.logger.Info().Str("environment_id", id).Str("name", name).Msg("environment created")
		return id, nil
	}

	project, err := r.client.GetProject(ctx, projectID)
	if err != nil {
		return "", err
	}
	for _, env := range project.Environments {
		if env.Name == name {
			return env.EnvironmentID, nil
		}
	}

	if !cfg.AutoCreate {
		return "", fmt.Errorf("environment %q not found and auto-create is disabled", name)
	}
	id, err := r.client.CreateEnvironment(ctx, projectID, name)
	if err != nil {
		return "", err
	}
	r.logger.Info().Str("environment_id", id).Str("name", name).Msg("environment created")
	return id, nil
}

// resolveServer resolves the target server id. Servers are never created by
// this tool; with neither id nor name the platform's own host is the target
// and the id stays empty. Name matching is case-insensitive because canonical
// server names are lowercase but historical inputs may not be.
func (r *Runner) resolveServer(ctx context.Context) (string, error) {
	cfg := r.cfg
	if cfg.ServerID != "" {
		return cfg.ServerID, nil
	}
	if cfg.ServerName == "" {
		return "", nil
	}

	servers, err := r.client.ListServers(ctx)
	if err != nil {
		return "", err
	}
	for _, s := range servers {
		if strings.EqualFold(s.Name, cfg.ServerName) {
			return s.ServerID, nil
		}
	}
	return "", fmt.Errorf("server %q not found (servers are resolved, never created)", cfg.ServerName)
}

func (r *Runner) ensureApplication(ctx context.Context, projectID, environmentID, serverID string) (string, error) {
	cfg := r.cfg
	if cfg.ApplicationID != "" {
		return cfg.ApplicationID, nil
	}
	name := cfg.ApplicationName
	if name == "" {
		return "", fmt.Errorf("application: must provide id or name")
	}

	project, err := r.client.GetProject(ctx, projectID)
	if err != nil {
		return "", err
	}
	for _, env := range project.Environments {
		if env.EnvironmentID != environmentID {
			continue
		}
		for _, app := range env.Applications {
			if app.Name == name {
				return app.ApplicationID, nil
			}
		}
	}

	if !cfg.AutoCreate {
		return "", fmt.Errorf("application %q not found and auto-create is disabled", name)
	}

	payload := map[string]any{
		"name":          name,
		"projectId":     projectID,
		"environmentId": environmentID,
	}
	if serverID != "" {
		payload["serverId"] = serverID
	}
	id, err := r.client.CreateApplication(ctx, payload)
	if err != nil {
		return "", err
	}
	r.logger.Info().Str("application_id", id).Str("name", name).Msg("application created")
	return id, nil
}

func (r *Runner) ensureCompose(ctx context.Context, projectID, environmentID, serverID string) (string, error) {
	cfg := r.cfg
	if cfg.ComposeID != "" {
		return cfg.ComposeID, nil
	}
	name := cfg.ComposeName
	if name == "" {
		return "", fmt.Errorf("compose: must provide id or name")
	}

	project, err := r.client.GetProject(ctx, projectID)
	if err != nil {
		return "", err
	}
	for _, env := range project.Environments {
		if env.EnvironmentID != environmentID {
			continue
		}
		for _, compose := range env.Composes {
			if compose.Name == name {
				return compose.ComposeID, nil
			}
		}
	}

	if !cfg.AutoCreate {
		return "", fmt.Errorf("compose service %q not found and auto-create is disabled", name)
	}

	payload := map[string]any{
		"name":          name,
		"projectId":     projectID,
		"environmentId": environmentID,
	}
	if serverID != "" {
		payload["serverId"] = serverID
	}
	id, err := r.client.CreateCompose(ctx, payload)
	if err != nil {
		return "", err
	}
	r.logger.Info().Str("compose_id", id).Str("name", name).Msg("compose service created")
	return id, nil
}

// ensureDomain reconciles the configured domain against the records already
// attached to the deployable. Identity is the (host, port, path) triple;
// duplicate records for one triple are repaired by keeping the newest and
// deleting the rest before the create/update decision. Returns the deployment
// URL, or "" when no domain is configured.
func (r *Runner) ensureDomain(ctx context.Context, applicationID, composeID string) (string, error) {
	cfg := r.cfg
	payload := buildDomainPayload(cfg)
	if payload == nil {
		return "", nil
	}
	host := payload["host"].(string)
	port := payload["port"].(int)
	path := payload["path"].(string)

	var domains []api.Domain
	var err error
	if composeID != "" {
		domains, err = r.client.ListDomainsByCompose(ctx, composeID)
	} else {
		domains, err = r.client.ListDomainsByApplication(ctx, applicationID)
	}
	if err != nil {
		return "", err
	}

	var matches []api.Domain
	for _, d := range domains {
		if d.Host == host && d.Port == port && normalizePath(d.Path) == path {
			matches = append(matches, d)
		}
	}

	existing, duplicates := splitDuplicates(matches)
	for _, dup := range duplicates {
		r.logger.Warn().Str("domain_id", dup.DomainID).Str("host", host).Msg("deleting duplicate domain record")
		if err := r.client.DeleteDomain(ctx, dup.DomainID); err != nil {
			return "", fmt.Errorf("delete duplicate domain %s: %w", dup.DomainID, err)
		}
		if err := sleepCtx(ctx, r.domainDeleteDelay); err != nil {
			return "", err
		}
	}

	if existing != nil && cfg.RecreateDomain {
		r.logger.Info().Str("domain_id", existing.DomainID).Msg("recreating domain")
		if err := r.client.DeleteDomain(ctx, existing.DomainID); err != nil {
			return "", fmt.Errorf("delete domain %s for recreation: %w", existing.DomainID, err)
		}
		if err := sleepCtx(ctx, r.domainDeleteDelay); err != nil {
			return "", err
		}
		existing = nil
	}

	if existing != nil {
		if err := r.client.UpdateDomain(ctx, existing.DomainID, payload); err != nil {
			return "", err
		}
		r.logger.Info().Str("domain_id", existing.DomainID).Str("host", host).Msg("domain updated")
	} else {
		if composeID != "" {
			payload["composeId"] = composeID
			payload["serviceName"] = cfg.DomainServiceName
		} else {
			payload["applicationId"] = applicationID
		}
		id, err := r.client.CreateDomain(ctx, payload)
		if err != nil {
			return "", err
		}
		r.logger.Info().Str("domain_id", id).Str("host", host).Msg("domain created")
	}

	return deploymentURL(host, path, cfg.DomainHTTPS), nil
}

// splitDuplicates picks the survivor among domain records sharing a single
// (host, port, path) triple: newest creation time wins, the rest are slated
// for deletion.
func splitDuplicates(matches []api.Domain) (*api.Domain, []api.Domain) {
	if len(matches) == 0 {
		return nil, nil
	}
	sorted := slices.Clone(matches)
	slices.SortFunc(sorted, func(a, b api.Domain) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return &sorted[0], sorted[1:]
}

func normalizePath(p string) string {
	if p == "" {
		return defaultDomainPath
	}
	return p
}
