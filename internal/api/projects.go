package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	body, err := c.get(ctx, "project.all", nil)
	if err != nil {
		return nil, err
	}

	var projects []Project
	if err := json.Unmarshal(body, &projects); err != nil {
		return nil, fmt.Errorf("parse project list: %w", err)
	}
	return projects, nil
}

func (c *Client) GetProject(ctx context.Context, projectID string) (*Project, error) {
	body, err := c.get(ctx, "project.one", url.Values{"projectId": {projectID}})
	if err != nil {
		return nil, err
	}

	var project Project
	if err := json.Unmarshal(body, &project); err != nil {
		return nil, fmt.Errorf("parse project: %w", err)
	}
	return &project, nil
}

// CreateProject creates a project. The platform creates a default environment
// alongside it and reports both in the response; the environment id is passed
// through when present so the caller can decide whether to reuse it.
func (c *Client) CreateProject(ctx context.Context, name, description string) (CreatedProject, error) {
	payload := map[string]any{"name": name}
	if description != "" {
		payload["description"] = description
	}

	body, err := c.post(ctx, "project.create", payload)
	if err != nil {
		return CreatedProject{}, err
	}

	id, err := extractID(body, "project")
	if err != nil {
		return CreatedProject{}, fmt.Errorf("project.create: %w", err)
	}

	created := CreatedProject{ProjectID: id}
	if envID, err := extractID(body, "environment"); err == nil {
		created.DefaultEnvironmentID = envID
	}
	return created, nil
}

func (c *Client) CreateEnvironment(ctx context.Context, projectID, name string) (string, error) {
	body, err := c.post(ctx, "environment.create", map[string]any{
		"projectId": projectID,
		"name":      name,
	})
	if err != nil {
		return "", err
	}

	id, err := extractID(body, "environment")
	if err != nil {
		return "", fmt.Errorf("environment.create: %w", err)
	}
	return id, nil
}

func (c *Client) ListServers(ctx context.Context) ([]Server, error) {
	body, err := c.get(ctx, "server.all", nil)
	if err != nil {
		return nil, err
	}

	var servers []Server
	if err := json.Unmarshal(body, &servers); err != nil {
		return nil, fmt.Errorf("parse server list: %w", err)
	}
	return servers, nil
}
