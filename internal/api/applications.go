package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

func (c *Client) GetApplication(ctx context.Context, applicationID string) (*Application, error) {
	body, err := c.get(ctx, "application.one", url.Values{"applicationId": {applicationID}})
	if err != nil {
		return nil, err
	}

	var app Application
	if err := json.Unmarshal(body, &app); err != nil {
		return nil, fmt.Errorf("parse application: %w", err)
	}
	return &app, nil
}

func (c *Client) CreateApplication(ctx context.Context, payload map[string]any) (string, error) {
	body, err := c.post(ctx, "application.create", payload)
	if err != nil {
		return "", err
	}

	id, err := extractID(body, "application")
	if err != nil {
		return "", fmt.Errorf("application.create: %w", err)
	}
	return id, nil
}

func (c *Client) UpdateApplication(ctx context.Context, applicationID string, payload map[string]any) error {
	merged := map[string]any{"applicationId": applicationID}
	for k, v := range payload {
		merged[k] = v
	}
	_, err := c.post(ctx, "application.update", merged)
	return err
}

// SaveDockerProvider points the application at a docker image, with optional
// registry credentials for private images.
func (c *Client) SaveDockerProvider(ctx context.Context, applicationID, image, username, password, registryURL string) error {
	payload := map[string]any{
		"applicationId": applicationID,
		"dockerImage":   image,
	}
	if username != "" {
		payload["username"] = username
	}
	if password != "" {
		payload["password"] = password
	}
	if registryURL != "" {
		payload["registryUrl"] = registryURL
	}

	_, err := c.post(ctx, "application.saveDockerProvider", payload)
	return err
}

func (c *Client) SaveApplicationEnvironment(ctx context.Context, applicationID, env string) error {
	_, err := c.post(ctx, "application.saveEnvironment", map[string]any{
		"applicationId": applicationID,
		"env":           env,
	})
	return err
}

// DeployApplication triggers a deployment. Some platform versions answer with
// the deployment record, others fire-and-forget with an empty body; a missing
// id is reported as an empty string, not an error.
func (c *Client) DeployApplication(ctx context.Context, applicationID, title, description string) (string, error) {
	payload := map[string]any{"applicationId": applicationID}
	if title != "" {
		payload["title"] = title
	}
	if description != "" {
		payload["description"] = description
	}

	body, err := c.post(ctx, "application.deploy", payload)
	if err != nil {
		return "", err
	}

	id, err := extractID(body, "deployment")
	if err != nil {
		return "", nil
	}
	return id, nil
}

func (c *Client) StopApplication(ctx context.Context, applicationID string) error {
	_, err := c.post(ctx, "application.stop", map[string]any{"applicationId": applicationID})
	return err
}
