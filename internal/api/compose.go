package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

func (c *Client) GetCompose(ctx context.Context, composeID string) (*Compose, error) {
	body, err := c.get(ctx, "compose.one", url.Values{"composeId": {composeID}})
	if err != nil {
		return nil, err
	}

	var compose Compose
	if err := json.Unmarshal(body, &compose); err != nil {
		return nil, fmt.Errorf("parse compose: %w", err)
	}
	return &compose, nil
}

func (c *Client) CreateCompose(ctx context.Context, payload map[string]any) (string, error) {
	body, err := c.post(ctx, "compose.create", payload)
	if err != nil {
		return "", err
	}

	id, err := extractID(body, "compose")
	if err != nil {
		return "", fmt.Errorf("compose.create: %w", err)
	}
	return id, nil
}

// SaveComposeFile stores the raw compose file text on the stack.
func (c *Client) SaveComposeFile(ctx context.Context, composeID, composeFile string) error {
	_, err := c.post(ctx, "compose.update", map[string]any{
		"composeId":   composeID,
		"composeFile": composeFile,
		"sourceType":  "raw",
	})
	return err
}

func (c *Client) SaveComposeEnvironment(ctx context.Context, composeID, env string) error {
	_, err := c.post(ctx, "compose.saveEnvironment", map[string]any{
		"composeId": composeID,
		"env":       env,
	})
	return err
}

// DeployCompose triggers a stack deployment. Like application deploys, the
// response may or may not include a deployment record.
func (c *Client) DeployCompose(ctx context.Context, composeID, title, description string) (string, error) {
	payload := map[string]any{"composeId": composeID}
	if title != "" {
		payload["title"] = title
	}
	if description != "" {
		payload["description"] = description
	}

	body, err := c.post(ctx, "compose.deploy", payload)
	if err != nil {
		return "", err
	}

	id, err := extractID(body, "deployment")
	if err != nil {
		return "", nil
	}
	return id, nil
}

func (c *Client) StopCompose(ctx context.Context, composeID string) error {
	_, err := c.post(ctx, "compose.stop", map[string]any{"composeId": composeID})
	return err
}
