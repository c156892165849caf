package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"
)

func (c *Client) GetDeployment(ctx context.Context, deploymentID string) (*Deployment, error) {
	body, err := c.get(ctx, "deployment.one", url.Values{"deploymentId": {deploymentID}})
	if err != nil {
		return nil, err
	}

	var d Deployment
	if err := json.Unmarshal(body, &d); err != nil {
		return nil, fmt.Errorf("parse deployment: %w", err)
	}
	return &d, nil
}

// WaitForDeployment polls the deployment until it reaches a terminal state.
// A failed deployment returns an error carrying the tail of its logs; running
// past the timeout returns an error naming the last observed status.
func (c *Client) WaitForDeployment(ctx context.Context, deploymentID string, interval, timeout time.Duration) (*Deployment, error) {
	deadline := time.Now().Add(timeout)
	lastStatus := "unknown"

	for {
		d, err := c.GetDeployment(ctx, deploymentID)
		if err != nil {
			return nil, err
		}
		lastStatus = d.Status

		switch d.Status {
		case DeploymentCompleted:
			return d, nil
		case DeploymentFailed:
			if logs := tailLines(d.Logs, 20); logs != "" {
				return nil, fmt.Errorf("deployment %s failed:\n%s", deploymentID, logs)
			}
			return nil, fmt.Errorf("deployment %s failed", deploymentID)
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("timed out after %s waiting for deployment %s (last status %q)",
				timeout, deploymentID, lastStatus)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}
}

func tailLines(s string, n int) string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
