package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

func (c *Client) ListDomainsByApplication(ctx context.Context, applicationID string) ([]Domain, error) {
	return c.listDomains(ctx, "domain.byApplicationId", url.Values{"applicationId": {applicationID}})
}

func (c *Client) ListDomainsByCompose(ctx context.Context, composeID string) ([]Domain, error) {
	return c.listDomains(ctx, "domain.byComposeId", url.Values{"composeId": {composeID}})
}

func (c *Client) listDomains(ctx context.Context, op string, query url.Values) ([]Domain, error) {
	body, err := c.get(ctx, op, query)
	if err != nil {
		return nil, err
	}

	var domains []Domain
	if err := json.Unmarshal(body, &domains); err != nil {
		return nil, fmt.Errorf("parse domain list: %w", err)
	}
	return domains, nil
}

func (c *Client) CreateDomain(ctx context.Context, payload map[string]any) (string, error) {
	body, err := c.post(ctx, "domain.create", payload)
	if err != nil {
		return "", err
	}

	id, err := extractID(body, "domain")
	if err != nil {
		return "", fmt.Errorf("domain.create: %w", err)
	}
	return id, nil
}

func (c *Client) UpdateDomain(ctx context.Context, domainID string, payload map[string]any) error {
	merged := map[string]any{"domainId": domainID}
	for k, v := range payload {
		merged[k] = v
	}
	_, err := c.post(ctx, "domain.update", merged)
	return err
}

func (c *Client) DeleteDomain(ctx context.Context, domainID string) error {
	_, err := c.post(ctx, "domain.delete", map[string]any{"domainId": domainID})
	return err
}
