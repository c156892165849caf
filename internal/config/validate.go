package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// FieldError describes one rejected input field.
type FieldError struct {
	Field      string
	Message    string
	Suggestion string
}

// ValidationError collects every failing field of a validation pass so users
// see the full list at once instead of fixing inputs one run at a time.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	lines := make([]string, 0, len(e.Fields)+1)
	lines = append(lines, fmt.Sprintf("invalid configuration (%d problem(s)):", len(e.Fields)))
	for _, f := range e.Fields {
		line := fmt.Sprintf("  %s: %s", f.Field, f.Message)
		if f.Suggestion != "" {
			line += " (" + f.Suggestion + ")"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// Docker refuses memory limits below 6 MB, so anything smaller is a typo.
const minMemoryMB = 6

var restartPolicies = map[string]bool{
	"":               true,
	"always":         true,
	"unless-stopped": true,
	"on-failure":     true,
	"no":             true,
}

// Validate checks the whole configuration before any remote call is made and
// returns a *ValidationError naming every offending field, or nil.
func (c *Config) Validate() error {
	var fields []FieldError
	add := func(field, message, suggestion string) {
		fields = append(fields, FieldError{Field: field, Message: message, Suggestion: suggestion})
	}

	if c.APIURL == "" {
		add("api_url", "is required", "set DEPLOY_API_URL to the platform base URL, e.g. https://panel.example.com")
	} else if err := validate.Var(c.APIURL, "http_url"); err != nil {
		add("api_url", fmt.Sprintf("%q is not a valid http(s) URL", c.APIURL), "")
	}
	if c.APIKey == "" {
		add("api_key", "is required", "set DEPLOY_API_KEY to an API token generated in the platform settings")
	}

	switch c.Type {
	case TypeApplication:
		if c.Image == "" {
			add("image", "is required for application deployments", "e.g. ghcr.io/acme/web:v1.2.3")
		}
		if c.ApplicationID == "" && c.ApplicationName == "" {
			add("application_name", "must provide id or name", "")
		}
	case TypeCompose:
		if c.ComposeFile == "" {
			add("compose_file", "is required for compose deployments", "path to a docker-compose.yml")
		}
		if c.ComposeID == "" && c.ComposeName == "" {
			add("compose_name", "must provide id or name", "")
		}
		if c.DomainHost != "" && c.DomainServiceName == "" {
			add("domain_service_name", "is required when attaching a domain to a compose stack", "name of the compose service to route to")
		}
	default:
		add("type", fmt.Sprintf("%q is not a valid deployment type", c.Type), `use "application" or "compose"`)
	}

	if c.ProjectID == "" && c.ProjectName == "" {
		add("project_name", "must provide id or name", "")
	}
	if c.EnvironmentID == "" && c.EnvironmentName == "" {
		add("environment_name", "must provide id or name", "")
	}

	if c.MemoryLimitMB < 0 {
		add("memory_limit_mb", "must not be negative", "")
	} else if c.MemoryLimitMB > 0 && c.MemoryLimitMB < minMemoryMB {
		add("memory_limit_mb", fmt.Sprintf("%d MB is below the minimum", c.MemoryLimitMB),
			fmt.Sprintf("the container runtime rejects memory limits below %d MB", minMemoryMB))
	}
	if c.MemoryReservationMB < 0 {
		add("memory_reservation_mb", "must not be negative", "")
	}
	if _, err := ParseCPU(c.CPULimit); err != nil {
		add("cpu_limit", err.Error(), `use cores ("0.5") or milli form ("500m")`)
	}
	if _, err := ParseCPU(c.CPUReservation); err != nil {
		add("cpu_reservation", err.Error(), `use cores ("0.5") or milli form ("500m")`)
	}
	if c.Replicas < 0 {
		add("replicas", "must not be negative", "")
	}
	if c.Port < 0 || c.Port > 65535 {
		add("port", fmt.Sprintf("%d is not a valid port", c.Port), "")
	}
	if !restartPolicies[c.RestartPolicy] {
		add("restart_policy", fmt.Sprintf("%q is not a valid restart policy", c.RestartPolicy),
			`use "always", "unless-stopped", "on-failure" or "no"`)
	}

	if c.DomainHost != "" {
		if err := validate.Var(c.DomainHost, "hostname_rfc1123"); err != nil {
			add("domain_host", fmt.Sprintf("%q is not a valid hostname", c.DomainHost),
				"lowercase letters, digits, dashes and dots only")
		}
	}
	if c.DomainPort < 0 || c.DomainPort > 65535 {
		add("domain_port", fmt.Sprintf("%d is not a valid port", c.DomainPort), "")
	}

	if c.Wait && c.WaitTimeout <= 0 {
		add("wait_timeout", "must be positive when waiting is enabled", "e.g. 10m")
	}
	if c.Wait && c.PollInterval <= 0 {
		add("poll_interval", "must be positive when waiting is enabled", "e.g. 5s")
	}
	if c.HealthCheck {
		if c.DomainHost == "" {
			add("health_check", "requires a configured domain to derive the URL to probe", "set domain_host or disable the health check")
		}
		if c.HealthCheckExpectedStatus < 100 || c.HealthCheckExpectedStatus > 599 {
			add("health_check_expected_status", fmt.Sprintf("%d is not a valid HTTP status", c.HealthCheckExpectedStatus), "")
		}
		if c.HealthCheckRetries <= 0 {
			add("health_check_retries", "must be positive", "")
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
