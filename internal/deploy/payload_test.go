package deploy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edvin/deployctl/internal/config"
)

func TestBuildApplicationSettings_UnitConversions(t *testing.T) {
	cfg := config.Default()
	cfg.MemoryLimitMB = 512
	cfg.MemoryReservationMB = 128
	cfg.CPULimit = "0.5"
	cfg.CPUReservation = "1500m"
	cfg.Replicas = 3

	p, err := buildApplicationSettings(cfg, "web", "production")
	require.NoError(t, err)

	assert.Equal(t, "536870912", p["memoryLimit"])
	assert.Equal(t, "134217728", p["memoryReservation"])
	assert.Equal(t, "500000000", p["cpuLimit"])
	assert.Equal(t, "1500000000", p["cpuReservation"])
	assert.Equal(t, 3, p["replicas"])
}

func TestBuildApplicationSettings_AbsentStaysAbsent(t *testing.T) {
	p, err := buildApplicationSettings(config.Default(), "web", "production")
	require.NoError(t, err)

	for _, key := range []string{"memoryLimit", "memoryReservation", "cpuLimit", "cpuReservation", "replicas", "appName"} {
		_, present := p[key]
		assert.False(t, present, "key %q must be absent", key)
	}
}

func TestBuildApplicationSettings_Defaults(t *testing.T) {
	p, err := buildApplicationSettings(config.Default(), "web", "production")
	require.NoError(t, err)

	assert.Equal(t, defaultTargetPort, p["port"])
	assert.Equal(t, map[string]any{"Condition": "any"}, p["restartPolicy"])
}

func TestBuildApplicationSettings_RestartPolicies(t *testing.T) {
	tests := []struct {
		policy string
		want   string
	}{
		{"always", "any"},
		{"unless-stopped", "any"},
		{"on-failure", "on-failure"},
		{"no", "none"},
	}
	for _, tt := range tests {
		cfg := config.Default()
		cfg.RestartPolicy = tt.policy

		p, err := buildApplicationSettings(cfg, "web", "production")
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"Condition": tt.want}, p["restartPolicy"], "policy %q", tt.policy)
	}
}

func TestBuildApplicationSettings_BadCPU(t *testing.T) {
	cfg := config.Default()
	cfg.CPULimit = "abc"

	_, err := buildApplicationSettings(cfg, "web", "production")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"abc"`)
}

func TestBuildApplicationSettings_ContainerNameTemplate(t *testing.T) {
	cfg := config.Default()
	cfg.ContainerNameTemplate = "{app}-{env}-{version}"
	cfg.Image = "ghcr.io/acme/web:v1.2.3"

	p, err := buildApplicationSettings(cfg, "web", "staging")
	require.NoError(t, err)
	assert.Equal(t, "web-staging-v1.2.3", p["appName"])
}

func TestBuildDomainPayload_NoHost(t *testing.T) {
	assert.Nil(t, buildDomainPayload(config.Default()))
}

func TestBuildDomainPayload_Defaults(t *testing.T) {
	cfg := config.Default()
	cfg.DomainHost = "app.example.com"

	p := buildDomainPayload(cfg)
	require.NotNil(t, p)
	assert.Equal(t, "app.example.com", p["host"])
	assert.Equal(t, "/", p["path"])
	assert.Equal(t, defaultTargetPort, p["port"])
	assert.Equal(t, true, p["https"])
	assert.Equal(t, "letsencrypt", p["certificateType"])
	assert.Equal(t, false, p["stripPath"])
}

func TestBuildDomainPayload_PortFallsBackToAppPort(t *testing.T) {
	cfg := config.Default()
	cfg.DomainHost = "app.example.com"
	cfg.Port = 3000

	p := buildDomainPayload(cfg)
	assert.Equal(t, 3000, p["port"])

	cfg.DomainPort = 8443
	p = buildDomainPayload(cfg)
	assert.Equal(t, 8443, p["port"])
}

func TestDeploymentURL(t *testing.T) {
	assert.Equal(t, "https://app.example.com", deploymentURL("app.example.com", "/", true))
	assert.Equal(t, "https://app.example.com/api", deploymentURL("app.example.com", "/api", true))
	assert.Equal(t, "http://app.example.com", deploymentURL("app.example.com", "", false))
}

func TestImageTag(t *testing.T) {
	assert.Equal(t, "v2.3.1", imageTag("ghcr.io/x/web:v2.3.1"))
	assert.Equal(t, "latest", imageTag("nginx"))
	assert.Equal(t, "latest", imageTag("nginx:latest"))
	// The ':' belongs to the registry port, not a tag.
	assert.Equal(t, "latest", imageTag("localhost:5000/web"))
	assert.Equal(t, "1.25", imageTag("localhost:5000/web:1.25"))
}

func TestRenderContainerName(t *testing.T) {
	got := RenderContainerName("{app}-{version}", "web", "ghcr.io/x/web:v2.3.1", "production")
	assert.Equal(t, "web-v2.3.1", got)
}

func TestRenderContainerName_Sanitizes(t *testing.T) {
	got := RenderContainerName("{app} {version}!", "my app", "web:1.0", "production")
	assert.Equal(t, "my-app-1.0-", got)
}

func TestRenderContainerName_TrimsLeadingDotDash(t *testing.T) {
	got := RenderContainerName("-{app}", "web", "web:1.0", "production")
	assert.Equal(t, "web", got)

	got = RenderContainerName(".{app}", "web", "web:1.0", "production")
	assert.Equal(t, "web", got)
}

func TestRenderContainerName_TruncationPreservesVersion(t *testing.T) {
	app := strings.Repeat("a", 70)
	got := RenderContainerName("{app}-{version}", app, "web:v2.3.1", "production")

	assert.Len(t, got, maxContainerNameLen)
	assert.True(t, strings.HasSuffix(got, "-v2.3.1"), "got %q", got)
}

func TestRenderContainerName_TruncationWithoutVersion(t *testing.T) {
	app := strings.Repeat("a", 80)
	got := RenderContainerName("{app}", app, "web:latest", "production")
	assert.Len(t, got, maxContainerNameLen)
}

func TestSplitDuplicates_Empty(t *testing.T) {
	winner, losers := splitDuplicates(nil)
	assert.Nil(t, winner)
	assert.Empty(t, losers)
}
