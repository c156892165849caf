package deploy

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/edvin/deployctl/internal/config"
)

// Payload-boundary defaults and unit factors. Resource limits are carried as
// MB and cores everywhere inside the process; the platform's native units
// (bytes, nano-cores) exist only in the payloads built here.
const (
	defaultTargetPort    = 8080
	defaultRestartPolicy = "unless-stopped"
	defaultDomainPath    = "/"
	defaultCertificate   = "letsencrypt"
	bytesPerMB           = 1 << 20
	nanosPerCore         = 1_000_000_000
	maxContainerNameLen  = 63
)

// buildApplicationSettings maps the flat input fields onto the nested
// application.update payload. Absent resource inputs stay absent; limits cross
// the wire as numeric strings, replicas as a plain integer.
func buildApplicationSettings(cfg *config.Config, appName, envName string) (map[string]any, error) {
	p := map[string]any{}

	if cfg.MemoryLimitMB > 0 {
		p["memoryLimit"] = strconv.FormatInt(cfg.MemoryLimitMB*bytesPerMB, 10)
	}
	if cfg.MemoryReservationMB > 0 {
		p["memoryReservation"] = strconv.FormatInt(cfg.MemoryReservationMB*bytesPerMB, 10)
	}

	if cpu, err := config.ParseCPU(cfg.CPULimit); err != nil {
		return nil, err
	} else if cpu != nil {
		p["cpuLimit"] = nanoCores(*cpu)
	}
	if cpu, err := config.ParseCPU(cfg.CPUReservation); err != nil {
		return nil, err
	} else if cpu != nil {
		p["cpuReservation"] = nanoCores(*cpu)
	}

	if cfg.Replicas > 0 {
		p["replicas"] = cfg.Replicas
	}

	port := cfg.Port
	if port == 0 {
		port = defaultTargetPort
	}
	p["port"] = port

	policy := cfg.RestartPolicy
	if policy == "" {
		policy = defaultRestartPolicy
	}
	condition, err := restartCondition(policy)
	if err != nil {
		return nil, err
	}
	p["restartPolicy"] = map[string]any{"Condition": condition}

	if cfg.ContainerNameTemplate != "" {
		p["appName"] = RenderContainerName(cfg.ContainerNameTemplate, appName, cfg.Image, envName)
	}

	return p, nil
}

func nanoCores(cores float64) string {
	return strconv.FormatInt(int64(math.Round(cores*nanosPerCore)), 10)
}

// restartCondition maps the simple policy name onto the platform's structured
// condition object value.
func restartCondition(policy string) (string, error) {
	switch policy {
	case "always", "unless-stopped":
		return "any", nil
	case "on-failure":
		return "on-failure", nil
	case "no":
		return "none", nil
	}
	return "", fmt.Errorf("unsupported restart policy %q", policy)
}

// buildDomainPayload returns the domain payload, or nil when no host is
// configured (the signal that the whole domain step is skipped).
func buildDomainPayload(cfg *config.Config) map[string]any {
	if cfg.DomainHost == "" {
		return nil
	}

	path := cfg.DomainPath
	if path == "" {
		path = defaultDomainPath
	}
	port := cfg.DomainPort
	if port == 0 {
		port = cfg.Port
	}
	if port == 0 {
		port = defaultTargetPort
	}
	cert := cfg.CertificateType
	if cert == "" {
		cert = defaultCertificate
	}

	return map[string]any{
		"host":            cfg.DomainHost,
		"path":            path,
		"port":            port,
		"https":           cfg.DomainHTTPS,
		"certificateType": cert,
		"stripPath":       cfg.StripPath,
	}
}

func deploymentURL(host, path string, https bool) string {
	scheme := "http"
	if https {
		scheme = "https"
	}
	u := scheme + "://" + host
	if path != "" && path != "/" {
		u += path
	}
	return u
}

var (
	containerNameInvalid = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
	versionSuffixPattern = regexp.MustCompile(`(?:v\d|\d+\.\d+)[A-Za-z0-9._-]*$`)
)

// RenderContainerName fills the {app}, {version} and {env} placeholders and
// sanitizes the result to the platform's container naming constraint
// (alphanumeric/dot/dash/underscore, no leading dot or dash, at most 63
// characters).
func RenderContainerName(tmpl, appName, image, envName string) string {
	name := strings.NewReplacer(
		"{app}", appName,
		"{version}", imageTag(image),
		"{env}", envName,
	).Replace(tmpl)
	return sanitizeContainerName(name)
}

// imageTag returns the tag portion of an image reference, "latest" when the
// reference carries none. A ':' inside the registry host part does not count.
func imageTag(image string) string {
	if i := strings.LastIndex(image, ":"); i >= 0 && !strings.Contains(image[i+1:], "/") {
		return image[i+1:]
	}
	return "latest"
}

func sanitizeContainerName(name string) string {
	name = containerNameInvalid.ReplaceAllString(name, "-")
	name = strings.TrimLeft(name, ".-")
	if len(name) <= maxContainerNameLen {
		return name
	}

	// Plain truncation would cut off a trailing version suffix; truncate the
	// prefix instead so the version stays identifiable.
	suffix := versionSuffixPattern.FindString(name)
	if suffix == "" || len(suffix) >= maxContainerNameLen {
		return strings.TrimRight(name[:maxContainerNameLen], ".-")
	}
	prefix := strings.TrimRight(name[:maxContainerNameLen-len(suffix)-1], ".-")
	return prefix + "-" + suffix
}
