package api

import "time"

// Deployment lifecycle states as reported by the platform.
const (
	DeploymentPending   = "pending"
	DeploymentDeploying = "deploying"
	DeploymentCompleted = "completed"
	DeploymentFailed    = "failed"
)

type Project struct {
	ProjectID    string        `json:"projectId"`
	Name         string        `json:"name"`
	Description  string        `json:"description,omitempty"`
	Environments []Environment `json:"environments,omitempty"`
}

type Environment struct {
	EnvironmentID string        `json:"environmentId"`
	Name          string        `json:"name"`
	ProjectID     string        `json:"projectId,omitempty"`
	Applications  []Application `json:"applications,omitempty"`
	Composes      []Compose     `json:"compose,omitempty"`
}

type Server struct {
	ServerID string `json:"serverId"`
	Name     string `json:"name"`
}

type Application struct {
	ApplicationID string `json:"applicationId"`
	Name          string `json:"name"`
	AppName       string `json:"appName,omitempty"`
	EnvironmentID string `json:"environmentId,omitempty"`
	ServerID      string `json:"serverId,omitempty"`
}

type Compose struct {
	ComposeID     string `json:"composeId"`
	Name          string `json:"name"`
	EnvironmentID string `json:"environmentId,omitempty"`
	ServerID      string `json:"serverId,omitempty"`
}

type Domain struct {
	DomainID        string    `json:"domainId"`
	Host            string    `json:"host"`
	Port            int       `json:"port"`
	Path            string    `json:"path"`
	HTTPS           bool      `json:"https"`
	CertificateType string    `json:"certificateType,omitempty"`
	StripPath       bool      `json:"stripPath,omitempty"`
	ServiceName     string    `json:"serviceName,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

type Deployment struct {
	DeploymentID string `json:"deploymentId"`
	Status       string `json:"status"`
	Title        string `json:"title,omitempty"`
	Logs         string `json:"logs,omitempty"`
}

// CreatedProject carries what project.create reports back: the new project id
// and, when the platform includes it, the id of the implicit default
// environment that comes with every fresh project.
type CreatedProject struct {
	ProjectID            string
	DefaultEnvironmentID string
}
