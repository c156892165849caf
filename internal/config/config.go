package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Deployment type selector.
const (
	TypeApplication = "application"
	TypeCompose     = "compose"
)

// Config is the resolved input set for one deployment run. Values are layered:
// code defaults, then an optional YAML file, then DEPLOY_* environment
// variables. Environment wins so CI pipelines can override a checked-in file.
type Config struct {
	APIURL string `yaml:"api_url" envconfig:"API_URL"`
	APIKey string `yaml:"api_key" envconfig:"API_KEY"`

	Type string `yaml:"type" envconfig:"TYPE"`

	ProjectID          string `yaml:"project_id" envconfig:"PROJECT_ID"`
	ProjectName        string `yaml:"project_name" envconfig:"PROJECT_NAME"`
	ProjectDescription string `yaml:"project_description" envconfig:"PROJECT_DESCRIPTION"`
	EnvironmentID      string `yaml:"environment_id" envconfig:"ENVIRONMENT_ID"`
	EnvironmentName    string `yaml:"environment_name" envconfig:"ENVIRONMENT_NAME"`
	ServerID           string `yaml:"server_id" envconfig:"SERVER_ID"`
	ServerName         string `yaml:"server_name" envconfig:"SERVER_NAME"`
	ApplicationID      string `yaml:"application_id" envconfig:"APPLICATION_ID"`
	ApplicationName    string `yaml:"application_name" envconfig:"APPLICATION_NAME"`
	ComposeID          string `yaml:"compose_id" envconfig:"COMPOSE_ID"`
	ComposeName        string `yaml:"compose_name" envconfig:"COMPOSE_NAME"`
	AutoCreate         bool   `yaml:"auto_create" envconfig:"AUTO_CREATE"`

	Image            string `yaml:"image" envconfig:"IMAGE"`
	RegistryURL      string `yaml:"registry_url" envconfig:"REGISTRY_URL"`
	RegistryUsername string `yaml:"registry_username" envconfig:"REGISTRY_USERNAME"`
	RegistryPassword string `yaml:"registry_password" envconfig:"REGISTRY_PASSWORD"`

	Port                  int    `yaml:"port" envconfig:"PORT"`
	MemoryLimitMB         int64  `yaml:"memory_limit_mb" envconfig:"MEMORY_LIMIT_MB"`
	MemoryReservationMB   int64  `yaml:"memory_reservation_mb" envconfig:"MEMORY_RESERVATION_MB"`
	CPULimit              string `yaml:"cpu_limit" envconfig:"CPU_LIMIT"`
	CPUReservation        string `yaml:"cpu_reservation" envconfig:"CPU_RESERVATION"`
	Replicas              int    `yaml:"replicas" envconfig:"REPLICAS"`
	RestartPolicy         string `yaml:"restart_policy" envconfig:"RESTART_POLICY"`
	ContainerNameTemplate string `yaml:"container_name_template" envconfig:"CONTAINER_NAME_TEMPLATE"`

	EnvJSON string `yaml:"env_json" envconfig:"ENV_JSON"`
	EnvRaw  string `yaml:"env" envconfig:"ENV"`
	EnvFile string `yaml:"env_file" envconfig:"ENV_FILE"`

	ComposeFile string `yaml:"compose_file" envconfig:"COMPOSE_FILE"`

	DomainHost        string `yaml:"domain_host" envconfig:"DOMAIN_HOST"`
	DomainPort        int    `yaml:"domain_port" envconfig:"DOMAIN_PORT"`
	DomainPath        string `yaml:"domain_path" envconfig:"DOMAIN_PATH"`
	DomainHTTPS       bool   `yaml:"domain_https" envconfig:"DOMAIN_HTTPS"`
	CertificateType   string `yaml:"certificate_type" envconfig:"CERTIFICATE_TYPE"`
	StripPath         bool   `yaml:"strip_path" envconfig:"STRIP_PATH"`
	DomainServiceName string `yaml:"domain_service_name" envconfig:"DOMAIN_SERVICE_NAME"`
	RecreateDomain    bool   `yaml:"recreate_domain" envconfig:"RECREATE_DOMAIN"`

	Title       string `yaml:"title" envconfig:"TITLE"`
	Description string `yaml:"description" envconfig:"DESCRIPTION"`

	Wait         bool          `yaml:"wait" envconfig:"WAIT"`
	WaitTimeout  time.Duration `yaml:"wait_timeout" envconfig:"WAIT_TIMEOUT"`
	PollInterval time.Duration `yaml:"poll_interval" envconfig:"POLL_INTERVAL"`

	CleanupOldContainers bool          `yaml:"cleanup_old_containers" envconfig:"CLEANUP_OLD_CONTAINERS"`
	CleanupSettleDelay   time.Duration `yaml:"cleanup_settle_delay" envconfig:"CLEANUP_SETTLE_DELAY"`

	HealthCheck               bool          `yaml:"health_check" envconfig:"HEALTH_CHECK"`
	HealthCheckExpectedStatus int           `yaml:"health_check_expected_status" envconfig:"HEALTH_CHECK_EXPECTED_STATUS"`
	HealthCheckRetries        int           `yaml:"health_check_retries" envconfig:"HEALTH_CHECK_RETRIES"`
	HealthCheckInterval       time.Duration `yaml:"health_check_interval" envconfig:"HEALTH_CHECK_INTERVAL"`
	HealthCheckTimeout        time.Duration `yaml:"health_check_timeout" envconfig:"HEALTH_CHECK_TIMEOUT"`
	FailOnHealthCheckError    bool          `yaml:"fail_on_health_check_error" envconfig:"FAIL_ON_HEALTH_CHECK_ERROR"`

	OutputFile string `yaml:"output_file" envconfig:"OUTPUT_FILE"`
	LogLevel   string `yaml:"log_level" envconfig:"LOG_LEVEL"`
	Debug      bool   `yaml:"debug" envconfig:"DEBUG"`
	Pretty     bool   `yaml:"pretty" envconfig:"PRETTY"`
}

// Default returns a Config with code-level defaults applied. Payload-level
// defaults (target port, restart policy, domain path) are applied by the
// payload builders, not here, so "unset" stays observable.
func Default() *Config {
	return &Config{
		Type:                      TypeApplication,
		EnvironmentName:           "production",
		DomainHTTPS:               true,
		WaitTimeout:               10 * time.Minute,
		PollInterval:              5 * time.Second,
		CleanupSettleDelay:        10 * time.Second,
		HealthCheckExpectedStatus: 200,
		HealthCheckRetries:        10,
		HealthCheckInterval:       5 * time.Second,
		HealthCheckTimeout:        10 * time.Second,
		LogLevel:                  "info",
	}
}

// Load builds the run configuration from defaults, an optional YAML file and
// DEPLOY_* environment variables, in that order. An env-file source is read
// here into the raw env slot so later stages only see two env-var forms.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := envconfig.Process("deploy", cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	if cfg.EnvFile != "" && cfg.EnvRaw == "" {
		data, err := os.ReadFile(cfg.EnvFile)
		if err != nil {
			return nil, fmt.Errorf("read env file %s: %w", cfg.EnvFile, err)
		}
		cfg.EnvRaw = string(data)
	}

	return cfg, nil
}
