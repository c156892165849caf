package deploy

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/edvin/deployctl/internal/api"
	"github.com/edvin/deployctl/internal/config"
	"github.com/edvin/deployctl/internal/health"
)

// fakePlatform is an in-memory stand-in for the platform API. It keeps enough
// state for find-or-create flows to behave like the real thing and counts
// every operation so tests can assert exactly which remote calls happened.
type fakePlatform struct {
	srv *httptest.Server

	mu          sync.Mutex
	calls       map[string]int
	order       []string
	projects    []api.Project
	servers     []api.Server
	domains     []api.Domain
	deployments map[string]*api.Deployment
	nextID      int

	// Behavior switches.
	deployReturnsID bool
	deployStatus    string
}

func newFakePlatform(t *testing.T) *fakePlatform {
	t.Helper()
	f := &fakePlatform{
		calls:           map[string]int{},
		deployments:     map[string]*api.Deployment{},
		deployReturnsID: true,
		deployStatus:    api.DeploymentCompleted,
	}
	f.srv = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakePlatform) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakePlatform) callOrder() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.order...)
}

func (f *fakePlatform) newID(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func (f *fakePlatform) handle(w http.ResponseWriter, r *http.Request) {
	op := strings.TrimPrefix(r.URL.Path, "/api/")

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	f.order = append(f.order, op)

	var body map[string]any
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&body)
	}
	str := func(key string) string {
		s, _ := body[key].(string)
		return s
	}

	switch op {
	case "project.all":
		writeJSON(w, f.projects)

	case "project.create":
		projectID := f.newID("proj")
		envID := f.newID("env")
		f.projects = append(f.projects, api.Project{
			ProjectID: projectID,
			Name:      str("name"),
			Environments: []api.Environment{
				{EnvironmentID: envID, Name: "production"},
			},
		})
		writeJSON(w, map[string]any{
			"project":     map[string]any{"projectId": projectID, "name": str("name")},
			"environment": map[string]any{"environmentId": envID, "name": "production"},
		})

	case "project.one":
		id := r.URL.Query().Get("projectId")
		for i := range f.projects {
			if f.projects[i].ProjectID == id {
				writeJSON(w, f.projects[i])
				return
			}
		}
		http.Error(w, `{"message":"project not found"}`, http.StatusNotFound)

	case "environment.create":
		envID := f.newID("env")
		for i := range f.projects {
			if f.projects[i].ProjectID == str("projectId") {
				f.projects[i].Environments = append(f.projects[i].Environments,
					api.Environment{EnvironmentID: envID, Name: str("name")})
			}
		}
		writeJSON(w, map[string]any{"environmentId": envID})

	case "server.all":
		writeJSON(w, f.servers)

	case "application.create":
		appID := f.newID("app")
		f.attachApplication(str("projectId"), str("environmentId"), api.Application{
			ApplicationID: appID, Name: str("name"),
		})
		writeJSON(w, map[string]any{"applicationId": appID})

	case "compose.create":
		composeID := f.newID("compose")
		f.attachCompose(str("projectId"), str("environmentId"), api.Compose{
			ComposeID: composeID, Name: str("name"),
		})
		writeJSON(w, map[string]any{"composeId": composeID})

	case "application.update", "application.saveDockerProvider", "application.saveEnvironment",
		"application.stop", "compose.update", "compose.saveEnvironment", "compose.stop",
		"domain.update":
		writeJSON(w, map[string]any{"ok": true})

	case "application.deploy", "compose.deploy":
		if !f.deployReturnsID {
			writeJSON(w, map[string]any{})
			return
		}
		depID := f.newID("dep")
		f.deployments[depID] = &api.Deployment{DeploymentID: depID, Status: f.deployStatus}
		writeJSON(w, map[string]any{"deploymentId": depID})

	case "deployment.one":
		id := r.URL.Query().Get("deploymentId")
		if d, ok := f.deployments[id]; ok {
			writeJSON(w, d)
			return
		}
		http.Error(w, `{"message":"deployment not found"}`, http.StatusNotFound)

	case "domain.byApplicationId", "domain.byComposeId":
		writeJSON(w, f.domains)

	case "domain.create":
		domID := f.newID("dom")
		f.domains = append(f.domains, api.Domain{
			DomainID:  domID,
			Host:      str("host"),
			Port:      int(body["port"].(float64)),
			Path:      str("path"),
			CreatedAt: time.Now(),
		})
		writeJSON(w, map[string]any{"domainId": domID})

	case "domain.delete":
		id := str("domainId")
		kept := f.domains[:0]
		for _, d := range f.domains {
			if d.DomainID != id {
				kept = append(kept, d)
			}
		}
		f.domains = kept
		writeJSON(w, map[string]any{"ok": true})

	default:
		http.Error(w, fmt.Sprintf(`{"message":"unknown operation %s"}`, op), http.StatusNotFound)
	}
}

func (f *fakePlatform) attachApplication(projectID, environmentID string, app api.Application) {
	for i := range f.projects {
		if f.projects[i].ProjectID != projectID {
			continue
		}
		for j := range f.projects[i].Environments {
			if f.projects[i].Environments[j].EnvironmentID == environmentID {
				f.projects[i].Environments[j].Applications =
					append(f.projects[i].Environments[j].Applications, app)
			}
		}
	}
}

func (f *fakePlatform) attachCompose(projectID, environmentID string, compose api.Compose) {
	for i := range f.projects {
		if f.projects[i].ProjectID != projectID {
			continue
		}
		for j := range f.projects[i].Environments {
			if f.projects[i].Environments[j].EnvironmentID == environmentID {
				f.projects[i].Environments[j].Composes =
					append(f.projects[i].Environments[j].Composes, compose)
			}
		}
	}
}

// stubVerifier is a canned health verifier recording whether it was asked.
type stubVerifier struct {
	mu      sync.Mutex
	result  health.Result
	checked int
}

func (s *stubVerifier) Check(_ context.Context, _ health.Options) health.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checked++
	return s.result
}

func (s *stubVerifier) checks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checked
}

func testRunner(t *testing.T, f *fakePlatform, cfg *config.Config, verifier Verifier) *Runner {
	t.Helper()
	client := api.NewClient(f.srv.URL, "test-key", zerolog.Nop())
	r := NewRunner(cfg, client, verifier, zerolog.Nop())
	r.domainDeleteDelay = 0
	r.quickProbeDelay = 0
	return r
}
