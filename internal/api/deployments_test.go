package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitForDeployment_Completes(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status := DeploymentDeploying
		if calls.Add(1) >= 3 {
			status = DeploymentCompleted
		}
		fmt.Fprintf(w, `{"deploymentId":"d1","status":%q}`, status)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", zerolog.Nop())
	d, err := c.WaitForDeployment(context.Background(), "d1", time.Millisecond, time.Second)
	require.NoError(t, err)
	assert.Equal(t, DeploymentCompleted, d.Status)
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
}

func TestWaitForDeployment_FailedWithLogs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"deploymentId":"d1","status":"failed","logs":"pulling image\nerror: manifest not found\n"}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", zerolog.Nop())
	_, err := c.WaitForDeployment(context.Background(), "d1", time.Millisecond, time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deployment d1 failed")
	assert.Contains(t, err.Error(), "manifest not found")
}

func TestWaitForDeployment_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"deploymentId":"d1","status":"deploying"}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", zerolog.Nop())
	_, err := c.WaitForDeployment(context.Background(), "d1", time.Millisecond, 20*time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
	assert.Contains(t, err.Error(), `last status "deploying"`)
}

func TestWaitForDeployment_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"deploymentId":"d1","status":"pending"}`)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(srv.URL, "k", zerolog.Nop())
	_, err := c.WaitForDeployment(ctx, "d1", 50*time.Millisecond, time.Minute)
	require.Error(t, err)
}

func TestTailLines(t *testing.T) {
	assert.Equal(t, "", tailLines("", 5))
	assert.Equal(t, "a\nb", tailLines("a\nb\n", 5))
	assert.Equal(t, "d\ne", tailLines("a\nb\nc\nd\ne", 2))
}
