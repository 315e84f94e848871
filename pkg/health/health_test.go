package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestLivenessHandler(t *testing.T) {
	h := NewHandler()
	h.Register("state", func(ctx context.Context) error { return errors.New("down") })

	rec := httptest.NewRecorder()
	h.LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, StatusUp, decode(t, rec).Status)
}

func TestReadiness_AllUp(t *testing.T) {
	h := NewHandler()
	h.Register("state", func(ctx context.Context) error { return nil })
	h.RegisterOptional("backend", func(ctx context.Context) error { return nil })

	rec := httptest.NewRecorder()
	h.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decode(t, rec)
	assert.Equal(t, StatusUp, resp.Status)
	assert.Len(t, resp.Checks, 2)
	assert.NotEmpty(t, resp.Checks["state"].Duration)
}

func TestReadiness_RequiredDown(t *testing.T) {
	h := NewHandler()
	h.Register("state", func(ctx context.Context) error { return errors.New("database is locked") })
	h.RegisterOptional("backend", func(ctx context.Context) error { return nil })

	rec := httptest.NewRecorder()
	h.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	resp := decode(t, rec)
	assert.Equal(t, StatusDown, resp.Status)
	assert.Equal(t, "database is locked", resp.Checks["state"].Error)
}

func TestReadiness_OptionalDownIsDegraded(t *testing.T) {
	h := NewHandler()
	h.Register("state", func(ctx context.Context) error { return nil })
	h.RegisterOptional("backend", func(ctx context.Context) error { return errors.New("connection refused") })

	rec := httptest.NewRecorder()
	h.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decode(t, rec)
	assert.Equal(t, StatusDegraded, resp.Status)
	assert.Equal(t, StatusDegraded, resp.Checks["backend"].Status)
}

func TestCheck_NoCheckers(t *testing.T) {
	resp := NewHandler().Check(context.Background())
	assert.Equal(t, StatusUp, resp.Status)
	assert.Empty(t, resp.Checks)
}

func TestCheck_ReRegisterReplaces(t *testing.T) {
	h := NewHandler()
	h.Register("state", func(ctx context.Context) error { return errors.New("old") })
	h.Register("state", func(ctx context.Context) error { return nil })

	assert.Equal(t, StatusUp, h.Check(context.Background()).Status)
}
