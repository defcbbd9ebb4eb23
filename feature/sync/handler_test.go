package sync

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fleet-sync/core/middleware/auth"
	"fleet-sync/feature/sync/models"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestApp(t *testing.T, org string) (*fiber.App, *fixture) {
	f := setup(t)
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(auth.LocalOrganization, org)
		c.Locals(auth.LocalUser, "operator@example.com")
		return c.Next()
	})
	NewHandler(f.service).RegisterRoutes(app)
	return app, f
}

func doJSON(t *testing.T, app *fiber.App, method, target, body string, out any) int {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHandleSync(t *testing.T) {
	app, f := setupTestApp(t, testOrg)
	seedScenario(t, f)

	var result Result
	code := doJSON(t, app, "POST", "/integrations/int-1/sync", `{"fullSync":true}`, &result)
	assert.Equal(t, 200, code)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, models.ModeFull, result.Mode)
	assert.Equal(t, []string{"C"}, result.Created)
	assert.Len(t, result.Conflicts, 1)

	var dry Result
	code = doJSON(t, app, "POST", "/integrations/int-1/sync", `{"fullSync":true,"dryRun":true}`, &dry)
	assert.Equal(t, 200, code)
	assert.True(t, dry.DryRun)
	assert.Empty(t, dry.RunID)
}

func TestHandleSync_EmptyBody(t *testing.T) {
	app, f := setupTestApp(t, testOrg)
	seedScenario(t, f)

	var result Result
	code := doJSON(t, app, "POST", "/integrations/int-1/sync", "", &result)
	assert.Equal(t, 200, code)
	assert.Equal(t, models.ModeIncremental, result.Mode)
}

func TestHandleSync_Errors(t *testing.T) {
	t.Run("OtherOrganization", func(t *testing.T) {
		app, _ := setupTestApp(t, "org-2")
		var body map[string]any
		code := doJSON(t, app, "POST", "/integrations/int-1/sync", "", &body)
		assert.Equal(t, 403, code)
		assert.Equal(t, "failed", body["status"])
	})

	t.Run("Unknown", func(t *testing.T) {
		app, _ := setupTestApp(t, testOrg)
		code := doJSON(t, app, "POST", "/integrations/nope/sync", "", nil)
		assert.Equal(t, 404, code)
	})

	t.Run("AlreadyRunning", func(t *testing.T) {
		app, f := setupTestApp(t, testOrg)
		_, err := f.locker.Acquire(context.Background(), testIntegration, time.Minute)
		require.NoError(t, err)
		code := doJSON(t, app, "POST", "/integrations/int-1/sync", "", nil)
		assert.Equal(t, 409, code)
	})

	t.Run("InvalidBody", func(t *testing.T) {
		app, _ := setupTestApp(t, testOrg)
		code := doJSON(t, app, "POST", "/integrations/int-1/sync", `{"fullSync":`, nil)
		assert.Equal(t, 400, code)
	})
}

func TestHandleConflicts(t *testing.T) {
	app, f := setupTestApp(t, testOrg)
	seedScenario(t, f)

	var conflicts []models.Conflict
	assert.Equal(t, 200, doJSON(t, app, "GET", "/sync/conflicts", "", &conflicts))
	assert.Empty(t, conflicts)

	_, err := f.service.SyncIntegration(context.Background(), testOrg, testIntegration, Options{FullSync: true})
	require.NoError(t, err)

	assert.Equal(t, 200, doJSON(t, app, "GET", "/sync/conflicts?deviceId=d-b", "", &conflicts))
	require.Len(t, conflicts, 1)
	id := conflicts[0].ID

	var body map[string]any
	code := doJSON(t, app, "POST", "/sync/conflicts/"+id+"/resolve", `{"resolution":"custom"}`, &body)
	assert.Equal(t, 422, code)
	assert.Contains(t, body["error"], "customValue")

	code = doJSON(t, app, "POST", "/sync/conflicts/missing/resolve", `{"resolution":"kept_local"}`, nil)
	assert.Equal(t, 404, code)

	var resolved models.Conflict
	code = doJSON(t, app, "POST", "/sync/conflicts/"+id+"/resolve", `{"resolution":"kept_local","notes":"renamed on site"}`, &resolved)
	assert.Equal(t, 200, code)
	assert.Equal(t, models.ResolutionKeptLocal, resolved.Resolution)
	require.NotNil(t, resolved.ResolvedBy)
	assert.Equal(t, "operator@example.com", *resolved.ResolvedBy)

	code = doJSON(t, app, "POST", "/sync/conflicts/"+id+"/resolve", `{"resolution":"kept_remote"}`, nil)
	assert.Equal(t, 409, code)

	assert.Equal(t, 200, doJSON(t, app, "GET", "/sync/conflicts", "", &conflicts))
	assert.Empty(t, conflicts)
	assert.Equal(t, "Old", f.device(t, "B").Name)
}

func TestHandleRuns(t *testing.T) {
	app, f := setupTestApp(t, testOrg)
	seedScenario(t, f)

	var runs []models.SyncRun
	assert.Equal(t, 200, doJSON(t, app, "GET", "/sync/runs", "", &runs))
	assert.Empty(t, runs)

	for range 2 {
		_, err := f.service.SyncIntegration(context.Background(), testOrg, testIntegration, Options{FullSync: true})
		require.NoError(t, err)
	}

	assert.Equal(t, 200, doJSON(t, app, "GET", "/sync/runs?integrationId=int-1", "", &runs))
	assert.Len(t, runs, 2)

	assert.Equal(t, 200, doJSON(t, app, "GET", "/sync/runs?limit=1", "", &runs))
	assert.Len(t, runs, 1)
}

func TestHandleRuns_OtherOrganization(t *testing.T) {
	app, _ := setupTestApp(t, "org-2")

	assert.Equal(t, 403, doJSON(t, app, "GET", "/sync/runs?integrationId=int-1", "", nil))
}
