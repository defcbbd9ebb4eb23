package swagger

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

func TestRegisteredDoc(t *testing.T) {
	doc, err := swag.ReadDoc("swagger")
	require.NoError(t, err)

	var parsed struct {
		Info struct {
			Title string `json:"title"`
		} `json:"info"`
		Host  string                    `json:"host"`
		Paths map[string]map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(doc), &parsed))

	assert.Equal(t, "Fleet Sync API", parsed.Info.Title)
	assert.Equal(t, "localhost:8080", parsed.Host)
	for path, method := range map[string]string{
		"/integrations/{integrationId}/sync":   "post",
		"/sync/conflicts":                      "get",
		"/sync/conflicts/{conflictId}/resolve": "post",
		"/sync/runs":                           "get",
		"/devices/{deviceId}/status":           "get",
		"/integrity":                           "get",
		"/integrity/schema":                    "get",
		"/integrity/archive":                   "get",
	} {
		assert.Contains(t, parsed.Paths[path], method, path)
	}
}
