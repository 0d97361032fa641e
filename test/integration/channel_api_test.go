//go:build integration
// +build integration

package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castawaytv/castaway/internal/api"
)

func performRequest(router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestChannelLifecycle(t *testing.T) {
	database := openTestDatabase(t)
	defer database.close()

	router := setupTestRouter(database.db, database.repos)

	// create
	w := performRequest(router, http.MethodPost, "/api/channels", api.CreateChannelRequest{
		Name:   "Cartoons",
		Number: "4",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created api.ChannelResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "Cartoons", created.Name)
	assert.Equal(t, "4", created.Number)

	// duplicate number is rejected
	w = performRequest(router, http.MethodPost, "/api/channels", api.CreateChannelRequest{
		Name:   "Other",
		Number: "4",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// get
	w = performRequest(router, http.MethodGet, "/api/channels/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// update
	newName := "Cartoons HD"
	w = performRequest(router, http.MethodPut, "/api/channels/"+created.ID, api.UpdateChannelRequest{
		Name: &newName,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated api.ChannelResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "Cartoons HD", updated.Name)

	// delete
	w = performRequest(router, http.MethodDelete, "/api/channels/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = performRequest(router, http.MethodGet, "/api/channels/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPlayoutEndpoints(t *testing.T) {
	database := openTestDatabase(t)
	defer database.close()

	router := setupTestRouter(database.db, database.repos)

	for i, id := range fixtureMediaIDs {
		createTestMediaInDB(t, database.repos, id, "episode-"+string(rune('a'+i)), 1800)
	}
	createTestCollection(t, database.repos, fixtureCollectionID, "fixture collection", fixtureMediaIDs)
	createTestSchedule(t, database.repos, fixtureScheduleID, fixtureCollectionID)
	ch := createTestChannel(t, database.repos, "9")

	w := performRequest(router, http.MethodPost, "/api/playouts", api.CreatePlayoutRequest{
		ChannelID:  ch.ID.String(),
		ScheduleID: fixtureScheduleID.String(),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	// a second playout on the same channel conflicts
	w = performRequest(router, http.MethodPost, "/api/playouts", api.CreatePlayoutRequest{
		ChannelID:  ch.ID.String(),
		ScheduleID: fixtureScheduleID.String(),
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// unknown schedule is rejected up front
	w = performRequest(router, http.MethodPost, "/api/playouts", api.CreatePlayoutRequest{
		ChannelID:  ch.ID.String(),
		ScheduleID: "a1b2c3d4-0000-0000-0000-00000000ffff",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// status before any build
	w = performRequest(router, http.MethodGet, "/api/playouts/"+created.ID+"/status", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// rebuild is accepted asynchronously
	w = performRequest(router, http.MethodPost, "/api/playouts/"+created.ID+"/rebuild", nil)
	assert.Equal(t, http.StatusAccepted, w.Code)
}
