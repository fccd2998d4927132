package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/GriffinCanCode/CueDeck/backend/internal/app"
	"github.com/GriffinCanCode/CueDeck/backend/internal/providers/catalog"
	"github.com/GriffinCanCode/CueDeck/backend/internal/shared/paths"
	"github.com/GriffinCanCode/CueDeck/backend/internal/shared/types"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testAPI struct {
	router *gin.Engine
	host   *app.Host
	layout paths.Layout
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	cat := catalog.NewMemory(
		types.Item{ID: "1", Title: "Walk-on"},
		types.Item{ID: "2", Title: "Applause"},
	)
	host, err := app.New(app.Options{UserDataDir: dir, QuitTimeout: time.Second}, cat, nil, nil)
	require.NoError(t, err)
	_, err = host.Start(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _, _ = host.Shutdown(context.Background()) })

	router := gin.New()
	NewHandlers(host, "test", nil).Register(router)
	return &testAPI{router: router, host: host, layout: paths.NewLayout(dir)}
}

func (a *testAPI) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, "GET", "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, types.DefaultProfileName, body["profile"])
	assert.Equal(t, true, body["started"])
}

func TestProfileCRUD(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, "POST", "/profiles", CreateProfileRequest{Name: "Friday Gig", Description: "club set"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "Friday Gig", decode(t, w)["name"])

	w = api.do(t, "POST", "/profiles", CreateProfileRequest{Name: "friday gig"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation", decode(t, w)["code"])

	w = api.do(t, "POST", "/profiles", map[string]string{"description": "no name"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "bad_request", decode(t, w)["code"])

	w = api.do(t, "POST", "/profiles/Friday%20Gig/duplicate", CreateProfileRequest{Name: "Saturday Gig"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = api.do(t, "GET", "/profiles", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Len(t, body["profiles"], 3)
	assert.Equal(t, types.DefaultProfileName, body["active"])

	w = api.do(t, "DELETE", "/profiles/Saturday%20Gig", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = api.do(t, "DELETE", "/profiles/Saturday%20Gig", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteActiveRefused(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, "DELETE", "/profiles/Default", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation", decode(t, w)["code"])
}

func TestPreferences(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, "GET", "/profiles/Default/preferences", nil)
	require.Equal(t, http.StatusOK, w.Code)
	prefs := decode(t, w)
	assert.Equal(t, "system", prefs["screen_mode"])

	prefs["screen_mode"] = "dark"
	w = api.do(t, "PUT", "/profiles/Default/preferences", prefs)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "dark", api.host.Preferences()["screen_mode"])

	w = api.do(t, "PUT", "/profiles/Default/preferences", map[string]interface{}{"font_size": "huge"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, "GET", "/profiles/Nobody/preferences", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLayoutSwitchRoundTrip(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, "POST", "/profiles", CreateProfileRequest{Name: "Gig"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = api.do(t, "PUT", "/layout/hotkeys", LayoutRequest{Tabs: []types.TabAssignment{
		{TabNumber: 1, Slots: map[string]string{"f1": "1", "f2": "2"}},
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(t, "POST", "/session/switch", SwitchRequest{Profile: "Gig"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decode(t, w)["result"].(map[string]interface{})
	assert.Equal(t, "Default", result["from"])
	assert.Equal(t, true, result["saved"])
	assert.FileExists(t, api.layout.StateFile(types.DefaultProfileName))
	assert.Empty(t, api.host.View().GetAssignments(types.KindHotkeys))

	w = api.do(t, "POST", "/session/switch", SwitchRequest{Profile: "Default"})
	require.Equal(t, http.StatusOK, w.Code)

	tabs := api.host.View().GetAssignments(types.KindHotkeys)
	require.NotEmpty(t, tabs)
	assert.Equal(t, map[string]string{"f1": "1", "f2": "2"}, tabs[0].Slots)

	w = api.do(t, "GET", "/layout", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Default", decode(t, w)["profile"])
}

func TestSwitchErrors(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, "POST", "/session/switch", SwitchRequest{Profile: "Missing"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(t, "POST", "/session/switch", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSaveRefusedDuringRestore(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, "PUT", "/layout/holdingTank", LayoutRequest{Tabs: []types.TabAssignment{
		{TabNumber: 1, Items: []string{"1"}},
	}})
	require.Equal(t, http.StatusOK, w.Code)
	w = api.do(t, "POST", "/session/save", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["saved"])

	w = api.do(t, "POST", "/session/load", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["loaded"])

	w = api.do(t, "GET", "/session/status", nil)
	assert.Equal(t, true, decode(t, w)["restoring"])

	w = api.do(t, "POST", "/session/save", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, true, decode(t, w)["refused"])

	w = api.do(t, "POST", "/session/load", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "restore_in_progress", decode(t, w)["code"])

	w = api.do(t, "POST", "/session/unlock", nil)
	assert.Equal(t, true, decode(t, w)["released"])

	w = api.do(t, "POST", "/session/save", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLayoutValidation(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, "PUT", "/layout/jukebox", LayoutRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, "PUT", "/layout/hotkeys", LayoutRequest{Tabs: []types.TabAssignment{{TabNumber: 9}}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, "POST", "/layout/soundboard/mount", MountRequest{Tabs: 0})
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, api.host.View().HasKind(types.KindSoundboard))

	w = api.do(t, "POST", "/layout/soundboard/mount", MountRequest{Tabs: 3})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, api.host.View().HasTab(types.KindSoundboard, 3))
	assert.False(t, api.host.View().HasTab(types.KindSoundboard, 4))

	w = api.do(t, "POST", "/layout/soundboard/mount", MountRequest{Tabs: 6})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportImport(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, "GET", "/profiles/Default/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/zstd", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "Default.tar.zst")
	archive := w.Body.Bytes()
	require.NotEmpty(t, archive)

	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	part, err := mw.CreateFormFile("archive", "Default.tar.zst")
	require.NoError(t, err)
	_, err = part.Write(archive)
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("name", "Restored"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/profiles/import", &form)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w = httptest.NewRecorder()
	api.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "Restored", decode(t, w)["name"])

	w = api.do(t, "GET", "/profiles/Nobody/export", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
