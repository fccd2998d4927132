//go:build integration
// +build integration

package integration

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/CueDeck/backend/internal/app"
	"github.com/GriffinCanCode/CueDeck/backend/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/CueDeck/backend/internal/providers/catalog"
	"github.com/GriffinCanCode/CueDeck/backend/internal/shared/types"
	"github.com/GriffinCanCode/CueDeck/backend/tests/helpers/testutil"
)

// An unreachable catalog must never erase saved assignments.
func TestCatalogOutageKeepsAssignments(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	var calls atomic.Int64
	outage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer outage.Close()

	remote, err := catalog.NewRemote(catalog.RemoteConfig{
		BaseURL:      outage.URL,
		Timeout:      time.Second,
		MaxRetries:   0,
		RetryWaitMin: time.Millisecond,
		RetryWaitMax: time.Millisecond,
	}, nil)
	require.NoError(t, err)

	layout := testutil.NewLayout(t)
	testutil.WriteState(t, layout, types.DefaultProfileName, `{
  "version": "1.0.0",
  "timestamp": 1700000000000,
  "hotkeys": [{"tabNumber": 1, "tabName": null, "hotkeys": {"f1": "1", "f2": "2", "f3": "3"}}],
  "holdingTank": [{"tabNumber": 1, "tabName": null, "songIds": ["4", "5", "6"]}]
}`)

	h, res := testutil.StartHost(t, app.Options{UserDataDir: layout.UserData}, remote)
	require.True(t, res.Restore.Loaded)

	counts := h.View().Counts()
	assert.Equal(t, 3, counts[types.KindHotkeys])
	assert.Equal(t, 3, counts[types.KindHoldingTank])

	lookupErrors := 0
	for _, r := range res.Restore.Reports {
		lookupErrors += r.LookupErrors
		assert.Empty(t, r.Dropped)
	}
	assert.Equal(t, 6, lookupErrors)

	assert.Equal(t, resilience.StateOpen, remote.BreakerState())
	assert.LessOrEqual(t, calls.Load(), int64(6))
}

func TestCatalogNotFoundDoesNotTripBreaker(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	remote, err := catalog.NewRemote(catalog.DefaultRemoteConfig(srv.URL), nil)
	require.NoError(t, err)

	layout := testutil.NewLayout(t)
	testutil.WriteState(t, layout, types.DefaultProfileName, `{
  "version": "1.0.0",
  "timestamp": 1700000000000,
  "soundboard": [{"tabNumber": 1, "tabName": "Stings", "buttons": {"0-0": "7", "0-1": "8", "1-0": "9", "1-1": "10", "2-0": "11", "2-1": "12"}}]
}`)

	h, res := testutil.StartHost(t, app.Options{UserDataDir: layout.UserData}, remote)
	require.True(t, res.Restore.Loaded)
	assert.Zero(t, h.View().Counts()[types.KindSoundboard])
	assert.Equal(t, resilience.StateClosed, remote.BreakerState())
}
