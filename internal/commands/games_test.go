package commands

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundleap/soundleap-cli/internal/api"
	"github.com/soundleap/soundleap-cli/internal/logger"
)

func catalog(t *testing.T) *api.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/index.php":
			if r.URL.Query().Get("uid") == "" {
				w.Write([]byte(`[{"uid":"memory","name":"Memory","description":"Repeat the colour sequence\nSecond line","version":"1.2"}]`))
				return
			}
			w.Write([]byte(`[{"uid":"memory","name":"Memory","version":"1.2","preferences":[
			  {"preference_name":"rounds","preference_type":"number","default_value":5,"min_value":1,"max_value":20},
			  {"preference_name":"speed","preference_type":"list","default_value":0,"list":["slow","fast"]}
			]}]`))
		case "/gamecode.php":
			w.Write([]byte("beep\n"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return api.NewClient(srv.URL, time.Second, nil)
}

func TestListGamesPrintsTable(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, ListGames(context.Background(), &out, catalog(t)))
	assert.Contains(t, out.String(), "memory")
	assert.Contains(t, out.String(), "Repeat the colour sequence")
	assert.NotContains(t, out.String(), "Second line")
}

func TestShowGame(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, ShowGame(context.Background(), &out, catalog(t), "memory"))
	assert.Contains(t, out.String(), "Memory (memory)")
	assert.Contains(t, out.String(), "[1..20]")
	assert.Contains(t, out.String(), "[slow|fast]")
}

func TestPrepareGame(t *testing.T) {
	g, settings, code, err := PrepareGame(context.Background(), catalog(t), nil, logger.Discard(), "memory", []string{"rounds=7", "speed=fast"})
	require.NoError(t, err)
	assert.Equal(t, "Memory", g.Name)
	assert.Equal(t, []api.Setting{{Name: "rounds", Value: "7"}, {Name: "speed", Value: "fast"}}, settings)
	assert.Equal(t, "beep\n", string(code))
}

func TestPrepareGameRejectsBadOverride(t *testing.T) {
	_, _, _, err := PrepareGame(context.Background(), catalog(t), nil, logger.Discard(), "memory", []string{"rounds=99"})
	assert.ErrorIs(t, err, api.ErrInvalidValue)

	_, _, _, err = PrepareGame(context.Background(), catalog(t), nil, logger.Discard(), "memory", []string{"colour=red"})
	assert.ErrorIs(t, err, api.ErrUnknownPreference)
}

func TestFetchProgramFallsBackToCache(t *testing.T) {
	var failing atomic.Bool
	failing.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failing.Load() {
			http.Error(w, "down", http.StatusBadGateway)
			return
		}
		w.Write([]byte("beep\n"))
	}))
	t.Cleanup(srv.Close)
	c := api.NewClient(srv.URL, time.Second, nil)

	cache, err := api.NewProgramCache(t.TempDir())
	require.NoError(t, err)
	g := &api.Game{GameSummary: api.GameSummary{UID: "memory", Version: "1.2"}}

	_, err = FetchProgram(context.Background(), c, cache, logger.Discard(), g)
	require.Error(t, err)

	failing.Store(false)
	code, err := FetchProgram(context.Background(), c, cache, logger.Discard(), g)
	require.NoError(t, err)
	assert.Equal(t, "beep\n", string(code))

	failing.Store(true)
	code, err = FetchProgram(context.Background(), c, cache, logger.Discard(), g)
	require.NoError(t, err)
	assert.Equal(t, "beep\n", string(code))

	code, err = FetchProgram(context.Background(), c, cache, logger.Discard(), &api.Game{GameSummary: api.GameSummary{UID: "memory", Version: "1.3"}})
	require.NoError(t, err)
	assert.Equal(t, "beep\n", string(code))
}

func TestListCachedPrograms(t *testing.T) {
	cache, err := api.NewProgramCache(t.TempDir())
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, ListCachedPrograms(&out, cache))
	assert.Contains(t, out.String(), "No cached programs")

	require.NoError(t, cache.Put("memory", "1.2", []byte("beep")))
	out.Reset()
	require.NoError(t, ListCachedPrograms(&out, cache))
	assert.Contains(t, out.String(), "memory")
	assert.Contains(t, out.String(), "1.2")
}
