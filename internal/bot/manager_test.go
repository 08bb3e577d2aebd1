package bot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mjai-relay/mjai-relay/internal/mjapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeService is a minimal in-memory MJAPI server.
type fakeService struct {
	models     []string
	registered []string
	started    int
	stopped    int
	loggedOut  int
	lastStart  map[string]any
}

func (f *fakeService) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/user/register", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.registered = append(f.registered, req["name"])
		_ = json.NewEncoder(w).Encode(map[string]string{"secret": "s3cret"})
	})
	mux.HandleFunc("/user/login", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "tok-123"})
	})
	mux.HandleFunc("/user/logout", func(w http.ResponseWriter, r *http.Request) {
		f.loggedOut++
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/user/usage", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]int{"usage": 42})
	})
	mux.HandleFunc("/mjai/list", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string][]string{"models": f.models})
	})
	mux.HandleFunc("/mjai/start", func(w http.ResponseWriter, r *http.Request) {
		f.started++
		_ = json.NewDecoder(r.Body).Decode(&f.lastStart)
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/mjai/stop", func(w http.ResponseWriter, r *http.Request) {
		f.stopped++
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func newTestManager(t *testing.T, svc *fakeService, creds Credentials, sel ModelSelection) *Manager {
	t.Helper()
	srv := httptest.NewServer(svc.handler())
	t.Cleanup(srv.Close)

	client := mjapi.NewClient(srv.URL, time.Second, nil)
	m, err := NewManager(context.Background(), client, creds, sel, Config{}, nil)
	require.NoError(t, err)
	return m
}

func TestManagerRegistersWhenNoSecret(t *testing.T) {
	svc := &fakeService{models: []string{"alpha-4p", "beta-3p"}}
	m := newTestManager(t, svc, Credentials{}, ModelSelection{})

	require.Len(t, svc.registered, 1)
	assert.NotEmpty(t, svc.registered[0])
	assert.Equal(t, []Mode{Mode4P, Mode3P}, m.SupportedModes())
	assert.Equal(t, 42, m.Usage())
}

func TestManagerModelSelection(t *testing.T) {
	svc := &fakeService{models: []string{"alpha-4p", "gamma-4p", "beta-3p"}}
	m := newTestManager(t, svc, Credentials{User: "alice", Secret: "s"},
		ModelSelection{Model4P: "gamma-4p"})

	model, err := m.ModelFor(Mode4P)
	require.NoError(t, err)
	assert.Equal(t, "gamma-4p", model)

	// unknown selection falls back to the first offered model
	model, err = m.ModelFor(Mode3P)
	require.NoError(t, err)
	assert.Equal(t, "beta-3p", model)
}

func TestManagerUnsupportedModeAtStart(t *testing.T) {
	svc := &fakeService{models: []string{"alpha-4p"}}
	m := newTestManager(t, svc, Credentials{User: "alice", Secret: "s"}, ModelSelection{})

	assert.Equal(t, []Mode{Mode4P}, m.SupportedModes())

	_, err := m.StartGame(context.Background(), 0, Mode3P)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedMode)
	assert.Zero(t, svc.started, "no remote bot may start for an unsupported mode")
}

func TestManagerStartGame(t *testing.T) {
	svc := &fakeService{models: []string{"alpha-4p", "beta-3p"}}
	m := newTestManager(t, svc, Credentials{User: "alice", Secret: "s"}, ModelSelection{})

	session, err := m.StartGame(context.Background(), 2, Mode3P)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, 2, session.Seat())
	assert.Equal(t, Mode3P, session.Mode())

	assert.Equal(t, 1, svc.started)
	assert.Equal(t, "beta-3p", svc.lastStart["bot"])
	assert.Equal(t, float64(2), svc.lastStart["seat"])
	assert.Equal(t, float64(256), svc.lastStart["bound"])

	require.NoError(t, m.StopGame(context.Background()))
	assert.Equal(t, 1, svc.stopped)
}

func TestManagerClose(t *testing.T) {
	svc := &fakeService{models: []string{"alpha-4p"}}
	m := newTestManager(t, svc, Credentials{User: "alice", Secret: "s"}, ModelSelection{})

	require.NoError(t, m.Close(context.Background()))
	assert.Equal(t, 1, svc.stopped)
	assert.Equal(t, 1, svc.loggedOut)
}

func TestManagerFailsWithoutModels(t *testing.T) {
	svc := &fakeService{}
	srv := httptest.NewServer(svc.handler())
	t.Cleanup(srv.Close)

	client := mjapi.NewClient(srv.URL, time.Second, nil)
	_, err := NewManager(context.Background(), client, Credentials{User: "a", Secret: "s"}, ModelSelection{}, Config{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no models")
}
