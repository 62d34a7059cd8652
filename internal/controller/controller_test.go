package controller

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/sharetube/smartpresent/internal/replication"
	repo "github.com/sharetube/smartpresent/internal/repository/presentation"
	presentationRedis "github.com/sharetube/smartpresent/internal/repository/presentation/redis"
	"github.com/sharetube/smartpresent/internal/repository/presenter/inmemory"
	"github.com/sharetube/smartpresent/internal/service/presentation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	s := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { rc.Close() })

	store := repo.NewStore(presentationRedis.NewRepo(rc, time.Hour, slog.Default()))
	svc := presentation.NewService(store, inmemory.NewRepo(slog.Default()), replication.NewLocalBroker(), presentation.Config{
		Secret:          "test-secret",
		TickInterval:    time.Hour,
		SyncInterval:    20 * time.Millisecond,
		MicRestartDelay: time.Millisecond,
	}, slog.Default())

	srv := httptest.NewServer(NewController(svc, slog.Default()).GetMux())
	t.Cleanup(srv.Close)
	return srv
}

type envelope struct {
	Data   json.RawMessage `json:"data"`
	Error  string          `json:"error"`
	Errors []struct {
		Field string `json:"field"`
		Code  string `json:"code"`
	} `json:"errors"`
}

func doJSON(t *testing.T, method, url, token string, body any) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	if resp.ContentLength != 0 && resp.Header.Get("Content-Type") == "application/json" {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	}
	return resp.StatusCode, env
}

func createPresentation(t *testing.T, srv *httptest.Server) presentation.CreatePresentationResponse {
	t.Helper()
	status, env := doJSON(t, http.MethodPost, srv.URL+"/api/v1/presentations", "", map[string]any{
		"owner":      "ana",
		"file_name":  "talk.pdf",
		"page_count": 3,
	})
	require.Equal(t, http.StatusCreated, status, env.Error)

	var created presentation.CreatePresentationResponse
	require.NoError(t, json.Unmarshal(env.Data, &created))
	return created
}

func wsURL(srv *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + path
}

func readUntil(t *testing.T, conn *websocket.Conn, messageType string) json.RawMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var msg struct {
			Type    string          `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == messageType {
			return msg.Payload
		}
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreatePresentationValidation(t *testing.T) {
	srv := newTestServer(t)

	status, env := doJSON(t, http.MethodPost, srv.URL+"/api/v1/presentations", "", map[string]any{
		"owner":      "",
		"file_name":  "talk.pdf",
		"page_count": 0,
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Len(t, env.Errors, 2)

	status, _ = doJSON(t, http.MethodPost, srv.URL+"/api/v1/presentations", "", map[string]any{"unknown": true})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
}

func TestConfigAndBlob(t *testing.T) {
	srv := newTestServer(t)
	created := createPresentation(t, srv)
	base := srv.URL + "/api/v1/presentations/" + created.ID

	status, env := doJSON(t, http.MethodGet, base+"/config", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"slides":[
		{"page":1,"command":"Slide 1","duration":20},
		{"page":2,"command":"Slide 2","duration":20},
		{"page":3,"command":"Slide 3","duration":20}]}`, string(env.Data))

	slides := map[string]any{"slides": []map[string]any{
		{"page": 1, "command": "Intro", "duration": 10},
		{"page": 3, "command": "Financials", "duration": 30},
	}}
	status, _ = doJSON(t, http.MethodPut, base+"/config", "", slides)
	assert.Equal(t, http.StatusForbidden, status)

	status, env = doJSON(t, http.MethodPut, base+"/config", created.PresenterToken, map[string]any{"slides": []map[string]any{{"page": 0, "command": ""}}})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.NotEmpty(t, env.Errors)

	status, _ = doJSON(t, http.MethodPut, base+"/config", created.PresenterToken, slides)
	assert.Equal(t, http.StatusOK, status)

	status, _ = doJSON(t, http.MethodGet, base+"/blob", "", nil)
	assert.Equal(t, http.StatusNotFound, status)

	req, err := http.NewRequest(http.MethodPut, base+"/blob", strings.NewReader("%PDF-1.7 test"))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+created.PresenterToken)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = http.Get(base + "/blob")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))

	status, _ = doJSON(t, http.MethodGet, srv.URL+"/api/v1/presentations/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestPresenterAndAudience(t *testing.T) {
	srv := newTestServer(t)
	created := createPresentation(t, srv)
	base := "/api/v1/ws/presentations/" + created.ID

	denied, _, err := websocket.DefaultDialer.Dial(wsURL(srv, base+"/presenter?token=wrong"), nil)
	require.NoError(t, err)
	readUntil(t, denied, "ERROR")
	_, _, err = denied.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation))
	denied.Close()

	presenter, _, err := websocket.DefaultDialer.Dial(wsURL(srv, base+"/presenter?token="+created.PresenterToken), nil)
	require.NoError(t, err)
	defer presenter.Close()

	var state presentation.PlaybackState
	require.NoError(t, json.Unmarshal(readUntil(t, presenter, "PLAYBACK_STATE"), &state))
	assert.Equal(t, 0, state.CurrentIndex)
	assert.Equal(t, "Next: Slide 2", state.Upcoming)

	second, _, err := websocket.DefaultDialer.Dial(wsURL(srv, base+"/presenter?token="+created.PresenterToken), nil)
	require.NoError(t, err)
	var rejected struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(readUntil(t, second, "ERROR"), &rejected))
	assert.Equal(t, presentation.ErrPresenterActive.Error(), rejected.Error)
	second.Close()

	audience, _, err := websocket.DefaultDialer.Dial(wsURL(srv, base+"/audience"), nil)
	require.NoError(t, err)
	defer audience.Close()

	var view presentation.SlideView
	require.NoError(t, json.Unmarshal(readUntil(t, audience, "CHANGE_SLIDE"), &view))
	assert.Equal(t, presentation.SlideView{Index: 0, Page: 1}, view)

	require.NoError(t, presenter.WriteJSON(map[string]any{"type": "START"}))
	readUntil(t, presenter, "MIC_START")

	require.NoError(t, presenter.WriteJSON(map[string]any{"type": "TRANSCRIPT", "payload": map[string]string{"text": "next slide"}}))
	var entry presentation.LogEntry
	require.NoError(t, json.Unmarshal(readUntil(t, presenter, "COMMAND_LOG"), &entry))
	for entry.Text != ">> CMD: Next Slide" {
		require.NoError(t, json.Unmarshal(readUntil(t, presenter, "COMMAND_LOG"), &entry))
	}

	require.NoError(t, json.Unmarshal(readUntil(t, audience, "CHANGE_SLIDE"), &view))
	assert.Equal(t, presentation.SlideView{Index: 1, Page: 2}, view)

	status, env := doJSON(t, http.MethodPost, srv.URL+"/api/v1/presentations/"+created.ID+"/commands", created.PresenterToken, map[string]any{"action": "goto", "payload": "slide 3"})
	require.Equal(t, http.StatusAccepted, status, env.Error)

	require.NoError(t, json.Unmarshal(readUntil(t, audience, "CHANGE_SLIDE"), &view))
	assert.Equal(t, presentation.SlideView{Index: 2, Page: 3}, view)

	status, env = doJSON(t, http.MethodGet, srv.URL+"/api/v1/presentations/"+created.ID+"/index", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"current_index":2}`, string(env.Data))

	require.NoError(t, presenter.WriteJSON(map[string]any{"type": "BOGUS"}))
	readUntil(t, presenter, "ERROR")
}
