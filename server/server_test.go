package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentlab"
	"github.com/hupe1980/agentlab/agent"
	"github.com/hupe1980/agentlab/core"
	"github.com/hupe1980/agentlab/internal/testutil"
	"github.com/hupe1980/agentlab/metrics"
	"github.com/hupe1980/agentlab/model"
	"github.com/hupe1980/agentlab/orchestrator"
	"github.com/hupe1980/agentlab/session"
)

// trackingStore remembers the last session id written to.
type trackingStore struct {
	*session.InMemoryStore
	mu   sync.Mutex
	last string
}

func (s *trackingStore) Append(sessionID string, m core.Message) error {
	s.mu.Lock()
	s.last = sessionID
	s.mu.Unlock()
	return s.InMemoryStore.Append(sessionID, m)
}

func (s *trackingStore) lastSession() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func newTestLab(t *testing.T, providers ...core.Provider) *agentlab.Lab {
	t.Helper()
	lab, err := agentlab.New(providers, func(o *agentlab.Options) { o.Pacing = 0 })
	require.NoError(t, err)
	return lab
}

func defaultProviders() []core.Provider {
	return []core.Provider{
		testutil.NewScriptedAgent("A", "alpha"),
		testutil.NewScriptedAgent("B", "").Failing("offline"),
		agent.NewVisualAgent("Painter", &model.MockImageModel{Data: []byte("png")}),
	}
}

func postJSON(t *testing.T, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func wsURL(ts *httptest.Server) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/agents"
}

func readLine(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	msgType, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, msgType)
	return string(data)
}

func TestServer_Root(t *testing.T) {
	ts := httptest.NewServer(New(newTestLab(t, defaultProviders()...)))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, RootMessage, out["message"])
}

func TestServer_AgentEndpoint(t *testing.T) {
	ts := httptest.NewServer(New(newTestLab(t, defaultProviders()...)))
	defer ts.Close()

	t.Run("success", func(t *testing.T) {
		resp, out := postJSON(t, ts.URL+"/agent/a", map[string]string{"text": "hi"})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "A", out["agent"])
		assert.Equal(t, "alpha", out["response"])
		assert.Equal(t, "success", out["status"])
		assert.Equal(t, "logical_analytical", out["personality"])
		assert.Equal(t, "text", out["type"])
	})

	t.Run("failure is in-band", func(t *testing.T) {
		resp, out := postJSON(t, ts.URL+"/agent/B", map[string]string{"text": "hi"})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "error", out["status"])
		assert.Equal(t, "offline", out["response"])
		assert.Equal(t, "transport", out["error_kind"])
	})

	t.Run("empty text", func(t *testing.T) {
		resp, out := postJSON(t, ts.URL+"/agent/A", map[string]string{"text": "  "})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "No text provided.", out["error"])
	})

	t.Run("unknown agent", func(t *testing.T) {
		resp, _ := postJSON(t, ts.URL+"/agent/nobody", map[string]string{"text": "hi"})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestServer_GenerateImage(t *testing.T) {
	ts := httptest.NewServer(New(newTestLab(t, defaultProviders()...)))
	defer ts.Close()

	resp, out := postJSON(t, ts.URL+"/generate-image", map[string]string{"prompt": "a cat"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Painter", out["agent"])
	assert.Equal(t, "image", out["type"])
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("png")), out["image_data"])

	resp, out = postJSON(t, ts.URL+"/generate-image", map[string]string{"prompt": ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "No prompt provided.", out["error"])

	noImages := httptest.NewServer(New(newTestLab(t, testutil.NewScriptedAgent("A", "x"))))
	defer noImages.Close()
	resp, _ = postJSON(t, noImages.URL+"/generate-image", map[string]string{"prompt": "a cat"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_Status(t *testing.T) {
	providers := append(defaultProviders(), agent.NewUnavailable(
		core.Identity{ID: "Offline", Personality: core.PersonalityPrivacyFocused},
		errors.New("no key"),
	))
	ts := httptest.NewServer(New(newTestLab(t, providers...)))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/agents/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	var out StatusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.Agents, 4)
	assert.Equal(t, AgentStatus{Name: "A", Personality: "logical_analytical", Status: "ready"}, out.Agents[0])
	assert.Equal(t, AgentStatus{Name: "Offline", Personality: "privacy_focused", Status: "unavailable"}, out.Agents[3])
	assert.Zero(t, out.ActiveConnections)
}

func TestServer_Websocket(t *testing.T) {
	lab := newTestLab(t, defaultProviders()...)
	srv := New(lab)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("hello")))
	assert.Equal(t, "A 🧠: alpha", readLine(t, conn))
	assert.Equal(t, "System: Agent error (B): offline", readLine(t, conn))
	assert.True(t, strings.HasPrefix(readLine(t, conn), "Painter 🖼️: "))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("   ")))
	assert.Equal(t, orchestrator.InvalidInputLine, readLine(t, conn))

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte{0x1}))
	assert.Equal(t, orchestrator.InvalidInputLine, readLine(t, conn))

	assert.Equal(t, int64(1), srv.ActiveConnections())

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return srv.ActiveConnections() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestServer_WebsocketRejectsMalformedText(t *testing.T) {
	a := testutil.NewScriptedAgent("A", "alpha")
	lab := newTestLab(t, a)
	ts := httptest.NewServer(New(lab))
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte{0xff, 0xfe}))
	assert.Equal(t, orchestrator.InvalidInputLine, readLine(t, conn))
	assert.Equal(t, 0, a.Calls())
	assert.Equal(t, 0, lab.Store().Len())
}

func TestServer_WebsocketDisconnectDuringPacing(t *testing.T) {
	store := &trackingStore{InMemoryStore: session.NewInMemoryStore()}
	lab, err := agentlab.New([]core.Provider{
		testutil.NewScriptedAgent("A", "alpha"),
		testutil.NewScriptedAgent("B", "beta"),
		testutil.NewScriptedAgent("C", "gamma"),
	}, func(o *agentlab.Options) {
		o.Pacing = 2 * time.Second
		o.SessionStore = store
	})
	require.NoError(t, err)

	srv := New(lab)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("hi")))
	assert.Equal(t, "A 🧠: alpha", readLine(t, conn))

	closed := time.Now()
	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return srv.ActiveConnections() == 0 }, time.Second, 5*time.Millisecond)
	assert.Less(t, time.Since(closed), time.Second)

	history := store.History(store.lastSession())
	require.Len(t, history, 2)
	assert.Equal(t, core.UserSender, history[0].Sender)
	assert.Equal(t, "A", history[1].Sender)
}

func TestServer_WebsocketSessionsAreIsolated(t *testing.T) {
	lab := newTestLab(t, testutil.NewScriptedAgent("A", "alpha"))
	ts := httptest.NewServer(New(lab))
	defer ts.Close()

	for i := 0; i < 2; i++ {
		conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
		require.NoError(t, err)
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("hi")))
		assert.Equal(t, "A 🧠: alpha", readLine(t, conn))
		require.NoError(t, conn.Close())
	}

	assert.Eventually(t, func() bool { return lab.Store().Len() == 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestServer_WebsocketDiscardSessions(t *testing.T) {
	lab := newTestLab(t, testutil.NewScriptedAgent("A", "alpha"))
	srv := New(lab, func(o *Options) { o.DiscardSessions = true })
	ts := httptest.NewServer(srv)
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("hi")))
	assert.Equal(t, "A 🧠: alpha", readLine(t, conn))
	require.Equal(t, 1, lab.Store().Len())
	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool {
		return srv.ActiveConnections() == 0 && lab.Store().Len() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestServer_WebsocketRejectsOrigin(t *testing.T) {
	srv := New(newTestLab(t, defaultProviders()...), func(o *Options) {
		o.AllowedOrigins = []string{"https://lab.example.com"}
	})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	header := http.Header{"Origin": []string{"https://evil.example.com"}}
	_, resp, err := websocket.DefaultDialer.Dial(wsURL(ts), header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	header = http.Header{"Origin": []string{"https://lab.example.com"}}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts), header)
	require.NoError(t, err)
	_ = conn.Close()
}

func TestServer_CORS(t *testing.T) {
	srv := New(newTestLab(t, defaultProviders()...), func(o *Options) {
		o.AllowedOrigins = []string{"lab.example.com"}
	})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/agent/A", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://lab.example.com")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "https://lab.example.com", resp.Header.Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "https://other.example.com")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestServer_Metrics(t *testing.T) {
	rec, err := metrics.NewPrometheus()
	require.NoError(t, err)

	lab, err := agentlab.New([]core.Provider{testutil.NewScriptedAgent("A", "alpha")}, func(o *agentlab.Options) {
		o.Pacing = 0
		o.Metrics = rec
	})
	require.NoError(t, err)

	ts := httptest.NewServer(New(lab, func(o *Options) { o.MetricsHandler = rec.Handler() }))
	defer ts.Close()

	_, err = lab.HandleSync(t.Context(), "s", "hi")
	require.NoError(t, err)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "agentlab_messages")
}
