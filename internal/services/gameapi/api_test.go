package gameapi

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wagerquiz/internal/game"
	"wagerquiz/internal/network"
	"wagerquiz/internal/services/questions"
	"wagerquiz/internal/session"
)

var testQuestions = []game.Question{
	{Text: "How many strings does a violin have?", Answer: 4},
	{Text: "How many keys does a piano have?", Answer: 88},
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv, _ := newServerWithHub(t)
	return srv
}

func newServerWithHub(t *testing.T) (*httptest.Server, *network.Hub) {
	t.Helper()
	hub := network.NewHub()
	go hub.Run()

	source := questions.NewLookup(questions.NewRotation(testQuestions, nil))
	svc := session.NewService(session.NewRegistry(), source, session.WithBroadcaster(hub))

	mux := http.NewServeMux()
	RegisterHandlers(mux, svc, hub)
	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		srv.Close()
		hub.Stop()
	})
	return srv, hub
}

func call(t *testing.T, srv *httptest.Server, method, path, body string) (int, string) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, srv.URL+Prefix+path, reader)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(data)
}

func TestHeartbeat(t *testing.T) {
	srv := newServer(t)
	status, body := call(t, srv, http.MethodGet, "/heartbeat", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "heartbeat", body)
}

func TestPlayThroughHTTP(t *testing.T) {
	srv := newServer(t)

	status, body := call(t, srv, http.MethodPut, "/game/quiz", `{"player":"alice"}`)
	require.Equal(t, http.StatusCreated, status, body)
	assert.JSONEq(t, `{"gameId":"quiz"}`, body)

	status, _ = call(t, srv, http.MethodPost, "/game/quiz", `{"player":"bob"}`)
	require.Equal(t, http.StatusNoContent, status)

	status, _ = call(t, srv, http.MethodPost, "/game/quiz/guess", `{"player":"alice","guess":3}`)
	require.Equal(t, http.StatusNoContent, status)
	status, _ = call(t, srv, http.MethodPost, "/game/quiz/guess", `{"player":"bob","guess":5}`)
	require.Equal(t, http.StatusNoContent, status)

	status, _ = call(t, srv, http.MethodPost, "/game/quiz/wager", `{"player":"alice","guess":3,"wager":1}`)
	require.Equal(t, http.StatusNoContent, status)
	status, _ = call(t, srv, http.MethodPost, "/game/quiz/wager", `{"player":"bob","guess":null,"wager":1}`)
	require.Equal(t, http.StatusNoContent, status)

	// Answer 4: alice backed the closest guess and made it.
	status, body = call(t, srv, http.MethodGet, "/game/quiz/score", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"alice":7,"bob":1}`, body)

	status, body = call(t, srv, http.MethodGet, "/game/quiz/score/previous", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"alice":6,"bob":0}`, body)

	status, body = call(t, srv, http.MethodGet, "/game/quiz", "")
	require.Equal(t, http.StatusOK, status)
	var snap game.Snapshot
	require.NoError(t, json.Unmarshal([]byte(body), &snap))
	require.Len(t, snap.Rounds, 2)
	require.NotNil(t, snap.Rounds[0].Result)
	assert.Equal(t, uint32(4), snap.Rounds[0].Result.Answer)
	assert.Equal(t, game.On(3), snap.Rounds[0].Result.ClosestGuess)
	assert.Nil(t, snap.Rounds[1].Result)
	assert.Equal(t, game.StateStart, snap.State)

	status, _ = call(t, srv, http.MethodDelete, "/game/quiz/exit", `{"player":"bob"}`)
	require.Equal(t, http.StatusNoContent, status)

	status, _ = call(t, srv, http.MethodDelete, "/game/quiz", "")
	require.Equal(t, http.StatusNoContent, status)
	status, _ = call(t, srv, http.MethodDelete, "/game/quiz", "")
	require.Equal(t, http.StatusNoContent, status)
}

func TestCreateWithGeneratedID(t *testing.T) {
	srv := newServer(t)

	status, body := call(t, srv, http.MethodPost, "/game", `{"player":"alice","questionSource":"file"}`)
	require.Equal(t, http.StatusCreated, status, body)
	var resp CreateGameResponse
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	assert.NotEmpty(t, resp.GameID)

	status, _ = call(t, srv, http.MethodGet, "/game/"+resp.GameID, "")
	assert.Equal(t, http.StatusOK, status)
}

func TestErrorResponses(t *testing.T) {
	srv := newServer(t)
	status, _ := call(t, srv, http.MethodPut, "/game/quiz", `{"player":"alice"}`)
	require.Equal(t, http.StatusCreated, status)

	tests := []struct {
		name         string
		method, path string
		body         string
		code         string
	}{
		{"duplicate game", http.MethodPut, "/game/quiz", `{"player":"bob"}`, "GameConflict"},
		{"unknown game", http.MethodGet, "/game/other", "", "GameNotFound"},
		{"duplicate player", http.MethodPost, "/game/quiz", `{"player":"alice"}`, "PlayerConflict"},
		{"guess from stranger", http.MethodPost, "/game/quiz/guess", `{"player":"zed","guess":1}`, "PlayerNotFound"},
		{"wager too early", http.MethodPost, "/game/quiz/wager", `{"player":"alice","guess":null,"wager":0}`, "RoundNotInCollectingWagersState"},
		{"malformed json", http.MethodPost, "/game/quiz", `{"player":`, CodeBadPayload},
		{"empty player", http.MethodPost, "/game/quiz", `{"player":""}`, CodeBadPayload},
		{"negative guess", http.MethodPost, "/game/quiz/guess", `{"player":"alice","guess":-1}`, CodeBadPayload},
		{"missing guess", http.MethodPost, "/game/quiz/guess", `{"player":"alice"}`, CodeBadPayload},
		{"missing wager guess", http.MethodPost, "/game/quiz/wager", `{"player":"alice","wager":0}`, CodeBadPayload},
		{"text wager guess", http.MethodPost, "/game/quiz/wager", `{"player":"alice","guess":"3","wager":0}`, CodeBadPayload},
		{"unknown question source", http.MethodPut, "/game/new", `{"player":"bob","questionSource":"oracle"}`, CodeBadPayload},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := call(t, srv, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, status)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal([]byte(body), &resp))
			assert.Equal(t, tt.code, resp.Code)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestStreamGameState(t *testing.T) {
	srv, hub := newServerWithHub(t)
	status, _ := call(t, srv, http.MethodPut, "/game/quiz", `{"player":"alice"}`)
	require.Equal(t, http.StatusCreated, status)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + Prefix + "/game/quiz/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() session.StatePayload {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg network.Message
		require.NoError(t, conn.ReadJSON(&msg))
		require.Equal(t, network.MsgGameState, msg.Type)
		var state session.StatePayload
		require.NoError(t, json.Unmarshal(msg.Payload, &state))
		return state
	}

	initial := read()
	assert.Equal(t, "quiz", initial.GameID)
	assert.Equal(t, []string{"alice"}, initial.Players)

	require.Eventually(t, func() bool { return hub.Subscribers("quiz") == 1 }, 2*time.Second, 10*time.Millisecond)

	status, _ = call(t, srv, http.MethodPost, "/game/quiz", `{"player":"bob"}`)
	require.Equal(t, http.StatusNoContent, status)
	update := read()
	assert.Equal(t, []string{"alice", "bob"}, update.Players)

	// Deleting the game ends the stream.
	status, _ = call(t, srv, http.MethodDelete, "/game/quiz", "")
	require.Equal(t, http.StatusNoContent, status)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var bye network.Message
	require.NoError(t, conn.ReadJSON(&bye))
	assert.Equal(t, network.MsgGameDeleted, bye.Type)
}

func TestStreamUnknownGame(t *testing.T) {
	srv := newServer(t)
	status, body := call(t, srv, http.MethodGet, "/game/nope/ws", "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body, "GameNotFound")
}

// deletingStreamer deletes the game after the existence check and before the
// subscriber is attached.
type deletingStreamer struct {
	hub *network.Hub
	svc *session.Service
}

func (d deletingStreamer) Serve(w http.ResponseWriter, r *http.Request, gameID string, attach network.AttachFunc) error {
	d.svc.DeleteGame(r.Context(), gameID)
	return d.hub.Serve(w, r, gameID, attach)
}

func TestStreamGameDeletedWhileAttaching(t *testing.T) {
	hub := network.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	source := questions.NewLookup(questions.NewRotation(testQuestions, nil))
	svc := session.NewService(session.NewRegistry(), source, session.WithBroadcaster(hub))
	mux := http.NewServeMux()
	RegisterHandlers(mux, svc, deletingStreamer{hub: hub, svc: svc})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	status, _ := call(t, srv, http.MethodPut, "/game/quiz", `{"player":"alice"}`)
	require.Equal(t, http.StatusCreated, status)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + Prefix + "/game/quiz/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// The stream closes without ever sending a state.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
	assert.Eventually(t, func() bool { return hub.Subscribers("quiz") == 0 }, 2*time.Second, 10*time.Millisecond)
}
