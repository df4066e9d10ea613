// Package client talks to a wagerquiz server over its HTTP and websocket API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"wagerquiz/internal/game"
	"wagerquiz/internal/network"
	"wagerquiz/internal/services/gameapi"
	"wagerquiz/internal/services/questions"
	"wagerquiz/internal/session"
)

// APIError is a non-2xx answer of the server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%d %s)", e.Message, e.Status, e.Code)
}

// Is matches the game error of the same kind, so callers can test with
// errors.Is(err, game.ErrPlayerConflict).
func (e *APIError) Is(target error) bool {
	kind, ok := target.(*game.Error)
	return ok && kind.Code == e.Code
}

type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the server at baseURL, e.g. "http://localhost:8172".
// A nil httpClient selects one with a 10 second timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// ============================================================================
// Games
// ============================================================================

// CreateGame starts a game under a server generated id and returns the id.
func (c *Client) CreateGame(ctx context.Context, player string, source questions.Policy) (string, error) {
	var resp gameapi.CreateGameResponse
	req := gameapi.CreateGameRequest{Player: player, QuestionSource: string(source)}
	if err := c.do(ctx, http.MethodPost, "/game", req, &resp); err != nil {
		return "", err
	}
	return resp.GameID, nil
}

// CreateGameWithID starts a game under the caller's id.
func (c *Client) CreateGameWithID(ctx context.Context, id, player string, source questions.Policy) error {
	req := gameapi.CreateGameRequest{Player: player, QuestionSource: string(source)}
	return c.do(ctx, http.MethodPut, gamePath(id, ""), req, nil)
}

func (c *Client) JoinGame(ctx context.Context, id, player string) error {
	return c.do(ctx, http.MethodPost, gamePath(id, ""), gameapi.PlayerRequest{Player: player}, nil)
}

func (c *Client) ExitGame(ctx context.Context, id, player string) error {
	return c.do(ctx, http.MethodDelete, gamePath(id, "/exit"), gameapi.PlayerRequest{Player: player}, nil)
}

func (c *Client) DeleteGame(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, gamePath(id, ""), nil, nil)
}

func (c *Client) GetGame(ctx context.Context, id string) (game.Snapshot, error) {
	var snap game.Snapshot
	err := c.do(ctx, http.MethodGet, gamePath(id, ""), nil, &snap)
	return snap, err
}

// ============================================================================
// Rounds
// ============================================================================

func (c *Client) SubmitGuess(ctx context.Context, id, player string, value uint32) error {
	req := gameapi.GuessRequest{Player: player, Guess: &value}
	return c.do(ctx, http.MethodPost, gamePath(id, "/guess"), req, nil)
}

func (c *Client) SubmitWager(ctx context.Context, id, player string, target game.Target, amount int64) error {
	guess, err := json.Marshal(target)
	if err != nil {
		return err
	}
	req := gameapi.WagerRequest{Player: player, Guess: guess, Wager: amount}
	return c.do(ctx, http.MethodPost, gamePath(id, "/wager"), req, nil)
}

func (c *Client) Score(ctx context.Context, id string) (map[string]int64, error) {
	var scores map[string]int64
	err := c.do(ctx, http.MethodGet, gamePath(id, "/score"), nil, &scores)
	return scores, err
}

func (c *Client) PreviousRoundScore(ctx context.Context, id string) (map[string]int64, error) {
	var scores map[string]int64
	err := c.do(ctx, http.MethodGet, gamePath(id, "/score/previous"), nil, &scores)
	return scores, err
}

// ============================================================================
// Live updates
// ============================================================================

// Watch streams the game's state to fn, starting with its current state,
// until the game is deleted, ctx ends or fn returns false.
func (c *Client) Watch(ctx context.Context, id string, fn func(session.StatePayload) bool) error {
	u, err := url.Parse(c.baseURL + gameapi.Prefix + gamePath(id, "/ws"))
	if err != nil {
		return err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", u, err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		var msg network.Message
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return err
		}
		switch msg.Type {
		case network.MsgGameDeleted:
			return nil
		case network.MsgGameState:
			var state session.StatePayload
			if err := json.Unmarshal(msg.Payload, &state); err != nil {
				return fmt.Errorf("decode game state: %w", err)
			}
			if !fn(state) {
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return nil
			}
		}
	}
}

// ============================================================================
// Helpers
// ============================================================================

func gamePath(id, suffix string) string {
	return "/game/" + url.PathEscape(id) + suffix
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+gameapi.Prefix+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Code: gameapi.CodeInternal, Message: resp.Status}
		var e gameapi.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&e); err == nil && e.Code != "" {
			apiErr.Code, apiErr.Message = e.Code, e.Message
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}
