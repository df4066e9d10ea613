// Package gameapi exposes the game session operations over HTTP/JSON.
package gameapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"wagerquiz/internal/game"
	"wagerquiz/internal/network"
	"wagerquiz/internal/services/cluster"
	"wagerquiz/internal/services/questions"
	"wagerquiz/internal/session"
)

// Prefix is the path every route lives under.
const Prefix = "/api/v1"

const maxBodySize = 16 * 1024

// Streamer attaches a websocket subscriber to a game. attach runs once the
// subscriber receives broadcasts and queues its first message.
type Streamer interface {
	Serve(w http.ResponseWriter, r *http.Request, gameID string, attach network.AttachFunc) error
}

// ============================================================================
// DTOs
// ============================================================================

type CreateGameRequest struct {
	Player         string `json:"player"`
	QuestionSource string `json:"questionSource,omitempty"`
}

type CreateGameResponse struct {
	GameID string `json:"gameId"`
}

type PlayerRequest struct {
	Player string `json:"player"`
}

type GuessRequest struct {
	Player string  `json:"player"`
	Guess  *uint32 `json:"guess"`
}

// WagerRequest carries the guess being backed; null backs "below every
// guess". The key itself is required.
type WagerRequest struct {
	Player string          `json:"player"`
	Guess  json.RawMessage `json:"guess"`
	Wager  int64           `json:"wager"`
}

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Code    string `json:"error"`
	Message string `json:"message"`
}

// CodeBadPayload and CodeInternal complete the game error codes on the wire.
const (
	CodeBadPayload = "BadPayload"
	CodeInternal   = "Internal"
)

// ============================================================================
// Handler setup
// ============================================================================

type api struct {
	svc    *session.Service
	stream Streamer
}

// RegisterHandlers mounts every game route on mux.
func RegisterHandlers(mux *http.ServeMux, svc *session.Service, stream Streamer) {
	a := &api{svc: svc, stream: stream}

	mux.HandleFunc("GET "+Prefix+"/heartbeat", cluster.NewBasicHealthHandler())

	mux.HandleFunc("POST "+Prefix+"/game", a.handleCreateGenerated)
	mux.HandleFunc("PUT "+Prefix+"/game/{id}", a.handleCreate)
	mux.HandleFunc("POST "+Prefix+"/game/{id}", a.handleJoin)
	mux.HandleFunc("GET "+Prefix+"/game/{id}", a.handleGet)
	mux.HandleFunc("DELETE "+Prefix+"/game/{id}", a.handleDelete)
	mux.HandleFunc("DELETE "+Prefix+"/game/{id}/exit", a.handleExit)
	mux.HandleFunc("POST "+Prefix+"/game/{id}/guess", a.handleGuess)
	mux.HandleFunc("POST "+Prefix+"/game/{id}/wager", a.handleWager)
	mux.HandleFunc("GET "+Prefix+"/game/{id}/score", a.handleScore)
	mux.HandleFunc("GET "+Prefix+"/game/{id}/score/previous", a.handlePreviousScore)
	mux.HandleFunc("GET "+Prefix+"/game/{id}/ws", a.handleStream)
}

// ============================================================================
// Handlers
// ============================================================================

func (a *api) handleCreateGenerated(w http.ResponseWriter, r *http.Request) {
	var req CreateGameRequest
	if !decode(w, r, &req) {
		return
	}
	policy, ok := parsePolicy(w, req)
	if !ok {
		return
	}
	id, err := a.svc.CreateGameWithGeneratedID(r.Context(), req.Player, policy)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, CreateGameResponse{GameID: id})
}

func (a *api) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateGameRequest
	if !decode(w, r, &req) {
		return
	}
	policy, ok := parsePolicy(w, req)
	if !ok {
		return
	}
	id := r.PathValue("id")
	if err := a.svc.CreateGame(r.Context(), id, req.Player, policy); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, CreateGameResponse{GameID: id})
}

func (a *api) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req PlayerRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Player == "" {
		badPayload(w, "player is required")
		return
	}
	respond(w, a.svc.JoinGame(r.Context(), r.PathValue("id"), req.Player))
}

func (a *api) handleGet(w http.ResponseWriter, r *http.Request) {
	snap, err := a.svc.GetGame(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (a *api) handleDelete(w http.ResponseWriter, r *http.Request) {
	a.svc.DeleteGame(r.Context(), r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handleExit(w http.ResponseWriter, r *http.Request) {
	var req PlayerRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Player == "" {
		badPayload(w, "player is required")
		return
	}
	respond(w, a.svc.ExitGame(r.Context(), r.PathValue("id"), req.Player))
}

func (a *api) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req GuessRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Player == "" || req.Guess == nil {
		badPayload(w, "player and guess are required")
		return
	}
	guess := game.Guess{Player: req.Player, Value: *req.Guess}
	respond(w, a.svc.SubmitGuess(r.Context(), r.PathValue("id"), guess))
}

func (a *api) handleWager(w http.ResponseWriter, r *http.Request) {
	var req WagerRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Player == "" {
		badPayload(w, "player is required")
		return
	}
	if len(req.Guess) == 0 {
		badPayload(w, "guess is required (a number or null)")
		return
	}
	var target game.Target
	if err := json.Unmarshal(req.Guess, &target); err != nil {
		badPayload(w, "invalid guess: "+err.Error())
		return
	}
	wager := game.Wager{Player: req.Player, Target: target, Amount: req.Wager}
	respond(w, a.svc.SubmitWager(r.Context(), r.PathValue("id"), wager))
}

func (a *api) handleScore(w http.ResponseWriter, r *http.Request) {
	scores, err := a.svc.GetScore(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scores)
}

func (a *api) handlePreviousScore(w http.ResponseWriter, r *http.Request) {
	scores, err := a.svc.GetPreviousRoundScore(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scores)
}

func (a *api) handleStream(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	// Unknown games are refused before the upgrade.
	if _, err := a.svc.GetGame(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	attach := func(deliver func(network.Message)) error {
		return a.svc.Subscribe(r.Context(), id, deliver)
	}
	if err := a.stream.Serve(w, r, id, attach); err != nil {
		log.Printf("[GameAPI] Could not subscribe to game %s: %v", id, err)
	}
}

// ============================================================================
// Helpers
// ============================================================================

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(dst); err != nil {
		badPayload(w, "invalid JSON payload: "+err.Error())
		return false
	}
	return true
}

func parsePolicy(w http.ResponseWriter, req CreateGameRequest) (questions.Policy, bool) {
	if req.Player == "" {
		badPayload(w, "player is required")
		return "", false
	}
	if req.QuestionSource == "" {
		return "", true
	}
	policy, err := questions.ParsePolicy(req.QuestionSource)
	if err != nil {
		badPayload(w, err.Error())
		return "", false
	}
	return policy, true
}

func respond(w http.ResponseWriter, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func badPayload(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Code: CodeBadPayload, Message: msg})
}

// writeError answers game errors with 400 and their kind; anything else is
// logged and reported as 500.
func writeError(w http.ResponseWriter, err error) {
	var gameErr *game.Error
	if errors.As(err, &gameErr) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Code: gameErr.Code, Message: gameErr.Message})
		return
	}
	log.Printf("[GameAPI] ERROR: %v", err)
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Code: CodeInternal, Message: "internal error"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[GameAPI] Failed to write response: %v", err)
	}
}
