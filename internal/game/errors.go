package game

// Error is one of the closed set of caller-facing failures of a game operation.
// Every kind is a bad-request class error: the caller can retry with corrected
// input or after the round has moved on.
type Error struct {
	Code    string `json:"error"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

var (
	ErrGameConflict                     = &Error{Code: "GameConflict", Message: "game conflict"}
	ErrGameNotFound                     = &Error{Code: "GameNotFound", Message: "game not found"}
	ErrPlayerConflict                   = &Error{Code: "PlayerConflict", Message: "player conflict"}
	ErrPlayerNotFound                   = &Error{Code: "PlayerNotFound", Message: "player not found"}
	ErrRoundNotInStartState             = &Error{Code: "RoundNotInStartState", Message: "round not in start state"}
	ErrRoundNotInCollectingGuessesState = &Error{Code: "RoundNotInCollectingGuessesState", Message: "round not in collecting guesses state"}
	ErrRoundNotInCollectingWagersState  = &Error{Code: "RoundNotInCollectingWagersState", Message: "round not in collecting wagers state"}
	ErrGuessNotFound                    = &Error{Code: "GuessNotFound", Message: "guess not found"}
	ErrInvalidWager                     = &Error{Code: "InvalidWager", Message: "invalid wager"}
)

// Errors lists every error kind, in declaration order.
var Errors = []*Error{
	ErrGameConflict,
	ErrGameNotFound,
	ErrPlayerConflict,
	ErrPlayerNotFound,
	ErrRoundNotInStartState,
	ErrRoundNotInCollectingGuessesState,
	ErrRoundNotInCollectingWagersState,
	ErrGuessNotFound,
	ErrInvalidWager,
}

// ErrorByCode returns the error kind with the given code.
func ErrorByCode(code string) (*Error, bool) {
	for _, e := range Errors {
		if e.Code == code {
			return e, true
		}
	}
	return nil, false
}
