package questions

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"wagerquiz/internal/game"
)

// DefaultNumbersAPIURL returns one random trivia fact as JSON.
const DefaultNumbersAPIURL = "http://numbersapi.com/random/trivia?json"

const maxPayloadSize = 64 * 1024

// NumbersAPI turns numbersapi.com trivia facts into questions.
type NumbersAPI struct {
	url    string
	client *http.Client
}

func NewNumbersAPI(url string, client *http.Client) *NumbersAPI {
	if client == nil {
		client = http.DefaultClient
	}
	return &NumbersAPI{url: url, client: client}
}

// Fetch makes one request. Any response that does not carry a usable fact is
// an error; retrying is up to the caller.
func (n *NumbersAPI) Fetch(ctx context.Context) (game.Question, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.url, nil)
	if err != nil {
		return game.Question{}, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := n.client.Do(req)
	if err != nil {
		return game.Question{}, fmt.Errorf("failed to contact numbers api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return game.Question{}, fmt.Errorf("received non-success status code: %s", resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadSize))
	if err != nil {
		return game.Question{}, fmt.Errorf("failed to read response body: %w", err)
	}
	return parseTrivia(body)
}

func parseTrivia(body []byte) (game.Question, error) {
	if !gjson.ValidBytes(body) {
		return game.Question{}, errors.New("response is not valid json")
	}
	fact := gjson.ParseBytes(body)
	if found := fact.Get("found"); found.Exists() && !found.Bool() {
		return game.Question{}, errors.New("no fact found")
	}
	text, number := fact.Get("text"), fact.Get("number")
	if text.Type != gjson.String || text.String() == "" {
		return game.Question{}, errors.New("response has no text")
	}
	if number.Type != gjson.Number || number.Num < 0 || number.Num > math.MaxUint32 || number.Num != math.Trunc(number.Num) {
		return game.Question{}, fmt.Errorf("number %q cannot be an answer", number.Raw)
	}
	return FromTrivia(text.String(), uint32(number.Num)), nil
}

var trailingPunctuation = ".!?;:, \t\r\n"

// FromTrivia turns a fact about number into a question: every standalone
// occurrence of the number becomes "What" and the sentence ends in "?".
func FromTrivia(text string, number uint32) game.Question {
	digits := regexp.MustCompile(`\b` + strconv.FormatUint(uint64(number), 10) + `\b`)
	q := digits.ReplaceAllLiteralString(text, "What")
	q = strings.TrimRight(q, trailingPunctuation)
	return game.Question{Text: q + "?", Answer: number}
}
