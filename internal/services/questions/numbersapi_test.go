package questions

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wagerquiz/internal/game"
)

func TestFromTrivia(t *testing.T) {
	tests := []struct {
		text   string
		number uint32
		want   string
	}{
		{text: "42 is the answer to everything.", number: 42, want: "What is the answer to everything?"},
		{text: "1 is the loneliest number, said in 1969.", number: 1, want: "What is the loneliest number, said in 1969?"},
		{text: "8 is the number of legs on a spider", number: 8, want: "What is the number of legs on a spider?"},
		{text: "365 is the number of days in a year!", number: 365, want: "What is the number of days in a year?"},
		{text: "10 is a tenth of 100.", number: 10, want: "What is a tenth of 100?"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, game.Question{Text: tt.want, Answer: tt.number}, FromTrivia(tt.text, tt.number))
		})
	}
}

func TestNumbersAPIFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":"206 is the number of bones in the adult human body.","number":206,"found":true,"type":"trivia"}`))
	}))
	defer srv.Close()

	q, err := NewNumbersAPI(srv.URL, srv.Client()).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, game.Question{Text: "What is the number of bones in the adult human body?", Answer: 206}, q)
}

func TestNumbersAPIFetchRejectsUnusableResponses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{}`},
		{name: "not json", status: http.StatusOK, body: `<html>`},
		{name: "not found", status: http.StatusOK, body: `{"text":"x","number":1,"found":false}`},
		{name: "missing text", status: http.StatusOK, body: `{"number":1,"found":true}`},
		{name: "negative", status: http.StatusOK, body: `{"text":"-1 is odd","number":-1,"found":true}`},
		{name: "too large", status: http.StatusOK, body: `{"text":"1e21 is big","number":1e21,"found":true}`},
		{name: "fraction", status: http.StatusOK, body: `{"text":"pi","number":3.14,"found":true}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewNumbersAPI(srv.URL, srv.Client()).Fetch(context.Background())
			assert.Error(t, err)
		})
	}
}
