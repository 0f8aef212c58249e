package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pefman/cosmic-race/internal/models"
)

func TestClientRecordResult(t *testing.T) {
	var got models.RaceResult
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/results", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/")
	err := c.RecordResult(context.Background(), models.RaceResult{Session: "s/1", Winner: "human", Turns: 9})
	require.NoError(t, err)
	assert.Equal(t, "s/1", got.Session)
	assert.Equal(t, 9, got.Turns)
}

func TestClientSummary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/results/summary":
			_ = json.NewEncoder(w).Encode(models.ResultsSummary{Games: 4, HumanWins: 3, ComputerWins: 1})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	sum, err := c.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, sum.Games)
	assert.Equal(t, 3, sum.HumanWins)

	_, err = c.Today(context.Background())
	assert.ErrorContains(t, err, "api status 404")
}

func TestClientRecordResultServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewClient(srv.URL).RecordResult(context.Background(), models.RaceResult{Session: "s/1"})
	assert.ErrorContains(t, err, "record result: api status 500")
}
