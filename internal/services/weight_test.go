package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWeightClientRead(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/read", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"grams": 42.5, "timestamp": "2026-08-01T10:00:00Z"}`))
	}))
	defer srv.Close()

	client := NewWeightClient(srv.URL, time.Second)
	defer client.Close()

	reading, err := client.Read(context.Background())
	require.NoError(t, err)
	require.Equal(t, 42.5, reading.Grams)
	require.Equal(t, 2026, reading.Timestamp.Year())
}

func TestWeightClientRejectsNegativeGrams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"grams": -1, "timestamp": "2026-08-01T10:00:00Z"}`))
	}))
	defer srv.Close()

	client := NewWeightClient(srv.URL, time.Second)
	defer client.Close()

	_, err := client.Read(context.Background())
	require.Error(t, err)
}

func TestWeightClientTransportFailureOnNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewWeightClient(srv.URL, time.Second)
	defer client.Close()

	_, err := client.Read(context.Background())
	require.Error(t, err)
}
