package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCameraClientCaptureAndFetch(t *testing.T) {
	var mux http.ServeMux
	mux.HandleFunc("/capture", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"image_id": "img-1", "image_path": "/images/img-1.jpg", "timestamp": "2026-08-01T10:00:00Z"}`))
	})
	mux.HandleFunc("/images/img-1.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte("fake-jpeg-bytes"))
	})
	srv := httptest.NewServer(&mux)
	defer srv.Close()

	client := NewCameraClient(srv.URL, time.Second)
	defer client.Close()

	capture, err := client.Capture(context.Background(), "320x320")
	require.NoError(t, err)
	require.Equal(t, "img-1", capture.ImageID)

	loc, err := capture.ResolvedLocation()
	require.NoError(t, err)

	data, err := client.FetchImage(context.Background(), loc)
	require.NoError(t, err)
	require.Equal(t, []byte("fake-jpeg-bytes"), data)
}

func TestCameraClientRejectsMissingLocation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"image_id": "img-1", "timestamp": "2026-08-01T10:00:00Z"}`))
	}))
	defer srv.Close()

	client := NewCameraClient(srv.URL, time.Second)
	defer client.Close()

	_, err := client.Capture(context.Background(), "320x320")
	require.Error(t, err)
}
