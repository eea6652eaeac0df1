package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefectDetectorClientDetect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/detect-defects", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(10<<20))
		require.Equal(t, "img-1", r.FormValue("image_id"))
		require.Equal(t, "f1", r.FormValue("fruit_id"))

		_, _ = w.Write([]byte(`{"image_id":"img-1","fruit_id":"f1","defects":[{"type":"bruise","confidence":0.7}]}`))
	}))
	defer srv.Close()

	client := NewDefectDetectorClient(srv.URL, time.Second)
	defer client.Close()

	result, err := client.Detect(context.Background(), "img-1", "f1", []byte("crop"), "f1.jpg")
	require.NoError(t, err)
	require.Len(t, result.Defects, 1)
	require.Equal(t, "bruise", result.Defects[0].Type)
}

func TestDefectDetectorClientRejectsMismatchedFruitID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"image_id":"img-1","fruit_id":"other","defects":[]}`))
	}))
	defer srv.Close()

	client := NewDefectDetectorClient(srv.URL, time.Second)
	defer client.Close()

	_, err := client.Detect(context.Background(), "img-1", "f1", []byte("crop"), "f1.jpg")
	require.Error(t, err)
}
