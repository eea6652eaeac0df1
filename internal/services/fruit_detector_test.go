package services

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFruitDetectorClientDetect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/detect-fruits", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(10<<20))
		require.Equal(t, "img-1", r.FormValue("image_id"))
		require.Equal(t, "320", r.FormValue("imgsz"))

		file, _, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		body, err := io.ReadAll(file)
		require.NoError(t, err)
		require.Equal(t, []byte("jpeg-bytes"), body)

		_, _ = w.Write([]byte(`{"image_id":"img-1","fruits":[{"fruit_id":"f1","class":"apple","confidence":0.9,"bbox":[0,0,10,10]}]}`))
	}))
	defer srv.Close()

	client := NewFruitDetectorClient(srv.URL, time.Second)
	defer client.Close()

	result, err := client.Detect(context.Background(), "img-1", []byte("jpeg-bytes"), 320)
	require.NoError(t, err)
	require.Len(t, result.Fruits, 1)
	require.Equal(t, "apple", result.Fruits[0].FruitClass)
	require.Equal(t, 10.0, result.Fruits[0].BBox.XMax)
}

func TestFruitDetectorClientRejectsDuplicateFruitID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"image_id":"img-1","fruits":[
			{"fruit_id":"f1","class":"apple","confidence":0.9,"bbox":[0,0,10,10]},
			{"fruit_id":"f1","class":"apple","confidence":0.8,"bbox":[0,0,10,10]}
		]}`))
	}))
	defer srv.Close()

	client := NewFruitDetectorClient(srv.URL, time.Second)
	defer client.Close()

	_, err := client.Detect(context.Background(), "img-1", []byte("x"), 320)
	require.Error(t, err)
}
