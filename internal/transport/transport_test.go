package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPostJSONRoundTrips(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/echo", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	defer c.Close()

	body, err := c.PostJSON(context.Background(), "/echo", map[string]string{"a": "b"})
	require.NoError(t, err)
	require.JSONEq(t, `{"ok":true}`, string(body))
}

func TestPostJSONNonSuccessIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	defer c.Close()

	_, err := c.PostJSON(context.Background(), "/fail", map[string]string{})
	require.Error(t, err)
	var f *Failure
	require.ErrorAs(t, err, &f)
	require.Equal(t, http.StatusInternalServerError, f.Status)
}

func TestPostMultipartSendsFieldsAndFiles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Equal(t, "v1", r.FormValue("k1"))
		file, header, err := r.FormFile("image")
		require.NoError(t, err)
		defer file.Close()
		require.Equal(t, "crop.jpg", header.Filename)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	defer c.Close()

	_, err := c.PostMultipart(context.Background(), "/upload",
		[]MultipartField{{FieldName: "image", Filename: "crop.jpg", Content: []byte("jpegbytes"), MIMEType: "image/jpeg"}},
		map[string]string{"k1": "v1"},
	)
	require.NoError(t, err)
}

func TestGetBinaryResolvesRelativeAndAbsolute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("bytes"))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	defer c.Close()

	body, err := c.GetBinary(context.Background(), "/img.jpg")
	require.NoError(t, err)
	require.Equal(t, "bytes", string(body))

	body, err = c.GetBinary(context.Background(), srv.URL+"/abs.jpg")
	require.NoError(t, err)
	require.Equal(t, "bytes", string(body))
}

func TestSetObserverRecordsOutcome(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	defer c.Close()

	var gotOutcome string
	var gotDuration time.Duration
	c.SetObserver(func(outcome string, d time.Duration) {
		gotOutcome = outcome
		gotDuration = d
	})

	_, err := c.PostJSON(context.Background(), "/x", map[string]string{})
	require.NoError(t, err)
	require.Equal(t, "ok", gotOutcome)
	require.GreaterOrEqual(t, gotDuration, time.Duration(0))
}

func TestSetObserverRecordsErrorOutcome(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	defer c.Close()

	var gotOutcome string
	c.SetObserver(func(outcome string, d time.Duration) {
		gotOutcome = outcome
	})

	_, err := c.PostJSON(context.Background(), "/x", map[string]string{})
	require.Error(t, err)
	require.Equal(t, "error", gotOutcome)
}
