package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/georgenoob1234/freshline-brain/internal/logging"
)

type fakeTrigger struct {
	calls   int32
	lastVal float64
}

func (f *fakeTrigger) TriggerScan(ctx context.Context, grams float64) {
	atomic.AddInt32(&f.calls, 1)
	f.lastVal = grams
}

func TestHealthzReturnsOK(t *testing.T) {
	mux := NewHealthMux(&fakeTrigger{}, logging.New("ERROR"))
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestTriggerScanAcceptsPositiveWeight(t *testing.T) {
	ft := &fakeTrigger{}
	mux := NewHealthMux(ft, logging.New("ERROR"))

	req := httptest.NewRequest(http.MethodPost, "/trigger-scan", strings.NewReader(`{"weight_grams": 120.5}`))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)
	require.Equal(t, int32(1), atomic.LoadInt32(&ft.calls))
	require.Equal(t, 120.5, ft.lastVal)
}

func TestTriggerScanRejectsNonPositiveWeight(t *testing.T) {
	ft := &fakeTrigger{}
	mux := NewHealthMux(ft, logging.New("ERROR"))

	req := httptest.NewRequest(http.MethodPost, "/trigger-scan", strings.NewReader(`{"weight_grams": 0}`))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, int32(0), atomic.LoadInt32(&ft.calls))
}

func TestTriggerScanRejectsBadJSON(t *testing.T) {
	ft := &fakeTrigger{}
	mux := NewHealthMux(ft, logging.New("ERROR"))

	req := httptest.NewRequest(http.MethodPost, "/trigger-scan", strings.NewReader(`not json`))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTriggerScanRejectsWrongMethod(t *testing.T) {
	ft := &fakeTrigger{}
	mux := NewHealthMux(ft, logging.New("ERROR"))

	req := httptest.NewRequest(http.MethodGet, "/trigger-scan", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	require.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
