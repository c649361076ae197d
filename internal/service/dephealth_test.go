package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BigKAA/topologymetrics/sdk-go/dephealth"
	"github.com/prometheus/client_golang/prometheus"
)

func TestNewWebClientDephealth_StartStop(t *testing.T) {
	storage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer storage.Close()

	ds, err := NewWebClientDephealth(
		"web-client", "file-sharing", storage.URL, 15*time.Second, testLogger(),
		dephealth.WithRegisterer(prometheus.NewRegistry()),
	)
	if err != nil {
		t.Fatalf("NewWebClientDephealth: %v", err)
	}

	if err := ds.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	ds.Stop()
}
