package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/taskhub/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

func TestReadyz(t *testing.T) {
	tests := []struct {
		name       string
		ping       func(ctx context.Context) error
		draining   bool
		wantStatus int
	}{
		{name: "no_probe", wantStatus: http.StatusOK},
		{name: "db_up", ping: func(context.Context) error { return nil }, wantStatus: http.StatusOK},
		{name: "db_down", ping: func(context.Context) error { return errors.New("refused") }, wantStatus: http.StatusServiceUnavailable},
		{name: "draining", ping: func(context.Context) error { return nil }, draining: true, wantStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			h := handlers.NewHealthHandler(tt.ping, func() bool { return tt.draining })

			r := gin.New()
			r.GET("/readyz", h.Readyz)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}
