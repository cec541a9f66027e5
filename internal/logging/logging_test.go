package logging

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func TestMiddlewareSetsRequestIDAndLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	root := New("debug", "json")
	root.Out = &buf

	r := gin.New()
	r.Use(Middleware(root))
	r.GET("/ping", func(c *gin.Context) {
		if FromGin(c) == nil {
			t.Error("expected logger in gin context")
		}
		FromContext(c.Request.Context()).Info("inside handler")
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w, req)

	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected generated X-Request-ID header")
	}
	out := buf.String()
	if !strings.Contains(out, "inside handler") || !strings.Contains(out, "request complete") {
		t.Errorf("expected handler and completion log lines, got %s", out)
	}
	if !strings.Contains(out, `"severity"`) {
		t.Errorf("expected json formatter field map, got %s", out)
	}
}

func TestMiddlewareKeepsIncomingRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	root := New("info", "text")
	root.Out = &bytes.Buffer{}

	r := gin.New()
	r.Use(Middleware(root))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	r.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("expected request id to be echoed, got %q", got)
	}
}

func TestFromContextFallsBackToStandardLogger(t *testing.T) {
	if FromContext(context.Background()) != logrus.StandardLogger() {
		t.Error("expected standard logger fallback")
	}
}

func TestNewInvalidLevelDefaultsToInfo(t *testing.T) {
	if lvl := New("chatty", "text").Level; lvl != logrus.InfoLevel {
		t.Errorf("expected info level, got %v", lvl)
	}
}
