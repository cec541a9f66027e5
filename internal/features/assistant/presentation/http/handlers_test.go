package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"flowerchat/backend/internal/apperr"
	"flowerchat/backend/internal/features/assistant/domain"
	"flowerchat/backend/internal/features/assistant/infrastructure"
	marketplace "flowerchat/backend/internal/features/marketplace/domain"
	mphttp "flowerchat/backend/internal/features/marketplace/presentation/http"
)

type fakeAssistant struct {
	lastToken string
	lastReq   domain.ChatRequest
	chatErr   error
}

func (f *fakeAssistant) Chat(ctx context.Context, token string, req domain.ChatRequest) (*domain.ChatResponse, error) {
	f.lastToken = token
	f.lastReq = req
	if f.chatErr != nil {
		return nil, f.chatErr
	}
	if strings.TrimSpace(req.Message) == "" {
		return nil, apperr.Validation("message is required")
	}
	return &domain.ChatResponse{
		Message:         "echo: " + req.Message,
		Products:        []marketplace.CatalogItem{},
		TempCart:        domain.NewTempCart(),
		SessionSettings: &domain.SessionSettings{},
		Missing:         []string{"recipient"},
	}, nil
}

func (f *fakeAssistant) Greeting() (*domain.GreetingResponse, error) {
	return &domain.GreetingResponse{Greeting: "Hello!", QuickReplies: []string{"For mom"}}, nil
}

func (f *fakeAssistant) Checkout(ctx context.Context, token string, req domain.CheckoutRequest) (*marketplace.Order, error) {
	if token == "" {
		return nil, apperr.Unauthorized("authorization token is required")
	}
	return &marketplace.Order{ID: "o-1", Status: "new"}, nil
}

func newRouter(svc *fakeAssistant) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewAssistantHandler(svc).Register(r.Group("/api", mphttp.BearerToken()))
	return r
}

func post(r http.Handler, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestChatHandler(t *testing.T) {
	svc := &fakeAssistant{}
	r := newRouter(svc)

	body := `{"message":"roses","conversationHistory":[{"role":"user","content":"hi"}],
		"tempCart":{"id":"c1","items":[{"productId":"r1","price":100,"quantity":1}]},
		"sessionSettings":{"cityId":3}}`
	w := post(r, "/api/chat", "anon-1", body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}
	for _, want := range []string{`"message":"echo: roses"`, `"products":[]`, `"tempCart":`, `"missing":["recipient"]`} {
		if !strings.Contains(w.Body.String(), want) {
			t.Errorf("response missing %s: %s", want, w.Body)
		}
	}
	if svc.lastToken != "anon-1" {
		t.Errorf("token not forwarded: %q", svc.lastToken)
	}
	if svc.lastReq.TempCart == nil || svc.lastReq.TempCart.Items[0].ProductID != "r1" || svc.lastReq.SessionSettings.CityID != 3 {
		t.Errorf("request not decoded: %+v", svc.lastReq)
	}
	if len(svc.lastReq.ConversationHistory) != 1 {
		t.Errorf("history not decoded: %+v", svc.lastReq.ConversationHistory)
	}
}

func TestChatHandlerErrors(t *testing.T) {
	r := newRouter(&fakeAssistant{})
	if w := post(r, "/api/chat", "", "{"); w.Code != http.StatusBadRequest {
		t.Errorf("bad json: expected 400, got %d", w.Code)
	}
	if w := post(r, "/api/chat", "", `{"message":""}`); w.Code != http.StatusBadRequest {
		t.Errorf("empty message: expected 400, got %d", w.Code)
	}

	r = newRouter(&fakeAssistant{chatErr: &infrastructure.ProviderError{Provider: "openai", Message: "down"}})
	w := post(r, "/api/chat", "", `{"message":"hi"}`)
	if w.Code != http.StatusBadGateway || !strings.Contains(w.Body.String(), "down") {
		t.Errorf("provider failure: expected 502 with message, got %d: %s", w.Code, w.Body)
	}
}

func TestGreetingHandler(t *testing.T) {
	r := newRouter(&fakeAssistant{})
	req := httptest.NewRequest(http.MethodGet, "/api/chat/greeting", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"quickReplies":["For mom"]`) {
		t.Errorf("unexpected greeting response %d: %s", w.Code, w.Body)
	}
}

func TestCheckoutHandler(t *testing.T) {
	r := newRouter(&fakeAssistant{})
	body := `{"tempCart":{"items":[{"productId":"r1","price":100,"quantity":1}]},"sessionSettings":{"cityId":1},"recipient":{"name":"Anna"}}`

	if w := post(r, "/api/chat/checkout", "", body); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", w.Code)
	}
	w := post(r, "/api/chat/checkout", "user-1", body)
	if w.Code != http.StatusCreated || !strings.Contains(w.Body.String(), `"o-1"`) {
		t.Errorf("expected created order, got %d: %s", w.Code, w.Body)
	}
}
