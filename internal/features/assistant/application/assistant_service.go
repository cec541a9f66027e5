package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"flowerchat/backend/internal/apperr"
	"flowerchat/backend/internal/features/assistant/domain"
	"flowerchat/backend/internal/features/assistant/infrastructure"
	configdomain "flowerchat/backend/internal/features/config/domain"
	marketplace "flowerchat/backend/internal/features/marketplace/domain"
	"flowerchat/backend/internal/logging"
)

const (
	// HistoryLimit is how many prior turns are replayed to the model.
	HistoryLimit = 20
	// DefaultMaxToolIterations bounds tool rounds when none is configured.
	DefaultMaxToolIterations = 5

	fallbackReply = "Sorry, I could not finish that. Could you say it another way?"
)

// AppConfigLoader reads the current assistant configuration.
type AppConfigLoader interface {
	LoadAppConfig() (*configdomain.AppConfig, error)
}

// OrderPlacer places orders upstream.
type OrderPlacer interface {
	CreateOrder(ctx context.Context, token string, req marketplace.OrderRequest) (*marketplace.Order, error)
}

// AssistantService defines the interface for the chat assistant.
type AssistantService interface {
	Chat(ctx context.Context, token string, req domain.ChatRequest) (*domain.ChatResponse, error)
	Greeting() (*domain.GreetingResponse, error)
	Checkout(ctx context.Context, token string, req domain.CheckoutRequest) (*marketplace.Order, error)
}

// assistantService is the implementation of AssistantService.
type assistantService struct {
	llm           infrastructure.LLMClient
	tools         *Toolbox
	cities        CityResolver
	appConfig     AppConfigLoader
	orders        OrderPlacer
	maxIterations int
}

// NewAssistantService creates a new AssistantService.
func NewAssistantService(llm infrastructure.LLMClient, tools *Toolbox, cities CityResolver, appConfig AppConfigLoader, orders OrderPlacer, maxIterations int) AssistantService {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxToolIterations
	}
	return &assistantService{
		llm:           llm,
		tools:         tools,
		cities:        cities,
		appConfig:     appConfig,
		orders:        orders,
		maxIterations: maxIterations,
	}
}

// Chat answers one customer message, running tool calls until the model replies with text.
func (s *assistantService) Chat(ctx context.Context, token string, req domain.ChatRequest) (*domain.ChatResponse, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, apperr.Validation("message is required")
	}
	cfg, err := s.appConfig.LoadAppConfig()
	if err != nil {
		return nil, errors.Wrap(err, "load app config")
	}

	session := &Session{
		Token:    token,
		Settings: copySettings(req.SessionSettings),
		Cart:     sanitizeCart(req.TempCart),
		Products: []marketplace.CatalogItem{},
		Search:   cfg.SearchDefaults,
	}
	if session.Settings.CityID > 0 && session.Settings.CityName == "" {
		if city, ok, err := s.cities.ByID(ctx, session.Settings.CityID); err == nil && ok {
			session.Settings.CityName = city.Name
		}
	}

	log := logging.FromContext(ctx).WithField("cart_id", session.Cart.ID)
	messages := historyMessages(req.ConversationHistory)
	messages = append(messages, infrastructure.Message{Role: infrastructure.RoleUser, Content: message})

	reply, done := "", false
	for i := 0; i < s.maxIterations; i++ {
		comp, err := s.llm.Complete(ctx, s.completionRequest(cfg, session, messages, true))
		if err != nil {
			return nil, err
		}
		if len(comp.ToolCalls) == 0 {
			reply, done = comp.Content, true
			break
		}
		log.WithField("iteration", i).WithField("calls", len(comp.ToolCalls)).Debug("model requested tools")
		messages = append(messages, infrastructure.Message{
			Role:      infrastructure.RoleAssistant,
			Content:   comp.Content,
			ToolCalls: comp.ToolCalls,
		})
		for _, call := range comp.ToolCalls {
			messages = append(messages, infrastructure.Message{
				Role:       infrastructure.RoleTool,
				ToolCallID: call.ID,
				Content:    s.tools.Dispatch(ctx, session, call),
			})
		}
	}
	if !done {
		log.WithField("limit", s.maxIterations).Info("tool iteration limit reached")
		comp, err := s.llm.Complete(ctx, s.completionRequest(cfg, session, messages, false))
		if err != nil {
			return nil, err
		}
		reply = comp.Content
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		reply = fallbackReply
	}
	return &domain.ChatResponse{
		Message:         reply,
		Products:        session.Products,
		TempCart:        session.Cart,
		SessionSettings: session.Settings,
		Missing:         NewChecklist(session.Settings).Missing(),
	}, nil
}

func (s *assistantService) completionRequest(cfg *configdomain.AppConfig, session *Session, messages []infrastructure.Message, withTools bool) infrastructure.CompletionRequest {
	req := infrastructure.CompletionRequest{
		System:      BuildSystemPrompt(cfg, session.Settings, session.Cart),
		Messages:    messages,
		Model:       cfg.ModelParams.Model,
		Temperature: cfg.ModelParams.Temperature,
		MaxTokens:   cfg.ModelParams.MaxTokens,
	}
	if withTools {
		req.Tools = s.tools.Definitions()
	}
	return req
}

// Greeting returns the opening message and quick replies.
func (s *assistantService) Greeting() (*domain.GreetingResponse, error) {
	cfg, err := s.appConfig.LoadAppConfig()
	if err != nil {
		return nil, errors.Wrap(err, "load app config")
	}
	pub := cfg.Public()
	return &domain.GreetingResponse{Greeting: pub.Greeting, QuickReplies: pub.QuickReplies}, nil
}

// Checkout turns the chat cart into an upstream order.
func (s *assistantService) Checkout(ctx context.Context, token string, req domain.CheckoutRequest) (*marketplace.Order, error) {
	if req.TempCart == nil || len(req.TempCart.Items) == 0 {
		return nil, apperr.Validation("cart is empty")
	}
	if req.SessionSettings == nil || req.SessionSettings.CityID == 0 {
		return nil, apperr.Validation("delivery city is required")
	}
	order, err := s.orders.CreateOrder(ctx, token, FromTempCart(req))
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).WithField("order_id", order.ID).WithField("cart_id", req.TempCart.ID).Info("order placed from chat cart")
	return order, nil
}

// FromTempCart builds the upstream order for a checkout request.
func FromTempCart(req domain.CheckoutRequest) marketplace.OrderRequest {
	cart := sanitizeCart(req.TempCart)
	settings := copySettings(req.SessionSettings)
	out := marketplace.OrderRequest{
		Items:        cart.OrderItems(),
		Recipient:    req.Recipient,
		Address:      strings.TrimSpace(req.Address),
		DeliveryDate: req.DeliveryDate,
		Comment:      strings.TrimSpace(req.Comment),
		CityID:       settings.CityID,
	}
	if out.Comment == "" && settings.Occasion != "" {
		out.Comment = "Occasion: " + settings.Occasion
	}
	return out
}

// BuildSystemPrompt appends the session state and open checklist
// questions to the configured system prompt.
func BuildSystemPrompt(cfg *configdomain.AppConfig, settings *domain.SessionSettings, cart *domain.TempCart) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(cfg.SystemPrompt))
	b.WriteString("\n\nWhat we know so far:\n")
	if settings.CityID > 0 {
		fmt.Fprintf(&b, "- Delivery city: %s (id %d)\n", settings.CityName, settings.CityID)
	}
	if settings.Recipient != "" {
		fmt.Fprintf(&b, "- Recipient: %s\n", settings.Recipient)
	}
	if settings.Occasion != "" {
		fmt.Fprintf(&b, "- Occasion: %s\n", settings.Occasion)
	}
	switch {
	case settings.BudgetMin > 0 && settings.BudgetMax > 0:
		fmt.Fprintf(&b, "- Budget: %.0f to %.0f\n", settings.BudgetMin, settings.BudgetMax)
	case settings.BudgetMax > 0:
		fmt.Fprintf(&b, "- Budget: up to %.0f\n", settings.BudgetMax)
	case settings.BudgetMin > 0:
		fmt.Fprintf(&b, "- Budget: from %.0f\n", settings.BudgetMin)
	}
	if cart != nil && len(cart.Items) > 0 {
		fmt.Fprintf(&b, "- Cart: %d item(s), total %.2f %s\n", cart.Count(), cart.Total, cart.Currency)
	} else {
		b.WriteString("- Cart: empty\n")
	}

	missing := NewChecklist(settings).Missing()
	if len(missing) == 0 {
		b.WriteString("\nAll details are known. Search the catalog and suggest products.")
		return b.String()
	}
	b.WriteString("\nStill unknown, ask about one at a time in this order:\n")
	for _, item := range missing {
		q := cfg.ChecklistPrompts[item]
		if q == "" {
			q = "Ask about the " + item + "."
		}
		fmt.Fprintf(&b, "- %s: %s\n", item, q)
	}
	return strings.TrimRight(b.String(), "\n")
}

func historyMessages(turns []domain.ConversationTurn) []infrastructure.Message {
	if len(turns) > HistoryLimit {
		turns = turns[len(turns)-HistoryLimit:]
	}
	out := make([]infrastructure.Message, 0, len(turns)+1)
	for _, t := range turns {
		content := strings.TrimSpace(t.Content)
		if content == "" {
			continue
		}
		role := infrastructure.RoleUser
		if t.Role == domain.RoleAssistant {
			role = infrastructure.RoleAssistant
		}
		out = append(out, infrastructure.Message{Role: role, Content: content})
	}
	return out
}

func copySettings(s *domain.SessionSettings) *domain.SessionSettings {
	if s == nil {
		return &domain.SessionSettings{}
	}
	c := *s
	return &c
}

// sanitizeCart copies the client cart, drops unusable lines and recomputes the total.
func sanitizeCart(in *domain.TempCart) *domain.TempCart {
	if in == nil {
		return domain.NewTempCart()
	}
	out := &domain.TempCart{ID: in.ID, Currency: in.Currency, Items: []domain.TempCartItem{}}
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	for _, item := range in.Items {
		if item.ProductID == "" || item.Quantity <= 0 || item.Price < 0 {
			continue
		}
		out.Items = append(out.Items, item)
	}
	out.Recalculate()
	return out
}
