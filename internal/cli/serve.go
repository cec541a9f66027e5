package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"flowerchat/backend/internal/config"
	assistantapp "flowerchat/backend/internal/features/assistant/application"
	assistantinfra "flowerchat/backend/internal/features/assistant/infrastructure"
	assistanthttp "flowerchat/backend/internal/features/assistant/presentation/http"
	configapp "flowerchat/backend/internal/features/config/application"
	confighttp "flowerchat/backend/internal/features/config/presentation/http"
	mpapp "flowerchat/backend/internal/features/marketplace/application"
	mpinfra "flowerchat/backend/internal/features/marketplace/infrastructure"
	mphttp "flowerchat/backend/internal/features/marketplace/presentation/http"
	"flowerchat/backend/internal/logging"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	var port, appConfigPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != "" {
				env.Port = port
			}
			if appConfigPath != "" {
				env.AppConfigPath = appConfigPath
			}
			router, err := NewRouter(env, log)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, ":"+env.Port, router, log)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "listen port (overrides PORT)")
	cmd.Flags().StringVar(&appConfigPath, "app-config", "", "assistant config file (overrides APP_CONFIG_PATH)")
	return cmd
}

func serve(ctx context.Context, addr string, handler http.Handler, log logrus.FieldLogger) error {
	srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	errc := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "listen")
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return errors.Wrap(srv.Shutdown(shutdownCtx), "shutdown")
}

// NewRouter builds the gin engine with every feature mounted under /api.
func NewRouter(env *config.Env, log *logrus.Logger) (*gin.Engine, error) {
	if env.MarketplaceURL == "" {
		return nil, errors.New("MARKETPLACE_API_URL is not set")
	}
	llm, err := assistantinfra.NewLLMClient(aiConfig(env))
	if err != nil {
		return nil, errors.Wrap(err, "create llm client")
	}

	client := mpinfra.NewClient(env.MarketplaceURL, env.MarketplaceTimeout)
	auth := mpapp.NewAuthService(client)
	cities := mpapp.NewCityCache(client, auth, env.CityCacheTTL)
	catalog := mpapp.NewCatalogService(client, auth)
	orders := mpapp.NewOrderService(client)

	appConfigService := config.NewAppConfigService(env.AppConfigPath, log)
	configService := configapp.NewConfigService(env.FrontendConfigPath)

	toolbox := assistantapp.NewToolbox(cities, catalog, orders)
	assistant := assistantapp.NewAssistantService(llm, toolbox, cities, appConfigService, orders, env.MaxToolIterations)

	if !log.IsLevelEnabled(logrus.DebugLevel) {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), logging.Middleware(log))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	api := r.Group("/api", mphttp.BearerToken())
	mphttp.NewMarketplaceHandler(auth, cities, catalog, orders).Register(api)
	assistanthttp.NewAssistantHandler(assistant).Register(api)

	configGroup := api.Group("/config")
	{
		handler := confighttp.NewAppConfigHandler(appConfigService, configService)
		configGroup.GET("/app", handler.GetAppConfigHandler)
		configGroup.POST("/app", handler.SaveAppConfigHandler)
	}

	log.WithField("provider", env.LLMProvider).WithField("marketplace", env.MarketplaceURL).Info("router ready")
	return r, nil
}

func aiConfig(env *config.Env) assistantinfra.AIConfig {
	if env.LLMProvider == "anthropic" || env.LLMProvider == "claude" {
		return assistantinfra.AIConfig{
			Provider: env.LLMProvider,
			APIKey:   env.AnthropicAPIKey,
			Model:    env.AnthropicModel,
			BaseURL:  env.AnthropicBaseURL,
		}
	}
	return assistantinfra.AIConfig{
		Provider: env.LLMProvider,
		APIKey:   env.OpenAIAPIKey,
		Model:    env.OpenAIModel,
		BaseURL:  env.OpenAIBaseURL,
	}
}
