package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"flowerchat/backend/internal/config"
	"flowerchat/backend/internal/features/config/application"
	"flowerchat/backend/internal/features/config/domain"
	"flowerchat/backend/internal/logging"
)

// AppConfigHandler holds the app config services.
type AppConfigHandler struct {
	appConfigService config.AppConfigService
	configService    application.ConfigService
}

// NewAppConfigHandler creates a new AppConfigHandler.
func NewAppConfigHandler(appConfigService config.AppConfigService, configService application.ConfigService) *AppConfigHandler {
	return &AppConfigHandler{
		appConfigService: appConfigService,
		configService:    configService,
	}
}

// GetAppConfigHandler handles fetching the application configuration.
func (h *AppConfigHandler) GetAppConfigHandler(c *gin.Context) {
	appConfig, err := h.appConfigService.LoadAppConfig()
	if err != nil {
		logging.FromGin(c).WithError(err).Error("failed to load app config")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load app config: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, appConfig)
}

// SaveAppConfigHandler handles saving the application configuration.
func (h *AppConfigHandler) SaveAppConfigHandler(c *gin.Context) {
	var appConfig domain.AppConfig
	if err := c.ShouldBindJSON(&appConfig); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.appConfigService.SaveAppConfig(&appConfig); err != nil {
		logging.FromGin(c).WithError(err).Error("failed to save app config")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save app config: " + err.Error()})
		return
	}

	if err := h.configService.ExportPublicConfig(&appConfig); err != nil {
		logging.FromGin(c).WithError(err).Warn("failed to export public config")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "App config saved, but public export failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "App config saved successfully"})
}
