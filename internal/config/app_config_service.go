package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"flowerchat/backend/internal/features/config/domain"
)

// AppConfigService defines the interface for application configuration management.
type AppConfigService interface {
	LoadAppConfig() (*domain.AppConfig, error)
	SaveAppConfig(config *domain.AppConfig) error
}

// appConfigService is the implementation of AppConfigService.
type appConfigService struct {
	configPath string
	log        logrus.FieldLogger
}

// NewAppConfigService creates a new instance of appConfigService.
func NewAppConfigService(configPath string, log logrus.FieldLogger) AppConfigService {
	return &appConfigService{configPath: configPath, log: log}
}

// LoadAppConfig loads the application configuration from the configured JSON file.
func (s *appConfigService) LoadAppConfig() (*domain.AppConfig, error) {
	absPath, err := filepath.Abs(s.configPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get absolute path for %s", s.configPath)
	}
	s.log.WithField("path", absPath).Debug("loading app config")

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read app config file %s", absPath)
	}

	var appConfig domain.AppConfig
	if err := json.Unmarshal(data, &appConfig); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal app config from %s", absPath)
	}
	return &appConfig, nil
}

// SaveAppConfig saves the application configuration to the configured JSON file.
func (s *appConfigService) SaveAppConfig(appConfig *domain.AppConfig) error {
	absPath, err := filepath.Abs(s.configPath)
	if err != nil {
		return errors.Wrapf(err, "failed to get absolute path for %s", s.configPath)
	}

	data, err := json.MarshalIndent(appConfig, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal app config")
	}

	if err := os.WriteFile(absPath, data, 0644); err != nil {
		return errors.Wrapf(err, "failed to write app config to file %s", absPath)
	}
	s.log.WithField("path", absPath).Info("app config saved")
	return nil
}
