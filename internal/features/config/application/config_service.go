package application

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"flowerchat/backend/internal/features/config/domain"
)

// ConfigService publishes the frontend-visible part of the app config.
type ConfigService interface {
	ExportPublicConfig(config *domain.AppConfig) error
}

// configService is the implementation of ConfigService.
type configService struct {
	publicPath string
}

// NewConfigService creates a new instance of configService. An empty
// publicPath disables the export.
func NewConfigService(publicPath string) ConfigService {
	return &configService{publicPath: publicPath}
}

// ExportPublicConfig writes the greeting and quick replies to the frontend config file.
func (s *configService) ExportPublicConfig(config *domain.AppConfig) error {
	if s.publicPath == "" {
		return nil
	}

	data, err := json.MarshalIndent(config.Public(), "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal public config")
	}

	if err := os.MkdirAll(filepath.Dir(s.publicPath), 0755); err != nil {
		return errors.Wrapf(err, "failed to create directory for %s", s.publicPath)
	}
	if err := os.WriteFile(s.publicPath, data, 0644); err != nil {
		return errors.Wrapf(err, "failed to write public config to file %s", s.publicPath)
	}
	return nil
}
