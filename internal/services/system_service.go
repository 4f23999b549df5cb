package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/clickbazaar/api/internal/repositories"
)

// SystemServiceDeps bundles collaborators required to construct the system service.
type SystemServiceDeps struct {
	Health repositories.HealthRepository
}

type systemService struct {
	health repositories.HealthRepository
}

// NewSystemService wires dependencies into a concrete SystemService implementation.
func NewSystemService(deps SystemServiceDeps) (SystemService, error) {
	if deps.Health == nil {
		return nil, errors.New("system service: health repository is required")
	}
	return &systemService{health: deps.Health}, nil
}

// Ready confirms the backing database answers queries.
func (s *systemService) Ready(ctx context.Context) error {
	if err := s.health.Check(ctx); err != nil {
		return fmt.Errorf("system: database unavailable: %w", err)
	}
	return nil
}
