package repository

import (
	"context"

	"github.com/dvirhilu/NMR-Preamplifier/pkg/models"
)

// SimulationRepository defines the interface for loading externally
// simulated amplifier results
type SimulationRepository interface {
	LoadBode(ctx context.Context, name string) (*models.BodeData, error)
}
