package repository

import (
	"context"

	"github.com/petlovers/petlovers-api/internal/domain/entity"
)

// PetRepository persists pets with the same version contract as UserRepository.
type PetRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Pet, error)
	ListByStatus(ctx context.Context, status entity.PetStatus) ([]entity.Pet, error)
	ListBySpecies(ctx context.Context, species entity.Species) ([]entity.Pet, error)
	Insert(ctx context.Context, p *entity.Pet) error
	Update(ctx context.Context, p *entity.Pet) error
	Delete(ctx context.Context, id string) error
}
