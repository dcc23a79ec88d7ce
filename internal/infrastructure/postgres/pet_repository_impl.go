package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/petlovers/petlovers-api/internal/domain/entity"
	"github.com/petlovers/petlovers-api/internal/domain/repository"
)

const petColumns = `id, name, species, breed, age, description, size, color, coat_type, is_vaccinated, is_neutered,
	status, adopter_id, photo_url, created_at, updated_at, adopted_at, version`

type PetRepository struct {
	pool *pgxpool.Pool
}

func NewPetRepository(pool *pgxpool.Pool) *PetRepository {
	return &PetRepository{pool: pool}
}

func scanPet(row pgx.Row) (*entity.Pet, error) {
	p := &entity.Pet{}
	var adopter *string
	c := &p.Characteristics
	if err := row.Scan(&p.ID, &p.Name, &p.Species, &p.Breed, &p.Age, &p.Description,
		&c.Size, &c.Color, &c.CoatType, &c.IsVaccinated, &c.IsNeutered,
		&p.Status, &adopter, &p.PhotoURL, &p.CreatedAt, &p.UpdatedAt, &p.AdoptedAt, &p.Version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	if adopter != nil {
		p.AdopterID = *adopter
	}
	return p, nil
}

func (r *PetRepository) GetByID(ctx context.Context, id string) (*entity.Pet, error) {
	return scanPet(r.pool.QueryRow(ctx, `SELECT `+petColumns+` FROM pets WHERE id = $1`, id))
}

func (r *PetRepository) ListByStatus(ctx context.Context, status entity.PetStatus) ([]entity.Pet, error) {
	return r.list(ctx, `SELECT `+petColumns+` FROM pets WHERE status = $1 ORDER BY created_at DESC`, string(status))
}

func (r *PetRepository) ListBySpecies(ctx context.Context, species entity.Species) ([]entity.Pet, error) {
	return r.list(ctx, `SELECT `+petColumns+` FROM pets WHERE species = $1 ORDER BY created_at DESC`, string(species))
}

func (r *PetRepository) list(ctx context.Context, query string, args ...any) ([]entity.Pet, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]entity.Pet, 0)
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *PetRepository) Insert(ctx context.Context, p *entity.Pet) error {
	c := p.Characteristics
	_, err := r.pool.Exec(ctx, `
		INSERT INTO pets (`+petColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, 1)
	`, p.ID, p.Name, string(p.Species), p.Breed, p.Age, p.Description,
		c.Size, c.Color, c.CoatType, c.IsVaccinated, c.IsNeutered,
		string(p.Status), nullString(p.AdopterID), p.PhotoURL, p.CreatedAt, p.UpdatedAt, p.AdoptedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return err
	}
	p.Version = 1
	return nil
}

func (r *PetRepository) Update(ctx context.Context, p *entity.Pet) error {
	c := p.Characteristics
	res, err := r.pool.Exec(ctx, `
		UPDATE pets
		SET name = $1, breed = $2, age = $3, description = $4,
		    size = $5, color = $6, coat_type = $7, is_vaccinated = $8, is_neutered = $9,
		    status = $10, adopter_id = $11, photo_url = $12, updated_at = $13, adopted_at = $14,
		    version = version + 1
		WHERE id = $15 AND version = $16
	`, p.Name, p.Breed, p.Age, p.Description,
		c.Size, c.Color, c.CoatType, c.IsVaccinated, c.IsNeutered,
		string(p.Status), nullString(p.AdopterID), p.PhotoURL, p.UpdatedAt, p.AdoptedAt,
		p.ID, p.Version)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return missingOrStale(ctx, r.pool, `SELECT EXISTS(SELECT 1 FROM pets WHERE id = $1)`, p.ID)
	}
	p.Version++
	return nil
}

func (r *PetRepository) Delete(ctx context.Context, id string) error {
	res, err := r.pool.Exec(ctx, `DELETE FROM pets WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.PetRepository = (*PetRepository)(nil)
