package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/petlovers/petlovers-api/internal/domain/apperror"
	"github.com/petlovers/petlovers-api/internal/domain/entity"
	repo "github.com/petlovers/petlovers-api/internal/domain/repository"
)

const (
	msgPetModified    = "resource was modified concurrently"
	msgInvalidSpecies = "Invalid pet species."

	// deletedPetVersion outranks every real row version in the cache marks.
	deletedPetVersion int64 = 1 << 53
)

// PetService orchestrates the pet lifecycle: load, apply one transition,
// persist under the row version, then fan out side effects. Cache, Events,
// Index and Photos are optional.
type PetService struct {
	Pets   repo.PetRepository
	Logger *logrus.Logger
	Cache  PetCache
	Events EventPublisher
	Index  PetIndex
	Photos PhotoStore
	Now    func() time.Time
}

func NewPetService(pets repo.PetRepository, logger *logrus.Logger) *PetService {
	return &PetService{Pets: pets, Logger: logger, Now: time.Now}
}

type PetView struct {
	ID              string                 `json:"id"`
	Name            string                 `json:"name"`
	Species         string                 `json:"species"`
	Breed           string                 `json:"breed"`
	Age             int                    `json:"age"`
	Description     string                 `json:"description"`
	Status          string                 `json:"status"`
	Characteristics entity.Characteristics `json:"characteristics"`
	PhotoURL        string                 `json:"photoUrl,omitempty"`
	AdopterID       string                 `json:"adopterId,omitempty"`
	CreatedAt       time.Time              `json:"createdAt"`
	UpdatedAt       *time.Time             `json:"updatedAt,omitempty"`
	AdoptedAt       *time.Time             `json:"adoptedAt,omitempty"`
}

func NewPetView(p entity.Pet) PetView {
	return PetView{
		ID:              p.ID,
		Name:            p.Name,
		Species:         string(p.Species),
		Breed:           p.Breed,
		Age:             p.Age,
		Description:     p.Description,
		Status:          string(p.Status),
		Characteristics: p.Characteristics,
		PhotoURL:        p.PhotoURL,
		AdopterID:       p.AdopterID,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
		AdoptedAt:       p.AdoptedAt,
	}
}

type CreatePetInput struct {
	Species string
	Info    entity.PetInfo
}

func (s *PetService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

func (s *PetService) log() *logrus.Logger {
	if s.Logger == nil {
		return logrus.StandardLogger()
	}
	return s.Logger
}

func petNotFound(id string) error {
	return apperror.NotFound(fmt.Sprintf("Pet with ID '%s' was not found.", id))
}

func (s *PetService) storeError(err error, id, msg string) error {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return petNotFound(id)
	case errors.Is(err, repo.ErrStaleWrite):
		return apperror.Conflict(msgPetModified)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return apperror.Internal(err)
	}
	s.log().WithError(err).WithField("pet_id", id).Error(msg)
	return apperror.Internal(err)
}

func (s *PetService) load(ctx context.Context, id string) (*entity.Pet, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, petNotFound(id)
	}
	p, err := s.Pets.GetByID(ctx, id)
	if err != nil {
		return nil, s.storeError(err, id, "load pet failed")
	}
	return p, nil
}

// Create registers a new Available pet.
func (s *PetService) Create(ctx context.Context, in CreatePetInput) (PetView, error) {
	species, ok := entity.ParseSpecies(in.Species)
	if !ok {
		species = entity.Species(in.Species)
	}
	p, err := entity.NewPet(species, in.Info, s.now())
	if err != nil {
		return PetView{}, err
	}
	if err := ctx.Err(); err != nil {
		return PetView{}, apperror.Internal(err)
	}
	if err := s.Pets.Insert(ctx, &p); err != nil {
		return PetView{}, s.storeError(err, p.ID, "insert pet failed")
	}
	view := NewPetView(p)
	s.indexPet(ctx, view)
	s.log().WithFields(logrus.Fields{"pet_id": p.ID, "species": p.Species}).Info("pet registered")
	return view, nil
}

// Get returns one pet, served from the cache when present. The snapshot is
// cached under the version it was loaded at.
func (s *PetService) Get(ctx context.Context, id string) (PetView, error) {
	if s.Cache != nil {
		if cached, ok, err := s.Cache.Get(ctx, id); err == nil && ok {
			return cached, nil
		}
	}
	p, err := s.load(ctx, id)
	if err != nil {
		return PetView{}, err
	}
	view := NewPetView(*p)
	if s.Cache != nil {
		if err := s.Cache.Put(ctx, view, p.Version); err != nil {
			s.log().WithError(err).WithField("pet_id", id).Warn("cache pet failed")
		}
	}
	return view, nil
}

func (s *PetService) ListAvailable(ctx context.Context) ([]PetView, error) {
	pets, err := s.Pets.ListByStatus(ctx, entity.PetStatusAvailable)
	if err != nil {
		return nil, s.storeError(err, "", "list available pets failed")
	}
	return toViews(pets), nil
}

func (s *PetService) ListBySpecies(ctx context.Context, species string) ([]PetView, error) {
	sp, ok := entity.ParseSpecies(species)
	if !ok {
		return nil, apperror.Validation(msgInvalidSpecies)
	}
	pets, err := s.Pets.ListBySpecies(ctx, sp)
	if err != nil {
		return nil, s.storeError(err, "", "list pets by species failed")
	}
	return toViews(pets), nil
}

func toViews(pets []entity.Pet) []PetView {
	out := make([]PetView, 0, len(pets))
	for _, p := range pets {
		out = append(out, NewPetView(p))
	}
	return out
}

func (s *PetService) UpdateInfo(ctx context.Context, id string, info entity.PetInfo) (PetView, error) {
	return s.apply(ctx, id, entity.ActionUpdateInfo, func(p entity.Pet, now time.Time) (entity.Pet, error) {
		return p.UpdateInfo(info, now)
	})
}

// MarkPending reserves the pet for adopterID.
func (s *PetService) MarkPending(ctx context.Context, id, adopterID string) (PetView, error) {
	return s.apply(ctx, id, entity.ActionMarkAsPending, func(p entity.Pet, now time.Time) (entity.Pet, error) {
		return p.MarkAsPending(adopterID, now)
	})
}

func (s *PetService) ConfirmAdoption(ctx context.Context, id string) (PetView, error) {
	return s.apply(ctx, id, entity.ActionConfirmAdoption, entity.Pet.ConfirmAdoption)
}

func (s *PetService) CancelAdoption(ctx context.Context, id string) (PetView, error) {
	return s.apply(ctx, id, entity.ActionCancelAdoption, entity.Pet.CancelAdoption)
}

func (s *PetService) ReturnToShelter(ctx context.Context, id string) (PetView, error) {
	return s.apply(ctx, id, entity.ActionReturnToShelter, entity.Pet.ReturnToShelter)
}

// UploadPhoto stores the image and records its URL. Adopted pets are
// rejected before anything is uploaded.
func (s *PetService) UploadPhoto(ctx context.Context, id string, r io.Reader, filename, contentType string) (PetView, error) {
	if s.Photos == nil {
		return PetView{}, apperror.Internal(errors.New("photo storage not configured"))
	}
	p, err := s.load(ctx, id)
	if err != nil {
		return PetView{}, err
	}
	if p.Status == entity.PetStatusAdopted {
		return PetView{}, apperror.InvalidTransition(string(p.Status), string(entity.ActionUploadPhoto))
	}

	ext := strings.ToLower(filepath.Ext(filename))
	objectPath := filepath.ToSlash(filepath.Join("pets", id, uuid.NewString()+ext))
	url, err := s.Photos.Upload(ctx, objectPath, contentType, r)
	if err != nil {
		s.log().WithError(err).WithField("pet_id", id).Error("upload pet photo failed")
		return PetView{}, apperror.Internal(err)
	}

	return s.apply(ctx, id, entity.ActionUploadPhoto, func(p entity.Pet, now time.Time) (entity.Pet, error) {
		return p.SetPhoto(url, now)
	})
}

// Delete removes a pet outside of the lifecycle.
func (s *PetService) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return petNotFound(id)
	}
	if err := ctx.Err(); err != nil {
		return apperror.Internal(err)
	}
	if err := s.Pets.Delete(ctx, id); err != nil {
		return s.storeError(err, id, "delete pet failed")
	}
	s.invalidate(ctx, id, deletedPetVersion)
	if s.Index != nil {
		if err := s.Index.Delete(ctx, id); err != nil {
			s.log().WithError(err).WithField("pet_id", id).Warn("remove pet from index failed")
		}
	}
	s.log().WithField("pet_id", id).Info("pet deleted")
	return nil
}

// Search runs a free text query against the index. Without an index it
// returns no results.
func (s *PetService) Search(ctx context.Context, query string, size int) ([]PetView, error) {
	if s.Index == nil || strings.TrimSpace(query) == "" {
		return []PetView{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	res, err := s.Index.Search(ctx, query, size)
	if err != nil {
		s.log().WithError(err).Error("pet search failed")
		return nil, apperror.Internal(err)
	}
	return res, nil
}

type transitionFunc func(entity.Pet, time.Time) (entity.Pet, error)

// apply runs one transition against the current row. A concurrent writer
// makes Update fail with ErrStaleWrite, which surfaces as Conflict.
func (s *PetService) apply(ctx context.Context, id string, action entity.PetAction, fn transitionFunc) (PetView, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return PetView{}, err
	}
	next, err := fn(*p, s.now())
	if err != nil {
		return PetView{}, err
	}
	if err := ctx.Err(); err != nil {
		return PetView{}, apperror.Internal(err)
	}
	if err := s.Pets.Update(ctx, &next); err != nil {
		return PetView{}, s.storeError(err, id, "update pet failed")
	}

	view := NewPetView(next)
	s.invalidate(ctx, id, next.Version)
	s.indexPet(ctx, view)
	if p.Status != next.Status {
		s.publish(ctx, *p, next, action)
	}
	s.log().WithFields(logrus.Fields{
		"pet_id": id,
		"action": action,
		"from":   p.Status,
		"to":     next.Status,
	}).Info("pet updated")
	return view, nil
}

func (s *PetService) invalidate(ctx context.Context, id string, version int64) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Invalidate(ctx, id, version); err != nil {
		s.log().WithError(err).WithField("pet_id", id).Warn("invalidate pet cache failed")
	}
}

func (s *PetService) indexPet(ctx context.Context, v PetView) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Index(ctx, v); err != nil {
		s.log().WithError(err).WithField("pet_id", v.ID).Warn("index pet failed")
	}
}

func (s *PetService) publish(ctx context.Context, prev, next entity.Pet, action entity.PetAction) {
	if s.Events == nil {
		return
	}
	adopter := next.AdopterID
	if adopter == "" {
		adopter = prev.AdopterID
	}
	evt := AdoptionEvent{
		PetID:      next.ID,
		PetName:    next.Name,
		Action:     string(action),
		From:       string(prev.Status),
		To:         string(next.Status),
		AdopterID:  adopter,
		OccurredAt: s.now(),
	}
	if err := s.Events.PublishJSON(ctx, evt); err != nil {
		s.log().WithError(err).WithField("pet_id", next.ID).Warn("publish adoption event failed")
	}
}
