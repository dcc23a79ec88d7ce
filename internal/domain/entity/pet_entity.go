package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/petlovers/petlovers-api/internal/domain/apperror"
	"github.com/petlovers/petlovers-api/pkg/validation"
)

// PetStatus drives which lifecycle actions are legal.
type PetStatus string

const (
	PetStatusAvailable PetStatus = "Available"
	PetStatusPending   PetStatus = "Pending"
	PetStatusAdopted   PetStatus = "Adopted"
)

// PetAction names a lifecycle command; it is reported back in
// InvalidStateTransition failures.
type PetAction string

const (
	ActionMarkAsPending   PetAction = "MarkAsPending"
	ActionConfirmAdoption PetAction = "ConfirmAdoption"
	ActionCancelAdoption  PetAction = "CancelAdoption"
	ActionReturnToShelter PetAction = "ReturnToShelter"
	ActionUpdateInfo      PetAction = "UpdateInfo"
	ActionUploadPhoto     PetAction = "UploadPhoto"
)

type petTransition struct {
	from PetStatus
	to   PetStatus
}

var petTransitions = map[PetAction]petTransition{
	ActionMarkAsPending:   {from: PetStatusAvailable, to: PetStatusPending},
	ActionConfirmAdoption: {from: PetStatusPending, to: PetStatusAdopted},
	ActionCancelAdoption:  {from: PetStatusPending, to: PetStatusAvailable},
	ActionReturnToShelter: {from: PetStatusAdopted, to: PetStatusAvailable},
}

type Species string

const (
	SpeciesDog     Species = "Dog"
	SpeciesCat     Species = "Cat"
	SpeciesBird    Species = "Bird"
	SpeciesRabbit  Species = "Rabbit"
	SpeciesFish    Species = "Fish"
	SpeciesReptile Species = "Reptile"
	SpeciesOther   Species = "Other"
)

var allSpecies = []Species{SpeciesDog, SpeciesCat, SpeciesBird, SpeciesRabbit, SpeciesFish, SpeciesReptile, SpeciesOther}

// ParseSpecies matches s case-insensitively against the known species.
func ParseSpecies(s string) (Species, bool) {
	s = strings.TrimSpace(s)
	for _, sp := range allSpecies {
		if strings.EqualFold(string(sp), s) {
			return sp, true
		}
	}
	return "", false
}

// Characteristics is a value object; equality is field-wise.
type Characteristics struct {
	Size         string `json:"size" validate:"required"`
	Color        string `json:"color" validate:"required"`
	CoatType     string `json:"coatType"`
	IsVaccinated bool   `json:"isVaccinated"`
	IsNeutered   bool   `json:"isNeutered"`
}

// PetInfo holds the descriptive fields replaced by UpdateInfo.
type PetInfo struct {
	Name            string          `json:"name" validate:"required,max=100"`
	Breed           string          `json:"breed" validate:"max=100"`
	Age             int             `json:"age" validate:"min=0,max=50"`
	Description     string          `json:"description" validate:"required,max=2000"`
	Characteristics Characteristics `json:"characteristics"`
}

type newPetInput struct {
	Species Species `json:"species" validate:"oneof=Dog Cat Bird Rabbit Fish Reptile Other"`
	PetInfo
}

var petMessages = map[string]string{
	"name.required":        "Pet name cannot be empty.",
	"name.max":             "Pet name cannot exceed 100 characters.",
	"breed.max":            "Breed cannot exceed 100 characters.",
	"age.min":              "Pet age cannot be negative.",
	"age.max":              "Pet age seems unrealistic. Please verify.",
	"description.required": "Pet description cannot be empty.",
	"description.max":      "Pet description cannot exceed 2000 characters.",
	"size.required":        "Size cannot be empty.",
	"color.required":       "Color cannot be empty.",
	"species.oneof":        "Invalid pet species.",
}

// Pet is an adoptable animal. Lifecycle methods have value receivers and
// return the transitioned copy or a typed failure; the receiver is never
// modified.
type Pet struct {
	ID              string
	Name            string
	Species         Species
	Breed           string
	Age             int
	Description     string
	Characteristics Characteristics
	Status          PetStatus
	// AdopterID is set by MarkAsPending and kept through ConfirmAdoption.
	// Only CancelAdoption and ReturnToShelter clear it.
	AdopterID string
	PhotoURL  string
	CreatedAt time.Time
	UpdatedAt *time.Time
	AdoptedAt *time.Time

	Version int64
}

func normalizeInfo(info PetInfo) PetInfo {
	info.Name = strings.TrimSpace(info.Name)
	info.Breed = strings.TrimSpace(info.Breed)
	info.Description = strings.TrimSpace(info.Description)
	info.Characteristics.Size = strings.TrimSpace(info.Characteristics.Size)
	info.Characteristics.Color = strings.TrimSpace(info.Characteristics.Color)
	info.Characteristics.CoatType = strings.TrimSpace(info.Characteristics.CoatType)
	return info
}

// NewPet validates the input and returns an Available pet.
func NewPet(species Species, info PetInfo, now time.Time) (Pet, error) {
	info = normalizeInfo(info)
	if msgs := validation.Messages(newPetInput{Species: species, PetInfo: info}, petMessages); len(msgs) > 0 {
		return Pet{}, apperror.Validation(msgs...)
	}
	p := Pet{
		ID:        uuid.NewString(),
		Species:   species,
		Status:    PetStatusAvailable,
		CreatedAt: now,
	}
	return p.withInfo(info), nil
}

func (p Pet) withInfo(info PetInfo) Pet {
	p.Name = info.Name
	p.Breed = info.Breed
	p.Age = info.Age
	p.Description = info.Description
	p.Characteristics = info.Characteristics
	return p
}

// Info returns the descriptive fields of p.
func (p Pet) Info() PetInfo {
	return PetInfo{
		Name:            p.Name,
		Breed:           p.Breed,
		Age:             p.Age,
		Description:     p.Description,
		Characteristics: p.Characteristics,
	}
}

func (p Pet) IsAvailableForAdoption() bool {
	return p.Status == PetStatusAvailable
}

// UpdateInfo replaces the descriptive fields. Adopted pets are frozen; the
// state check runs before field validation.
func (p Pet) UpdateInfo(info PetInfo, now time.Time) (Pet, error) {
	if p.Status == PetStatusAdopted {
		return p, apperror.InvalidTransition(string(p.Status), string(ActionUpdateInfo))
	}
	info = normalizeInfo(info)
	if msgs := validation.Messages(info, petMessages); len(msgs) > 0 {
		return p, apperror.Validation(msgs...)
	}
	p = p.withInfo(info)
	p.UpdatedAt = &now
	return p, nil
}

// SetPhoto records the stored photo location; same precondition as UpdateInfo.
func (p Pet) SetPhoto(url string, now time.Time) (Pet, error) {
	if p.Status == PetStatusAdopted {
		return p, apperror.InvalidTransition(string(p.Status), string(ActionUploadPhoto))
	}
	p.PhotoURL = url
	p.UpdatedAt = &now
	return p, nil
}

// MarkAsPending reserves the pet for adopterID.
func (p Pet) MarkAsPending(adopterID string, now time.Time) (Pet, error) {
	next, err := p.transition(ActionMarkAsPending, now)
	if err != nil {
		return p, err
	}
	adopterID = strings.TrimSpace(adopterID)
	if adopterID == "" || adopterID == uuid.Nil.String() {
		return p, apperror.Validation("Adopter ID cannot be empty.")
	}
	next.AdopterID = adopterID
	return next, nil
}

// ConfirmAdoption finalizes a pending adoption. AdopterID is retained.
func (p Pet) ConfirmAdoption(now time.Time) (Pet, error) {
	next, err := p.transition(ActionConfirmAdoption, now)
	if err != nil {
		return p, err
	}
	next.AdoptedAt = &now
	return next, nil
}

// CancelAdoption releases a pending reservation.
func (p Pet) CancelAdoption(now time.Time) (Pet, error) {
	next, err := p.transition(ActionCancelAdoption, now)
	if err != nil {
		return p, err
	}
	next.AdopterID = ""
	return next, nil
}

// ReturnToShelter makes an adopted pet available again.
func (p Pet) ReturnToShelter(now time.Time) (Pet, error) {
	next, err := p.transition(ActionReturnToShelter, now)
	if err != nil {
		return p, err
	}
	next.AdopterID = ""
	next.AdoptedAt = nil
	return next, nil
}

func (p Pet) transition(action PetAction, now time.Time) (Pet, error) {
	t, ok := petTransitions[action]
	if !ok || p.Status != t.from {
		return p, apperror.InvalidTransition(string(p.Status), string(action))
	}
	p.Status = t.to
	p.UpdatedAt = &now
	return p, nil
}
