package entity

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petlovers/petlovers-api/internal/domain/apperror"
)

var t0 = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func validInfo() PetInfo {
	return PetInfo{
		Name:        "Rex",
		Breed:       "Labrador",
		Age:         3,
		Description: "Friendly and calm.",
		Characteristics: Characteristics{
			Size:  "Large",
			Color: "Black",
		},
	}
}

func newAvailable(t *testing.T) Pet {
	t.Helper()
	p, err := NewPet(SpeciesDog, validInfo(), t0)
	require.NoError(t, err)
	return p
}

func requireTransitionErr(t *testing.T, err error, current PetStatus, action PetAction) {
	t.Helper()
	var ae *apperror.Error
	require.True(t, errors.As(err, &ae), "expected *apperror.Error, got %v", err)
	assert.Equal(t, apperror.KindInvalidStateTransition, ae.Kind)
	assert.Equal(t, string(current), ae.Current)
	assert.Equal(t, string(action), ae.Attempted)
}

func TestNewPet(t *testing.T) {
	p := newAvailable(t)
	assert.Equal(t, PetStatusAvailable, p.Status)
	assert.NotEmpty(t, p.ID)
	assert.Empty(t, p.AdopterID)
	assert.Nil(t, p.AdoptedAt)
	assert.Equal(t, t0, p.CreatedAt)
	assert.True(t, p.IsAvailableForAdoption())
}

func TestNewPetValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*PetInfo)
		want   string
	}{
		{"empty name", func(i *PetInfo) { i.Name = "   " }, "Pet name cannot be empty."},
		{"long name", func(i *PetInfo) { i.Name = strings.Repeat("a", 101) }, "Pet name cannot exceed 100 characters."},
		{"negative age", func(i *PetInfo) { i.Age = -1 }, "Pet age cannot be negative."},
		{"age 51", func(i *PetInfo) { i.Age = 51 }, "Pet age seems unrealistic. Please verify."},
		{"empty description", func(i *PetInfo) { i.Description = "" }, "Pet description cannot be empty."},
		{"long description", func(i *PetInfo) { i.Description = strings.Repeat("d", 2001) }, "Pet description cannot exceed 2000 characters."},
		{"missing size", func(i *PetInfo) { i.Characteristics.Size = "" }, "Size cannot be empty."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := validInfo()
			tt.mutate(&info)
			_, err := NewPet(SpeciesCat, info, t0)

			var ae *apperror.Error
			require.True(t, errors.As(err, &ae))
			assert.Equal(t, apperror.KindValidation, ae.Kind)
			assert.Contains(t, ae.Messages, tt.want)
		})
	}
}

func TestNewPetAgeBoundary(t *testing.T) {
	info := validInfo()
	info.Age = 50
	_, err := NewPet(SpeciesDog, info, t0)
	require.NoError(t, err)

	info.Age = 0
	_, err = NewPet(SpeciesDog, info, t0)
	require.NoError(t, err)
}

func TestNewPetRejectsUnknownSpecies(t *testing.T) {
	_, err := NewPet(Species("Dragon"), validInfo(), t0)
	require.ErrorIs(t, err, apperror.ErrValidation)
}

func TestMarkAsPending(t *testing.T) {
	p := newAvailable(t)
	later := t0.Add(time.Hour)

	pending, err := p.MarkAsPending("adopter-1", later)
	require.NoError(t, err)
	assert.Equal(t, PetStatusPending, pending.Status)
	assert.Equal(t, "adopter-1", pending.AdopterID)
	require.NotNil(t, pending.UpdatedAt)
	assert.Equal(t, later, *pending.UpdatedAt)

	// receiver untouched
	assert.Equal(t, PetStatusAvailable, p.Status)
	assert.Empty(t, p.AdopterID)

	_, err = pending.MarkAsPending("adopter-2", later)
	requireTransitionErr(t, err, PetStatusPending, ActionMarkAsPending)

	adopted, err := pending.ConfirmAdoption(later)
	require.NoError(t, err)
	_, err = adopted.MarkAsPending("adopter-2", later)
	requireTransitionErr(t, err, PetStatusAdopted, ActionMarkAsPending)
}

func TestMarkAsPendingRequiresAdopter(t *testing.T) {
	p := newAvailable(t)
	_, err := p.MarkAsPending(" ", t0)
	require.ErrorIs(t, err, apperror.ErrValidation)

	_, err = p.MarkAsPending("00000000-0000-0000-0000-000000000000", t0)
	require.ErrorIs(t, err, apperror.ErrValidation)
}

func TestConfirmAdoption(t *testing.T) {
	p := newAvailable(t)

	_, err := p.ConfirmAdoption(t0)
	requireTransitionErr(t, err, PetStatusAvailable, ActionConfirmAdoption)

	pending, err := p.MarkAsPending("adopter-1", t0)
	require.NoError(t, err)

	at := t0.Add(24 * time.Hour)
	adopted, err := pending.ConfirmAdoption(at)
	require.NoError(t, err)
	assert.Equal(t, PetStatusAdopted, adopted.Status)
	require.NotNil(t, adopted.AdoptedAt)
	assert.Equal(t, at, *adopted.AdoptedAt)
	assert.Equal(t, "adopter-1", adopted.AdopterID)
}

func TestCancelAdoption(t *testing.T) {
	p := newAvailable(t)

	_, err := p.CancelAdoption(t0)
	requireTransitionErr(t, err, PetStatusAvailable, ActionCancelAdoption)

	pending, err := p.MarkAsPending("adopter-1", t0)
	require.NoError(t, err)

	cancelled, err := pending.CancelAdoption(t0)
	require.NoError(t, err)
	assert.Equal(t, PetStatusAvailable, cancelled.Status)
	assert.Empty(t, cancelled.AdopterID)
}

func TestReturnToShelter(t *testing.T) {
	p := newAvailable(t)

	_, err := p.ReturnToShelter(t0)
	requireTransitionErr(t, err, PetStatusAvailable, ActionReturnToShelter)

	pending, err := p.MarkAsPending("adopter-1", t0)
	require.NoError(t, err)
	_, err = pending.ReturnToShelter(t0)
	requireTransitionErr(t, err, PetStatusPending, ActionReturnToShelter)

	adopted, err := pending.ConfirmAdoption(t0)
	require.NoError(t, err)

	returned, err := adopted.ReturnToShelter(t0)
	require.NoError(t, err)
	assert.Equal(t, PetStatusAvailable, returned.Status)
	assert.Empty(t, returned.AdopterID)
	assert.Nil(t, returned.AdoptedAt)
}

func TestUpdateInfo(t *testing.T) {
	p := newAvailable(t)

	info := validInfo()
	info.Name = "Max"
	updated, err := p.UpdateInfo(info, t0)
	require.NoError(t, err)
	assert.Equal(t, "Max", updated.Name)

	info.Age = 99
	_, err = p.UpdateInfo(info, t0)
	require.ErrorIs(t, err, apperror.ErrValidation)

	pending, err := p.MarkAsPending("adopter-1", t0)
	require.NoError(t, err)
	_, err = pending.UpdateInfo(validInfo(), t0)
	require.NoError(t, err)

	adopted, err := pending.ConfirmAdoption(t0)
	require.NoError(t, err)

	// rejected regardless of field validity
	_, err = adopted.UpdateInfo(validInfo(), t0)
	requireTransitionErr(t, err, PetStatusAdopted, ActionUpdateInfo)
	_, err = adopted.UpdateInfo(PetInfo{Age: 99}, t0)
	requireTransitionErr(t, err, PetStatusAdopted, ActionUpdateInfo)
}

func TestSetPhoto(t *testing.T) {
	p := newAvailable(t)
	withPhoto, err := p.SetPhoto("https://storage.googleapis.com/b/pets/1.jpg", t0)
	require.NoError(t, err)
	assert.Equal(t, "https://storage.googleapis.com/b/pets/1.jpg", withPhoto.PhotoURL)

	pending, _ := p.MarkAsPending("adopter-1", t0)
	adopted, _ := pending.ConfirmAdoption(t0)
	_, err = adopted.SetPhoto("x", t0)
	requireTransitionErr(t, err, PetStatusAdopted, ActionUploadPhoto)
}

func TestParseSpecies(t *testing.T) {
	sp, ok := ParseSpecies(" cat ")
	assert.True(t, ok)
	assert.Equal(t, SpeciesCat, sp)

	_, ok = ParseSpecies("unicorn")
	assert.False(t, ok)
}
