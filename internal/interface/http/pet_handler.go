package handlers

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/petlovers/petlovers-api/internal/application"
	"github.com/petlovers/petlovers-api/internal/domain/apperror"
	"github.com/petlovers/petlovers-api/internal/domain/entity"
	"github.com/petlovers/petlovers-api/pkg/response"
	"github.com/petlovers/petlovers-api/pkg/validation"
)

const maxPhotoBytes = 5 << 20

// PetAPI is implemented by *application.PetService.
type PetAPI interface {
	Create(ctx context.Context, in application.CreatePetInput) (application.PetView, error)
	Get(ctx context.Context, id string) (application.PetView, error)
	ListAvailable(ctx context.Context) ([]application.PetView, error)
	ListBySpecies(ctx context.Context, species string) ([]application.PetView, error)
	Search(ctx context.Context, query string, size int) ([]application.PetView, error)
	UpdateInfo(ctx context.Context, id string, info entity.PetInfo) (application.PetView, error)
	MarkPending(ctx context.Context, id, adopterID string) (application.PetView, error)
	ConfirmAdoption(ctx context.Context, id string) (application.PetView, error)
	CancelAdoption(ctx context.Context, id string) (application.PetView, error)
	ReturnToShelter(ctx context.Context, id string) (application.PetView, error)
	UploadPhoto(ctx context.Context, id string, r io.Reader, filename, contentType string) (application.PetView, error)
	Delete(ctx context.Context, id string) error
}

type PetHandler struct {
	Svc    PetAPI
	Logger *logrus.Logger
}

func NewPetHandler(svc PetAPI, logger *logrus.Logger) *PetHandler {
	return &PetHandler{Svc: svc, Logger: logger}
}

type createPetRequest struct {
	Species string `json:"species"`
	entity.PetInfo
}

func (h *PetHandler) one(c *gin.Context, status int, v application.PetView, err error, msg string) {
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, status, v, msg, nil)
}

func (h *PetHandler) many(c *gin.Context, vs []application.PetView, err error) {
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, vs, "pets", map[string]any{"count": len(vs)})
}

// Available GET /api/pets/available
func (h *PetHandler) Available(c *gin.Context) {
	vs, err := h.Svc.ListAvailable(c.Request.Context())
	h.many(c, vs, err)
}

// BySpecies GET /api/pets/species/:species
func (h *PetHandler) BySpecies(c *gin.Context) {
	vs, err := h.Svc.ListBySpecies(c.Request.Context(), c.Param("species"))
	h.many(c, vs, err)
}

// Search GET /api/pets/search?q=&size=
func (h *PetHandler) Search(c *gin.Context) {
	size, _ := strconv.Atoi(c.Query("size"))
	vs, err := h.Svc.Search(c.Request.Context(), c.Query("q"), size)
	h.many(c, vs, err)
}

// Get GET /api/pets/:id
func (h *PetHandler) Get(c *gin.Context) {
	v, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	h.one(c, http.StatusOK, v, err, "pet")
}

// Create POST /api/pets
func (h *PetHandler) Create(c *gin.Context) {
	var req createPetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	v, err := h.Svc.Create(c.Request.Context(), application.CreatePetInput{Species: req.Species, Info: req.PetInfo})
	h.one(c, http.StatusCreated, v, err, "pet created")
}

// Update PUT /api/pets/:id
func (h *PetHandler) Update(c *gin.Context) {
	var info entity.PetInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	v, err := h.Svc.UpdateInfo(c.Request.Context(), c.Param("id"), info)
	h.one(c, http.StatusOK, v, err, "pet updated")
}

// Delete DELETE /api/pets/:id
func (h *PetHandler) Delete(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, map[string]any{"deleted": true}, "pet deleted", nil)
}

// UploadPhoto POST /api/pets/:id/photo (multipart field "photo")
func (h *PetHandler) UploadPhoto(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxPhotoBytes+1<<20)
	fh, err := c.FormFile("photo")
	if err != nil {
		respondError(c, h.Logger, apperror.Validation("A photo file is required."))
		return
	}
	if fh.Size > maxPhotoBytes {
		respondError(c, h.Logger, apperror.Validation("Photo cannot exceed 5 MB."))
		return
	}
	contentType := fh.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		respondError(c, h.Logger, apperror.Validation("Photo must be an image."))
		return
	}
	f, err := fh.Open()
	if err != nil {
		respondError(c, h.Logger, apperror.Internal(err))
		return
	}
	defer func() { _ = f.Close() }()

	v, err := h.Svc.UploadPhoto(c.Request.Context(), c.Param("id"), f, fh.Filename, contentType)
	h.one(c, http.StatusOK, v, err, "photo uploaded")
}

// Adopt POST /api/pets/:id/adopt
// The caller becomes the adopter.
func (h *PetHandler) Adopt(c *gin.Context) {
	uid, ok := userIDFrom(c)
	if !ok {
		return
	}
	v, err := h.Svc.MarkPending(c.Request.Context(), c.Param("id"), uid)
	h.one(c, http.StatusOK, v, err, "adoption requested")
}

// ConfirmAdoption POST /api/pets/:id/confirm-adoption
func (h *PetHandler) ConfirmAdoption(c *gin.Context) {
	v, err := h.Svc.ConfirmAdoption(c.Request.Context(), c.Param("id"))
	h.one(c, http.StatusOK, v, err, "adoption confirmed")
}

// CancelAdoption POST /api/pets/:id/cancel-adoption
func (h *PetHandler) CancelAdoption(c *gin.Context) {
	v, err := h.Svc.CancelAdoption(c.Request.Context(), c.Param("id"))
	h.one(c, http.StatusOK, v, err, "adoption cancelled")
}

// ReturnToShelter POST /api/pets/:id/return
func (h *PetHandler) ReturnToShelter(c *gin.Context) {
	v, err := h.Svc.ReturnToShelter(c.Request.Context(), c.Param("id"))
	h.one(c, http.StatusOK, v, err, "pet returned to shelter")
}
