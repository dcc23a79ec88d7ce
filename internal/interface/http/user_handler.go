package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/petlovers/petlovers-api/internal/application"
	"github.com/petlovers/petlovers-api/pkg/response"
	"github.com/petlovers/petlovers-api/pkg/validation"
)

// UserAdminAPI is implemented by *application.AuthService.
type UserAdminAPI interface {
	Deactivate(ctx context.Context, userID string) (application.UserView, error)
	Activate(ctx context.Context, userID string) (application.UserView, error)
	AssignRole(ctx context.Context, userID, role string) (application.UserView, error)
	RevokeRole(ctx context.Context, userID, role string) (application.UserView, error)
}

// UserHandler serves the admin user endpoints.
type UserHandler struct {
	Svc    UserAdminAPI
	Logger *logrus.Logger
}

func NewUserHandler(svc UserAdminAPI, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

type roleRequest struct {
	Role string `json:"role" binding:"required"`
}

func (h *UserHandler) reply(c *gin.Context, u application.UserView, err error, msg string) {
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, u, msg, nil)
}

// Deactivate POST /api/admin/users/:id/deactivate
func (h *UserHandler) Deactivate(c *gin.Context) {
	u, err := h.Svc.Deactivate(c.Request.Context(), c.Param("id"))
	h.reply(c, u, err, "user deactivated")
}

// Activate POST /api/admin/users/:id/activate
func (h *UserHandler) Activate(c *gin.Context) {
	u, err := h.Svc.Activate(c.Request.Context(), c.Param("id"))
	h.reply(c, u, err, "user activated")
}

// AssignRole POST /api/admin/users/:id/roles
func (h *UserHandler) AssignRole(c *gin.Context) {
	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Svc.AssignRole(c.Request.Context(), c.Param("id"), req.Role)
	h.reply(c, u, err, "role assigned")
}

// RevokeRole DELETE /api/admin/users/:id/roles/:role
func (h *UserHandler) RevokeRole(c *gin.Context) {
	u, err := h.Svc.RevokeRole(c.Request.Context(), c.Param("id"), c.Param("role"))
	h.reply(c, u, err, "role revoked")
}
