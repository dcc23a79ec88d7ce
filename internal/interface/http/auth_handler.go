package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/petlovers/petlovers-api/internal/application"
	"github.com/petlovers/petlovers-api/internal/interface/middleware"
	"github.com/petlovers/petlovers-api/pkg/helpers"
	"github.com/petlovers/petlovers-api/pkg/response"
	"github.com/petlovers/petlovers-api/pkg/validation"
)

// AuthAPI is implemented by *application.AuthService.
type AuthAPI interface {
	Register(ctx context.Context, in application.RegisterInput) (application.AuthResult, error)
	Login(ctx context.Context, email, password string) (application.AuthResult, error)
	Refresh(ctx context.Context, accessToken, refreshToken string) (application.TokenPair, error)
	Logout(ctx context.Context, userID string) error
	Me(ctx context.Context, userID string) (application.UserView, error)
}

type AuthHandler struct {
	Svc     AuthAPI
	Logger  *logrus.Logger
	Cookies *helpers.CookieManager
}

func NewAuthHandler(svc AuthAPI, logger *logrus.Logger, cookies *helpers.CookieManager) *AuthHandler {
	return &AuthHandler{Svc: svc, Logger: logger, Cookies: cookies}
}

// Field rules live in the domain so that messages stay the same for every
// caller; binding only enforces the payload shape.
type registerRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func tokenMeta(p application.TokenPair) map[string]any {
	return map[string]any{"access_expires_at": p.AccessTokenExpiry, "refresh_expires_at": p.RefreshTokenExpiry}
}

func (h *AuthHandler) setCookies(c *gin.Context, p application.TokenPair) {
	if h.Cookies != nil {
		h.Cookies.SetPair(c, p.AccessToken, p.AccessTokenExpiry, p.RefreshToken, p.RefreshTokenExpiry)
	}
}

// Register POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	res, err := h.Svc.Register(c.Request.Context(), application.RegisterInput{
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	h.setCookies(c, res.Tokens)
	response.Success(c, http.StatusCreated, res, "registered", tokenMeta(res.Tokens))
}

// Login POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	res, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	h.setCookies(c, res.Tokens)
	response.Success(c, http.StatusOK, res, "login successful", tokenMeta(res.Tokens))
}

// Refresh POST /api/auth/refresh
// Tokens come from the body, falling back to the bearer header / cookies.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if c.Request.Body != nil && c.Request.Body != http.NoBody && c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
			return
		}
	}
	if req.AccessToken == "" {
		req.AccessToken = middleware.BearerToken(c)
	}
	if req.RefreshToken == "" && h.Cookies != nil {
		req.RefreshToken = h.Cookies.RefreshToken(c)
	}
	pair, err := h.Svc.Refresh(c.Request.Context(), req.AccessToken, req.RefreshToken)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	h.setCookies(c, pair)
	response.Success(c, http.StatusOK, pair, "token refreshed", tokenMeta(pair))
}

// Logout POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	uid, ok := userIDFrom(c)
	if !ok {
		return
	}
	if err := h.Svc.Logout(c.Request.Context(), uid); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	if h.Cookies != nil {
		h.Cookies.Clear(c)
	}
	response.Success[any](c, http.StatusOK, map[string]any{"logged_out": true}, "logged out", nil)
}

// Me GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	uid, ok := userIDFrom(c)
	if !ok {
		return
	}
	u, err := h.Svc.Me(c.Request.Context(), uid)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, u, "profile", nil)
}
