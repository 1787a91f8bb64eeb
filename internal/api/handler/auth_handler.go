package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/reto/edge-gateway/internal/api/metrics"
	"github.com/reto/edge-gateway/internal/core/domain"
	"github.com/reto/edge-gateway/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role,omitempty"`
}

type registerResponse struct {
	Message string `json:"message"`
	Email   string `json:"email"`
	Role    string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string `json:"token"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Register creates a new user account.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Email, password and optional role (ADMIN or CUSTOMER)"
// @Success      201   {object}  registerResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	user, err := h.authService.Register(c.Request().Context(), req.Email, req.Password, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmailTaken):
			metrics.RegistrationsTotal.WithLabelValues("conflict").Inc()
			return c.JSON(http.StatusConflict, map[string]string{"error": "email already registered"})
		case errors.Is(err, domain.ErrInvalidRole):
			metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid role, use ADMIN or CUSTOMER"})
		case errors.Is(err, domain.ErrInvalidCredentials):
			metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "email and password are required"})
		}
		return err
	}

	metrics.RegistrationsTotal.WithLabelValues("created").Inc()
	return c.JSON(http.StatusCreated, registerResponse{
		Message: "user created",
		Email:   user.Email,
		Role:    string(user.Role),
	})
}

// Login authenticates a user and returns a bearer token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	tokenString, user, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			// Unknown email and wrong password answer identically.
			metrics.LoginsTotal.WithLabelValues("failure").Inc()
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		}
		return err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	metrics.TokensIssuedTotal.Inc()
	return c.JSON(http.StatusOK, loginResponse{
		Token: tokenString,
		Email: user.Email,
		Role:  string(user.Role),
	})
}
