package service

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hearthkeep/hearthkeep/internal/auth"
)

// AuthService handles registration and login.
type AuthService struct {
	authenticator *auth.PasswordAuthenticator
	jwtManager    *auth.JWTManager
}

// NewAuthService creates an AuthService.
func NewAuthService(authenticator *auth.PasswordAuthenticator, jwtManager *auth.JWTManager) *AuthService {
	return &AuthService{authenticator: authenticator, jwtManager: jwtManager}
}

// Register mounts the public auth routes.
func (s *AuthService) Register(g *echo.Group) {
	g.POST("/register", s.handleRegister)
	g.POST("/login", s.handleLogin)
}

type registerRequest struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type userResponse struct {
	Username string   `json:"username"`
	Groups   []string `json:"groups"`
}

func (s *AuthService) handleRegister(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	slog.Info("register request received", "username", req.Username)

	user, reason, err := s.authenticator.Register(c.Request().Context(), req.Username, req.Password, req.ConfirmPassword)
	if err != nil {
		slog.Error("register failed", "username", req.Username, "error", err)
		return httpError(err)
	}
	if reason != "" {
		slog.Warn("register rejected", "username", req.Username, "reason", reason)
		return echo.NewHTTPError(http.StatusBadRequest, reason)
	}

	slog.Info("user registered", "username", user.Username)
	return c.JSON(http.StatusCreated, userResponse{Username: user.Username, Groups: user.Groups})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

func (s *AuthService) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	user, err := s.authenticator.Authenticate(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			slog.Warn("login rejected", "username", req.Username)
			return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
		}
		slog.Error("login failed", "username", req.Username, "error", err)
		return httpError(err)
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		slog.Error("token generation failed", "username", req.Username, "error", err)
		return httpError(err)
	}

	slog.Info("login ok", "username", user.Username)
	return c.JSON(http.StatusOK, loginResponse{Token: token})
}
