package server

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bartrekker/admin-api/internal/assert"
	"github.com/bartrekker/admin-api/internal/auth"
	"github.com/bartrekker/admin-api/internal/models"
)

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents a login response
type LoginResponse struct {
	Token string         `json:"token"`
	User  *auth.Identity `json:"user"`
}

// SetupResponse represents the bootstrap outcome
type SetupResponse struct {
	Message string `json:"message"`
}

// setupAdmin bootstraps the configured administrator account. Idempotent:
// an already-provisioned admin reports success. The first successful setup
// also generates and persists the JWT signing secret.
func (s *Server) setupAdmin(c *gin.Context) {
	result := s.gateway.CreateAdmin(c.Request.Context())
	if !result.Success {
		c.JSON(http.StatusBadRequest, gin.H{"error": result.Message})
		return
	}

	if err := s.ensureJWTSecret(); err != nil {
		s.logger.Error().Err(err).Msg("Failed to initialize JWT secret")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to initialize system"})
		return
	}

	c.JSON(http.StatusOK, SetupResponse{Message: result.Message})
}

// ensureJWTSecret creates the settings singleton with a fresh signing
// secret on first setup
func (s *Server) ensureJWTSecret() error {
	var settings models.Settings
	if err := s.db.First(&settings).Error; err == nil {
		auth.InitializeJWT(settings.JWTSecret)
		return nil
	}

	// 64 hex characters = 32 bytes of randomness
	secretBytes := make([]byte, 32)
	if _, err := rand.Read(secretBytes); err != nil {
		return err
	}
	secret := hex.EncodeToString(secretBytes)
	assert.Length(secret, 64)

	settings = models.Settings{JWTSecret: secret}
	if err := s.db.Create(&settings).Error; err != nil {
		return err
	}

	auth.InitializeJWT(secret)
	return nil
}

// login authenticates the administrator and opens the session
func (s *Server) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := s.gateway.Login(c.Request.Context(), req.Email, req.Password)
	if !result.Success {
		c.JSON(http.StatusUnauthorized, gin.H{"error": result.Error})
		return
	}

	s.store.Login(c.Request.Context(), result.User)

	token, err := auth.GenerateToken(result.User)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{Token: token, User: result.User})
}

// logout closes the session. The store guarantees the transition to
// unauthenticated even when the provider sign-out fails.
func (s *Server) logout(c *gin.Context) {
	s.store.Logout(c.Request.Context())
	c.Status(http.StatusNoContent)
}

// getSession returns a snapshot of the session state
func (s *Server) getSession(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.State())
}

// getCurrentUser returns the authenticated administrator
func (s *Server) getCurrentUser(c *gin.Context) {
	user, exists := GetIdentity(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	c.JSON(http.StatusOK, user)
}
