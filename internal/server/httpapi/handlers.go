// Package httpapi is the REST surface: gin routes, the bearer-token gate and
// the ambient middleware around them.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/luminary-catalog/luminary/internal/common"
	"github.com/luminary-catalog/luminary/internal/logging"
	"github.com/luminary-catalog/luminary/internal/server/auth"
	"github.com/luminary-catalog/luminary/internal/server/models"
	"github.com/luminary-catalog/luminary/internal/server/services"
)

// AccountService is the account behaviour the handlers need.
type AccountService interface {
	Signup(ctx context.Context, username, email, password string) (*services.AuthResult, error)
	Login(ctx context.Context, email, password string) (*services.AuthResult, error)
	Profile(ctx context.Context, accountID string) (*models.Account, error)
	UpdateProfile(ctx context.Context, accountID string, upd services.ProfileUpdate) (*models.Account, error)
}

// GenreService is the genre behaviour the handlers need.
type GenreService interface {
	List(ctx context.Context) ([]models.Genre, error)
	Get(ctx context.Context, id string) (*models.Genre, error)
	Create(ctx context.Context, name, description string) (*models.Genre, error)
	Update(ctx context.Context, id string, upd services.GenreUpdate) (*models.Genre, error)
	Delete(ctx context.Context, id string) error
}

// ReadinessChecker is satisfied by *sql.DB.
type ReadinessChecker interface {
	PingContext(ctx context.Context) error
}

type handlers struct {
	accounts  AccountService
	genres    GenreService
	readiness ReadinessChecker
	logger    logging.Logger
}

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Message string             `json:"message"`
	Token   string             `json:"token"`
	User    models.AccountView `json:"user"`
}

type profileResponse struct {
	Message string             `json:"message"`
	User    models.ProfileView `json:"user"`
}

type profileUpdateRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

type genreRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

var (
	userNotFound  = errorCase{err: common.ErrorNotFound, status: http.StatusNotFound, message: "User not found"}
	genreNotFound = errorCase{err: common.ErrorNotFound, status: http.StatusNotFound, message: "Genre not found"}
)

func (h *handlers) signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, messageResponse{Message: msgInvalidJSON})
		return
	}

	res, err := h.accounts.Signup(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, authResponse{
		Message: "User created successfully",
		Token:   res.Token,
		User:    res.Account.View(),
	})
}

func (h *handlers) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, messageResponse{Message: msgInvalidJSON})
		return
	}

	res, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, authResponse{
		Message: "Login successful",
		Token:   res.Token,
		User:    res.Account.View(),
	})
}

func (h *handlers) profile(c *gin.Context) {
	id, ok := identityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, messageResponse{Message: auth.MsgInvalidToken})
		return
	}

	account, err := h.accounts.Profile(c.Request.Context(), id.ID)
	if err != nil {
		h.respondError(c, err, userNotFound)
		return
	}

	c.JSON(http.StatusOK, profileResponse{Message: "Protected profile data", User: account.Profile()})
}

func (h *handlers) updateProfile(c *gin.Context) {
	id, ok := identityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, messageResponse{Message: auth.MsgInvalidToken})
		return
	}

	var req profileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, messageResponse{Message: msgInvalidJSON})
		return
	}

	account, err := h.accounts.UpdateProfile(c.Request.Context(), id.ID, services.ProfileUpdate{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.respondError(c, err, userNotFound)
		return
	}

	c.JSON(http.StatusOK, profileResponse{Message: "Profile updated successfully", User: account.Profile()})
}

func (h *handlers) listGenres(c *gin.Context) {
	genres, err := h.genres.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, genres)
}

func (h *handlers) getGenre(c *gin.Context) {
	id, ok := genreID(c)
	if !ok {
		return
	}

	g, err := h.genres.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, genreNotFound)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (h *handlers) createGenre(c *gin.Context) {
	var req genreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, messageResponse{Message: msgInvalidJSON})
		return
	}

	var name, description string
	if req.Name != nil {
		name = *req.Name
	}
	if req.Description != nil {
		description = *req.Description
	}

	g, err := h.genres.Create(c.Request.Context(), name, description)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, g)
}

func (h *handlers) updateGenre(c *gin.Context) {
	id, ok := genreID(c)
	if !ok {
		return
	}

	var req genreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, messageResponse{Message: msgInvalidJSON})
		return
	}

	g, err := h.genres.Update(c.Request.Context(), id, services.GenreUpdate{Name: req.Name, Description: req.Description})
	if err != nil {
		h.respondError(c, err, genreNotFound)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (h *handlers) deleteGenre(c *gin.Context) {
	id, ok := genreID(c)
	if !ok {
		return
	}

	if err := h.genres.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, err, genreNotFound)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlers) ready(c *gin.Context) {
	if h.readiness != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := h.readiness.PingContext(ctx); err != nil {
			h.logger.Warn(ctx, "readiness check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// genreID validates the :id path parameter. Ids are UUIDs; anything else
// cannot exist.
func genreID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusNotFound, messageResponse{Message: genreNotFound.message})
		return "", false
	}
	return id, true
}
