package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/eaglebank/ledger/internal/token"
	"github.com/eaglebank/ledger/shared/cqrs"
	"github.com/eaglebank/ledger/shared/middleware"
	"github.com/eaglebank/ledger/shared/models"
	"github.com/eaglebank/ledger/shared/utils"
	"github.com/gin-gonic/gin"
)

// AuthCommander defines the write-side operations used by AuthHandler.
type AuthCommander interface {
	Register(context.Context, cqrs.RegisterCommand) (*cqrs.RegisterResult, error)
}

// AuthQuerier defines the read-side operations used by AuthHandler.
type AuthQuerier interface {
	Login(context.Context, cqrs.LoginCommand) (*models.TokenPair, error)
	RefreshToken(context.Context, cqrs.RefreshTokenCommand) (string, error)
}

// AuthHandler serves registration, login, token refresh and logout.
type AuthHandler struct {
	commands AuthCommander
	queries  AuthQuerier
}

type CredentialsRequest struct {
	Username string `json:"username" form:"username" validate:"required,max=80"`
	Password string `json:"password" form:"password" validate:"required,max=72"`
}

type TokenPairResponse struct {
	Message      string `json:"message"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type AccessTokenResponse struct {
	AccessToken string `json:"access_token"`
}

func NewAuthHandler(commands AuthCommander, queries AuthQuerier) *AuthHandler {
	return &AuthHandler{commands: commands, queries: queries}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req CredentialsRequest
	if !bindAndValidate(c, &req) {
		return
	}

	res, err := h.commands.Register(c.Request.Context(), cqrs.RegisterCommand{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, models.ErrUserExists):
			middleware.RespondWithError(c, http.StatusConflict, fmt.Sprintf("User %s already exists", req.Username))
			return
		case errors.Is(err, models.ErrPasswordTooLong):
			middleware.RespondWithError(c, http.StatusBadRequest, fmt.Sprintf("Password must be at most %d bytes", utils.MaxPasswordLength))
			return
		}
		middleware.RespondWithError(c, http.StatusInternalServerError, "Something went wrong while creating the user")
		return
	}

	c.JSON(http.StatusCreated, TokenPairResponse{
		Message:      fmt.Sprintf("User %s was created", req.Username),
		AccessToken:  res.Tokens.AccessToken,
		RefreshToken: res.Tokens.RefreshToken,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req CredentialsRequest
	if !bindAndValidate(c, &req) {
		return
	}

	pair, err := h.queries.Login(c.Request.Context(), cqrs.LoginCommand{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, models.ErrUserNotFound):
			middleware.RespondWithError(c, http.StatusNotFound, fmt.Sprintf("User %s doesn't exist", req.Username))
		case errors.Is(err, models.ErrInvalidCredentials):
			middleware.RespondWithError(c, http.StatusUnauthorized, "Wrong credentials")
		default:
			middleware.RespondWithError(c, http.StatusInternalServerError, "Something went wrong while logging in")
		}
		return
	}

	c.JSON(http.StatusOK, TokenPairResponse{
		Message:      fmt.Sprintf("Logged in as %s", req.Username),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// RefreshToken expects the refresh token as the bearer credential.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	refreshToken, ok := middleware.BearerToken(c)
	if !ok {
		middleware.RespondWithError(c, http.StatusUnauthorized, "Missing Authorization Header")
		return
	}

	access, err := h.queries.RefreshToken(c.Request.Context(), cqrs.RefreshTokenCommand{Token: refreshToken})
	if err != nil {
		switch {
		case errors.Is(err, token.ErrWrongTokenType):
			middleware.RespondWithError(c, http.StatusUnauthorized, "Only refresh tokens are allowed")
		case errors.Is(err, token.ErrInvalidToken):
			middleware.RespondWithError(c, http.StatusUnauthorized, "Invalid or expired token")
		default:
			middleware.RespondWithError(c, http.StatusInternalServerError, "Something went wrong while refreshing the token")
		}
		return
	}

	c.JSON(http.StatusOK, AccessTokenResponse{AccessToken: access})
}

// Logout is a no-op: tokens are stateless and expire on their own.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}
