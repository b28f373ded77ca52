package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/eaglebank/ledger/shared/cqrs"
	"github.com/eaglebank/ledger/shared/middleware"
	"github.com/eaglebank/ledger/shared/models"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// AccountCommander defines the write-side operations used by AccountHandler.
type AccountCommander interface {
	Transfer(context.Context, cqrs.TransferCommand) (*models.Transfer, error)
}

// AccountQuerier defines the read-side operations used by AccountHandler.
type AccountQuerier interface {
	GetBalance(context.Context, cqrs.GetBalanceQuery) (*models.BalanceView, error)
}

// AccountHandler serves the balance and transaction endpoints. Both sit
// behind AuthMiddleware, which puts the caller's username in the context.
type AccountHandler struct {
	commands AccountCommander
	queries  AccountQuerier
}

// TransactionRequest accepts amount as a JSON number or a numeric string.
type TransactionRequest struct {
	Amount json.Number `json:"amount" form:"amount" validate:"required"`
	Target string      `json:"target" form:"target" validate:"required,max=80"`
}

// BalanceResponse renders the balance as a JSON number without going
// through float64.
type BalanceResponse struct {
	Username string      `json:"username"`
	Balance  json.Number `json:"balance"`
}

func NewAccountHandler(commands AccountCommander, queries AccountQuerier) *AccountHandler {
	return &AccountHandler{commands: commands, queries: queries}
}

func (h *AccountHandler) GetBalance(c *gin.Context) {
	username, ok := middleware.GetUsername(c)
	if !ok {
		middleware.RespondWithError(c, http.StatusUnauthorized, "Missing Authorization Header")
		return
	}

	view, err := h.queries.GetBalance(c.Request.Context(), cqrs.GetBalanceQuery{Username: username})
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			middleware.RespondWithError(c, http.StatusNotFound, fmt.Sprintf("User %s doesn't exist", username))
			return
		}
		middleware.RespondWithError(c, http.StatusInternalServerError, "Something went wrong while reading the balance")
		return
	}

	c.JSON(http.StatusOK, BalanceResponse{
		Username: view.Username,
		Balance:  json.Number(view.Balance.String()),
	})
}

func (h *AccountHandler) Transfer(c *gin.Context) {
	username, ok := middleware.GetUsername(c)
	if !ok {
		middleware.RespondWithError(c, http.StatusUnauthorized, "Missing Authorization Header")
		return
	}

	var req TransactionRequest
	if !bindAndValidate(c, &req) {
		return
	}

	transfer, err := h.commands.Transfer(c.Request.Context(), cqrs.TransferCommand{
		Source: username,
		Target: req.Target,
		Amount: req.Amount.String(),
	})
	if err != nil {
		switch {
		case errors.Is(err, models.ErrTargetNotFound):
			middleware.RespondWithError(c, http.StatusNotFound, fmt.Sprintf("Target user %s doesn't exist", req.Target))
		case errors.Is(err, models.ErrUserNotFound):
			middleware.RespondWithError(c, http.StatusNotFound, fmt.Sprintf("User %s doesn't exist", username))
		case errors.Is(err, models.ErrInvalidAmount):
			middleware.RespondWithError(c, http.StatusBadRequest, "A transaction is expected to have an amount greater than 0")
		case errors.Is(err, models.ErrSelfTransfer):
			middleware.RespondWithError(c, http.StatusBadRequest, "A transaction is expected to have a target other than the sender")
		case errors.Is(err, models.ErrInsufficientFunds):
			middleware.RespondWithError(c, http.StatusUnprocessableEntity, fmt.Sprintf(
				"User %s requested to transfer %s to user %s, however the credit is not enough", username, displayAmount(req.Amount), req.Target))
		default:
			middleware.RespondWithError(c, http.StatusInternalServerError, fmt.Sprintf(
				"Something went wrong while moving %s to user %s", displayAmount(req.Amount), req.Target))
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Successfully moved %s from %s to %s", transfer.Amount.String(), transfer.Source, transfer.Target),
	})
}

// displayAmount renders amount the way a committed transfer reports it, so
// 1e2 and 100.0 both read as 100.
func displayAmount(amount json.Number) string {
	d, err := decimal.NewFromString(amount.String())
	if err != nil {
		return amount.String()
	}
	return d.String()
}
