package cqrs

import "github.com/eaglebank/ledger/shared/models"

type RegisterCommand struct {
	Username string
	Password string
}

// RegisterResult carries the created user and the tokens bound to it.
type RegisterResult struct {
	User   *models.User
	Tokens *models.TokenPair
}

// TransferCommand moves Amount from Source to Target. Source comes from a
// validated access token; Amount is parsed by the command service.
type TransferCommand struct {
	Source string
	Target string
	Amount string
}

type LoginCommand struct {
	Username string
	Password string
}

type RefreshTokenCommand struct {
	Token string
}
