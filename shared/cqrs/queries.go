package cqrs

// GetBalanceQuery fetches the balance of the authenticated user.
type GetBalanceQuery struct {
	Username string
}
