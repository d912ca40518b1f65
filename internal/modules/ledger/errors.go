package ledger

import "errors"

// Trade failures. All recoverable; handlers translate them into the
// {success, message} payload the UI expects.
var (
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInsufficientShares = errors.New("insufficient shares")
	ErrInvalidShareCount  = errors.New("invalid share count")
	ErrInvalidPrice       = errors.New("invalid price")
	ErrPositionNotFound   = errors.New("position not found")
)
