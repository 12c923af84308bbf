package pool

import (
	"errors"
	"fmt"

	"vlossom/internal/amount"
)

var (
	// ErrUnauthorized means the acting user does not own the pool.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrPoolInactive means the pool is paused or closed.
	ErrPoolInactive = errors.New("pool is not active")
	// ErrInsufficientShares means a withdrawal asked for more shares than held.
	ErrInsufficientShares = errors.New("insufficient shares")
	// ErrGenesisExists means a genesis pool already exists.
	ErrGenesisExists = errors.New("genesis pool already exists")
)

// CapacityError rejects a deposit that would push the pool past its cap,
// reporting the exact remaining headroom.
type CapacityError struct {
	Cap       int64
	Remaining int64
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("pool capacity exceeded: %s remaining of %s cap",
		amount.Format(e.Remaining), amount.Format(e.Cap))
}
