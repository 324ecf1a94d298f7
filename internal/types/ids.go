// internal/types/ids.go
package types

import (
	"strconv"

	"github.com/google/uuid"
)

// UserID is the Telegram user identifier. Sessions, history entries and
// gateway lanes are all keyed by it.
type UserID int64

type ChatID int64
type RunID string

func NewRunID() RunID {
	return RunID(uuid.New().String())
}

func (u UserID) String() string {
	return strconv.FormatInt(int64(u), 10)
}
