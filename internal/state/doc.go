// Package state holds ephemeral per-user conversation state.
package state

import "github.com/user/kinobot/internal/types"

// Compile-time interface compliance check.
var _ types.SessionStore = (*SessionStore)(nil)
