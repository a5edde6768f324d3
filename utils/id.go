package utils

import "github.com/oarkflow/xid"

// NewID returns a process-unique, roughly time-ordered identifier.
func NewID() xid.ID {
	return xid.New()
}
