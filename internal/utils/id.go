package utils

import (
	"strings"

	"github.com/google/uuid"
)

// NewToken returns a unique opaque token safe to use as a single IRC parameter.
func NewToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
