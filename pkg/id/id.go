package id

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

func Generate() string {
	return uuid.New().String()
}

func IsValidUUID(id string) (uuid.UUID, error) {
	return uuid.Parse(id)
}

// NewReference builds a locally prefixed ledger reference, e.g. "wd-<uuid>-<ns>".
func NewReference(prefix string) string {
	return fmt.Sprintf("%s-%s-%d", prefix, uuid.New().String(), time.Now().UnixNano())
}
