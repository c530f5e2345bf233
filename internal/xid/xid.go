package xid

import (
	"fmt"

	"github.com/google/uuid"
)

// New returns a prefixed unique id such as "sale-1b4e28ba-...".
func New(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString())
}
