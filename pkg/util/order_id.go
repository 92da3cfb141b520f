package util

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewOrderID returns a grouping token for one checkout action. The timestamp
// prefix keeps gateway transaction references human-sortable; the uuid suffix
// guarantees uniqueness across instances.
func NewOrderID() string {
	return fmt.Sprintf("%s-%s", time.Now().Format("20060102150405"), uuid.NewString()[:8])
}
