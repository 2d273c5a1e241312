package layout

import (
	"encoding/hex"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// NewID returns prefix_<time><random>. IDs are never reused, even after the
// node they named is deleted, so a counter would not do.
func NewID(prefix string) string {
	u := uuid.New()
	return prefix + "_" + strconv.FormatInt(time.Now().UnixNano(), 36) + hex.EncodeToString(u[:4])
}
