package dashboard

import (
	"math/rand/v2"
	"strconv"
	"time"
)

// NewMessageID returns a locally unique chat message id: the current
// time in base36 plus a random suffix. Uniqueness is best-effort, not
// cryptographic.
func NewMessageID() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 36) +
		strconv.FormatUint(uint64(rand.Uint32()), 36)
}
