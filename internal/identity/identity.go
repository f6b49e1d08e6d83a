package identity

import (
	"strconv"

	"github.com/google/uuid"
)

// namespace is fixed so the same Telegram ID always derives the same key.
var namespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// FromTelegramID derives a stable UUIDv5 key from a Telegram numeric user ID.
// The mapping is one-way and collision-resistant enough for keying storage
// rows; it is not a cryptographic identity.
func FromTelegramID(telegramID int64) string {
	return uuid.NewSHA1(namespace, []byte(strconv.FormatInt(telegramID, 10))).String()
}
