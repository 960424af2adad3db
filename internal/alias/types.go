package alias

import (
	"strings"
	"time"
)

// Alias maps a previously seen input string to a library device.
type Alias struct {
	ID        string    `json:"id"`
	Text      string    `json:"alias"`
	DeviceID  string    `json:"device_id"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Normalize lowercases text, trims it and collapses internal whitespace to
// single spaces. It is the key under which aliases are stored and looked up.
func Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}
