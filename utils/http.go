// utils/http.go - request value parsing shared by handlers and commands
package utils

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidID   = errors.New("invalid id")
	ErrInvalidUUID = errors.New("invalid uuid")
)

// ParseBool accepts true/false, 1/0, yes/no and on/off. Anything else,
// including an empty value, yields def.
func ParseBool(raw string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	}
	return def
}

// ParseUserID parses a positive numeric user id. Empty input returns 0, nil.
func ParseUserID(raw string) (uint, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return 0, ErrInvalidID
	}
	return uint(n), nil
}

func ParseUUID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, ErrInvalidUUID
	}
	return id, nil
}

// FormatTime renders t as RFC 3339 in UTC, or nil for a nil time.
func FormatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}
