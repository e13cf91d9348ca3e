package auth

import (
	"encoding/base64"
	"errors"
	"strings"
)

var ErrMalformedBasic = errors.New("malformed basic credentials")

// ParseBasic decodes an "Authorization: Basic <base64(user:pass)>" value.
// The scheme is matched case-insensitively; the password may contain ':'.
func ParseBasic(header string) (username, password string, err error) {
	scheme, encoded, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Basic") {
		return "", "", ErrMalformedBasic
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return "", "", ErrMalformedBasic
	}

	username, password, ok = strings.Cut(string(decoded), ":")
	if !ok || username == "" {
		return "", "", ErrMalformedBasic
	}

	return username, password, nil
}

// ParseBearer extracts the raw token from an "Authorization: Bearer <t>" value.
func ParseBearer(header string) (string, bool) {
	scheme, raw, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}
