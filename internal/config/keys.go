package config

import (
	"encoding/base64"
	"errors"
	"strings"

	"github.com/gorilla/securecookie"
)

// SessionKeys holds freshly generated cookie keys in their .env encoding.
type SessionKeys struct {
	AuthKey string
	EncKey  string
}

// GenerateSessionKeys creates a 64-byte authentication key and a 32-byte
// encryption key, base64url encoded for SESSION_AUTH_KEY and SESSION_ENC_KEY.
func GenerateSessionKeys() (SessionKeys, error) {
	authKey := securecookie.GenerateRandomKey(64)
	if authKey == nil {
		return SessionKeys{}, errors.New("could not generate authentication key")
	}
	encKey := securecookie.GenerateRandomKey(32)
	if encKey == nil {
		return SessionKeys{}, errors.New("could not generate encryption key")
	}
	return SessionKeys{
		AuthKey: base64.URLEncoding.EncodeToString(authKey),
		EncKey:  base64.URLEncoding.EncodeToString(encKey),
	}, nil
}

func decodeKey(value string) ([]byte, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	return base64.URLEncoding.DecodeString(value)
}
