// Package jwtxtest builds unsigned tokens for tests. The signature segment is
// a fixed placeholder, the front door never verifies it.
package jwtxtest

import (
	"encoding/base64"
	"encoding/json"
	"time"
)

const header = "eyJhbGciOiJIUzI1NiJ9" // {"alg":"HS256"}

// Token encodes payload as the claims segment of a three-part token.
func Token(payload map[string]any) string {
	b, err := json.Marshal(payload)
	if err != nil {
		panic(err)
	}
	return header + "." + base64.RawURLEncoding.EncodeToString(b) + ".sig"
}

// Expiring returns a token for role that expires at exp.
func Expiring(role string, exp time.Time) string {
	return Token(map[string]any{
		"sub":   "user-1",
		"name":  "Ada Lovelace",
		"email": "ada@example.edu",
		"role":  role,
		"iat":   exp.Add(-time.Hour).Unix(),
		"exp":   exp.Unix(),
	})
}
