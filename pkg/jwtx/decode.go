package jwtx

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed = errors.New("jwtx: malformed token")
	ErrExpired   = errors.New("jwtx: token expired")
)

// segmentParser is only used for its base64url segment decoding; nothing in
// this package verifies signatures.
var segmentParser = jwt.NewParser(jwt.WithPaddingAllowed())

// Parse decodes the claims of a header.payload.signature token without
// verifying its signature. Any malformed input yields ErrMalformed.
func Parse(token string) (*Claims, error) {
	parts := strings.Split(strings.TrimSpace(token), ".")
	if len(parts) != 3 || parts[1] == "" {
		return nil, ErrMalformed
	}

	payload, err := segmentParser.DecodeSegment(parts[1])
	if err != nil {
		return nil, ErrMalformed
	}
	if !utf8.Valid(payload) {
		return nil, ErrMalformed
	}

	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil || raw == nil {
		return nil, ErrMalformed
	}
	// Reject trailing garbage after the object.
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, ErrMalformed
	}

	return claimsFromRaw(raw), nil
}

// Decode is Parse for callers that only care whether the token is usable.
// It never panics and returns nil, false for anything malformed.
func Decode(token string) (*Claims, bool) {
	c, err := Parse(token)
	if err != nil {
		return nil, false
	}
	return c, true
}

// Remaining is the time left on a credential after the skew tolerance.
type Remaining struct {
	Expired     bool
	SecondsLeft int
}

// TimeRemaining computes exp - now - skew. A nil claim set or a missing exp
// reads as expired.
func TimeRemaining(c *Claims, skew time.Duration, now time.Time) Remaining {
	if c == nil || c.ExpiresAt == nil {
		return Remaining{Expired: true}
	}

	left := c.ExpiresAt.Unix() - now.Unix() - int64(skew/time.Second)
	if left <= 0 {
		return Remaining{Expired: true}
	}
	return Remaining{SecondsLeft: int(left)}
}

// Validate returns ErrMalformed or ErrExpired when token cannot be used.
func Validate(token string, skew time.Duration, now time.Time) (*Claims, error) {
	c, err := Parse(token)
	if err != nil {
		return nil, err
	}
	if TimeRemaining(c, skew, now).Expired {
		return c, ErrExpired
	}
	return c, nil
}

// IsValid reports whether token decodes and is not expired under skew.
func IsValid(token string, skew time.Duration, now time.Time) bool {
	_, err := Validate(token, skew, now)
	return err == nil
}
