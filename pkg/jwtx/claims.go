package jwtx

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultSkew is subtracted from a token's expiry so it is treated as expired
// slightly early.
const DefaultSkew = 30 * time.Second

// DefaultDisplayName is used when a token carries no name claim.
const DefaultDisplayName = "Usuario"

// Roles issued by the federation. Matching is case-insensitive, resolved
// values are always upper-case.
const (
	RoleAdministrator = "ADMINISTRADOR"
	RoleTeacher       = "DOCENTE"
	RoleStudent       = "ALUMNO"
)

// roleClaimNames are checked in order. Issuers in the federation are not
// consistent about the claim name, this is a compatibility shim and NOT a
// security boundary: the role only drives what the dashboard shows.
var roleClaimNames = []string{"role", "rol", "Role"}

var nameClaimNames = []string{"name", "nombre"}

var subRoleClaimNames = []string{"sub_role", "subrole", "subRole"}

// OrgUnit is the organisational unit (career) a user belongs to.
type OrgUnit struct {
	ID   string `json:"uuid,omitempty"`
	Name string `json:"name,omitempty"`
}

// Claims are the access-token claims the front door reads. They are decoded
// without signature verification, trust is delegated to the issuing server.
type Claims struct {
	jwt.RegisteredClaims

	Name    string   `json:"name,omitempty"`
	Email   string   `json:"email,omitempty"`
	SubRole string   `json:"sub_role,omitempty"`
	OrgUnit *OrgUnit `json:"career,omitempty"`

	// Raw is the payload object exactly as decoded (numbers kept as
	// json.Number).
	Raw map[string]any `json:"-"`
}

// ResolvedRole returns the upper-cased role, or "" when no role claim holds
// a string.
func (c *Claims) ResolvedRole() string {
	if c == nil {
		return ""
	}
	for _, name := range roleClaimNames {
		if s, ok := c.Raw[name].(string); ok && strings.TrimSpace(s) != "" {
			return strings.ToUpper(strings.TrimSpace(s))
		}
	}
	return ""
}

// DisplayName returns the user's display name with a generic fallback.
func (c *Claims) DisplayName() string {
	if c == nil {
		return DefaultDisplayName
	}
	for _, name := range nameClaimNames {
		if s, ok := c.Raw[name].(string); ok && s != "" {
			return s
		}
	}
	return DefaultDisplayName
}

// IsKnownRole reports whether role is one of the federation roles.
func IsKnownRole(role string) bool {
	switch strings.ToUpper(role) {
	case RoleAdministrator, RoleTeacher, RoleStudent:
		return true
	default:
		return false
	}
}

// claimsFromRaw fills the typed fields from the raw payload. Fields with an
// unexpected type are left zero, so a garbled exp reads as "no expiry" and the
// token is treated as expired.
func claimsFromRaw(raw map[string]any) *Claims {
	c := &Claims{Raw: raw}

	c.Subject = stringClaim(raw, "sub")
	c.Issuer = stringClaim(raw, "iss")
	c.ID = stringClaim(raw, "jti")
	c.ExpiresAt = numericClaim(raw, "exp")
	c.IssuedAt = numericClaim(raw, "iat")
	c.NotBefore = numericClaim(raw, "nbf")

	if v, ok := raw["aud"]; ok {
		if b, err := json.Marshal(v); err == nil {
			var aud jwt.ClaimStrings
			if json.Unmarshal(b, &aud) == nil {
				c.Audience = aud
			}
		}
	}

	c.Name = stringClaim(raw, nameClaimNames...)
	c.Email = stringClaim(raw, "email")
	c.SubRole = stringClaim(raw, subRoleClaimNames...)

	if career, ok := raw["career"].(map[string]any); ok {
		unit := &OrgUnit{
			ID:   stringClaim(career, "uuid", "id"),
			Name: stringClaim(career, "name"),
		}
		if unit.ID != "" || unit.Name != "" {
			c.OrgUnit = unit
		}
	}

	return c
}

func stringClaim(raw map[string]any, names ...string) string {
	for _, name := range names {
		if s, ok := raw[name].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func numericClaim(raw map[string]any, name string) *jwt.NumericDate {
	n, ok := raw[name].(json.Number)
	if !ok {
		return nil
	}
	f, err := n.Float64()
	if err != nil {
		return nil
	}
	return jwt.NewNumericDate(time.Unix(int64(f), 0))
}
