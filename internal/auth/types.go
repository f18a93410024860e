// Package auth issues and validates the bearer tokens that identify
// accessors on the HTTP surface. Authentication proper (who gets a token)
// lives in the calling platform; this package only proves who is calling.
package auth

type Role string

const (
	RoleComplianceOfficer Role = "compliance-officer"
	RoleAuditor           Role = "auditor"
	RoleService           Role = "service"
	RoleAdmin             Role = "admin"
)

// Claims carries the accessor identity extracted from a verified token.
type Claims struct {
	Sub       string `json:"sub"` // accessor id
	Roles     []Role `json:"roles"`
	TokenID   string `json:"jti"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

func RoleNames(rs []Role) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = string(r)
	}
	return out
}
