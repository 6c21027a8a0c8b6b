package usecase

import "github.com/google/uuid"

type Role string

const (
	RoleRecruiter Role = "recruiter"
	RoleCompany   Role = "company"
	RoleCandidate Role = "candidate"
	RoleAdmin     Role = "admin"
)

// Actor is the resolved caller identity handed in by the authorization
// boundary on every call.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

// CompanyReader reports whether masking applies to this actor's reads.
func (a Actor) CompanyReader() bool {
	return a.Role == RoleCompany
}
