package candidate

import (
	"time"

	"github.com/google/uuid"
)

type Candidate struct {
	ID        uuid.UUID
	FullName  string
	Email     string
	CreatedAt time.Time
}

// Placeholder identity returned to company readers before acceptance.
const (
	MaskedName  = "Confidential candidate"
	MaskedEmail = "masked@talent-split.invalid"
)

// Identity is the read-side projection of a candidate's identity fields.
// The id is always real so callers can still join on it.
type Identity struct {
	ID     uuid.UUID
	Name   string
	Email  string
	Masked bool
}

// Project applies the masking rule: company readers see placeholders until the
// application has been accepted by the company. The stored record is untouched;
// this is purely a view.
func Project(c Candidate, companyReader, acceptedByCompany bool) Identity {
	if companyReader && !acceptedByCompany {
		return Identity{ID: c.ID, Name: MaskedName, Email: MaskedEmail, Masked: true}
	}
	return Identity{ID: c.ID, Name: c.FullName, Email: c.Email}
}
