package jwt

import (
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// Role is the caller's resolved role. The engine trusts this resolution and
// never re-authenticates; tokens are minted by the authorization collaborator.
type Role string

const (
	RoleRecruiter Role = "recruiter"
	RoleCompany   Role = "company"
	RoleCandidate Role = "candidate"
	RoleAdmin     Role = "admin"
)

func ValidRole(r Role) bool {
	switch r {
	case RoleRecruiter, RoleCompany, RoleCandidate, RoleAdmin:
		return true
	default:
		return false
	}
}

type Claims struct {
	ActorID uuid.UUID `json:"actor_id"`
	Role    Role      `json:"role"`

	jwtlib.RegisteredClaims
}

type Service interface {
	GenerateActorToken(actorID uuid.UUID, role Role) (string, error)
	ValidateToken(tokenString string) (Claims, error)
}

type HMACService struct {
	secret    []byte
	expiresIn time.Duration

	now func() time.Time
}

func NewHMACService(secret string, expiresIn time.Duration) *HMACService {
	return &HMACService{
		secret:    []byte(secret),
		expiresIn: expiresIn,
		now:       time.Now,
	}
}

func (s *HMACService) GenerateActorToken(actorID uuid.UUID, role Role) (string, error) {
	if len(s.secret) == 0 || s.expiresIn <= 0 {
		return "", ErrTokenInvalid
	}
	if actorID == uuid.Nil || !ValidRole(role) {
		return "", ErrTokenInvalid
	}

	now := s.now().UTC()
	c := Claims{
		ActorID: actorID,
		Role:    role,
		RegisteredClaims: jwtlib.RegisteredClaims{
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(s.expiresIn)),
			Subject:   actorID.String(),
		},
	}

	t := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, c)
	return t.SignedString(s.secret)
}

func (s *HMACService) ValidateToken(tokenString string) (Claims, error) {
	p := jwtlib.NewParser(jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}))

	var c Claims
	tok, err := p.ParseWithClaims(tokenString, &c, func(token *jwtlib.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrTokenInvalid
	}
	if tok == nil || !tok.Valid {
		return Claims{}, ErrTokenInvalid
	}

	if c.ActorID == uuid.Nil || !ValidRole(c.Role) {
		return Claims{}, ErrTokenInvalid
	}

	return c, nil
}
