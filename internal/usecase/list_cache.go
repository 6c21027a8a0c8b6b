package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// ListCache backs the paginated query surface. Writes bump a version counter
// instead of hunting down every cached page.
type ListCache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
	GetInt(ctx context.Context, key string) (int64, error)
}

const applicationsListVersionKey = "applications:list:ver"

type applicationsListCacheKeyInput struct {
	Version     int64  `json:"version"`
	JobID       string `json:"job_id"`
	RecruiterID string `json:"recruiter_id"`
	CandidateID string `json:"candidate_id"`
	Stage       string `json:"stage"`
	Role        string `json:"role"`
	Limit       int    `json:"limit"`
	Offset      int    `json:"offset"`
}

func applicationsListCacheKey(version int64, params ApplicationListParams, role Role) string {
	in := applicationsListCacheKeyInput{
		Version: version,
		Stage:   params.Stage,
		Role:    string(role),
		Limit:   params.Limit,
		Offset:  params.Offset,
	}
	if params.JobID != nil {
		in.JobID = params.JobID.String()
	}
	if params.RecruiterID != nil {
		in.RecruiterID = params.RecruiterID.String()
	}
	if params.CandidateID != nil {
		in.CandidateID = params.CandidateID.String()
	}

	b, _ := json.Marshal(in)
	sum := sha256.Sum256(b)
	return fmt.Sprintf("applications:list:%s", hex.EncodeToString(sum[:]))
}
