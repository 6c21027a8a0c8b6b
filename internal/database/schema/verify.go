package schema

import (
	"context"
	"fmt"

	"talent-split/internal/database"
)

// core tables the engine cannot run without, with the columns code scans.
var coreTables = map[string][]string{
	"applications": {
		"id", "candidate_id", "job_id", "recruiter_id", "stage",
		"accepted_by_company", "primary_resume_id", "notes", "recruiter_notes",
		"created_at", "updated_at", "accepted_at",
	},
	"relationships": {
		"id", "recruiter_id", "candidate_id", "job_id", "status",
		"start_date", "end_date", "consent_given", "consent_source",
		"created_at", "updated_at",
	},
	"placements": {
		"id", "application_id", "recruiter_id", "salary_cents", "fee_percent",
		"fee_cents", "recruiter_share_percent", "recruiter_cents",
		"platform_cents", "hired_at", "compensates_for_placement_id",
	},
	"application_events": {
		"id", "application_id", "actor_id", "from_stage", "to_stage",
		"reason", "occurred_at",
	},
	"invitations": {
		"id", "recruiter_id", "candidate_id", "job_id", "token_hash",
		"status", "expires_at", "created_at", "updated_at",
	},
}

// VerifyCore fails fast at startup when the migrated schema misses columns the
// repositories read or write.
func VerifyCore(ctx context.Context, db database.DB) error {
	for table, columns := range coreTables {
		if err := ensureTableColumns(ctx, db, table, columns...); err != nil {
			return err
		}
	}
	return nil
}

func ensureTableColumns(ctx context.Context, db database.DB, table string, columns ...string) error {
	if db == nil {
		return fmt.Errorf("nil db")
	}

	rows, err := db.Query(
		ctx,
		`SELECT column_name FROM information_schema.columns WHERE table_schema='public' AND table_name=$1`,
		table,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	existing := map[string]struct{}{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return err
		}
		existing[c] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, col := range columns {
		if _, ok := existing[col]; !ok {
			return fmt.Errorf("schema mismatch: missing column %s.%s", table, col)
		}
	}
	return nil
}
