package postgres

import (
	"context"
	"database/sql"

	"eventlottery/internal/domain"
)

type registrationReader struct {
	DB *sql.DB
}

func NewRegistrationReader(db *sql.DB) domain.RegistrationReader {
	return &registrationReader{
		DB: db,
	}
}

// RowsForEvent full-outer-joins entries and decisions on (event, entrant) so
// that a record missing its counterpart still comes back, flagged as an
// orphan, instead of disappearing from the view.
func (r *registrationReader) RowsForEvent(ctx context.Context, eventID string) ([]*domain.RegistrationRow, error) {
	query := `
		SELECT
			COALESCE(e.entrant_id, d.entrant_id) AS entrant_id,
			d.status,
			e.join_timestamp,
			e.invited_at,
			d.responded_at
		FROM waiting_list_entries e
		FULL OUTER JOIN decisions d
			ON d.event_id = e.event_id AND d.entrant_id = e.entrant_id
		WHERE COALESCE(e.event_id, d.event_id) = $1
		ORDER BY e.join_timestamp ASC NULLS LAST
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*domain.RegistrationRow, 0)
	for rows.Next() {
		row := &domain.RegistrationRow{}
		var status sql.NullString
		var joinTS, invitedAt, respondedAt sql.NullTime
		if err := rows.Scan(&row.EntrantID, &status, &joinTS, &invitedAt, &respondedAt); err != nil {
			return nil, err
		}
		if status.Valid {
			row.DecisionStatus = domain.DecisionStatus(status.String)
		} else {
			row.OrphanEntry = true
		}
		if joinTS.Valid {
			row.JoinTimestamp = &joinTS.Time
		} else {
			row.OrphanDecision = true
		}
		if invitedAt.Valid {
			row.InvitedAt = &invitedAt.Time
		}
		if respondedAt.Valid {
			row.RespondedAt = &respondedAt.Time
		}
		result = append(result, row)
	}
	return result, rows.Err()
}
