package repo

import (
	"context"
	"database/sql"

	"github.com/g21-super-team/funny-movies-be/internal/reaction"
)

// ReactionRepo stores the durable source of truth for per-user reaction
// state: one row per (post, user), upserted, never duplicated.
type ReactionRepo struct {
	db *sql.DB
}

func NewReactionRepo(db *sql.DB) *ReactionRepo { return &ReactionRepo{db: db} }

func (r *ReactionRepo) Upsert(ctx context.Context, postID, userID int64, st reaction.State) error {
	// relies on UNIQUE KEY (post_id, user_id)
	_, err := r.db.ExecContext(ctx, `
INSERT INTO movie_reactions (post_id, user_id, reaction_state, update_time)
VALUES (?, ?, ?, NOW())
ON DUPLICATE KEY UPDATE reaction_state = VALUES(reaction_state), update_time = NOW()
`, postID, userID, string(st))
	return err
}

func (r *ReactionRepo) Find(ctx context.Context, postID, userID int64) (reaction.State, bool, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, `
SELECT reaction_state FROM movie_reactions WHERE post_id = ? AND user_id = ?
`, postID, userID).Scan(&raw)
	if err == sql.ErrNoRows {
		return reaction.Idle, false, nil
	}
	if err != nil {
		return reaction.Idle, false, err
	}
	st, err := reaction.ParseState(raw)
	if err != nil {
		return reaction.Idle, false, err
	}
	return st, true, nil
}

// ListAll streams every record; the reconciliation job replays them into
// the counter cache.
func (r *ReactionRepo) ListAll(ctx context.Context) ([]reaction.Record, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT post_id, user_id, reaction_state, update_time FROM movie_reactions
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []reaction.Record
	for rows.Next() {
		var rec reaction.Record
		var raw string
		if err := rows.Scan(&rec.PostID, &rec.UserID, &raw, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		st, err := reaction.ParseState(raw)
		if err != nil {
			return nil, err
		}
		rec.State = st
		out = append(out, rec)
	}
	return out, rows.Err()
}
