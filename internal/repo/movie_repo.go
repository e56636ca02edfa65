// Package repo holds the MySQL repositories: movies, per-user reaction
// records and users.
package repo

import (
	"context"
	"database/sql"
	"time"
)

type Movie struct {
	ID          int64
	Title       string
	Description string
	Thumbnail   string
	URL         string
	SharerID    int64
	SharerEmail string
	LikeCount   int64
	UnlikeCount int64
	CreatedAt   time.Time
}

type MovieRepo struct {
	db *sql.DB
}

func NewMovieRepo(db *sql.DB) *MovieRepo { return &MovieRepo{db: db} }

func (r *MovieRepo) Create(ctx context.Context, m *Movie) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO movies (movie_id, title, description, thumbnail, url, sharer_id, like_count, unlike_count, create_time)
VALUES (?, ?, ?, ?, ?, ?, 0, 0, NOW())
`, m.ID, m.Title, m.Description, m.Thumbnail, m.URL, m.SharerID)
	return err
}

// List returns the newest movies first, with the sharer's email joined in,
// plus the total row count for pagination.
func (r *MovieRepo) List(ctx context.Context, skip, limit int) ([]Movie, int64, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT m.movie_id, m.title, m.description, m.thumbnail, m.url, m.sharer_id, u.email,
       m.like_count, m.unlike_count, m.create_time
FROM movies m
JOIN users u ON u.user_id = m.sharer_id
ORDER BY m.movie_id DESC
LIMIT ? OFFSET ?
`, limit, skip)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]Movie, 0, limit)
	for rows.Next() {
		var m Movie
		if err := rows.Scan(&m.ID, &m.Title, &m.Description, &m.Thumbnail, &m.URL,
			&m.SharerID, &m.SharerEmail, &m.LikeCount, &m.UnlikeCount, &m.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM movies`).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// UpdateCounters writes a counter snapshot unconditionally
// (last-writer-wins; the flush path owns these two columns).
func (r *MovieRepo) UpdateCounters(ctx context.Context, movieID, like, unlike int64) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE movies SET like_count = ?, unlike_count = ? WHERE movie_id = ?
`, like, unlike, movieID)
	return err
}

func (r *MovieRepo) Exists(ctx context.Context, movieID int64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM movies WHERE movie_id = ?`, movieID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
