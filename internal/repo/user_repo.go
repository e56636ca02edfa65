package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
	"golang.org/x/crypto/bcrypt"
)

var ErrEmailTaken = errors.New("email already registered")

type User struct {
	ID           int64
	Email        string
	PasswordHash string
	CreatedAt    sql.NullTime
}

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

func (r *UserRepo) Create(ctx context.Context, u *User) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO users (user_id, email, password_hash, create_time) VALUES (?, ?, ?, NOW())
`, u.ID, u.Email, u.PasswordHash)
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == 1062 {
		return ErrEmailTaken
	}
	return err
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*User, bool, error) {
	var u User
	err := r.db.QueryRowContext(ctx, `
SELECT user_id, email, password_hash, create_time FROM users WHERE email = ?
`, email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &u, true, nil
}

func (r *UserRepo) FindByID(ctx context.Context, userID int64) (*User, bool, error) {
	var u User
	err := r.db.QueryRowContext(ctx, `
SELECT user_id, email, password_hash, create_time FROM users WHERE user_id = ?
`, userID).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &u, true, nil
}

func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(b), err
}

func CheckPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
