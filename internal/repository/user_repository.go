package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/game-server-booking/internal/catalog"
	"github.com/iliyamo/game-server-booking/internal/utils"
)

// User mirrors the 'users' table.  Roles holds the chat role identifiers
// resolved for the user, stored as a comma-separated list; access specs
// in the catalog are evaluated against them.
type User struct {
	ID           uint64
	Username     string
	PasswordHash string
	Roles        []string
	CreatedAt    time.Time
}

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrUsernameExists = errors.New("username already exists")

// Create inserts a user and returns its ID.
func (r *UserRepo) Create(ctx context.Context, username, password string, roles []string, cost int) (uint64, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, password_hash, roles) VALUES (?,?,?)",
		username, hash, strings.Join(roles, ","))
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrUsernameExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByUsername fetches a user by normalized username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	return r.get(ctx, "SELECT id,username,password_hash,roles,created_at FROM users WHERE username=? LIMIT 1", username)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (User, error) {
	return r.get(ctx, "SELECT id,username,password_hash,roles,created_at FROM users WHERE id=? LIMIT 1", id)
}

// ResolveMember recovers the member identity (username plus role
// identifiers) for a booking keyed by username.  The reservation sweeper
// uses it when no authenticated caller is available.
func (r *UserRepo) ResolveMember(ctx context.Context, id string) (catalog.Member, error) {
	u, err := r.GetByUsername(ctx, id)
	if err != nil {
		return catalog.Member{}, err
	}
	return catalog.Member{ID: u.Username, Roles: u.Roles}, nil
}

func (r *UserRepo) get(ctx context.Context, query string, arg any) (User, error) {
	var (
		u     User
		roles string
	)
	err := r.DB.QueryRowContext(ctx, query, arg).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &roles, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrUserNotFound
	}
	if roles != "" {
		u.Roles = strings.Split(roles, ",")
	}
	return u, err
}
