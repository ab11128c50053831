package postgres

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"beneficio/internal/core/id"
	"beneficio/internal/domain/auth"
)

// Compile-time check.
var _ auth.UserRepository = (*UserRepo)(nil)

// UserRepo persists users.
type UserRepo struct {
	baseRepo[auth.User]
}

// NewUserRepo creates the user repository.
func NewUserRepo(txm *TxManager) *UserRepo {
	return &UserRepo{baseRepo: newBaseRepo[auth.User](txm, "users")}
}

func (r *UserRepo) Create(ctx context.Context, u *auth.User) error {
	return r.insert(ctx, u)
}

func (r *UserRepo) GetByID(ctx context.Context, userID id.ID) (*auth.User, error) {
	return r.getByID(ctx, userID)
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*auth.User, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"username": username}).
		Limit(1)

	return r.findOne(ctx, q, username)
}

func (r *UserRepo) Update(ctx context.Context, u *auth.User) error {
	return r.update(ctx, u)
}

func (r *UserRepo) List(ctx context.Context, soloActivos bool) ([]auth.User, error) {
	q := r.baseSelect().OrderBy("username ASC")

	if soloActivos {
		q = q.Where(squirrel.Eq{"is_active": true})
	}

	return r.selectMany(ctx, q)
}

func (r *UserRepo) Exists(ctx context.Context, username string) (bool, error) {
	q := r.builder().
		Select("1").
		From(r.tableName).
		Where(squirrel.Eq{"username": username}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return false, err
	}

	var exists int
	err = r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&exists)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}
