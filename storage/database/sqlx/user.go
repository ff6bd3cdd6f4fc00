package sqlxrepos

import (
	"context"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/soma/core"
	"github.com/trezcool/soma/core/user"
)

const usersTable = "users"

var userColumns = []string{
	"id", "name", "email", "role", "is_active", "token_version", "password_hash", "created_at", "updated_at", "last_login",
}

type userRow struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	Role         string    `db:"role"`
	IsActive     bool      `db:"is_active"`
	TokenVersion int       `db:"token_version"`
	PasswordHash []byte    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
	LastLogin    null.Time `db:"last_login"`
}

func (row userRow) toUser() user.User {
	usr := user.User{
		ID:           row.ID,
		Name:         row.Name,
		Email:        row.Email,
		Role:         row.Role,
		IsActive:     row.IsActive,
		TokenVersion: row.TokenVersion,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}
	if row.LastLogin.Valid {
		usr.LastLogin = row.LastLogin.Time.UTC()
	}
	return usr
}

func nullTime(t time.Time) null.Time {
	return null.NewTime(t, !t.IsZero())
}

type userRepository struct {
	db core.DBExecutor
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db core.DBExecutor) user.Repository {
	return &userRepository{db: db}
}

func countUsersByEmail(email string, excludedUsers ...user.User) squirrel.SelectBuilder {
	q := NewQueryBuilder().
		Select("COUNT(*)").
		From(usersTable).
		Where("LOWER(email) = ?", strings.ToLower(email))
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		q = q.Where(squirrel.NotEq{"id": ids})
	}
	return q
}

func (repo *userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...user.User) error {
	query, args, err := countUsersByEmail(email, excludedUsers...).ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	var count int
	if err = repo.db.GetContext(ctx, &count, query, args...); err != nil {
		return errors.Wrap(err, "counting users")
	}
	if count > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	query, args, err := NewQueryBuilder().
		Insert(usersTable).
		Columns(userColumns...).
		Values(
			usr.ID, usr.Name, usr.Email, usr.Role, usr.IsActive, usr.TokenVersion, usr.PasswordHash,
			usr.CreatedAt, usr.UpdatedAt, nullTime(usr.LastLogin),
		).
		ToSql()
	if err != nil {
		return user.User{}, errors.Wrap(err, "building query")
	}
	if _, err = repo.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func selectUser(filter user.GetFilter) squirrel.SelectBuilder {
	q := NewQueryBuilder().Select(userColumns...).From(usersTable)
	if filter.ID != "" {
		return q.Where(squirrel.Eq{"id": filter.ID})
	}
	return q.Where("LOWER(email) = ?", strings.ToLower(filter.Email))
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	if filter.ID == "" && filter.Email == "" {
		return user.User{}, user.ErrNotFound
	}
	if filter.ID != "" {
		if _, err := uuid.Parse(filter.ID); err != nil {
			return user.User{}, user.ErrNotFound
		}
	}

	query, args, err := selectUser(filter).ToSql()
	if err != nil {
		return user.User{}, errors.Wrap(err, "building query")
	}
	var row userRow
	if err = repo.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNoRows(err) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "selecting user")
	}
	return row.toUser(), nil
}

func (repo *userRepository) update(ctx context.Context, q squirrel.UpdateBuilder) (user.User, error) {
	query, args, err := q.Suffix("RETURNING " + strings.Join(userColumns, ", ")).ToSql()
	if err != nil {
		return user.User{}, errors.Wrap(err, "building query")
	}
	var row userRow
	if err = repo.db.GetContext(ctx, &row, query, args...); err != nil {
		switch {
		case isNoRows(err):
			return user.User{}, user.ErrNotFound
		case isUniqueViolation(err):
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "updating user")
	}
	return row.toUser(), nil
}

func updateUser(usr user.User) squirrel.UpdateBuilder {
	values := map[string]interface{}{
		"name":       usr.Name,
		"email":      usr.Email,
		"role":       usr.Role,
		"is_active":  usr.IsActive,
		"updated_at": usr.UpdatedAt,
		"last_login": nullTime(usr.LastLogin),
	}
	if usr.PasswordHash != nil {
		values["password_hash"] = usr.PasswordHash
	}
	return NewQueryBuilder().Update(usersTable).SetMap(values).Where(squirrel.Eq{"id": usr.ID})
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	return repo.update(ctx, updateUser(usr))
}

func (repo *userRepository) IncrementTokenVersion(ctx context.Context, id string) (user.User, error) {
	return repo.update(ctx, NewQueryBuilder().
		Update(usersTable).
		Set("token_version", squirrel.Expr("token_version + 1")).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": id}),
	)
}
