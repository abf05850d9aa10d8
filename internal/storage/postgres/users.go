package postgres

import (
	"context"

	"github.com/Heidric/workify/internal/model"
	"github.com/Heidric/workify/internal/storage"
	"github.com/huandu/go-sqlbuilder"
	"github.com/pkg/errors"
)

var userColumns = []string{"id", "email", "name", "role", "password_hash", "password_temporary", "created_at"}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	sb := sqlbuilder.NewSelectBuilder()
	sb.Select(userColumns...).
		From(`"user"`).
		Where(sb.Equal("email", email))

	var user model.User
	if err := s.get(ctx, &user, sb, "get user by email"); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Storage) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	sb := sqlbuilder.NewSelectBuilder()
	sb.Select(userColumns...).
		From(`"user"`).
		Where(sb.Equal("id", id))

	var user model.User
	if err := s.get(ctx, &user, sb, "get user by ID"); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Storage) CreateUser(ctx context.Context, user *model.User) (int64, error) {
	ib := sqlbuilder.NewInsertBuilder()
	ib.InsertInto(`"user"`).
		Cols("email", "name", "role", "password_hash", "password_temporary").
		Values(user.Email, user.Name, user.Role, user.Password, user.PasswordTemporary)

	return s.insertReturningID(ctx, ib, "create user")
}

func (s *Storage) SetNewPassword(ctx context.Context, userID int64, passwordHash string, temporary bool) error {
	ub := sqlbuilder.NewUpdateBuilder()
	ub.Update(`"user"`).
		Set(
			ub.Assign("password_hash", passwordHash),
			ub.Assign("password_temporary", temporary),
		).
		Where(ub.Equal("id", userID))

	query, args := ub.BuildWithFlavor(sqlbuilder.PostgreSQL)
	res, err := s.db.GetConn().ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "set new password")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.ErrEntityNotFound
	}
	return nil
}

func applyUserFilter(sb *sqlbuilder.SelectBuilder, q model.UserListQuery) {
	if q.Role != "" {
		sb.Where(sb.Equal("role", q.Role))
	}
}

func (s *Storage) ListUsers(ctx context.Context, q model.UserListQuery) ([]model.User, error) {
	sb := sqlbuilder.NewSelectBuilder()
	sb.Select(userColumns...).From(`"user"`)
	applyUserFilter(sb, q)
	sb.OrderBy("id").Limit(q.Limit).Offset(q.Offset)

	users := []model.User{}
	if err := s.selectAll(ctx, &users, sb, "list users"); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Storage) CountUsers(ctx context.Context, q model.UserListQuery) (int64, error) {
	sb := sqlbuilder.NewSelectBuilder()
	sb.Select("COUNT(1)").From(`"user"`)
	applyUserFilter(sb, q)

	var total int64
	if err := s.get(ctx, &total, sb, "count users"); err != nil {
		return 0, err
	}
	return total, nil
}
