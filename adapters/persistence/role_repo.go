package persistence

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/encorestage/encore/internal/domain/user"
	"github.com/encorestage/encore/pkg/logger"
)

type postgresRoleRepo struct {
	db     *pgxpool.Pool
	logger logger.Logger
}

func NewPostgresRoleRepo(db *pgxpool.Pool, logger logger.Logger) user.RoleRepository {
	return &postgresRoleRepo{db: db, logger: logger}
}

func (r *postgresRoleRepo) FindRole(ctx context.Context, userID string) (user.Role, error) {
	query := `SELECT role FROM user_roles WHERE user_id = $1`

	var role *string
	err := r.db.QueryRow(ctx, query, userID).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.RoleBasic, nil
		}
		return "", err
	}
	if role == nil {
		return user.RoleBasic, nil
	}
	return user.ParseRole(*role), nil
}
