package persistence

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/encorestage/encore/internal/domain/opportunity"
	"github.com/encorestage/encore/internal/domain/record"
	"github.com/encorestage/encore/pkg/logger"
)

type postgresOpportunityRepo struct {
	db     *pgxpool.Pool
	logger logger.Logger
}

func NewPostgresOpportunityRepo(db *pgxpool.Pool, logger logger.Logger) opportunity.Repository {
	return &postgresOpportunityRepo{db: db, logger: logger}
}

// List selects whole rows; the column set varies between deployments and the
// normaliser sorts out naming.
func (r *postgresOpportunityRepo) List(ctx context.Context, q opportunity.Query) ([]record.Row, error) {
	builder := psql.Select("*").
		From("opportunities").
		OrderBy("deadline ASC")
	if len(q.Filter) > 0 {
		builder = builder.Where(sq.Eq(q.Filter))
	}

	sql, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	records, err := collectRecords(rows)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("Listed opportunities", zap.Int("count", len(records)))
	return records, nil
}
