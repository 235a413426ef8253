package persistence

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/encorestage/encore/internal/domain/profile"
	"github.com/encorestage/encore/internal/domain/rendition"
	"github.com/encorestage/encore/pkg/apperror"
	"github.com/encorestage/encore/pkg/logger"
)

type postgresRenditionRepo struct {
	db     *pgxpool.Pool
	logger logger.Logger
}

func NewPostgresRenditionRepo(db *pgxpool.Pool, logger logger.Logger) rendition.Repository {
	return &postgresRenditionRepo{db: db, logger: logger}
}

func (r *postgresRenditionRepo) Upsert(ctx context.Context, rd *rendition.Rendition) error {
	query := `
		INSERT INTO media_renditions (source_url, thumbnail_url, kind, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (source_url) DO UPDATE SET
			thumbnail_url = EXCLUDED.thumbnail_url,
			kind = EXCLUDED.kind
	`
	_, err := r.db.Exec(ctx, query, rd.SourceURL, rd.ThumbnailURL, string(rd.Kind), rd.CreatedAt)
	if err != nil {
		return apperror.NewInternal("failed to upsert rendition", err)
	}
	return nil
}

func (r *postgresRenditionRepo) FindBySourceURLs(ctx context.Context, urls []string) (map[string]rendition.Rendition, error) {
	out := make(map[string]rendition.Rendition, len(urls))
	if len(urls) == 0 {
		return out, nil
	}

	sql, args, err := psql.Select("source_url", "thumbnail_url", "kind", "created_at").
		From("media_renditions").
		Where(sq.Eq{"source_url": urls}).
		ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build rendition query", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, apperror.NewInternal("failed to query renditions", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rd rendition.Rendition
		var kind string
		if err := rows.Scan(&rd.SourceURL, &rd.ThumbnailURL, &kind, &rd.CreatedAt); err != nil {
			return nil, apperror.NewInternal("failed to scan rendition", err)
		}
		rd.Kind = profile.ParseKind(kind)
		out[rd.SourceURL] = rd
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewInternal("error iterating rendition rows", err)
	}
	return out, nil
}
