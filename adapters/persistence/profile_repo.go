package persistence

import (
	"context"
	"encoding/json"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/encorestage/encore/internal/domain/profile"
	"github.com/encorestage/encore/internal/domain/record"
	"github.com/encorestage/encore/pkg/apperror"
	"github.com/encorestage/encore/pkg/logger"
)

type postgresProfileRepo struct {
	db     *pgxpool.Pool
	logger logger.Logger
}

func NewPostgresProfileRepo(db *pgxpool.Pool, logger logger.Logger) profile.Repository {
	return &postgresProfileRepo{db: db, logger: logger}
}

func (r *postgresProfileRepo) GetByOwner(ctx context.Context, ownerID string) (record.Row, error) {
	sql, args, err := psql.Select("*").
		From("profiles").
		Where(sq.Eq{"owner_id": ownerID}).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	row, err := pgx.CollectOneRow(rows, pgx.RowToMap)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("profile", ownerID)
		}
		return nil, err
	}
	return record.Row(row), nil
}

// Upsert replaces every column of an existing document; nothing is merged.
func (r *postgresProfileRepo) Upsert(ctx context.Context, row record.Row) error {
	ownerID := record.StringOr(row, "", "owner_id")

	jsonCols := map[string][]byte{}
	for _, col := range []string{"repertoire", "media", "career"} {
		v := row[col]
		if v == nil {
			v = []any{}
		}
		b, err := json.Marshal(v)
		if err != nil {
			return apperror.NewInternal("failed to marshal "+col, err)
		}
		jsonCols[col] = b
	}

	var avatar *string
	if s, ok := record.String(row, "avatar_url"); ok && s != "" {
		avatar = &s
	}

	query := `
		INSERT INTO profiles (owner_id, display_name, bio, location, voice_type, artist_type,
			avatar_url, schools, repertoire, media, career, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		ON CONFLICT (owner_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			bio = EXCLUDED.bio,
			location = EXCLUDED.location,
			voice_type = EXCLUDED.voice_type,
			artist_type = EXCLUDED.artist_type,
			avatar_url = EXCLUDED.avatar_url,
			schools = EXCLUDED.schools,
			repertoire = EXCLUDED.repertoire,
			media = EXCLUDED.media,
			career = EXCLUDED.career,
			updated_at = NOW()
	`
	_, err := r.db.Exec(ctx, query,
		ownerID,
		record.StringOr(row, "", "display_name"),
		record.StringOr(row, "", "bio"),
		record.StringOr(row, "", "location"),
		record.StringOr(row, "", "voice_type"),
		record.StringOr(row, "", "artist_type"),
		avatar,
		record.Strings(row, "schools"),
		jsonCols["repertoire"],
		jsonCols["media"],
		jsonCols["career"],
	)
	if err != nil {
		r.logger.Warn("Profile upsert failed", zap.String("owner_id", ownerID), zap.Error(err))
		return err
	}
	return nil
}
