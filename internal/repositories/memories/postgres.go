package memories

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/photodiary/internal/common"
	"github.com/dmitrijs2005/photodiary/internal/dbx"
	"github.com/dmitrijs2005/photodiary/internal/models"
	"github.com/google/uuid"
)

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, d models.NewDocument) (models.Document, error) {
	query := `INSERT INTO memories (image_url, caption, storage_path)
		VALUES ($1, $2, $3)
		RETURNING id, date`

	result := models.Document{
		ImageURL:    d.ImageURL,
		Caption:     d.Caption,
		StoragePath: d.StoragePath,
	}
	err := r.db.QueryRowContext(ctx, query, d.ImageURL, d.Caption, d.StoragePath).Scan(&result.ID, &result.Date)
	if err != nil {
		return models.Document{}, fmt.Errorf("failed to insert memory: %w", err)
	}
	return result, nil
}

// Delete removes the memory with the given id. Unknown or malformed ids
// return common.ErrNotFound.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("memory %q: %w", id, common.ErrNotFound)
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM memories WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete memory: %w", err)
	}

	if err := dbx.ExpectOneRow(res); err != nil {
		if errors.Is(err, common.ErrNoRowsAffected) {
			return fmt.Errorf("memory %q: %w", id, common.ErrNotFound)
		}
		return err
	}
	return nil
}

func (r *PostgresRepository) ListOrdered(ctx context.Context) ([]models.Document, error) {
	query := `SELECT id, image_url, caption, storage_path, date FROM memories
		ORDER BY date DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select memories: %w", err)
	}
	defer rows.Close()

	result := make([]models.Document, 0)
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(&d.ID, &d.ImageURL, &d.Caption, &d.StoragePath, &d.Date); err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) StoragePaths(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT storage_path FROM memories`)
	if err != nil {
		return nil, fmt.Errorf("failed to select storage paths: %w", err)
	}
	defer rows.Close()

	result := make(map[string]struct{})
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		result[p] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
