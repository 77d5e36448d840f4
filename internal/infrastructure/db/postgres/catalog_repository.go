package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/neurodex/neurodex/internal/core/domain"
)

// CatalogRepository is the Postgres-backed catalog registry.
type CatalogRepository struct {
	db *sql.DB
}

func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) ListLayerTypes(ctx context.Context) ([]domain.LayerType, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT layer_type_id, display_name, description FROM layer_types ORDER BY display_name`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := []domain.LayerType{}
	for rows.Next() {
		var lt domain.LayerType
		if err := rows.Scan(&lt.ID, &lt.DisplayName, &lt.Description); err != nil {
			return nil, err
		}
		out = append(out, lt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		params, err := r.parameters(ctx, `layer_type_parameters`, `layer_type_id`, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Parameters = params
	}
	return out, nil
}

func (r *CatalogRepository) GetLayerType(ctx context.Context, id string) (*domain.LayerType, error) {
	var lt domain.LayerType
	err := r.db.QueryRowContext(ctx,
		`SELECT layer_type_id, display_name, description FROM layer_types WHERE layer_type_id = $1`, id).
		Scan(&lt.ID, &lt.DisplayName, &lt.Description)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: layer type %q", domain.ErrNotFound, id)
		}
		return nil, err
	}
	lt.Parameters, err = r.parameters(ctx, `layer_type_parameters`, `layer_type_id`, id)
	if err != nil {
		return nil, err
	}
	return &lt, nil
}

func (r *CatalogRepository) CreateLayerType(ctx context.Context, lt domain.LayerType) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertLayerType(ctx, tx, lt); err != nil {
		return mapError(err)
	}
	return tx.Commit()
}

// DeleteLayerType removes the type and its parameter definitions. The RESTRICT
// foreign key on model_layers surfaces as ErrInUse through mapError.
func (r *CatalogRepository) DeleteLayerType(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM layer_types WHERE layer_type_id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: layer type %q", domain.ErrNotFound, id)
	}
	return nil
}

func (r *CatalogRepository) ListFunctions(ctx context.Context) ([]domain.Function, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT function_id, display_name, description FROM functions ORDER BY display_name`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := []domain.Function{}
	for rows.Next() {
		var fn domain.Function
		if err := rows.Scan(&fn.ID, &fn.DisplayName, &fn.Description); err != nil {
			return nil, err
		}
		out = append(out, fn)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		params, err := r.parameters(ctx, `function_parameters`, `function_id`, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Parameters = params
	}
	return out, nil
}

func (r *CatalogRepository) GetFunction(ctx context.Context, id string) (*domain.Function, error) {
	var fn domain.Function
	err := r.db.QueryRowContext(ctx,
		`SELECT function_id, display_name, description FROM functions WHERE function_id = $1`, id).
		Scan(&fn.ID, &fn.DisplayName, &fn.Description)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: function %q", domain.ErrNotFound, id)
		}
		return nil, err
	}
	fn.Parameters, err = r.parameters(ctx, `function_parameters`, `function_id`, id)
	if err != nil {
		return nil, err
	}
	return &fn, nil
}

func (r *CatalogRepository) CreateFunction(ctx context.Context, fn domain.Function) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertFunction(ctx, tx, fn); err != nil {
		return mapError(err)
	}
	return tx.Commit()
}

func (r *CatalogRepository) AddFunctionParameter(ctx context.Context, functionID string, p domain.Parameter) (*domain.Function, error) {
	var ordinal int
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(ordinal) + 1, 0) FROM function_parameters WHERE function_id = $1`, functionID).
		Scan(&ordinal)
	if err != nil {
		return nil, err
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO function_parameters (function_id, name, description, type, default_value, required, ordinal)
		 SELECT $1, $2, $3, $4, $5, $6, $7 WHERE EXISTS (SELECT 1 FROM functions WHERE function_id = $1)
		 ON CONFLICT (function_id, name) DO UPDATE
		 SET description = EXCLUDED.description, type = EXCLUDED.type, default_value = EXCLUDED.default_value, required = EXCLUDED.required`,
		functionID, p.Name, p.Description, p.Type, p.DefaultValue, p.Required, ordinal)
	if err != nil {
		return nil, mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: function %q", domain.ErrNotFound, functionID)
	}

	return r.GetFunction(ctx, functionID)
}

func (r *CatalogRepository) DeleteFunction(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM functions WHERE function_id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: function %q", domain.ErrNotFound, id)
	}
	return nil
}

// Import writes the external catalog in one transaction. Without replace,
// entries that already exist are skipped so local edits survive re-imports.
// With replace, the whole catalog is dropped first; a layer type still
// referenced by a model layer aborts the transaction with ErrInUse.
func (r *CatalogRepository) Import(ctx context.Context, layerTypes []domain.LayerType, functions []domain.Function, replace bool) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if replace {
		var inUse bool
		err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM model_layers)`).Scan(&inUse)
		if err != nil {
			return err
		}
		if inUse {
			return fmt.Errorf("%w: catalog entries are referenced by existing model layers", domain.ErrInUse)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM layer_types`); err != nil {
			return mapError(err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM functions`); err != nil {
			return mapError(err)
		}
	}

	// Existence is checked up front: a failed statement would poison the
	// transaction, so duplicates are skipped rather than caught.
	for _, lt := range layerTypes {
		if !replace {
			exists, err := rowExists(ctx, tx, `SELECT EXISTS (SELECT 1 FROM layer_types WHERE layer_type_id = $1)`, lt.ID)
			if err != nil {
				return err
			}
			if exists {
				continue
			}
		}
		if err := insertLayerType(ctx, tx, lt); err != nil {
			return mapError(err)
		}
	}
	for _, fn := range functions {
		if !replace {
			exists, err := rowExists(ctx, tx, `SELECT EXISTS (SELECT 1 FROM functions WHERE display_name = $1)`, fn.DisplayName)
			if err != nil {
				return err
			}
			if exists {
				continue
			}
		}
		if err := insertFunction(ctx, tx, fn); err != nil {
			return mapError(err)
		}
	}

	return tx.Commit()
}

func (r *CatalogRepository) parameters(ctx context.Context, table, keyColumn, id string) ([]domain.Parameter, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT name, description, type, default_value, required FROM %s WHERE %s = $1 ORDER BY ordinal`,
		table, keyColumn), id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := []domain.Parameter{}
	for rows.Next() {
		var p domain.Parameter
		if err := rows.Scan(&p.Name, &p.Description, &p.Type, &p.DefaultValue, &p.Required); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func rowExists(ctx context.Context, tx *sql.Tx, query string, arg any) (bool, error) {
	var exists bool
	err := tx.QueryRowContext(ctx, query, arg).Scan(&exists)
	return exists, err
}

func insertLayerType(ctx context.Context, tx *sql.Tx, lt domain.LayerType) error {
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO layer_types (layer_type_id, display_name, description) VALUES ($1, $2, $3)`,
		lt.ID, lt.DisplayName, lt.Description); err != nil {
		return err
	}
	for i, p := range lt.Parameters {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO layer_type_parameters (layer_type_id, name, description, type, default_value, required, ordinal)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			lt.ID, p.Name, p.Description, p.Type, p.DefaultValue, p.Required, i); err != nil {
			return err
		}
	}
	return nil
}

func insertFunction(ctx context.Context, tx *sql.Tx, fn domain.Function) error {
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO functions (function_id, display_name, description) VALUES ($1, $2, $3)`,
		fn.ID, fn.DisplayName, fn.Description); err != nil {
		return err
	}
	for i, p := range fn.Parameters {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO function_parameters (function_id, name, description, type, default_value, required, ordinal)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			fn.ID, p.Name, p.Description, p.Type, p.DefaultValue, p.Required, i); err != nil {
			return err
		}
	}
	return nil
}
