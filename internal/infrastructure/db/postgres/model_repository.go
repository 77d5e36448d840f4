package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/neurodex/neurodex/internal/core/domain"
)

// querier is satisfied by both *sql.DB and *sql.Tx so aggregate loading can
// run inside or outside a transaction.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// ModelRepository persists the Model aggregate. Mutations go through Mutate,
// which serializes concurrent edits of the same model with a row-level lock.
type ModelRepository struct {
	db *sql.DB
}

func NewModelRepository(db *sql.DB) *ModelRepository {
	return &ModelRepository{db: db}
}

func (r *ModelRepository) Create(ctx context.Context, m *domain.Model) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO models (model_id, name, owner_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		m.ID, m.Name, m.OwnerID, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		if errors.Is(mapError(err), domain.ErrDuplicateKey) {
			return fmt.Errorf("%w: model name %q already in use", domain.ErrValidation, m.Name)
		}
		return mapError(err)
	}
	return nil
}

func (r *ModelRepository) FindByID(ctx context.Context, id string) (*domain.Model, error) {
	return loadModel(ctx, r.db, id, false)
}

func (r *ModelRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Model, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT model_id FROM models WHERE owner_id = $1 ORDER BY updated_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	models := make([]*domain.Model, 0, len(ids))
	for _, id := range ids {
		m, err := loadModel(ctx, r.db, id, false)
		if err != nil {
			return nil, err
		}
		models = append(models, m)
	}
	return models, nil
}

func (r *ModelRepository) NameExists(ctx context.Context, ownerID, name, excludeID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM models WHERE owner_id = $1 AND name = $2 AND model_id <> $3)`,
		ownerID, name, excludeID).Scan(&exists)
	return exists, err
}

// Mutate loads the aggregate under a FOR UPDATE lock on the model row,
// applies fn, and rewrites the aggregate before committing. Concurrent
// mutations of the same model queue on the lock, so fn always sees the state
// the previous committer left behind; a failed fn rolls everything back.
func (r *ModelRepository) Mutate(ctx context.Context, modelID string, fn func(*domain.Model) error) (*domain.Model, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	model, err := loadModel(ctx, tx, modelID, true)
	if err != nil {
		return nil, err
	}

	if err := fn(model); err != nil {
		return nil, err
	}

	if err := saveAggregate(ctx, tx, model); err != nil {
		return nil, mapError(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, mapError(err)
	}
	return model, nil
}

// Delete removes the model; layers, activators and value rows cascade.
func (r *ModelRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM models WHERE model_id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: model %q", domain.ErrNotFound, id)
	}
	return nil
}

func (r *ModelRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM models`).Scan(&n)
	return n, err
}

// loadModel reads the full aggregate. forUpdate locks the model row for the
// lifetime of the enclosing transaction.
func loadModel(ctx context.Context, q querier, id string, forUpdate bool) (*domain.Model, error) {
	query := `SELECT model_id, name, owner_id, created_at, updated_at FROM models WHERE model_id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	m := &domain.Model{Layers: []*domain.ModelLayer{}, Activators: []*domain.ModelActivator{}}
	err := q.QueryRowContext(ctx, query, id).Scan(&m.ID, &m.Name, &m.OwnerID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: model %q", domain.ErrNotFound, id)
		}
		return nil, err
	}

	if err := loadLayers(ctx, q, m); err != nil {
		return nil, err
	}
	if err := loadActivators(ctx, q, m); err != nil {
		return nil, err
	}
	return m, nil
}

func loadLayers(ctx context.Context, q querier, m *domain.Model) error {
	rows, err := q.QueryContext(ctx,
		`SELECT model_layer_id, layer_type_id, name, position
		 FROM model_layers WHERE model_id = $1 ORDER BY position`, m.ID)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	byID := map[string]*domain.ModelLayer{}
	for rows.Next() {
		layer := &domain.ModelLayer{Parameters: map[string]domain.Value{}}
		if err := rows.Scan(&layer.ID, &layer.TypeID, &layer.Name, &layer.Position); err != nil {
			return err
		}
		m.Layers = append(m.Layers, layer)
		byID[layer.ID] = layer
	}
	if err := rows.Err(); err != nil {
		return err
	}

	paramRows, err := q.QueryContext(ctx,
		`SELECT p.model_layer_id, p.name, p.value_kind, p.primitive_value, p.ref_layer_id
		 FROM model_layer_parameters p
		 JOIN model_layers l ON l.model_layer_id = p.model_layer_id
		 WHERE l.model_id = $1`, m.ID)
	if err != nil {
		return err
	}
	defer func() { _ = paramRows.Close() }()

	for paramRows.Next() {
		var (
			layerID, name string
			value         domain.Value
		)
		if err := paramRows.Scan(&layerID, &name, &value.Kind, &value.Primitive, &value.LayerID); err != nil {
			return err
		}
		if layer, ok := byID[layerID]; ok {
			layer.Parameters[name] = value
		}
	}
	return paramRows.Err()
}

func loadActivators(ctx context.Context, q querier, m *domain.Model) error {
	rows, err := q.QueryContext(ctx,
		`SELECT model_activator_id, kind, function_id, ref_layer_id, position
		 FROM model_activators WHERE model_id = $1 ORDER BY position`, m.ID)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	byID := map[string]*domain.ModelActivator{}
	for rows.Next() {
		activator := &domain.ModelActivator{Parameters: map[string]domain.Value{}}
		if err := rows.Scan(&activator.ID, &activator.Kind, &activator.FunctionID, &activator.LayerID, &activator.Position); err != nil {
			return err
		}
		m.Activators = append(m.Activators, activator)
		byID[activator.ID] = activator
	}
	if err := rows.Err(); err != nil {
		return err
	}

	paramRows, err := q.QueryContext(ctx,
		`SELECT p.model_activator_id, p.name, p.value_kind, p.primitive_value, p.ref_layer_id
		 FROM model_activator_parameters p
		 JOIN model_activators a ON a.model_activator_id = p.model_activator_id
		 WHERE a.model_id = $1`, m.ID)
	if err != nil {
		return err
	}
	defer func() { _ = paramRows.Close() }()

	for paramRows.Next() {
		var (
			activatorID, name string
			value             domain.Value
		)
		if err := paramRows.Scan(&activatorID, &name, &value.Kind, &value.Primitive, &value.LayerID); err != nil {
			return err
		}
		if activator, ok := byID[activatorID]; ok {
			activator.Parameters[name] = value
		}
	}
	return paramRows.Err()
}

// saveAggregate rewrites the model row and all children. Children are
// deleted and reinserted: models hold tens of rows and the rewrite keeps the
// persistence path trivially consistent with the in-memory aggregate.
func saveAggregate(ctx context.Context, tx querier, m *domain.Model) error {
	if _, err := tx.ExecContext(ctx,
		`UPDATE models SET name = $2, updated_at = $3 WHERE model_id = $1`,
		m.ID, m.Name, m.UpdatedAt); err != nil {
		return err
	}

	// Value rows cascade with their parents.
	if _, err := tx.ExecContext(ctx, `DELETE FROM model_layers WHERE model_id = $1`, m.ID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM model_activators WHERE model_id = $1`, m.ID); err != nil {
		return err
	}

	for _, layer := range m.Layers {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO model_layers (model_layer_id, model_id, layer_type_id, name, position)
			 VALUES ($1, $2, $3, $4, $5)`,
			layer.ID, m.ID, layer.TypeID, layer.Name, layer.Position); err != nil {
			return err
		}
	}
	for _, layer := range m.Layers {
		for name, value := range layer.Parameters {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO model_layer_parameters (model_layer_id, name, value_kind, primitive_value, ref_layer_id)
				 VALUES ($1, $2, $3, $4, $5)`,
				layer.ID, name, value.Kind, value.Primitive, value.LayerID); err != nil {
				return err
			}
		}
	}

	for _, activator := range m.Activators {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO model_activators (model_activator_id, model_id, kind, function_id, ref_layer_id, position)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			activator.ID, m.ID, activator.Kind, activator.FunctionID, activator.LayerID, activator.Position); err != nil {
			return err
		}
		for name, value := range activator.Parameters {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO model_activator_parameters (model_activator_id, name, value_kind, primitive_value, ref_layer_id)
				 VALUES ($1, $2, $3, $4, $5)`,
				activator.ID, name, value.Kind, value.Primitive, value.LayerID); err != nil {
				return err
			}
		}
	}

	return nil
}
