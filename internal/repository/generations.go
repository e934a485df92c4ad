package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sysu-ecnc-dev/timetable-generator/backend/internal/domain"
)

const generationColumns = `
	id, resource_set_id, parameters, status, generation, best_fitness, optimum_reached,
	error_message, requested_by, created_at, updated_at, version
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGeneration(row rowScanner) (*domain.Generation, error) {
	g := &domain.Generation{}

	var parameters []byte
	dst := []any{
		&g.ID,
		&g.ResourceSetID,
		&parameters,
		&g.Status,
		&g.Generation,
		&g.BestFitness,
		&g.OptimumReached,
		&g.ErrorMessage,
		&g.RequestedBy,
		&g.CreatedAt,
		&g.UpdatedAt,
		&g.Version,
	}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(parameters, &g.Parameters); err != nil {
		return nil, err
	}

	return g, nil
}

func (r *Repository) CreateGeneration(g *domain.Generation) error {
	parameters, err := json.Marshal(g.Parameters)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		INSERT INTO generations (resource_set_id, parameters, status, requested_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at, version
	`

	args := []any{g.ResourceSetID, string(parameters), g.Status, g.RequestedBy}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&g.ID, &g.CreatedAt, &g.UpdatedAt, &g.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetGenerationByID(id int64) (*domain.Generation, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `SELECT ` + generationColumns + ` FROM generations WHERE id = $1`

	return scanGeneration(r.dbpool.QueryRowContext(ctx, query, id))
}

func (r *Repository) GetGenerationsByResourceSetID(resourceSetID int64) ([]*domain.Generation, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `SELECT ` + generationColumns + ` FROM generations WHERE resource_set_id = $1 ORDER BY id DESC`

	rows, err := r.dbpool.QueryContext(ctx, query, resourceSetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	generations := make([]*domain.Generation, 0)
	for rows.Next() {
		g, err := scanGeneration(rows)
		if err != nil {
			return nil, err
		}
		generations = append(generations, g)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return generations, nil
}

// TransitGeneration 只有在当前状态为 from 时才将状态改为 to，否则返回 sql.ErrNoRows
// worker 重复收到同一个任务，或者任务在排队时被取消，都依赖这个条件判断
func (r *Repository) TransitGeneration(g *domain.Generation, from domain.GenerationStatus, to domain.GenerationStatus) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		UPDATE generations
		SET
			status = $1,
			updated_at = NOW(),
			version = version + 1
		WHERE id = $2 AND status = $3
		RETURNING updated_at, version
	`

	if err := r.dbpool.QueryRowContext(ctx, query, to, g.ID, from).Scan(&g.UpdatedAt, &g.Version); err != nil {
		return err
	}

	g.Status = to
	return nil
}

// UpdateGeneration 使用乐观锁更新排课任务的状态和进度
func (r *Repository) UpdateGeneration(g *domain.Generation) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		UPDATE generations
		SET
			status = $1,
			generation = $2,
			best_fitness = $3,
			optimum_reached = $4,
			error_message = $5,
			updated_at = NOW(),
			version = version + 1
		WHERE id = $6 AND version = $7
		RETURNING updated_at, version
	`

	args := []any{g.Status, g.Generation, g.BestFitness, g.OptimumReached, g.ErrorMessage, g.ID, g.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&g.UpdatedAt, &g.Version); err != nil {
		return err
	}

	return nil
}
