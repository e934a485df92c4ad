package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sysu-ecnc-dev/timetable-generator/backend/internal/domain"
)

// InsertGenerationResult 在同一个事务中保存排课结果并更新排课任务
func (r *Repository) InsertGenerationResult(g *domain.Generation, result *domain.GenerationResult) error {
	timetable, err := json.Marshal(result.Timetable)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// 先将之前的结果删除，任务被重新投递时不会产生多份结果
	query := `DELETE FROM generation_results WHERE generation_id = $1`
	if _, err := tx.ExecContext(ctx, query, g.ID); err != nil {
		return err
	}

	query = `
		INSERT INTO generation_results (generation_id, fitness, optimum_reached, generations, timetable)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	args := []any{g.ID, result.Fitness, result.OptimumReached, result.Generations, string(timetable)}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&result.CreatedAt); err != nil {
		return err
	}
	result.GenerationID = g.ID

	query = `
		UPDATE generations
		SET
			status = $1,
			generation = $2,
			best_fitness = $3,
			optimum_reached = $4,
			error_message = '',
			updated_at = NOW(),
			version = version + 1
		WHERE id = $5 AND version = $6
		RETURNING updated_at, version
	`
	args = []any{g.Status, result.Generations, result.Fitness, result.OptimumReached, g.ID, g.Version}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&g.UpdatedAt, &g.Version); err != nil {
		return err
	}
	g.Generation = result.Generations
	g.BestFitness = result.Fitness
	g.OptimumReached = result.OptimumReached

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetGenerationResultByGenerationID(generationID int64) (*domain.GenerationResult, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT fitness, optimum_reached, generations, timetable, created_at
		FROM generation_results WHERE generation_id = $1
	`

	result := &domain.GenerationResult{
		GenerationID: generationID,
	}

	var timetable []byte
	dst := []any{&result.Fitness, &result.OptimumReached, &result.Generations, &timetable, &result.CreatedAt}
	if err := r.dbpool.QueryRowContext(ctx, query, generationID).Scan(dst...); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(timetable, &result.Timetable); err != nil {
		return nil, err
	}

	return result, nil
}
