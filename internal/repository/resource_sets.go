package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/sysu-ecnc-dev/timetable-generator/backend/internal/domain"
)

// 资源以 JSONB 的形式整体保存，排课时总是整体读取，不需要拆成多张表

func (r *Repository) CreateResourceSet(set *domain.ResourceSet) error {
	resources, err := json.Marshal(set.Resources)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		INSERT INTO resource_sets (name, description, week_days, daily_hours, resources, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, version
	`

	// 通过种子工具导入的资源集合没有创建者
	createdBy := sql.NullInt64{Int64: set.CreatedBy, Valid: set.CreatedBy != 0}

	args := []any{set.Name, set.Description, set.WeekDays, set.DailyHours, string(resources), createdBy}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&set.ID, &set.CreatedAt, &set.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetResourceSetByID(id int64) (*domain.ResourceSet, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT name, description, week_days, daily_hours, resources, COALESCE(created_by, 0), created_at, version
		FROM resource_sets WHERE id = $1
	`

	set := &domain.ResourceSet{
		ID: id,
	}

	var resources []byte
	dst := []any{&set.Name, &set.Description, &set.WeekDays, &set.DailyHours, &resources, &set.CreatedBy, &set.CreatedAt, &set.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(resources, &set.Resources); err != nil {
		return nil, err
	}

	return set, nil
}

func (r *Repository) GetAllResourceSetMetas() ([]*domain.ResourceSetMeta, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT
			id,
			name,
			description,
			week_days,
			daily_hours,
			COALESCE(jsonb_array_length(resources->'entries'), 0),
			created_at
		FROM resource_sets
		ORDER BY id DESC
	`

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	metas := make([]*domain.ResourceSetMeta, 0)
	for rows.Next() {
		meta := &domain.ResourceSetMeta{}
		dst := []any{&meta.ID, &meta.Name, &meta.Description, &meta.WeekDays, &meta.DailyHours, &meta.LectureCount, &meta.CreatedAt}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		metas = append(metas, meta)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return metas, nil
}

// DeleteResourceSet 同时级联删除该资源集合下的所有排课任务和结果
func (r *Repository) DeleteResourceSet(id int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `DELETE FROM resource_sets WHERE id = $1`

	if _, err := r.dbpool.ExecContext(ctx, query, id); err != nil {
		return err
	}

	return nil
}
