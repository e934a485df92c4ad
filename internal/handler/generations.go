package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/sysu-ecnc-dev/timetable-generator/backend/internal/domain"
	"github.com/sysu-ecnc-dev/timetable-generator/backend/internal/export"
	"github.com/sysu-ecnc-dev/timetable-generator/backend/internal/progress"
	"github.com/sysu-ecnc-dev/timetable-generator/backend/internal/scheduler"
)

// defaultParameters 使用配置中的遗传算法参数，周天数和每日课时由资源集合决定
func (h *Handler) defaultParameters(set *domain.ResourceSet) domain.Parameters {
	cfg := h.config.Generation
	return domain.Parameters{
		PopulationSize:     cfg.PopulationSize,
		MaximumGenerations: cfg.MaximumGenerations,
		MutationRate:       cfg.MutationRate,
		MutationSize:       cfg.MutationSize,
		CrossoverRate:      cfg.CrossoverRate,
		CrossoverSize:      cfg.CrossoverSize,
		SelectionPressure:  cfg.SelectionPressure,
		WeekDays:           set.WeekDays,
		DailyHours:         set.DailyHours,
		EvaluationWorkers:  cfg.EvaluationWorkers,
	}
}

func (h *Handler) CreateGeneration(w http.ResponseWriter, r *http.Request) {
	set := r.Context().Value(ResourceSetCtx).(*domain.ResourceSet)

	var req struct {
		PopulationSize     *int     `json:"populationSize" validate:"omitnil,gte=2"`
		MaximumGenerations *int     `json:"maximumGenerations" validate:"omitnil,gte=0"`
		MutationRate       *float64 `json:"mutationRate" validate:"omitnil,gte=0,lte=1"`
		MutationSize       *float64 `json:"mutationSize" validate:"omitnil,gte=0,lte=1"`
		CrossoverRate      *float64 `json:"crossoverRate" validate:"omitnil,gte=0,lte=1"`
		CrossoverSize      *float64 `json:"crossoverSize" validate:"omitnil,gte=0,lte=1"`
		SelectionPressure  *int     `json:"selectionPressure" validate:"omitnil,gte=1"`
		Seed               *int64   `json:"seed"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	params := h.defaultParameters(set)
	if req.PopulationSize != nil {
		params.PopulationSize = *req.PopulationSize
	}
	if req.MaximumGenerations != nil {
		params.MaximumGenerations = *req.MaximumGenerations
	}
	if req.MutationRate != nil {
		params.MutationRate = *req.MutationRate
	}
	if req.MutationSize != nil {
		params.MutationSize = *req.MutationSize
	}
	if req.CrossoverRate != nil {
		params.CrossoverRate = *req.CrossoverRate
	}
	if req.CrossoverSize != nil {
		params.CrossoverSize = *req.CrossoverSize
	}
	if req.SelectionPressure != nil {
		params.SelectionPressure = *req.SelectionPressure
	}
	if req.Seed != nil {
		params.Seed = *req.Seed
	}

	if err := scheduler.ValidateParameters(&params); err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	requestedBy, err := h.subject(r)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	g := &domain.Generation{
		ResourceSetID: set.ID,
		Parameters:    params,
		Status:        domain.GenerationStatusQueued,
		RequestedBy:   requestedBy,
	}

	if err := h.repository.CreateGeneration(g); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	if err := h.publisher.PublishJSON(h.config.RabbitMQ.GenerationQueue, domain.GenerationJob{GenerationID: g.ID}); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "排课任务已提交", g)
}

func (h *Handler) GetResourceSetGenerations(w http.ResponseWriter, r *http.Request) {
	set := r.Context().Value(ResourceSetCtx).(*domain.ResourceSet)

	generations, err := h.repository.GetGenerationsByResourceSetID(set.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取排课任务列表成功", generations)
}

// GetGeneration 对正在进行的排课任务返回 redis 中的最新进度
func (h *Handler) GetGeneration(w http.ResponseWriter, r *http.Request) {
	g := r.Context().Value(GenerationCtx).(*domain.Generation)

	if g.Status == domain.GenerationStatusGenerating {
		p, err := h.progress.Get(r.Context(), g.ID)
		switch {
		case err == nil:
			g.Generation = p.Generation
			g.BestFitness = p.BestFitness
			g.OptimumReached = p.OptimumReached
		case errors.Is(err, progress.ErrNoProgress):
			// 初始种群还没有评估完
		default:
			h.internalServerError(w, r, err)
			return
		}
	}

	h.successResponse(w, r, "获取排课任务成功", g)
}

func (h *Handler) CancelGeneration(w http.ResponseWriter, r *http.Request) {
	g := r.Context().Value(GenerationCtx).(*domain.Generation)

	// 还在排队的任务直接在数据库中取消，worker 收到后会跳过
	err := h.repository.TransitGeneration(g, domain.GenerationStatusQueued, domain.GenerationStatusCancelled)
	switch {
	case err == nil:
		h.successResponse(w, r, "排课任务已取消", g)
		return
	case !errors.Is(err, sql.ErrNoRows):
		h.internalServerError(w, r, err)
		return
	}

	latest, err := h.repository.GetGenerationByID(g.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if latest.Status != domain.GenerationStatusGenerating {
		h.errorResponse(w, r, "排课任务已结束，无法取消")
		return
	}

	if err := h.progress.RequestCancel(r.Context(), latest.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "已请求取消排课任务", latest)
}

func (h *Handler) GetGenerationResult(w http.ResponseWriter, r *http.Request) {
	g := r.Context().Value(GenerationCtx).(*domain.Generation)

	result, err := h.repository.GetGenerationResultByGenerationID(g.ID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "尚无排课结果")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "获取排课结果成功", result)
}

func (h *Handler) ExportGenerationResult(w http.ResponseWriter, r *http.Request) {
	g := r.Context().Value(GenerationCtx).(*domain.Generation)

	result, err := h.repository.GetGenerationResultByGenerationID(g.ID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "尚无排课结果")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	set, err := h.repository.GetResourceSetByID(g.ResourceSetID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="generation_%d.csv"`, g.ID))
	if err := export.WriteCSV(w, export.TimetableRows(&set.Resources, result.Timetable)); err != nil {
		// 响应头已经写出，只能记录日志
		h.logInternalServerError(r, err)
	}
}
