package handler

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/timetable-generator/backend/internal/domain"
	"github.com/sysu-ecnc-dev/timetable-generator/backend/internal/scheduler"
	"github.com/sysu-ecnc-dev/timetable-generator/backend/internal/utils"
)

func (h *Handler) CreateResourceSet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string                `json:"name" validate:"required"`
		Description string                `json:"description"`
		WeekDays    int                   `json:"weekDays" validate:"required,gte=1,lte=7"`
		DailyHours  int                   `json:"dailyHours" validate:"required,gte=1,lte=24"`
		Resources   domain.ResourceBundle `json:"resources" validate:"required"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 先构建一次资源，保证保存下来的资源集合一定可以用于排课
	if _, err := scheduler.NewResources(&req.Resources, req.WeekDays, req.DailyHours); err != nil {
		h.errorResponse(w, r, utils.DescribeResourceError(err))
		return
	}

	createdBy, err := h.subject(r)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	set := &domain.ResourceSet{
		Name:        req.Name,
		Description: req.Description,
		WeekDays:    req.WeekDays,
		DailyHours:  req.DailyHours,
		Resources:   req.Resources,
		CreatedBy:   createdBy,
	}

	if err := h.repository.CreateResourceSet(set); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr):
			switch pgErr.ConstraintName {
			case "resource_sets_name_key":
				h.errorResponse(w, r, "资源集合名称已存在")
			default:
				h.internalServerError(w, r, err)
			}
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "创建资源集合成功", set)
}

func (h *Handler) GetAllResourceSets(w http.ResponseWriter, r *http.Request) {
	metas, err := h.repository.GetAllResourceSetMetas()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取资源集合列表成功", metas)
}

func (h *Handler) GetResourceSet(w http.ResponseWriter, r *http.Request) {
	set := r.Context().Value(ResourceSetCtx).(*domain.ResourceSet)

	h.successResponse(w, r, "获取资源集合成功", set)
}

// DeleteResourceSet 会连同该资源集合下的所有排课任务和结果一起删除
func (h *Handler) DeleteResourceSet(w http.ResponseWriter, r *http.Request) {
	set := r.Context().Value(ResourceSetCtx).(*domain.ResourceSet)

	if err := h.repository.DeleteResourceSet(set.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "删除资源集合成功", nil)
}
