package handler

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	"github.com/sysu-ecnc-dev/timetable-generator/backend/internal/config"
	"github.com/sysu-ecnc-dev/timetable-generator/backend/internal/domain"
	"github.com/sysu-ecnc-dev/timetable-generator/backend/internal/progress"
	"github.com/sysu-ecnc-dev/timetable-generator/backend/internal/queue"
	"github.com/sysu-ecnc-dev/timetable-generator/backend/internal/repository"
)

type Handler struct {
	validate   *validator.Validate
	config     *config.Config
	repository *repository.Repository
	translator ut.Translator
	publisher  *queue.Publisher
	progress   *progress.Tracker

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, publisher *queue.Publisher, tracker *progress.Tracker) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:   validate,
		config:     cfg,
		repository: repo,
		translator: trans,
		publisher:  publisher,
		progress:   tracker,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	adminOnly := h.RequiredRole([]domain.Role{domain.RoleAdmin})

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Route("/my-info", func(r chi.Router) {
			r.Use(h.myInfo)
			r.Get("/", h.GetMyInfo)
			r.Patch("/", h.UpdateMyInfo)
			r.Patch("/password", h.UpdateMyPassword)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(adminOnly)
			r.Post("/", h.CreateUser)
			r.Get("/", h.GetAllUserInfo)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.userInfo)
				r.Get("/", h.GetUserInfo)
				r.With(h.preventOperateInitialAdmin).Patch("/", h.UpdateUser)
				r.With(h.preventOperateInitialAdmin).Delete("/", h.DeleteUser)
				r.Patch("/password", h.UpdateUserPassword)
			})
		})

		r.Route("/resource-sets", func(r chi.Router) {
			r.With(adminOnly).Post("/", h.CreateResourceSet)
			r.Get("/", h.GetAllResourceSets)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.resourceSet)
				r.Get("/", h.GetResourceSet)
				r.With(adminOnly).Delete("/", h.DeleteResourceSet)
				r.Route("/generations", func(r chi.Router) {
					r.With(adminOnly).Post("/", h.CreateGeneration)
					r.Get("/", h.GetResourceSetGenerations)
				})
			})
		})

		r.Route("/generations/{id}", func(r chi.Router) {
			r.Use(h.generation)
			r.Get("/", h.GetGeneration)
			r.With(adminOnly).Post("/cancel", h.CancelGeneration)
			r.Get("/result", h.GetGenerationResult)
			r.Get("/result.csv", h.ExportGenerationResult)
		})
	})
}
