package worker

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sysu-ecnc-dev/timetable-generator/backend/internal/domain"
	"github.com/sysu-ecnc-dev/timetable-generator/backend/internal/scheduler"
)

type Store interface {
	GetGenerationByID(id int64) (*domain.Generation, error)
	GetResourceSetByID(id int64) (*domain.ResourceSet, error)
	GetUserByID(id int64) (*domain.User, error)
	TransitGeneration(g *domain.Generation, from domain.GenerationStatus, to domain.GenerationStatus) error
	UpdateGeneration(g *domain.Generation) error
	InsertGenerationResult(g *domain.Generation, result *domain.GenerationResult) error
}

type ProgressTracker interface {
	Publish(ctx context.Context, generationID int64, p domain.GenerationProgress) error
	CancelRequested(ctx context.Context, generationID int64) (bool, error)
	Clear(ctx context.Context, generationID int64) error
}

type Publisher interface {
	PublishJSON(queue string, v any) error
}

// Worker 从队列中取出排课任务并运行遗传算法
type Worker struct {
	store     Store
	progress  ProgressTracker
	publisher Publisher
	mailQueue string
	logger    *slog.Logger
}

func New(store Store, progress ProgressTracker, publisher Publisher, mailQueue string, logger *slog.Logger) *Worker {
	return &Worker{
		store:     store,
		progress:  progress,
		publisher: publisher,
		mailQueue: mailQueue,
		logger:    logger,
	}
}

// Consume 处理投递过来的消息直到 ctx 被取消或者通道被关闭
func (w *Worker) Consume(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-deliveries:
			if !ok {
				w.logger.Warn("消息通道已关闭")
				return
			}

			job := domain.GenerationJob{}
			if err := json.Unmarshal(msg.Body, &job); err != nil {
				w.logger.Error("排课任务反序列化失败", "error", err, "body", string(msg.Body))
				_ = msg.Nack(false, false)
				continue
			}

			if err := w.Handle(ctx, job, msg.Redelivered); err != nil {
				w.logger.Error("排课任务处理失败，重新入队", "generationID", job.GenerationID, "error", err)
				_ = msg.Nack(false, true)
				continue
			}

			_ = msg.Ack(false)
		}
	}
}

// Handle 运行一次排课任务
// 返回 error 表示这是暂时性的错误，任务应当重新投递；任务本身的问题会记录为 failed 并返回 nil
func (w *Worker) Handle(ctx context.Context, job domain.GenerationJob, redelivered bool) error {
	logger := w.logger.With("generationID", job.GenerationID)

	g, err := w.store.GetGenerationByID(job.GenerationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logger.Warn("排课任务不存在，忽略")
			return nil
		}
		return err
	}

	// worker 在排课过程中崩溃时，重新投递的任务状态仍然是 generating
	from := domain.GenerationStatusQueued
	if redelivered && g.Status == domain.GenerationStatusGenerating {
		from = domain.GenerationStatusGenerating
	}
	if err := w.store.TransitGeneration(g, from, domain.GenerationStatusGenerating); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logger.Info("排课任务已被处理或已取消，忽略", "status", g.Status)
			return nil
		}
		return err
	}

	set, err := w.store.GetResourceSetByID(g.ResourceSetID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return w.fail(g, "", errors.New("资源集合不存在"))
		}
		return err
	}

	resources, err := scheduler.NewResources(&set.Resources, set.WeekDays, set.DailyHours)
	if err != nil {
		return w.fail(g, set.Name, err)
	}

	parameters := g.Parameters
	ga, err := scheduler.New(resources, &parameters, scheduler.WithLogger(logger))
	if err != nil {
		return w.fail(g, set.Name, err)
	}

	logger.Info("开始排课", "resources", resources.String(), "parameters", scheduler.DescribeParameters(&parameters))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	cancelled := false
	_, err = ga.Run(runCtx, func(p domain.GenerationProgress) {
		if err := w.progress.Publish(ctx, g.ID, p); err != nil {
			logger.Warn("无法发布排课进度", "error", err)
		}

		requested, err := w.progress.CancelRequested(ctx, g.ID)
		if err != nil {
			logger.Warn("无法读取取消请求", "error", err)
			return
		}
		if requested {
			cancelled = true
			cancel()
		}
	})

	if err != nil {
		if !cancelled {
			// worker 正在关闭，将任务放回队列
			if err := w.store.TransitGeneration(g, domain.GenerationStatusGenerating, domain.GenerationStatusQueued); err != nil {
				logger.Warn("无法将排课任务恢复为排队状态", "error", err)
			}
			return err
		}

		logger.Info("排课已取消", "generation", ga.Generation(), "bestFitness", ga.BestFitness())

		g.Status = domain.GenerationStatusCancelled
		g.Generation = ga.Generation()
		g.BestFitness = ga.BestFitness()
		g.OptimumReached = ga.OptimumReached()
		if err := w.store.UpdateGeneration(g); err != nil {
			return err
		}

		w.clearProgress(ctx, g.ID)
		w.notify(g, set.Name)
		return nil
	}

	result := ga.Result()
	g.Status = domain.GenerationStatusGenerated
	if err := w.store.InsertGenerationResult(g, result); err != nil {
		return err
	}

	logger.Info("排课结果已保存", "generation", result.Generations, "fitness", result.Fitness, "optimumReached", result.OptimumReached)

	w.clearProgress(ctx, g.ID)
	w.notify(g, set.Name)
	return nil
}

func (w *Worker) fail(g *domain.Generation, resourceSetName string, cause error) error {
	w.logger.Error("排课失败", "generationID", g.ID, "error", cause)

	g.Status = domain.GenerationStatusFailed
	g.ErrorMessage = cause.Error()
	if err := w.store.UpdateGeneration(g); err != nil {
		return fmt.Errorf("无法保存排课失败状态: %w", err)
	}

	w.notify(g, resourceSetName)
	return nil
}

func (w *Worker) clearProgress(ctx context.Context, generationID int64) {
	if err := w.progress.Clear(ctx, generationID); err != nil {
		w.logger.Warn("无法清除排课进度", "generationID", generationID, "error", err)
	}
}

// notify 通知发起排课的用户，邮件发送失败不影响排课结果
func (w *Worker) notify(g *domain.Generation, resourceSetName string) {
	user, err := w.store.GetUserByID(g.RequestedBy)
	if err != nil {
		w.logger.Warn("无法获取发起排课的用户", "generationID", g.ID, "userID", g.RequestedBy, "error", err)
		return
	}

	mailMessage := domain.MailMessage{
		Type: domain.MailTypeGenerationFinished,
		To:   user.Email,
		Data: domain.GenerationFinishedMailData{
			FullName:        user.FullName,
			GenerationID:    g.ID,
			ResourceSetName: resourceSetName,
			Status:          g.Status,
			Generations:     g.Generation,
			BestFitness:     g.BestFitness,
			OptimumReached:  g.OptimumReached,
			ErrorMessage:    g.ErrorMessage,
		},
	}

	if err := w.publisher.PublishJSON(w.mailQueue, mailMessage); err != nil {
		w.logger.Warn("无法发送排课完成邮件", "generationID", g.ID, "error", err)
	}
}
