package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/timetable-generator/backend/internal/config"
	"github.com/sysu-ecnc-dev/timetable-generator/backend/internal/progress"
	"github.com/sysu-ecnc-dev/timetable-generator/backend/internal/queue"
	"github.com/sysu-ecnc-dev/timetable-generator/backend/internal/repository"
	"github.com/sysu-ecnc-dev/timetable-generator/backend/internal/worker"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	/**********************************************
	 * 创建 logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	/**********************************************
	 * 加载配置
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法加载配置文件", "error", err)
		return
	}

	/**********************************************
	 * 连接数据库
	 **********************************************/
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	pingCtx, pingCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer pingCancel()

	if err := dbpool.PingContext(pingCtx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	repo := repository.NewRepository(cfg, dbpool)

	/**********************************************
	 * 连接 redis
	 **********************************************/
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       0,
	})
	defer rdb.Close()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Error("无法连接到 redis", "error", err)
		return
	}

	tracker := progress.NewTracker(rdb, time.Duration(cfg.Redis.ProgressExpiration)*time.Second)

	/**********************************************
	 * 连接 RabbitMQ
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("无法连接到 RabbitMQ", "error", err)
		return
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Error("无法创建通道", "error", err)
		return
	}
	defer ch.Close()

	if err := queue.DeclareQueues(ch, cfg.RabbitMQ.GenerationQueue, cfg.RabbitMQ.MailQueue); err != nil {
		logger.Error("无法声明队列", "error", err)
		return
	}

	// 排课任务很耗时，限制每个 worker 同时持有的未确认消息数量
	if err := ch.Qos(cfg.Generation.Prefetch, 0, false); err != nil {
		logger.Error("无法设置 prefetch", "error", err)
		return
	}

	msgs, err := ch.Consume(
		cfg.RabbitMQ.GenerationQueue, // 队列
		"",                           // 消费者标识，由 RabbitMQ 自动分配
		false,                        // 手动确认
		false,                        // 是否独占队列
		false,                        // 是否禁止消费者接受自己发送的消息
		false,                        // 是否不等待
		nil,                          // 额外参数
	)
	if err != nil {
		logger.Error("无法消费消息", "error", err)
		return
	}

	// 通知邮件和消费使用不同的通道，避免 Publish 和 Consume 互相阻塞
	publishCh, err := conn.Channel()
	if err != nil {
		logger.Error("无法创建通道", "error", err)
		return
	}
	defer publishCh.Close()
	publisher := queue.NewPublisher(publishCh, time.Duration(cfg.RabbitMQ.PublishTimeout)*time.Second)

	w := worker.New(repo, tracker, publisher, cfg.RabbitMQ.MailQueue, logger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		w.Consume(ctx, msgs)
	}()

	logger.Info("等待排课任务...（按 CTRL+C 退出）")
	<-sigChan

	// 正在进行的排课会在当前这一代结束后停止，并重新放回队列
	logger.Info("正在关闭 generation worker...")
	cancel()
	wg.Wait()
	logger.Info("generation worker 已成功关闭")
}
