package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/sysu-ecnc-dev/timetable-generator/backend/internal/domain"
	"github.com/sysu-ecnc-dev/timetable-generator/backend/internal/export"
	"github.com/sysu-ecnc-dev/timetable-generator/backend/internal/scheduler"
	"github.com/sysu-ecnc-dev/timetable-generator/backend/internal/seed"
	"github.com/sysu-ecnc-dev/timetable-generator/backend/internal/utils"
)

// 不依赖数据库和消息队列，直接在本地对资源文件进行排课
func main() {
	var resourcesPath string
	var parametersPath string
	var csvPath string
	var workers int

	flag.StringVar(&resourcesPath, "resources", "", "资源文件路径 (JSON)")
	flag.StringVar(&parametersPath, "parameters", "", "参数文件路径 (JSON)，不指定时使用默认参数")
	flag.StringVar(&csvPath, "csv", "", "将课表导出为 CSV 的路径")
	flag.IntVar(&workers, "workers", 0, "并行计算适应度的 goroutine 数量，覆盖参数文件中的设置")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if resourcesPath == "" {
		logger.Error("请通过 -resources 指定资源文件")
		os.Exit(2)
	}

	bundle, err := seed.LoadResourceBundle(resourcesPath)
	if err != nil {
		logger.Error("无法读取资源文件", "error", err)
		os.Exit(1)
	}

	params, err := seed.LoadParameters(parametersPath)
	if err != nil {
		logger.Error("无法读取参数文件", "error", err)
		os.Exit(1)
	}
	if workers > 0 {
		params.EvaluationWorkers = workers
	}

	resources, err := scheduler.NewResources(bundle, params.WeekDays, params.DailyHours)
	if err != nil {
		logger.Error("资源不合法", "error", utils.DescribeResourceError(err))
		os.Exit(1)
	}

	logger.Info("资源", "summary", resources.String(), "lectureHours", utils.CountLectureHours(resources))
	logger.Info("参数", "summary", scheduler.DescribeParameters(params))

	ga, err := scheduler.New(resources, params, scheduler.WithLogger(logger))
	if err != nil {
		logger.Error("无法创建遗传算法", "error", err)
		os.Exit(1)
	}

	// CTRL+C 时在当前这一代结束后停止，并输出目前最好的课表
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	optimumReached, err := ga.Run(ctx, func(p domain.GenerationProgress) {
		logger.Info("进度", "generation", p.Generation, "bestFitness", p.BestFitness)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("排课失败", "error", err)
		os.Exit(1)
	}

	result := ga.Result()
	fmt.Printf("generations: %d\nfitness: %.6f\noptimum reached: %t\n", result.Generations, result.Fitness, optimumReached)

	if csvPath == "" {
		return
	}

	f, err := os.Create(csvPath)
	if err != nil {
		logger.Error("无法创建 CSV 文件", "error", err)
		os.Exit(1)
	}
	defer f.Close()

	if err := export.WriteCSV(f, export.TimetableRows(bundle, result.Timetable)); err != nil {
		logger.Error("无法导出课表", "error", err)
		os.Exit(1)
	}
	logger.Info("课表已导出", "path", csvPath)
}
