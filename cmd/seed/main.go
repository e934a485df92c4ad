package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/sysu-ecnc-dev/timetable-generator/backend/internal/config"
	"github.com/sysu-ecnc-dev/timetable-generator/backend/internal/domain"
	"github.com/sysu-ecnc-dev/timetable-generator/backend/internal/repository"
	"github.com/sysu-ecnc-dev/timetable-generator/backend/internal/scheduler"
	"github.com/sysu-ecnc-dev/timetable-generator/backend/internal/seed"
	"github.com/sysu-ecnc-dev/timetable-generator/backend/internal/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int
	var weekDays int
	var dailyHours int
	var file string

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入随机用户, 2: 插入随机资源集合, 3: 从 JSON 文件导入资源集合)")
	flag.IntVar(&n, "n", 5, "要插入的用户数量，或随机资源集合中的课堂数量")
	flag.IntVar(&weekDays, "week-days", 5, "每周上课天数")
	flag.IntVar(&dailyHours, "daily-hours", 8, "每天的课时数")
	flag.StringVar(&file, "file", "", "要导入的资源文件路径")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 创建数据库连接池
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	// 创建 repository
	repo := repository.NewRepository(cfg, dbpool)

	// 导入的资源集合记在初始管理员名下
	var createdBy int64
	if admin, err := repo.GetUserByUsername(cfg.InitialAdmin.Username); err == nil {
		createdBy = admin.ID
	}

	// 执行操作
	switch op {
	case 0:
		slog.Error("未指定操作")
	case 1:
		if n <= 0 {
			slog.Error("请输入合法的用户数量")
		} else {
			cnt := n
			for i := 0; i < n; i++ {
				user, err := utils.GenerateRandomUser(cfg.Seed.User.Password, cfg.Email.UserDomain)
				if err != nil {
					slog.Error("无法生成随机用户", slog.String("error", err.Error()))
					continue
				}

				if err := repo.CreateUser(user); err != nil {
					slog.Error("无法插入用户", slog.String("error", err.Error()))
					continue
				}

				cnt--
			}

			slog.Info("插入用户成功", slog.Int("count", n-cnt))
		}
	case 2:
		if n <= 0 {
			slog.Error("请输入合法的课堂数量")
			return
		}

		bundle := utils.GenerateRandomResourceBundle(n, weekDays, dailyHours)
		resources, err := scheduler.NewResources(bundle, weekDays, dailyHours)
		if err != nil {
			slog.Error("生成的随机资源不合法", slog.String("error", utils.DescribeResourceError(err)))
			return
		}

		set := &domain.ResourceSet{
			Name:        fmt.Sprintf("随机资源集合-%s", time.Now().Format("20060102150405")),
			Description: fmt.Sprintf("随机生成的 %d 个课堂，共 %d 课时", n, utils.CountLectureHours(resources)),
			WeekDays:    weekDays,
			DailyHours:  dailyHours,
			Resources:   *bundle,
			CreatedBy:   createdBy,
		}
		if err := repo.CreateResourceSet(set); err != nil {
			slog.Error("无法插入资源集合", slog.String("error", err.Error()))
			return
		}

		slog.Info("插入资源集合成功", slog.Int64("id", set.ID), slog.String("resources", resources.String()))
	case 3:
		if file == "" {
			slog.Error("请通过 -file 指定资源文件")
			return
		}

		set, err := seed.SeedResourceSetFromFile(repo, file, weekDays, dailyHours, createdBy)
		if err != nil {
			slog.Error("无法导入资源集合", slog.String("error", utils.DescribeResourceError(err)))
			return
		}

		slog.Info("导入资源集合成功", slog.Int64("id", set.ID), slog.String("name", set.Name))
	default:
		slog.Error("指定的操作非法")
	}
}
