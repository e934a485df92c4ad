package seed

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/sysu-ecnc-dev/timetable-generator/backend/internal/domain"
	"github.com/sysu-ecnc-dev/timetable-generator/backend/internal/repository"
	"github.com/sysu-ecnc-dev/timetable-generator/backend/internal/scheduler"
)

// LoadResourceBundle 读取 JSON 格式的资源文件
func LoadResourceBundle(path string) (*domain.ResourceBundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	bundle := &domain.ResourceBundle{}
	if err := json.Unmarshal(data, bundle); err != nil {
		return nil, fmt.Errorf("解析资源文件 %s 失败: %w", path, err)
	}

	return bundle, nil
}

// parametersFile 是参数文件的格式，缺省的字段使用默认值
type parametersFile struct {
	PopulationSize     *int     `json:"population_size"`
	MaximumGenerations *int     `json:"maximum_generations"`
	MutationRate       *float64 `json:"mutation_rate"`
	MutationSize       *float64 `json:"mutation_size"`
	CrossoverRate      *float64 `json:"crossover_rate"`
	CrossoverSize      *float64 `json:"crossover_size"`
	SelectionPressure  *int     `json:"selection_pressure"`
	WeekDays           *int     `json:"week_days"`
	DailyHours         *int     `json:"daily_hours"`
	Seed               *int64   `json:"seed"`
	EvaluationWorkers  *int     `json:"evaluation_workers"`
}

func override[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// LoadParameters 读取 JSON 格式的参数文件，path 为空时直接返回默认参数
func LoadParameters(path string) (*domain.Parameters, error) {
	params := scheduler.DefaultParameters()
	if path == "" {
		return &params, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file parametersFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("解析参数文件 %s 失败: %w", path, err)
	}

	override(&params.PopulationSize, file.PopulationSize)
	override(&params.MaximumGenerations, file.MaximumGenerations)
	override(&params.MutationRate, file.MutationRate)
	override(&params.MutationSize, file.MutationSize)
	override(&params.CrossoverRate, file.CrossoverRate)
	override(&params.CrossoverSize, file.CrossoverSize)
	override(&params.SelectionPressure, file.SelectionPressure)
	override(&params.WeekDays, file.WeekDays)
	override(&params.DailyHours, file.DailyHours)
	override(&params.Seed, file.Seed)
	override(&params.EvaluationWorkers, file.EvaluationWorkers)

	return &params, nil
}

// SeedResourceSetFromFile 将资源文件作为一个新的资源集合插入数据库，集合名称取文件名
func SeedResourceSetFromFile(r *repository.Repository, path string, weekDays int, dailyHours int, createdBy int64) (*domain.ResourceSet, error) {
	bundle, err := LoadResourceBundle(path)
	if err != nil {
		return nil, err
	}

	resources, err := scheduler.NewResources(bundle, weekDays, dailyHours)
	if err != nil {
		return nil, err
	}
	slog.Info("资源文件校验通过", "path", path, "resources", resources.String())

	set := &domain.ResourceSet{
		Name:        strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Description: "从 " + path + " 导入",
		WeekDays:    weekDays,
		DailyHours:  dailyHours,
		Resources:   *bundle,
		CreatedBy:   createdBy,
	}
	if err := r.CreateResourceSet(set); err != nil {
		return nil, err
	}

	return set, nil
}
