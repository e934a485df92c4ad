package scheduler

import (
	"errors"
	"fmt"

	"github.com/sysu-ecnc-dev/timetable-generator/backend/internal/domain"
)

var ErrInvalidParameters = errors.New("遗传算法参数不合法")

func DefaultParameters() domain.Parameters {
	return domain.Parameters{
		PopulationSize:     60,
		MaximumGenerations: 1000,
		MutationRate:       0.05,
		MutationSize:       0.10,
		CrossoverRate:      0.80,
		CrossoverSize:      0.50,
		SelectionPressure:  3,
		WeekDays:           5,
		DailyHours:         8,
	}
}

// ValidateParameters 在运行之前拒绝会导致选择过程无法终止或行为未定义的参数
func ValidateParameters(p *domain.Parameters) error {
	if p == nil {
		return fmt.Errorf("%w: 参数为空", ErrInvalidParameters)
	}

	switch {
	case p.PopulationSize < 2:
		// 锦标赛选择需要两个不同的父本
		return fmt.Errorf("%w: 种群大小至少为 2", ErrInvalidParameters)
	case p.MaximumGenerations < 0:
		return fmt.Errorf("%w: 最大迭代次数不能为负数", ErrInvalidParameters)
	case p.SelectionPressure < 1:
		return fmt.Errorf("%w: 选择压力至少为 1", ErrInvalidParameters)
	case !inUnitInterval(p.MutationRate):
		return fmt.Errorf("%w: 变异概率必须在 [0, 1] 之间", ErrInvalidParameters)
	case !inUnitInterval(p.MutationSize):
		return fmt.Errorf("%w: 变异规模必须在 [0, 1] 之间", ErrInvalidParameters)
	case !inUnitInterval(p.CrossoverRate):
		return fmt.Errorf("%w: 交叉概率必须在 [0, 1] 之间", ErrInvalidParameters)
	case !inUnitInterval(p.CrossoverSize):
		return fmt.Errorf("%w: 交叉规模必须在 [0, 1] 之间", ErrInvalidParameters)
	case p.WeekDays < 1:
		return fmt.Errorf("%w: 每周天数至少为 1", ErrInvalidParameters)
	case p.DailyHours < 1:
		return fmt.Errorf("%w: 每天课时数至少为 1", ErrInvalidParameters)
	case p.EvaluationWorkers < 0:
		return fmt.Errorf("%w: 并行数量不能为负数", ErrInvalidParameters)
	}

	return nil
}

func inUnitInterval(v float64) bool {
	return v >= 0 && v <= 1
}

func DescribeParameters(p *domain.Parameters) string {
	return fmt.Sprintf(
		"Population Size: %d, Maximum Generations: %d, Mutation Rate: %g, Mutation Size: %g, "+
			"Crossover Rate: %g, Crossover Size: %g, Selection Pressure: %d, Weekdays: %d, Daily hours: %d",
		p.PopulationSize, p.MaximumGenerations, p.MutationRate, p.MutationSize,
		p.CrossoverRate, p.CrossoverSize, p.SelectionPressure, p.WeekDays, p.DailyHours,
	)
}
