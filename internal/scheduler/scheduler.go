package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"slices"
	"time"

	"github.com/sysu-ecnc-dev/timetable-generator/backend/internal/domain"
	"golang.org/x/sync/errgroup"
)

// 选择第二个父本时重新进行锦标赛的最大次数，超过后随机选择一个不同的个体
const maxParentRetries = 16

type GeneticAlgorithm struct {
	resources  *Resources
	parameters *domain.Parameters
	rng        *rand.Rand
	logger     *slog.Logger

	generation     int
	population     []*Schedule
	best           *Schedule
	bestFitness    float64
	optimumReached bool
}

type Option func(*GeneticAlgorithm)

func WithRand(rng *rand.Rand) Option {
	return func(ga *GeneticAlgorithm) {
		ga.rng = rng
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(ga *GeneticAlgorithm) {
		ga.logger = logger
	}
}

// New 校验参数并生成初始种群
func New(resources *Resources, parameters *domain.Parameters, opts ...Option) (*GeneticAlgorithm, error) {
	if err := ValidateParameters(parameters); err != nil {
		return nil, err
	}
	if parameters.WeekDays != resources.WeekDays || parameters.DailyHours != resources.DailyHours {
		return nil, fmt.Errorf("%w: 每周天数和每天课时数与资源不一致", ErrInvalidParameters)
	}

	// 复制一份参数，防止运行过程中被外部修改
	p := *parameters

	ga := &GeneticAlgorithm{
		resources:  resources,
		parameters: &p,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(ga)
	}

	if ga.rng == nil {
		seed := p.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		ga.rng = rand.New(rand.NewSource(seed))
	}

	ga.initialize()

	return ga, nil
}

func (ga *GeneticAlgorithm) initialize() {
	ga.population = make([]*Schedule, ga.parameters.PopulationSize)
	for i := range ga.population {
		ga.population[i] = NewSchedule(ga.resources, ga.parameters, ga.rng)
		ga.population[i].Initialize()
	}

	ga.evaluate(ga.population)
	ga.trackBest()

	ga.logger.Info("初始种群已生成", "populationSize", len(ga.population), "bestFitness", ga.bestFitness)
}

// Run 不断繁殖直到找到最优解或达到最大迭代次数
// 每一代结束后调用 observer，ctx 只在两代之间检查
func (ga *GeneticAlgorithm) Run(ctx context.Context, observer func(domain.GenerationProgress)) (bool, error) {
	for !ga.Done() {
		if err := ctx.Err(); err != nil {
			return ga.optimumReached, err
		}

		progress := ga.Step()
		if observer != nil {
			observer(progress)
		}
	}

	ga.logger.Info("排课结束", "generation", ga.generation, "bestFitness", ga.bestFitness, "optimumReached", ga.optimumReached)

	return ga.optimumReached, nil
}

// Step 繁殖恰好一代
func (ga *GeneticAlgorithm) Step() domain.GenerationProgress {
	ga.reproduce()
	ga.generation++

	ga.logger.Debug("已完成一代繁殖", "generation", ga.generation, "bestFitness", ga.bestFitness)

	return ga.Progress()
}

func (ga *GeneticAlgorithm) reproduce() {
	size := ga.parameters.PopulationSize
	children := make([]*Schedule, size)

	// 最后一个位置留给精英
	for i := 0; i < size-1; i++ {
		parent1 := ga.tournamentSelection()
		parent2 := ga.selectDistinctParent(parent1)

		child := NewSchedule(ga.resources, ga.parameters, ga.rng)
		if ga.rng.Float64() < ga.parameters.CrossoverRate {
			child.Crossover(parent1, parent2)
		} else if ga.rng.Intn(2) == 0 {
			child.Copy(parent1)
		} else {
			child.Copy(parent2)
		}

		if ga.rng.Float64() < ga.parameters.MutationRate {
			child.Mutate()
		}

		children[i] = child
	}

	elite := NewSchedule(ga.resources, ga.parameters, ga.rng)
	if ga.best != nil {
		elite.Copy(ga.best)
	} else {
		elite.Initialize()
	}
	children[size-1] = elite

	ga.evaluate(children)
	ga.population = children
	ga.trackBest()
}

// evaluate 计算所有个体的适应度，个体之间互不影响，因此可以并行计算
func (ga *GeneticAlgorithm) evaluate(schedules []*Schedule) {
	if ga.parameters.EvaluationWorkers <= 1 {
		for _, schedule := range schedules {
			schedule.CalculateFitness()
		}
		return
	}

	g := errgroup.Group{}
	g.SetLimit(ga.parameters.EvaluationWorkers)
	for _, schedule := range schedules {
		g.Go(func() error {
			schedule.CalculateFitness()
			return nil
		})
	}
	_ = g.Wait()
}

// tournamentSelection 有放回地随机抽取 SelectionPressure 个个体，返回其中适应度最高的
func (ga *GeneticAlgorithm) tournamentSelection() *Schedule {
	contestants := make([]*Schedule, ga.parameters.SelectionPressure)
	for i := range contestants {
		contestants[i] = ga.population[ga.rng.Intn(len(ga.population))]
	}

	return maxBy(contestants, lessFitness)
}

// selectDistinctParent 选出一个与 first 不是同一个个体的父本
func (ga *GeneticAlgorithm) selectDistinctParent(first *Schedule) *Schedule {
	for range maxParentRetries {
		candidate := ga.tournamentSelection()
		if candidate != first {
			return candidate
		}
	}

	// 某个个体过于占优时，锦标赛几乎总是选中它，此时从其余个体中随机选一个
	firstIndex := slices.Index(ga.population, first)
	i := ga.rng.Intn(len(ga.population) - 1)
	if i >= firstIndex {
		i++
	}
	return ga.population[i]
}

func (ga *GeneticAlgorithm) trackBest() {
	candidate := maxBy(ga.population, lessFitness)

	if ga.best == nil || candidate.fitness > ga.bestFitness {
		// 这里需要深拷贝，防止后续繁殖的过程中修改了最优个体
		best := NewSchedule(ga.resources, ga.parameters, ga.rng)
		best.Copy(candidate)
		ga.best = best
		ga.bestFitness = best.fitness

		ga.logger.Debug("找到更优的课表", "generation", ga.generation, "fitness", ga.bestFitness)
	}

	if ga.bestFitness == 1.0 {
		ga.optimumReached = true
	}
}

// Done 表示已经找到最优解或达到了最大迭代次数
func (ga *GeneticAlgorithm) Done() bool {
	return ga.optimumReached || ga.generation >= ga.parameters.MaximumGenerations
}

func (ga *GeneticAlgorithm) Generation() int {
	return ga.generation
}

func (ga *GeneticAlgorithm) BestFitness() float64 {
	return ga.bestFitness
}

func (ga *GeneticAlgorithm) BestSchedule() *Schedule {
	return ga.best
}

func (ga *GeneticAlgorithm) OptimumReached() bool {
	return ga.optimumReached
}

func (ga *GeneticAlgorithm) Population() []*Schedule {
	return slices.Clone(ga.population)
}

func (ga *GeneticAlgorithm) Progress() domain.GenerationProgress {
	return domain.GenerationProgress{
		Generation:     ga.generation,
		BestFitness:    ga.bestFitness,
		OptimumReached: ga.optimumReached,
	}
}

func (ga *GeneticAlgorithm) Result() *domain.GenerationResult {
	return &domain.GenerationResult{
		Fitness:        ga.bestFitness,
		OptimumReached: ga.optimumReached,
		Generations:    ga.generation,
		Timetable:      ga.best.Timetable(),
	}
}
