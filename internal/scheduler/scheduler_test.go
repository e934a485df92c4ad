package scheduler

import (
	"context"
	"io"
	"log/slog"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/timetable-generator/backend/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// unreachableBundle 中有一个课堂比任何教室都大，因此不可能找到最优解
func unreachableBundle() *domain.ResourceBundle {
	bundle := campusBundle()
	bundle.Lectures[5].Strength = 500
	return bundle
}

func newTestGA(t *testing.T, bundle *domain.ResourceBundle, parameters domain.Parameters, seed int64) *GeneticAlgorithm {
	t.Helper()

	ga, err := New(mustResources(t, bundle), &parameters, WithRand(rand.New(rand.NewSource(seed))), WithLogger(discardLogger()))
	require.NoError(t, err)
	return ga
}

func TestValidateParameters(t *testing.T) {
	defaults := DefaultParameters()
	require.NoError(t, ValidateParameters(&defaults))
	assert.ErrorIs(t, ValidateParameters(nil), ErrInvalidParameters)

	tests := []struct {
		name   string
		modify func(p *domain.Parameters)
	}{
		{"population of one", func(p *domain.Parameters) { p.PopulationSize = 1 }},
		{"negative generations", func(p *domain.Parameters) { p.MaximumGenerations = -1 }},
		{"zero selection pressure", func(p *domain.Parameters) { p.SelectionPressure = 0 }},
		{"mutation rate above one", func(p *domain.Parameters) { p.MutationRate = 1.5 }},
		{"negative mutation size", func(p *domain.Parameters) { p.MutationSize = -0.1 }},
		{"crossover rate above one", func(p *domain.Parameters) { p.CrossoverRate = 2 }},
		{"crossover size above one", func(p *domain.Parameters) { p.CrossoverSize = 1.01 }},
		{"no week days", func(p *domain.Parameters) { p.WeekDays = 0 }},
		{"no daily hours", func(p *domain.Parameters) { p.DailyHours = 0 }},
		{"negative workers", func(p *domain.Parameters) { p.EvaluationWorkers = -2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testParameters()
			tt.modify(&p)
			assert.ErrorIs(t, ValidateParameters(&p), ErrInvalidParameters)

			_, err := New(mustResources(t, singleLectureBundle()), &p, WithLogger(discardLogger()))
			assert.ErrorIs(t, err, ErrInvalidParameters)
		})
	}
}

func TestNewRejectsMismatchedDimensions(t *testing.T) {
	p := testParameters()
	p.WeekDays = testWeekDays - 1

	_, err := New(mustResources(t, singleLectureBundle()), &p, WithLogger(discardLogger()))
	assert.ErrorIs(t, err, ErrInvalidParameters)
}

func TestOptimumReachedInInitialPopulation(t *testing.T) {
	p := testParameters()
	p.PopulationSize = 2

	ga := newTestGA(t, singleLectureBundle(), p, 1)
	assert.True(t, ga.OptimumReached())
	assert.True(t, ga.Done())

	called := false
	optimum, err := ga.Run(context.Background(), func(domain.GenerationProgress) { called = true })
	require.NoError(t, err)
	assert.True(t, optimum)
	assert.False(t, called)
	assert.Equal(t, 0, ga.Generation())

	result := ga.Result()
	assert.Equal(t, 1.0, result.Fitness)
	assert.True(t, result.OptimumReached)
	assert.Equal(t, 0, result.Generations)
	require.Contains(t, result.Timetable, "l1")
	assert.Len(t, result.Timetable["l1"], 1)
}

func TestRunStopsAtMaximumGenerations(t *testing.T) {
	p := testParameters()
	p.MaximumGenerations = 7

	ga := newTestGA(t, unreachableBundle(), p, 3)

	var progress []domain.GenerationProgress
	optimum, err := ga.Run(context.Background(), func(gp domain.GenerationProgress) {
		progress = append(progress, gp)
	})
	require.NoError(t, err)
	assert.False(t, optimum)
	assert.Equal(t, 7, ga.Generation())

	require.Len(t, progress, 7)
	for i, gp := range progress {
		assert.Equal(t, i+1, gp.Generation)
		assert.False(t, gp.OptimumReached)
	}
}

func TestZeroGenerationsReturnsInitialBest(t *testing.T) {
	p := testParameters()
	p.MaximumGenerations = 0

	ga := newTestGA(t, unreachableBundle(), p, 4)
	initial := ga.BestFitness()

	optimum, err := ga.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, optimum)
	assert.Equal(t, 0, ga.Generation())
	assert.Equal(t, initial, ga.BestFitness())
}

func TestBestFitnessNeverDecreases(t *testing.T) {
	p := testParameters()
	p.MaximumGenerations = 40
	p.MutationRate = 0.9
	p.MutationSize = 0.5

	ga := newTestGA(t, unreachableBundle(), p, 5)

	previous := ga.BestFitness()
	for !ga.Done() {
		gp := ga.Step()
		assert.GreaterOrEqual(t, gp.BestFitness, previous)

		// 精英保留在最后一个位置
		population := ga.Population()
		require.Len(t, population, p.PopulationSize)
		assert.GreaterOrEqual(t, population[len(population)-1].Fitness(), previous)
		assert.Equal(t, gp.BestFitness, maxBy(population, lessFitness).Fitness())

		previous = gp.BestFitness
	}

	assert.Less(t, ga.BestFitness(), 1.0)
}

func TestBestScheduleIsNotSharedWithPopulation(t *testing.T) {
	ga := newTestGA(t, unreachableBundle(), testParameters(), 6)

	best := ga.BestSchedule()
	for _, schedule := range ga.Population() {
		assert.NotSame(t, best, schedule)
	}

	entries := best.Entries()
	ga.Step()
	assert.Equal(t, entries, best.Entries())
}

func TestRunHonorsCancelledContext(t *testing.T) {
	ga := newTestGA(t, unreachableBundle(), testParameters(), 7)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	optimum, err := ga.Run(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, optimum)
	assert.Equal(t, 0, ga.Generation())
	assert.NotNil(t, ga.Result().Timetable)
}

func TestRunStopsWhenObserverCancels(t *testing.T) {
	p := testParameters()
	p.MaximumGenerations = 100
	ga := newTestGA(t, unreachableBundle(), p, 8)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := ga.Run(ctx, func(gp domain.GenerationProgress) {
		if gp.Generation == 3 {
			cancel()
		}
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 3, ga.Generation())
}

func TestParallelEvaluationIsDeterministic(t *testing.T) {
	sequential := testParameters()
	sequential.MaximumGenerations = 15

	parallel := sequential
	parallel.EvaluationWorkers = 4

	ga1 := newTestGA(t, unreachableBundle(), sequential, 99)
	ga2 := newTestGA(t, unreachableBundle(), parallel, 99)

	_, err := ga1.Run(context.Background(), nil)
	require.NoError(t, err)
	_, err = ga2.Run(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, ga1.BestFitness(), ga2.BestFitness())
	assert.Equal(t, ga1.Generation(), ga2.Generation())
	assert.Equal(t, ga1.Result().Timetable, ga2.Result().Timetable)
}

func TestSelectDistinctParentWithDominantIndividual(t *testing.T) {
	p := testParameters()
	p.PopulationSize = 3
	p.SelectionPressure = 50

	ga := newTestGA(t, unreachableBundle(), p, 10)

	population := ga.population
	population[0].fitness = 0.99
	population[1].fitness = 0.1
	population[2].fitness = 0.1

	for range 100 {
		first := ga.tournamentSelection()
		require.Same(t, population[0], first)

		second := ga.selectDistinctParent(first)
		assert.NotSame(t, first, second)
		assert.Contains(t, population, second)
	}
}

func TestMaxByKeepsFirstOnTies(t *testing.T) {
	a := &Schedule{fitness: 0.5}
	b := &Schedule{fitness: 0.8}
	c := &Schedule{fitness: 0.8}

	assert.Same(t, b, maxBy([]*Schedule{a, b, c}, lessFitness))
	assert.Same(t, a, maxBy([]*Schedule{a}, lessFitness))
}

func TestDescribeParameters(t *testing.T) {
	p := DefaultParameters()
	assert.Equal(t,
		"Population Size: 60, Maximum Generations: 1000, Mutation Rate: 0.05, Mutation Size: 0.1, "+
			"Crossover Rate: 0.8, Crossover Size: 0.5, Selection Pressure: 3, Weekdays: 5, Daily hours: 8",
		DescribeParameters(&p),
	)
}
