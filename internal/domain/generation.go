package domain

import "time"

// Parameters 为遗传算法的参数
type Parameters struct {
	PopulationSize     int     `json:"populationSize"`     // 种群大小
	MaximumGenerations int     `json:"maximumGenerations"` // 最大迭代次数
	MutationRate       float64 `json:"mutationRate"`       // 变异概率
	MutationSize       float64 `json:"mutationSize"`       // 一次变异中被重新安排的课堂比例
	CrossoverRate      float64 `json:"crossoverRate"`      // 交叉概率
	CrossoverSize      float64 `json:"crossoverSize"`      // 目前交叉固定为对半拆分，此参数仅作保存
	SelectionPressure  int     `json:"selectionPressure"`  // 锦标赛选择中每轮抽取的个体数量
	WeekDays           int     `json:"weekDays"`
	DailyHours         int     `json:"dailyHours"`
	Seed               int64   `json:"seed"`              // 为 0 时使用随机种子
	EvaluationWorkers  int     `json:"evaluationWorkers"` // 并行计算适应度的 goroutine 数量，0 或 1 表示串行
}

type GenerationStatus string

const (
	GenerationStatusQueued     GenerationStatus = "queued"
	GenerationStatusGenerating GenerationStatus = "generating"
	GenerationStatusGenerated  GenerationStatus = "generated"
	GenerationStatusCancelled  GenerationStatus = "cancelled"
	GenerationStatusFailed     GenerationStatus = "failed"
)

// Generation 表示一次自动排课任务
type Generation struct {
	ID             int64            `json:"id"`
	ResourceSetID  int64            `json:"resourceSetID"`
	Parameters     Parameters       `json:"parameters"`
	Status         GenerationStatus `json:"status"`
	Generation     int              `json:"generation"`
	BestFitness    float64          `json:"bestFitness"`
	OptimumReached bool             `json:"optimumReached"`
	ErrorMessage   string           `json:"errorMessage,omitempty"`
	RequestedBy    int64            `json:"requestedBy"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
	Version        int32            `json:"-"`
}

// GenerationJob 是投递到消息队列中的排课任务
type GenerationJob struct {
	GenerationID int64 `json:"generationID"`
}

// GenerationProgress 是排课过程中每一代结束后发布的进度
type GenerationProgress struct {
	Generation     int     `json:"generation"`
	BestFitness    float64 `json:"bestFitness"`
	OptimumReached bool    `json:"optimumReached"`
}

type Slot struct {
	Day    int    `json:"day"`
	Hour   int    `json:"hour"`
	RoomID string `json:"roomId"`
}

// Timetable: {lectureID: [slot1, slot2, ...]}
type Timetable map[string][]Slot

type GenerationResult struct {
	GenerationID   int64     `json:"generationID"`
	Fitness        float64   `json:"fitness"`
	OptimumReached bool      `json:"optimumReached"`
	Generations    int       `json:"generations"`
	Timetable      Timetable `json:"timetable"`
	CreatedAt      time.Time `json:"createdAt"`
}
