package scheduler

import (
	"math/rand"

	"github.com/sysu-ecnc-dev/timetable-generator/backend/internal/domain"
)

// Entry: 某个课堂的一个课时被安排在 (day, hour, room)
type Entry struct {
	Day       int
	Hour      int
	RoomID    string
	LectureID string
}

// Schedule: 一张完整的周课表，即遗传算法中的染色体
type Schedule struct {
	resources  *Resources
	parameters *domain.Parameters
	rng        *rand.Rand

	// {lectureID: [entry1, entry2, ...]}，每个课堂恰好有 course.Duration 个 entry
	entries map[string][]Entry

	fitness float64 // [0.0, 1.0]，表示满足约束的比例
	dirty   bool    // 为 true 时需要重新计算适应度

	evaluations int // 实际计算适应度的次数
}

type slotKey struct {
	day    int
	hour   int
	roomID string
}

type timeKey struct {
	day  int
	hour int
}
