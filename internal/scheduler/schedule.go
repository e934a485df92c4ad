package scheduler

import (
	"math"
	"math/rand"
	"slices"
	"time"

	"github.com/sysu-ecnc-dev/timetable-generator/backend/internal/domain"
)

// NewSchedule 创建一张空的课表，rng 为 nil 时使用随机种子
func NewSchedule(resources *Resources, parameters *domain.Parameters, rng *rand.Rand) *Schedule {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &Schedule{
		resources:  resources,
		parameters: parameters,
		rng:        rng,
		entries:    make(map[string][]Entry, len(resources.lectureIDs)),
	}
}

// Initialize 为每个课堂随机分配教室和时间，这一步不考虑任何约束
func (s *Schedule) Initialize() {
	for _, lectureID := range s.resources.lectureIDs {
		s.entries[lectureID] = s.randomEntries(lectureID)
	}

	s.dirty = true
}

// Mutate 为一部分课堂重新随机分配教室和时间
func (s *Schedule) Mutate() {
	lectureIDs := s.resources.lectureIDs
	n := int(math.Round(s.parameters.MutationSize * float64(len(lectureIDs))))

	for _, i := range s.rng.Perm(len(lectureIDs))[:n] {
		s.entries[lectureIDs[i]] = s.randomEntries(lectureIDs[i])
	}

	s.dirty = true
}

// Crossover 将所有课堂随机分成两半，分别从 parent1 和 parent2 复制安排
// 同一个课堂的所有课时总是来自同一个父本
func (s *Schedule) Crossover(parent1 *Schedule, parent2 *Schedule) {
	lectureIDs := s.resources.lectureIDs
	half := len(lectureIDs) / 2

	entries := make(map[string][]Entry, len(lectureIDs))
	for i, j := range s.rng.Perm(len(lectureIDs)) {
		lectureID := lectureIDs[j]
		if i < half {
			entries[lectureID] = slices.Clone(parent1.entries[lectureID])
		} else {
			entries[lectureID] = slices.Clone(parent2.entries[lectureID])
		}
	}
	s.entries = entries

	s.dirty = true
}

// Copy 深拷贝 parent 的安排和适应度，拷贝后不需要重新计算适应度
func (s *Schedule) Copy(parent *Schedule) {
	entries := make(map[string][]Entry, len(parent.entries))
	for lectureID, lectureEntries := range parent.entries {
		entries[lectureID] = slices.Clone(lectureEntries)
	}
	s.entries = entries

	s.fitness = parent.fitness
	s.dirty = false
}

// CalculateFitness 在课表被修改过的情况下重新计算适应度
func (s *Schedule) CalculateFitness() {
	if !s.dirty {
		return
	}

	s.fitness = s.evaluate()
	s.dirty = false
	s.evaluations++
}

func (s *Schedule) Fitness() float64 {
	return s.fitness
}

func (s *Schedule) Dirty() bool {
	return s.dirty
}

// Entries 按课堂的输入顺序返回所有安排
func (s *Schedule) Entries() []Entry {
	entries := make([]Entry, 0, len(s.entries))
	for _, lectureID := range s.resources.lectureIDs {
		entries = append(entries, s.entries[lectureID]...)
	}
	return entries
}

// LectureEntries 返回某个课堂的安排
func (s *Schedule) LectureEntries(lectureID string) []Entry {
	return slices.Clone(s.entries[lectureID])
}

func (s *Schedule) Timetable() domain.Timetable {
	timetable := make(domain.Timetable, len(s.entries))
	for lectureID, entries := range s.entries {
		slots := make([]domain.Slot, len(entries))
		for i, entry := range entries {
			slots[i] = domain.Slot{
				Day:    entry.Day,
				Hour:   entry.Hour,
				RoomID: entry.RoomID,
			}
		}
		timetable[lectureID] = slots
	}
	return timetable
}
