package scheduler

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/timetable-generator/backend/internal/domain"
)

const (
	testWeekDays   = 5
	testDailyHours = 8
)

func newGrid(days int, hours int, value bool) domain.Grid {
	grid := make(domain.Grid, days)
	for d := range grid {
		grid[d] = make([]bool, hours)
		for h := range grid[d] {
			grid[d][h] = value
		}
	}
	return grid
}

func fullGrid() domain.Grid {
	return newGrid(testWeekDays, testDailyHours, true)
}

func testParameters() domain.Parameters {
	return domain.Parameters{
		PopulationSize:     10,
		MaximumGenerations: 20,
		MutationRate:       0.3,
		MutationSize:       0.2,
		CrossoverRate:      0.8,
		CrossoverSize:      0.5,
		SelectionPressure:  3,
		WeekDays:           testWeekDays,
		DailyHours:         testDailyHours,
	}
}

// singleLectureBundle 只有一个教室、一门课、一个教师和一个课堂，任何安排都满足所有约束
func singleLectureBundle() *domain.ResourceBundle {
	return &domain.ResourceBundle{
		Rooms: []domain.Room{
			{ID: "r1", Name: "A101", Capacity: 100, AvailableSlots: fullGrid()},
		},
		Courses: []domain.Course{
			{ID: "c1", CourseCode: "CS101", Duration: 1, AvailableRooms: []string{"r1"}, AvailableSlots: fullGrid()},
		},
		Teachers: []domain.Teacher{
			{ID: "t1", Name: "王伟", AvailableRooms: []string{"r1"}, AvailableSlots: fullGrid()},
		},
		Sections: []domain.Section{
			{ID: "s1", Name: "2024级1班"},
		},
		Lectures: []domain.Lecture{
			{ID: "l1", Strength: 10, CourseID: "c1", TeacherIDs: []string{"t1"}, SectionIDs: []string{"s1"}},
		},
	}
}

// campusBundle 是一个包含实验课、选修课和先修关系的小型学校
func campusBundle() *domain.ResourceBundle {
	rooms := []string{"r1", "r2", "r3"}
	return &domain.ResourceBundle{
		Rooms: []domain.Room{
			{ID: "r1", Capacity: 60, AvailableSlots: fullGrid()},
			{ID: "r2", Capacity: 30, AvailableSlots: fullGrid()},
			{ID: "lab", Capacity: 40, AvailableSlots: fullGrid()},
			{ID: "r3", Capacity: 120, AvailableSlots: fullGrid()},
		},
		Courses: []domain.Course{
			{ID: "ds", Duration: 3, AvailableRooms: rooms, AvailableSlots: fullGrid()},
			{ID: "ds-lab", Duration: 3, TheoryCourseID: "ds", AvailableRooms: []string{"lab"}, AvailableSlots: fullGrid()},
			{ID: "algo", Duration: 2, PrerequisiteIDs: []string{"ds"}, AvailableRooms: rooms, AvailableSlots: fullGrid()},
			{ID: "art", Duration: 2, AvailableRooms: rooms, AvailableSlots: fullGrid()},
			{ID: "music", Duration: 2, AvailableRooms: rooms, AvailableSlots: fullGrid()},
			{ID: "math", Duration: 4, AvailableRooms: rooms, AvailableSlots: fullGrid()},
		},
		Teachers: []domain.Teacher{
			{ID: "t1", AvailableRooms: append(rooms, "lab"), AvailableSlots: fullGrid()},
			{ID: "t2", AvailableRooms: rooms, AvailableSlots: fullGrid()},
			{ID: "t3", AvailableRooms: rooms, AvailableSlots: fullGrid()},
		},
		Sections: []domain.Section{
			{ID: "s1"},
			{ID: "s2"},
		},
		Lectures: []domain.Lecture{
			{ID: "l-ds", Strength: 50, CourseID: "ds", TeacherIDs: []string{"t1"}, SectionIDs: []string{"s1"}},
			{ID: "l-ds-lab", Strength: 25, CourseID: "ds-lab", TeacherIDs: []string{"t2"}, SectionIDs: []string{"s1"}},
			{ID: "l-algo", Strength: 50, CourseID: "algo", TeacherIDs: []string{"t3"}, SectionIDs: []string{"s1"}},
			{ID: "l-art", Strength: 20, CourseID: "art", TeacherIDs: []string{"t2"}, SectionIDs: []string{"s2"}},
			{ID: "l-music", Strength: 20, CourseID: "music", TeacherIDs: []string{"t3"}, SectionIDs: []string{"s2"}},
			{ID: "l-math", Strength: 100, CourseID: "math", TeacherIDs: []string{"t1", "t3"}, SectionIDs: []string{"s1", "s2"}},
		},
		Constraints: []domain.ElectiveConstraint{
			{ID: "e1", PairedCourses: []string{"art", "music"}},
		},
	}
}

func mustResources(t *testing.T, bundle *domain.ResourceBundle) *Resources {
	t.Helper()

	res, err := NewResources(bundle, testWeekDays, testDailyHours)
	require.NoError(t, err)
	return res
}

func newTestSchedule(res *Resources, parameters *domain.Parameters, seed int64) *Schedule {
	return NewSchedule(res, parameters, rand.New(rand.NewSource(seed)))
}
