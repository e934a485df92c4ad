package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/timetable-generator/backend/internal/domain"
)

func TestInitializeAssignsEveryLectureHour(t *testing.T) {
	res := mustResources(t, campusBundle())
	parameters := testParameters()

	for seed := int64(1); seed <= 50; seed++ {
		s := newTestSchedule(res, &parameters, seed)
		s.Initialize()
		require.True(t, s.Dirty())

		for _, lectureID := range res.LectureIDs() {
			course := res.Courses[res.Lectures[lectureID].CourseID]
			entries := s.LectureEntries(lectureID)
			require.Len(t, entries, course.Duration, lectureID)

			for _, entry := range entries {
				assert.Equal(t, lectureID, entry.LectureID)
				assert.GreaterOrEqual(t, entry.Day, 0)
				assert.Less(t, entry.Day, testWeekDays)
				assert.GreaterOrEqual(t, entry.Hour, 0)
				assert.Less(t, entry.Hour, testDailyHours)
				assert.Contains(t, res.Rooms, entry.RoomID)
			}

			if course.IsLabCourse {
				// 实验课在同一天同一教室连续进行
				for i, entry := range entries {
					assert.Equal(t, entries[0].Day, entry.Day)
					assert.Equal(t, entries[0].RoomID, entry.RoomID)
					assert.Equal(t, entries[0].Hour+i, entry.Hour)
				}
			} else {
				days := map[int]bool{}
				for _, entry := range entries {
					assert.False(t, days[entry.Day], "theory course %s uses day %d twice", course.ID, entry.Day)
					days[entry.Day] = true
				}
			}
		}

		assert.Len(t, s.Entries(), 16)
	}
}

func TestInitializeSpreadsLongTheoryCoursesOverTheWeek(t *testing.T) {
	bundle := singleLectureBundle()
	bundle.Courses[0].Duration = testWeekDays + 2
	res := mustResources(t, bundle)
	parameters := testParameters()

	s := newTestSchedule(res, &parameters, 7)
	s.Initialize()

	entries := s.LectureEntries("l1")
	require.Len(t, entries, testWeekDays+2)

	days := map[int]int{}
	for _, entry := range entries {
		days[entry.Day]++
	}
	assert.Len(t, days, testWeekDays)
}

func TestCalculateFitnessIsMemoized(t *testing.T) {
	res := mustResources(t, campusBundle())
	parameters := testParameters()

	s := newTestSchedule(res, &parameters, 3)
	s.Initialize()

	s.CalculateFitness()
	first := s.Fitness()
	assert.False(t, s.Dirty())
	assert.Equal(t, 1, s.evaluations)

	s.CalculateFitness()
	assert.Equal(t, first, s.Fitness())
	assert.Equal(t, 1, s.evaluations)

	s.Mutate()
	assert.True(t, s.Dirty())
	s.CalculateFitness()
	assert.Equal(t, 2, s.evaluations)
}

func TestCopyIsIndependentAndEvaluated(t *testing.T) {
	res := mustResources(t, campusBundle())
	parameters := testParameters()

	parent := newTestSchedule(res, &parameters, 11)
	parent.Initialize()
	parent.CalculateFitness()
	before := parent.Entries()

	child := newTestSchedule(res, &parameters, 12)
	child.Copy(parent)

	assert.Equal(t, parent.Fitness(), child.Fitness())
	assert.False(t, child.Dirty())
	assert.Equal(t, before, child.Entries())

	// 修改拷贝不能影响父本
	child.entries["l-ds"][0].Day = (child.entries["l-ds"][0].Day + 1) % testWeekDays
	parameters.MutationSize = 1
	child.Mutate()

	assert.Equal(t, before, parent.Entries())
}

func TestCrossoverNeverSplitsALecture(t *testing.T) {
	res := mustResources(t, campusBundle())
	parameters := testParameters()

	parent1 := newTestSchedule(res, &parameters, 21)
	parent1.Initialize()
	parent2 := newTestSchedule(res, &parameters, 22)
	parent2.Initialize()

	for seed := int64(0); seed < 30; seed++ {
		child := newTestSchedule(res, &parameters, seed)
		child.Crossover(parent1, parent2)
		assert.True(t, child.Dirty())

		fromParent1 := 0
		for _, lectureID := range res.LectureIDs() {
			entries := child.LectureEntries(lectureID)
			p1 := parent1.LectureEntries(lectureID)
			p2 := parent2.LectureEntries(lectureID)

			switch {
			case assert.ObjectsAreEqual(p1, entries):
				fromParent1++
			case assert.ObjectsAreEqual(p2, entries):
			default:
				t.Fatalf("lecture %s is mixed from both parents", lectureID)
			}
		}
		assert.GreaterOrEqual(t, fromParent1, len(res.LectureIDs())/2)
	}
}

func TestCrossoverCopiesRows(t *testing.T) {
	res := mustResources(t, singleLectureBundle())
	parameters := testParameters()

	parent := newTestSchedule(res, &parameters, 1)
	parent.Initialize()
	before := parent.Entries()

	child := newTestSchedule(res, &parameters, 2)
	child.Crossover(parent, parent)
	child.entries["l1"][0].Hour = (child.entries["l1"][0].Hour + 1) % testDailyHours

	assert.Equal(t, before, parent.Entries())
}

func TestMutateReassignsRequestedShare(t *testing.T) {
	res := mustResources(t, campusBundle())

	parameters := testParameters()
	parameters.MutationSize = 0
	s := newTestSchedule(res, &parameters, 5)
	s.Initialize()
	s.CalculateFitness()
	before := s.Entries()

	s.Mutate()
	assert.True(t, s.Dirty())
	assert.Equal(t, before, s.Entries())

	parameters.MutationSize = 1
	s.Mutate()
	for _, lectureID := range res.LectureIDs() {
		course := res.Courses[res.Lectures[lectureID].CourseID]
		assert.Len(t, s.LectureEntries(lectureID), course.Duration)
	}
}

func TestFitnessStaysWithinUnitInterval(t *testing.T) {
	res := mustResources(t, denseBundle(20, 3, 4))
	parameters := testParameters()

	for seed := int64(0); seed < 100; seed++ {
		s := newTestSchedule(res, &parameters, seed)
		s.Initialize()
		s.CalculateFitness()

		assert.GreaterOrEqual(t, s.Fitness(), 0.0)
		assert.LessOrEqual(t, s.Fitness(), 1.0)
	}
}

func TestSingleScheduleWithoutViolationsScoresOne(t *testing.T) {
	res := mustResources(t, singleLectureBundle())
	parameters := testParameters()

	s := newTestSchedule(res, &parameters, 42)
	s.Initialize()
	s.CalculateFitness()

	assert.Equal(t, 1.0, s.Fitness())
}

func TestFitnessTerms(t *testing.T) {
	base := func() *domain.ResourceBundle {
		return &domain.ResourceBundle{
			Rooms: []domain.Room{{ID: "r1", Capacity: 50, AvailableSlots: newGrid(1, 1, true)}},
			Courses: []domain.Course{
				{ID: "c1", Duration: 1, AvailableRooms: []string{"r1"}, AvailableSlots: newGrid(1, 1, true)},
			},
			Teachers: []domain.Teacher{
				{ID: "t1", AvailableRooms: []string{"r1"}, AvailableSlots: newGrid(1, 1, true)},
				{ID: "t2", AvailableRooms: []string{"r1"}, AvailableSlots: newGrid(1, 1, true)},
			},
			Lectures: []domain.Lecture{
				{ID: "l1", Strength: 10, CourseID: "c1", TeacherIDs: []string{"t1"}},
			},
		}
	}

	tests := []struct {
		name   string
		modify func(b *domain.ResourceBundle)
		want   float64
	}{
		{
			name:   "all satisfied",
			modify: func(b *domain.ResourceBundle) {},
			want:   1.0,
		},
		{
			name:   "room too small",
			modify: func(b *domain.ResourceBundle) { b.Lectures[0].Strength = 51 },
			want:   6.0 / 7.0,
		},
		{
			name:   "course unavailable and room not permitted",
			modify: func(b *domain.ResourceBundle) { b.Courses[0].AvailableSlots = newGrid(1, 1, false); b.Courses[0].AvailableRooms = nil },
			want:   5.0 / 7.0,
		},
		{
			name: "one of two teachers unavailable",
			modify: func(b *domain.ResourceBundle) {
				b.Teachers[1].AvailableSlots = newGrid(1, 1, false)
				b.Lectures[0].TeacherIDs = []string{"t1", "t2"}
			},
			want: (6.0 + 0.5) / 7.0,
		},
		{
			name:   "lecture without teachers",
			modify: func(b *domain.ResourceBundle) { b.Lectures[0].TeacherIDs = nil },
			want:   1.0,
		},
		{
			name: "every room double booked",
			modify: func(b *domain.ResourceBundle) {
				b.Lectures = append(b.Lectures, domain.Lecture{ID: "l2", Strength: 10, CourseID: "c1"})
			},
			// 两个课堂不冲突，只有 uniqueSlots 为 0
			want: 6.0 / 7.0,
		},
		{
			name: "clashing lectures at the same time",
			modify: func(b *domain.ResourceBundle) {
				b.Lectures = append(b.Lectures, domain.Lecture{ID: "l2", Strength: 10, CourseID: "c1", TeacherIDs: []string{"t1"}})
			},
			want: 5.0 / 7.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bundle := base()
			tt.modify(bundle)

			res, err := NewResources(bundle, 1, 1)
			require.NoError(t, err)

			parameters := testParameters()
			parameters.WeekDays, parameters.DailyHours = 1, 1
			s := newTestSchedule(res, &parameters, 1)
			s.Initialize()
			s.CalculateFitness()

			assert.InDelta(t, tt.want, s.Fitness(), 1e-12)
		})
	}
}

func TestTeacherClashIsNeverOptimal(t *testing.T) {
	grid := newGrid(1, 2, true)
	bundle := &domain.ResourceBundle{
		Rooms: []domain.Room{
			{ID: "r1", Capacity: 50, AvailableSlots: grid},
			{ID: "r2", Capacity: 50, AvailableSlots: grid},
		},
		Courses: []domain.Course{
			{ID: "c1", Duration: 1, AvailableRooms: []string{"r1", "r2"}, AvailableSlots: grid},
		},
		Teachers: []domain.Teacher{
			{ID: "t1", AvailableRooms: []string{"r1", "r2"}, AvailableSlots: grid},
		},
		Lectures: []domain.Lecture{
			{ID: "l1", Strength: 10, CourseID: "c1", TeacherIDs: []string{"t1"}},
			{ID: "l2", Strength: 10, CourseID: "c1", TeacherIDs: []string{"t1"}},
		},
	}
	res, err := NewResources(bundle, 1, 2)
	require.NoError(t, err)

	parameters := testParameters()
	parameters.WeekDays, parameters.DailyHours = 1, 2

	collisions := 0
	for seed := int64(0); seed < 200; seed++ {
		s := newTestSchedule(res, &parameters, seed)
		s.Initialize()
		s.CalculateFitness()

		e1, e2 := s.LectureEntries("l1")[0], s.LectureEntries("l2")[0]
		if e1.Day == e2.Day && e1.Hour == e2.Hour {
			collisions++
			assert.Less(t, s.Fitness(), 1.0)
		} else {
			assert.Equal(t, 1.0, s.Fitness())
		}
	}
	assert.Positive(t, collisions)
}

func TestTimetableGroupsSlotsByLecture(t *testing.T) {
	res := mustResources(t, campusBundle())
	parameters := testParameters()

	s := newTestSchedule(res, &parameters, 9)
	s.Initialize()

	timetable := s.Timetable()
	require.Len(t, timetable, len(res.Lectures))
	for lectureID, slots := range timetable {
		entries := s.LectureEntries(lectureID)
		require.Len(t, slots, len(entries))
		for i, slot := range slots {
			assert.Equal(t, domain.Slot{Day: entries[i].Day, Hour: entries[i].Hour, RoomID: entries[i].RoomID}, slot)
		}
	}
}
