package scheduler

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/sysu-ecnc-dev/timetable-generator/backend/internal/domain"
)

func TestLecturesNoncurrency(t *testing.T) {
	res := mustResources(t, campusBundle())

	tests := []struct {
		name       string
		lecture1   string
		lecture2   string
		noncurrent bool
	}{
		{"shared teacher", "l-ds", "l-math", true},
		{"shared teacher across sections", "l-music", "l-math", true},
		{"shared section", "l-ds-lab", "l-math", true},
		{"theory and its own lab", "l-ds", "l-ds-lab", true},
		{"prerequisite", "l-ds", "l-algo", false},
		{"prerequisite through lab", "l-ds-lab", "l-algo", false},
		{"elective pair", "l-art", "l-music", false},
		{"elective and core in the same section", "l-art", "l-math", true},
		{"nothing shared", "l-ds", "l-art", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.noncurrent, res.IsNoncurrent(tt.lecture1, tt.lecture2))
			assert.Equal(t, tt.noncurrent, res.IsNoncurrent(tt.lecture2, tt.lecture1))
		})
	}
}

func TestNoncurrencyIsSymmetricAndNeverReflexive(t *testing.T) {
	res := mustResources(t, denseBundle(12, 4, 5))

	for id, lecture := range res.Lectures {
		assert.False(t, lecture.NoncurrentLectureIDs.has(id), "lecture %s clashes with itself", id)
		for other := range lecture.NoncurrentLectureIDs {
			assert.True(t, res.IsNoncurrent(other, id), "%s -> %s is not symmetric", id, other)
		}
	}
}

func TestSharedTeacherOverridesElectiveAndPrerequisite(t *testing.T) {
	bundle := &domain.ResourceBundle{
		Rooms: []domain.Room{{ID: "r1", Capacity: 50, AvailableSlots: fullGrid()}},
		Courses: []domain.Course{
			{ID: "c1", Duration: 1, AvailableSlots: fullGrid()},
			{ID: "c2", Duration: 1, PrerequisiteIDs: []string{"c1"}, AvailableSlots: fullGrid()},
			{ID: "c3", Duration: 1, AvailableSlots: fullGrid()},
		},
		Teachers: []domain.Teacher{{ID: "t1", AvailableSlots: fullGrid()}},
		Sections: []domain.Section{{ID: "s1"}},
		Lectures: []domain.Lecture{
			{ID: "l1", CourseID: "c1", TeacherIDs: []string{"t1"}, SectionIDs: []string{"s1"}},
			{ID: "l2", CourseID: "c2", TeacherIDs: []string{"t1"}, SectionIDs: []string{"s1"}},
			{ID: "l3", CourseID: "c3", TeacherIDs: []string{"t1"}, SectionIDs: []string{"s1"}},
		},
		Constraints: []domain.ElectiveConstraint{{ID: "e1", PairedCourses: []string{"c1", "c3"}}},
	}

	res := mustResources(t, bundle)

	assert.True(t, res.IsNoncurrent("l1", "l2"))
	assert.True(t, res.IsNoncurrent("l1", "l3"))
	assert.True(t, res.IsNoncurrent("l2", "l3"))
}

func TestSectionPassSkipsElectiveAndPrerequisitePairs(t *testing.T) {
	bundle := &domain.ResourceBundle{
		Rooms: []domain.Room{{ID: "r1", Capacity: 50, AvailableSlots: fullGrid()}},
		Courses: []domain.Course{
			{ID: "c1", Duration: 1, AvailableSlots: fullGrid()},
			{ID: "c2", Duration: 1, PrerequisiteIDs: []string{"c1"}, AvailableSlots: fullGrid()},
			{ID: "c3", Duration: 1, AvailableSlots: fullGrid()},
			{ID: "c4", Duration: 1, AvailableSlots: fullGrid()},
		},
		Sections: []domain.Section{{ID: "s1"}, {ID: "s2"}},
		Lectures: []domain.Lecture{
			{ID: "l1", CourseID: "c1", SectionIDs: []string{"s1"}},
			{ID: "l2", CourseID: "c2", SectionIDs: []string{"s1"}},
			{ID: "l3", CourseID: "c3", SectionIDs: []string{"s1", "s2"}},
			{ID: "l4", CourseID: "c4", SectionIDs: []string{"s2"}},
		},
		Constraints: []domain.ElectiveConstraint{
			{ID: "e1", PairedCourses: []string{"c3", "c4"}},
		},
	}

	res := mustResources(t, bundle)

	assert.False(t, res.IsNoncurrent("l1", "l2"), "prerequisite pair")
	assert.False(t, res.IsNoncurrent("l3", "l4"), "elective pair")
	assert.True(t, res.IsNoncurrent("l1", "l3"))
	assert.True(t, res.IsNoncurrent("l2", "l3"))
	assert.False(t, res.IsNoncurrent("l1", "l4"), "no shared section")
}

// denseBundle 生成一个教师和班级大量重叠的资源集合
func denseBundle(lectures int, teachers int, sections int) *domain.ResourceBundle {
	bundle := &domain.ResourceBundle{
		Rooms: []domain.Room{
			{ID: "r1", Capacity: 80, AvailableSlots: fullGrid()},
			{ID: "r2", Capacity: 40, AvailableSlots: fullGrid()},
		},
	}

	for i := range teachers {
		bundle.Teachers = append(bundle.Teachers, domain.Teacher{ID: fmt.Sprintf("t%d", i), AvailableSlots: fullGrid()})
	}
	for i := range sections {
		bundle.Sections = append(bundle.Sections, domain.Section{ID: fmt.Sprintf("s%d", i)})
	}
	for i := range lectures {
		courseID := fmt.Sprintf("c%d", i)
		course := domain.Course{ID: courseID, Duration: 1 + i%3, AvailableSlots: fullGrid()}
		if i > 0 && i%4 == 0 {
			course.PrerequisiteIDs = []string{fmt.Sprintf("c%d", i-1)}
		}
		bundle.Courses = append(bundle.Courses, course)

		bundle.Lectures = append(bundle.Lectures, domain.Lecture{
			ID:         fmt.Sprintf("l%d", i),
			Strength:   30,
			CourseID:   courseID,
			TeacherIDs: []string{fmt.Sprintf("t%d", i%teachers)},
			SectionIDs: []string{fmt.Sprintf("s%d", i%sections), fmt.Sprintf("s%d", (i+1)%sections)},
		})
	}
	bundle.Constraints = []domain.ElectiveConstraint{
		{ID: "e1", PairedCourses: []string{"c1", "c2", "c3"}},
	}

	return bundle
}
