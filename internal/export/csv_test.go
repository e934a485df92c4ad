package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/timetable-generator/backend/internal/domain"
)

func testBundle() *domain.ResourceBundle {
	return &domain.ResourceBundle{
		Rooms: []domain.Room{
			{ID: "r1", Name: "A101", Capacity: 60},
			{ID: "r2", Name: "B202", Capacity: 30},
		},
		Courses: []domain.Course{
			{ID: "c1", CourseCode: "CS101", Title: "数据结构", Duration: 2},
			{ID: "c2", CourseCode: "MA201", Title: "线性代数", Duration: 1},
		},
		Teachers: []domain.Teacher{
			{ID: "t1", Name: "王伟"},
			{ID: "t2"},
		},
		Sections: []domain.Section{
			{ID: "s1", Name: "2024级1班"},
		},
		Lectures: []domain.Lecture{
			{ID: "l1", Name: "数据结构-1", CourseID: "c1", TeacherIDs: []string{"t1", "t2"}, SectionIDs: []string{"s1"}},
			{ID: "l2", Name: "线性代数-1", CourseID: "c2", TeacherIDs: []string{"t2"}, SectionIDs: []string{"s1"}},
		},
	}
}

func TestTimetableRowsAreSortedAndDescribed(t *testing.T) {
	timetable := domain.Timetable{
		"l1":    {{Day: 2, Hour: 1, RoomID: "r2"}, {Day: 0, Hour: 3, RoomID: "r1"}},
		"l2":    {{Day: 0, Hour: 3, RoomID: "r1"}},
		"ghost": {{Day: 0, Hour: 0, RoomID: "r1"}},
	}

	rows := TimetableRows(testBundle(), timetable)
	require.Len(t, rows, 3)

	assert.Equal(t, &TimetableRow{
		Day: 0, Hour: 3, RoomID: "r1", RoomName: "A101",
		LectureID: "l1", LectureName: "数据结构-1", CourseCode: "CS101", CourseTitle: "数据结构",
		Teachers: "王伟; t2", Sections: "2024级1班",
	}, rows[0])
	assert.Equal(t, "l2", rows[1].LectureID)
	assert.Equal(t, 2, rows[2].Day)
	assert.Equal(t, "B202", rows[2].RoomName)
}

func TestWriteCSV(t *testing.T) {
	timetable := domain.Timetable{
		"l2": {{Day: 1, Hour: 0, RoomID: "r2"}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, TimetableRows(testBundle(), timetable)))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "day,hour,room_id,room_name,lecture_id,lecture_name,course_code,course_title,teachers,sections", lines[0])
	assert.Equal(t, "1,0,r2,B202,l2,线性代数-1,MA201,线性代数,t2,2024级1班", lines[1])
}
