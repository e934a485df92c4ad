package export

import (
	"cmp"
	"io"
	"slices"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/sysu-ecnc-dev/timetable-generator/backend/internal/domain"
)

// TimetableRow 是导出课表时的一行，每个课时一行
type TimetableRow struct {
	Day         int    `csv:"day"`
	Hour        int    `csv:"hour"`
	RoomID      string `csv:"room_id"`
	RoomName    string `csv:"room_name"`
	LectureID   string `csv:"lecture_id"`
	LectureName string `csv:"lecture_name"`
	CourseCode  string `csv:"course_code"`
	CourseTitle string `csv:"course_title"`
	Teachers    string `csv:"teachers"`
	Sections    string `csv:"sections"`
}

// TimetableRows 将排课结果和资源中的描述信息合并，按 (day, hour, room, lecture) 排序
// 不在 bundle 中的课堂会被忽略
func TimetableRows(bundle *domain.ResourceBundle, timetable domain.Timetable) []*TimetableRow {
	rooms := make(map[string]string, len(bundle.Rooms))
	for _, room := range bundle.Rooms {
		rooms[room.ID] = room.Name
	}
	courses := make(map[string]*domain.Course, len(bundle.Courses))
	for i := range bundle.Courses {
		courses[bundle.Courses[i].ID] = &bundle.Courses[i]
	}
	teachers := make(map[string]string, len(bundle.Teachers))
	for _, teacher := range bundle.Teachers {
		teachers[teacher.ID] = cmp.Or(teacher.Name, teacher.ID)
	}
	sections := make(map[string]string, len(bundle.Sections))
	for _, section := range bundle.Sections {
		sections[section.ID] = cmp.Or(section.Name, section.ID)
	}

	rows := make([]*TimetableRow, 0)
	for _, lecture := range bundle.Lectures {
		course := courses[lecture.CourseID]
		teacherNames := lookupNames(lecture.TeacherIDs, teachers)
		sectionNames := lookupNames(lecture.SectionIDs, sections)

		for _, slot := range timetable[lecture.ID] {
			row := &TimetableRow{
				Day:         slot.Day,
				Hour:        slot.Hour,
				RoomID:      slot.RoomID,
				RoomName:    rooms[slot.RoomID],
				LectureID:   lecture.ID,
				LectureName: lecture.Name,
				Teachers:    teacherNames,
				Sections:    sectionNames,
			}
			if course != nil {
				row.CourseCode = course.CourseCode
				row.CourseTitle = course.Title
			}
			rows = append(rows, row)
		}
	}

	slices.SortStableFunc(rows, func(a, b *TimetableRow) int {
		return cmp.Or(
			cmp.Compare(a.Day, b.Day),
			cmp.Compare(a.Hour, b.Hour),
			strings.Compare(a.RoomID, b.RoomID),
			strings.Compare(a.LectureID, b.LectureID),
		)
	})

	return rows
}

func lookupNames(ids []string, names map[string]string) string {
	result := make([]string, len(ids))
	for i, id := range ids {
		result[i] = cmp.Or(names[id], id)
	}
	return strings.Join(result, "; ")
}

func WriteCSV(w io.Writer, rows []*TimetableRow) error {
	return gocsv.Marshal(&rows, w)
}
