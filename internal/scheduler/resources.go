package scheduler

import (
	"errors"
	"fmt"
	"slices"

	"github.com/sysu-ecnc-dev/timetable-generator/backend/internal/domain"
)

var (
	ErrMissingField     = errors.New("缺少必填字段")
	ErrUnknownReference = errors.New("引用了不存在的资源")
	ErrDuplicateID      = errors.New("资源 ID 重复")
	ErrInvalidGrid      = errors.New("可用时间表的尺寸不正确")
	ErrInvalidDuration  = errors.New("课程时长不合法")
	ErrNoRooms          = errors.New("没有可用的教室")
	ErrNoLectures       = errors.New("没有需要安排的课堂")
)

// ResourceError 描述资源图中某个具体的错误位置
type ResourceError struct {
	Kind  string // room, course, teacher, section, lecture, constraint
	ID    string
	Field string
	Ref   string // 被引用但不存在的 ID
	Err   error
}

func (e *ResourceError) Error() string {
	if e.Ref != "" {
		return fmt.Sprintf("%s %q 的字段 %s: %v: %q", e.Kind, e.ID, e.Field, e.Err, e.Ref)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s %q 的字段 %s: %v", e.Kind, e.ID, e.Field, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", e.Kind, e.ID, e.Err)
}

func (e *ResourceError) Unwrap() error {
	return e.Err
}

type Room struct {
	ID             string
	Name           string
	Capacity       int
	AvailableSlots domain.Grid
}

type Course struct {
	ID         string
	CourseCode string
	Title      string
	Department string
	Duration   int

	TheoryCourseID string
	IsCoreCourse   bool
	IsLabCourse    bool

	// 与其他课程的关系
	ElectivePairIDs idSet
	PrerequisiteIDs idSet

	// 课程对教室和时间的要求
	AvailableRoomIDs idSet
	AvailableSlots   domain.Grid
}

type Teacher struct {
	ID         string
	Name       string
	Department string

	LectureIDs []string

	AvailableRoomIDs idSet
	AvailableSlots   domain.Grid
}

type Section struct {
	ID         string
	Name       string
	Batch      string
	Department string

	LectureIDs []string
}

type Lecture struct {
	ID       string
	Name     string
	Strength int

	CourseID   string
	TeacherIDs []string
	SectionIDs []string

	// 不能与本课堂安排在同一时间的课堂
	NoncurrentLectureIDs idSet
}

// Resources 是一次排课所用到的全部资源，构建完成后在整个运行过程中只读
type Resources struct {
	WeekDays   int
	DailyHours int

	Rooms    map[string]*Room
	Courses  map[string]*Course
	Teachers map[string]*Teacher
	Sections map[string]*Section
	Lectures map[string]*Lecture

	// 保留输入顺序，保证相同的随机种子得到相同的结果
	roomIDs    []string
	teacherIDs []string
	sectionIDs []string
	lectureIDs []string
}

// NewResources 根据输入的资源构建资源图，并计算每个课堂的冲突集合
func NewResources(bundle *domain.ResourceBundle, weekDays int, dailyHours int) (*Resources, error) {
	if weekDays < 1 || dailyHours < 1 {
		return nil, fmt.Errorf("%w: 每周天数和每天课时数必须为正数", ErrInvalidParameters)
	}

	res := &Resources{
		WeekDays:   weekDays,
		DailyHours: dailyHours,
		Rooms:      make(map[string]*Room),
		Courses:    make(map[string]*Course),
		Teachers:   make(map[string]*Teacher),
		Sections:   make(map[string]*Section),
		Lectures:   make(map[string]*Lecture),
	}

	if len(bundle.Rooms) == 0 {
		return nil, ErrNoRooms
	}
	if len(bundle.Lectures) == 0 {
		return nil, ErrNoLectures
	}

	for _, room := range bundle.Rooms {
		if err := res.checkID("room", room.ID, res.Rooms[room.ID] != nil); err != nil {
			return nil, err
		}
		if err := res.checkGrid("room", room.ID, room.AvailableSlots); err != nil {
			return nil, err
		}

		res.Rooms[room.ID] = &Room{
			ID:             room.ID,
			Name:           room.Name,
			Capacity:       room.Capacity,
			AvailableSlots: room.AvailableSlots,
		}
		res.roomIDs = append(res.roomIDs, room.ID)
	}

	for _, course := range bundle.Courses {
		if err := res.checkID("course", course.ID, res.Courses[course.ID] != nil); err != nil {
			return nil, err
		}
		if err := res.checkGrid("course", course.ID, course.AvailableSlots); err != nil {
			return nil, err
		}

		isLab := course.TheoryCourseID != ""
		// 实验课需要在同一天内连续上课，因此时长不能超过一天的课时数
		if course.Duration < 1 || (isLab && course.Duration > dailyHours) {
			return nil, &ResourceError{Kind: "course", ID: course.ID, Field: "duration", Err: ErrInvalidDuration}
		}
		for _, roomID := range course.AvailableRooms {
			if res.Rooms[roomID] == nil {
				return nil, &ResourceError{Kind: "course", ID: course.ID, Field: "availableRooms", Ref: roomID, Err: ErrUnknownReference}
			}
		}

		res.Courses[course.ID] = &Course{
			ID:               course.ID,
			CourseCode:       course.CourseCode,
			Title:            course.Title,
			Department:       course.Department,
			Duration:         course.Duration,
			TheoryCourseID:   course.TheoryCourseID,
			IsCoreCourse:     course.IsCoreCourse,
			IsLabCourse:      isLab,
			ElectivePairIDs:  idSet{},
			PrerequisiteIDs:  newIDSet(course.PrerequisiteIDs),
			AvailableRoomIDs: newIDSet(course.AvailableRooms),
			AvailableSlots:   course.AvailableSlots,
		}
	}

	// 所有课程都加载完之后才能检查课程之间的引用
	for _, course := range bundle.Courses {
		if course.TheoryCourseID != "" && res.Courses[course.TheoryCourseID] == nil {
			return nil, &ResourceError{Kind: "course", ID: course.ID, Field: "theoryCourseId", Ref: course.TheoryCourseID, Err: ErrUnknownReference}
		}
		for _, prerequisiteID := range course.PrerequisiteIDs {
			if res.Courses[prerequisiteID] == nil {
				return nil, &ResourceError{Kind: "course", ID: course.ID, Field: "prerequisiteIds", Ref: prerequisiteID, Err: ErrUnknownReference}
			}
		}
	}

	for _, teacher := range bundle.Teachers {
		if err := res.checkID("teacher", teacher.ID, res.Teachers[teacher.ID] != nil); err != nil {
			return nil, err
		}
		if err := res.checkGrid("teacher", teacher.ID, teacher.AvailableSlots); err != nil {
			return nil, err
		}
		for _, roomID := range teacher.AvailableRooms {
			if res.Rooms[roomID] == nil {
				return nil, &ResourceError{Kind: "teacher", ID: teacher.ID, Field: "availableRooms", Ref: roomID, Err: ErrUnknownReference}
			}
		}

		res.Teachers[teacher.ID] = &Teacher{
			ID:               teacher.ID,
			Name:             teacher.Name,
			Department:       teacher.Department,
			LectureIDs:       []string{},
			AvailableRoomIDs: newIDSet(teacher.AvailableRooms),
			AvailableSlots:   teacher.AvailableSlots,
		}
		res.teacherIDs = append(res.teacherIDs, teacher.ID)
	}

	for _, section := range bundle.Sections {
		if err := res.checkID("section", section.ID, res.Sections[section.ID] != nil); err != nil {
			return nil, err
		}

		res.Sections[section.ID] = &Section{
			ID:         section.ID,
			Name:       section.Name,
			Batch:      section.Batch,
			Department: section.Department,
			LectureIDs: []string{},
		}
		res.sectionIDs = append(res.sectionIDs, section.ID)
	}

	for _, lecture := range bundle.Lectures {
		if err := res.checkID("lecture", lecture.ID, res.Lectures[lecture.ID] != nil); err != nil {
			return nil, err
		}
		if lecture.CourseID == "" {
			return nil, &ResourceError{Kind: "lecture", ID: lecture.ID, Field: "courseId", Err: ErrMissingField}
		}
		if res.Courses[lecture.CourseID] == nil {
			return nil, &ResourceError{Kind: "lecture", ID: lecture.ID, Field: "courseId", Ref: lecture.CourseID, Err: ErrUnknownReference}
		}

		l := &Lecture{
			ID:                   lecture.ID,
			Name:                 lecture.Name,
			Strength:             lecture.Strength,
			CourseID:             lecture.CourseID,
			TeacherIDs:           uniqueIDs(lecture.TeacherIDs),
			SectionIDs:           uniqueIDs(lecture.SectionIDs),
			NoncurrentLectureIDs: idSet{},
		}

		// 反向记录教师和班级所关联的课堂
		for _, teacherID := range l.TeacherIDs {
			teacher := res.Teachers[teacherID]
			if teacher == nil {
				return nil, &ResourceError{Kind: "lecture", ID: lecture.ID, Field: "teacherIds", Ref: teacherID, Err: ErrUnknownReference}
			}
			teacher.LectureIDs = append(teacher.LectureIDs, l.ID)
		}
		for _, sectionID := range l.SectionIDs {
			section := res.Sections[sectionID]
			if section == nil {
				return nil, &ResourceError{Kind: "lecture", ID: lecture.ID, Field: "atomicSectionIds", Ref: sectionID, Err: ErrUnknownReference}
			}
			section.LectureIDs = append(section.LectureIDs, l.ID)
		}

		res.Lectures[l.ID] = l
		res.lectureIDs = append(res.lectureIDs, l.ID)
	}

	for _, constraint := range bundle.Constraints {
		if constraint.ID == "" {
			return nil, &ResourceError{Kind: "constraint", Field: "id", Err: ErrMissingField}
		}
		for _, courseID := range constraint.PairedCourses {
			course := res.Courses[courseID]
			if course == nil {
				return nil, &ResourceError{Kind: "constraint", ID: constraint.ID, Field: "pairedCourses", Ref: courseID, Err: ErrUnknownReference}
			}
			course.ElectivePairIDs.add(constraint.ID)
		}
	}

	if err := setLecturesNoncurrency(res); err != nil {
		return nil, err
	}

	return res, nil
}

func (r *Resources) checkID(kind string, id string, exists bool) error {
	if id == "" {
		return &ResourceError{Kind: kind, Field: "id", Err: ErrMissingField}
	}
	if exists {
		return &ResourceError{Kind: kind, ID: id, Err: ErrDuplicateID}
	}
	return nil
}

func (r *Resources) checkGrid(kind string, id string, grid domain.Grid) error {
	if len(grid) != r.WeekDays {
		return &ResourceError{Kind: kind, ID: id, Field: "availableSlots", Err: ErrInvalidGrid}
	}
	for _, hours := range grid {
		if len(hours) != r.DailyHours {
			return &ResourceError{Kind: kind, ID: id, Field: "availableSlots", Err: ErrInvalidGrid}
		}
	}
	return nil
}

func (r *Resources) lecture(id string) (*Lecture, error) {
	lecture, ok := r.Lectures[id]
	if !ok {
		return nil, &ResourceError{Kind: "lecture", ID: id, Err: ErrUnknownReference}
	}
	return lecture, nil
}

func (r *Resources) course(id string) (*Course, error) {
	course, ok := r.Courses[id]
	if !ok {
		return nil, &ResourceError{Kind: "course", ID: id, Err: ErrUnknownReference}
	}
	return course, nil
}

// LectureIDs 按输入顺序返回所有课堂的 ID
func (r *Resources) LectureIDs() []string {
	return slices.Clone(r.lectureIDs)
}

func (r *Resources) RoomIDs() []string {
	return slices.Clone(r.roomIDs)
}

// IsNoncurrent 判断两个课堂是否不能安排在同一时间
func (r *Resources) IsNoncurrent(lectureID1 string, lectureID2 string) bool {
	lecture, ok := r.Lectures[lectureID1]
	if !ok {
		return false
	}
	return lecture.NoncurrentLectureIDs.has(lectureID2)
}

func (r *Resources) String() string {
	return fmt.Sprintf(
		"Rooms: %d, Courses: %d, Teachers: %d, Sections: %d, Lectures: %d",
		len(r.Rooms), len(r.Courses), len(r.Teachers), len(r.Sections), len(r.Lectures),
	)
}
