package domain

import "time"

// Grid 表示一周内的可用时间，按 [day][hour] 索引
type Grid [][]bool

type Room struct {
	ID             string `json:"id" validate:"required"`
	Name           string `json:"name"`
	Capacity       int    `json:"capacity" validate:"gte=0"`
	AvailableSlots Grid   `json:"availableSlots" validate:"required"`
}

type Course struct {
	ID              string   `json:"id" validate:"required"`
	CourseCode      string   `json:"courseCode"`
	Title           string   `json:"title"`
	Department      string   `json:"department"`
	Duration        int      `json:"duration" validate:"gte=1"`
	TheoryCourseID  string   `json:"theoryCourseId"` // 不为空时表示这是一门实验课
	IsCoreCourse    bool     `json:"isCoreCourse"`
	PrerequisiteIDs []string `json:"prerequisiteIds"`
	AvailableRooms  []string `json:"availableRooms"`
	AvailableSlots  Grid     `json:"availableSlots" validate:"required"`
}

type Teacher struct {
	ID             string   `json:"id" validate:"required"`
	Name           string   `json:"name"`
	Department     string   `json:"department"`
	AvailableRooms []string `json:"availableRooms"`
	AvailableSlots Grid     `json:"availableSlots" validate:"required"`
}

type Section struct {
	ID         string `json:"id" validate:"required"`
	Name       string `json:"name"`
	Batch      string `json:"batch"`
	Department string `json:"department"`
}

type Lecture struct {
	ID         string   `json:"id" validate:"required"`
	Name       string   `json:"name"`
	Strength   int      `json:"strength" validate:"gte=0"`
	CourseID   string   `json:"courseId" validate:"required"`
	TeacherIDs []string `json:"teacherIds"`
	SectionIDs []string `json:"atomicSectionIds"`
}

// ElectiveConstraint 中的课程互为选修课，可以被安排在同一时间
type ElectiveConstraint struct {
	ID            string   `json:"id" validate:"required"`
	PairedCourses []string `json:"pairedCourses" validate:"required"`
}

type ResourceBundle struct {
	Rooms       []Room               `json:"rooms" validate:"required,dive"`
	Courses     []Course             `json:"courses" validate:"required,dive"`
	Teachers    []Teacher            `json:"teachers" validate:"dive"`
	Sections    []Section            `json:"atomicSections" validate:"dive"`
	Lectures    []Lecture            `json:"entries" validate:"required,dive"`
	Constraints []ElectiveConstraint `json:"constraints" validate:"dive"`
}

// ResourceSet 是保存在数据库中的一套排课资源
type ResourceSet struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	WeekDays    int            `json:"weekDays"`
	DailyHours  int            `json:"dailyHours"`
	Resources   ResourceBundle `json:"resources"`
	CreatedBy   int64          `json:"createdBy"`
	CreatedAt   time.Time      `json:"createdAt"`
	Version     int32          `json:"-"`
}

// ResourceSetMeta 用于列表展示，不包含具体资源
type ResourceSetMeta struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	WeekDays     int       `json:"weekDays"`
	DailyHours   int       `json:"dailyHours"`
	LectureCount int       `json:"lectureCount"`
	CreatedAt    time.Time `json:"createdAt"`
}
