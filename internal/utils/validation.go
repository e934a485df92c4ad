package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sysu-ecnc-dev/timetable-generator/backend/internal/scheduler"
)

var resourceKindNames = map[string]string{
	"room":       "教室",
	"course":     "课程",
	"teacher":    "教师",
	"section":    "班级",
	"lecture":    "课堂",
	"constraint": "选修约束",
}

// DescribeResourceError 将资源校验错误转换为返回给前端的提示信息
func DescribeResourceError(err error) string {
	var resErr *scheduler.ResourceError
	if !errors.As(err, &resErr) {
		return err.Error()
	}

	kind, ok := resourceKindNames[resErr.Kind]
	if !ok {
		kind = resErr.Kind
	}

	var b strings.Builder
	b.WriteString(kind)
	if resErr.ID != "" {
		fmt.Fprintf(&b, " %q", resErr.ID)
	}
	if resErr.Field != "" {
		fmt.Fprintf(&b, " 的 %s 字段%v", resErr.Field, resErr.Err)
	} else {
		fmt.Fprintf(&b, "：%v", resErr.Err)
	}
	if resErr.Ref != "" {
		fmt.Fprintf(&b, " %q", resErr.Ref)
	}

	return b.String()
}

// CountLectureHours 统计所有课堂需要安排的课时总数，用于在提交排课之前估计课表的规模
func CountLectureHours(resources *scheduler.Resources) int {
	total := 0
	for _, lectureID := range resources.LectureIDs() {
		lecture := resources.Lectures[lectureID]
		total += resources.Courses[lecture.CourseID].Duration
	}
	return total
}
