package scheduler

// setLecturesNoncurrency 计算每个课堂的冲突集合
//  1. 同一个教师的任意两个课堂不能同时进行
//  2. 同一个班级的任意两个课堂不能同时进行，除非它们互为选修课或存在先修关系
func setLecturesNoncurrency(res *Resources) error {
	if err := setTeachersNoncurrency(res); err != nil {
		return err
	}

	return setSectionsNoncurrency(res)
}

func setTeachersNoncurrency(res *Resources) error {
	for _, teacherID := range res.teacherIDs {
		teacher := res.Teachers[teacherID]

		err := forEachPair(teacher.LectureIDs, func(lectureID1, lectureID2 string) error {
			lecture1, err := res.lecture(lectureID1)
			if err != nil {
				return err
			}
			lecture2, err := res.lecture(lectureID2)
			if err != nil {
				return err
			}

			markNoncurrent(lecture1, lecture2)
			return nil
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func setSectionsNoncurrency(res *Resources) error {
	for _, sectionID := range res.sectionIDs {
		section := res.Sections[sectionID]

		err := forEachPair(section.LectureIDs, func(lectureID1, lectureID2 string) error {
			lecture1, err := res.lecture(lectureID1)
			if err != nil {
				return err
			}
			lecture2, err := res.lecture(lectureID2)
			if err != nil {
				return err
			}

			// 已经因为共同的教师而冲突
			if lecture1.NoncurrentLectureIDs.has(lecture2.ID) {
				return nil
			}

			prerequisite, err := prerequisiteLectures(res, lecture1, lecture2)
			if err != nil {
				return err
			}
			if prerequisite {
				return nil
			}

			elective, err := electiveLectures(res, lecture1, lecture2)
			if err != nil {
				return err
			}
			if elective {
				return nil
			}

			markNoncurrent(lecture1, lecture2)
			return nil
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// prerequisiteLectures 判断两个课堂的课程之间是否存在先修关系，实验课按其理论课处理
func prerequisiteLectures(res *Resources, lecture1 *Lecture, lecture2 *Lecture) (bool, error) {
	course1, err := theoryCourse(res, lecture1.CourseID)
	if err != nil {
		return false, err
	}
	course2, err := theoryCourse(res, lecture2.CourseID)
	if err != nil {
		return false, err
	}

	return course2.PrerequisiteIDs.has(course1.ID) || course1.PrerequisiteIDs.has(course2.ID), nil
}

// electiveLectures 判断两个课堂的课程是否属于同一组选修课
func electiveLectures(res *Resources, lecture1 *Lecture, lecture2 *Lecture) (bool, error) {
	course1, err := res.course(lecture1.CourseID)
	if err != nil {
		return false, err
	}
	course2, err := res.course(lecture2.CourseID)
	if err != nil {
		return false, err
	}

	return !course1.ElectivePairIDs.disjoint(course2.ElectivePairIDs), nil
}

func theoryCourse(res *Resources, courseID string) (*Course, error) {
	course, err := res.course(courseID)
	if err != nil {
		return nil, err
	}
	if !course.IsLabCourse {
		return course, nil
	}
	return res.course(course.TheoryCourseID)
}

func markNoncurrent(lecture1 *Lecture, lecture2 *Lecture) {
	lecture1.NoncurrentLectureIDs.add(lecture2.ID)
	lecture2.NoncurrentLectureIDs.add(lecture1.ID)
}
