package scheduler

// randomEntries 为一个课堂随机生成 course.Duration 个安排
//   - 实验课：同一天、同一间教室、连续的若干个课时
//   - 理论课：每个课时独立选择天、教室和课时，天数不重复
//
// 这里不会避免冲突，冲突由适应度函数来惩罚
func (s *Schedule) randomEntries(lectureID string) []Entry {
	lecture := s.resources.Lectures[lectureID]
	course := s.resources.Courses[lecture.CourseID]
	roomIDs := s.resources.roomIDs
	weekDays := s.resources.WeekDays
	dailyHours := s.resources.DailyHours

	entries := make([]Entry, course.Duration)

	if course.IsLabCourse {
		day := s.rng.Intn(weekDays)
		roomID := roomIDs[s.rng.Intn(len(roomIDs))]
		startHour := s.rng.Intn(dailyHours - course.Duration + 1)

		for i := range entries {
			entries[i] = Entry{
				Day:       day,
				Hour:      startHour + i,
				RoomID:    roomID,
				LectureID: lectureID,
			}
		}
		return entries
	}

	days := make([]int, 0, course.Duration)
	for len(days) < course.Duration {
		// 课时数超过每周天数时再抽一轮，尽量分散到不同的天
		days = append(days, s.rng.Perm(weekDays)...)
	}

	for i := range entries {
		entries[i] = Entry{
			Day:       days[i],
			Hour:      s.rng.Intn(dailyHours),
			RoomID:    roomIDs[s.rng.Intn(len(roomIDs))],
			LectureID: lectureID,
		}
	}
	return entries
}

/**
 * 计算课表的适应度
 * fitness = (uniqueSlots + capacityRooms + courseSlots + courseRooms + teacherSlots + teacherRooms + lectureSlots) / 7
 * 其中每一项都除以课表中的安排总数，因此都在 [0, 1] 之间:
 * 		1. uniqueSlots 为没有被重复占用的 (day, hour, room) 的安排数
 * 		2. capacityRooms 为教室容量足够的安排数
 * 		3. courseSlots / courseRooms 为满足课程时间 / 教室要求的安排数
 * 		4. teacherSlots / teacherRooms 为满足教师时间 / 教室要求的程度，多个教师时取平均
 * 		5. lectureSlots 为没有与冲突课堂同时进行的安排数
 */
func (s *Schedule) evaluate() float64 {
	total := 0
	roomUsage := make(map[slotKey]int)
	concurrent := make(map[timeKey][]string) // 同一时间进行的课堂

	for _, lectureID := range s.resources.lectureIDs {
		for _, entry := range s.entries[lectureID] {
			total++
			roomUsage[slotKey{entry.Day, entry.Hour, entry.RoomID}]++

			key := timeKey{entry.Day, entry.Hour}
			concurrent[key] = append(concurrent[key], lectureID)
		}
	}

	if total == 0 {
		return 1.0
	}

	var uniqueSlots, capacityRooms, courseSlots, courseRooms, lectureSlots int
	var teacherSlots, teacherRooms float64

	for _, lectureID := range s.resources.lectureIDs {
		lecture := s.resources.Lectures[lectureID]
		course := s.resources.Courses[lecture.CourseID]

		for _, entry := range s.entries[lectureID] {
			room := s.resources.Rooms[entry.RoomID]

			if roomUsage[slotKey{entry.Day, entry.Hour, entry.RoomID}] == 1 {
				uniqueSlots++
			}
			if room.Capacity >= lecture.Strength {
				capacityRooms++
			}
			if course.AvailableSlots[entry.Day][entry.Hour] {
				courseSlots++
			}
			if course.AvailableRoomIDs.has(entry.RoomID) {
				courseRooms++
			}

			slotScore, roomScore := s.teacherScores(lecture, entry)
			teacherSlots += slotScore
			teacherRooms += roomScore

			if !clashes(lecture, concurrent[timeKey{entry.Day, entry.Hour}]) {
				lectureSlots++
			}
		}
	}

	n := float64(total)
	scores := []float64{
		float64(uniqueSlots) / n,
		float64(capacityRooms) / n,
		float64(courseSlots) / n,
		float64(courseRooms) / n,
		teacherSlots / n,
		teacherRooms / n,
		float64(lectureSlots) / n,
	}

	sum := 0.0
	for _, score := range scores {
		sum += score
	}
	return sum / float64(len(scores))
}

// teacherScores 返回该安排满足教师时间和教室要求的比例，没有教师的课堂视为完全满足
func (s *Schedule) teacherScores(lecture *Lecture, entry Entry) (float64, float64) {
	if len(lecture.TeacherIDs) == 0 {
		return 1.0, 1.0
	}

	slots, rooms := 0, 0
	for _, teacherID := range lecture.TeacherIDs {
		teacher := s.resources.Teachers[teacherID]
		if teacher.AvailableSlots[entry.Day][entry.Hour] {
			slots++
		}
		if teacher.AvailableRoomIDs.has(entry.RoomID) {
			rooms++
		}
	}

	n := float64(len(lecture.TeacherIDs))
	return float64(slots) / n, float64(rooms) / n
}

// clashes 判断同一时间进行的课堂中是否存在与 lecture 冲突的课堂
func clashes(lecture *Lecture, concurrentLectureIDs []string) bool {
	for _, otherID := range concurrentLectureIDs {
		if lecture.NoncurrentLectureIDs.has(otherID) {
			return true
		}
	}
	return false
}
