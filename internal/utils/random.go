package utils

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/mozillazg/go-pinyin"
	"github.com/sysu-ecnc-dev/timetable-generator/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "勇", "霞", "飞", "玲",
	"超", "华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌",
	"庆", "建", "丹", "彬", "凤", "旭", "宁", "乐", "成", "欣",
}

func GenerateRandomChineseName() string {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	nameLength := rand.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

var roles = []domain.Role{
	domain.RoleViewer,
	domain.RoleAdmin,
}

func GenerateRandomRole() domain.Role {
	return roles[rand.Intn(len(roles))]
}

var digits = "0123456789"

// GenerateUsernameFromChineseName 取每个字拼音的前缀，再加上 1~3 位数字
func GenerateUsernameFromChineseName(chineseName string) string {
	pinyinArray := pinyin.LazyConvert(chineseName, nil)
	username := ""

	for _, pinyin := range pinyinArray {
		length := rand.Intn(len(pinyin)) + 1
		username += pinyin[:length]
	}

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		username += string(digits[rand.Intn(len(digits))])
	}

	return username
}

func GenerateRandomUser(password string, emailDomainName string) (*domain.User, error) {
	fullName := GenerateRandomChineseName()
	username := GenerateUsernameFromChineseName(fullName)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(passwordHash),
		FullName:     fullName,
		Email:        username + "@" + emailDomainName,
		Role:         GenerateRandomRole(),
	}

	return user, nil
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*")

func GenerateRandomPassword(length int) string {
	randomPassword := make([]rune, length)
	for i := range randomPassword {
		randomPassword[i] = letters[rand.Intn(len(letters))]
	}
	return string(randomPassword)
}

var (
	buildings   = []string{"A", "B", "C", "D", "E"}
	departments = []string{"计算机学院", "数学学院", "物理学院", "外国语学院", "艺术学院"}
	courseNames = []string{
		"数据结构", "操作系统", "计算机网络", "数据库系统", "编译原理",
		"线性代数", "概率论", "数学分析", "大学物理", "大学英语",
		"美术鉴赏", "音乐欣赏", "体育", "思想政治", "离散数学",
	}
)

// GenerateRandomGrid 生成一个大部分时间可用的可用时间表
func GenerateRandomGrid(weekDays int, dailyHours int, availability float64) domain.Grid {
	grid := make(domain.Grid, weekDays)
	for d := range grid {
		grid[d] = make([]bool, dailyHours)
		for h := range grid[d] {
			grid[d][h] = rand.Float64() < availability
		}
	}
	return grid
}

// randomSubset 随机选出 [1, max] 个不重复的元素
func randomSubset(ids []string, max int) []string {
	n := rand.Intn(min(max, len(ids))) + 1
	subset := make([]string, n)
	for i, j := range rand.Perm(len(ids))[:n] {
		subset[i] = ids[j]
	}
	return subset
}

// GenerateRandomResourceBundle 生成一套包含 lectures 个课堂的随机排课资源
// 每个课堂对应一门课程，其中大约五分之一是前一门理论课的实验课
func GenerateRandomResourceBundle(lectures int, weekDays int, dailyHours int) *domain.ResourceBundle {
	bundle := &domain.ResourceBundle{}

	roomIDs := make([]string, lectures/4+1)
	for i := range roomIDs {
		roomIDs[i] = uuid.NewString()
		bundle.Rooms = append(bundle.Rooms, domain.Room{
			ID:             roomIDs[i],
			Name:           fmt.Sprintf("%s%d", buildings[rand.Intn(len(buildings))], 101+i),
			Capacity:       30 + 10*rand.Intn(10),
			AvailableSlots: GenerateRandomGrid(weekDays, dailyHours, 0.9),
		})
	}

	teacherIDs := make([]string, lectures/3+1)
	for i := range teacherIDs {
		teacherIDs[i] = uuid.NewString()
		bundle.Teachers = append(bundle.Teachers, domain.Teacher{
			ID:             teacherIDs[i],
			Name:           GenerateRandomChineseName(),
			Department:     departments[rand.Intn(len(departments))],
			AvailableRooms: randomSubset(roomIDs, len(roomIDs)),
			AvailableSlots: GenerateRandomGrid(weekDays, dailyHours, 0.8),
		})
	}

	sectionIDs := make([]string, lectures/5+1)
	for i := range sectionIDs {
		sectionIDs[i] = uuid.NewString()
		bundle.Sections = append(bundle.Sections, domain.Section{
			ID:         sectionIDs[i],
			Name:       fmt.Sprintf("2024级%d班", i+1),
			Batch:      "2024",
			Department: departments[rand.Intn(len(departments))],
		})
	}

	theoryCourseIDs := make([]string, 0, lectures)
	for i := 0; i < lectures; i++ {
		course := domain.Course{
			ID:             uuid.NewString(),
			CourseCode:     fmt.Sprintf("CS%03d", i+1),
			Title:          courseNames[rand.Intn(len(courseNames))],
			Department:     departments[rand.Intn(len(departments))],
			IsCoreCourse:   rand.Intn(2) == 0,
			AvailableRooms: randomSubset(roomIDs, len(roomIDs)),
			AvailableSlots: GenerateRandomGrid(weekDays, dailyHours, 0.9),
		}

		if i%5 == 4 {
			// 实验课必须在一天之内连续上完
			course.TheoryCourseID = theoryCourseIDs[len(theoryCourseIDs)-1]
			course.Title += "实验"
			course.Duration = min(2+rand.Intn(2), dailyHours)
		} else {
			course.Duration = 1 + rand.Intn(3)
			if len(theoryCourseIDs) > 0 && rand.Float64() < 0.2 {
				course.PrerequisiteIDs = []string{theoryCourseIDs[rand.Intn(len(theoryCourseIDs))]}
			}
			theoryCourseIDs = append(theoryCourseIDs, course.ID)
		}

		bundle.Courses = append(bundle.Courses, course)
		bundle.Lectures = append(bundle.Lectures, domain.Lecture{
			ID:         uuid.NewString(),
			Name:       fmt.Sprintf("%s-%d", course.Title, i+1),
			Strength:   20 + rand.Intn(80),
			CourseID:   course.ID,
			TeacherIDs: randomSubset(teacherIDs, 2),
			SectionIDs: randomSubset(sectionIDs, 2),
		})
	}

	for i := 0; i+1 < len(theoryCourseIDs) && i < lectures/5; i += 2 {
		bundle.Constraints = append(bundle.Constraints, domain.ElectiveConstraint{
			ID:            uuid.NewString(),
			PairedCourses: []string{theoryCourseIDs[i], theoryCourseIDs[i+1]},
		})
	}

	return bundle
}
