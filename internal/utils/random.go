package utils

import (
	"math/rand"
	"strings"
	"unicode"

	"github.com/freshshift/shift-planner/backend/internal/domain"
	"github.com/mozillazg/go-pinyin"
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

var digits = "0123456789"

// UsernameBase 把姓名转换为只包含小写字母和数字的用户名前缀，汉字转换为拼音
func UsernameBase(name string) string {
	var sb strings.Builder
	for _, r := range name {
		switch {
		case unicode.Is(unicode.Han, r):
			for _, py := range pinyin.LazyConvert(string(r), nil) {
				sb.WriteString(py)
			}
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			sb.WriteRune(unicode.ToLower(r))
		}
	}

	if sb.Len() == 0 {
		return "user"
	}
	return sb.String()
}

// GenerateUsernameFromName 在用户名前缀后追加 1 到 3 位随机数字
func GenerateUsernameFromName(name string) string {
	username := UsernameBase(name)

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		username += string(digits[rand.Intn(len(digits))])
	}

	return username
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*")

func GenerateRandomPassword(length int) string {
	random_password := make([]rune, length)
	for i := range random_password {
		random_password[i] = letters[rand.Intn(len(letters))]
	}
	return string(random_password)
}

// GenerateRandomWindow 在 08:00 到 22:00 之间生成一个以半小时为单位、至少 2 小时的时间段
func GenerateRandomWindow() (domain.TimeOfDay, domain.TimeOfDay) {
	startSlot := rand.Intn(21)                // 08:00 ~ 18:00
	length := rand.Intn(28-startSlot-4+1) + 4 // 至少 2 小时，不超过 22:00
	start := domain.NewTimeOfDay(8, 0) + domain.TimeOfDay(startSlot*30)
	end := start + domain.TimeOfDay(length*30)
	return start, end
}

// GenerateRandomWeekDays 随机生成一周的空闲时间，每天约有三分之二的概率可用
func GenerateRandomWeekDays() domain.WeekDays {
	days := make(domain.WeekDays, 7)
	for _, day := range domain.Weekdays() {
		if rand.Intn(3) == 0 {
			days[day] = domain.DayAvailability{Available: false}
			continue
		}
		start, end := GenerateRandomWindow()
		days[day] = domain.DayAvailability{Available: true, Start: &start, End: &end}
	}
	return days
}
