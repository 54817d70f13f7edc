package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

/**********************************************
 * Date: 不带时区的日历日期
 **********************************************/

const dateLayout = "2006-01-02"

type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf 取 t 在其自身时区下的日历日期
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, &FormatError{Kind: "日期", Value: s}
	}
	return DateOf(t), nil
}

func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

func (d Date) Before(o Date) bool {
	return d.Time().Before(o.Time())
}

func (d Date) After(o Date) bool {
	return d.Time().After(o.Time())
}

func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) String() string {
	return d.Time().Format(dateLayout)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

/**********************************************
 * Weekday: 周一为 0，周日为 6
 **********************************************/

type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayKeys = [7]string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// Weekdays 按周一到周日的顺序返回一周七天
func Weekdays() [7]Weekday {
	return [7]Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}
}

func WeekdayOf(d Date) Weekday {
	// time.Weekday 以周日为 0
	return Weekday((int(d.Time().Weekday()) + 6) % 7)
}

func ParseWeekday(s string) (Weekday, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for i, k := range weekdayKeys {
		if k == key {
			return Weekday(i), nil
		}
	}
	return 0, &FormatError{Kind: "星期", Value: s}
}

func (d Weekday) Valid() bool {
	return d >= Monday && d <= Sunday
}

func (d Weekday) String() string {
	if !d.Valid() {
		return fmt.Sprintf("weekday(%d)", int(d))
	}
	return weekdayKeys[d]
}

func (d Weekday) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, &FormatError{Kind: "星期", Value: strconv.Itoa(int(d))}
	}
	return []byte(d.String()), nil
}

func (d *Weekday) UnmarshalText(b []byte) error {
	parsed, err := ParseWeekday(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

/**********************************************
 * WeekKey: ISO-8601 周标识
 **********************************************/

type WeekKey struct {
	Year int
	Week int
}

// WeekKeyOf 按 ISO-8601 规则计算日期所在的周，包含当年第一个周四的那一周为第 1 周
func WeekKeyOf(d Date) WeekKey {
	y, w := d.Time().ISOWeek()
	return WeekKey{Year: y, Week: w}
}

func ParseWeekKey(s string) (WeekKey, error) {
	yearPart, weekPart, ok := strings.Cut(strings.TrimSpace(s), "-W")
	if !ok || len(weekPart) != 2 {
		return WeekKey{}, &FormatError{Kind: "周", Value: s}
	}
	year, err := strconv.Atoi(yearPart)
	if err != nil {
		return WeekKey{}, &FormatError{Kind: "周", Value: s}
	}
	week, err := strconv.Atoi(weekPart)
	if err != nil {
		return WeekKey{}, &FormatError{Kind: "周", Value: s}
	}

	k := WeekKey{Year: year, Week: week}
	// 检查周数在该年中确实存在（有的年份只有 52 周）
	if week < 1 || week > 53 || WeekKeyOf(k.Monday()) != k {
		return WeekKey{}, &FormatError{Kind: "周", Value: s}
	}
	return k, nil
}

// Monday 返回该周的周一
func (k WeekKey) Monday() Date {
	// 1 月 4 日一定在第 1 周
	jan4 := NewDate(k.Year, time.January, 4)
	week1Monday := jan4.AddDays(-int(WeekdayOf(jan4)))
	return week1Monday.AddDays((k.Week - 1) * 7)
}

func (k WeekKey) Dates() [7]Date {
	var dates [7]Date
	monday := k.Monday()
	for i := range dates {
		dates[i] = monday.AddDays(i)
	}
	return dates
}

func (k WeekKey) Date(day Weekday) Date {
	return k.Monday().AddDays(int(day))
}

func (k WeekKey) AddWeeks(n int) WeekKey {
	return WeekKeyOf(k.Monday().AddDays(7 * n))
}

func (k WeekKey) Contains(d Date) bool {
	return WeekKeyOf(d) == k
}

func (k WeekKey) IsZero() bool {
	return k == WeekKey{}
}

func (k WeekKey) String() string {
	return fmt.Sprintf("%d-W%02d", k.Year, k.Week)
}

func (k WeekKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *WeekKey) UnmarshalText(b []byte) error {
	parsed, err := ParseWeekKey(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// WeekDates 返回包含 d 的那一周（周一到周日）的七个日期
func WeekDates(d Date) [7]Date {
	return WeekKeyOf(d).Dates()
}

/**********************************************
 * TimeOfDay: 一天中的时刻，以分钟计
 **********************************************/

const MinutesPerDay = 24 * 60

type TimeOfDay int

func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

// ParseTimeOfDay 接受 "15:04"，也兼容 "15:04:05"（秒被忽略）
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return NewTimeOfDay(t.Hour(), t.Minute()), nil
		}
	}
	return 0, &FormatError{Kind: "时间", Value: s}
}

func MustParseTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

// ClampTimeOfDay 把分钟数限制在 [00:00, 23:59] 之内
func ClampTimeOfDay(minutes int) TimeOfDay {
	return TimeOfDay(max(0, min(MinutesPerDay-1, minutes)))
}

func (t TimeOfDay) Minutes() int {
	return int(t)
}

func (t TimeOfDay) Valid() bool {
	return t >= 0 && t < MinutesPerDay
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, &FormatError{Kind: "时间", Value: strconv.Itoa(int(t))}
	}
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(b []byte) error {
	parsed, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// DurationHours 返回 end 与 start 之间的小时数
// 不支持跨午夜的班次，end 早于 start 时结果为负数，这里不做修正
func DurationHours(start, end TimeOfDay) float64 {
	return float64(end.Minutes()-start.Minutes()) / 60
}
