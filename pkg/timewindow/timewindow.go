// Package timewindow 负责把用户时区换算为本地日/周边界。
//
// 所有函数均为纯计算，不做任何 IO；时区解析失败永远不会返回错误，
// 而是按 用户时区 → 国家映射 → UTC 三级降级（由调用方记录软告警）。
package timewindow

import "time"

// countryZones 国家 ISO 代码 → 主时区映射
// 注册时未填写时区的用户按国家推断
var countryZones = map[string]string{
	"AR": "America/Argentina/Buenos_Aires",
	"BR": "America/Sao_Paulo",
	"CL": "America/Santiago",
	"CO": "America/Bogota",
	"MX": "America/Mexico_City",
	"PE": "America/Lima",
	"UY": "America/Montevideo",
	"VE": "America/Caracas",
	"ES": "Europe/Madrid",
	"FR": "Europe/Paris",
	"DE": "Europe/Berlin",
	"IT": "Europe/Rome",
	"GB": "Europe/London",
	"PT": "Europe/Lisbon",
	"US": "America/New_York",
	"CA": "America/Toronto",
	"AU": "Australia/Sydney",
	"JP": "Asia/Tokyo",
	"CN": "Asia/Shanghai",
	"IN": "Asia/Kolkata",
	"KR": "Asia/Seoul",
	"RU": "Europe/Moscow",
}

// Week 一个用户本地周（周一至周日）的完整边界信息
type Week struct {
	StartLocal time.Time // 周一 00:00:00（本地时区）
	EndLocal   time.Time // 周日 23:59:59.999999999（本地时区）
	StartUTC   time.Time // StartLocal 的 UTC 等价时刻
	EndUTC     time.Time // EndLocal 的 UTC 等价时刻
	StartDate  time.Time // 周一的日期（UTC 午夜表示，仅日期语义）
	EndDate    time.Time // 周日的日期（UTC 午夜表示，仅日期语义）
	ISOYear    int       // ISO-8601 年份，跨年周必须与 ISOWeek 成对使用
	ISOWeek    int       // ISO-8601 周序号
}

// Resolve 解析用户的有效时区
// 三级降级：时区标识 → 国家映射 → UTC；fallback 为 true 表示未命中用户存储的时区
func Resolve(tzName, country string) (loc *time.Location, fallback bool) {
	if tzName != "" {
		if l, err := time.LoadLocation(tzName); err == nil {
			return l, false
		}
	}
	if zone, ok := countryZones[country]; ok {
		if l, err := time.LoadLocation(zone); err == nil {
			return l, true
		}
	}
	return time.UTC, true
}

// Date 提取 t 在 loc 时区下的日历日期（UTC 午夜表示）
func Date(loc *time.Location, t time.Time) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayRange 计算某个日历日期在 loc 时区下的起止时刻
// date 仅取日期部分；time.Date 会对 DST 不存在/重复的时刻做规范化
func DayRange(loc *time.Location, date time.Time) (start, end time.Time) {
	y, m, d := date.Date()
	start = time.Date(y, m, d, 0, 0, 0, 0, loc)
	end = time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), loc)
	return start, end
}

// WeekOf 计算 ref 时刻落入的用户本地周（周一至周日）
//
// 周起点 = 本地日期减去自周一以来的天数，本地午夜；
// 周终点 = 起点 + 6 天的本地日终。起止各自换算 UTC，供存储与查询使用。
// 跨 DST 时两端的 UTC 偏移可能不同，因此必须分别换算，不能做时长加减。
func WeekOf(loc *time.Location, ref time.Time) Week {
	local := ref.In(loc)

	// Monday=0 … Sunday=6
	daysSinceMonday := (int(local.Weekday()) + 6) % 7

	y, m, d := local.Date()
	startLocal := time.Date(y, m, d-daysSinceMonday, 0, 0, 0, 0, loc)
	_, endLocal := DayRange(loc, startLocal.AddDate(0, 0, 6))

	isoYear, isoWeek := startLocal.ISOWeek()

	sy, sm, sd := startLocal.Date()
	ey, em, ed := endLocal.Date()

	return Week{
		StartLocal: startLocal,
		EndLocal:   endLocal,
		StartUTC:   startLocal.UTC(),
		EndUTC:     endLocal.UTC(),
		StartDate:  time.Date(sy, sm, sd, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC),
		ISOYear:    isoYear,
		ISOWeek:    isoWeek,
	}
}

// ISOWeekOf 提取某个日期的 (ISO年, ISO周) 对
// 年末周 1 与上一年周 52/53 可能同号，比较周是否变化时必须带上 ISO 年
func ISOWeekOf(date time.Time) (isoYear, isoWeek int) {
	return date.ISOWeek()
}
