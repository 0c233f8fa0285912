package util

import "time"

// ParseDate 支持 2006-01-02 与 RFC3339，dateOnly 表示输入只有日期部分
func ParseDate(s string) (t time.Time, dateOnly bool, ok bool) {
	if s == "" {
		return time.Time{}, false, false
	}
	if t, err := time.Parse(DateFormat, s); err == nil {
		return t, true, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, false, true
	}
	return time.Time{}, false, false
}
