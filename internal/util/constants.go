package util

const DateFormat = "2006-01-02"

// DefaultPage 页码缺省值，每页条数的缺省值与上限见 review 配置
const DefaultPage = 1

// 没有外部项目 ID 时投影使用的占位值
const UnassignedProjectID = "unassigned"

const (
	MaxScore = 100.0
	MinScore = 0.0
)
