package model

import (
	"errors"
	"fmt"

	"gorm.io/datatypes"
)

// AutogradingKind 自动评分配置的类型标签
type AutogradingKind string

const (
	AutogradingNone      AutogradingKind = "none"
	AutogradingUnitTests AutogradingKind = "unit_tests"
	AutogradingRubric    AutogradingKind = "rubric"
)

// UnitTestSpec 单元测试评分配置
type UnitTestSpec struct {
	Command        string `json:"command"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
	PassThreshold  int    `json:"passThreshold"` // 通过所需的百分比
}

// RubricCriterion 评分细则中的一项
type RubricCriterion struct {
	Name   string `json:"name"`
	Weight int    `json:"weight"`
}

// RubricSpec 人工评分细则
type RubricSpec struct {
	Criteria []RubricCriterion `json:"criteria"`
}

// AutogradingConfig 带类型标签的自动评分配置，Kind 决定哪个字段有效
type AutogradingConfig struct {
	Kind      AutogradingKind `json:"kind"`
	UnitTests *UnitTestSpec   `json:"unitTests,omitempty"`
	Rubric    *RubricSpec     `json:"rubric,omitempty"`
}

var ErrInvalidAutograding = errors.New("invalid autograding config")

func (c AutogradingConfig) Validate() error {
	switch c.Kind {
	case AutogradingNone, "":
		if c.UnitTests != nil || c.Rubric != nil {
			return fmt.Errorf("%w: kind none must not carry a payload", ErrInvalidAutograding)
		}
	case AutogradingUnitTests:
		if c.UnitTests == nil || c.Rubric != nil {
			return fmt.Errorf("%w: kind unit_tests requires only unitTests", ErrInvalidAutograding)
		}
		if c.UnitTests.Command == "" {
			return fmt.Errorf("%w: unit test command is required", ErrInvalidAutograding)
		}
		if c.UnitTests.TimeoutSeconds <= 0 {
			return fmt.Errorf("%w: unit test timeout must be positive", ErrInvalidAutograding)
		}
		if c.UnitTests.PassThreshold < 0 || c.UnitTests.PassThreshold > 100 {
			return fmt.Errorf("%w: pass threshold must be within [0,100]", ErrInvalidAutograding)
		}
	case AutogradingRubric:
		if c.Rubric == nil || c.UnitTests != nil {
			return fmt.Errorf("%w: kind rubric requires only rubric", ErrInvalidAutograding)
		}
		if len(c.Rubric.Criteria) == 0 {
			return fmt.Errorf("%w: rubric needs at least one criterion", ErrInvalidAutograding)
		}
		total := 0
		for _, cr := range c.Rubric.Criteria {
			if cr.Name == "" || cr.Weight <= 0 {
				return fmt.Errorf("%w: rubric criterion needs a name and positive weight", ErrInvalidAutograding)
			}
			total += cr.Weight
		}
		if total != 100 {
			return fmt.Errorf("%w: rubric weights sum to %d, want 100", ErrInvalidAutograding, total)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidAutograding, c.Kind)
	}
	return nil
}

// swagger:model Project
type Project struct {
	ID          string                                `gorm:"primaryKey;type:varchar(64)" json:"id"` // 外部系统分配
	Title       string                                `gorm:"size:255;not null" json:"title"`
	CareerID    *uint                                 `gorm:"index" json:"careerId"`
	Autograding datatypes.JSONType[AutogradingConfig] `json:"autograding"`
}

func (Project) TableName() string {
	return "projects"
}
