package model

// swagger:model Career
type Career struct {
	BaseModel
	Name        string `gorm:"size:150;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
}

func (Career) TableName() string {
	return "careers"
}
