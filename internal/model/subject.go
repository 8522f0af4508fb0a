package model

// Subject 学科表 — 对应 subjects
type Subject struct {
	SubjectID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"subject_id"`
	UserID    string `gorm:"type:uuid;not null;index"                       json:"user_id"`
	Name      string `gorm:"type:varchar(100);not null"                     json:"name"`
	Color     string `gorm:"type:varchar(7);not null;default:'#4F46E5'"     json:"color"`
	IsActive  bool   `gorm:"not null;default:true"                          json:"is_active"`
	BaseModel

	User *User `gorm:"foreignKey:UserID;references:UserID" json:"-"`
}

// TableName 指定表名
func (Subject) TableName() string { return "subjects" }
