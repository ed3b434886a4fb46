package models

type Category struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"not null"`

	// Relationships
	Questions []Question `json:"questions,omitempty" gorm:"foreignKey:CategoryID"`
}
