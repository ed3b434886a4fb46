package models

type Question struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	CategoryID uint   `json:"category_id" gorm:"not null"`
	Text       string `json:"text" gorm:"not null"`
	Answer     string `json:"-" gorm:"not null"`
	Price      int    `json:"price" gorm:"not null"`

	// Relationships
	Category Category `json:"category,omitempty"`
}
