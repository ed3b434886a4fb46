package services

import (
	"errors"
	"fmt"
	"log"

	"jeopardy/models"

	"gorm.io/gorm"
)

// QuestionBank is the in-memory category/question snapshot a round plays
// from. Read-only after construction, so rounds share it without locking.
type QuestionBank struct {
	Categories map[uint]*models.Category
	Questions  map[uint]*models.Question
}

func newQuestionBank(categories []models.Category) *QuestionBank {
	bank := &QuestionBank{
		Categories: make(map[uint]*models.Category),
		Questions:  make(map[uint]*models.Question),
	}
	for i := range categories {
		category := &categories[i]
		bank.Categories[category.ID] = category
		for j := range category.Questions {
			question := &category.Questions[j]
			bank.Questions[question.ID] = question
		}
	}
	return bank
}

// LoadQuestionBank reads all categories with their questions once at
// startup.
func LoadQuestionBank(db *gorm.DB) (*QuestionBank, error) {
	var categories []models.Category
	err := db.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("questions.id")
	}).Order("id").Find(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("load question bank: %w", err)
	}

	bank := newQuestionBank(categories)
	log.Printf("Loaded %d categories and %d questions", len(bank.Categories), len(bank.Questions))
	return bank, nil
}

// ConvertCustomPack turns a host-supplied pack into the same shape a round
// consumes. Ids are assigned deterministically: categories from 1, questions
// from 1 across all categories in category order. A malformed pack returns
// an error and the caller falls back to the stored questions.
func ConvertCustomPack(pack *CustomPack) (*QuestionBank, error) {
	if pack == nil || len(pack.Categories) == 0 {
		return nil, errors.New("custom pack has no categories")
	}

	var categories []models.Category
	questionID := uint(0)
	for i, customCategory := range pack.Categories {
		if customCategory.Name == "" {
			return nil, fmt.Errorf("category %d has no name", i+1)
		}
		category := models.Category{
			ID:   uint(i + 1),
			Name: customCategory.Name,
		}
		for j, customQuestion := range customCategory.Questions {
			if customQuestion.Text == "" || customQuestion.Answer == "" {
				return nil, fmt.Errorf("question %d in category %q is incomplete", j+1, customCategory.Name)
			}
			if customQuestion.Price <= 0 {
				return nil, fmt.Errorf("question %d in category %q has a non-positive price", j+1, customCategory.Name)
			}
			questionID++
			category.Questions = append(category.Questions, models.Question{
				ID:         questionID,
				CategoryID: category.ID,
				Text:       customQuestion.Text,
				Answer:     customQuestion.Answer,
				Price:      customQuestion.Price,
			})
		}
		categories = append(categories, category)
	}

	return newQuestionBank(categories), nil
}

// SeedQuestions fills an empty database with the default pack so a fresh
// install is playable.
func SeedQuestions(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Category{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	categories := []models.Category{
		{Name: "History", Questions: []models.Question{
			{Text: "In what year did World War II begin?", Answer: "1939", Price: 100},
			{Text: "Who was the first president of the United States?", Answer: "George Washington", Price: 200},
			{Text: "Which city was the capital of Kievan Rus?", Answer: "Kyiv", Price: 300},
			{Text: "In what year did the October Revolution take place?", Answer: "1917", Price: 400},
			{Text: "Who was the last emperor of Russia?", Answer: "Nicholas II", Price: 500},
		}},
		{Name: "Geography", Questions: []models.Question{
			{Text: "What is the longest river in the world?", Answer: "Nile", Price: 100},
			{Text: "Which country is the largest by area?", Answer: "Russia", Price: 200},
			{Text: "What is the tallest waterfall in the world?", Answer: "Angel Falls", Price: 300},
			{Text: "What is the largest ocean?", Answer: "Pacific", Price: 400},
			{Text: "What is the smallest country in the world?", Answer: "Vatican", Price: 500},
		}},
		{Name: "Science", Questions: []models.Question{
			{Text: "Which element has the chemical symbol O?", Answer: "Oxygen", Price: 100},
			{Text: "Who discovered the law of universal gravitation?", Answer: "Isaac Newton", Price: 200},
			{Text: "Which planet is closest to the Sun?", Answer: "Mercury", Price: 300},
			{Text: "What is the most abundant element in the universe?", Answer: "Hydrogen", Price: 400},
			{Text: "Who developed the theory of relativity?", Answer: "Albert Einstein", Price: 500},
		}},
		{Name: "Sports", Questions: []models.Question{
			{Text: "In which sport is a puck used?", Answer: "Hockey", Price: 100},
			{Text: "How many players does a football team have on the pitch?", Answer: "11", Price: 200},
			{Text: "Which country has won the most football World Cups?", Answer: "Brazil", Price: 300},
			{Text: "Which sport is called the queen of sports?", Answer: "Athletics", Price: 400},
			{Text: "Who has won the most Grand Slam titles in men's tennis?", Answer: "Novak Djokovic", Price: 500},
		}},
		{Name: "Art", Questions: []models.Question{
			{Text: "Who painted the Mona Lisa?", Answer: "Leonardo da Vinci", Price: 100},
			{Text: "Who wrote the novel War and Peace?", Answer: "Leo Tolstoy", Price: 200},
			{Text: "Which painter cut off his own ear?", Answer: "Vincent van Gogh", Price: 300},
			{Text: "Who wrote Eugene Onegin?", Answer: "Alexander Pushkin", Price: 400},
			{Text: "Which musician is known as the King of Rock and Roll?", Answer: "Elvis Presley", Price: 500},
		}},
	}

	for i := range categories {
		if err := db.Create(&categories[i]).Error; err != nil {
			return fmt.Errorf("seed category %q: %w", categories[i].Name, err)
		}
	}

	log.Printf("Seeded %d default categories", len(categories))
	return nil
}
