package models

import (
	"time"

	"gorm.io/gorm"
)

type QuestionType string

const (
	SingleChoice   QuestionType = "single_choice"
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
	ShortAnswer    QuestionType = "short_answer"
)

// IsChoice reports whether answers to this question type are option selections.
func (t QuestionType) IsChoice() bool {
	return t == SingleChoice || t == MultipleChoice || t == TrueFalse
}

type Quiz struct {
	ID           string  `json:"id" gorm:"primaryKey;size:36"`
	CourseID     string  `json:"course_id" gorm:"not null;index;size:36"`
	Title        string  `json:"title" gorm:"not null;size:200" validate:"required,min=1,max=200"`
	Category     string  `json:"category" gorm:"not null;size:100;default:Quizzes" validate:"required,max=100"`
	PassingScore float64 `json:"passing_score" gorm:"not null" validate:"min=0,max=100"`

	// Zero means untimed.
	TimeLimitSeconds int `json:"time_limit_seconds" gorm:"default:0" validate:"min=0"`
	MaxAttempts      int `json:"max_attempts" gorm:"default:1" validate:"min=0,max=10"`

	ShuffleQuestions bool `json:"shuffle_questions" gorm:"default:false"`
	ShuffleOptions   bool `json:"shuffle_options" gorm:"default:false"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Questions []Question `json:"questions" gorm:"foreignKey:QuizID"`
}

type Question struct {
	ID       string       `json:"id" gorm:"primaryKey;size:36"`
	QuizID   string       `json:"quiz_id" gorm:"not null;index;size:36"`
	Type     QuestionType `json:"type" gorm:"not null;size:30" validate:"required,question_type"`
	Text     string       `json:"text" gorm:"type:text;not null" validate:"required"`
	Position int          `json:"position" gorm:"not null"`
	Points   float64      `json:"points" gorm:"not null" validate:"gt=0"`

	// Display hint only; grading uses the quiz time limit.
	TimeLimitSeconds *int `json:"time_limit_seconds,omitempty"`

	Options []Option `json:"options" gorm:"foreignKey:QuestionID"`
}

type Option struct {
	ID         string `json:"id" gorm:"primaryKey;size:36"`
	QuestionID string `json:"question_id" gorm:"not null;index;size:36"`
	Text       string `json:"text" gorm:"type:text;not null"`
	IsCorrect  bool   `json:"is_correct" gorm:"not null;default:false"`
	Position   int    `json:"position"`
}

// MaxPoints returns the sum of question points.
func (q *Quiz) MaxPoints() float64 {
	total := 0.0
	for _, question := range q.Questions {
		total += question.Points
	}
	return total
}

// TimeLimit returns the quiz time limit, or zero when untimed.
func (q *Quiz) TimeLimit() time.Duration {
	if q.TimeLimitSeconds <= 0 {
		return 0
	}
	return time.Duration(q.TimeLimitSeconds) * time.Second
}

func (Quiz) TableName() string {
	return "quizzes"
}

func (Question) TableName() string {
	return "quiz_questions"
}

func (Option) TableName() string {
	return "question_options"
}
