package models

// QuestionModel is a user-posted question.
// Vote, View and Report are denormalized counters maintained by the
// interaction ledger and the moderation pipeline.
type QuestionModel struct {
	SoftDeleteBase
	UserID   string         `json:"user_id"  gorm:"index;not null"`
	User     *UserModel     `json:"user,omitempty"`
	Title    string         `json:"title"    gorm:"not null"`
	Question string         `json:"question" gorm:"type:text;not null"`
	Vote     int            `json:"vote"     gorm:"default:0"`
	View     int            `json:"view"     gorm:"default:0"`
	Report   int            `json:"report"   gorm:"default:0"`
	Subjects []SubjectModel `json:"subjects,omitempty" gorm:"many2many:question_subjects;"`
	Answers  []AnswerModel  `json:"answers,omitempty"  gorm:"foreignKey:QuestionID"`
}

func (QuestionModel) TableName() string { return "questions" }

// AnswerModel is an answer to a question. Verified marks the answer the
// question owner accepted.
type AnswerModel struct {
	SoftDeleteBase
	UserID     string         `json:"user_id"     gorm:"index;not null"`
	User       *UserModel     `json:"user,omitempty"`
	QuestionID string         `json:"question_id" gorm:"index;not null"`
	Question   *QuestionModel `json:"question,omitempty"`
	Answer     string         `json:"answer"      gorm:"type:text;not null"`
	Verified   bool           `json:"verified"    gorm:"default:false"`
	Vote       int            `json:"vote"        gorm:"default:0"`
	Report     int            `json:"report"      gorm:"default:0"`
}

func (AnswerModel) TableName() string { return "answers" }

// CommentModel is a comment on a question or an answer. The parent is a
// polymorphic (id, type) pair resolved through the content registry.
type CommentModel struct {
	SoftDeleteBase
	UserID          string     `json:"user_id"          gorm:"index;not null"`
	User            *UserModel `json:"user,omitempty"`
	CommentableID   string     `json:"commentable_id"   gorm:"index:idx_commentable;not null"`
	CommentableType string     `json:"commentable_type" gorm:"index:idx_commentable;size:20;not null"`
	Comment         string     `json:"comment"          gorm:"type:text;not null"`
	Vote            int        `json:"vote"             gorm:"default:0"`
	Report          int        `json:"report"           gorm:"default:0"`
}

func (CommentModel) TableName() string { return "comments" }

// SubjectModel is a tag a question can be filed under.
type SubjectModel struct {
	Base
	Name        string `json:"name"        gorm:"uniqueIndex;not null"`
	Description string `json:"description" gorm:"type:text"`
}

func (SubjectModel) TableName() string { return "subjects" }
