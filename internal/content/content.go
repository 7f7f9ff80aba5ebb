// Package content resolves polymorphic (id, type) references to the concrete
// question/answer/comment tables. It is the Go counterpart of the morph map:
// an explicit kind enum with one loader per variant, no reflection.
package content

import (
	"errors"
	"fmt"

	"github.com/askspace/core/internal/models"
	"gorm.io/gorm"
)

// Kind discriminates the content variant behind a polymorphic reference.
type Kind string

const (
	KindQuestion Kind = "question"
	KindAnswer   Kind = "answer"
	KindComment  Kind = "comment"
)

// ErrUnknownKind is returned for a type string outside the registered set.
var ErrUnknownKind = errors.New("unknown content type")

// ParseKind validates a raw type string from a request.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindQuestion, KindAnswer, KindComment:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Table returns the backing table for a kind.
func (k Kind) Table() string {
	switch k {
	case KindQuestion:
		return "questions"
	case KindAnswer:
		return "answers"
	case KindComment:
		return "comments"
	}
	return ""
}

// Viewable reports whether the kind tracks a per-item view counter.
// Only questions do.
func (k Kind) Viewable() bool { return k == KindQuestion }

// Item is the uniform view of a content row that the vote/view ledger and the
// reporting pipeline operate on.
type Item struct {
	Kind    Kind
	ID      string
	OwnerID string
	// Text is the item's primary text: title for a question, body otherwise.
	Text   string
	Vote   int
	View   int
	Report int
	// ParentKind/ParentID locate the enclosing content: the question for an
	// answer, the question or answer for a comment. Empty for questions.
	ParentKind Kind
	ParentID   string
}

// Resolve loads the polymorphic view of a content row. Returns (nil, nil)
// when the row does not exist or is soft-deleted, so callers can degrade
// instead of failing - orphaned report references depend on this.
func Resolve(db *gorm.DB, kind Kind, id string) (*Item, error) {
	switch kind {
	case KindQuestion:
		var q models.QuestionModel
		if err := db.First(&q, "id = ?", id).Error; err != nil {
			return nil, ignoreNotFound(err)
		}
		return &Item{
			Kind: KindQuestion, ID: q.ID, OwnerID: q.UserID,
			Text: q.Title, Vote: q.Vote, View: q.View, Report: q.Report,
		}, nil
	case KindAnswer:
		var a models.AnswerModel
		if err := db.First(&a, "id = ?", id).Error; err != nil {
			return nil, ignoreNotFound(err)
		}
		return &Item{
			Kind: KindAnswer, ID: a.ID, OwnerID: a.UserID,
			Text: a.Answer, Vote: a.Vote, Report: a.Report,
			ParentKind: KindQuestion, ParentID: a.QuestionID,
		}, nil
	case KindComment:
		var cm models.CommentModel
		if err := db.First(&cm, "id = ?", id).Error; err != nil {
			return nil, ignoreNotFound(err)
		}
		parentKind, err := ParseKind(cm.CommentableType)
		if err != nil {
			return nil, err
		}
		return &Item{
			Kind: KindComment, ID: cm.ID, OwnerID: cm.UserID,
			Text: cm.Comment, Vote: cm.Vote, Report: cm.Report,
			ParentKind: parentKind, ParentID: cm.CommentableID,
		}, nil
	}
	return nil, ErrUnknownKind
}

// SoftDelete takes a content row down without destroying it. Used when a
// report is resolved against the row.
func SoftDelete(db *gorm.DB, kind Kind, id string) error {
	switch kind {
	case KindQuestion:
		return db.Delete(&models.QuestionModel{}, "id = ?", id).Error
	case KindAnswer:
		return db.Delete(&models.AnswerModel{}, "id = ?", id).Error
	case KindComment:
		return db.Delete(&models.CommentModel{}, "id = ?", id).Error
	}
	return ErrUnknownKind
}

func ignoreNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}
