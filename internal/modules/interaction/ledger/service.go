package ledger

import (
	"errors"
	"strings"

	"github.com/askspace/core/internal/content"
	"github.com/askspace/core/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// reputationThreshold is the vote count a content item must cross for its
// owner to gain (or lose) one reputation point.
const reputationThreshold = 10

var (
	errContentNotFound = errors.New("content not found")
	errAlreadyVoted    = errors.New("already voted")
	errNotViewable     = errors.New("content does not track views")
)

type Service struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewService(db *gorm.DB, log *zap.Logger) *Service {
	return &Service{db: db, log: log}
}

// Upvote records a +1 vote by user on the item and returns the new vote count.
func (s *Service) Upvote(kind content.Kind, id, userID string) (int, error) {
	return s.vote(kind, id, userID, models.VoteUp)
}

// Downvote records a -1 vote by user on the item and returns the new vote count.
func (s *Service) Downvote(kind content.Kind, id, userID string) (int, error) {
	return s.vote(kind, id, userID, models.VoteDown)
}

// vote applies one vote. A repeat vote in the same direction fails; a vote in
// the opposite direction flips the stored record and moves the counter by two.
func (s *Service) vote(kind content.Kind, id, userID string, polarity int) (int, error) {
	tx := s.db.Begin()
	if tx.Error != nil {
		return 0, tx.Error
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	item, err := content.Resolve(tx, kind, id)
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	if item == nil {
		tx.Rollback()
		return 0, errContentNotFound
	}

	var existing models.VoteModel
	err = tx.Where("user_id = ? AND votable_id = ? AND votable_type = ?", userID, id, string(kind)).
		First(&existing).Error

	delta := polarity
	switch {
	case err == nil:
		if existing.Type == polarity {
			tx.Rollback()
			return 0, errAlreadyVoted
		}
		// Flipping direction: remove the old vote's effect and apply the new.
		delta = 2 * polarity
		if err := tx.Model(&existing).Update("type", polarity).Error; err != nil {
			tx.Rollback()
			return 0, err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		v := models.VoteModel{
			UserID:      userID,
			VotableID:   id,
			VotableType: string(kind),
			Type:        polarity,
		}
		if err := tx.Create(&v).Error; err != nil {
			tx.Rollback()
			if isDuplicateKey(err) {
				return 0, errAlreadyVoted
			}
			return 0, err
		}
	default:
		tx.Rollback()
		return 0, err
	}

	newCount := item.Vote + delta
	if err := tx.Table(kind.Table()).Where("id = ?", id).
		UpdateColumn("vote", gorm.Expr("vote + ?", delta)).Error; err != nil {
		tx.Rollback()
		return 0, err
	}

	if err := s.adjustReputation(tx, item.OwnerID, item.Vote, newCount); err != nil {
		tx.Rollback()
		return 0, err
	}

	if err := tx.Commit().Error; err != nil {
		return 0, err
	}

	s.log.Info("vote recorded",
		zap.String("type", string(kind)),
		zap.String("id", id),
		zap.String("user_id", userID),
		zap.Int("polarity", polarity),
		zap.Int("vote", newCount),
	)
	return newCount, nil
}

// ResetVotes zeroes the item's vote counter. Stored vote rows are left in
// place, so a fresh vote from a prior voter still fails.
func (s *Service) ResetVotes(kind content.Kind, id string) error {
	tx := s.db.Begin()
	if tx.Error != nil {
		return tx.Error
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	item, err := content.Resolve(tx, kind, id)
	if err != nil {
		tx.Rollback()
		return err
	}
	if item == nil {
		tx.Rollback()
		return errContentNotFound
	}

	if err := tx.Table(kind.Table()).Where("id = ?", id).
		UpdateColumn("vote", 0).Error; err != nil {
		tx.Rollback()
		return err
	}

	if err := s.adjustReputation(tx, item.OwnerID, item.Vote, 0); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

// View records a view event. The item-level counter only counts unique
// viewers; repeat views from the same user accumulate on the View row's total.
func (s *Service) View(kind content.Kind, id, userID string) (int, error) {
	if !kind.Viewable() {
		return 0, errNotViewable
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return 0, tx.Error
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	item, err := content.Resolve(tx, kind, id)
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	if item == nil {
		tx.Rollback()
		return 0, errContentNotFound
	}

	var existing models.ViewModel
	err = tx.Where("user_id = ? AND viewable_id = ? AND viewable_type = ?", userID, id, string(kind)).
		First(&existing).Error

	newCount := item.View
	switch {
	case err == nil:
		if err := tx.Model(&existing).
			UpdateColumn("total", gorm.Expr("total + 1")).Error; err != nil {
			tx.Rollback()
			return 0, err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		v := models.ViewModel{
			UserID:       userID,
			ViewableID:   id,
			ViewableType: string(kind),
			Total:        1,
		}
		if err := tx.Create(&v).Error; err != nil {
			if isDuplicateKey(err) {
				// Lost a race with a concurrent first view; count it as a repeat.
				err = tx.Model(&models.ViewModel{}).
					Where("user_id = ? AND viewable_id = ? AND viewable_type = ?", userID, id, string(kind)).
					UpdateColumn("total", gorm.Expr("total + 1")).Error
			}
			if err != nil {
				tx.Rollback()
				return 0, err
			}
			break
		}
		newCount = item.View + 1
		if err := tx.Table(kind.Table()).Where("id = ?", id).
			UpdateColumn("view", gorm.Expr("view + 1")).Error; err != nil {
			tx.Rollback()
			return 0, err
		}
	default:
		tx.Rollback()
		return 0, err
	}

	if err := tx.Commit().Error; err != nil {
		return 0, err
	}
	return newCount, nil
}

// adjustReputation applies the threshold-crossing detector: the owner gains a
// point when the item's count crosses up through the threshold and loses one
// when it crosses back down. Reputation never goes below zero.
func (s *Service) adjustReputation(tx *gorm.DB, ownerID string, prev, next int) error {
	crossedUp := prev < reputationThreshold && next >= reputationThreshold
	crossedDown := prev >= reputationThreshold && next < reputationThreshold
	if !crossedUp && !crossedDown {
		return nil
	}

	var owner models.UserModel
	if err := tx.First(&owner, "id = ?", ownerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	rep := owner.Reputation
	if crossedUp {
		rep++
	} else if rep > 0 {
		rep--
	}
	if rep == owner.Reputation {
		return nil
	}

	s.log.Info("reputation adjusted",
		zap.String("user_id", ownerID),
		zap.Int("from", owner.Reputation),
		zap.Int("to", rep),
	)
	return tx.Model(&owner).UpdateColumn("reputation", rep).Error
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") || strings.Contains(msg, "UNIQUE constraint failed")
}
