package voting

import (
	"context"
	"errors"
	"fmt"

	"github.com/askhub-io/backend/internal/metrics"
	"github.com/askhub-io/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrTargetNotFound    = errors.New("vote target not found")
	ErrAnswerNotFound    = errors.New("answer not found")
	ErrQuestionNotFound  = errors.New("question not found")
	ErrNotQuestionAuthor = errors.New("only the question author can accept an answer")
	ErrInvalidTargetType = errors.New("invalid target type")
	ErrInvalidVoteType   = errors.New("invalid vote type")
)

// Toggle actions
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionRemoved = "removed"

	ActionAccepted   = "accepted"
	ActionUnaccepted = "unaccepted"
)

// Result reports the outcome of a vote toggle. UserVote is nil when the
// toggle removed the user's vote. The counts are the post-toggle
// aggregates recomputed inside the same transaction.
type Result struct {
	Action         string           `json:"action"`
	UserVote       *models.VoteType `json:"user_vote"`
	Upvotes        int64            `json:"upvotes_count"`
	Downvotes      int64            `json:"downvotes_count"`
	TargetAuthorID string           `json:"-"`
}

// AcceptResult reports the outcome of an accept toggle
type AcceptResult struct {
	Action         string `json:"action"`
	AnswerID       string `json:"answer_id"`
	QuestionID     string `json:"question_id"`
	AnswerAuthorID string `json:"-"`
}

// Service implements vote toggling and answer acceptance. All state
// transitions happen inside a single transaction holding row locks on
// both the target and the vote, so concurrent toggles serialize.
type Service struct {
	db *gorm.DB
}

// NewService creates a voting service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Toggle applies one press of the vote button for userID on the target.
// No existing vote creates one; a same-type vote removes it; an
// opposite-type vote flips it. Aggregates are recounted from the votes
// table before the transaction commits.
func (s *Service) Toggle(ctx context.Context, userID string, targetType models.VoteTargetType, targetID string, voteType models.VoteType) (*Result, error) {
	if targetType != models.VoteTargetQuestion && targetType != models.VoteTargetAnswer {
		return nil, ErrInvalidTargetType
	}
	if voteType != models.VoteTypeUpvote && voteType != models.VoteTypeDownvote {
		return nil, ErrInvalidVoteType
	}

	result := &Result{}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock the target row first so the aggregate update and any
		// concurrent toggle on the same target serialize.
		authorID, err := s.lockTarget(tx, targetType, targetID)
		if err != nil {
			return err
		}
		result.TargetAuthorID = authorID

		var vote models.Vote
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND target_type = ? AND target_id = ?", userID, targetType, targetID).
			First(&vote).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			vote = models.Vote{
				UserID:     userID,
				TargetType: targetType,
				TargetID:   targetID,
				VoteType:   voteType,
			}
			if err := tx.Create(&vote).Error; err != nil {
				return fmt.Errorf("failed to create vote: %w", err)
			}
			result.Action = ActionCreated
			v := voteType
			result.UserVote = &v

		case err != nil:
			return fmt.Errorf("failed to load vote: %w", err)

		case vote.VoteType == voteType:
			if err := tx.Delete(&vote).Error; err != nil {
				return fmt.Errorf("failed to remove vote: %w", err)
			}
			result.Action = ActionRemoved
			result.UserVote = nil

		default:
			if err := tx.Model(&vote).Update("vote_type", voteType).Error; err != nil {
				return fmt.Errorf("failed to flip vote: %w", err)
			}
			result.Action = ActionUpdated
			v := voteType
			result.UserVote = &v
		}

		// Recount from the votes table rather than adjusting the old
		// counters, so a drifted counter self-heals on the next toggle.
		up, down, err := s.countVotes(tx, targetType, targetID)
		if err != nil {
			return err
		}
		result.Upvotes = up
		result.Downvotes = down

		return s.persistCounts(tx, targetType, targetID, up, down)
	})
	if err != nil {
		return nil, err
	}

	metrics.Get().VotesTotal.WithLabelValues(string(targetType), result.Action).Inc()
	return result, nil
}

// lockTarget acquires a FOR UPDATE lock on the question or answer row
// and returns its author ID
func (s *Service) lockTarget(tx *gorm.DB, targetType models.VoteTargetType, targetID string) (string, error) {
	switch targetType {
	case models.VoteTargetQuestion:
		var question models.Question
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND is_deleted = false", targetID).
			First(&question).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrTargetNotFound
		} else if err != nil {
			return "", fmt.Errorf("failed to lock question: %w", err)
		}
		return question.AuthorID, nil

	case models.VoteTargetAnswer:
		var answer models.Answer
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND is_deleted = false", targetID).
			First(&answer).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrTargetNotFound
		} else if err != nil {
			return "", fmt.Errorf("failed to lock answer: %w", err)
		}
		return answer.AuthorID, nil
	}
	return "", ErrInvalidTargetType
}

// countVotes recomputes the aggregates from the votes table inside tx
func (s *Service) countVotes(tx *gorm.DB, targetType models.VoteTargetType, targetID string) (up int64, down int64, err error) {
	err = tx.Model(&models.Vote{}).
		Where("target_type = ? AND target_id = ? AND vote_type = ?", targetType, targetID, models.VoteTypeUpvote).
		Count(&up).Error
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count upvotes: %w", err)
	}

	err = tx.Model(&models.Vote{}).
		Where("target_type = ? AND target_id = ? AND vote_type = ?", targetType, targetID, models.VoteTypeDownvote).
		Count(&down).Error
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count downvotes: %w", err)
	}

	return up, down, nil
}

// persistCounts writes the denormalized counters onto the locked target row
func (s *Service) persistCounts(tx *gorm.DB, targetType models.VoteTargetType, targetID string, up, down int64) error {
	counts := map[string]interface{}{
		"upvotes_count":   up,
		"downvotes_count": down,
	}

	var model interface{}
	if targetType == models.VoteTargetQuestion {
		model = &models.Question{}
	} else {
		model = &models.Answer{}
	}

	if err := tx.Model(model).Where("id = ?", targetID).Updates(counts).Error; err != nil {
		return fmt.Errorf("failed to persist vote counts: %w", err)
	}
	return nil
}

// AcceptAnswer toggles acceptance of an answer. Only the question
// author may call it. Accepting clears every other accepted flag on the
// question inside the same transaction, so at most one answer per
// question is ever accepted; accepting an already-accepted answer
// unaccepts it.
func (s *Service) AcceptAnswer(ctx context.Context, actorID string, answerID string) (*AcceptResult, error) {
	var answer models.Answer
	err := s.db.WithContext(ctx).Where("id = ? AND is_deleted = false", answerID).First(&answer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAnswerNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to load answer: %w", err)
	}

	var question models.Question
	err = s.db.WithContext(ctx).Where("id = ? AND is_deleted = false", answer.QuestionID).First(&question).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrQuestionNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to load question: %w", err)
	}

	if question.AuthorID != actorID {
		return nil, ErrNotQuestionAuthor
	}

	result := &AcceptResult{
		AnswerID:       answer.ID,
		QuestionID:     question.ID,
		AnswerAuthorID: answer.AuthorID,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock the question row; every accept for this question
		// funnels through this lock, which is what keeps the
		// accepted flag exclusive under concurrency.
		var lockedQuestion models.Question
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", question.ID).
			First(&lockedQuestion).Error
		if err != nil {
			return fmt.Errorf("failed to lock question: %w", err)
		}

		var lockedAnswer models.Answer
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND is_deleted = false", answerID).
			First(&lockedAnswer).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAnswerNotFound
		} else if err != nil {
			return fmt.Errorf("failed to lock answer: %w", err)
		}

		if lockedAnswer.IsAccepted {
			if err := tx.Model(&models.Answer{}).
				Where("id = ?", answerID).
				Update("is_accepted", false).Error; err != nil {
				return fmt.Errorf("failed to unaccept answer: %w", err)
			}
			result.Action = ActionUnaccepted
			return nil
		}

		// Clear all flags for the question, then set exactly one
		if err := tx.Model(&models.Answer{}).
			Where("question_id = ? AND is_accepted = true", question.ID).
			Update("is_accepted", false).Error; err != nil {
			return fmt.Errorf("failed to clear accepted flags: %w", err)
		}

		if err := tx.Model(&models.Answer{}).
			Where("id = ?", answerID).
			Update("is_accepted", true).Error; err != nil {
			return fmt.Errorf("failed to set accepted flag: %w", err)
		}

		result.Action = ActionAccepted
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.Get().AnswerAcceptsTotal.WithLabelValues(result.Action).Inc()
	return result, nil
}
