package messages

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/ivankudzin/crush/internal/domain/apperr"
	"github.com/ivankudzin/crush/internal/domain/model"
	"github.com/ivankudzin/crush/internal/infra/metrics"
	"github.com/ivankudzin/crush/internal/repo"
	"github.com/ivankudzin/crush/internal/services/rate"
)

const MaxContentLength = 2000

var (
	ErrEmptyContent    = fmt.Errorf("message content is required: %w", apperr.ErrValidation)
	ErrContentTooLong  = fmt.Errorf("message cannot exceed %d characters: %w", MaxContentLength, apperr.ErrValidation)
	ErrSelfMessage     = fmt.Errorf("you cannot message yourself: %w", apperr.ErrValidation)
	ErrNotMatched      = fmt.Errorf("you can only message your matches: %w", apperr.ErrForbidden)
	ErrMessageNotFound = fmt.Errorf("message not found: %w", apperr.ErrNotFound)
	ErrNotRecipient    = fmt.Errorf("only the recipient can mark a message as read: %w", apperr.ErrForbidden)
	ErrNotSender       = fmt.Errorf("only the sender can delete a message: %w", apperr.ErrForbidden)
)

// MessageStore.Create must also move the match's last interaction to
// msg.CreatedAt atomically, and return repo.ErrNotFound when the match is no
// longer active.
type MessageStore interface {
	Create(ctx context.Context, msg model.Message) error
	GetByID(ctx context.Context, id string) (model.Message, error)
	ListConversation(ctx context.Context, a, b string) ([]model.Message, error)
	MarkRead(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

type MatchStore interface {
	FindActiveByPair(ctx context.Context, a, b string) (model.Match, error)
}

type RateLimiter interface {
	Allow(ctx context.Context, action rate.Action, subject string) (int64, bool, error)
}

type Notifier interface {
	MessageSent(ctx context.Context, msg model.Message)
}

type Deps struct {
	Messages    MessageStore
	Matches     MatchStore
	RateLimiter RateLimiter
	Notifier    Notifier
}

type Service struct {
	messages    MessageStore
	matches     MatchStore
	rateLimiter RateLimiter
	notifier    Notifier
	now         func() time.Time
}

func NewService(deps Deps) *Service {
	return &Service{
		messages:    deps.Messages,
		matches:     deps.Matches,
		rateLimiter: deps.RateLimiter,
		notifier:    deps.Notifier,
		now:         time.Now,
	}
}

// Send delivers content from senderID to recipientID. The pair must hold an
// active match.
func (s *Service) Send(ctx context.Context, senderID, recipientID, content string) (model.Message, error) {
	content = strings.TrimSpace(content)
	switch {
	case content == "":
		return model.Message{}, ErrEmptyContent
	case utf8.RuneCountInString(content) > MaxContentLength:
		return model.Message{}, ErrContentTooLong
	case senderID == recipientID:
		return model.Message{}, ErrSelfMessage
	}

	if s.rateLimiter != nil {
		retryAfter, allowed, err := s.rateLimiter.Allow(ctx, rate.ActionMessage, senderID)
		if err != nil {
			return model.Message{}, fmt.Errorf("apply message rate limiter: %w", err)
		}
		if !allowed {
			return model.Message{}, rate.TooFastError{RetryAfterSec: retryAfter}
		}
	}

	match, err := s.matches.FindActiveByPair(ctx, senderID, recipientID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.Message{}, ErrNotMatched
		}
		return model.Message{}, fmt.Errorf("find match: %w", err)
	}

	now := s.now().UTC()
	msg := model.Message{
		ID:          uuid.NewString(),
		MatchID:     match.ID,
		SenderID:    senderID,
		RecipientID: recipientID,
		Content:     content,
		CreatedAt:   now,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.Message{}, ErrNotMatched
		}
		return model.Message{}, fmt.Errorf("create message: %w", err)
	}

	metrics.MessageSent()
	if s.notifier != nil {
		s.notifier.MessageSent(ctx, msg)
	}
	return msg, nil
}

// Conversation lists messages between the two profiles, oldest first. History
// of an ended match stays readable.
func (s *Service) Conversation(ctx context.Context, callerID, counterpartID string) ([]model.Message, error) {
	items, err := s.messages.ListConversation(ctx, callerID, counterpartID)
	if err != nil {
		return nil, fmt.Errorf("list conversation: %w", err)
	}
	return items, nil
}

func (s *Service) MarkRead(ctx context.Context, messageID, callerID string) (model.Message, error) {
	msg, err := s.get(ctx, messageID)
	if err != nil {
		return model.Message{}, err
	}
	if msg.RecipientID != callerID {
		return model.Message{}, ErrNotRecipient
	}
	if msg.Read {
		return msg, nil
	}

	if err := s.messages.MarkRead(ctx, messageID); err != nil {
		return model.Message{}, fmt.Errorf("mark read: %w", err)
	}
	msg.Read = true
	return msg, nil
}

func (s *Service) Delete(ctx context.Context, messageID, callerID string) error {
	msg, err := s.get(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.SenderID != callerID {
		return ErrNotSender
	}
	if err := s.messages.Delete(ctx, messageID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrMessageNotFound
		}
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}

func (s *Service) get(ctx context.Context, id string) (model.Message, error) {
	msg, err := s.messages.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.Message{}, ErrMessageNotFound
		}
		return model.Message{}, fmt.Errorf("get message: %w", err)
	}
	return msg, nil
}
