package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/oklog/ulid/v2"

	"github.com/clickbazaar/api/internal/domain"
	"github.com/clickbazaar/api/internal/repositories"
)

const (
	supportEventSent = "support.message.sent"

	supportMessageIDPrefix = "msg_"
	supportMaxBodyLength   = 4000
)

var (
	// ErrSupportInvalidInput signals the caller provided invalid data.
	ErrSupportInvalidInput = errors.New("support: invalid input")
	// ErrSupportEmptyMessage indicates the body is empty after sanitisation.
	ErrSupportEmptyMessage = errors.New("support: message body is empty")
)

// SupportServiceDeps bundles collaborators required to construct the support service.
type SupportServiceDeps struct {
	Messages    repositories.SupportRepository
	Clock       func() time.Time
	IDGenerator func() string
	Logger      Logger
}

type supportService struct {
	messages  repositories.SupportRepository
	clock     func() time.Time
	newID     func() string
	logger    Logger
	sanitizer *bluemonday.Policy
}

// NewSupportService wires dependencies into a concrete SupportService implementation.
func NewSupportService(deps SupportServiceDeps) (SupportService, error) {
	if deps.Messages == nil {
		return nil, errors.New("support service: message repository is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return ulid.Make().String()
		}
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &supportService{
		messages: deps.Messages,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:     idGen,
		logger:    logger,
		sanitizer: bluemonday.StrictPolicy(),
	}, nil
}

// SendMessage sanitises and stores one chat message. Markup is stripped, not
// escaped, so a body that was only markup is rejected as empty.
func (s *supportService) SendMessage(ctx context.Context, cmd SendMessageCommand) (domain.SupportMessage, error) {
	if strings.TrimSpace(cmd.UserID) == "" {
		return domain.SupportMessage{}, fmt.Errorf("%w: user id is required", ErrSupportInvalidInput)
	}
	if cmd.Sender != domain.SupportSenderCustomer && cmd.Sender != domain.SupportSenderAgent {
		return domain.SupportMessage{}, fmt.Errorf("%w: unknown sender %q", ErrSupportInvalidInput, cmd.Sender)
	}

	body := strings.TrimSpace(s.sanitizer.Sanitize(cmd.Body))
	if body == "" {
		return domain.SupportMessage{}, ErrSupportEmptyMessage
	}
	if len(body) > supportMaxBodyLength {
		return domain.SupportMessage{}, fmt.Errorf("%w: body exceeds %d characters", ErrSupportInvalidInput, supportMaxBodyLength)
	}

	message := domain.SupportMessage{
		ID:        supportMessageIDPrefix + s.newID(),
		UserID:    cmd.UserID,
		Sender:    cmd.Sender,
		Body:      body,
		CreatedAt: s.clock(),
	}
	if err := s.messages.Insert(ctx, message); err != nil {
		return domain.SupportMessage{}, fmt.Errorf("support: persist message: %w", err)
	}

	s.logger(ctx, supportEventSent, map[string]any{
		"userId": cmd.UserID,
		"sender": string(cmd.Sender),
	})
	return message, nil
}

// Thread returns one user's conversation and marks the other side's messages
// read for the reader.
func (s *supportService) Thread(ctx context.Context, userID string, reader domain.SupportSender, page domain.Pagination) (domain.Page[domain.SupportMessage], error) {
	if strings.TrimSpace(userID) == "" {
		return domain.Page[domain.SupportMessage]{}, fmt.Errorf("%w: user id is required", ErrSupportInvalidInput)
	}
	messages, err := s.messages.ListThread(ctx, userID, normalisePage(page))
	if err != nil {
		return domain.Page[domain.SupportMessage]{}, fmt.Errorf("support: list thread: %w", err)
	}
	if err := s.messages.MarkRead(ctx, userID, reader); err != nil {
		return domain.Page[domain.SupportMessage]{}, fmt.Errorf("support: mark read: %w", err)
	}
	return messages, nil
}

// Inbox lists threads for the admin view, newest activity first.
func (s *supportService) Inbox(ctx context.Context, filter repositories.SupportThreadFilter, page domain.Pagination) (domain.Page[domain.SupportThread], error) {
	threads, err := s.messages.ListThreads(ctx, filter, normalisePage(page))
	if err != nil {
		return domain.Page[domain.SupportThread]{}, fmt.Errorf("support: list threads: %w", err)
	}
	return threads, nil
}
