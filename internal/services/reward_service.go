package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/clickbazaar/api/internal/domain"
	"github.com/clickbazaar/api/internal/repositories"
)

const (
	rewardEventAccrued  = "reward.points.accrued"
	rewardEventRedeemed = "reward.points.redeemed"

	rewardEntryIDPrefix = "rwd_"
)

var (
	// ErrRewardInvalidInput signals the caller provided invalid data.
	ErrRewardInvalidInput = errors.New("reward: invalid input")
	// ErrRedemptionExceedsBalance indicates the user asked for more points than available.
	ErrRedemptionExceedsBalance = errors.New("reward: redemption exceeds available balance")
)

// RewardServiceDeps bundles collaborators required to construct the reward service.
type RewardServiceDeps struct {
	Ledger      repositories.RewardPointRepository
	Rules       repositories.RewardRuleRepository
	UnitOfWork  repositories.UnitOfWork
	Clock       func() time.Time
	IDGenerator func() string
	Logger      Logger

	// UnitsPerPoint is the order total (minor units) earning one point.
	UnitsPerPoint int64
	// ExpiryDays is how long earned points stay redeemable.
	ExpiryDays int
}

type rewardService struct {
	ledger        repositories.RewardPointRepository
	rules         repositories.RewardRuleRepository
	unitOfWork    repositories.UnitOfWork
	clock         func() time.Time
	newID         func() string
	logger        Logger
	unitsPerPoint int64
	expiryDays    int
}

// NewRewardService wires dependencies into a concrete RewardService implementation.
func NewRewardService(deps RewardServiceDeps) (RewardService, error) {
	if deps.Ledger == nil {
		return nil, errors.New("reward service: ledger repository is required")
	}
	if deps.Rules == nil {
		return nil, errors.New("reward service: rule repository is required")
	}
	if deps.UnitOfWork == nil {
		return nil, errors.New("reward service: unit of work is required")
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
	unitsPerPoint := deps.UnitsPerPoint
	if unitsPerPoint <= 0 {
		unitsPerPoint = 100
	}
	expiryDays := deps.ExpiryDays
	if expiryDays <= 0 {
		expiryDays = 365
	}
	return &rewardService{
		ledger:     deps.Ledger,
		rules:      deps.Rules,
		unitOfWork: deps.UnitOfWork,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:         idGen,
		logger:        logger,
		unitsPerPoint: unitsPerPoint,
		expiryDays:    expiryDays,
	}, nil
}

// AccrueForOrder credits order-level and per-product points in one ledger
// entry. A zero total inserts nothing.
func (s *rewardService) AccrueForOrder(ctx context.Context, cmd AccrualCommand) (int, error) {
	if cmd.OrderID == "" || cmd.UserID == "" {
		return 0, fmt.Errorf("%w: order id and user id are required", ErrRewardInvalidInput)
	}

	now := s.clock()
	total, err := s.computeEarnedPoints(ctx, cmd, now)
	if err != nil {
		return 0, err
	}
	if total == 0 {
		return 0, nil
	}

	orderID := cmd.OrderID
	entry := domain.RewardPointEntry{
		ID:         rewardEntryIDPrefix + s.newID(),
		UserID:     cmd.UserID,
		OrderID:    &orderID,
		Points:     total,
		EarnedDate: now,
		ExpiryDate: now.AddDate(0, 0, s.expiryDays),
	}
	if err := s.ledger.Insert(ctx, entry); err != nil {
		return 0, fmt.Errorf("reward: persist accrual: %w", err)
	}

	s.logger(ctx, rewardEventAccrued, map[string]any{
		"orderId": cmd.OrderID,
		"userId":  cmd.UserID,
		"points":  total,
	})
	return total, nil
}

// computeEarnedPoints is deterministic for fixed inputs: floor(total/units)
// plus the highest-priority active rule per product times quantity.
func (s *rewardService) computeEarnedPoints(ctx context.Context, cmd AccrualCommand, at time.Time) (int, error) {
	total := int(cmd.TotalAmount / s.unitsPerPoint)
	if cmd.TotalAmount < 0 {
		total = 0
	}

	if len(cmd.Items) > 0 {
		productIDs := make([]string, 0, len(cmd.Items))
		seen := make(map[string]struct{}, len(cmd.Items))
		for _, item := range cmd.Items {
			if _, ok := seen[item.ProductID]; ok {
				continue
			}
			seen[item.ProductID] = struct{}{}
			productIDs = append(productIDs, item.ProductID)
		}

		rules, err := s.rules.FindActiveForProducts(ctx, productIDs, at)
		if err != nil {
			return 0, fmt.Errorf("reward: load rules: %w", err)
		}
		for _, item := range cmd.Items {
			if rule, ok := rules[item.ProductID]; ok {
				total += item.Quantity * rule.PointsPerUnit
			}
		}
	}
	return total, nil
}

// RecordRedemption writes one negative entry and consumes unused positive
// entries oldest-expiry-first until the requested points are covered. An
// entry is marked fully used even when its value exceeds the remaining need.
func (s *rewardService) RecordRedemption(ctx context.Context, cmd RedemptionCommand) error {
	if cmd.OrderID == "" || cmd.UserID == "" {
		return fmt.Errorf("%w: order id and user id are required", ErrRewardInvalidInput)
	}
	if cmd.Points < 0 {
		return fmt.Errorf("%w: points must not be negative", ErrRewardInvalidInput)
	}
	if cmd.Points == 0 {
		return nil
	}

	return s.unitOfWork.RunInTx(ctx, func(ctx context.Context) error {
		now := s.clock()

		balance, err := s.ledger.ActiveBalance(ctx, cmd.UserID, now)
		if err != nil {
			return fmt.Errorf("reward: load balance: %w", err)
		}
		if int64(cmd.Points) > balance {
			return fmt.Errorf("%w: requested %d, available %d", ErrRedemptionExceedsBalance, cmd.Points, balance)
		}

		redeemable, err := s.ledger.ListRedeemable(ctx, cmd.UserID, now)
		if err != nil {
			return fmt.Errorf("reward: load redeemable entries: %w", err)
		}

		var consumed []string
		covered := 0
		for _, entry := range redeemable {
			if covered >= cmd.Points {
				break
			}
			consumed = append(consumed, entry.ID)
			covered += entry.Points
		}
		if covered < cmd.Points {
			return fmt.Errorf("%w: requested %d, coverable %d", ErrRedemptionExceedsBalance, cmd.Points, covered)
		}

		orderID := cmd.OrderID
		debit := domain.RewardPointEntry{
			ID:         rewardEntryIDPrefix + s.newID(),
			UserID:     cmd.UserID,
			OrderID:    &orderID,
			Points:     -cmd.Points,
			EarnedDate: now,
			ExpiryDate: now,
		}
		if err := s.ledger.Insert(ctx, debit); err != nil {
			return fmt.Errorf("reward: persist redemption entry: %w", err)
		}
		if err := s.ledger.MarkUsed(ctx, consumed, cmd.OrderID); err != nil {
			return fmt.Errorf("reward: consume entries: %w", err)
		}

		s.logger(ctx, rewardEventRedeemed, map[string]any{
			"orderId":  cmd.OrderID,
			"userId":   cmd.UserID,
			"points":   cmd.Points,
			"consumed": len(consumed),
		})
		return nil
	})
}

// AvailableBalance sums unexpired unused earnings minus redemptions.
func (s *rewardService) AvailableBalance(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, fmt.Errorf("%w: user id is required", ErrRewardInvalidInput)
	}
	balance, err := s.ledger.ActiveBalance(ctx, userID, s.clock())
	if err != nil {
		return 0, fmt.Errorf("reward: load balance: %w", err)
	}
	if balance < 0 {
		balance = 0
	}
	return balance, nil
}

// Summary returns the available balance and paginated ledger history.
func (s *rewardService) Summary(ctx context.Context, userID string, page domain.Pagination) (RewardSummary, error) {
	balance, err := s.AvailableBalance(ctx, userID)
	if err != nil {
		return RewardSummary{}, err
	}
	history, err := s.ledger.ListByUser(ctx, userID, page)
	if err != nil {
		return RewardSummary{}, fmt.Errorf("reward: load history: %w", err)
	}
	return RewardSummary{
		AvailablePoints: balance,
		History:         history,
	}, nil
}
