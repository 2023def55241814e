package quota

import (
	"context"
	"errors"
	"strings"

	"github.com/Knetic/govaluate"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/barterhub/barterhub/internal/domain/trade"
	"github.com/barterhub/barterhub/internal/domain/user"
)

// DefaultPlanRules caps concurrently open trades per subscription plan.
// Rules are boolean expressions over the "active_trades" counter.
var DefaultPlanRules = map[user.Plan]string{
	user.PlanFree:    "active_trades < 3",
	user.PlanPremium: "active_trades < 50",
}

// Service answers the yes/no quota question consulted at propose time.
type Service struct {
	tradeRepo trade.Repository
	userRepo  user.Repository
	rules     map[user.Plan]string
	logger    zerolog.Logger
}

// NewService creates a quota service. A nil rules map falls back to
// DefaultPlanRules.
func NewService(tradeRepo trade.Repository, userRepo user.Repository, rules map[user.Plan]string, logger zerolog.Logger) *Service {
	if rules == nil {
		rules = DefaultPlanRules
	}
	return &Service{
		tradeRepo: tradeRepo,
		userRepo:  userRepo,
		rules:     rules,
		logger:    logger.With().Str("service", "quota").Logger(),
	}
}

// CanCreateTrade returns nil when the user may open a new trade, or a
// quota_exceeded engine error otherwise.
func (s *Service) CanCreateTrade(ctx context.Context, userID uuid.UUID) error {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if u == nil {
		return trade.NotFoundf("user not found: %s", userID)
	}
	active, err := s.tradeRepo.CountActiveByProposer(ctx, userID)
	if err != nil {
		return err
	}
	allowed, err := s.evaluateRule(u.Plan, active)
	if err != nil {
		s.logger.Error().Err(err).Str("plan", string(u.Plan)).Msg("plan rule evaluation failed")
		return err
	}
	if !allowed {
		return trade.QuotaExceededf("the %s plan does not allow more open trades", strings.ToLower(string(u.Plan)))
	}
	return nil
}

func (s *Service) evaluateRule(plan user.Plan, activeTrades int) (bool, error) {
	rule, ok := s.rules[plan]
	if !ok {
		rule = s.rules[user.PlanFree]
	}
	rule = strings.TrimSpace(rule)
	if rule == "" {
		return true, nil
	}
	expr, err := govaluate.NewEvaluableExpression(rule)
	if err != nil {
		return false, err
	}
	result, err := expr.Evaluate(map[string]interface{}{
		"active_trades": activeTrades,
	})
	if err != nil {
		return false, err
	}
	b, ok := result.(bool)
	if !ok {
		return false, errors.New("plan rule did not evaluate to boolean")
	}
	return b, nil
}
