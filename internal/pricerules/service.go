package pricerules

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/fulfillment-engine/pkg/errors"
)

// Rule is the discount tier applied to an aggregated order.
type Rule struct {
	Name            string
	DiscountPercent decimal.Decimal
}

type Service interface {
	PriceRuleFor(ctx context.Context, actorID uuid.UUID) (Rule, error)
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("price rule repository required")
	}
	return &service{repo: repo}, nil
}

// PriceRuleFor returns the actor's rule. Actors without one get a zero
// discount and an empty name.
func (s *service) PriceRuleFor(ctx context.Context, actorID uuid.UUID) (Rule, error) {
	rule, err := s.repo.FindByActor(ctx, actorID)
	if err != nil {
		return Rule{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load price rule")
	}
	if rule == nil {
		return Rule{DiscountPercent: decimal.Zero}, nil
	}
	return Rule{Name: rule.Name, DiscountPercent: rule.DiscountPercent}, nil
}
