// Package alerts implements saved-search alerts over open auctions.
// Criteria are restricted to an allow-list of known keys, each mapped to
// a typed predicate; unknown keys are rejected when the alert is created.
package alerts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"buyme/internal/auctionerrors"
	model "buyme/internal/models"
	"buyme/internal/repository"
	"buyme/utils"

	"github.com/shopspring/decimal"
)

// Allow-listed criteria keys
const (
	KeyCategoryID = "category_id"
	KeyMinPrice   = "min_price"
	KeyMaxPrice   = "max_price"
)

// Service evaluates alerts against the marketplace's open auctions
type Service struct {
	repo repository.MarketplaceDB
}

// NewService creates an alert service
func NewService(repo repository.MarketplaceDB) *Service {
	return &Service{repo: repo}
}

// ParseCriteria converts raw key/value criteria into the typed form,
// rejecting unknown keys and malformed values.
func ParseCriteria(raw map[string]any) (model.AlertCriteria, error) {
	var criteria model.AlertCriteria
	for key, value := range raw {
		switch key {
		case KeyCategoryID:
			id, ok := value.(string)
			if !ok || id == "" {
				return model.AlertCriteria{}, fmt.Errorf("alerts: %w: %s must be a non-empty string", auctionerrors.ErrInvalidRequest, key)
			}
			criteria.CategoryID = &id
		case KeyMinPrice:
			price, err := parsePrice(key, value)
			if err != nil {
				return model.AlertCriteria{}, err
			}
			criteria.MinPrice = &price
		case KeyMaxPrice:
			price, err := parsePrice(key, value)
			if err != nil {
				return model.AlertCriteria{}, err
			}
			criteria.MaxPrice = &price
		default:
			return model.AlertCriteria{}, fmt.Errorf("alerts: %w: unknown criteria key %q", auctionerrors.ErrInvalidRequest, key)
		}
	}
	if criteria.CategoryID == nil && criteria.MinPrice == nil && criteria.MaxPrice == nil {
		return model.AlertCriteria{}, fmt.Errorf("alerts: %w: at least one criterion is required", auctionerrors.ErrInvalidRequest)
	}
	if criteria.MinPrice != nil && criteria.MaxPrice != nil && criteria.MinPrice.GreaterThan(*criteria.MaxPrice) {
		return model.AlertCriteria{}, fmt.Errorf("alerts: %w: min_price exceeds max_price", auctionerrors.ErrInvalidRequest)
	}
	return criteria, nil
}

func parsePrice(key string, value any) (decimal.Decimal, error) {
	switch v := value.(type) {
	case float64: // encoding/json numbers
		return decimal.NewFromFloat(v), nil
	case string:
		price, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("alerts: %w: %s is not a valid price", auctionerrors.ErrInvalidRequest, key)
		}
		return price, nil
	default:
		return decimal.Decimal{}, fmt.Errorf("alerts: %w: %s must be a number", auctionerrors.ErrInvalidRequest, key)
	}
}

// CreateAlert validates the raw criteria and stores the alert
func (s *Service) CreateAlert(ctx context.Context, userID string, raw map[string]any) (*model.Alert, error) {
	if userID == "" {
		return nil, fmt.Errorf("alerts: %w: empty user id", auctionerrors.ErrInvalidRequest)
	}
	criteria, err := ParseCriteria(raw)
	if err != nil {
		return nil, err
	}

	alert := &model.Alert{
		AlertID:   utils.GenerateID(),
		UserID:    userID,
		Criteria:  criteria,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.CreateAlert(ctx, alert); err != nil {
		return nil, fmt.Errorf("alerts: failed to create alert for user %s: %w", userID, err)
	}
	return alert, nil
}

// ListAlerts returns all alerts a user has created
func (s *Service) ListAlerts(ctx context.Context, userID string) ([]model.Alert, error) {
	if userID == "" {
		return nil, fmt.Errorf("alerts: %w: empty user id", auctionerrors.ErrInvalidRequest)
	}
	alerts, err := s.repo.ListAlertsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("alerts: failed to list alerts for user %s: %w", userID, err)
	}
	return alerts, nil
}

// listing is one open auction joined with its item, carrying the price
// an alert compares against (top bid, or the initial price before any
// bids exist).
type listing struct {
	item    model.Item
	auction model.Auction
	price   decimal.Decimal
}

// RunAlerts evaluates every stored alert against the currently open
// auctions and logs each alert with matches. Returns the number of
// alerts that matched at least one listing.
func (s *Service) RunAlerts(ctx context.Context) (int, error) {
	listings, err := s.openListings(ctx)
	if err != nil {
		return 0, err
	}
	alerts, err := s.repo.ListAlerts(ctx)
	if err != nil {
		return 0, fmt.Errorf("alerts: failed to list alerts: %w", err)
	}

	matched := 0
	for _, alert := range alerts {
		count := 0
		predicates := buildPredicates(alert.Criteria)
		for _, l := range listings {
			if matchesAll(l, predicates) {
				count++
			}
		}
		if count > 0 {
			matched++
			utils.Info("alert matched listings", map[string]any{
				"alert_id": alert.AlertID,
				"user_id":  alert.UserID,
				"matches":  count,
			})
		}
	}
	return matched, nil
}

func (s *Service) openListings(ctx context.Context) ([]listing, error) {
	auctions, err := s.repo.ListAuctions(ctx)
	if err != nil {
		return nil, fmt.Errorf("alerts: failed to list auctions: %w", err)
	}

	var listings []listing
	for _, auction := range auctions {
		if auction.Status != model.AuctionStatusOpen {
			continue
		}
		item, err := s.repo.GetItem(ctx, auction.ItemID)
		if err != nil {
			utils.Warn("skipping auction with missing item", map[string]any{
				"auction_id": auction.AuctionID,
				"item_id":    auction.ItemID,
			})
			continue
		}

		price := auction.InitPrice
		top, err := s.repo.TopBid(ctx, auction.AuctionID)
		if err != nil && !errors.Is(err, auctionerrors.ErrNoBids) {
			return nil, fmt.Errorf("alerts: failed to read top bid for auction %s: %w", auction.AuctionID, err)
		}
		if top != nil {
			price = top.Amount
		}

		listings = append(listings, listing{item: *item, auction: auction, price: price})
	}
	return listings, nil
}

// buildPredicates maps each set criterion to its typed comparison
func buildPredicates(criteria model.AlertCriteria) []func(listing) bool {
	var predicates []func(listing) bool
	if criteria.CategoryID != nil {
		want := *criteria.CategoryID
		predicates = append(predicates, func(l listing) bool {
			return l.item.CategoryID == want
		})
	}
	if criteria.MinPrice != nil {
		min := *criteria.MinPrice
		predicates = append(predicates, func(l listing) bool {
			return l.price.GreaterThanOrEqual(min)
		})
	}
	if criteria.MaxPrice != nil {
		max := *criteria.MaxPrice
		predicates = append(predicates, func(l listing) bool {
			return l.price.LessThanOrEqual(max)
		})
	}
	return predicates
}

func matchesAll(l listing, predicates []func(listing) bool) bool {
	for _, match := range predicates {
		if !match(l) {
			return false
		}
	}
	return true
}
