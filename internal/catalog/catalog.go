// Package catalog implements the marketplace surface around the bidding
// core: users, categories, items and auction creation/lookup.
package catalog

import (
	"context"
	"fmt"
	"time"

	"buyme/internal/auction"
	"buyme/internal/auctionerrors"
	model "buyme/internal/models"
	"buyme/internal/repository"
	"buyme/utils"

	"github.com/shopspring/decimal"
)

// Service defines the catalog business logic
type Service struct {
	repo      repository.MarketplaceDB
	lifecycle *auction.Lifecycle
}

// NewService creates a new catalog service. The lifecycle manager is
// used for the sweep-on-read hook so listings never show stale-open
// auctions.
func NewService(repo repository.MarketplaceDB, lifecycle *auction.Lifecycle) *Service {
	return &Service{repo: repo, lifecycle: lifecycle}
}

// CreateUser registers a new user with a unique username
func (s *Service) CreateUser(ctx context.Context, username string) (*model.User, error) {
	if username == "" {
		return nil, fmt.Errorf("catalog: %w: empty username", auctionerrors.ErrInvalidRequest)
	}

	user := &model.User{
		UserID:    utils.GenerateID(),
		Username:  username,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("catalog: failed to create user %q: %w", username, err)
	}
	return user, nil
}

// ListUsers returns all registered users
func (s *Service) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: failed to list users: %w", err)
	}
	return users, nil
}

// CreateCategory adds a category, optionally under a parent
func (s *Service) CreateCategory(ctx context.Context, name string, parentID *string) (*model.Category, error) {
	if name == "" {
		return nil, fmt.Errorf("catalog: %w: empty category name", auctionerrors.ErrInvalidRequest)
	}

	category := &model.Category{
		CategoryID: utils.GenerateID(),
		Name:       name,
		ParentID:   parentID,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		return nil, fmt.Errorf("catalog: failed to create category %q: %w", name, err)
	}
	return category, nil
}

// ListCategories returns the full category tree as a flat list
func (s *Service) ListCategories(ctx context.Context) ([]model.Category, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: failed to list categories: %w", err)
	}
	return categories, nil
}

// CreateItem lists a new item under an existing category
func (s *Service) CreateItem(ctx context.Context, title, description, categoryID string) (*model.Item, error) {
	if title == "" || categoryID == "" {
		return nil, fmt.Errorf("catalog: %w: missing title or category", auctionerrors.ErrInvalidRequest)
	}

	item := &model.Item{
		ItemID:      utils.GenerateID(),
		Title:       title,
		Description: description,
		CategoryID:  categoryID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("catalog: failed to create item %q: %w", title, err)
	}
	return item, nil
}

// ListItems returns all listed items
func (s *Service) ListItems(ctx context.Context) ([]model.Item, error) {
	items, err := s.repo.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: failed to list items: %w", err)
	}
	return items, nil
}

// OpenAuction creates an open auction on an existing item. The auction
// starts immediately and runs until endTime.
func (s *Service) OpenAuction(ctx context.Context, itemID, sellerID string, endTime time.Time, initPrice, increment, reservePrice decimal.Decimal) (*model.Auction, error) {
	if itemID == "" || sellerID == "" {
		return nil, fmt.Errorf("catalog: %w: missing item or seller id", auctionerrors.ErrInvalidRequest)
	}
	now := time.Now().UTC()
	if !endTime.After(now) {
		return nil, fmt.Errorf("catalog: %w: end_time must be in the future", auctionerrors.ErrInvalidRequest)
	}
	if initPrice.IsNegative() {
		return nil, fmt.Errorf("catalog: %w: init_price must not be negative", auctionerrors.ErrInvalidRequest)
	}
	if !increment.IsPositive() {
		return nil, fmt.Errorf("catalog: %w: increment must be positive", auctionerrors.ErrInvalidRequest)
	}
	if reservePrice.IsNegative() {
		return nil, fmt.Errorf("catalog: %w: reserve_price must not be negative", auctionerrors.ErrInvalidRequest)
	}
	if _, err := s.repo.GetUser(ctx, sellerID); err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}

	a := &model.Auction{
		AuctionID:    utils.GenerateID(),
		ItemID:       itemID,
		SellerID:     sellerID,
		StartTime:    now,
		EndTime:      endTime.UTC(),
		InitPrice:    initPrice,
		Increment:    increment,
		ReservePrice: reservePrice,
		Status:       model.AuctionStatusOpen,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateAuction(ctx, a); err != nil {
		return nil, fmt.Errorf("catalog: failed to create auction for item %s: %w", itemID, err)
	}

	utils.Info("auction opened", map[string]any{
		"auction_id": a.AuctionID,
		"item_id":    itemID,
		"seller_id":  sellerID,
		"end_time":   a.EndTime.Format(time.RFC3339),
	})
	return a, nil
}

// GetAuction returns one auction, settling it first if its end time has
// passed so callers never observe a stale-open status.
func (s *Service) GetAuction(ctx context.Context, auctionID string) (*model.Auction, error) {
	if auctionID == "" {
		return nil, fmt.Errorf("catalog: %w: empty auction id", auctionerrors.ErrInvalidRequest)
	}
	if err := s.lifecycle.CloseIfExpired(ctx, auctionID); err != nil {
		return nil, err
	}

	a, err := s.repo.GetAuction(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	return a, nil
}

// ListAuctions returns all auctions, sweeping expired ones closed first
func (s *Service) ListAuctions(ctx context.Context) ([]model.Auction, error) {
	if _, err := s.lifecycle.SweepExpiredAuctions(ctx, time.Now().UTC()); err != nil {
		// Listing still proceeds on a failed sweep; the next tick retries.
		utils.Error("sweep-on-read failed", map[string]any{"error": err.Error()})
	}

	auctions, err := s.repo.ListAuctions(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: failed to list auctions: %w", err)
	}
	return auctions, nil
}
