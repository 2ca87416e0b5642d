package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"buyme/internal/auctionerrors"
	model "buyme/internal/models"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// PostgresRepo implements MarketplaceDB on PostgreSQL through bun.
// Appends and close transitions run in transactions with the auction row
// locked FOR UPDATE, so the store holds its invariants even if a second
// process shares the database.
type PostgresRepo struct {
	db *bun.DB
}

// NewPostgresRepo wraps an existing bun.DB
func NewPostgresRepo(db *bun.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

// Connect opens a PostgreSQL-backed repository from a DSN
func Connect(ctx context.Context, dsn string) (*PostgresRepo, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("database unreachable: %w", err)
	}
	return NewPostgresRepo(db), nil
}

// DB exposes the underlying bun handle
func (r *PostgresRepo) DB() *bun.DB {
	return r.db
}

// InitSchema creates the marketplace tables and indexes if missing
func (r *PostgresRepo) InitSchema(ctx context.Context) error {
	tables := []any{
		(*model.User)(nil),
		(*model.Category)(nil),
		(*model.Item)(nil),
		(*model.Auction)(nil),
		(*model.Bid)(nil),
		(*model.Alert)(nil),
	}
	for _, table := range tables {
		if _, err := r.db.NewCreateTable().Model(table).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table for %T: %w", table, err)
		}
	}

	if _, err := r.db.NewCreateIndex().
		Model((*model.Bid)(nil)).
		Index("idx_bids_auction_id").
		Column("auction_id").
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to create bid auction index: %w", err)
	}

	if _, err := r.db.NewCreateIndex().
		Model((*model.Auction)(nil)).
		Index("idx_auctions_status_end_time").
		Column("status", "end_time").
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to create auction sweep index: %w", err)
	}
	return nil
}

func (r *PostgresRepo) CreateUser(ctx context.Context, user *model.User) error {
	exists, err := r.db.NewSelect().
		Model((*model.User)(nil)).
		Where("username = ?", user.Username).
		Exists(ctx)
	if err != nil {
		return fmt.Errorf("failed to check username %q: %w", user.Username, err)
	}
	if exists {
		return fmt.Errorf("create user %q: %w", user.Username, auctionerrors.ErrDuplicate)
	}

	if _, err := r.db.NewInsert().Model(user).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *PostgresRepo) GetUser(ctx context.Context, userID string) (*model.User, error) {
	user := new(model.User)
	err := r.db.NewSelect().Model(user).Where("user_id = ?", userID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user %s: %w", userID, auctionerrors.ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", userID, err)
	}
	return user, nil
}

func (r *PostgresRepo) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.db.NewSelect().Model(&users).Order("created_at ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (r *PostgresRepo) CreateCategory(ctx context.Context, category *model.Category) error {
	if category.ParentID != nil {
		if _, err := r.GetCategory(ctx, *category.ParentID); err != nil {
			return err
		}
	}

	q := r.db.NewSelect().Model((*model.Category)(nil)).Where("name = ?", category.Name)
	if category.ParentID == nil {
		q = q.Where("parent_id IS NULL")
	} else {
		q = q.Where("parent_id = ?", *category.ParentID)
	}
	exists, err := q.Exists(ctx)
	if err != nil {
		return fmt.Errorf("failed to check category %q: %w", category.Name, err)
	}
	if exists {
		return fmt.Errorf("create category %q: %w", category.Name, auctionerrors.ErrDuplicate)
	}

	if _, err := r.db.NewInsert().Model(category).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

func (r *PostgresRepo) GetCategory(ctx context.Context, categoryID string) (*model.Category, error) {
	category := new(model.Category)
	err := r.db.NewSelect().Model(category).Where("category_id = ?", categoryID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get category %s: %w", categoryID, auctionerrors.ErrCategoryNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category %s: %w", categoryID, err)
	}
	return category, nil
}

func (r *PostgresRepo) ListCategories(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	if err := r.db.NewSelect().Model(&categories).Order("created_at ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (r *PostgresRepo) CreateItem(ctx context.Context, item *model.Item) error {
	if _, err := r.GetCategory(ctx, item.CategoryID); err != nil {
		return err
	}
	if _, err := r.db.NewInsert().Model(item).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}
	return nil
}

func (r *PostgresRepo) GetItem(ctx context.Context, itemID string) (*model.Item, error) {
	item := new(model.Item)
	err := r.db.NewSelect().Model(item).Where("item_id = ?", itemID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get item %s: %w", itemID, auctionerrors.ErrItemNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item %s: %w", itemID, err)
	}
	return item, nil
}

func (r *PostgresRepo) ListItems(ctx context.Context) ([]model.Item, error) {
	var items []model.Item
	if err := r.db.NewSelect().Model(&items).Order("created_at ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return items, nil
}

func (r *PostgresRepo) CreateAuction(ctx context.Context, auction *model.Auction) error {
	if _, err := r.GetItem(ctx, auction.ItemID); err != nil {
		return err
	}
	if _, err := r.db.NewInsert().Model(auction).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create auction: %w", err)
	}
	return nil
}

func (r *PostgresRepo) GetAuction(ctx context.Context, auctionID string) (*model.Auction, error) {
	auction := new(model.Auction)
	err := r.db.NewSelect().Model(auction).Where("auction_id = ?", auctionID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get auction %s: %w", auctionID, err)
	}
	return auction, nil
}

func (r *PostgresRepo) ListAuctions(ctx context.Context) ([]model.Auction, error) {
	var auctions []model.Auction
	if err := r.db.NewSelect().Model(&auctions).Order("created_at ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list auctions: %w", err)
	}
	return auctions, nil
}

func (r *PostgresRepo) ExpiredOpenAuctions(ctx context.Context, now time.Time) ([]model.Auction, error) {
	var auctions []model.Auction
	err := r.db.NewSelect().
		Model(&auctions).
		Where("status = ?", model.AuctionStatusOpen).
		Where("end_time <= ?", now).
		Order("end_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired auctions: %w", err)
	}
	return auctions, nil
}

func (r *PostgresRepo) MarkClosed(ctx context.Context, auctionID string, winnerID *string, winningBid *decimal.Decimal) error {
	return r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		auction := new(model.Auction)
		err := tx.NewSelect().
			Model(auction).
			Where("auction_id = ?", auctionID).
			For("UPDATE").
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("close auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to lock auction %s: %w", auctionID, err)
		}
		if auction.Status == model.AuctionStatusClosed {
			return nil
		}

		_, err = tx.NewUpdate().
			Model((*model.Auction)(nil)).
			Set("status = ?", model.AuctionStatusClosed).
			Set("winner_id = ?", winnerID).
			Set("winning_bid = ?", winningBid).
			Set("updated_at = ?", time.Now().UTC()).
			Where("auction_id = ?", auctionID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to close auction %s: %w", auctionID, err)
		}
		return nil
	})
}

func (r *PostgresRepo) AppendBid(ctx context.Context, bid *model.Bid) error {
	return r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		auction := new(model.Auction)
		err := tx.NewSelect().
			Model(auction).
			Where("auction_id = ?", bid.AuctionID).
			For("UPDATE").
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("append bid for auction %s: %w", bid.AuctionID, auctionerrors.ErrAuctionNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to lock auction %s: %w", bid.AuctionID, err)
		}

		top := new(model.Bid)
		err = tx.NewSelect().
			Model(top).
			Where("auction_id = ?", bid.AuctionID).
			Order("amount DESC", "bid_id ASC").
			Limit(1).
			Scan(ctx)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to read top bid for auction %s: %w", bid.AuctionID, err)
		}
		if err == nil && !bid.Amount.GreaterThan(top.Amount) {
			return fmt.Errorf("append bid for auction %s at %s (top %s): %w",
				bid.AuctionID, bid.Amount, top.Amount, auctionerrors.ErrBidConflict)
		}

		if _, err := tx.NewInsert().Model(bid).Exec(ctx); err != nil {
			return fmt.Errorf("failed to append bid: %w", err)
		}
		return nil
	})
}

func (r *PostgresRepo) TopBid(ctx context.Context, auctionID string) (*model.Bid, error) {
	bid := new(model.Bid)
	err := r.db.NewSelect().
		Model(bid).
		Where("auction_id = ?", auctionID).
		Order("amount DESC", "bid_id ASC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("top bid for auction %s: %w", auctionID, auctionerrors.ErrNoBids)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get top bid for auction %s: %w", auctionID, err)
	}
	return bid, nil
}

func (r *PostgresRepo) BidsFor(ctx context.Context, auctionID string) ([]model.Bid, error) {
	bids := make([]model.Bid, 0)
	err := r.db.NewSelect().
		Model(&bids).
		Where("auction_id = ?", auctionID).
		Order("bid_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list bids for auction %s: %w", auctionID, err)
	}
	return bids, nil
}

func (r *PostgresRepo) CreateAlert(ctx context.Context, alert *model.Alert) error {
	if _, err := r.GetUser(ctx, alert.UserID); err != nil {
		return err
	}
	if _, err := r.db.NewInsert().Model(alert).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}
	return nil
}

func (r *PostgresRepo) ListAlertsForUser(ctx context.Context, userID string) ([]model.Alert, error) {
	var alerts []model.Alert
	err := r.db.NewSelect().
		Model(&alerts).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts for user %s: %w", userID, err)
	}
	return alerts, nil
}

func (r *PostgresRepo) ListAlerts(ctx context.Context) ([]model.Alert, error) {
	var alerts []model.Alert
	if err := r.db.NewSelect().Model(&alerts).Order("created_at ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	return alerts, nil
}
