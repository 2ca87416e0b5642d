package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"buyme/internal/auctionerrors"
	model "buyme/internal/models"
	"buyme/services/catalog/helpers"
	"buyme/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=catalog_handler.go -destination=mock_service.go -package=handler

type CatalogServiceInterface interface {
	CreateUser(ctx context.Context, username string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	CreateCategory(ctx context.Context, name string, parentID *string) (*model.Category, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	CreateItem(ctx context.Context, title, description, categoryID string) (*model.Item, error)
	ListItems(ctx context.Context) ([]model.Item, error)
	OpenAuction(ctx context.Context, itemID, sellerID string, endTime time.Time, initPrice, increment, reservePrice decimal.Decimal) (*model.Auction, error)
	GetAuction(ctx context.Context, auctionID string) (*model.Auction, error)
	ListAuctions(ctx context.Context) ([]model.Auction, error)
}

type CatalogHandler struct {
	service CatalogServiceInterface
}

func NewCatalogHandler(service CatalogServiceInterface) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// CreateUserHandler handles POST /users
func (h *CatalogHandler) CreateUserHandler(c *gin.Context) {
	var req helpers.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateUserHandler", err)
		return
	}

	user, err := h.service.CreateUser(c.Request.Context(), req.Username)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Error("CreateUserHandler: failed to create user", map[string]any{
			"username": req.Username,
			"error":    err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, user, "user created successfully")
	helpers.LogSuccess("CreateUserHandler", "user created successfully", map[string]any{
		"user_id":  user.UserID,
		"username": user.Username,
	})
}

// ListUsersHandler handles GET /users
func (h *CatalogHandler) ListUsersHandler(c *gin.Context) {
	users, err := h.service.ListUsers(c.Request.Context())
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("ListUsersHandler: error retrieving users", map[string]any{"error": err.Error()})
		return
	}

	if users == nil {
		users = []model.User{}
	}
	utils.JSONResponse(c, http.StatusOK, users, "users retrieved successfully")
}

// CreateCategoryHandler handles POST /categories
func (h *CatalogHandler) CreateCategoryHandler(c *gin.Context) {
	var req helpers.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateCategoryHandler", err)
		return
	}

	category, err := h.service.CreateCategory(c.Request.Context(), req.Name, req.ParentID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Error("CreateCategoryHandler: failed to create category", map[string]any{
			"name":  req.Name,
			"error": err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, category, "category created successfully")
	helpers.LogSuccess("CreateCategoryHandler", "category created successfully", map[string]any{
		"category_id": category.CategoryID,
		"name":        category.Name,
	})
}

// ListCategoriesHandler handles GET /categories
func (h *CatalogHandler) ListCategoriesHandler(c *gin.Context) {
	categories, err := h.service.ListCategories(c.Request.Context())
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("ListCategoriesHandler: error retrieving categories", map[string]any{"error": err.Error()})
		return
	}

	if categories == nil {
		categories = []model.Category{}
	}
	utils.JSONResponse(c, http.StatusOK, categories, "categories retrieved successfully")
}

// CreateItemHandler handles POST /items
func (h *CatalogHandler) CreateItemHandler(c *gin.Context) {
	var req helpers.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateItemHandler", err)
		return
	}

	item, err := h.service.CreateItem(c.Request.Context(), req.Title, req.Description, req.CategoryID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Error("CreateItemHandler: failed to create item", map[string]any{
			"title": req.Title,
			"error": err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, item, "item created successfully")
	helpers.LogSuccess("CreateItemHandler", "item created successfully", map[string]any{
		"item_id": item.ItemID,
		"title":   item.Title,
	})
}

// ListItemsHandler handles GET /items
func (h *CatalogHandler) ListItemsHandler(c *gin.Context) {
	items, err := h.service.ListItems(c.Request.Context())
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("ListItemsHandler: error retrieving items", map[string]any{"error": err.Error()})
		return
	}

	if items == nil {
		items = []model.Item{}
	}
	utils.JSONResponse(c, http.StatusOK, items, "items retrieved successfully")
}

// OpenAuctionHandler handles POST /auctions
func (h *CatalogHandler) OpenAuctionHandler(c *gin.Context) {
	var req helpers.OpenAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "OpenAuctionHandler", err)
		return
	}

	endTime, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		wrapped := fmt.Errorf("%w: end_time must be RFC3339: %v", auctionerrors.ErrInvalidRequest, err)
		utils.JSONError(c, http.StatusBadRequest, wrapped, "invalid end_time")
		utils.Warn("OpenAuctionHandler: invalid end_time", map[string]any{"end_time": req.EndTime})
		return
	}

	auction, err := h.service.OpenAuction(
		c.Request.Context(),
		req.ItemID,
		req.SellerID,
		endTime,
		decimal.NewFromFloat(req.InitPrice),
		decimal.NewFromFloat(req.Increment),
		decimal.NewFromFloat(req.ReservePrice),
	)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Error("OpenAuctionHandler: failed to open auction", map[string]any{
			"item_id":   req.ItemID,
			"seller_id": req.SellerID,
			"error":     err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.ToAuctionResponse(*auction), "auction opened successfully")
	helpers.LogSuccess("OpenAuctionHandler", "auction opened successfully", map[string]any{
		"auction_id": auction.AuctionID,
		"item_id":    auction.ItemID,
		"end_time":   auction.EndTime.UTC().Format(time.RFC3339),
	})
}

// GetAuctionHandler handles GET /auctions/:auction_id
func (h *CatalogHandler) GetAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	auction, err := h.service.GetAuction(c.Request.Context(), auctionID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("GetAuctionHandler: error retrieving auction", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.ToAuctionResponse(*auction), "auction retrieved successfully")
}

// ListAuctionsHandler handles GET /auctions
func (h *CatalogHandler) ListAuctionsHandler(c *gin.Context) {
	auctions, err := h.service.ListAuctions(c.Request.Context())
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("ListAuctionsHandler: error retrieving auctions", map[string]any{"error": err.Error()})
		return
	}

	resp := make([]helpers.AuctionResponse, 0, len(auctions))
	for _, auction := range auctions {
		resp = append(resp, helpers.ToAuctionResponse(auction))
	}
	utils.JSONResponse(c, http.StatusOK, resp, "auctions retrieved successfully")
}
