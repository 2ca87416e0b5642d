package integrationtests

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	auctionhelpers "buyme/services/auction/helpers"
	cataloghelpers "buyme/services/catalog/helpers"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// seedAuction drives the API to create a seller, a category, an item and
// an open auction, returning the auction id and seller id.
func seedAuction(t *testing.T, router *gin.Engine, initPrice, increment, reserve float64) (auctionID, sellerID string) {
	t.Helper()

	seller, w := ExecuteRequestAndParse(t, router, http.MethodPost, "/users", cataloghelpers.CreateUserRequest{Username: "seller"})
	require.Equal(t, http.StatusCreated, w.Code)
	sellerID = seller["user_id"].(string)

	category, w := ExecuteRequestAndParse(t, router, http.MethodPost, "/categories", cataloghelpers.CreateCategoryRequest{Name: "art"})
	require.Equal(t, http.StatusCreated, w.Code)

	item, w := ExecuteRequestAndParse(t, router, http.MethodPost, "/items", cataloghelpers.CreateItemRequest{
		Title:      "vase",
		CategoryID: category["category_id"].(string),
	})
	require.Equal(t, http.StatusCreated, w.Code)

	auction, w := ExecuteRequestAndParse(t, router, http.MethodPost, "/auctions", cataloghelpers.OpenAuctionRequest{
		ItemID:       item["item_id"].(string),
		SellerID:     sellerID,
		EndTime:      time.Now().UTC().Add(time.Hour).Format(time.RFC3339),
		InitPrice:    initPrice,
		Increment:    increment,
		ReservePrice: reserve,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	return auction["auction_id"].(string), sellerID
}

// registerBidder creates a user through the API and returns its id
func registerBidder(t *testing.T, router *gin.Engine, username string) string {
	t.Helper()
	user, w := ExecuteRequestAndParse(t, router, http.MethodPost, "/users", cataloghelpers.CreateUserRequest{Username: username})
	require.Equal(t, http.StatusCreated, w.Code)
	return user["user_id"].(string)
}

func floatPtr(v float64) *float64 { return &v }

// Full proxy-bidding flow: two proxy bidders duel, the stronger ceiling
// wins at one increment above the weaker, and closing settles the winner.
func TestProxyBiddingFlow(t *testing.T) {
	router := SetupTestRouter()
	auctionID, _ := seedAuction(t, router, 100, 10, 0)

	x := registerBidder(t, router, "bidder-x")
	y := registerBidder(t, router, "bidder-y")

	resp, w := ExecuteRequestAndParse(t, router, http.MethodPost, "/auctions/"+auctionID+"/bids",
		auctionhelpers.PlaceBidRequest{UserID: x, MaxBid: floatPtr(200)})
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, 110.0, resp["amount"], "first proxy bid reveals only init + increment")

	resp, w = ExecuteRequestAndParse(t, router, http.MethodPost, "/auctions/"+auctionID+"/bids",
		auctionhelpers.PlaceBidRequest{UserID: y, MaxBid: floatPtr(180)})
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, x, resp["user_id"], "stronger ceiling must hold the top after the duel")
	require.Equal(t, 190.0, resp["amount"])
	require.Equal(t, true, resp["auto"])

	// The public listing never exposes anyone's max_bid.
	_, w = ExecuteRequestAndParse(t, router, http.MethodGet, "/auctions/"+auctionID+"/bids", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotEmpty(t, envelope.Data)
	for _, bid := range envelope.Data {
		_, hasMax := bid["max_bid"]
		require.False(t, hasMax)
	}

	// Close and verify settlement.
	snap, w := ExecuteRequestAndParse(t, router, http.MethodPost, "/auctions/"+auctionID+"/close", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "closed", snap["status"])
	require.Equal(t, x, snap["winner_id"])
	require.Equal(t, 190.0, snap["winning_bid"])

	// Further bids are rejected.
	_, w = ExecuteRequestAndParse(t, router, http.MethodPost, "/auctions/"+auctionID+"/bids",
		auctionhelpers.PlaceBidRequest{UserID: y, Amount: floatPtr(500)})
	require.Equal(t, http.StatusConflict, w.Code)
}

// Reserve price flow: a proxy ceiling below the reserve leaves the
// auction unsold with the high bid recorded.
func TestReserveNotMetFlow(t *testing.T) {
	router := SetupTestRouter()
	auctionID, _ := seedAuction(t, router, 100, 10, 500)

	x := registerBidder(t, router, "bidder-x")

	// Manual bids below the reserve are rejected outright.
	_, w := ExecuteRequestAndParse(t, router, http.MethodPost, "/auctions/"+auctionID+"/bids",
		auctionhelpers.PlaceBidRequest{UserID: x, Amount: floatPtr(120)})
	require.Equal(t, http.StatusConflict, w.Code)

	// A proxy ceiling below the reserve still stands as a bid.
	resp, w := ExecuteRequestAndParse(t, router, http.MethodPost, "/auctions/"+auctionID+"/bids",
		auctionhelpers.PlaceBidRequest{UserID: x, MaxBid: floatPtr(120)})
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, 110.0, resp["amount"])

	snap, w := ExecuteRequestAndParse(t, router, http.MethodPost, "/auctions/"+auctionID+"/close", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "closed", snap["status"])
	_, hasWinner := snap["winner_id"]
	require.False(t, hasWinner, "reserve not met must leave no winner")
	require.Equal(t, 110.0, snap["winning_bid"])
}

// Seller self-bid and anonymous masking through the API
func TestBidRejectionAndMasking(t *testing.T) {
	router := SetupTestRouter()
	auctionID, sellerID := seedAuction(t, router, 100, 10, 0)

	_, w := ExecuteRequestAndParse(t, router, http.MethodPost, "/auctions/"+auctionID+"/bids",
		auctionhelpers.PlaceBidRequest{UserID: sellerID, Amount: floatPtr(150)})
	require.Equal(t, http.StatusForbidden, w.Code)

	anon := registerBidder(t, router, "shy-bidder")
	resp, w := ExecuteRequestAndParse(t, router, http.MethodPost, "/auctions/"+auctionID+"/bids",
		auctionhelpers.PlaceBidRequest{UserID: anon, Amount: floatPtr(150), Anonymous: true})
	require.Equal(t, http.StatusCreated, w.Code)
	require.Contains(t, resp["bidder"], "anonymous-")
	_, hasUserID := resp["user_id"]
	require.False(t, hasUserID)
}

// Alerts flow: create an alert and run the evaluation pass
func TestAlertsFlow(t *testing.T) {
	router := SetupTestRouter()
	_, _ = seedAuction(t, router, 100, 10, 0)

	userID := registerBidder(t, router, "watcher")

	_, w := ExecuteRequestAndParse(t, router, http.MethodPost, "/alerts", cataloghelpers.CreateAlertRequest{
		UserID:   userID,
		Criteria: map[string]any{"max_price": 500.0},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	_, w = ExecuteRequestAndParse(t, router, http.MethodPost, "/alerts", cataloghelpers.CreateAlertRequest{
		UserID:   userID,
		Criteria: map[string]any{"color": "blue"},
	})
	require.Equal(t, http.StatusBadRequest, w.Code, "unknown criteria keys are rejected")

	resp, w := ExecuteRequestAndParse(t, router, http.MethodPost, "/admin/alerts/run", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1.0, resp["matched"])
}

// Admin sweep endpoint settles nothing when no auction has expired
func TestSweepEndpoint(t *testing.T) {
	router := SetupTestRouter()
	_, _ = seedAuction(t, router, 100, 10, 0)

	resp, w := ExecuteRequestAndParse(t, router, http.MethodPost, "/admin/sweep", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 0.0, resp["closed"])
}
