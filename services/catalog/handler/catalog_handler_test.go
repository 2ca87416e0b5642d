package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"buyme/internal/auctionerrors"
	model "buyme/internal/models"
	"buyme/services/catalog/helpers"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// Test CreateUserHandler
func TestCreateUserHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := NewMockCatalogServiceInterface(ctrl)
	handler := NewCatalogHandler(mockService)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/users", handler.CreateUserHandler)

	tests := []struct {
		name           string
		requestBody    any
		mockSetup      func()
		expectedStatus int
		expectedMsg    string
	}{
		{
			name:        "success",
			requestBody: helpers.CreateUserRequest{Username: "alice"},
			mockSetup: func() {
				mockService.EXPECT().
					CreateUser(gomock.Any(), "alice").
					Return(&model.User{UserID: "u1", Username: "alice", CreatedAt: time.Now().UTC()}, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedMsg:    "user created successfully",
		},
		{
			name:           "missing_username",
			requestBody:    helpers.CreateUserRequest{},
			mockSetup:      func() {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name:        "duplicate_username",
			requestBody: helpers.CreateUserRequest{Username: "alice"},
			mockSetup: func() {
				mockService.EXPECT().
					CreateUser(gomock.Any(), "alice").
					Return(nil, fmt.Errorf("catalog: %w", auctionerrors.ErrDuplicate))
			},
			expectedStatus: http.StatusConflict,
			expectedMsg:    "resource already exists",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			tc.mockSetup()

			body, err := json.Marshal(tc.requestBody)
			require.NoError(t, err)

			req := httptest.NewRequest(http.MethodPost, "/users", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			require.Equal(t, tc.expectedStatus, rec.Code)

			var envelope map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
			require.Equal(t, tc.expectedMsg, envelope["message"])
		})
	}
}

// Test OpenAuctionHandler
func TestOpenAuctionHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := NewMockCatalogServiceInterface(ctrl)
	handler := NewCatalogHandler(mockService)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/auctions", handler.OpenAuctionHandler)

	now := time.Now().UTC()
	endTime := now.Add(time.Hour).Truncate(time.Second)

	t.Run("success", func(t *testing.T) {
		mockService.EXPECT().
			OpenAuction(gomock.Any(), "item1", "seller1", gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(&model.Auction{
				AuctionID: "auction1",
				ItemID:    "item1",
				SellerID:  "seller1",
				StartTime: now,
				EndTime:   endTime,
				InitPrice: decimal.NewFromInt(100),
				Increment: decimal.NewFromInt(10),
				Status:    model.AuctionStatusOpen,
			}, nil)

		body, err := json.Marshal(helpers.OpenAuctionRequest{
			ItemID:    "item1",
			SellerID:  "seller1",
			EndTime:   endTime.Format(time.RFC3339),
			InitPrice: 100,
			Increment: 10,
		})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/auctions", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)

		var envelope struct {
			Data helpers.AuctionResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
		require.Equal(t, "auction1", envelope.Data.AuctionID)
		require.Equal(t, "open", envelope.Data.Status)
	})

	t.Run("malformed_end_time", func(t *testing.T) {
		body, err := json.Marshal(helpers.OpenAuctionRequest{
			ItemID:    "item1",
			SellerID:  "seller1",
			EndTime:   "tomorrow",
			InitPrice: 100,
			Increment: 10,
		})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/auctions", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

// Test CreateAlertHandler passes raw criteria through untouched
func TestCreateAlertHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := NewMockAlertServiceInterface(ctrl)
	handler := NewAlertHandler(mockService)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/alerts", handler.CreateAlertHandler)

	t.Run("success", func(t *testing.T) {
		criteria := map[string]any{"category_id": "art", "max_price": 500.0}
		mockService.EXPECT().
			CreateAlert(gomock.Any(), "u1", criteria).
			Return(&model.Alert{AlertID: "a1", UserID: "u1"}, nil)

		body, err := json.Marshal(helpers.CreateAlertRequest{UserID: "u1", Criteria: criteria})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/alerts", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("unknown_criteria_key", func(t *testing.T) {
		criteria := map[string]any{"seller_id": "u2"}
		mockService.EXPECT().
			CreateAlert(gomock.Any(), "u1", criteria).
			Return(nil, fmt.Errorf("alerts: %w", auctionerrors.ErrInvalidRequest))

		body, err := json.Marshal(helpers.CreateAlertRequest{UserID: "u1", Criteria: criteria})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/alerts", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

// Test RunAlertsHandler
func TestRunAlertsHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := NewMockAlertServiceInterface(ctrl)
	handler := NewAlertHandler(mockService)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/admin/alerts/run", handler.RunAlertsHandler)

	mockService.EXPECT().RunAlerts(gomock.Any()).Return(2, nil)

	req := httptest.NewRequest(http.MethodPost, "/admin/alerts/run", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data helpers.RunAlertsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Equal(t, 2, envelope.Data.Matched)
}
