package integrationtests

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"buyme/internal/alerts"
	"buyme/internal/auction"
	"buyme/internal/catalog"
	"buyme/internal/repository"
	"buyme/internal/server"

	"github.com/gin-gonic/gin"
)

// SetupTestRouter initializes the router with the in-memory repository
// for integration testing.
func SetupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	repo := repository.NewMemoryRepo()
	engine := auction.NewEngine(repo, auction.NewLogNotifier())
	catalogSvc := catalog.NewService(repo, engine.Lifecycle())
	alertSvc := alerts.NewService(repo)
	return server.SetupRouter(engine, catalogSvc, alertSvc)
}

// ExecuteRequestAndParse executes an HTTP request on the given router and
// parses the response envelope, returning the data payload for 2xx
// responses.
func ExecuteRequestAndParse(t *testing.T, router *gin.Engine, method, url string, body any) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()

	var reqBody []byte
	var err error

	switch v := body.(type) {
	case nil:
	case []byte:
		reqBody = v
	case string:
		reqBody = []byte(v)
	default:
		reqBody, err = json.Marshal(v)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
		if w.Code >= 200 && w.Code < 300 {
			if data, ok := resp["data"].(map[string]any); ok {
				resp = data
			}
		}
	}

	return resp, w
}
