package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hugh/boardstack/internal/api/handlers"
	"github.com/hugh/boardstack/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoardHandler_Lifecycle(t *testing.T) {
	router, tc := setupOrgTestRouter(t)
	defer tc.Cleanup()

	var created handlers.BoardResponse

	t.Run("member creates board", func(t *testing.T) {
		body := map[string]string{"title": "Roadmap"}

		req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/orgs/"+tc.Org.ID.String()+"/boards", body, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)

		testutil.ParseJSONResponse(t, rr, &created)
		assert.Equal(t, "Roadmap", created.Title)
	})

	t.Run("blank title rejected", func(t *testing.T) {
		body := map[string]string{"title": "  "}

		req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/orgs/"+tc.Org.ID.String()+"/boards", body, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("lists boards", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/orgs/"+tc.Org.ID.String()+"/boards", nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var list []handlers.BoardResponse
		testutil.ParseJSONResponse(t, rr, &list)
		require.Len(t, list, 1)
	})

	t.Run("outsider cannot fetch", func(t *testing.T) {
		outsider := testutil.CreateTestUser(t, tc.DB)
		outsiderToken := testutil.GenerateTestToken(t, tc.JWTService, outsider)

		req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/boards/"+created.ID, nil, outsiderToken)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("owner deletes board", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "DELETE", "/api/v1/boards/"+created.ID, nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		req = testutil.AuthenticatedRequest(t, "GET", "/api/v1/boards/"+created.ID, nil, tc.Token)
		rr = httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}
