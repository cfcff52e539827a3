package boards_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/hugh/boardstack/internal/boards"
	"github.com/hugh/boardstack/internal/orgs"
	"github.com/hugh/boardstack/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newBoardService(t *testing.T) (*boards.Service, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	orgService := orgs.NewService(db, nil, nil, nil, logger)
	return boards.NewService(db, orgService), db
}

func TestService_Create(t *testing.T) {
	service, db := newBoardService(t)
	ctx := context.Background()

	owner := testutil.CreateTestUser(t, db)
	org := testutil.CreateTestOrg(t, db, owner)

	member := testutil.CreateTestUser(t, db)
	testutil.CreateTestMembership(t, db, org, member, "member")

	t.Run("member can create", func(t *testing.T) {
		board, err := service.Create(ctx, org.ID, "Sprint Board", member.ID)
		require.NoError(t, err)
		assert.Equal(t, "Sprint Board", board.Title)
		assert.Equal(t, org.ID, board.OrganizationID)
		assert.Equal(t, member.ID, board.CreatedBy)
	})

	t.Run("rejects blank title", func(t *testing.T) {
		_, err := service.Create(ctx, org.ID, "   ", owner.ID)
		assert.Equal(t, boards.ErrInvalidTitle, err)
	})

	t.Run("outsider denied", func(t *testing.T) {
		outsider := testutil.CreateTestUser(t, db)
		_, err := service.Create(ctx, org.ID, "Denied", outsider.ID)
		assert.Equal(t, orgs.ErrPermissionDenied, err)
	})
}

func TestService_ListAndGet(t *testing.T) {
	service, db := newBoardService(t)
	ctx := context.Background()

	owner := testutil.CreateTestUser(t, db)
	org := testutil.CreateTestOrg(t, db, owner)

	first, err := service.Create(ctx, org.ID, "First", owner.ID)
	require.NoError(t, err)
	second, err := service.Create(ctx, org.ID, "Second", owner.ID)
	require.NoError(t, err)

	t.Run("list returns org boards", func(t *testing.T) {
		list, err := service.List(ctx, org.ID, owner.ID)
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})

	t.Run("get checks membership in owning org", func(t *testing.T) {
		board, err := service.Get(ctx, first.ID, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, "First", board.Title)

		outsider := testutil.CreateTestUser(t, db)
		_, err = service.Get(ctx, second.ID, outsider.ID)
		assert.Equal(t, orgs.ErrPermissionDenied, err)
	})

	t.Run("unknown board", func(t *testing.T) {
		_, err := service.Get(ctx, uuid.New(), owner.ID)
		assert.Equal(t, boards.ErrBoardNotFound, err)
	})

	t.Run("outsider cannot list", func(t *testing.T) {
		outsider := testutil.CreateTestUser(t, db)
		_, err := service.List(ctx, org.ID, outsider.ID)
		assert.Equal(t, orgs.ErrPermissionDenied, err)
	})
}

func TestService_Delete(t *testing.T) {
	service, db := newBoardService(t)
	ctx := context.Background()

	owner := testutil.CreateTestUser(t, db)
	org := testutil.CreateTestOrg(t, db, owner)

	member := testutil.CreateTestUser(t, db)
	testutil.CreateTestMembership(t, db, org, member, "member")

	admin := testutil.CreateTestUser(t, db)
	testutil.CreateTestMembership(t, db, org, admin, "admin")

	t.Run("member denied", func(t *testing.T) {
		board, err := service.Create(ctx, org.ID, "Kept", member.ID)
		require.NoError(t, err)

		err = service.Delete(ctx, board.ID, member.ID)
		assert.Equal(t, orgs.ErrPermissionDenied, err)
	})

	t.Run("admin deletes", func(t *testing.T) {
		board, err := service.Create(ctx, org.ID, "Doomed", member.ID)
		require.NoError(t, err)

		require.NoError(t, service.Delete(ctx, board.ID, admin.ID))

		_, err = service.Get(ctx, board.ID, admin.ID)
		assert.Equal(t, boards.ErrBoardNotFound, err)
	})
}
