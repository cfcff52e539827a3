package orgs_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/hugh/boardstack/internal/orgs"
	"github.com/hugh/boardstack/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newOrgService(t *testing.T) (*orgs.Service, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return orgs.NewService(db, nil, nil, nil, logger), db
}

func TestRole_Satisfies(t *testing.T) {
	cases := []struct {
		role     orgs.Role
		required orgs.Role
		want     bool
	}{
		{orgs.RoleOwner, orgs.RoleOwner, true},
		{orgs.RoleOwner, orgs.RoleAdmin, true},
		{orgs.RoleOwner, orgs.RoleMember, true},
		{orgs.RoleAdmin, orgs.RoleOwner, false},
		{orgs.RoleAdmin, orgs.RoleAdmin, true},
		{orgs.RoleAdmin, orgs.RoleMember, true},
		{orgs.RoleMember, orgs.RoleOwner, false},
		{orgs.RoleMember, orgs.RoleAdmin, false},
		{orgs.RoleMember, orgs.RoleMember, true},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.role.Satisfies(tc.required),
			"%s satisfies %s", tc.role, tc.required)
	}
}

func TestRole_Valid(t *testing.T) {
	assert.True(t, orgs.RoleOwner.Valid())
	assert.True(t, orgs.RoleAdmin.Valid())
	assert.True(t, orgs.RoleMember.Valid())
	assert.False(t, orgs.Role("superuser").Valid())
	assert.False(t, orgs.Role("").Valid())
}

func TestService_CheckPermission(t *testing.T) {
	service, db := newOrgService(t)
	ctx := context.Background()

	owner := testutil.CreateTestUser(t, db)
	org := testutil.CreateTestOrg(t, db, owner)

	member := testutil.CreateTestUser(t, db)
	testutil.CreateTestMembership(t, db, org, member, "member")

	t.Run("owner satisfies every requirement", func(t *testing.T) {
		for _, required := range []orgs.Role{orgs.RoleMember, orgs.RoleAdmin, orgs.RoleOwner} {
			allowed, err := service.CheckPermission(ctx, org.ID, owner.ID, required)
			require.NoError(t, err)
			assert.True(t, allowed)
		}
	})

	t.Run("member denied elevated requirements", func(t *testing.T) {
		allowed, err := service.CheckPermission(ctx, org.ID, member.ID, orgs.RoleMember)
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = service.CheckPermission(ctx, org.ID, member.ID, orgs.RoleAdmin)
		require.NoError(t, err)
		assert.False(t, allowed)
	})

	t.Run("non-member denied without error", func(t *testing.T) {
		outsider := testutil.CreateTestUser(t, db)

		allowed, err := service.CheckPermission(ctx, org.ID, outsider.ID, orgs.RoleMember)
		require.NoError(t, err)
		assert.False(t, allowed)
	})

	t.Run("unknown org denied without error", func(t *testing.T) {
		allowed, err := service.CheckPermission(ctx, uuid.New(), owner.ID, orgs.RoleMember)
		require.NoError(t, err)
		assert.False(t, allowed)
	})
}
