package orgs_test

import (
	"context"
	"testing"
	"time"

	"github.com/hugh/boardstack/internal/database/models"
	"github.com/hugh/boardstack/internal/orgs"
	"github.com/hugh/boardstack/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_Invite(t *testing.T) {
	service, db := newOrgService(t)
	ctx := context.Background()

	owner := testutil.CreateTestUser(t, db)
	org := testutil.CreateTestOrg(t, db, owner)

	member := testutil.CreateTestUser(t, db)
	testutil.CreateTestMembership(t, db, org, member, "member")

	t.Run("creates pending invitation with token", func(t *testing.T) {
		invitation, err := service.Invite(ctx, orgs.InviteInput{
			OrganizationID: org.ID,
			Email:          "Invitee@Example.com",
			Role:           "admin",
			InviterID:      owner.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, models.InvitationPending, invitation.Status)
		assert.NotEmpty(t, invitation.Token)
		assert.Equal(t, "invitee@example.com", invitation.Email)
		assert.Equal(t, "admin", invitation.Role)
		assert.WithinDuration(t, time.Now().Add(orgs.InvitationTTL), invitation.ExpiresAt, time.Minute)
	})

	t.Run("defaults role to member", func(t *testing.T) {
		invitation, err := service.Invite(ctx, orgs.InviteInput{
			OrganizationID: org.ID,
			Email:          "default-role@example.com",
			InviterID:      owner.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, "member", invitation.Role)
	})

	t.Run("any member may invite", func(t *testing.T) {
		_, err := service.Invite(ctx, orgs.InviteInput{
			OrganizationID: org.ID,
			Email:          "from-member@example.com",
			InviterID:      member.ID,
		})
		assert.NoError(t, err)
	})

	t.Run("rejects invalid email", func(t *testing.T) {
		_, err := service.Invite(ctx, orgs.InviteInput{
			OrganizationID: org.ID,
			Email:          "not-an-email",
			InviterID:      owner.ID,
		})
		assert.Equal(t, orgs.ErrInvalidEmail, err)
	})

	t.Run("rejects invalid role", func(t *testing.T) {
		_, err := service.Invite(ctx, orgs.InviteInput{
			OrganizationID: org.ID,
			Email:          "role@example.com",
			Role:           "superuser",
			InviterID:      owner.ID,
		})
		assert.Equal(t, orgs.ErrInvalidRole, err)
	})

	t.Run("rejects non-member inviter", func(t *testing.T) {
		outsider := testutil.CreateTestUser(t, db)
		_, err := service.Invite(ctx, orgs.InviteInput{
			OrganizationID: org.ID,
			Email:          "outside@example.com",
			InviterID:      outsider.ID,
		})
		assert.Equal(t, orgs.ErrPermissionDenied, err)
	})
}

func TestService_Accept(t *testing.T) {
	service, db := newOrgService(t)
	ctx := context.Background()

	owner := testutil.CreateTestUser(t, db)
	org := testutil.CreateTestOrg(t, db, owner)

	t.Run("creates membership and consumes invitation", func(t *testing.T) {
		invitee := testutil.CreateTestUser(t, db)
		invitation := testutil.CreateTestInvitation(t, db, org, owner, invitee.Email, "admin")

		membership, err := service.Accept(ctx, invitation.Token, invitee.ID)
		require.NoError(t, err)
		assert.Equal(t, org.ID, membership.OrganizationID)
		assert.Equal(t, invitee.ID, membership.UserID)
		assert.Equal(t, "admin", membership.Role)

		var stored models.Invitation
		require.NoError(t, db.First(&stored, invitation.ID).Error)
		assert.Equal(t, models.InvitationAccepted, stored.Status)
		assert.NotNil(t, stored.AcceptedAt)
	})

	t.Run("second accept of same token fails as not found", func(t *testing.T) {
		invitee := testutil.CreateTestUser(t, db)
		invitation := testutil.CreateTestInvitation(t, db, org, owner, invitee.Email, "member")

		_, err := service.Accept(ctx, invitation.Token, invitee.ID)
		require.NoError(t, err)

		other := testutil.CreateTestUser(t, db)
		_, err = service.Accept(ctx, invitation.Token, other.ID)
		assert.Equal(t, orgs.ErrInvitationNotFound, err)
	})

	t.Run("unknown token", func(t *testing.T) {
		user := testutil.CreateTestUser(t, db)
		_, err := service.Accept(ctx, "no-such-token", user.ID)
		assert.Equal(t, orgs.ErrInvitationNotFound, err)
	})

	t.Run("revoked token reads as not found", func(t *testing.T) {
		invitee := testutil.CreateTestUser(t, db)
		invitation := testutil.CreateTestInvitation(t, db, org, owner, invitee.Email, "member")
		_, err := service.Revoke(ctx, invitation.ID, owner.ID)
		require.NoError(t, err)

		_, err = service.Accept(ctx, invitation.Token, invitee.ID)
		assert.Equal(t, orgs.ErrInvitationNotFound, err)
	})

	t.Run("expired token reads as not found", func(t *testing.T) {
		invitee := testutil.CreateTestUser(t, db)
		invitation := testutil.CreateTestInvitation(t, db, org, owner, invitee.Email, "member")
		require.NoError(t, db.Model(invitation).
			Update("expires_at", time.Now().Add(-time.Hour)).Error)

		_, err := service.Accept(ctx, invitation.Token, invitee.ID)
		assert.Equal(t, orgs.ErrInvitationNotFound, err)
	})

	t.Run("existing member leaves invitation pending", func(t *testing.T) {
		member := testutil.CreateTestUser(t, db)
		testutil.CreateTestMembership(t, db, org, member, "member")
		invitation := testutil.CreateTestInvitation(t, db, org, owner, member.Email, "member")

		_, err := service.Accept(ctx, invitation.Token, member.ID)
		assert.Equal(t, orgs.ErrAlreadyMember, err)

		var stored models.Invitation
		require.NoError(t, db.First(&stored, invitation.ID).Error)
		assert.Equal(t, models.InvitationPending, stored.Status)
	})
}

func TestService_Resend(t *testing.T) {
	service, db := newOrgService(t)
	ctx := context.Background()

	owner := testutil.CreateTestUser(t, db)
	org := testutil.CreateTestOrg(t, db, owner)

	member := testutil.CreateTestUser(t, db)
	testutil.CreateTestMembership(t, db, org, member, "member")

	t.Run("rotates token and stays pending", func(t *testing.T) {
		invitation := testutil.CreateTestInvitation(t, db, org, owner, "resend@example.com", "member")
		oldToken := invitation.Token

		resent, err := service.Resend(ctx, invitation.ID, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, models.InvitationPending, resent.Status)
		assert.NotEqual(t, oldToken, resent.Token)

		// The old token no longer resolves
		user := testutil.CreateTestUser(t, db)
		_, err = service.Accept(ctx, oldToken, user.ID)
		assert.Equal(t, orgs.ErrInvitationNotFound, err)

		// The rotated token does
		_, err = service.Accept(ctx, resent.Token, user.ID)
		assert.NoError(t, err)
	})

	t.Run("member may not resend", func(t *testing.T) {
		invitation := testutil.CreateTestInvitation(t, db, org, owner, "denied@example.com", "member")

		_, err := service.Resend(ctx, invitation.ID, member.ID)
		assert.Equal(t, orgs.ErrPermissionDenied, err)
	})

	t.Run("accepted invitation cannot be resent", func(t *testing.T) {
		invitee := testutil.CreateTestUser(t, db)
		invitation := testutil.CreateTestInvitation(t, db, org, owner, invitee.Email, "member")
		_, err := service.Accept(ctx, invitation.Token, invitee.ID)
		require.NoError(t, err)

		_, err = service.Resend(ctx, invitation.ID, owner.ID)
		assert.Equal(t, orgs.ErrInvitationNotPending, err)
	})

	t.Run("revoked invitation cannot be resent", func(t *testing.T) {
		invitation := testutil.CreateTestInvitation(t, db, org, owner, "revoked@example.com", "member")
		_, err := service.Revoke(ctx, invitation.ID, owner.ID)
		require.NoError(t, err)

		_, err = service.Resend(ctx, invitation.ID, owner.ID)
		assert.Equal(t, orgs.ErrInvitationNotPending, err)
	})
}

func TestService_Revoke(t *testing.T) {
	service, db := newOrgService(t)
	ctx := context.Background()

	owner := testutil.CreateTestUser(t, db)
	org := testutil.CreateTestOrg(t, db, owner)

	member := testutil.CreateTestUser(t, db)
	testutil.CreateTestMembership(t, db, org, member, "member")

	t.Run("moves pending to revoked", func(t *testing.T) {
		invitation := testutil.CreateTestInvitation(t, db, org, owner, "revoke@example.com", "member")

		revoked, err := service.Revoke(ctx, invitation.ID, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, models.InvitationRevoked, revoked.Status)
		assert.NotNil(t, revoked.RevokedAt)
	})

	t.Run("revoking twice is a no-op", func(t *testing.T) {
		invitation := testutil.CreateTestInvitation(t, db, org, owner, "twice@example.com", "member")

		first, err := service.Revoke(ctx, invitation.ID, owner.ID)
		require.NoError(t, err)

		second, err := service.Revoke(ctx, invitation.ID, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, models.InvitationRevoked, second.Status)
		assert.Equal(t, first.RevokedAt.Unix(), second.RevokedAt.Unix())
	})

	t.Run("accepted invitation cannot be revoked", func(t *testing.T) {
		invitee := testutil.CreateTestUser(t, db)
		invitation := testutil.CreateTestInvitation(t, db, org, owner, invitee.Email, "member")
		_, err := service.Accept(ctx, invitation.Token, invitee.ID)
		require.NoError(t, err)

		_, err = service.Revoke(ctx, invitation.ID, owner.ID)
		assert.Equal(t, orgs.ErrInvitationNotPending, err)
	})

	t.Run("member may not revoke", func(t *testing.T) {
		invitation := testutil.CreateTestInvitation(t, db, org, owner, "member-revoke@example.com", "member")

		_, err := service.Revoke(ctx, invitation.ID, member.ID)
		assert.Equal(t, orgs.ErrPermissionDenied, err)
	})
}

func TestService_ListInvitations(t *testing.T) {
	service, db := newOrgService(t)
	ctx := context.Background()

	owner := testutil.CreateTestUser(t, db)
	org := testutil.CreateTestOrg(t, db, owner)

	testutil.CreateTestInvitation(t, db, org, owner, "one@example.com", "member")
	testutil.CreateTestInvitation(t, db, org, owner, "two@example.com", "admin")

	t.Run("member sees all invitations", func(t *testing.T) {
		invitations, total, err := service.ListInvitations(ctx, org.ID, owner.ID, orgs.ListInvitationsOptions{})
		require.NoError(t, err)
		assert.Len(t, invitations, 2)
		assert.Equal(t, int64(2), total)
	})

	t.Run("filters by status", func(t *testing.T) {
		invitations, total, err := service.ListInvitations(ctx, org.ID, owner.ID, orgs.ListInvitationsOptions{
			Status: string(models.InvitationRevoked),
		})
		require.NoError(t, err)
		assert.Empty(t, invitations)
		assert.Equal(t, int64(0), total)
	})

	t.Run("pages results", func(t *testing.T) {
		invitations, total, err := service.ListInvitations(ctx, org.ID, owner.ID, orgs.ListInvitationsOptions{
			Limit: 1,
		})
		require.NoError(t, err)
		assert.Len(t, invitations, 1)
		assert.Equal(t, int64(2), total)
	})

	t.Run("outsider denied", func(t *testing.T) {
		outsider := testutil.CreateTestUser(t, db)
		_, _, err := service.ListInvitations(ctx, org.ID, outsider.ID, orgs.ListInvitationsOptions{})
		assert.Equal(t, orgs.ErrPermissionDenied, err)
	})
}
