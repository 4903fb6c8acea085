package identity

import "github.com/artpar/mingle/internal/core/domain"

// =============================================================================
// Profile Access Rules
// =============================================================================

// CanViewProfile checks whether viewer may see owner's profile.
// Own and public profiles are always visible; private profiles only to users
// the owner has added as friends.
func CanViewProfile(viewer *domain.User, owner *domain.User, viewerIsFriendOfOwner bool) bool {
	if viewer.ID == owner.ID {
		return true
	}
	if owner.IsPublic {
		return true
	}
	return viewerIsFriendOfOwner
}

// CanViewPosts checks whether viewer may read owner's posts.
// The rule is the same as for profiles.
func CanViewPosts(viewer *domain.User, owner *domain.User, viewerIsFriendOfOwner bool) bool {
	return CanViewProfile(viewer, owner, viewerIsFriendOfOwner)
}
