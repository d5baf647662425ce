package constants

import (
	"strings"

	"souk-backend/internal/pkg/constants"
)

var (
	everyone   = []string{constants.RoleUser, constants.RoleAdmin, constants.RoleSuperAdmin}
	staff      = []string{constants.RoleAdmin, constants.RoleSuperAdmin}
	superAdmin = []string{constants.RoleSuperAdmin}
)

// PermissionRoles maps each permission to the roles allowed to perform it.
var PermissionRoles = map[string][]string{
	CreateListing:     everyone,
	EditOwnListing:    everyone,
	DeleteOwnListing:  everyone,
	ViewProfile:       everyone,
	EditOwnProfile:    everyone,
	AccessAdminPanel:  everyone,
	ViewDashboard:     everyone,
	SaveListings:      everyone,
	CreateInquiries:   everyone,
	ViewOrders:        everyone,
	ViewAllListings:   staff,
	ModerateListings:  staff,
	EditAnyListing:    superAdmin,
	DeleteAnyListing:  superAdmin,
	ViewAllUsers:      superAdmin,
	CreateUser:        superAdmin,
	EditAnyUser:       superAdmin,
	DeleteUser:        superAdmin,
	ChangeUserRole:    superAdmin,
	ViewActivityLogs:  superAdmin,
	ManageSite:        superAdmin,
	ManageCategories:  superAdmin,
	ManageHeroSlides:  superAdmin,
	ManageMovingHead:  superAdmin,
	ManageFooter:      superAdmin,
	ManageLogo:        superAdmin,
	ManageCTA:         superAdmin,
	ManageCallCenters: superAdmin,
	ManageFiltration:  superAdmin,
}

// AllowedRole returns true if role is in the list of allowed roles for the permission.
func AllowedRole(permission, role string) bool {
	roles, ok := PermissionRoles[permission]
	if !ok {
		return false
	}
	role = strings.ToLower(role)
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// CanEditListing: owners may edit their own listings, super admins any listing.
func CanEditListing(role, actorID, ownerID string) bool {
	if AllowedRole(EditAnyListing, role) {
		return true
	}
	return actorID != "" && actorID == ownerID && AllowedRole(EditOwnListing, role)
}

// CanDeleteListing: owners may delete their own listings, super admins any listing.
func CanDeleteListing(role, actorID, ownerID string) bool {
	if AllowedRole(DeleteAnyListing, role) {
		return true
	}
	return actorID != "" && actorID == ownerID && AllowedRole(DeleteOwnListing, role)
}
