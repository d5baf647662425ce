package constants

const (
	CreateListing     = "create_listing"
	EditOwnListing    = "edit_own_listing"
	DeleteOwnListing  = "delete_own_listing"
	EditAnyListing    = "edit_any_listing"
	DeleteAnyListing  = "delete_any_listing"
	ViewAllListings   = "view_all_listings"
	ModerateListings  = "moderate_listings"
	ViewProfile       = "view_profile"
	EditOwnProfile    = "edit_own_profile"
	ViewAllUsers      = "view_all_users"
	CreateUser        = "create_user"
	EditAnyUser       = "edit_any_user"
	DeleteUser        = "delete_user"
	ChangeUserRole    = "change_user_role"
	AccessAdminPanel  = "access_admin_panel"
	ViewDashboard     = "view_dashboard"
	ViewActivityLogs  = "view_activity_logs"
	ManageSite        = "manage_site_settings"
	ManageCategories  = "manage_categories"
	ManageHeroSlides  = "manage_hero_slides"
	ManageMovingHead  = "manage_moving_header"
	ManageFooter      = "manage_footer"
	ManageLogo        = "manage_logo"
	ManageCTA         = "manage_cta"
	ManageCallCenters = "manage_call_centers"
	ManageFiltration  = "manage_filtration"
	SaveListings      = "save_listings"
	CreateInquiries   = "create_inquiries"
	ViewOrders        = "view_orders"
)
