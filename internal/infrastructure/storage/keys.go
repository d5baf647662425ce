package storage

// Persisted keys.
const (
	ListingsKey      = "mock_listings"
	MyListingsKey    = "mock_my_listings"
	InquiriesKey     = "mock_inquiries"
	OrdersKey        = "mock_orders"
	AdminUsersKey    = "mock_admin_users"
	SignupUsersKey   = "mock_users"
	ActivityLogsKey  = "mock_activity_logs"
	ProfileKey       = "user"
	SavedListingsKey = "saved_listings_v1"
	AppStateKey      = "app_state_v1"
	CategoriesKey    = "admin_categories_v1"
	ThemeKey         = "theme"
	LanguageKey      = "language"

	UseMockKey         = "use_mock"
	UseMockListingsKey = "use_mock_listings"
	UseMockUsersKey    = "use_mock_users"

	otpPrefix         = "mock_otp_"
	otpTimePrefix     = "mock_otp_time_"
	otpVerifiedPrefix = "mock_otp_verified_"
)

// Cleanup bounds.
const (
	MaxInquiries     = 100
	MaxSavedListings = 50
)

// MockCacheKeys are the collections dropped by a mock cache reset.
var MockCacheKeys = []string{OrdersKey, AdminUsersKey, InquiriesKey, ListingsKey, MyListingsKey, ActivityLogsKey}
