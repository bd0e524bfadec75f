package user

import (
	"encoding/json"
	"time"

	"github.com/pratik-mahalle/adminservice/internal/pkg/query"
)

// User is an account row from auth.users. The password hash is never read.
type User struct {
	ID               string          `json:"id"`
	Username         *string         `json:"username"`
	Email            string          `json:"email"`
	UserType         string          `json:"user_type"`
	IsActive         bool            `json:"is_active"`
	TokenBalance     int64           `json:"token_balance"`
	LastLogin        *time.Time      `json:"last_login"`
	FirebaseUID      *string         `json:"firebase_uid,omitempty"`
	AuthProvider     string          `json:"auth_provider"`
	ProviderData     json.RawMessage `json:"provider_data,omitempty"`
	LastFirebaseSync *time.Time      `json:"last_firebase_sync,omitempty"`
	FederationStatus *string         `json:"federation_status"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	Profile          *Profile        `json:"profile"`
}

// Profile is the optional auth.user_profiles row of a user.
type Profile struct {
	UserID      string         `json:"user_id"`
	FullName    *string        `json:"full_name"`
	DateOfBirth *string        `json:"date_of_birth"`
	Gender      *string        `json:"gender"`
	SchoolID    *int64         `json:"school_id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	School      *SchoolSummary `json:"school"`
}

// SchoolSummary is the school embedded in a profile.
type SchoolSummary struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	City     *string `json:"city"`
	Province *string `json:"province"`
}

// Summary is the user shape embedded in jobs and conversations.
type Summary struct {
	ID       string  `json:"id"`
	Email    string  `json:"email"`
	Username *string `json:"username"`
}

// User types
const (
	TypeUser       = "user"
	TypeAdmin      = "admin"
	TypeSuperadmin = "superadmin"
)

// Types lists every accepted user type.
var Types = []string{TypeUser, TypeAdmin, TypeSuperadmin}

// Activity types written when admins change a user
const (
	ActivityUserUpdate     = "USER_UPDATE"
	ActivityTokenUpdate    = "TOKEN_UPDATE"
	ActivityTokenRefund    = "TOKEN_REFUND"
	ActivityTokenDeduction = "TOKEN_DEDUCTION"
)

// TokenActivityTypes are the activity types shown in token history.
var TokenActivityTypes = []string{ActivityTokenUpdate, ActivityTokenRefund, ActivityTokenDeduction}

// TokenHistoryLimit is the number of history rows returned with a balance.
const TokenHistoryLimit = 50

// RecentLimit is the number of recent jobs and conversations in a detail view.
const RecentLimit = 5

// Filter holds the typed list filters for users.
type Filter struct {
	Search       string
	UserType     string
	IsActive     *bool
	AuthProvider string
	SchoolID     *int64
}

// Apply adds the filter's predicates to w. Columns are qualified with the
// u (users) and p (profiles) aliases used by the repository.
func (f Filter) Apply(w *query.Where) {
	w.Contains(f.Search, "u.email", "u.username")
	w.Eq("u.user_type", f.UserType)
	w.Eq("u.is_active", f.IsActive)
	w.Eq("u.auth_provider", f.AuthProvider)
	w.Eq("p.school_id", f.SchoolID)
}

// ListSpec describes the sortable columns of the user list.
var ListSpec = query.Spec{
	DefaultLimit: 20,
	DefaultSort:  "created_at",
	SortFields: map[string]string{
		"created_at":    "u.created_at",
		"updated_at":    "u.updated_at",
		"email":         "u.email",
		"username":      "u.username",
		"last_login":    "u.last_login",
		"token_balance": "u.token_balance",
	},
}

// Update holds the admin-editable account fields. Nil fields are left alone.
type Update struct {
	Username         *string        `json:"username,omitempty" validate:"omitempty,min=1,max=100"`
	IsActive         *bool          `json:"is_active,omitempty"`
	UserType         *string        `json:"user_type,omitempty" validate:"omitempty,user_type"`
	FederationStatus *string        `json:"federation_status,omitempty" validate:"omitempty,max=50"`
	Profile          *ProfileUpdate `json:"profile,omitempty"`
}

// ProfileUpdate holds the admin-editable profile fields.
type ProfileUpdate struct {
	FullName    *string `json:"full_name,omitempty" validate:"omitempty,max=200"`
	DateOfBirth *string `json:"date_of_birth,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Gender      *string `json:"gender,omitempty" validate:"omitempty,max=20"`
	SchoolID    *int64  `json:"school_id,omitempty" validate:"omitempty,gt=0"`
}

// Empty reports whether the update changes nothing on the user row.
func (u Update) Empty() bool {
	return u.Username == nil && u.IsActive == nil && u.UserType == nil && u.FederationStatus == nil
}

// Empty reports whether the profile update changes nothing.
func (p *ProfileUpdate) Empty() bool {
	return p == nil || (p.FullName == nil && p.DateOfBirth == nil && p.Gender == nil && p.SchoolID == nil)
}

// TokenAdjustment is the result of changing a token balance.
type TokenAdjustment struct {
	UserID     string `json:"userId"`
	Email      string `json:"email"`
	OldBalance int64  `json:"oldBalance"`
	NewBalance int64  `json:"newBalance"`
	Amount     int64  `json:"amount"`
}
