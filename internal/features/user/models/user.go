package models

import "time"

const (
	StatusActive    = "active"
	StatusSuspended = "suspended"

	VerificationNone         = "none"
	VerificationIndividual   = "individual"
	VerificationOrganization = "organization"
	VerificationGovernment   = "government"

	PremiumStatusNone    = "none"
	PremiumStatusActive  = "active"
	PremiumStatusExpired = "expired"

	// Minimum interval between username changes.
	UsernameCooldown = 30 * 24 * time.Hour
)

// User is the profile document. Stored as a Redis hash so the counter
// fields can be mutated with commutative HINCRBY deltas inside the same
// atomic batch as the edge or post write that justifies them.
type User struct {
	ID          string `redis:"id" json:"id"`
	Email       string `redis:"email" json:"-"`
	Username    string `redis:"username" json:"username"`
	DisplayName string `redis:"display_name" json:"displayName"`
	Bio         string `redis:"bio" json:"bio"`
	Location    string `redis:"location" json:"location"`
	Website     string `redis:"website" json:"website"`
	PhotoURL    string `redis:"photo_url" json:"photoURL"`
	BannerURL   string `redis:"banner_url" json:"bannerURL"`

	FollowersCount int64 `redis:"followers_count" json:"followersCount"`
	FollowingCount int64 `redis:"following_count" json:"followingCount"`
	PostsCount     int64 `redis:"posts_count" json:"postsCount"`

	Status           string `redis:"status" json:"status"`
	IsVerified       bool   `redis:"is_verified" json:"isVerified"`
	VerificationType string `redis:"verification_type" json:"verificationType"`

	PremiumVerified  bool   `redis:"premium_is_verified" json:"-"`
	PremiumStatus    string `redis:"premium_status" json:"-"`
	PremiumPlan      string `redis:"premium_plan" json:"-"`
	PremiumExpiresAt int64  `redis:"premium_expires_at" json:"-"`

	// Unix millis; zero means the username was never changed.
	UsernameUpdatedAt int64 `redis:"username_updated_at" json:"usernameLastUpdatedAt,omitempty"`
	CreatedAt         int64 `redis:"created_at" json:"joinedAt"`
	UpdatedAt         int64 `redis:"updated_at" json:"-"`
}

// Premium is the nested premium block in API responses.
type Premium struct {
	IsVerified bool   `json:"isVerified"`
	Status     string `json:"status"`
	Plan       string `json:"plan,omitempty"`
	ExpiresAt  int64  `json:"expiresAt,omitempty"`
}

// UserResponse is the public profile shape.
type UserResponse struct {
	*User
	Premium Premium `json:"premium"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		User: u,
		Premium: Premium{
			IsVerified: u.PremiumVerified,
			Status:     u.PremiumStatus,
			Plan:       u.PremiumPlan,
			ExpiresAt:  u.PremiumExpiresAt,
		},
	}
}

// AuthorSnapshot is the set of author fields denormalized onto posts at
// creation time and re-propagated after profile edits.
type AuthorSnapshot struct {
	Username         string
	DisplayName      string
	PhotoURL         string
	IsVerified       bool
	VerificationType string
}

func (u *User) Snapshot() AuthorSnapshot {
	return AuthorSnapshot{
		Username:         u.Username,
		DisplayName:      u.DisplayName,
		PhotoURL:         u.PhotoURL,
		IsVerified:       u.IsVerified,
		VerificationType: u.VerificationType,
	}
}

// UpdateProfileRequest carries the editable profile fields. Nil pointers
// leave the stored value untouched.
type UpdateProfileRequest struct {
	Username    *string `json:"username"`
	DisplayName *string `json:"displayName"`
	Bio         *string `json:"bio"`
	Location    *string `json:"location"`
	Website     *string `json:"website"`
	PhotoURL    *string `json:"photoURL"`
	BannerURL   *string `json:"bannerURL"`
}
