package models

// FollowEdge is one directed follow relation. At most one live edge exists
// per ordered (follower, following) pair, and never a self-loop.
type FollowEdge struct {
	FollowerID  string `json:"followerId"`
	FollowingID string `json:"followingId"`
	CreatedAt   int64  `json:"createdAt"`
}

// ToggleResult reports the direction a toggle settled on.
type ToggleResult struct {
	Following bool `json:"following"`
}
