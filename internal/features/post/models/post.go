package models

import "io"

const (
	TypePost   = "post"
	TypeRepost = "repost"
)

// Post is a post, reply or repost document. The author fields are a
// denormalized snapshot taken at creation time, not a live join; profile
// edits re-propagate them best-effort.
//
// Slice fields are kept out of the hash mapping and stored as JSON strings
// by the repository.
type Post struct {
	ID       string `redis:"id" json:"id"`
	AuthorID string `redis:"author_id" json:"userId"`

	Username         string `redis:"username" json:"username"`
	DisplayName      string `redis:"display_name" json:"displayName"`
	AuthorPhotoURL   string `redis:"author_photo_url" json:"userPhotoURL"`
	IsVerified       bool   `redis:"is_verified" json:"isVerified"`
	VerificationType string `redis:"verification_type" json:"verificationType"`

	Content  string   `redis:"content" json:"content"`
	Hashtags []string `redis:"-" json:"hashtags"`

	HasMedia  bool     `redis:"has_media" json:"hasMedia"`
	MediaURLs []string `redis:"-" json:"mediaURLs"`
	MediaKeys []string `redis:"-" json:"mediaKeys"`

	LikeCount    int64 `redis:"like_count" json:"likeCount"`
	CommentCount int64 `redis:"comment_count" json:"commentCount"`
	RepostCount  int64 `redis:"repost_count" json:"repostCount"`

	IsReply   bool   `redis:"is_reply" json:"isReply"`
	ReplyToID string `redis:"reply_to_id" json:"replyToId,omitempty"`

	Type           string `redis:"type" json:"type"`
	OriginalPostID string `redis:"original_post_id" json:"originalPostId,omitempty"`

	LinkPreviewURL string `redis:"link_preview_url" json:"linkPreviewURL,omitempty"`
	CreatedAt      int64  `redis:"created_at" json:"createdAt"`
}

// MediaFile is one attachment handed to createPost. Data is streamed to the
// media store before the post batch commits.
type MediaFile struct {
	FileName    string
	ContentType string
	Data        io.Reader
}

// CreatePostRequest is the write shape for posts and replies.
type CreatePostRequest struct {
	Content   string `json:"content"`
	ReplyToID string `json:"replyToId"`
	Media     []MediaFile
}

// Trend is one trending hashtag entry.
type Trend struct {
	Tag   string `json:"tag"`
	Count int64  `json:"count"`
}
