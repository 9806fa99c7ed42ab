package models

const (
	TypeFollow  = "follow"
	TypeLike    = "like"
	TypeRepost  = "repost"
	TypeComment = "comment"
	TypeMention = "mention"
)

// Notification is a fan-out record. Rows are only ever written inside the
// atomic batch of the action that caused them; there is no standalone
// create path.
type Notification struct {
	ID          string `redis:"id" json:"id"`
	Type        string `redis:"type" json:"type"`
	SenderID    string `redis:"sender_id" json:"senderId"`
	RecipientID string `redis:"recipient_id" json:"recipientId"`
	PostID      string `redis:"post_id" json:"postId,omitempty"`
	Content     string `redis:"content" json:"content,omitempty"`
	Read        bool   `redis:"read" json:"read"`
	CreatedAt   int64  `redis:"created_at" json:"createdAt"`
}

// Sender is the hydrated sender snapshot attached to list responses.
type Sender struct {
	ID               string `json:"id"`
	Username         string `json:"username"`
	DisplayName      string `json:"displayName"`
	PhotoURL         string `json:"photoURL"`
	IsVerified       bool   `json:"isVerified"`
	VerificationType string `json:"verificationType"`
}

type NotificationResponse struct {
	*Notification
	Sender *Sender `json:"sender,omitempty"`
}
