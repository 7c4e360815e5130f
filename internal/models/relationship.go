package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PairKey builds the deterministic document key for an ordered user pair.
// One key per ordered pair is what keeps "at most one edge / one request
// per pair" enforceable by the primary key alone.
func PairKey(first, second uuid.UUID) string {
	return first.String() + "_" + second.String()
}

// FollowEdge is an active follow relationship. The row's existence is the
// sole source of truth for "follower follows following".
type FollowEdge struct {
	PairKey     string    `json:"pair_key" gorm:"primaryKey;type:varchar(73)"`
	FollowerID  uuid.UUID `json:"follower_id" gorm:"type:uuid;not null;index:idx_follows_follower"`
	FollowingID uuid.UUID `json:"following_id" gorm:"type:uuid;not null;index:idx_follows_following"`
	CreatedAt   time.Time `json:"created_at" gorm:"index"`
}

type FollowRequestStatus string

const (
	RequestPending  FollowRequestStatus = "pending"
	RequestAccepted FollowRequestStatus = "accepted"
	RequestDeclined FollowRequestStatus = "declined"
	RequestCanceled FollowRequestStatus = "canceled"
)

// FollowRequest is a solicitation to follow. At most one row per ordered
// pair ever exists; transitions overwrite the status in place, and a fresh
// request after a decline resets the same row back to pending.
type FollowRequest struct {
	PairKey   string              `json:"pair_key" gorm:"primaryKey;type:varchar(73)"`
	FromUID   uuid.UUID           `json:"from_uid" gorm:"type:uuid;not null;index:idx_requests_from"`
	ToUID     uuid.UUID           `json:"to_uid" gorm:"type:uuid;not null;index:idx_requests_to"`
	Status    FollowRequestStatus `json:"status" gorm:"type:varchar(16);not null;default:'pending'"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

type InboxItemStatus string

const (
	InboxUnread InboxItemStatus = "unread"
	InboxRead   InboxItemStatus = "read"
)

const InboxTypeFollowRequest = "follow_request"

// InboxItem is a per-recipient notification of a pending follow request.
// An unread item must always reference a pending request; the workflow
// resolves or removes it in the same transaction as the request transition.
type InboxItem struct {
	ID          uuid.UUID       `json:"id" gorm:"type:uuid;primary_key"`
	UserID      uuid.UUID       `json:"user_id" gorm:"type:uuid;not null;index:idx_inbox_user"`
	Type        string          `json:"type" gorm:"type:varchar(32);not null"`
	ReferenceID string          `json:"reference_id" gorm:"type:varchar(73);not null;index:idx_inbox_reference"`
	FromUID     uuid.UUID       `json:"from_uid" gorm:"type:uuid;not null"`
	Status      InboxItemStatus `json:"status" gorm:"type:varchar(16);not null;default:'unread'"`
	CreatedAt   time.Time       `json:"created_at" gorm:"index"`
}

func (i *InboxItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (FollowEdge) TableName() string {
	return "follows"
}

func (FollowRequest) TableName() string {
	return "follow_requests"
}

func (InboxItem) TableName() string {
	return "inbox_items"
}
