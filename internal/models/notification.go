package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationKind identifies the moderation outcome a notification reports.
type NotificationKind string

const (
	NotificationSubmissionApproved NotificationKind = "submission_approved"
	NotificationSubmissionRejected NotificationKind = "submission_rejected"
)

// Notification is a moderation outcome delivered to a submission's author.
// It is created exactly once, in the same transaction as the status flip, and
// afterwards only its is_read flag changes until the recipient deletes it.
type Notification struct {
	ID             uuid.UUID        `json:"id"`
	RecipientID    uuid.UUID        `json:"recipient_id"`
	Kind           NotificationKind `json:"kind"`
	SubmissionKind SubmissionKind   `json:"submission_kind"`
	SubmissionID   uuid.UUID        `json:"submission_id"`
	Message        string           `json:"message"`
	IsRead         bool             `json:"is_read"`
	CreatedAt      time.Time        `json:"created_at"`
}

// Inbox is the full notification state returned to a client on every poll.
// Clients replace their local state with it wholesale; merging is never needed
// because the server always returns the complete current set.
type Inbox struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unread_count"`
}
