package models

// SubmissionStatus is the moderation state of a user submission.
// Transitions run pending -> approved | rejected; a rejected submission may be
// resubmitted by its author, which returns it to pending.
type SubmissionStatus string

const (
	StatusPending  SubmissionStatus = "pending"
	StatusApproved SubmissionStatus = "approved"
	StatusRejected SubmissionStatus = "rejected"
)

// SubmissionKind identifies what kind of entity is under moderation.
type SubmissionKind string

const (
	KindPlaylist SubmissionKind = "playlist"
	KindReview   SubmissionKind = "review"
)

// ValidKind reports whether s names a moderatable submission kind.
func ValidKind(s string) bool {
	return s == string(KindPlaylist) || s == string(KindReview)
}
