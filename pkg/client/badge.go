package client

import "strconv"

// badgeCap is the largest unread count the badge shows as a number.
const badgeCap = 9

// Badge renders the unread counter: nothing at zero, the count up to 9,
// "9+" above that.
func Badge(unread int) string {
	switch {
	case unread <= 0:
		return ""
	case unread <= badgeCap:
		return strconv.Itoa(unread)
	default:
		return "9+"
	}
}
