package domain

import "strings"

const (
	personalSuffix = "@s.whatsapp.net"
	groupSuffix    = "@g.us"
)

// IsPersonalAddress reports whether addr identifies an individual account.
func IsPersonalAddress(addr string) bool {
	return strings.HasSuffix(addr, personalSuffix)
}

// IsGroupAddress reports whether addr identifies a group chat.
func IsGroupAddress(addr string) bool {
	return strings.HasSuffix(addr, groupSuffix)
}
