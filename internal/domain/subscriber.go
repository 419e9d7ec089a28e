package domain

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// MemberStatus enumerates the states a list member can be in on the remote
// platform. Only MemberSubscribed and MemberUnsubscribed are ever written by
// this system; the others may be read back.
type MemberStatus string

const (
	MemberSubscribed    MemberStatus = "subscribed"
	MemberUnsubscribed  MemberStatus = "unsubscribed"
	MemberCleaned       MemberStatus = "cleaned"
	MemberPending       MemberStatus = "pending"
	MemberTransactional MemberStatus = "transactional"
)

// Member is an email address's membership record on one list.
type Member struct {
	ID           string       `json:"id"`
	ListID       string       `json:"list_id"`
	EmailAddress string       `json:"email_address"`
	Status       MemberStatus `json:"status"`
}

// NormalizeEmail lowercases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SubscriberHash returns the member key used by the remote API: the hex MD5
// of the normalized address. Equal addresses that differ only in case map to
// the same key.
func SubscriberHash(email string) string {
	sum := md5.Sum([]byte(NormalizeEmail(email)))
	return hex.EncodeToString(sum[:])
}
