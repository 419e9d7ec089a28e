package domain

import "errors"

// ErrMemberExists is matched by errors from a member create that lost a race
// with another create for the same address.
var ErrMemberExists = errors.New("member already exists")
