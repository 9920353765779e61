// Package uaid parses the compound agent identifier used as the
// canonical join key across the registry tables.
//
// The accepted shape is an optional "uaid:" prefix, a colon-separated
// body embedding an 0x account address, and an optional ";"-delimited
// suffix carrying the target chain id, e.g.
//
//	uaid:1:0xAbC123...;11155111
package uaid

import (
	"strconv"
	"strings"
)

type UAID struct {
	ChainID      int64
	AgentAccount string
}

const prefix = "uaid:"

// Parse extracts the chain id and account address from s. It returns
// (nil, false) for absent or malformed input; many callers probe
// optimistically, so a missing UAID is a normal outcome and Parse never
// panics or errors.
func Parse(s string) (*UAID, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	if strings.HasPrefix(strings.ToLower(s), prefix) {
		s = s[len(prefix):]
	}

	body := s
	var suffix string
	if i := strings.IndexByte(s, ';'); i >= 0 {
		body = s[:i]
		suffix = s[i+1:]
	}

	var account string
	var bodyChain int64 = -1
	for _, seg := range strings.Split(body, ":") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		if account == "" && isHexAccount(seg) {
			account = strings.ToLower(seg)
			continue
		}
		if bodyChain < 0 {
			if n, err := strconv.ParseInt(seg, 10, 64); err == nil && n > 0 {
				bodyChain = n
			}
		}
	}
	if account == "" {
		return nil, false
	}

	chainID := bodyChain
	for _, seg := range strings.Split(suffix, ";") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		if n, err := strconv.ParseInt(seg, 10, 64); err == nil && n > 0 {
			chainID = n
			break
		}
	}
	if chainID <= 0 {
		return nil, false
	}

	return &UAID{ChainID: chainID, AgentAccount: account}, true
}

// Canonical lower-cases the account portion and strips the optional
// prefix so differently-encoded identities compare equal. Input that
// does not parse is returned trimmed and lower-cased as-is.
func Canonical(s string) string {
	id, ok := Parse(s)
	if !ok {
		return strings.ToLower(strings.TrimSpace(s))
	}
	return id.String()
}

// Equal reports whether two encodings name the same identity.
func Equal(a, b string) bool {
	return Canonical(a) == Canonical(b)
}

func (u *UAID) String() string {
	if u == nil {
		return ""
	}
	return strconv.FormatInt(u.ChainID, 10) + ":" + u.AgentAccount
}

func isHexAccount(s string) bool {
	if !strings.HasPrefix(strings.ToLower(s), "0x") {
		return false
	}
	if len(s) <= 2 {
		return false
	}
	for _, r := range s[2:] {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
