// Package qrcode renders the join codes shown on the lobby screen.
package qrcode

import (
	"net/url"
	"strings"

	qr "github.com/skip2/go-qrcode"
)

// DefaultSize is the edge length in pixels used when none is given.
const DefaultSize = 256

// JoinURL is the link a phone opens after scanning the code for gameID.
func JoinURL(base, gameID string) string {
	q := url.Values{"game": {gameID}}
	return strings.TrimRight(base, "/") + "/?" + q.Encode()
}

// Generate encodes content as a PNG. A size of zero or less uses DefaultSize.
func Generate(content string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultSize
	}
	return qr.Encode(content, qr.Medium, size)
}
