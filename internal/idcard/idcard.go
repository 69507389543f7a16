// Package idcard renders the scannable part of an identity card. The QR
// payload is simply the person's id; capture stations decode it back into
// the token the scan pipeline consumes.
package idcard

import (
	"errors"

	qrcode "github.com/skip2/go-qrcode"
)

// DefaultSize is the rendered QR edge length in pixels.
const DefaultSize = 256

// QRPNG encodes a person id as a PNG QR code.
func QRPNG(personID string, size int) ([]byte, error) {
	if personID == "" {
		return nil, errors.New("idcard: person id required")
	}
	if size <= 0 {
		size = DefaultSize
	}
	return qrcode.Encode(personID, qrcode.Medium, size)
}
