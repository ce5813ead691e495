// Package qr encodes booking identifiers into scannable artifacts.  The
// encoded payload is exactly the booking ID string, so "decoding" a scan is
// the identity function: the scanner hands the ID straight back.
package qr

import (
	"encoding/base64"

	qrcode "github.com/skip2/go-qrcode"
)

// pixel size of the generated PNG; comfortable for phone screens and
// handheld scanners alike.
const imageSize = 256

// Encode renders data as a QR code and returns the PNG bytes encoded as a
// base64 string, ready to embed in a booking record or a data URI.
func Encode(data string) (string, error) {
	png, err := qrcode.Encode(data, qrcode.Medium, imageSize)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(png), nil
}
