package otp

import (
	"encoding/base64"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// QRSize is the rendered image edge length in pixels.
const QRSize = 256

// QRRenderer turns provisioning URIs into scannable PNG data URIs.
type QRRenderer struct{}

// Render encodes uri as a QR code and returns it as a data:image/png URI.
func (QRRenderer) Render(uri string) (string, error) {
	png, err := qrcode.Encode(uri, qrcode.Medium, QRSize)
	if err != nil {
		return "", fmt.Errorf("rendering qr code: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
