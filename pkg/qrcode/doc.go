// Package qrcode renders PIX BR Codes and links as PNG QR images.
//
//	uri, err := qrcode.DataURI(brCode, 0)
//	// <img src="{{ uri }}">
//
// Size defaults to 256 pixels when zero or negative.
package qrcode
