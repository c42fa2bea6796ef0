package order

import (
	"encoding/base64"

	"github.com/skip2/go-qrcode"
)

const (
	DefaultQRSize = 256
	MaxQRSize     = 1024
)

// QRCode rend le lien de commande en PNG, pour scanner depuis un autre appareil
func QRCode(link string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultQRSize
	}
	size = min(size, MaxQRSize)
	return qrcode.Encode(link, qrcode.Medium, size)
}

// QRCodeDataURI retourne le PNG prêt à mettre dans <img src="...">
func QRCodeDataURI(link string, size int) (string, error) {
	png, err := QRCode(link, size)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
