package framecache

import (
	"encoding/base64"
	"os"
)

// MIME types of cached artifacts.
const (
	MimeJPEG = "image/jpeg"
	MimeMP4  = "video/mp4"
)

// DataURL embeds data as a base64 data URI.
func DataURL(data []byte, mime string) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// FileDataURL reads path and embeds it as a data URI.
func FileDataURL(path, mime string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return DataURL(data, mime), nil
}
