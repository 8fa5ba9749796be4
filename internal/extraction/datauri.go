package extraction

import (
	"encoding/base64"
	"errors"
	"strings"
)

// ErrBadDataURI is returned for payloads that are neither a base64 data URI
// nor bare base64.
var ErrBadDataURI = errors.New("invalid data uri")

// DecodeDataURI splits "data:<mime>;base64,<payload>" into its MIME type and
// decoded bytes. Bare base64 is accepted with an empty MIME type, and so are
// payloads with missing padding or embedded line breaks.
func DecodeDataURI(uri string) (mimeType string, data []byte, err error) {
	payload := strings.TrimSpace(uri)
	if strings.HasPrefix(payload, "data:") {
		header, body, found := strings.Cut(payload, ",")
		if !found {
			return "", nil, ErrBadDataURI
		}
		meta := strings.TrimPrefix(header, "data:")
		if !strings.HasSuffix(meta, ";base64") {
			return "", nil, ErrBadDataURI
		}
		mimeType = strings.TrimSuffix(meta, ";base64")
		payload = body
	}
	data, err = decodeBase64(payload)
	if err != nil {
		return "", nil, ErrBadDataURI
	}
	return mimeType, data, nil
}

func decodeBase64(payload string) ([]byte, error) {
	payload = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\r', '\n':
			return -1
		}
		return r
	}, payload)
	if data, err := base64.StdEncoding.DecodeString(payload); err == nil {
		return data, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
}

// Base64Payload returns the part of a data URI after the comma, or the input
// unchanged when it carries no header.
func Base64Payload(uri string) string {
	if _, body, found := strings.Cut(uri, ","); found && strings.HasPrefix(uri, "data:") {
		return body
	}
	return uri
}
