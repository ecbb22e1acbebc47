package gateway

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"
)

// extractTextFromMessage pulls the text content out of an email message.
// For multipart messages it prefers text/plain parts; for everything else it
// returns the raw body.
func extractTextFromMessage(msg *mail.Message) (string, error) {
	contentType := msg.Header.Get("Content-Type")

	if !strings.Contains(strings.ToLower(contentType), "multipart/") {
		body, err := io.ReadAll(msg.Body)
		if err != nil {
			return "", err
		}
		return string(body), nil
	}

	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		body, readErr := io.ReadAll(msg.Body)
		if readErr != nil {
			return "", readErr
		}
		return string(body), nil
	}

	boundary := params["boundary"]
	if boundary == "" {
		body, err := io.ReadAll(msg.Body)
		if err != nil {
			return "", err
		}
		return string(body), nil
	}

	var textParts []string
	reader := multipart.NewReader(msg.Body, boundary)
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		partType := part.Header.Get("Content-Type")
		if partType == "" || strings.Contains(strings.ToLower(partType), "text/plain") {
			content, err := io.ReadAll(part)
			if err == nil {
				textParts = append(textParts, string(content))
			}
		}
	}

	if len(textParts) == 0 {
		return "", nil
	}
	return strings.Join(textParts, "\n"), nil
}

// decodeEncodedHeader decodes RFC 2047 encoded-word headers
func decodeEncodedHeader(header string) (string, error) {
	if !strings.Contains(header, "=?") {
		return header, nil
	}
	decoder := mime.WordDecoder{}
	return decoder.DecodeHeader(header)
}

// splitHeaderBody splits a raw RFC 5322 message into its header block and body
func splitHeaderBody(raw []byte) (header, body []byte) {
	if idx := bytes.Index(raw, []byte("\r\n\r\n")); idx >= 0 {
		return raw[:idx+2], raw[idx+4:]
	}
	if idx := bytes.Index(raw, []byte("\n\n")); idx >= 0 {
		return raw[:idx+1], raw[idx+2:]
	}
	return raw, nil
}
