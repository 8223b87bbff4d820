package fetch

import (
	"bytes"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
)

// metaCharsetScanLen is how much of the body is scanned for a
// `charset=euc-kr` meta tag when Content-Type is silent and UTF-8 decoding
// produced mojibake, per spec §4.1(d).
const metaCharsetScanLen = 1024

// decodeBody implements the encoding fallback chain from spec §4.1(d):
// honor an explicit charset on contentType; else try UTF-8; if that starts
// with the replacement character, try EUC-KR; else scan the first 1 KiB
// for a charset=euc-kr meta tag and retry; else DecodeError.
func decodeBody(body []byte, contentType string) (string, error) {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "charset=euc-kr"):
		return decodeEUCKR(body)
	case strings.Contains(ct, "charset=utf-8"):
		return decodeUTF8Strict(body)
	}

	if text, err := decodeUTF8Strict(body); err == nil && !strings.HasPrefix(text, "�") {
		return text, nil
	}

	if text, err := decodeEUCKR(body); err == nil {
		return text, nil
	}

	scanLen := len(body)
	if scanLen > metaCharsetScanLen {
		scanLen = metaCharsetScanLen
	}
	if strings.Contains(strings.ToLower(string(body[:scanLen])), "charset=euc-kr") {
		return decodeEUCKR(body)
	}

	return "", &DecodeError{Reason: "could not decode as UTF-8 or EUC-KR"}
}

func decodeUTF8Strict(body []byte) (string, error) {
	if !utf8.Valid(body) {
		return "", &DecodeError{Reason: "invalid UTF-8"}
	}
	return string(body), nil
}

func decodeEUCKR(body []byte) (string, error) {
	reader := transform.NewReader(bytes.NewReader(body), korean.EUCKR.NewDecoder())
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return "", &DecodeError{Reason: "euc-kr decode failed: " + err.Error()}
	}
	if !utf8.Valid(decoded) {
		return "", &DecodeError{Reason: "euc-kr decode produced invalid UTF-8"}
	}
	return string(decoded), nil
}
