package importer

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeLegacy returns data as UTF-8. Input that is already valid UTF-8 is
// kept; anything else is read as Windows-1252, the codepage of German and
// French bank exports.
func decodeLegacy(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return normalizeText(string(data)), nil
	}
	out, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
	if err != nil {
		return "", fmt.Errorf("decoding windows-1252: %w", err)
	}
	return normalizeText(string(out)), nil
}

// decodeUTF16 decodes UTF-16 text, honouring a byte order mark and
// defaulting to little endian.
func decodeUTF16(data []byte) (string, error) {
	dec := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
	out, _, err := transform.Bytes(dec, data)
	if err != nil {
		return "", fmt.Errorf("decoding utf-16: %w", err)
	}
	return normalizeText(string(out)), nil
}

// normalizeText converts line endings to "\n" and composes accents, so
// that "é" compares equal however the exporter spelled it.
func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return norm.NFC.String(s)
}

// hasDecodeErrors reports whether decoding left replacement characters.
func hasDecodeErrors(fields []string) bool {
	for _, f := range fields {
		if strings.ContainsRune(f, utf8.RuneError) {
			return true
		}
	}
	return false
}
