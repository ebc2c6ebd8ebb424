// Package encoding converts object names written by legacy exporters to UTF-8.
package encoding

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// DefaultCharset is used for names that are not valid UTF-8 when no charset is configured.
const DefaultCharset = "windows-1252"

// ErrUnknownCharset is returned by Lookup for unsupported charset names.
var ErrUnknownCharset = errors.New("unknown charset")

var charsets = map[string]encoding.Encoding{
	"windows-1252": charmap.Windows1252,
	"cp1252":       charmap.Windows1252,
	"latin1":       charmap.ISO8859_1,
	"iso-8859-1":   charmap.ISO8859_1,
	"euc-kr":       korean.EUCKR,
	"shift_jis":    japanese.ShiftJIS,
	"sjis":         japanese.ShiftJIS,
	"gbk":          simplifiedchinese.GBK,
}

// Lookup returns the decoder for a charset name. Names are case-insensitive.
// An empty name selects DefaultCharset.
func Lookup(name string) (encoding.Encoding, error) {
	if name == "" {
		name = DefaultCharset
	}
	enc, ok := charsets[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCharset, name)
	}
	return enc, nil
}

// Names returns the accepted charset names, sorted.
func Names() []string {
	names := make([]string, 0, len(charsets))
	for name := range charsets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ToUTF8 returns data as a UTF-8 string.
// Valid UTF-8 is returned unchanged; anything else is decoded with enc.
// Returns the original bytes as-is if decoding fails.
func ToUTF8(data []byte, enc encoding.Encoding) string {
	if utf8.Valid(data) || enc == nil {
		return string(data)
	}
	result, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return string(data)
	}
	return string(result)
}
