package encoding

import (
	"errors"
	"testing"
)

func TestToUTF8(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		charset string
		want    string
	}{
		{"ascii passthrough", []byte("Cube.001"), "", "Cube.001"},
		{"utf8 passthrough", []byte("Würfel"), "euc-kr", "Würfel"},
		{"cp1252 fallback", []byte{'W', 0xfc, 'r', 'f', 'e', 'l'}, "", "Würfel"},
		{"euc-kr", []byte{0xc7, 0xd1, 0xb1, 0xdb}, "euc-kr", "한글"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := Lookup(tt.charset)
			if err != nil {
				t.Fatalf("Lookup(%q) failed: %v", tt.charset, err)
			}
			if got := ToUTF8(tt.data, enc); got != tt.want {
				t.Errorf("ToUTF8() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLookupUnknown(t *testing.T) {
	_, err := Lookup("klingon")
	if !errors.Is(err, ErrUnknownCharset) {
		t.Errorf("expected ErrUnknownCharset, got %v", err)
	}
}

func TestLookupCaseInsensitive(t *testing.T) {
	if _, err := Lookup("EUC-KR"); err != nil {
		t.Errorf("Lookup(EUC-KR) failed: %v", err)
	}
}

func TestNames(t *testing.T) {
	names := Names()
	if len(names) != len(charsets) {
		t.Fatalf("expected %d names, got %d", len(charsets), len(names))
	}
	for i, name := range names {
		if i > 0 && names[i-1] >= name {
			t.Errorf("names not sorted: %q before %q", names[i-1], name)
		}
		if _, err := Lookup(name); err != nil {
			t.Errorf("Lookup(%q) failed: %v", name, err)
		}
	}
}
