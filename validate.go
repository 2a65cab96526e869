package mdlex

import "unicode/utf8"

const (
	minBinarySample = 64
	maxControlPct   = 2
)

// ValidateInput returns an error if the input is not valid UTF-8 or appears binary.
// Lex itself only rejects invalid UTF-8; the binary heuristic is for tools that
// read arbitrary files.
func ValidateInput(src []byte) error {
	if err := checkUTF8(string(src)); err != nil {
		return err
	}
	var total, control int
	for _, b := range src {
		total++
		if b == 0x00 {
			return ErrBinaryInput
		}
		if isControlByte(b) {
			control++
		}
	}
	if total >= minBinarySample && control*100 >= total*maxControlPct {
		return ErrBinaryInput
	}
	return nil
}

func checkUTF8(s string) error {
	if utf8.ValidString(s) {
		return nil
	}
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			return &EncodingError{Offset: i}
		}
		i += size
	}
	return &EncodingError{Offset: len(s)}
}

func isControlByte(b byte) bool {
	if b < 0x09 {
		return true
	}
	if b > 0x0D && b < 0x20 {
		return true
	}
	if b == 0x7F {
		return true
	}
	return false
}
