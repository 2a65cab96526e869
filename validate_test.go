package mdlex

import (
	"errors"
	"testing"
)

func TestValidateInputRejectsInvalidUTF8(t *testing.T) {
	data := []byte{'o', 'k', 0xff, 0xfe, 0xfd}
	err := ValidateInput(data)
	if !errors.Is(err, ErrInvalidUTF8) {
		t.Fatalf("expected ErrInvalidUTF8, got %v", err)
	}
	var encErr *EncodingError
	if !errors.As(err, &encErr) || encErr.Offset != 2 {
		t.Fatalf("expected EncodingError at offset 2, got %v", err)
	}
}

func TestValidateInputRejectsBinary(t *testing.T) {
	data := append([]byte("hello"), 0x00)
	if err := ValidateInput(data); err != ErrBinaryInput {
		t.Fatalf("expected ErrBinaryInput, got %v", err)
	}
}

func TestValidateInputAcceptsText(t *testing.T) {
	if err := ValidateInput([]byte("# Title\n\ttabbed text with ümlauts\r\n")); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestLexRejectsInvalidUTF8(t *testing.T) {
	_, err := Lex("abc\xc3")
	var encErr *EncodingError
	if !errors.As(err, &encErr) {
		t.Fatalf("expected EncodingError, got %v", err)
	}
	if encErr.Offset != 3 {
		t.Fatalf("expected offset 3, got %d", encErr.Offset)
	}
}

func TestLexAcceptsControlBytes(t *testing.T) {
	doc, err := Lex("a\x01b\n")
	if err != nil {
		t.Fatalf("lex: %v", err)
	}
	if doc.Raw() != "a\x01b\n" {
		t.Fatalf("unexpected raw %q", doc.Raw())
	}
}
