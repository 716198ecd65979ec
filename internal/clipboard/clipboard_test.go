package clipboard

import (
	"errors"
	"testing"
)

func TestAvailableNoUtilities(t *testing.T) {
	orig := lookPath
	defer func() { lookPath = orig }()
	lookPath = func(string) (string, error) {
		return "", errors.New("not found")
	}

	if Available() {
		t.Error("Available() = true with no clipboard utilities on PATH")
	}
	if err := Copy("x"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Copy() error = %v, want ErrUnavailable", err)
	}
}

func TestCopyRoundTrip(t *testing.T) {
	if !Available() {
		t.Skip("no clipboard utility on this system")
	}
	if err := Copy("test clipboard content"); err != nil {
		t.Fatalf("Copy: %v", err)
	}
}
