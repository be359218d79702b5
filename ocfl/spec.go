package ocfl

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

var (
	ErrSpecInvalid = errors.New("invalid OCFL spec version")

	// verNumRegex matches OCFL specification version numbers: "1.0",
	// "2.1", "2.2-draft".
	verNumRegex = regexp.MustCompile(`^\d\.\d+(-\w+)?$`)
)

const (
	invTypePrefix = "https://ocfl.io/"
	invTypeSuffix = "/spec/#inventory"
)

// Spec is an OCFL specification version number, e.g. "1.0".
type Spec string

// Valid reports whether s is well-formed.
func (s Spec) Valid() error {
	if !verNumRegex.MatchString(string(s)) {
		return ErrSpecInvalid
	}
	return nil
}

// Empty reports whether s is the empty Spec.
func (s Spec) Empty() bool { return s == Spec("") }

func (s Spec) parse() (float64, string, error) {
	if err := s.Valid(); err != nil {
		return 0, "", err
	}
	numStr, suffix, _ := strings.Cut(string(s), "-")
	val, err := strconv.ParseFloat(numStr, 64)
	if err != nil {
		return 0, "", ErrSpecInvalid
	}
	return val, suffix, nil
}

// Cmp compares s to other: -1 if s < other, 0 if equal, 1 if s > other.
// A valid Spec is always greater than an invalid one; Cmp panics if both
// are invalid.
func (s Spec) Cmp(other Spec) int {
	f1, suf1, err1 := s.parse()
	f2, suf2, err2 := other.parse()
	if err1 != nil || err2 != nil {
		if err1 == nil {
			return 1
		}
		if err2 == nil {
			return -1
		}
		panic(errors.Join(err1, err2))
	}
	switch {
	case f1 == f2:
		// equal numerically: the one with a draft suffix sorts lower.
		if suf1 == "" && suf2 != "" {
			return 1
		}
		if suf2 == "" && suf1 != "" {
			return -1
		}
		return 0
	case f1 > f2:
		return 1
	default:
		return -1
	}
}

// InventoryType returns s as an InventoryType.
func (s Spec) InventoryType() InventoryType { return InventoryType{Spec: s} }

// InventoryType is an inventory's "type" field, e.g.
// "https://ocfl.io/1.0/spec/#inventory".
type InventoryType struct{ Spec }

func (t InventoryType) String() string {
	return invTypePrefix + string(t.Spec) + invTypeSuffix
}

func (t *InventoryType) UnmarshalText(text []byte) error {
	cut := strings.TrimPrefix(string(text), invTypePrefix)
	cut = strings.TrimSuffix(cut, invTypeSuffix)
	if err := Spec(cut).Valid(); err != nil {
		return err
	}
	t.Spec = Spec(cut)
	return nil
}

func (t InventoryType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}
