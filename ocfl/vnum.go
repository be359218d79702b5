package ocfl

import (
	"encoding"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
)

var (
	ErrVNumInvalid = errors.New("invalid version number")
	ErrVNumPadding = errors.New("inconsistent version padding in version sequence")
	ErrVNumMissing = errors.New("missing version in version sequence")
	ErrVNumsEmpty  = errors.New("no versions found")

	// Head is the zero-value VNum, used by some functions to mean "the
	// most recent version".
	Head = VNum{}
)

// VNum is an OCFL version number, e.g. "v1" or "v02". It carries a sequence
// number (1, 2, 3, ...) and a padding width. Padding is the fixed digit
// count version numbers in the sequence are zero-padded to; zero means no
// padding. Padding constrains the maximum sequence number a VNum can hold.
type VNum struct {
	num     int
	padding int
}

// V builds a VNum from a sequence number and an optional padding. With no
// arguments it returns the zero-value VNum (Head).
func V(ns ...int) VNum {
	switch len(ns) {
	case 0:
		return VNum{}
	case 1:
		return VNum{num: ns[0]}
	default:
		return VNum{num: ns[0], padding: ns[1]}
	}
}

// ParseVNum parses v (e.g. "v3", "v0003") into *vn.
func ParseVNum(v string, vn *VNum) error {
	var n, p int
	var nonzero bool
	if len(v) < 2 {
		return fmt.Errorf("%s: %w", v, ErrVNumInvalid)
	}
	if v[0] != 'v' {
		return fmt.Errorf("%s: %w", v, ErrVNumInvalid)
	}
	if v[1] == '0' {
		p = len(v) - 1
	}
	for i := 1; i < len(v); i++ {
		if v[i] < '0' || v[i] > '9' {
			return fmt.Errorf("%s: %w", v, ErrVNumInvalid)
		}
		if v[i] != '0' {
			nonzero = true
		}
	}
	if !nonzero {
		return fmt.Errorf("%s: %w", v, ErrVNumInvalid)
	}
	num, err := strconv.Atoi(v[1:])
	if err != nil {
		return fmt.Errorf("%s: %w", v, ErrVNumInvalid)
	}
	n = num
	vn.num = n
	vn.padding = p
	return nil
}

// MustParseVNum parses str and panics if it is not a valid VNum.
func MustParseVNum(str string) VNum {
	v := VNum{}
	if err := ParseVNum(str, &v); err != nil {
		panic(err)
	}
	return v
}

// Num returns v's sequence number.
func (v VNum) Num() int { return v.num }

// Padding returns v's padding width.
func (v VNum) Padding() int { return v.padding }

// IsZero reports whether v is the zero value (Head).
func (v VNum) IsZero() bool { return v == Head }

// First reports whether v is version 1.
func (v VNum) First() bool { return v.num == 1 }

// Next returns the VNum after v with the same padding. It errors if
// incrementing would overflow the padding width.
func (v VNum) Next() (VNum, error) {
	next := VNum{num: v.num + 1, padding: v.padding}
	if next.paddingOverflow() {
		return VNum{}, fmt.Errorf("next version: padding overflow: %w", ErrVNumInvalid)
	}
	return next, nil
}

// Prev returns the VNum before v with the same padding. It errors if
// v is version 1.
func (v VNum) Prev() (VNum, error) {
	if v.num == 1 {
		return Head, errors.New("version 1 has no previous version")
	}
	return VNum{num: v.num - 1, padding: v.padding}, nil
}

// String renders v in OCFL form, e.g. "v1" or "v002".
func (v VNum) String() string {
	format := fmt.Sprintf("v%%0%dd", v.padding)
	return fmt.Sprintf(format, v.num)
}

// Valid reports whether v has a positive sequence number with no padding
// overflow.
func (v VNum) Valid() error {
	if v.num <= 0 || v.paddingOverflow() {
		return fmt.Errorf("%w: num=%d, padding=%d", ErrVNumInvalid, v.num, v.padding)
	}
	return nil
}

func (v VNum) paddingOverflow() bool {
	return v.padding > 0 && v.num >= int(math.Pow10(v.padding-1))
}

// Lineage returns the VNums 1..v, all sharing v's padding, with v as head.
func (v VNum) Lineage() VNums {
	if v.num == 0 {
		return VNums{}
	}
	nums := make(VNums, v.num)
	for i := 0; i < v.num; i++ {
		nums[i] = VNum{num: i + 1, padding: v.padding}
	}
	return nums
}

var (
	_ encoding.TextUnmarshaler = (*VNum)(nil)
	_ encoding.TextMarshaler   = (*VNum)(nil)
)

func (v *VNum) UnmarshalText(text []byte) error {
	return ParseVNum(string(text), v)
}

func (v VNum) MarshalText() ([]byte, error) {
	if err := v.Valid(); err != nil {
		return nil, err
	}
	return []byte(v.String()), nil
}

// VNums is a sequence of version numbers.
type VNums []VNum

// Valid reports whether vs is non-empty, forms a contiguous 1..n sequence
// once sorted, and shares consistent, non-overflowing padding.
func (vs VNums) Valid() error {
	if len(vs) == 0 {
		return ErrVNumsEmpty
	}
	if !sort.IsSorted(vs) {
		sort.Sort(vs)
	}
	padding := vs[0].padding
	for i := range vs {
		if vs[i].num != i+1 {
			return fmt.Errorf("%w: %s", ErrVNumMissing, V(i+1, padding))
		}
		if vs[i].padding != padding {
			return ErrVNumPadding
		}
	}
	return vs.Head().Valid()
}

// Head returns the last (highest) VNum in vs.
func (vs VNums) Head() VNum {
	if len(vs) > 0 {
		return vs[len(vs)-1]
	}
	return VNum{}
}

// Padding returns the shared padding width of the VNums in vs.
func (vs VNums) Padding() int {
	if len(vs) > 0 {
		return vs[0].Padding()
	}
	return 0
}

var _ sort.Interface = (*VNums)(nil)

func (vs VNums) Len() int           { return len(vs) }
func (vs VNums) Less(i, j int) bool { return vs[i].num < vs[j].num }
func (vs VNums) Swap(i, j int)      { vs[i], vs[j] = vs[j], vs[i] }
