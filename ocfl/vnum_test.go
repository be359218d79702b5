package ocfl

import "testing"

func TestParseVNum(t *testing.T) {
	for _, n := range []string{"", "v0", "v00", "v", "1", "v.10", "v3.0", "asdf"} {
		v := VNum{}
		if err := ParseVNum(n, &v); err == nil {
			t.Errorf("parsing %q did not fail as expected", n)
		}
	}
	cases := map[string][2]int{
		"v1":       {1, 0},
		"v100":     {100, 0},
		"v0000010": {10, 7},
		"v031":     {31, 3},
	}
	for in, want := range cases {
		v := VNum{}
		if err := ParseVNum(in, &v); err != nil {
			t.Fatal(err)
		}
		if v.num != want[0] || v.padding != want[1] {
			t.Errorf("%s: got num=%d padding=%d, want num=%d padding=%d", in, v.num, v.padding, want[0], want[1])
		}
	}
}

func TestVNumNextPrev(t *testing.T) {
	v1 := MustParseVNum("v01")
	v2, err := v1.Next()
	if err != nil {
		t.Fatal(err)
	}
	if v2.String() != "v02" {
		t.Errorf("got %s, want v02", v2)
	}
	back, err := v2.Prev()
	if err != nil {
		t.Fatal(err)
	}
	if back != v1 {
		t.Errorf("got %s, want %s", back, v1)
	}
	if _, err := v1.Prev(); err == nil {
		t.Error("expected error taking Prev of v01 (version 1 has no previous)")
	}
	overflow := MustParseVNum("v09")
	if _, err := overflow.Next(); err == nil {
		t.Error("expected padding overflow error")
	}
}

func TestVNumsValid(t *testing.T) {
	p := MustParseVNum
	valid := []VNums{
		{p("v1")},
		{p("v1"), p("v2"), p("v3"), p("v4"), p("v5")},
		{p("v001"), p("v002"), p("v003")},
	}
	for _, seq := range valid {
		if err := seq.Valid(); err != nil {
			t.Errorf("%v: %v", seq, err)
		}
	}
	invalid := []VNums{
		{p("v2")},
		{p("v1"), p("v3"), p("v4"), p("v5")},
		{p("v01"), p("v02"), p("v03"), p("v04"), p("v05"), p("v06"), p("v07"), p("v08"), p("v09"), p("v10")},
	}
	for _, seq := range invalid {
		if err := seq.Valid(); err == nil {
			t.Errorf("expected %v to be invalid", seq)
		}
	}
}

func TestVNumLineage(t *testing.T) {
	v3 := MustParseVNum("v003")
	lineage := v3.Lineage()
	if err := lineage.Valid(); err != nil {
		t.Fatal(err)
	}
	if lineage.Head() != v3 {
		t.Errorf("got head %s, want %s", lineage.Head(), v3)
	}
	if len(lineage) != 3 {
		t.Errorf("got %d versions, want 3", len(lineage))
	}
}
