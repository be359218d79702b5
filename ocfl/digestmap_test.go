package ocfl_test

import (
	"reflect"
	"testing"

	"github.com/ocflgo/ocfl/ocfl"
)

var invalidPaths = []string{
	"",
	".",
	"/file1.txt",
	"../file1.txt",
	"./file.txt",
	"dir//file.txt",
	"dir/./file.txt",
	"dir/../file.txt",
}

var validMaps = map[string]ocfl.DigestMap{
	"empty":       {},
	"single file": {"abcde": {"file.txt"}},
	"multiple files": {
		"abcde1": {"file.txt", "file2.txt"},
		"abcde2": {"nested/directory/file.csv"},
	},
}

var invalidMaps = map[string]ocfl.DigestMap{
	"missing paths": {
		"abcd": {},
	},
	"duplicate path for same digest": {
		"abcd": {"file.txt", "file.txt"},
	},
	"duplicate path for separate digests": {
		"abcd1": {"file.txt"},
		"abcd2": {"file.txt"},
	},
	"directory/file conflict": {
		"abcd1": {"a/b"},
		"abcd2": {"a/b/file.txt"},
	},
	"duplicate digests, different case": {
		"abcd1": {"file1.txt"},
		"ABCD1": {"file2.txt"},
	},
}

func testMapValid(t *testing.T, desc string, digests ocfl.DigestMap, expOK bool) {
	t.Helper()
	t.Run(desc, func(t *testing.T) {
		err := digests.Valid()
		if err == nil && !expOK {
			t.Fatal("invalid map was found to be valid")
		}
		if err != nil && expOK {
			t.Fatalf("valid map was found to be invalid, with error: %s", err)
		}
	})
}

func TestDigestMapValid(t *testing.T) {
	for _, p := range invalidPaths {
		digest := ocfl.DigestMap{"abcd": {p}}
		testMapValid(t, "invalid path: "+p, digest, false)
	}
	for desc, digests := range invalidMaps {
		testMapValid(t, desc, digests, false)
	}
	for desc, digests := range validMaps {
		testMapValid(t, desc, digests, true)
	}
}

func TestMapEq(t *testing.T) {
	cases := map[string]struct {
		a, b   ocfl.DigestMap
		expect bool
	}{
		"empty maps": {expect: true},
		"same": {
			a: ocfl.DigestMap{"abc": {"1", "2", "3"}},
			b: ocfl.DigestMap{"abc": {"1", "2", "3"}}, expect: true,
		},
		"same with mixed case digests": {
			a: ocfl.DigestMap{"ABC": {"1", "2", "3"}},
			b: ocfl.DigestMap{"abc": {"1", "2", "3"}}, expect: true,
		},
		"same with different ordered paths": {
			a: ocfl.DigestMap{"abc": {"1", "2", "3"}},
			b: ocfl.DigestMap{"abc": {"1", "3", "2"}}, expect: true,
		},
		"different digests": {
			a: ocfl.DigestMap{"abc1": {"1", "2", "3"}},
			b: ocfl.DigestMap{"abc2": {"1", "2", "3"}}, expect: false,
		},
		"different paths": {
			a: ocfl.DigestMap{"abc": {"1", "2"}},
			b: ocfl.DigestMap{"abc": {"1", "2", "3"}}, expect: false,
		},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			if eq := c.a.Eq(c.b); eq != c.expect {
				t.Errorf("Eq() got=%v, want=%v", eq, c.expect)
			}
		})
	}
}

func TestDigestMapMerge(t *testing.T) {
	cases := map[string]struct {
		m1, m2      ocfl.DigestMap
		replace     bool
		resultPaths ocfl.PathMap
		isValid     bool
	}{
		"valid-empty": {
			m1: ocfl.DigestMap{}, m2: ocfl.DigestMap{},
			resultPaths: ocfl.PathMap{}, isValid: true,
		},
		"valid-m1-empty": {
			m1: ocfl.DigestMap{}, m2: ocfl.DigestMap{"abc1": {"dir/file1"}},
			resultPaths: ocfl.PathMap{"dir/file1": "abc1"}, isValid: true,
		},
		"valid-m2-empty": {
			m1: ocfl.DigestMap{"abc1": {"dir/file1"}}, m2: ocfl.DigestMap{},
			resultPaths: ocfl.PathMap{"dir/file1": "abc1"}, isValid: true,
		},
		"valid-mixed-digest": {
			m1: ocfl.DigestMap{"ABC1": {"dir/file1"}, "ABC2": {"dir/file2"}},
			m2: ocfl.DigestMap{"abc1": {"dir/file1"}},
			resultPaths: ocfl.PathMap{
				"dir/file1": "abc1",
				"dir/file2": "abc2",
			},
			isValid: true,
		},
		"valid-combine-digest": {
			m1: ocfl.DigestMap{"abc1": {"dir/file1"}},
			m2: ocfl.DigestMap{"abc1": {"dir/file2"}},
			resultPaths: ocfl.PathMap{
				"dir/file1": "abc1",
				"dir/file2": "abc1",
			},
			isValid: true,
		},
		"invalid-noreplace": {
			m1: ocfl.DigestMap{"abc1": {"dir/file"}},
			m2: ocfl.DigestMap{"abc2": {"dir/file"}},
			isValid: false,
		},
		"valid-replace": {
			m1: ocfl.DigestMap{"abc1": {"dir/file"}}, m2: ocfl.DigestMap{"abc2": {"dir/file"}},
			replace:     true,
			resultPaths: ocfl.PathMap{"dir/file": "abc2"}, isValid: true,
		},
		"invalid-conflict-existing-file": {
			m1: ocfl.DigestMap{"abc1": {"dir/file"}}, m2: ocfl.DigestMap{"abc2": {"dir/file/file"}},
			replace: true, isValid: false,
		},
		"invalid-conflict-existing-dir": {
			m1: ocfl.DigestMap{"abc1": {"dir/file"}}, m2: ocfl.DigestMap{"abc2": {"dir"}},
			replace: true, isValid: false,
		},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			result, err := c.m1.Merge(c.m2, c.replace)
			if err != nil && c.isValid {
				t.Error("Merge() returned error for valid case:", err)
			}
			if err == nil && !c.isValid {
				t.Error("Merge() returned no error for invalid case")
			}
			if c.isValid {
				got := result.PathMap()
				if !reflect.DeepEqual(got, c.resultPaths) {
					t.Errorf("Merge() got=%v, want=%v", got, c.resultPaths)
				}
			}
		})
	}
}

func TestDigestMapMutate(t *testing.T) {
	t.Run("RemovePath", func(t *testing.T) {
		out := ocfl.RemovePath("delete.txt")([]string{"delete.txt", "keep.txt"})
		if len(out) != 1 || out[0] != "keep.txt" {
			t.Error("RemovePath() didn't remove the expected file")
		}
		dm := ocfl.DigestMap{
			"abc1": {"keep.txt", "delete.txt"},
			"abc2": {"save.txt"},
		}
		dm.Mutate(ocfl.RemovePath("delete.txt"))
		if dm.DigestFor("delete.txt") != "" {
			t.Error("Mutate() with RemovePath() didn't remove the file")
		}
		if dm.DigestFor("keep.txt") == "" || dm.DigestFor("save.txt") == "" {
			t.Error("Mutate() with RemovePath() removed a file it shouldn't have")
		}
	})
	t.Run("RenamePaths directory", func(t *testing.T) {
		dm := ocfl.DigestMap{"abc1": {"olddir/a.txt", "olddir/b.txt"}}
		dm.Mutate(ocfl.RenamePaths("olddir", "newdir"))
		if dm.DigestFor("newdir/a.txt") == "" || dm.DigestFor("newdir/b.txt") == "" {
			t.Errorf("RenamePaths() did not move directory contents: %v", dm)
		}
	})
}
