// Package digest provides the pluggable digest algorithms used to compute
// and verify OCFL content and inventory fixity.
package digest

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"strings"
	"sync"

	"golang.org/x/crypto/blake2b"
)

// Algorithm identifiers recognized by the builtin registry.
const (
	SHA512  = "sha512"
	SHA256  = "sha256"
	SHA1    = "sha1"
	MD5     = "md5"
	BLAKE2B = "blake2b-512"
)

// ErrUnknownAlg is returned when an algorithm id has no registered Digester.
var ErrUnknownAlg = errors.New("digest: unknown algorithm")

// Digester computes a digest over bytes written to it.
type Digester interface {
	io.Writer
	// String returns the lowercase hex-encoded digest of everything
	// written so far.
	String() string
}

type hashDigester struct{ hash.Hash }

func (h hashDigester) String() string { return hex.EncodeToString(h.Sum(nil)) }

func newHashDigester(h hash.Hash) Digester { return hashDigester{h} }

func mustBlake2b512() hash.Hash {
	h, err := blake2b.New512(nil)
	if err != nil {
		panic(err)
	}
	return h
}

var builtin = map[string]func() Digester{
	SHA512:  func() Digester { return newHashDigester(sha512.New()) },
	SHA256:  func() Digester { return newHashDigester(sha256.New()) },
	SHA1:    func() Digester { return newHashDigester(sha1.New()) },
	MD5:     func() Digester { return newHashDigester(md5.New()) },
	BLAKE2B: func() Digester { return newHashDigester(mustBlake2b512()) },
}

var (
	registerMx sync.RWMutex
	register   = map[string]func() Digester{}
)

// RegisterAlg registers a Digester constructor for alg. Builtin algorithm
// ids cannot be overridden; a later registration for the same alg is
// ignored.
func RegisterAlg(alg string, newDigester func() Digester) {
	if builtin[alg] != nil {
		return
	}
	registerMx.Lock()
	defer registerMx.Unlock()
	if register[alg] != nil {
		return
	}
	register[alg] = newDigester
}

// RegisteredAlgs returns all algorithm ids known to the registry.
func RegisteredAlgs() []string {
	algs := make([]string, 0, len(builtin)+len(register))
	for k := range builtin {
		algs = append(algs, k)
	}
	registerMx.RLock()
	defer registerMx.RUnlock()
	for k := range register {
		algs = append(algs, k)
	}
	return algs
}

// New returns a new Digester for alg, or ErrUnknownAlg if alg is not
// registered.
func New(alg string) (Digester, error) {
	if newDigester := builtin[alg]; newDigester != nil {
		return newDigester(), nil
	}
	registerMx.RLock()
	newDigester := register[alg]
	registerMx.RUnlock()
	if newDigester == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAlg, alg)
	}
	return newDigester(), nil
}

// Of digests r using alg, returning the lowercase hex digest.
func Of(alg string, r io.Reader) (string, error) {
	d, err := New(alg)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(d, r); err != nil {
		return "", err
	}
	return d.String(), nil
}

// Set is a collection of digests of the same content, keyed by algorithm.
type Set map[string]string

// ConflictWith returns the algorithm ids in s whose values disagree with
// the corresponding values in other. Algorithms present in only one of the
// two sets are not conflicts.
func (s Set) ConflictWith(other Set) []string {
	var keys []string
	for alg, v := range s {
		if ov, ok := other[alg]; ok && !strings.EqualFold(v, ov) {
			keys = append(keys, alg)
		}
	}
	return keys
}

// Validate reads r and confirms its digest under every algorithm in s
// matches the recorded value. It returns a *MismatchError naming the first
// algorithm that disagrees.
func (s Set) Validate(r io.Reader) error {
	digesters := make(map[string]Digester, len(s))
	writers := make([]io.Writer, 0, len(s))
	for alg := range s {
		d, err := New(alg)
		if err != nil {
			return err
		}
		digesters[alg] = d
		writers = append(writers, d)
	}
	if _, err := io.Copy(io.MultiWriter(writers...), r); err != nil {
		return err
	}
	for alg, expected := range s {
		got := digesters[alg].String()
		if !strings.EqualFold(got, expected) {
			return &MismatchError{Algorithm: alg, Expected: expected, Got: got}
		}
	}
	return nil
}

// MismatchError is returned when computed content does not match an
// expected digest.
type MismatchError struct {
	Name      string // optional: path or other identifying label
	Algorithm string
	Expected  string
	Got       string
}

func (e *MismatchError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("%s digest mismatch: expected %s, got %s", e.Algorithm, e.Expected, e.Got)
	}
	return fmt.Sprintf("%s digest mismatch for %q: expected %s, got %s", e.Algorithm, e.Name, e.Expected, e.Got)
}
