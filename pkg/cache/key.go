package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"sync"
)

// DepFile names a file whose content participates in a cache key: typically
// the source file under test and the reference file it is diffed against.
// Both the path and the content are hashed into the key, so a cache entry
// survives neither a rename nor an edit.
type DepFile struct {
	Path    string
	Content []byte
}

// DeriveKey computes the cache key for one formatter invocation: the
// formatter's own identity, its argv, and the content of every dependency
// file, so any change to any of the three invalidates the entry (spec
// §4.2). The digest is over an unambiguous, length-prefixed encoding of its
// inputs rather than naive concatenation, so "ab"+"c" cannot collide with
// "a"+"bc".
func DeriveKey(exe ExecutableIdentity, argv []string, deps []DepFile) string {
	h := sha256.New()

	writeField(h, []byte(exe.Digest()))
	for _, arg := range argv {
		writeField(h, []byte(arg))
	}
	for _, d := range deps {
		writeField(h, []byte(d.Path))
		writeField(h, d.Content)
	}

	return hex.EncodeToString(h.Sum(nil))
}

func writeField(h interface{ Write([]byte) (int, error) }, field []byte) {
	var lenBuf [8]byte
	n := len(field)
	for i := 0; i < 8; i++ {
		lenBuf[i] = byte(n >> (8 * i))
	}
	h.Write(lenBuf[:])
	h.Write(field)
}

// ExecutableIdentity fingerprints a formatter binary by its path, size,
// modification time and content digest, plus whatever it prints for
// --version. Two different binaries at the same path (after a rebuild or an
// upgrade) must never share a cache key.
type ExecutableIdentity struct {
	Path          string
	Size          int64
	ModTimeUnix   int64
	ContentDigest string
	Version       string

	digest     string
	digestOnce sync.Once
}

// IdentifyExecutable stats and hashes exe, and records versionOutput
// (typically the trimmed stdout of `exe --version`) alongside it. Callers
// are expected to memoize the result per process for the lifetime of one
// search run, since it is read-only and does not change mid-run.
func IdentifyExecutable(exe string, versionOutput string) (ExecutableIdentity, error) {
	info, err := os.Stat(exe)
	if err != nil {
		return ExecutableIdentity{}, fmt.Errorf("cache: stat %q: %w", exe, err)
	}

	content, err := os.ReadFile(exe)
	if err != nil {
		return ExecutableIdentity{}, fmt.Errorf("cache: reading %q: %w", exe, err)
	}
	sum := sha256.Sum256(content)

	return ExecutableIdentity{
		Path:          exe,
		Size:          info.Size(),
		ModTimeUnix:   info.ModTime().Unix(),
		ContentDigest: hex.EncodeToString(sum[:]),
		Version:       versionOutput,
	}, nil
}

// Digest returns the identity's combined fingerprint, computed once and
// cached on the struct.
func (e *ExecutableIdentity) Digest() string {
	e.digestOnce.Do(func() {
		h := sha256.New()
		writeField(h, []byte(e.Path))
		writeField(h, []byte(fmt.Sprintf("%d", e.Size)))
		writeField(h, []byte(fmt.Sprintf("%d", e.ModTimeUnix)))
		writeField(h, []byte(e.ContentDigest))
		writeField(h, []byte(e.Version))
		e.digest = hex.EncodeToString(h.Sum(nil))
	})
	return e.digest
}

// IdentityCache memoizes IdentifyExecutable per path for the controller
// process, since stat+hash of a multi-megabyte formatter binary is wasted
// work once it has already been done for the current run (spec §5:
// executable identity is controller-local, never shared across workers).
type IdentityCache struct {
	mu    sync.Mutex
	byKey map[string]ExecutableIdentity
}

func NewIdentityCache() *IdentityCache {
	return &IdentityCache{byKey: make(map[string]ExecutableIdentity)}
}

func (c *IdentityCache) Get(exe, versionOutput string) (ExecutableIdentity, error) {
	key := exe + "\x00" + versionOutput

	c.mu.Lock()
	if id, ok := c.byKey[key]; ok {
		c.mu.Unlock()
		return id, nil
	}
	c.mu.Unlock()

	id, err := IdentifyExecutable(exe, versionOutput)
	if err != nil {
		return ExecutableIdentity{}, err
	}

	c.mu.Lock()
	c.byKey[key] = id
	c.mu.Unlock()
	return id, nil
}
