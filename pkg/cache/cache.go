// Package cache memoizes formatter invocations keyed on the formatter
// executable's identity, the option values that affect its behavior and the
// dependency files it reads, so a run that revisits a previously tried
// style never re-executes the subprocess (spec §4.2). It is grounded on the
// Python original's SqliteKeyValueStore/DedupKeyValueStore split, collapsed
// here into one generic wrapper over either storage Backend.
package cache

import (
	"bytes"
	"compress/zlib"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
)

// Cache deduplicates values by content: Put stores the value once under its
// content hash and records only a pointer from the caller's key to that
// hash, so two different searches that land on the same formatter output
// share storage.
type Cache struct {
	backend Backend
}

// New wraps a raw Backend with content-addressed deduplication.
func New(backend Backend) *Cache {
	return &Cache{backend: backend}
}

const (
	keyPrefix     = "k:"
	contentPrefix = "c:"
)

// Get returns the value stored for key, and false if absent.
func (c *Cache) Get(key string) ([]byte, bool, error) {
	pointer, err := c.backend.Get(keyPrefix + key)
	if err != nil {
		if err == ErrNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}

	contentHash := string(pointer)
	compressed, err := c.backend.Get(contentPrefix + contentHash)
	if err != nil {
		if err == ErrNotFound {
			// The key pointer survived but its content did not; treat as a
			// miss rather than surfacing a confusing internal error.
			return nil, false, nil
		}
		return nil, false, err
	}

	value, err := decompress(compressed)
	if err != nil {
		return nil, false, fmt.Errorf("cache: decompressing value for key %q: %w", key, err)
	}
	return value, true, nil
}

// MGet looks up many keys at once, returning a slice the same length as
// keys with a nil entry for every miss.
func (c *Cache) MGet(keys []string) ([][]byte, error) {
	out := make([][]byte, len(keys))
	for i, k := range keys {
		v, ok, err := c.Get(k)
		if err != nil {
			return nil, err
		}
		if ok {
			out[i] = v
		}
	}
	return out, nil
}

// Put stores value under key, deduplicating against any identical content
// already present under a different key.
func (c *Cache) Put(key string, value []byte) error {
	contentHash := contentDigest(value)

	// Only compress and write the content blob if it is not already there;
	// re-putting under a second key is then just one small pointer write.
	if _, err := c.backend.Get(contentPrefix + contentHash); err == ErrNotFound {
		compressed, cerr := compress(value)
		if cerr != nil {
			return fmt.Errorf("cache: compressing value: %w", cerr)
		}
		if err := c.backend.Put(contentPrefix+contentHash, compressed); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	return c.backend.Put(keyPrefix+key, []byte(contentHash))
}

func (c *Cache) Close() error { return c.backend.Close() }

func (c *Cache) DropAll() error { return c.backend.DropAll() }

func contentDigest(value []byte) string {
	sum := sha256.Sum256(value)
	return hex.EncodeToString(sum[:])
}

func compress(value []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(value); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(compressed []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// PackResult serializes a subprocess outcome (exit code, stdout, stderr)
// into the byte string stored under a cache key: a small binary header
// giving the exit code and the length of each stream, followed by the two
// streams concatenated, so UnpackResult never has to guess where stdout
// ends and stderr begins.
func PackResult(exitCode int, stdout, stderr []byte) []byte {
	header := make([]byte, 4+8+8)
	binary.BigEndian.PutUint32(header[0:4], uint32(int32(exitCode)))
	binary.BigEndian.PutUint64(header[4:12], uint64(len(stdout)))
	binary.BigEndian.PutUint64(header[12:20], uint64(len(stderr)))

	packed := make([]byte, 0, len(header)+len(stdout)+len(stderr))
	packed = append(packed, header...)
	packed = append(packed, stdout...)
	packed = append(packed, stderr...)
	return packed
}

// UnpackResult is the inverse of PackResult. It returns an error if the
// recorded stream lengths do not account for the full remaining payload,
// which would indicate a truncated or corrupted cache entry.
func UnpackResult(packed []byte) (exitCode int, stdout, stderr []byte, err error) {
	const headerLen = 4 + 8 + 8
	if len(packed) < headerLen {
		return 0, nil, nil, fmt.Errorf("cache: packed result too short: %d bytes", len(packed))
	}

	exitCode = int(int32(binary.BigEndian.Uint32(packed[0:4])))
	stdoutLen := binary.BigEndian.Uint64(packed[4:12])
	stderrLen := binary.BigEndian.Uint64(packed[12:20])

	body := packed[headerLen:]
	if uint64(len(body)) != stdoutLen+stderrLen {
		return 0, nil, nil, fmt.Errorf("cache: packed result length mismatch: header declares %d+%d bytes, body has %d",
			stdoutLen, stderrLen, len(body))
	}

	stdout = body[:stdoutLen]
	stderr = body[stdoutLen:]
	return exitCode, stdout, stderr, nil
}
