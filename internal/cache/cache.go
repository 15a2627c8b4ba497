// Package cache persists parsed messages on disk so repeat triage of the
// same log skips segmentation. Entries are keyed by the SHA-256 of the
// file content plus the interpreter name, so any edit to the log or a
// different interpreter misses cleanly.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"fortio.org/safecast"
	"github.com/vmihailenco/msgpack/v5"

	"kerf/internal/message"
)

// Bump when the payload format changes; stale schemas read as misses.
const schemaVersion uint16 = 1

type Cache struct {
	dir string
}

// Open initializes the cache under $XDG_CACHE_HOME/<app> (or
// ~/.cache/<app>).
func Open(app string) (*Cache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, app)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir}, nil
}

// OpenAt initializes the cache at an explicit directory.
func OpenAt(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir}, nil
}

type payload struct {
	Schema      uint16
	Interpreter string
	Messages    []record
}

type record struct {
	StartLine int32
	EndLine   int32
	RawText   string
	Content   string
	Severity  string
	ID        string
	Category  string
	RefPath   string
	RefLine   int32
	Metadata  map[string]string
}

// Key hashes the log file content together with the interpreter name.
func Key(path, interpreter string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	h.Write([]byte{0})
	h.Write([]byte(interpreter))
	return hex.EncodeToString(h.Sum(nil)), nil
}

func (c *Cache) pathFor(key string) string {
	// "logs" subdir keeps the cache root readable and easy to clear.
	return filepath.Join(c.dir, "logs", key+".mp")
}

// Get returns the cached messages for key, or ok=false on any miss,
// schema mismatch or decode problem. Cache trouble is never fatal.
func (c *Cache) Get(key string) ([]message.Message, bool) {
	if c == nil {
		return nil, false
	}
	data, err := os.ReadFile(c.pathFor(key))
	if err != nil {
		return nil, false
	}
	var p payload
	if err := msgpack.Unmarshal(data, &p); err != nil || p.Schema != schemaVersion {
		return nil, false
	}

	msgs := make([]message.Message, 0, len(p.Messages))
	for _, r := range p.Messages {
		m := message.Message{
			StartLine: int(r.StartLine),
			EndLine:   int(r.EndLine),
			RawText:   r.RawText,
			Content:   r.Content,
			Severity:  r.Severity,
			ID:        r.ID,
			Category:  r.Category,
			Metadata:  r.Metadata,
		}
		if r.RefPath != "" {
			m.FileRef = &message.FileRef{Path: r.RefPath, Line: int(r.RefLine)}
		}
		msgs = append(msgs, m)
	}
	return msgs, true
}

// Put serializes msgs under key, writing through a temp file so readers
// never observe a partial entry.
func (c *Cache) Put(key, interpreter string, msgs []message.Message) error {
	if c == nil {
		return nil
	}
	p := payload{Schema: schemaVersion, Interpreter: interpreter}
	for i := range msgs {
		r, err := toRecord(&msgs[i])
		if err != nil {
			return err
		}
		p.Messages = append(p.Messages, r)
	}
	data, err := msgpack.Marshal(&p)
	if err != nil {
		return fmt.Errorf("encode cache payload: %w", err)
	}

	dst := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		tmp.Close()
		if _, statErr := os.Stat(tmp.Name()); !errors.Is(statErr, fs.ErrNotExist) {
			os.Remove(tmp.Name())
		}
	}()
	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}

func toRecord(m *message.Message) (record, error) {
	start, err := safecast.Conv[int32](m.StartLine)
	if err != nil {
		return record{}, fmt.Errorf("start line %d: %w", m.StartLine, err)
	}
	end, err := safecast.Conv[int32](m.EndLine)
	if err != nil {
		return record{}, fmt.Errorf("end line %d: %w", m.EndLine, err)
	}
	r := record{
		StartLine: start,
		EndLine:   end,
		RawText:   m.RawText,
		Content:   m.Content,
		Severity:  m.Severity,
		ID:        m.ID,
		Category:  m.Category,
		Metadata:  m.Metadata,
	}
	if m.FileRef != nil {
		line, err := safecast.Conv[int32](m.FileRef.Line)
		if err != nil {
			return record{}, fmt.Errorf("file ref line %d: %w", m.FileRef.Line, err)
		}
		r.RefPath = m.FileRef.Path
		r.RefLine = line
	}
	return r, nil
}
