package filerepo

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/jrsteele09/farm-admin/sessions"
	"golang.org/x/crypto/nacl/secretbox"
)

var _ sessions.Repo = (*Repo)(nil)

const nonceSize = 24

var ErrUnsealFailed = errors.New("session file could not be unsealed")

// Repo persists the session values as a JSON object in a single file. When a key is
// configured the file content is sealed with NaCl secretbox.
type Repo struct {
	path string
	key  *[32]byte
	lock sync.Mutex
}

func New(path string, key *[32]byte) *Repo {
	return &Repo{path: path, key: key}
}

// ParseKey decodes a hex encoded 32 byte key. An empty string means no sealing.
func ParseKey(hexKey string) (*[32]byte, error) {
	if hexKey == "" {
		return nil, nil
	}
	raw, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("[filerepo ParseKey] decode key: %w", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("[filerepo ParseKey] key must be 32 bytes, got %d", len(raw))
	}
	var key [32]byte
	copy(key[:], raw)
	return &key, nil
}

func (r *Repo) Load() (map[string]string, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	content, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("[filerepo Load] read %s: %w", r.path, err)
	}

	if r.key != nil {
		if content, err = r.open(content); err != nil {
			return nil, err
		}
	}

	values := map[string]string{}
	if err := json.Unmarshal(content, &values); err != nil {
		return nil, fmt.Errorf("[filerepo Load] decode %s: %w", r.path, err)
	}
	return values, nil
}

func (r *Repo) Save(values map[string]string) error {
	content, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("[filerepo Save] encode: %w", err)
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	if r.key != nil {
		if content, err = r.seal(content); err != nil {
			return err
		}
	}
	return r.writeAtomic(content)
}

func (r *Repo) Clear() error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if err := os.Remove(r.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("[filerepo Clear] remove %s: %w", r.path, err)
	}
	return nil
}

// writeAtomic writes to a temp file in the same directory and renames it over the
// target, so a crash never leaves a half written session behind.
func (r *Repo) writeAtomic(content []byte) error {
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("[filerepo Save] create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("[filerepo Save] create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("[filerepo Save] write temp file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("[filerepo Save] chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("[filerepo Save] close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("[filerepo Save] rename into place: %w", err)
	}
	return nil
}

func (r *Repo) seal(plain []byte) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("[filerepo seal] generate nonce: %w", err)
	}
	return secretbox.Seal(nonce[:], plain, &nonce, r.key), nil
}

func (r *Repo) open(sealed []byte) ([]byte, error) {
	if len(sealed) < nonceSize {
		return nil, ErrUnsealFailed
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	plain, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, r.key)
	if !ok {
		return nil, ErrUnsealFailed
	}
	return plain, nil
}
