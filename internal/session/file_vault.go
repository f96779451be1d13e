package session

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/hkdf"
)

const (
	saltSize  = 16
	keySize   = 32
	vaultInfo = "feedclient-vault"
)

// sealedFile is the on-disk envelope. Values are stored as one AES-GCM sealed
// JSON object.
type sealedFile struct {
	Salt  []byte `json:"salt"`
	Nonce []byte `json:"nonce"`
	Data  []byte `json:"data"`
}

// FileVault stores credentials in a single encrypted file. A fresh salt and
// nonce are drawn on every write and the file is replaced atomically.
type FileVault struct {
	path   string
	secret []byte
	mu     sync.Mutex
}

// NewFileVault creates a FileVault at path sealed with secret
func NewFileVault(path, secret string) (*FileVault, error) {
	if path == "" {
		return nil, errors.New("vault path is required")
	}
	if secret == "" {
		return nil, errors.New("vault secret is required")
	}
	return &FileVault{path: path, secret: []byte(secret)}, nil
}

func (v *FileVault) Get(_ context.Context, name string) (string, bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	values, err := v.load()
	if err != nil {
		return "", false, err
	}
	val, ok := values[name]
	return val, ok, nil
}

func (v *FileVault) Set(_ context.Context, name, value string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	values, err := v.load()
	if err != nil {
		return err
	}
	values[name] = value
	return v.store(values)
}

func (v *FileVault) Delete(_ context.Context, name string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	values, err := v.load()
	if err != nil {
		return err
	}
	if _, ok := values[name]; !ok {
		return nil
	}
	delete(values, name)
	return v.store(values)
}

func (v *FileVault) load() (map[string]string, error) {
	raw, err := os.ReadFile(v.path)
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, err
	}
	var env sealedFile
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("vault file is corrupt: %w", err)
	}
	gcm, err := v.cipher(env.Salt)
	if err != nil {
		return nil, err
	}
	plain, err := gcm.Open(nil, env.Nonce, env.Data, []byte(vaultInfo))
	if err != nil {
		return nil, fmt.Errorf("failed to open vault: %w", err)
	}
	values := make(map[string]string)
	if err := json.Unmarshal(plain, &values); err != nil {
		return nil, fmt.Errorf("vault contents are corrupt: %w", err)
	}
	return values, nil
}

func (v *FileVault) store(values map[string]string) error {
	plain, err := json.Marshal(values)
	if err != nil {
		return err
	}
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return err
	}
	gcm, err := v.cipher(salt)
	if err != nil {
		return err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return err
	}
	raw, err := json.Marshal(sealedFile{
		Salt:  salt,
		Nonce: nonce,
		Data:  gcm.Seal(nil, nonce, plain, []byte(vaultInfo)),
	})
	if err != nil {
		return err
	}
	return writeAtomic(v.path, raw)
}

func (v *FileVault) cipher(salt []byte) (cipher.AEAD, error) {
	key := make([]byte, keySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, v.secret, salt, []byte(vaultInfo)), key); err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".vault-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
