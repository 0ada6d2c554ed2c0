package securefile

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/quantumauth-io/nft-checkout/internal/constants"
)

// ErrInvalidPasswordOrCorrupt is returned when a sealed file cannot be
// opened. It does not say which.
var ErrInvalidPasswordOrCorrupt = errors.New("invalid password or corrupted file")

// envelope is the on-disk form of a sealed file: Argon2id parameters plus
// an XChaCha20-Poly1305 ciphertext.
type envelope struct {
	Version int    `json:"version"`
	Time    uint32 `json:"argon_time"`
	Memory  uint32 `json:"argon_memory_kib"`
	Threads uint8  `json:"argon_threads"`
	KeyLen  uint32 `json:"argon_key_len"`
	Salt    string `json:"salt_b64"`
	Nonce   string `json:"nonce_b64"`
	Cipher  string `json:"ct_b64"`
}

var defaultEnvelope = envelope{
	Version: 1,
	Time:    2,
	Memory:  64 * 1024,
	Threads: 1,
	KeyLen:  32,
}

// WriteSealedJSON encrypts v under password and writes it atomically. aad
// must be the same when the file is read back.
func WriteSealedJSON[T any](path string, v T, password, aad []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), constants.DirectoryPerm); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}

	plain, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	env := defaultEnvelope
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("rand salt: %w", err)
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("rand nonce: %w", err)
	}

	aead, err := chacha20poly1305.NewX(env.key(password, salt))
	if err != nil {
		return fmt.Errorf("aead: %w", err)
	}

	env.Salt = base64.StdEncoding.EncodeToString(salt)
	env.Nonce = base64.StdEncoding.EncodeToString(nonce)
	env.Cipher = base64.StdEncoding.EncodeToString(aead.Seal(nil, nonce, plain, aad))

	b, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	return AtomicWriteFile(path, b, constants.FilePerm)
}

// ReadSealedJSON opens a file written by WriteSealedJSON.
func ReadSealedJSON[T any](path string, password, aad []byte) (T, error) {
	var zero T

	env, err := ReadJSON[envelope](path)
	if err != nil {
		return zero, err
	}
	if env.Version != 1 {
		return zero, fmt.Errorf("unsupported file version: %d", env.Version)
	}

	salt, err := base64.StdEncoding.DecodeString(env.Salt)
	if err != nil {
		return zero, fmt.Errorf("decode salt: %w", err)
	}
	nonce, err := base64.StdEncoding.DecodeString(env.Nonce)
	if err != nil {
		return zero, fmt.Errorf("decode nonce: %w", err)
	}
	ct, err := base64.StdEncoding.DecodeString(env.Cipher)
	if err != nil {
		return zero, fmt.Errorf("decode ciphertext: %w", err)
	}

	aead, err := chacha20poly1305.NewX(env.key(password, salt))
	if err != nil {
		return zero, fmt.Errorf("aead: %w", err)
	}
	plain, err := aead.Open(nil, nonce, ct, aad)
	if err != nil {
		return zero, ErrInvalidPasswordOrCorrupt
	}

	var out T
	if err := json.Unmarshal(plain, &out); err != nil {
		return zero, fmt.Errorf("unmarshal json: %w", err)
	}
	return out, nil
}

func (e envelope) key(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, e.Time, e.Memory, e.Threads, e.KeyLen)
}
