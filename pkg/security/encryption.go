package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"strings"
)

// MethodAESGCM tags payloads sealed by Codec.
const MethodAESGCM = "AES-256-GCM"

// KeySize is the decoded length of ENCRYPTION_KEY.
const KeySize = 32

var (
	ErrMissingKey     = errors.New("encryption key not configured")
	ErrInvalidKeySize = errors.New("invalid key size")
	ErrEncryption     = errors.New("encryption failed")
	ErrDecryption     = errors.New("decryption failed")
)

// Encryptor provides a generic interface for encryption/decryption
type Encryptor interface {
	Encrypt(data []byte) ([]byte, error)
	Decrypt(data []byte) ([]byte, error)
}

// NewAESEncryptor creates a new AES-GCM encryptor
func NewAESEncryptor(key []byte) (Encryptor, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, ErrInvalidKeySize
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, ErrEncryption
	}

	return &aesEncryptor{
		gcm: gcm,
	}, nil
}

type aesEncryptor struct {
	gcm cipher.AEAD
}

func (a *aesEncryptor) Encrypt(data []byte) ([]byte, error) {
	nonce := make([]byte, a.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, ErrEncryption
	}

	return a.gcm.Seal(nonce, nonce, data, nil), nil
}

func (a *aesEncryptor) Decrypt(data []byte) ([]byte, error) {
	nonceSize := a.gcm.NonceSize()
	if len(data) < nonceSize {
		return nil, ErrDecryption
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := a.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryption
	}

	return plaintext, nil
}

// ParseKey decodes a base64 key (standard or URL alphabet, padded or not).
// Fernet keys are accepted as-is.
func ParseKey(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, ErrMissingKey
	}

	encodings := []*base64.Encoding{
		base64.URLEncoding,
		base64.StdEncoding,
		base64.RawURLEncoding,
		base64.RawStdEncoding,
	}
	for _, enc := range encodings {
		key, err := enc.DecodeString(encoded)
		if err != nil {
			continue
		}
		if len(key) != KeySize {
			return nil, ErrInvalidKeySize
		}
		return key, nil
	}
	return nil, ErrInvalidKeySize
}

// Sealed is an encrypted payload and the method that produced it.
type Sealed struct {
	Ciphertext []byte
	Method     string
}

// Codec seals record payloads with one process-wide key. It is safe for
// concurrent use.
type Codec struct {
	enc Encryptor
}

// NewCodec builds a Codec from an encoded key, see ParseKey.
func NewCodec(encodedKey string) (*Codec, error) {
	key, err := ParseKey(encodedKey)
	if err != nil {
		return nil, err
	}
	enc, err := NewAESEncryptor(key)
	if err != nil {
		return nil, err
	}
	return &Codec{enc: enc}, nil
}

func (c *Codec) Encrypt(plaintext []byte) (Sealed, error) {
	if c == nil || c.enc == nil {
		return Sealed{}, ErrMissingKey
	}
	ciphertext, err := c.enc.Encrypt(plaintext)
	if err != nil {
		return Sealed{}, err
	}
	return Sealed{Ciphertext: ciphertext, Method: MethodAESGCM}, nil
}

func (c *Codec) Decrypt(sealed Sealed) ([]byte, error) {
	if c == nil || c.enc == nil {
		return nil, ErrMissingKey
	}
	if sealed.Method != "" && sealed.Method != MethodAESGCM {
		return nil, ErrDecryption
	}
	return c.enc.Decrypt(sealed.Ciphertext)
}
