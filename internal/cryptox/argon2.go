// Package cryptox implements password hashing for stored credentials.
//
// Hashes are Argon2id in the PHC string format
//
//	$argon2id$v=19$m=65536,t=3,p=4$<salt>$<key>
//
// with unpadded standard base64 for salt and key, which is also what the
// catalog's seed tooling writes, so existing rows verify unchanged.
package cryptox

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/luminary-catalog/luminary/internal/common"
	"golang.org/x/crypto/argon2"
)

const (
	hashPrefix    = "$argon2"
	argon2Variant = "argon2id"
	argon2Version = argon2.Version

	// Upper bounds applied to parameters read back from stored hashes.
	maxMemory      = 1024 * 1024
	maxIterations  = 64
	maxParallelism = 64
	maxKeyLength   = 1024
)

// Params are the Argon2id cost parameters used for new hashes.
type Params struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultParams matches the argon2 defaults of the seed tooling.
func DefaultParams() Params {
	return Params{
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 4,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// PasswordHasher is the contract used by the account service.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
}

// Argon2Hasher hashes and verifies passwords.
type Argon2Hasher struct {
	params Params

	// LegacyPlaintext enables the deprecated migration shim: stored values
	// that do not carry the argon2 marker are compared as plaintext. Hash
	// never produces such values. Keep off outside data migrations.
	LegacyPlaintext bool

	randBytes func(int) ([]byte, error)
	deriveKey func(password, salt []byte, time, memory uint32, threads uint8, keyLen uint32) []byte
}

// NewArgon2Hasher returns a hasher using p for new hashes.
func NewArgon2Hasher(p Params) *Argon2Hasher {
	return &Argon2Hasher{
		params:    p,
		randBytes: common.GenerateRandByteArray,
		deriveKey: argon2.IDKey,
	}
}

// Hash returns the encoded Argon2id hash of password with a fresh salt.
func (h *Argon2Hasher) Hash(password string) (string, error) {
	salt, err := h.randBytes(int(h.params.SaltLength))
	if err != nil {
		return "", fmt.Errorf("%w: generate salt: %v", common.ErrorInternalHash, err)
	}

	plain := []byte(password)
	defer common.WipeByteArray(plain)

	key, err := h.derive(plain, salt, h.params)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Variant,
		argon2Version,
		h.params.Memory, h.params.Iterations, h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether password matches encoded. Unrecognised or malformed
// encodings yield false with a nil error; only a failure of the key
// derivation itself is returned as common.ErrorInternalHash.
func (h *Argon2Hasher) Verify(password, encoded string) (bool, error) {
	if password == "" || encoded == "" {
		return false, nil
	}

	if !strings.HasPrefix(encoded, hashPrefix) {
		if h.LegacyPlaintext {
			return subtle.ConstantTimeCompare([]byte(password), []byte(encoded)) == 1, nil
		}
		return false, nil
	}

	params, salt, expected, ok := decodeHash(encoded)
	if !ok {
		return false, nil
	}

	plain := []byte(password)
	defer common.WipeByteArray(plain)

	computed, err := h.derive(plain, salt, params)
	if err != nil {
		return false, err
	}

	return subtle.ConstantTimeCompare(computed, expected) == 1, nil
}

func (h *Argon2Hasher) derive(password, salt []byte, p Params) (key []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			key = nil
			err = fmt.Errorf("%w: %v", common.ErrorInternalHash, r)
		}
	}()
	return h.deriveKey(password, salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength), nil
}

func decodeHash(encoded string) (Params, []byte, []byte, bool) {
	// "$argon2id$v=19$m=..,t=..,p=..$salt$key" splits into 6 parts, the
	// first one empty.
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return Params{}, nil, nil, false
	}

	if parts[1] != argon2Variant {
		return Params{}, nil, nil, false
	}

	if parts[2] != "v="+strconv.Itoa(argon2Version) {
		return Params{}, nil, nil, false
	}

	p, ok := parseParams(parts[3])
	if !ok {
		return Params{}, nil, nil, false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return Params{}, nil, nil, false
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 || len(key) > maxKeyLength {
		return Params{}, nil, nil, false
	}

	p.SaltLength = uint32(len(salt))
	p.KeyLength = uint32(len(key))

	return p, salt, key, true
}

func parseParams(segment string) (Params, bool) {
	var p Params
	seen := 0

	for _, kv := range strings.Split(segment, ",") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return Params{}, false
		}
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return Params{}, false
		}
		switch k {
		case "m":
			p.Memory = uint32(n)
		case "t":
			p.Iterations = uint32(n)
		case "p":
			if n > maxParallelism {
				return Params{}, false
			}
			p.Parallelism = uint8(n)
		default:
			return Params{}, false
		}
		seen++
	}

	if seen != 3 {
		return Params{}, false
	}
	if p.Memory == 0 || p.Memory > maxMemory {
		return Params{}, false
	}
	if p.Iterations == 0 || p.Iterations > maxIterations {
		return Params{}, false
	}
	if p.Parallelism == 0 {
		return Params{}, false
	}

	return p, true
}
