package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

var ErrUnsupportedHash = errors.New("unsupported password hash format")

// Upper bounds for stored argon2id parameters. Memory is in KiB.
const (
	maxArgon2Memory     = 1 << 20
	maxArgon2Iterations = 64
)

// PasswordVerifier checks a plaintext password against a stored encoded hash.
type PasswordVerifier interface {
	Verify(password, encodedHash string) (bool, error)
}

// Argon2Params describes an argon2id hash. Records imported from the legacy
// store carry these hashes; new records use bcrypt.
type Argon2Params struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLen     uint32
	KeyLen      uint32
}

func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 4,
		SaltLen:     16,
		KeyLen:      32,
	}
}

// PasswordHasher hashes with bcrypt and verifies bcrypt or argon2id hashes.
type PasswordHasher struct {
	cost int
}

func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

func (h *PasswordHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("password is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (h *PasswordHasher) Verify(password, encodedHash string) (bool, error) {
	switch {
	case strings.HasPrefix(encodedHash, "$2"):
		err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) || errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return true, nil
	case strings.HasPrefix(encodedHash, "argon2id$"):
		return verifyArgon2(password, encodedHash)
	default:
		return false, ErrUnsupportedHash
	}
}

// SaltOf extracts the salt segment of an encoded hash for the users.salt column.
func SaltOf(encodedHash string) string {
	switch {
	case strings.HasPrefix(encodedHash, "$2") && len(encodedHash) >= 29:
		// $2a$10$ + 22 salt chars
		return encodedHash[7:29]
	case strings.HasPrefix(encodedHash, "argon2id$"):
		parts := strings.Split(encodedHash, "$")
		if len(parts) == 5 {
			return parts[3]
		}
	}
	return ""
}

// HashArgon2 returns argon2id$v=19$m=65536,t=3,p=4$<salt_b64>$<hash_b64>.
func HashArgon2(password string, p Argon2Params) (string, error) {
	if password == "" {
		return "", errors.New("password is required")
	}
	salt := make([]byte, p.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(password), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLen)
	enc := base64.RawStdEncoding
	return fmt.Sprintf("argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Iterations, p.Parallelism,
		enc.EncodeToString(salt), enc.EncodeToString(key)), nil
}

func verifyArgon2(password, encoded string) (bool, error) {
	p, salt, want, err := parseArgon2(encoded)
	if err != nil {
		return false, err
	}
	got := argon2.IDKey([]byte(password), salt, p.Iterations, p.Memory, p.Parallelism, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

func parseArgon2(s string) (Argon2Params, []byte, []byte, error) {
	parts := strings.Split(s, "$")
	if len(parts) != 5 || parts[0] != "argon2id" {
		return Argon2Params{}, nil, nil, ErrUnsupportedHash
	}
	ver, err := strconv.Atoi(strings.TrimPrefix(parts[1], "v="))
	if err != nil || ver != argon2.Version {
		return Argon2Params{}, nil, nil, errors.New("unsupported argon2 version")
	}

	var p Argon2Params
	for _, kv := range strings.Split(parts[2], ",") {
		key, val, ok := strings.Cut(kv, "=")
		if !ok {
			return Argon2Params{}, nil, nil, errors.New("invalid argon2 parameters")
		}
		n, err := strconv.ParseUint(val, 10, 32)
		if err != nil {
			return Argon2Params{}, nil, nil, fmt.Errorf("invalid argon2 parameter %s", key)
		}
		switch key {
		case "m":
			p.Memory = uint32(n)
		case "t":
			p.Iterations = uint32(n)
		case "p":
			if n > 255 {
				return Argon2Params{}, nil, nil, errors.New("invalid argon2 parallelism")
			}
			p.Parallelism = uint8(n)
		default:
			return Argon2Params{}, nil, nil, fmt.Errorf("unknown argon2 parameter %s", key)
		}
	}
	if p.Memory < 8 || p.Memory > maxArgon2Memory ||
		p.Iterations < 1 || p.Iterations > maxArgon2Iterations ||
		p.Parallelism < 1 {
		return Argon2Params{}, nil, nil, fmt.Errorf("%w: argon2 parameters out of range", ErrUnsupportedHash)
	}

	enc := base64.RawStdEncoding
	salt, err := enc.DecodeString(parts[3])
	if err != nil {
		return Argon2Params{}, nil, nil, errors.New("invalid argon2 salt")
	}
	hash, err := enc.DecodeString(parts[4])
	if err != nil || len(hash) < 16 {
		return Argon2Params{}, nil, nil, errors.New("invalid argon2 hash")
	}
	return p, salt, hash, nil
}
