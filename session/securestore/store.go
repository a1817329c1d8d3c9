// Package securestore persists the session record encrypted at rest. The
// record is sealed with NaCl secretbox under a key derived from a passphrase
// with scrypt, so tokens never touch disk in the clear.
package securestore

import (
	"crypto/rand"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"

	"github.com/mercfleet/fleet-client-go/session"
)

const (
	saltLength  = 32
	nonceLength = 24
	keyLength   = 32

	// scrypt parameters per the library's recommended interactive settings.
	scryptN = 32768
	scryptR = 8
	scryptP = 1
)

var _ session.Store = (*Store)(nil)

// Store writes the encrypted session record to a single file. Writes go
// through a temp file and rename so a partially written record is never
// observable.
type Store struct {
	path       string
	passphrase []byte
}

// New creates a secure store backed by the given file path.
func New(path string, passphrase []byte) (*Store, error) {
	if len(passphrase) == 0 {
		return nil, errors.New("[securestore.New] passphrase is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, errors.Wrap(err, "[securestore.New] MkdirAll")
	}
	return &Store{path: path, passphrase: append([]byte(nil), passphrase...)}, nil
}

func (s *Store) Get() (*session.Session, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[securestore.Get] ReadFile")
	}
	if len(raw) < saltLength+nonceLength+secretbox.Overhead {
		return nil, errors.New("[securestore.Get] record truncated")
	}

	var salt [saltLength]byte
	copy(salt[:], raw[:saltLength])
	var nonce [nonceLength]byte
	copy(nonce[:], raw[saltLength:saltLength+nonceLength])

	key, err := s.deriveKey(salt[:])
	if err != nil {
		return nil, err
	}

	payload, ok := secretbox.Open(nil, raw[saltLength+nonceLength:], &nonce, key)
	if !ok {
		return nil, errors.New("[securestore.Get] decryption failed")
	}

	record := &session.Session{}
	if err := json.Unmarshal(payload, record); err != nil {
		return nil, errors.Wrap(err, "[securestore.Get] json.Unmarshal")
	}
	return record, nil
}

func (s *Store) Set(record *session.Session) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, "[securestore.Set] json.Marshal")
	}

	var salt [saltLength]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return errors.Wrap(err, "[securestore.Set] rand.Read salt")
	}
	var nonce [nonceLength]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return errors.Wrap(err, "[securestore.Set] rand.Read nonce")
	}

	key, err := s.deriveKey(salt[:])
	if err != nil {
		return err
	}

	sealed := secretbox.Seal(nil, payload, &nonce, key)
	raw := make([]byte, 0, saltLength+nonceLength+len(sealed))
	raw = append(raw, salt[:]...)
	raw = append(raw, nonce[:]...)
	raw = append(raw, sealed...)

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return errors.Wrap(err, "[securestore.Set] WriteFile")
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Wrap(err, "[securestore.Set] Rename")
	}
	return nil
}

func (s *Store) Remove() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "[securestore.Remove] Remove")
	}
	return nil
}

func (s *Store) deriveKey(salt []byte) (*[keyLength]byte, error) {
	derived, err := scrypt.Key(s.passphrase, salt, scryptN, scryptR, scryptP, keyLength)
	if err != nil {
		return nil, errors.Wrap(err, "[securestore.deriveKey] scrypt.Key")
	}
	var key [keyLength]byte
	copy(key[:], derived)
	return &key, nil
}
