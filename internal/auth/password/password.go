// Package password hashes and verifies user passwords with bcrypt.
package password

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// Cost is the fixed bcrypt cost factor for stored hashes.
const Cost = bcrypt.DefaultCost

// ErrTooLong is returned by Hash for passwords longer than 72 bytes.
var ErrTooLong = bcrypt.ErrPasswordTooLong

// dummyHash is compared against when a login names an unknown email, so the
// response time does not reveal whether the account exists.
var dummyHash = sync.OnceValue(func() []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), Cost)
	if err != nil {
		panic("password: generate dummy hash: " + err.Error())
	}
	return hash
})

// Hash returns a salted bcrypt hash of plain.
func Hash(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), Cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Compare returns nil if plain matches hash.
func Compare(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}

// CompareDummy burns one bcrypt comparison. It always reports a mismatch.
func CompareDummy(plain string) {
	_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(plain))
}
