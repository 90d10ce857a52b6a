// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package approve

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"io"

	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/pbkdf2"
)

// =============================================================================
// ELEVATED APPROVAL
// =============================================================================

const (
	// pinSaltSize is the salt length for PIN derivation (32 bytes).
	pinSaltSize = 32

	// pinKeySize is the derived PIN hash length (32 bytes).
	pinKeySize = 32

	// pinIterations is the PBKDF2-SHA-256 iteration count.
	pinIterations = 600000

	// minPINLength rejects trivially guessable PINs.
	minPINLength = 4
)

// Elevation verifies a second factor on top of the interactive yes/no. Two
// factors are supported: a TOTP secret (verified against the current time
// window) and a local PIN (stored as a PBKDF2-SHA-256 hash, compared in
// constant time). Either factor passing is sufficient.
//
// An Elevation with no factor configured is disabled: Enabled reports false
// and Verify denies everything, so a misconfigured setup fails closed.
type Elevation struct {
	totpSecret string
	pinHash    []byte
	pinSalt    []byte
}

// NewElevation creates a disabled elevation; configure a factor to arm it.
func NewElevation() *Elevation {
	return &Elevation{}
}

// SetTOTPSecret arms TOTP verification with a base32 secret.
func (e *Elevation) SetTOTPSecret(secret string) {
	e.totpSecret = secret
}

// SetPIN derives and stores the PIN hash. The plaintext PIN is not retained.
func (e *Elevation) SetPIN(pin string) error {
	if len(pin) < minPINLength {
		return errors.New("PIN must be at least 4 characters")
	}

	salt := make([]byte, pinSaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return errors.New("cannot generate PIN salt: " + err.Error())
	}

	e.pinSalt = salt
	e.pinHash = pbkdf2.Key([]byte(pin), salt, pinIterations, pinKeySize, sha256.New)
	return nil
}

// LoadPIN restores a previously derived hash and salt, e.g. from config.
func (e *Elevation) LoadPIN(hash, salt []byte) {
	e.pinHash = hash
	e.pinSalt = salt
}

// Enabled reports whether any factor is configured.
func (e *Elevation) Enabled() bool {
	return e.totpSecret != "" || len(e.pinHash) > 0
}

// Verify checks a code against the configured factors. TOTP is tried first,
// then the PIN. A disabled elevation denies everything.
func (e *Elevation) Verify(code string) bool {
	if code == "" {
		return false
	}

	if e.totpSecret != "" && totp.Validate(code, e.totpSecret) {
		return true
	}

	if len(e.pinHash) > 0 {
		derived := pbkdf2.Key([]byte(code), e.pinSalt, pinIterations, pinKeySize, sha256.New)
		if subtle.ConstantTimeCompare(derived, e.pinHash) == 1 {
			return true
		}
	}

	return false
}
