// Copyright (c) 2026 TalentX. All rights reserved.
// Author: platform@talentx.app

package sec

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes passwords and backup codes with bcrypt at a configurable cost.
//
// # Cost Tuning
//
// The cost factor is injected from configuration rather than hard-coded:
// production runs 12+, development runs lower so interactive logins stay fast.
// Verification reads the cost out of the stored hash, so changing the cost
// never invalidates existing credentials.
type Hasher struct {
	cost int
}

// NewHasher constructs a [Hasher], clamping the cost into bcrypt's legal range.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &Hasher{cost: cost}
}

// Hash hashes a plain-text password using the bcrypt algorithm.
func (h *Hasher) Hash(plainTextPassword string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(plainTextPassword), h.cost)
	if err != nil {
		return "", fmt.Errorf("sec: failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// CheckPasswordHash compares a plain-text password with its hashed version.
//
// bcrypt performs a constant-time comparison internally, which protects the
// login path against timing attacks.
func CheckPasswordHash(plainTextPassword, existingHash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(existingHash), []byte(plainTextPassword))
	return err == nil
}
