// Copyright (c) 2026 TalentX. All rights reserved.
// Author: platform@talentx.app

package sec

import (
	"crypto/rsa"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/talentxhq/talentx-api/internal/platform/constants"
)

// AuthClaims carries the identity embedded in every access token.
//
// The JSON names are part of the wire contract with the web client; changing
// them invalidates every token already in the wild.
type AuthClaims struct {
	jwt.RegisteredClaims

	UserID      string   `json:"sub"`
	Email       string   `json:"email"`
	FirstName   string   `json:"firstName"`
	LastName    string   `json:"lastName"`
	Role        UserRole `json:"role"`
	TenantID    string   `json:"tenantId"`
	Permissions []string `json:"permissions"`
}

// TokenService signs and verifies RS256 access tokens.
//
// Signing uses the private key, verification only the public key, so read-only
// deployments (workers, gateways) can verify without holding signing material.
type TokenService struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
}

/*
NewTokenService loads the RSA key pair from PEM files on disk and returns a
ready-to-use service.

Parameters:
  - privateKeyPath: path to the PKCS#1/PKCS#8 private key PEM file.
  - publicKeyPath: path to the public key PEM file.

Returns:
  - *TokenService: the configured service.
  - error: if either file is unreadable or not a valid RSA PEM key.
*/
func NewTokenService(privateKeyPath, publicKeyPath string) (*TokenService, error) {
	privateKeyBytes, err := os.ReadFile(privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to read private key file: %w", err)
	}
	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(privateKeyBytes)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to parse private key: %w", err)
	}

	publicKeyBytes, err := os.ReadFile(publicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to read public key file: %w", err)
	}
	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyBytes)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to parse public key: %w", err)
	}

	return &TokenService{privateKey: privateKey, publicKey: publicKey}, nil
}

/*
GenerateAccessToken signs a new RS256 access token for the given claims.

The registered claims (issuer, issued-at, expiry, subject) are filled in here;
callers only provide the identity fields.

Parameters:
  - claims: identity payload; RegisteredClaims is overwritten.
  - timeToLive: how long the token stays valid.

Returns:
  - string: the signed compact JWT.
  - error: if signing fails.
*/
func (service *TokenService) GenerateAccessToken(claims AuthClaims, timeToLive time.Duration) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    constants.AuthIssuer,
		Subject:   claims.UserID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(timeToLive)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signedToken, err := token.SignedString(service.privateKey)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign access token: %w", err)
	}
	return signedToken, nil
}

/*
VerifyToken parses and validates a compact JWT produced by
[TokenService.GenerateAccessToken].

Parameters:
  - tokenString: the compact JWT from the Authorization header.

Returns:
  - *AuthClaims: the validated claims.
  - error: if the token is malformed, expired, or signed with the wrong key.
*/
func (service *TokenService) VerifyToken(tokenString string) (*AuthClaims, error) {
	claims := &AuthClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return service.publicKey, nil
	}, jwt.WithIssuer(constants.AuthIssuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("sec: failed to verify token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("sec: token is invalid")
	}
	return claims, nil
}
