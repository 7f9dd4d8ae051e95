package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/minbarhq/minbar-api/config"
)

// liveTokenTTL bounds how long a share link stays valid. Long enough to
// hand a tablet to the khatib the night before.
const liveTokenTTL = 24 * time.Hour

// LiveToken exported for testing purposes
type LiveToken struct {
	Secret string
}

type liveTokenClaims struct {
	DocumentID string `json:"documentID"`
	jwt.RegisteredClaims
}

// CreateLiveTokenHandler mints a signed share token scoped to one document,
// so a second device can join the live view without an account
func (l LiveToken) CreateLiveTokenHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DocumentID string `json:"documentID"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if body.DocumentID == "" {
		config.ErrorStatus("documentID is required", http.StatusBadRequest, w, nil)
		return
	}

	claims := liveTokenClaims{
		DocumentID: body.DocumentID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(liveTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(l.Secret))
	if err != nil {
		config.ErrorStatus("failed to sign live token", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"token":     signed,
		"expiresAt": claims.ExpiresAt.Unix(),
	})
}

// VerifyLiveToken checks the share token signature and expiry and returns
// the document it is scoped to.
func VerifyLiveToken(secret, tokenString string) (string, error) {
	claims := &liveTokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid || claims.DocumentID == "" {
		return "", fmt.Errorf("invalid live token")
	}
	return claims.DocumentID, nil
}
