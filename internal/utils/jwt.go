package utils // package utils provides helper functions for token creation and hashing

import (
	"errors" // sentinel errors and errors.Is checks
	"time"   // time utilities for generating expirations

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// ErrTokenExpired is returned when a token's signature checks out but its
// expiry has passed. Callers treat this distinctly from ErrTokenInvalid so
// that clients know a refresh is worth attempting.
var ErrTokenExpired = errors.New("token expired")

// ErrTokenInvalid is returned for any other verification failure: bad
// signature, wrong signing method, malformed claims.
var ErrTokenInvalid = errors.New("token invalid")

// AccessToken represents a signed JWT access token along with its expiry.
// Access tokens are short‑lived, stateless and carried in an httpOnly
// cookie; validity is determined purely by signature and expiry at
// verification time.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// RefreshToken represents a long‑lived token used to obtain new access
// tokens. It is signed with a secret distinct from the access secret and
// the exact string is persisted server‑side, one live value per user.
type RefreshToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// NewAccessToken builds and signs an HS256 JWT for a user. It takes the
// access signing secret, the user ID, and a TTL in minutes. The claim
// payload is deliberately minimal: subject (sub), expiration (exp) and
// issued at (iat). Role and profile data are loaded from the user store
// on every request, so a stale token can never carry a stale role.
func NewAccessToken(secret string, userID uint64, ttlMin int) (AccessToken, error) {
	exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub": userID,
		"exp": exp.Unix(),
		"iat": time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// NewRefreshToken builds and signs an HS256 JWT with the refresh secret.
// The ttlDays parameter controls how many days the token is valid. The
// caller is responsible for persisting the exact token string so that a
// later presentation can be compared byte for byte against the stored
// value (a superseded token must be rejected even with a valid signature).
func NewRefreshToken(secret string, userID uint64, ttlDays int) (RefreshToken, error) {
	exp := time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour)
	claims := jwt.MapClaims{
		"sub": userID,
		"exp": exp.Unix(),
		"iat": time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return RefreshToken{}, err
	}
	return RefreshToken{Token: signed, Exp: exp}, nil
}

// VerifyToken parses and validates a signed token against the given
// secret and returns the subject user ID. Expired tokens fail with
// ErrTokenExpired; every other failure maps to ErrTokenInvalid. Access
// and refresh tokens use distinct secrets, so a refresh token presented
// where an access token is expected fails the signature check.
func VerifyToken(secret, raw string) (uint64, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		// Reject tokens signed with anything but HMAC.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrTokenExpired
		}
		return 0, ErrTokenInvalid
	}
	if !tok.Valid {
		return 0, ErrTokenInvalid
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrTokenInvalid
	}
	// JWT numeric values decode as float64.
	sub, ok := claims["sub"].(float64)
	if !ok || sub <= 0 {
		return 0, ErrTokenInvalid
	}
	return uint64(sub), nil
}
