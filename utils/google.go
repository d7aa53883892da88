package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"os"
)

// GoogleTokenInfoURL is the endpoint used to validate Google ID tokens. Tests
// point it at a local server.
var GoogleTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

// GoogleClaims holds the fields we use from a verified Google ID token
type GoogleClaims struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	Audience      string `json:"aud"`
}

// VerifyGoogleIDToken validates an ID token against Google's tokeninfo endpoint
// and checks that it was issued for this application.
func VerifyGoogleIDToken(idToken string) (*GoogleClaims, error) {
	resp, err := http.Get(GoogleTokenInfoURL + "?id_token=" + url.QueryEscape(idToken))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("invalid Google ID token")
	}

	var claims GoogleClaims
	if err := json.NewDecoder(resp.Body).Decode(&claims); err != nil {
		return nil, err
	}

	if claims.Audience != os.Getenv("GOOGLE_CLIENT_ID") {
		return nil, errors.New("Google ID token was issued for a different client")
	}

	if claims.EmailVerified != "true" {
		return nil, errors.New("Google account email is not verified")
	}

	return &claims, nil
}
