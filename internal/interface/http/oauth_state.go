package http

import (
	"encoding/base64"
	"encoding/json"

	"github.com/gin-gonic/gin"
)

// The PKCE state and code verifier travel in one short-lived cookie between
// the start and callback legs of the Google sign-in flow.
const (
	oauthStateCookie = "oauth-state"
	oauthStateMaxAge = 300
)

type oauthState struct {
	State    string `json:"state"`
	Verifier string `json:"verifier"`
}

func (p cookiePolicy) setOAuthState(c *gin.Context, state, verifier string) {
	data, _ := json.Marshal(oauthState{State: state, Verifier: verifier})
	p.set(c, oauthStateCookie, base64.RawURLEncoding.EncodeToString(data), oauthStateMaxAge)
}

func (p cookiePolicy) takeOAuthState(c *gin.Context) (oauthState, bool) {
	value := cookieValue(c, oauthStateCookie)
	p.clear(c, oauthStateCookie)
	if value == "" {
		return oauthState{}, false
	}
	data, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return oauthState{}, false
	}
	var payload oauthState
	if err := json.Unmarshal(data, &payload); err != nil {
		return oauthState{}, false
	}
	if payload.State == "" || payload.Verifier == "" {
		return oauthState{}, false
	}
	return payload, true
}
