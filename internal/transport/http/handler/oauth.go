package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/classifieds-api/internal/application/oauth"
	"github.com/classifieds-api/internal/config"
	"github.com/classifieds-api/internal/domain"
	googleinfra "github.com/classifieds-api/internal/infrastructure/google"
	"github.com/classifieds-api/internal/pkg/token"
	"github.com/go-chi/chi/v5"
	oauth2lib "golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
	"golang.org/x/oauth2/google"
)

const (
	stateCookie    = "oauthstate"
	stateCookieTTL = 300 // seconds; one redirect round-trip
)

type tokenSigner interface {
	Sign(accountID string) (string, error)
}

// OAuthHandler drives the redirect-based provider flows. A successful callback
// deposits the canonical session token in the handoff cookie and redirects to
// the client, whose bridge promotes the token into durable storage.
type OAuthHandler struct {
	svc          oauth.Service
	signer       tokenSigner
	verifier     *googleinfra.Verifier
	configs      map[string]*oauth2lib.Config
	cookieName   string
	cookieMaxAge time.Duration
	clientURL    string
}

func NewOAuthHandler(cfg *config.Config, svc oauth.Service, signer tokenSigner, verifier *googleinfra.Verifier) *OAuthHandler {
	configs := map[string]*oauth2lib.Config{
		domain.ProviderGoogle: {
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleCallbackURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		domain.ProviderFacebook: {
			ClientID:     cfg.FacebookClientID,
			ClientSecret: cfg.FacebookClientSecret,
			RedirectURL:  cfg.FacebookCallbackURL,
			Scopes:       []string{"email", "public_profile"},
			Endpoint:     facebook.Endpoint,
		},
	}
	return &OAuthHandler{
		svc:          svc,
		signer:       signer,
		verifier:     verifier,
		configs:      configs,
		cookieName:   cfg.SessionCookieName,
		cookieMaxAge: cfg.SessionMaxAge,
		clientURL:    cfg.ClientURL,
	}
}

// Redirect starts the provider flow: mint a CSRF state, remember it in a
// short-lived cookie, and send the browser to the provider's consent page.
func (h *OAuthHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	conf, ok := h.configs[chi.URLParam(r, "provider")]
	if !ok {
		writeStatus(w, http.StatusNotFound, false, "unknown provider")
		return
	}
	state, err := token.NewState()
	if err != nil {
		writeInternal(w)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   stateCookieTTL,
		HttpOnly: true,
	})
	http.Redirect(w, r, conf.AuthCodeURL(state), http.StatusFound)
}

// Callback completes the provider flow and crosses the redirect boundary:
// verify state, exchange the code, resolve the provider identity, upsert the
// account, and deposit the session token in the handoff cookie.
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	conf, ok := h.configs[provider]
	if !ok {
		writeStatus(w, http.StatusNotFound, false, "unknown provider")
		return
	}

	state, err := r.Cookie(stateCookie)
	h.clearStateCookie(w)
	if err != nil || state.Value == "" || r.FormValue("state") != state.Value {
		writeStatus(w, http.StatusBadRequest, false, "invalid oauth state")
		return
	}

	tok, err := conf.Exchange(r.Context(), r.FormValue("code"))
	if err != nil {
		h.failRedirect(w, r)
		return
	}

	var ident oauth.Identity
	switch provider {
	case domain.ProviderGoogle:
		ident, err = h.googleIdentity(r, tok)
	case domain.ProviderFacebook:
		ident, err = h.facebookIdentity(r, conf, tok)
	}
	if err != nil {
		h.failRedirect(w, r)
		return
	}

	a, err := h.svc.EnsureAccount(r.Context(), ident)
	if err != nil {
		h.failRedirect(w, r)
		return
	}
	sessionToken, err := h.signer.Sign(a.AccountID)
	if err != nil {
		writeInternal(w)
		return
	}

	// The handoff cookie is deliberately readable by the client script: the
	// bridge consumes it once, moves the token to durable storage, and
	// deletes it.
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    sessionToken,
		Path:     "/",
		MaxAge:   int(h.cookieMaxAge.Seconds()),
		HttpOnly: false,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.clientURL, http.StatusFound)
}

func (h *OAuthHandler) googleIdentity(r *http.Request, tok *oauth2lib.Token) (oauth.Identity, error) {
	raw, _ := tok.Extra("id_token").(string)
	if raw == "" {
		return oauth.Identity{}, fmt.Errorf("token response carries no id_token: %w", domain.ErrUnauthorized)
	}
	payload, err := h.verifier.Verify(r.Context(), raw)
	if err != nil {
		return oauth.Identity{}, err
	}
	return oauth.Identity{
		Provider: domain.ProviderGoogle,
		Subject:  payload.Sub,
		Email:    payload.Email,
		Name:     payload.Name,
		Avatar:   payload.Picture,
	}, nil
}

func (h *OAuthHandler) facebookIdentity(r *http.Request, conf *oauth2lib.Config, tok *oauth2lib.Token) (oauth.Identity, error) {
	resp, err := conf.Client(r.Context(), tok).
		Get("https://graph.facebook.com/me?fields=id,name,email,picture.type(large)")
	if err != nil {
		return oauth.Identity{}, fmt.Errorf("fetch facebook profile: %w", err)
	}
	defer resp.Body.Close()

	var me struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Email   string `json:"email"`
		Picture struct {
			Data struct {
				URL string `json:"url"`
			} `json:"data"`
		} `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&me); err != nil {
		return oauth.Identity{}, fmt.Errorf("decode facebook profile: %w", err)
	}
	return oauth.Identity{
		Provider: domain.ProviderFacebook,
		Subject:  me.ID,
		Email:    me.Email,
		Name:     me.Name,
		Avatar:   me.Picture.Data.URL,
	}, nil
}

func (h *OAuthHandler) failRedirect(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.clientURL+"/login?error=oauth", http.StatusTemporaryRedirect)
}

func (h *OAuthHandler) clearStateCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/", MaxAge: -1})
}
