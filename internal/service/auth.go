package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"coursesynth.app/api/core/config"
	"coursesynth.app/api/internal/ledger"
	"coursesynth.app/api/internal/model"
	"coursesynth.app/api/internal/store"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrInactiveUser       = errors.New("user is inactive")
	ErrUnknownProvider    = errors.New("unknown oauth provider")
)

// Claims is the JWT payload for both access and refresh tokens. SessionID
// is zero on access tokens (they are self-contained and never touch the
// database); refresh tokens carry the Session row they were issued
// alongside so Refresh/Logout can revoke it.
type Claims struct {
	UserID    int64 `json:"uid"`
	SessionID int64 `json:"sid,omitempty"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
}

// AuthService implements signup/login/logout/refresh and the three social
// login flows. Cookie mechanics (names, paths, flags)
// live in internal/http/handler/auth.go; this type only mints and
// validates tokens and mutates users/sessions.
type AuthService struct {
	users    store.UserStore
	sessions store.SessionStore
	ledger   *ledger.Ledger
	cfg      config.JWTConfig
	oauth    config.OAuthConfig
	policy   config.PasswordPolicy
	signKey  any
	verify   any
}

func NewAuthService(users store.UserStore, sessions store.SessionStore, l *ledger.Ledger, cfg config.JWTConfig, oauth config.OAuthConfig, policy config.PasswordPolicy) (*AuthService, error) {
	s := &AuthService{users: users, sessions: sessions, ledger: l, cfg: cfg, oauth: oauth, policy: policy}

	if cfg.Algorithm == "RS256" {
		priv, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(cfg.PrivateKeyPEM))
		if err != nil {
			return nil, fmt.Errorf("parsing JWT private key: %w", err)
		}
		pub, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.PublicKeyPEM))
		if err != nil {
			return nil, fmt.Errorf("parsing JWT public key: %w", err)
		}
		s.signKey, s.verify = priv, pub
		return s, nil
	}

	s.signKey = []byte(cfg.Secret)
	s.verify = []byte(cfg.Secret)
	return s, nil
}

func (s *AuthService) signingMethod() jwt.SigningMethod {
	if s.cfg.Algorithm == "RS256" {
		return jwt.SigningMethodRS256
	}
	return jwt.SigningMethodHS256
}

func (s *AuthService) SignUp(ctx context.Context, name, email, password string) (*model.User, error) {
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if err := validatePassword(s.policy, password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &model.User{Name: name, Email: email, PasswordHash: string(hash), IsActive: true}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login accepts either the account's email or its signup name as identifier:
// it tries an email lookup first since emails are unique and the more
// common login field, falling back to a name lookup.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*model.User, *TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, identifier)
	if errors.Is(err, store.ErrNotFound) {
		user, err = s.users.GetByName(ctx, identifier)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	return s.completeLogin(ctx, user)
}

func (s *AuthService) completeLogin(ctx context.Context, user *model.User) (*model.User, *TokenPair, error) {
	if !user.IsActive {
		return nil, nil, ErrInactiveUser
	}
	if _, err := s.users.RecordLogin(ctx, user.ID, time.Now().UTC().Unix()); err != nil {
		return nil, nil, err
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	_ = s.ledger.Log(ctx, user.ID, model.ActionLogin, nil, nil, nil)
	return user, tokens, nil
}

func (s *AuthService) issueTokens(ctx context.Context, user *model.User) (*TokenPair, error) {
	now := time.Now().UTC()

	session := &model.Session{UserID: user.ID, CreatedAt: now, ExpiresAt: now.Add(s.cfg.RefreshTTL)}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	access, err := s.sign(Claims{UserID: user.ID, RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AccessTTL)),
		IssuedAt:  jwt.NewNumericDate(now),
	}})
	if err != nil {
		return nil, err
	}

	refresh, err := s.sign(Claims{UserID: user.ID, SessionID: session.ID, RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		IssuedAt:  jwt.NewNumericDate(now),
	}})
	if err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh, AccessTTL: s.cfg.AccessTTL, RefreshTTL: s.cfg.RefreshTTL}, nil
}

func (s *AuthService) sign(claims Claims) (string, error) {
	return jwt.NewWithClaims(s.signingMethod(), claims).SignedString(s.signKey)
}

func (s *AuthService) parse(tokenString string) (*Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if t.Method != s.signingMethod() {
			return nil, fmt.Errorf("unexpected signing method %v", t.Method.Alg())
		}
		return s.verify, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

// ValidateAccessToken parses an access-token JWT. It never touches the
// database: access tokens are self-contained
// default lifetime.
func (s *AuthService) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.parse(tokenString)
}

// Refresh validates a refresh token against its Session row and rotates it,
// revoking the old session so a stolen refresh token is single-use.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*model.User, *TokenPair, error) {
	claims, err := s.parse(refreshToken)
	if err != nil {
		return nil, nil, err
	}

	session, err := s.sessions.GetByID(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrInvalidToken
		}
		return nil, nil, err
	}
	if session.UserID != claims.UserID || time.Now().UTC().After(session.ExpiresAt) {
		return nil, nil, ErrInvalidToken
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, nil, err
	}
	if !user.IsActive {
		return nil, nil, ErrInactiveUser
	}

	if err := s.sessions.Delete(ctx, session.ID); err != nil {
		return nil, nil, err
	}
	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	_ = s.ledger.Log(ctx, user.ID, model.ActionRefresh, nil, nil, nil)
	return user, tokens, nil
}

// Logout revokes the session named by a refresh token's claims. A missing
// or already-expired token is not an error: logout is idempotent.
func (s *AuthService) Logout(ctx context.Context, userID int64, refreshToken string) error {
	if claims, err := s.parse(refreshToken); err == nil {
		_ = s.sessions.Delete(ctx, claims.SessionID)
	}
	_ = s.ledger.Log(ctx, userID, model.ActionLogout, nil, nil, nil)
	return nil
}

// --- OAuth ---
//
// WorkOS's AuthKit mediates all social providers behind one app-wide
// client ID; core/config.OAuthConfig instead models three independent
// provider client-id/secret pairs (a direct-OAuth2 shape), so the three
// flows below talk to each provider's own authorize/token/userinfo
// endpoints directly (see DESIGN.md).

type oauthProvider struct {
	authorizeURL string
	tokenURL     string
	userInfoURL  string
	scope        string
	clientID     string
	clientSecret string
}

func (s *AuthService) provider(name string) (oauthProvider, error) {
	switch name {
	case "google":
		return oauthProvider{
			authorizeURL: "https://accounts.google.com/o/oauth2/v2/auth",
			tokenURL:     "https://oauth2.googleapis.com/token",
			userInfoURL:  "https://www.googleapis.com/oauth2/v3/userinfo",
			scope:        "openid email profile",
			clientID:     s.oauth.GoogleClientID,
			clientSecret: s.oauth.GoogleClientSecret,
		}, nil
	case "github":
		return oauthProvider{
			authorizeURL: "https://github.com/login/oauth/authorize",
			tokenURL:     "https://github.com/login/oauth/access_token",
			userInfoURL:  "https://api.github.com/user",
			scope:        "read:user user:email",
			clientID:     s.oauth.GitHubClientID,
			clientSecret: s.oauth.GitHubClientSecret,
		}, nil
	case "discord":
		return oauthProvider{
			authorizeURL: "https://discord.com/api/oauth2/authorize",
			tokenURL:     "https://discord.com/api/oauth2/token",
			userInfoURL:  "https://discord.com/api/users/@me",
			scope:        "identify email",
			clientID:     s.oauth.DiscordClientID,
			clientSecret: s.oauth.DiscordClientSecret,
		}, nil
	default:
		return oauthProvider{}, ErrUnknownProvider
	}
}

// GetAuthorizationURL builds the provider's own consent-screen redirect.
func (s *AuthService) GetAuthorizationURL(name, state string) (string, error) {
	p, err := s.provider(name)
	if err != nil {
		return "", err
	}

	q := url.Values{
		"client_id":     {p.clientID},
		"redirect_uri":  {s.oauth.RedirectBaseURL + "/api/auth/" + name + "/callback"},
		"response_type": {"code"},
		"scope":         {p.scope},
		"state":         {state},
	}
	return p.authorizeURL + "?" + q.Encode(), nil
}

// HandleCallback exchanges the authorization code, fetches the provider's
// userinfo, and upserts a User. New OAuth users get an auto-generated
// unique username and a random opaque password hash nobody can ever
// present to /auth/login,.
func (s *AuthService) HandleCallback(ctx context.Context, name, code string) (*model.User, *TokenPair, error) {
	p, err := s.provider(name)
	if err != nil {
		return nil, nil, err
	}

	token, err := exchangeCode(ctx, p, s.oauth.RedirectBaseURL+"/api/auth/"+name+"/callback", code)
	if err != nil {
		return nil, nil, fmt.Errorf("exchanging oauth code: %w", err)
	}

	info, err := fetchUserInfo(ctx, p, token)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching oauth userinfo: %w", err)
	}
	if info.Email == "" {
		return nil, nil, fmt.Errorf("oauth provider %s did not return an email", name)
	}

	user, err := s.users.GetByEmail(ctx, info.Email)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, nil, err
		}
		opaque, genErr := randomHex(32)
		if genErr != nil {
			return nil, nil, genErr
		}
		hash, hashErr := bcrypt.GenerateFromPassword([]byte(opaque), bcrypt.DefaultCost)
		if hashErr != nil {
			return nil, nil, hashErr
		}
		base := uniqueUsername(info.Name, info.Email)
		username := base
		for n := 2; ; n++ {
			_, lookupErr := s.users.GetByName(ctx, username)
			if errors.Is(lookupErr, store.ErrNotFound) {
				break
			}
			if lookupErr != nil {
				return nil, nil, lookupErr
			}
			username = fmt.Sprintf("%s%d", base, n)
		}
		user = &model.User{
			Name:         username,
			Email:        info.Email,
			PasswordHash: string(hash),
			IsActive:     true,
		}
		if info.AvatarURL != "" {
			user.AvatarURL = &info.AvatarURL
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, nil, err
		}
	}

	return s.completeLogin(ctx, user)
}

type oauthUserInfo struct {
	Name      string
	Email     string
	AvatarURL string
}

func exchangeCode(ctx context.Context, p oauthProvider, redirectURI, code string) (string, error) {
	form := url.Values{
		"client_id":     {p.clientID},
		"client_secret": {p.clientSecret},
		"code":          {code},
		"redirect_uri":  {redirectURI},
		"grant_type":    {"authorization_code"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, body)
	}

	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned no access_token")
	}
	return out.AccessToken, nil
}

func fetchUserInfo(ctx context.Context, p oauthProvider, accessToken string) (oauthUserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return oauthUserInfo{}, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return oauthUserInfo{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return oauthUserInfo{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return oauthUserInfo{}, fmt.Errorf("userinfo endpoint returned %d: %s", resp.StatusCode, body)
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return oauthUserInfo{}, err
	}

	info := oauthUserInfo{}
	for _, key := range []string{"email", "email_address"} {
		if v, ok := raw[key].(string); ok && v != "" {
			info.Email = v
		}
	}
	for _, key := range []string{"name", "login", "username"} {
		if v, ok := raw[key].(string); ok && v != "" {
			info.Name = v
			break
		}
	}
	for _, key := range []string{"picture", "avatar_url"} {
		if v, ok := raw[key].(string); ok && v != "" {
			info.AvatarURL = v
			break
		}
	}
	return info, nil
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func uniqueUsername(name, email string) string {
	if name != "" {
		return name
	}
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}
