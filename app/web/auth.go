package web

import (
	"context"
	"errors"
	"net/http"
	"strings"

	log "github.com/go-pkgz/lgr"

	"github.com/cabwad/hris/app/auth"
	"github.com/cabwad/hris/app/web/persistence"
)

type userCtxKey struct{}

// userFromContext returns the authenticated user set by authMiddleware
func userFromContext(ctx context.Context) (persistence.User, bool) {
	u, ok := ctx.Value(userCtxKey{}).(persistence.User)
	return u, ok
}

// authMiddleware checks bearer access token and puts the active user into request context
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			s.writeTokenError(w, "Authentication credentials were not provided.")
			return
		}
		claims, err := s.tokens.Parse(strings.TrimSpace(token), auth.AccessToken)
		if err != nil {
			log.Printf("[DEBUG] rejected access token, %v", err)
			s.writeTokenError(w, "Given token not valid for any token type")
			return
		}
		uid, err := claims.UserID()
		if err != nil {
			s.writeTokenError(w, "Token contained no recognizable user identification")
			return
		}
		user, err := s.store.GetUser(r.Context(), uid)
		if err != nil || !user.IsActive {
			s.writeTokenError(w, "User not found")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userCtxKey{}, user)))
	})
}

// requireAdmin allows only admins and super admins, must run after authMiddleware
func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userFromContext(r.Context())
		if !ok || !user.IsPrivileged() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"detail":"You do not have permission to perform this action."}` + "\n"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) writeTokenError(w http.ResponseWriter, detail string) {
	s.writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": detail, "code": "token_not_valid"})
}

// POST /api/account/login
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	req := struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}{}
	if err := decodeJSON(r, &req); err != nil {
		s.writeStatus(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if req.Username == "" || req.Password == "" {
		s.writeStatus(w, http.StatusBadRequest, "username and password are required", nil)
		return
	}

	user, err := s.store.GetUserByUsername(r.Context(), req.Username)
	if err != nil && !errors.Is(err, persistence.ErrNotFound) {
		log.Printf("[ERROR] failed to load user %s: %v", req.Username, err)
		s.writeStatus(w, http.StatusInternalServerError, "failed to load user", nil)
		return
	}
	if err != nil || !user.IsActive || !auth.CheckPassword(user.PasswordHash, req.Password) {
		log.Printf("[INFO] failed login for %q", req.Username)
		s.writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "No credentials found."})
		return
	}

	pair, err := s.tokens.Issue(user.ID)
	if err != nil {
		log.Printf("[ERROR] failed to issue tokens for %s: %v", user.Username, err)
		s.writeStatus(w, http.StatusInternalServerError, "failed to issue tokens", nil)
		return
	}
	log.Printf("[INFO] user %s logged in", user.Username)
	s.writeStatus(w, http.StatusOK, "Login successful", pair)
}

// POST /api/account/token/refresh
func (s *Server) handleTokenRefresh(w http.ResponseWriter, r *http.Request) {
	req := struct {
		Refresh string `json:"refresh"`
	}{}
	if err := decodeJSON(r, &req); err != nil || req.Refresh == "" {
		s.writeJSON(w, http.StatusBadRequest, map[string][]string{"refresh": {"This field is required."}})
		return
	}
	claims, err := s.validRefresh(r.Context(), req.Refresh)
	if err != nil {
		s.writeTokenError(w, err.Error())
		return
	}
	uid, err := claims.UserID()
	if err != nil {
		s.writeTokenError(w, err.Error())
		return
	}
	if user, err := s.store.GetUser(r.Context(), uid); err != nil || !user.IsActive {
		s.writeTokenError(w, "User not found")
		return
	}
	access, err := s.tokens.Access(uid)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"access": access})
}

// POST /api/account/token/verify accepts both access and refresh tokens
func (s *Server) handleTokenVerify(w http.ResponseWriter, r *http.Request) {
	req := struct {
		Token string `json:"token"`
	}{}
	if err := decodeJSON(r, &req); err != nil || req.Token == "" {
		s.writeJSON(w, http.StatusBadRequest, map[string][]string{"token": {"This field is required."}})
		return
	}
	if _, err := s.tokens.Parse(req.Token, auth.AccessToken); err == nil {
		s.writeJSON(w, http.StatusOK, map[string]string{})
		return
	}
	if _, err := s.validRefresh(r.Context(), req.Token); err != nil {
		s.writeTokenError(w, "Token is invalid or expired")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{})
}

// POST /api/account/token/blacklist
func (s *Server) handleTokenBlacklist(w http.ResponseWriter, r *http.Request) {
	req := struct {
		Refresh string `json:"refresh"`
	}{}
	if err := decodeJSON(r, &req); err != nil || req.Refresh == "" {
		s.writeJSON(w, http.StatusBadRequest, map[string][]string{"refresh": {"This field is required."}})
		return
	}
	if err := s.blacklist(r.Context(), req.Refresh); err != nil {
		s.writeTokenError(w, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{})
}

// POST /api/account/logout blacklists the refresh token of the session
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	req := struct {
		RefreshToken string `json:"refresh_token"`
	}{}
	if err := decodeJSON(r, &req); err != nil || req.RefreshToken == "" {
		s.writeStatus(w, http.StatusBadRequest, "Refresh token is required", nil)
		return
	}
	if err := s.blacklist(r.Context(), req.RefreshToken); err != nil {
		s.writeStatus(w, http.StatusBadRequest, "Invalid token: "+err.Error(), nil)
		return
	}
	s.writeStatus(w, http.StatusOK, "Logout successful", nil)
}

// validRefresh parses refresh token and rejects blacklisted ones
func (s *Server) validRefresh(ctx context.Context, token string) (auth.Claims, error) {
	claims, err := s.tokens.Parse(token, auth.RefreshToken)
	if err != nil {
		return auth.Claims{}, err
	}
	blacklisted, err := s.store.IsTokenBlacklisted(ctx, claims.ID)
	if err != nil {
		return auth.Claims{}, err
	}
	if blacklisted {
		return auth.Claims{}, errors.New("token is blacklisted")
	}
	return claims, nil
}

func (s *Server) blacklist(ctx context.Context, token string) error {
	claims, err := s.validRefresh(ctx, token)
	if err != nil {
		return err
	}
	return s.store.BlacklistToken(ctx, claims.ID, claims.ExpiresAt.Time)
}
