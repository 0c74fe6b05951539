package handlers

import (
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"newsdesk/internal/apperr"
	"newsdesk/internal/middleware"
	"newsdesk/internal/models"
	"newsdesk/internal/rbac"
	"newsdesk/internal/session"
	"newsdesk/internal/store"
)

// totpIssuer names the service in authenticator apps.
const totpIssuer = "Newsdesk"

// Auth groups all authentication-related HTTP handlers.
type Auth struct {
	sessions  *session.Store
	userStore *store.UserStore
	engine    *rbac.Engine
	guard     *middleware.LoginGuard
}

// NewAuth creates a new Auth handler group. The guard locks accounts after
// repeated wrong passwords or codes.
func NewAuth(sessions *session.Store, userStore *store.UserStore, engine *rbac.Engine, guard *middleware.LoginGuard) *Auth {
	return &Auth{
		sessions:  sessions,
		userStore: userStore,
		engine:    engine,
		guard:     guard,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type codeRequest struct {
	Code string `json:"code"`
}

// errBadCredentials does not reveal whether the email exists.
var errBadCredentials = apperr.New(apperr.AuthenticationRequired, "invalid email or password")

// Login checks the password and opens a session that still needs the
// second factor.
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if locked, left := a.guard.Locked(email); locked {
		middleware.WriteRateLimited(w, r, left)
		return
	}

	user, err := a.userStore.FindByEmail(r.Context(), email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if user == nil || !a.userStore.CheckPassword(user, req.Password) {
		slog.Warn("login failed", "email", email)
		a.guard.Failed(email)
		writeError(w, r, errBadCredentials)
		return
	}
	a.guard.Succeeded(email)

	// TwoFADone starts as false; the user must complete 2FA.
	_, err = a.sessions.Create(r.Context(), w, &session.Data{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        user.RoleKey,
		TwoFADone:   false,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	next := "verify"
	if user.Needs2FASetup() {
		next = "setup"
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{
		"user":      user,
		"next_step": next,
	})
}

// TwoFASetup generates a TOTP secret and returns it with a QR code. Users
// that already enrolled must have their 2FA reset by an administrator
// first, so a stolen password cannot re-key the account.
func (a *Auth) TwoFASetup(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	user, err := a.sessionUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if user.TOTPEnabled {
		writeError(w, r, apperr.Constraint("two-factor authentication is already enabled"))
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: sess.Email,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := a.userStore.SetTOTPSecret(r.Context(), user.ID, key.Secret()); err != nil {
		writeError(w, r, err)
		return
	}

	qrPNG, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSONSuccess(w, http.StatusOK, map[string]any{
		"secret":      key.Secret(),
		"otpauth_url": key.URL(),
		"qr_png":      base64.StdEncoding.EncodeToString(qrPNG),
	})
}

// TwoFAVerify validates the TOTP code and completes authentication. The
// first successful code after setup enables 2FA for the account.
func (a *Auth) TwoFAVerify(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	var req codeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := a.sessionUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if user.TOTPSecret == nil {
		writeError(w, r, apperr.Validation("code", "two-factor setup has not been started"))
		return
	}

	// Codes are guessed against the account, whatever the password step did.
	account := "2fa:" + user.ID.String()
	if locked, left := a.guard.Locked(account); locked {
		middleware.WriteRateLimited(w, r, left)
		return
	}
	if !totp.Validate(strings.TrimSpace(req.Code), *user.TOTPSecret) {
		a.guard.Failed(account)
		writeError(w, r, apperr.Validation("code", "invalid code"))
		return
	}
	a.guard.Succeeded(account)

	if !user.TOTPEnabled {
		if err := a.userStore.EnableTOTP(r.Context(), user.ID); err != nil {
			writeError(w, r, err)
			return
		}
	}

	sess.TwoFADone = true
	sess.Role = user.RoleKey
	if err := a.sessions.Update(r.Context(), r, sess); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("login completed", "user_id", user.ID)
	writeJSONSuccess(w, http.StatusOK, map[string]any{"user": user})
}

// Logout destroys the session.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Warn("session destroy failed", "error", err)
	}
	writeJSONSuccess(w, http.StatusOK, nil)
}

// Me returns the session user and, once 2FA is done, their permission
// keys so the console can decide which controls to show.
func (a *Auth) Me(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	user, err := a.sessionUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	perms := []string{}
	super := false
	if sess.TwoFADone {
		g := rbac.GrantsFromContext(r.Context())
		if !g.Loaded() {
			g, err = a.engine.Load(r.Context(), sess.Actor())
			if err != nil {
				writeError(w, r, apperr.Wrap(err, "load permissions"))
				return
			}
		}
		perms = g.Keys()
		super = g.RoleKey() == rbac.SuperRole
	}

	writeJSONSuccess(w, http.StatusOK, map[string]any{
		"user":        user,
		"two_fa_done": sess.TwoFADone,
		"permissions": perms,
		"super":       super,
	})
}

// sessionUser loads the user behind the session. A session whose user was
// deleted counts as signed out.
func (a *Auth) sessionUser(r *http.Request) (*models.User, error) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		return nil, apperr.Unauthenticated()
	}
	user, err := a.userStore.FindByID(r.Context(), sess.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.Unauthenticated()
	}
	return user, nil
}
