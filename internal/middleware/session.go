// Package middleware loads the browsing session and the signed-in user for
// every request and gates routes on them.
package middleware

import (
	"context"
	"errors"
	"net/http"

	"sportzone/internal/apperr"
	"sportzone/internal/cart"
	"sportzone/internal/config"
	"sportzone/internal/model"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	userKey    = "user"
	cartKey    = "cart_session"
	sessionKey = "session"

	valueUserID    = "uid"
	valueSessionID = "sid"
)

// UserLoader resolves the user stored in a session. It returns
// apperr.ErrUnauthenticated for users that no longer exist or were
// deactivated.
type UserLoader interface {
	CurrentUser(ctx context.Context, userID uint) (*model.User, error)
}

type Sessions struct {
	store  sessions.Store
	name   string
	users  UserLoader
	logger *zap.Logger
}

func NewCookieStore(cfg config.Session) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(cfg.Secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   cfg.MaxAge,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

func NewSessions(store sessions.Store, name string, users UserLoader, logger *zap.Logger) *Sessions {
	return &Sessions{
		store:  store,
		name:   name,
		users:  users,
		logger: logger,
	}
}

// Load attaches the cart session and, when signed in, the user to the
// request. A fresh session id is issued on the first visit.
func (s *Sessions) Load() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess, err := s.store.Get(c.Request(), s.name)
			if err != nil {
				// tampered or rotated-secret cookies start over
				s.logger.Debug("discarding unreadable session", zap.Error(err))
			}

			dirty := false
			sid, _ := sess.Values[valueSessionID].(string)
			if sid == "" {
				sid = uuid.NewString()
				sess.Values[valueSessionID] = sid
				dirty = true
			}

			if uid, ok := sess.Values[valueUserID].(uint); ok {
				user, err := s.users.CurrentUser(c.Request().Context(), uid)
				switch {
				case err == nil:
					c.Set(userKey, user)
				case errors.Is(err, apperr.ErrUnauthenticated):
					delete(sess.Values, valueUserID)
					dirty = true
				default:
					return err
				}
			}

			if dirty {
				if err := sess.Save(c.Request(), c.Response()); err != nil {
					s.logger.Warn("save session failed", zap.Error(err))
				}
			}

			c.Set(sessionKey, sess)
			c.Set(cartKey, cart.Session{ID: sid})
			return next(c)
		}
	}
}

func (s *Sessions) session(c echo.Context) (*sessions.Session, error) {
	if sess, ok := c.Get(sessionKey).(*sessions.Session); ok {
		return sess, nil
	}
	return s.store.Get(c.Request(), s.name)
}

// Login binds the user to the current session. The cart session id is kept
// so items added before signing in survive.
func (s *Sessions) Login(c echo.Context, user *model.User) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	sess.Values[valueUserID] = user.ID
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return err
	}
	c.Set(userKey, user)
	return nil
}

// Logout forgets the user and starts a new cart session.
func (s *Sessions) Logout(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	delete(sess.Values, valueUserID)
	sid := uuid.NewString()
	sess.Values[valueSessionID] = sid
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return err
	}
	c.Set(userKey, nil)
	c.Set(cartKey, cart.Session{ID: sid})
	return nil
}

func CurrentUser(c echo.Context) *model.User {
	user, _ := c.Get(userKey).(*model.User)
	return user
}

func CartSession(c echo.Context) cart.Session {
	sess, _ := c.Get(cartKey).(cart.Session)
	return sess
}

func RequireLogin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if CurrentUser(c) == nil {
				return apperr.ErrUnauthenticated
			}
			return next(c)
		}
	}
}

// RequireStaff hides the panel behind a plain not-found for everyone else.
func RequireStaff() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := CurrentUser(c)
			if user == nil || !user.CanUsePanel() {
				return apperr.NotFound("page")
			}
			return next(c)
		}
	}
}
