// Package session holds the current-user state of one client and mirrors it to the client's local storage.
//
// A Session moves from StateUninitialized to StateLoading while the persisted record is read,
// then settles on StateAnonymous or StateAuthenticated. Login, Register, Logout and UpdateProfile
// move it between the two settled states.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/mail"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateAnonymous
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// user facing messages
const (
	ErrInvalidCredentials = "Invalid email or password"
	ErrEmailInUse         = "Email already in use"
	ErrInvalidRole        = "Invalid role"
	ErrNoUserLoggedIn     = "No user logged in"
	ErrEmailNotFound      = "Email not found"
	ErrProfileTooLarge    = "Profile is too large to be saved"
	MsgPasswordResetSent  = "Password reset email sent"
)

const resetPasswordText = `Hi {{.Name}},

We received a request to reset the password of your account ({{.Email}}).
Password resets are simulated for now, no further action is needed.
`

// Result is the outcome of a session operation as shown to the user.
type Result struct {
	Success bool       `json:"success"`
	User    *user.User `json:"user,omitempty"`
	Message string     `json:"message,omitempty"`
	Error   string     `json:"error,omitempty"`
}

func succeeded(usr user.User) Result {
	return Result{Success: true, User: &usr}
}

func failed(msg string) Result {
	return Result{Error: msg}
}

type Option func(*Session)

// WithMailer makes ResetPassword queue a notice message.
func WithMailer(mailSvc core.EmailService) Option {
	return func(s *Session) { s.mailSvc = mailSvc }
}

func WithLogger(logger core.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithAvatarFunc overrides how avatars of registered users are picked.
func WithAvatarFunc(fn func() string) Option {
	return func(s *Session) { s.avatarFunc = fn }
}

type Session struct {
	repo       user.Repository
	storage    core.LocalStorage
	mailSvc    core.EmailService
	logger     core.Logger
	avatarFunc func() string

	mu      sync.RWMutex
	state   State
	current *user.User
}

// New returns an uninitialized Session. storage may be nil, in which case nothing is mirrored.
func New(repo user.Repository, storage core.LocalStorage, opts ...Option) *Session {
	s := &Session{
		repo:       repo,
		storage:    storage,
		avatarFunc: randomAvatar,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func randomAvatar() string {
	return fmt.Sprintf("https://i.pravatar.cc/150?img=%d", rand.Intn(70))
}

// Init restores the persisted session record. It only runs once.
// A corrupt record is dropped and the Session becomes anonymous.
func (s *Session) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateUninitialized {
		return nil
	}
	s.state = StateLoading
	defer func() {
		if s.state == StateLoading {
			s.state = StateAnonymous
		}
	}()

	if s.storage == nil {
		return nil
	}
	raw, ok, err := s.storage.GetItem(core.SessionStorageKey)
	if err != nil {
		return errors.Wrap(err, "reading persisted session")
	}
	if !ok {
		return nil
	}

	var usr user.User
	if err := json.Unmarshal([]byte(raw), &usr); err != nil || usr.ID == "" || !usr.Role.Valid() {
		s.debug("dropping corrupt persisted session", err)
		return errors.Wrap(s.storage.RemoveItem(core.SessionStorageKey), "removing persisted session")
	}
	usr = usr.Sanitized()
	s.current = &usr
	s.state = StateAuthenticated
	return nil
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) Loading() bool {
	return s.State() <= StateLoading
}

// CurrentUser returns a copy of the sanitized current user.
func (s *Session) CurrentUser() (user.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return user.User{}, false
	}
	return *s.current, true
}

// Login authenticates by email and password. Credentials that match no user yield a failed Result.
func (s *Session) Login(ctx context.Context, email, pwd string) (Result, error) {
	usr, err := s.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return failed(ErrInvalidCredentials), nil
		}
		return Result{}, errors.Wrap(err, "finding user by email")
	}
	if err := usr.CheckPassword(pwd); err != nil {
		return failed(ErrInvalidCredentials), nil
	}

	usr = usr.Sanitized()
	if err := s.setCurrent(usr); err != nil {
		return Result{}, err
	}
	return succeeded(usr), nil
}

// Register adds a new user with empty collections for its role and logs them in.
func (s *Session) Register(ctx context.Context, nu user.NewUser) (Result, error) {
	nu.Clean()
	if !nu.Role.Valid() {
		return failed(ErrInvalidRole), nil
	}

	if _, err := s.repo.GetUserByEmail(ctx, nu.Email); err == nil {
		return failed(ErrEmailInUse), nil
	} else if errors.Cause(err) != user.ErrNotFound {
		return Result{}, errors.Wrap(err, "finding user by email")
	}

	now := time.Now().UTC()
	usr := user.User{
		Name:      nu.Name,
		Email:     nu.Email,
		Role:      nu.Role,
		Avatar:    s.avatarFunc(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	switch usr.Role {
	case user.RoleStudent:
		usr.EnrolledCourses = []string{}
		usr.CompletedLessons = []string{}
	case user.RoleInstructor:
		usr.Courses = []string{}
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return Result{}, errors.Wrap(err, "setting password")
	}

	usr, err := s.repo.CreateUser(ctx, usr)
	if err != nil {
		if errors.Cause(err) == user.ErrEmailExists {
			return failed(ErrEmailInUse), nil
		}
		return Result{}, errors.Wrap(err, "creating user")
	}

	usr = usr.Sanitized()
	if err := s.setCurrent(usr); err != nil {
		return Result{}, err
	}
	return succeeded(usr), nil
}

// Logout clears the current user and its persisted record.
func (s *Session) Logout(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = nil
	s.state = StateAnonymous
	if s.storage == nil {
		return nil
	}
	return errors.Wrap(s.storage.RemoveItem(core.SessionStorageKey), "removing persisted session")
}

// UpdateProfile merges the set fields of up into the stored user and the session's user.
func (s *Session) UpdateProfile(ctx context.Context, up user.UpdateProfile) (Result, error) {
	cur, ok := s.CurrentUser()
	if !ok {
		return failed(ErrNoUserLoggedIn), nil
	}
	up.Clean()

	if up.Email != nil && *up.Email != cur.Email {
		other, err := s.repo.GetUserByEmail(ctx, *up.Email)
		switch {
		case err == nil && other.ID != cur.ID:
			return failed(ErrEmailInUse), nil
		case err != nil && errors.Cause(err) != user.ErrNotFound:
			return Result{}, errors.Wrap(err, "finding user by email")
		}
	}

	// the client record is written before the store
	prev := cur
	now := time.Now().UTC()
	up.Apply(&cur)
	cur.UpdatedAt = now
	if err := s.setCurrent(cur); err != nil {
		if errors.Cause(err) == core.ErrStorageFull {
			return failed(ErrProfileTooLarge), nil
		}
		return Result{}, err
	}

	stored, err := s.repo.GetUserByID(ctx, cur.ID)
	switch errors.Cause(err) {
	case nil:
		up.Apply(&stored)
		stored.UpdatedAt = now
		if _, err = s.repo.UpdateUser(ctx, stored); err != nil {
			s.restore(prev)
			if errors.Cause(err) == user.ErrEmailExists {
				return failed(ErrEmailInUse), nil
			}
			return Result{}, errors.Wrap(err, "updating user")
		}
	case user.ErrNotFound:
		// the persisted session may outlive the in-memory store
		s.debug("session user not found in store", map[string]interface{}{"id": cur.ID})
	default:
		s.restore(prev)
		return Result{}, errors.Wrap(err, "finding user by ID")
	}
	return succeeded(cur), nil
}

// ResetPassword pretends to send a password reset email to a known address.
func (s *Session) ResetPassword(ctx context.Context, email string) (Result, error) {
	usr, err := s.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return failed(ErrEmailNotFound), nil
		}
		return Result{}, errors.Wrap(err, "finding user by email")
	}

	if s.mailSvc != nil {
		s.mailSvc.SendMessages(&core.EmailMessage{
			To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
			Subject:      "Password reset",
			TextTemplate: resetPasswordText,
			TemplateData: usr.Sanitized(),
		})
	}
	return Result{Success: true, Message: MsgPasswordResetSent}, nil
}

// setCurrent persists the sanitized usr then makes it the current user.
func (s *Session) setCurrent(usr user.User) error {
	usr = usr.Sanitized()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.storage != nil {
		data, err := json.Marshal(usr)
		if err != nil {
			return errors.Wrap(err, "marshalling session")
		}
		if err := s.storage.SetItem(core.SessionStorageKey, string(data)); err != nil {
			return errors.Wrap(err, "persisting session")
		}
	}
	s.current = &usr
	s.state = StateAuthenticated
	return nil
}

// restore puts back the session user of before a failed update.
func (s *Session) restore(prev user.User) {
	if err := s.setCurrent(prev); err != nil {
		s.debug("restoring session", err)
	}
}

func (s *Session) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
