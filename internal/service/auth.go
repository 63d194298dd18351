package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/task_manager/internal/domain"
	"github.com/Skotchmaster/task_manager/internal/events"
	"github.com/Skotchmaster/task_manager/internal/hash"
	"github.com/Skotchmaster/task_manager/internal/logging"
	"github.com/Skotchmaster/task_manager/internal/tokens"
)

type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id uint) (*domain.User, error)
	CreateUser(ctx context.Context, u *domain.User) (*domain.User, error)
	SetRefreshJTI(ctx context.Context, id uint, jti string) error
	UpdateAccess(ctx context.Context, id uint, role domain.Role, perms domain.PermissionSet) (*domain.User, error)
}

type TokenPair struct {
	AccessToken  string
	AccessExp    time.Time
	RefreshToken string
	RefreshExp   time.Time
}

type AuthResult struct {
	User   *domain.User
	Tokens TokenPair
}

type AuthService struct {
	Users      UserStore
	Codec      *tokens.Codec
	Hasher     hash.Hasher
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Events     events.Publisher

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(users UserStore, codec *tokens.Codec, hasher hash.Hasher, accessTTL, refreshTTL time.Duration, pub events.Publisher) *AuthService {
	if pub == nil {
		pub = events.Nop{}
	}
	return &AuthService{
		Users:      users,
		Codec:      codec,
		Hasher:     hasher,
		AccessTTL:  accessTTL,
		RefreshTTL: refreshTTL,
		Events:     pub,
	}
}

func (s *AuthService) Register(ctx context.Context, username, email, password string) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" || email == "" || password == "" {
		return nil, fmt.Errorf("%w: username, email and password are required", domain.ErrValidation)
	}
	if err := validUsername(username); err != nil {
		l.Warn("register_error", "status", 400, "reason", err.Error())
		return nil, err
	}

	pwHash, err := s.Hasher.Hash(password)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			l.Warn("register_error", "status", 400, "reason", err.Error())
		} else {
			l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		}
		return nil, err
	}

	user, err := s.Users.CreateUser(ctx, &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: pwHash,
		Role:         domain.RoleUser,
		Permissions:  domain.NewPermissionSet(domain.PermissionRead),
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			l.Warn("register_error", "status", 409, "reason", "user already exists")
		} else {
			l.Error("register_error", "status", 500, "error", err)
		}
		return nil, err
	}

	pair, err := s.issue(ctx, user)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot issue tokens", "error", err)
		return nil, err
	}

	s.publishUser(ctx, events.UserRegistered, user)
	l.Info("user_registered", "user_id", user.ID)
	return &AuthResult{User: user, Tokens: pair}, nil
}

// validUsername keeps usernames apart from emails, which Authenticate
// tells apart by '@'.
func validUsername(username string) error {
	if strings.Contains(username, "@") {
		return fmt.Errorf("%w: username must not contain '@'", domain.ErrValidation)
	}
	return nil
}

// mismatch burns one bcrypt compare so a login for an unknown user costs
// about as much as a wrong password.
func (s *AuthService) mismatch(password string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.Hasher.Hash("unused-password")
	})
	s.Hasher.Verify(password, s.dummyHash)
}

// Authenticate treats an identifier containing '@' as an email. Unknown
// users and wrong passwords fail identically.
func (s *AuthService) Authenticate(ctx context.Context, identifier, password string) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	identifier = strings.TrimSpace(identifier)
	var (
		user *domain.User
		err  error
	)
	if strings.Contains(identifier, "@") {
		user, err = s.Users.FindByEmail(ctx, strings.ToLower(identifier))
	} else {
		user, err = s.Users.FindByUsername(ctx, identifier)
	}
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.mismatch(password)
			l.Warn("login_failed", "status", 401, "reason", "invalid credentials")
			return nil, domain.ErrInvalidCredentials
		}
		l.Error("login_failed", "status", 500, "error", err)
		return nil, err
	}
	if !s.Hasher.Verify(password, user.PasswordHash) {
		l.Warn("login_failed", "status", 401, "reason", "invalid credentials")
		return nil, domain.ErrInvalidCredentials
	}

	pair, err := s.issue(ctx, user)
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot issue tokens", "error", err)
		return nil, err
	}

	s.publishUser(ctx, events.UserLoggedIn, user)
	return &AuthResult{User: user, Tokens: pair}, nil
}

// Refresh mints a new pair for the subject of a valid refresh token. The
// presented token is not revoked; only the stored reference moves on.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	if refreshToken == "" {
		return nil, domain.ErrInvalidToken
	}
	claims, err := s.Codec.Verify(refreshToken, tokens.KindRefresh)
	if err != nil {
		l.Warn("refresh_failed", "status", 401, "reason", err.Error())
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidCredentials, err)
	}
	id, err := claims.UserID()
	if err != nil {
		l.Warn("refresh_failed", "status", 401, "reason", err.Error())
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidCredentials, err)
	}

	user, err := s.Users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			l.Warn("refresh_failed", "status", 401, "reason", "subject no longer exists", "user_id", id)
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidCredentials, err)
		}
		l.Error("refresh_failed", "status", 500, "error", err)
		return nil, err
	}

	pair, err := s.issue(ctx, user)
	if err != nil {
		l.Error("refresh_failed", "status", 500, "reason", "cannot issue tokens", "error", err)
		return nil, err
	}
	return &AuthResult{User: user, Tokens: pair}, nil
}

// ResolveAccess verifies an access token and loads its subject.
func (s *AuthService) ResolveAccess(ctx context.Context, accessToken string) (*domain.User, error) {
	claims, err := s.Codec.Verify(accessToken, tokens.KindAccess)
	if err != nil {
		return nil, err
	}
	id, err := claims.UserID()
	if err != nil {
		return nil, err
	}
	return s.Users.FindByID(ctx, id)
}

func (s *AuthService) Logout(ctx context.Context, userID uint) error {
	if err := s.Users.SetRefreshJTI(ctx, userID, ""); err != nil {
		logging.FromContext(ctx).Error("logout_failed", "user_id", userID, "error", err)
		return err
	}
	return nil
}

func (s *AuthService) UpdateAccess(ctx context.Context, userID uint, role domain.Role, perms domain.PermissionSet) (*domain.User, error) {
	u, err := s.Users.UpdateAccess(ctx, userID, role, perms)
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("access_updated", "user_id", userID, "role", role, "permissions", perms.String())
	return u, nil
}

// Bootstrap makes sure an admin with every permission exists. Calling it
// again for an existing account only restores its role and permissions.
func (s *AuthService) Bootstrap(ctx context.Context, username, email, password string) (*domain.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.bootstrap")

	existing, err := s.Users.FindByUsername(ctx, strings.TrimSpace(username))
	switch {
	case err == nil:
		if existing.IsAdmin() && existing.Permissions == domain.FullPermissionSet() {
			return existing, nil
		}
		return s.Users.UpdateAccess(ctx, existing.ID, domain.RoleAdmin, domain.FullPermissionSet())
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, err
	}
	if err := validUsername(strings.TrimSpace(username)); err != nil {
		return nil, err
	}

	pwHash, err := s.Hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	admin, err := s.Users.CreateUser(ctx, &domain.User{
		Username:     strings.TrimSpace(username),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: pwHash,
		Role:         domain.RoleAdmin,
		Permissions:  domain.FullPermissionSet(),
	})
	if err != nil {
		return nil, err
	}
	l.Info("admin_created", "user_id", admin.ID, "username", admin.Username)
	return admin, nil
}

func (s *AuthService) issue(ctx context.Context, u *domain.User) (TokenPair, error) {
	access, accessExp, err := s.Codec.Issue(tokens.ForUser(tokens.KindAccess, u), s.AccessTTL)
	if err != nil {
		return TokenPair{}, err
	}

	refreshClaims := tokens.ForUser(tokens.KindRefresh, u)
	refreshClaims.ID = uuid.NewString()
	refresh, refreshExp, err := s.Codec.Issue(refreshClaims, s.RefreshTTL)
	if err != nil {
		return TokenPair{}, err
	}

	if err := s.Users.SetRefreshJTI(ctx, u.ID, refreshClaims.ID); err != nil {
		return TokenPair{}, err
	}
	u.RefreshJTI = refreshClaims.ID

	return TokenPair{
		AccessToken:  access,
		AccessExp:    accessExp,
		RefreshToken: refresh,
		RefreshExp:   refreshExp,
	}, nil
}

func (s *AuthService) publishUser(ctx context.Context, kind string, u *domain.User) {
	event := events.UserEvent{Type: kind, UserID: u.ID, Username: u.Username, At: time.Now().UTC()}
	if err := s.Events.PublishEvent(ctx, events.TopicUsers, strconv.FormatUint(uint64(u.ID), 10), event); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "type", kind, "error", err)
	}
}
