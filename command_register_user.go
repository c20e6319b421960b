package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

type RegisterUserMessage struct {
	FirstName string `form:"first_name" json:"first_name"`
	LastName  string `form:"last_name" json:"last_name"`
	Email     string `form:"email" json:"email"`
	Password  string `form:"password" json:"password"`
	Password2 string `form:"password2" json:"password2"`
	Role      string `form:"role" json:"role"`
}

func (e RegisterUserMessage) Type() string { return "user.register" }

// RegisterUserHandler runs the registration flow
type RegisterUserHandler struct {
	users        Users
	hasher       PasswordHasher
	avatar       AvatarURL
	allowedRoles []string
	useHashid    bool
	timeout      time.Duration
	logger       Logger
	activitySink ActivitySink
}

var _ Registrar = (*RegisterUserHandler)(nil)

type RegisterUserOption func(*RegisterUserHandler)

func WithRegisterLogger(l Logger) RegisterUserOption {
	return func(h *RegisterUserHandler) {
		h.logger = normalizeLogger(l)
	}
}

func WithAllowedRoles(roles ...string) RegisterUserOption {
	return func(h *RegisterUserHandler) {
		h.allowedRoles = append([]string(nil), roles...)
	}
}

// WithHashidIDs derives user IDs from the email instead of random UUIDs
func WithHashidIDs(enabled bool) RegisterUserOption {
	return func(h *RegisterUserHandler) {
		h.useHashid = enabled
	}
}

func WithAvatarURL(fn AvatarURL) RegisterUserOption {
	return func(h *RegisterUserHandler) {
		if fn != nil {
			h.avatar = fn
		}
	}
}

func WithRegisterActivitySink(sink ActivitySink) RegisterUserOption {
	return func(h *RegisterUserHandler) {
		h.activitySink = normalizeActivitySink(sink)
	}
}

func NewRegisterUserHandler(users Users, hasher PasswordHasher, opts ...RegisterUserOption) *RegisterUserHandler {
	if hasher == nil {
		hasher = NewBcryptHasher(DefaultPasswordCost)
	}

	h := &RegisterUserHandler{
		users:        users,
		hasher:       hasher,
		avatar:       defaultAvatarURL,
		timeout:      10 * time.Second,
		logger:       normalizeLogger(nil),
		activitySink: noopActivitySink{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}

	return h
}

func (h *RegisterUserHandler) Execute(ctx context.Context, msg RegisterUserMessage) (*PublicUser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	user, err := h.execute(ctx, msg)
	if err != nil {
		recordActivity(ctx, h.activitySink, h.logger, ActivityEventRegisterFailure, "", map[string]any{
			"email": msg.Email,
			"error": err.Error(),
		})
		return nil, err
	}

	recordActivity(ctx, h.activitySink, h.logger, ActivityEventRegisterSuccess, user.ID.String(), map[string]any{
		"email": user.Email,
		"role":  user.Role,
	})

	return user.Public(), nil
}

func (h *RegisterUserHandler) execute(ctx context.Context, msg RegisterUserMessage) (*User, error) {
	if err := msg.Validate(h.allowedRoles...); err != nil {
		return nil, err
	}

	existing, err := h.users.GetByEmail(ctx, msg.Email)
	if err == nil && existing != nil {
		return nil, ErrDuplicateEmail
	}
	if err != nil && !IsRecordNotFound(err) {
		h.logger.Error("register user lookup failed", "email", msg.Email, "error", err)
		return nil, internalError(err, "failed to find user")
	}

	user := &User{
		FirstName: msg.FirstName,
		LastName:  msg.LastName,
		Email:     msg.Email,
		Role:      msg.Role,
		Avatar:    h.avatar(msg.Email),
	}

	if h.useHashid {
		if id, err := hashid.NewUUID(msg.Email); err == nil {
			user.ID = id
		}
	}

	hash, err := h.hasher.Hash(msg.Password)
	if err != nil {
		h.logger.Error("register user hash password failed", "error", err)
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) && richErr.Category == goerrors.CategoryValidation {
			return nil, goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
		}
		return nil, internalError(err, "failed to hash password")
	}
	user.PasswordHash = hash

	var created *User
	err = h.users.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var txErr error
		created, txErr = h.users.CreateTx(ctx, tx, user)
		return txErr
	})
	if err != nil {
		if goerrors.Is(err, ErrDuplicateEmail) {
			return nil, ErrDuplicateEmail
		}
		h.logger.Error("register user create failed", "email", msg.Email, "error", err)
		return nil, internalError(err, "failed to save user")
	}

	h.logger.Info("user registered", "user_id", created.ID.String(), "role", created.Role)

	return created, nil
}
