package user

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/soma/core"
)

var (
	// errors
	ErrNotFound             = errors.New("user not found")
	ErrEmailExists          = errors.New("a user with this email already exists")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrAccountDeactivated   = errors.New("account deactivated")
	ErrInvalidPasswordReset = errors.New("invalid password reset link")
)

type (
	Repository interface {
		// CheckEmailUniqueness returns ErrEmailExists when another User (not in excludedUsers) has this email.
		CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...User) error
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUser(ctx context.Context, filter GetFilter) (User, error)
		// UpdateUser saves the name, email, role, active status, password hash & last login of the User.
		UpdateUser(ctx context.Context, usr User) (User, error)
		// IncrementTokenVersion atomically bumps the token version, invalidating all issued tokens.
		IncrementTokenVersion(ctx context.Context, id string) (User, error)
	}

	Service struct {
		repo     Repository
		mailSvc  core.EmailService
		tokenGen *tokenGenerator
		conf     *core.Config
	}
)

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config) *Service {
	return &Service{
		repo:     repo,
		mailSvc:  mailSvc,
		tokenGen: newTokenGenerator(conf.SecretKey, conf.PasswordResetTimeoutDelta),
		conf:     conf,
	}
}

func (svc *Service) CheckUniqueness(ctx context.Context, email string, exclUsers ...User) error {
	if err := svc.repo.CheckEmailUniqueness(ctx, email, exclUsers...); err != nil {
		if errors.Cause(err) == ErrEmailExists {
			return core.NewFieldError("email", ErrEmailExists)
		}
		return err
	}
	return nil
}

// Create registers a new User and sends them a welcome email.
func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	now := time.Now().UTC()
	usr := User{
		ID:        uuid.NewString(),
		Name:      nu.Name,
		Email:     nu.Email,
		Role:      nu.Role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if usr.Role == "" {
		usr.Role = RoleStudent
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		return User{}, errors.Wrap(err, "creating user")
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:              []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:         "Welcome to " + svc.conf.AppName,
		TemplateName:    "welcome",
		TemplateData:    usr,
		FrontendBaseURL: svc.conf.FrontendBaseURL,
	})
	return usr, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
}

// Authenticate checks the credentials and records the login time.
func (svc *Service) Authenticate(ctx context.Context, email, pwd string) (User, error) {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return User{}, ErrInvalidCredentials
		}
		return User{}, errors.Wrap(err, "finding user by email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return User{}, ErrInvalidCredentials
	}
	if !usr.IsActive {
		return User{}, ErrAccountDeactivated
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	usr.LastLogin = now
	usr.UpdatedAt = now
	usr, err = svc.repo.UpdateUser(ctx, usr)
	return usr, errors.Wrap(err, "setting last login")
}

// InvalidateTokens logs the User out of every session.
func (svc *Service) InvalidateTokens(ctx context.Context, id string) (User, error) {
	usr, err := svc.repo.IncrementTokenVersion(ctx, id)
	return usr, errors.Wrap(err, "incrementing token version")
}

// SetPassword changes the User's password and invalidates all their tokens.
func (svc *Service) SetPassword(ctx context.Context, usr User, pwd string) (User, error) {
	if err := usr.SetPassword(pwd); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	usr.UpdatedAt = time.Now().UTC()
	if _, err := svc.repo.UpdateUser(ctx, usr); err != nil {
		return User{}, errors.Wrap(err, "updating user")
	}
	return svc.InvalidateTokens(ctx, usr.ID)
}

// UpdateOrCreate saves the User, creating it when it does not exist yet.
func (svc *Service) UpdateOrCreate(ctx context.Context, usr User, pwd string) (User, error) {
	now := time.Now().UTC()
	usr.UpdatedAt = now
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			return User{}, errors.Wrap(err, "hashing password")
		}
	}
	if usr.ID == "" {
		usr.ID = uuid.NewString()
		usr.CreatedAt = now
		return svc.repo.CreateUser(ctx, usr)
	}
	usr, err := svc.repo.UpdateUser(ctx, usr)
	if err != nil {
		return User{}, err
	}
	if pwd != "" {
		return svc.InvalidateTokens(ctx, usr.ID)
	}
	return usr, nil
}

type passwordResetData struct {
	Name  string
	UID   string
	Token string
}

// RequestPasswordReset emails a password reset link to the active User with this email.
func (svc *Service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !usr.IsActive {
		return ErrAccountDeactivated
	}

	token, err := svc.tokenGen.makeToken(usr)
	if err != nil {
		return errors.Wrap(err, "making password reset token")
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:              []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:         "Password Reset",
		TemplateName:    "password_reset",
		TemplateData:    passwordResetData{Name: usr.Name, UID: EncodeUID(usr), Token: token},
		FrontendBaseURL: svc.conf.FrontendBaseURL,
	})
	return nil
}

// ResetPassword sets the new password when the reset link is valid.
func (svc *Service) ResetPassword(ctx context.Context, data ResetUserPassword) (User, error) {
	invalid := core.NewFieldError("uid", ErrInvalidPasswordReset)

	id, err := decodeUID(data.UID)
	if err != nil {
		return User{}, invalid
	}
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return User{}, invalid
		}
		return User{}, errors.Wrap(err, "finding user by ID")
	}
	if !usr.IsActive {
		return User{}, invalid
	}

	if err = svc.tokenGen.verifyToken(usr, data.Token); err != nil {
		if err == errInvalidToken || err == errTokenExpired {
			return User{}, core.NewFieldError("token", fmt.Errorf("%v: please request a new one", err))
		}
		return User{}, errors.Wrap(err, "verifying token")
	}
	if err = CheckPasswordPolicy(data.Password, usr); err != nil {
		return User{}, err
	}
	return svc.SetPassword(ctx, usr, data.Password)
}
