// Package services contains server-side business logic. This file implements
// UserService, which registers users, checks their passwords, and issues and
// verifies the bearer tokens the REST layer accepts.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/cryptox"
	"github.com/dmitrijs2005/todokeeper/internal/server/auth"
	"github.com/dmitrijs2005/todokeeper/internal/server/config"
	"github.com/dmitrijs2005/todokeeper/internal/server/models"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/repomanager"
)

// MaxUserNameLength bounds usernames; the users table enforces the same limit.
const MaxUserNameLength = 150

// UserService provides authentication-related operations:
// - Register: create users
// - Login: verify credentials and mint a token
// - Authenticate: resolve a presented token to its user
type UserService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:                          db,
		repomanager:                 m,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
	}
}

// Register creates a user with the given username and password. Only a salt
// and the derived verifier are stored. A taken username yields
// common.ErrorAlreadyExists; a blank or overlong username or an empty
// password yields a *common.ValidationError.
func (s *UserService) Register(ctx context.Context, username string, password []byte) (*models.User, error) {
	v := common.NewValidationError()
	switch {
	case strings.TrimSpace(username) == "":
		v.Add("username", "This field may not be blank.")
	case utf8.RuneCountInString(username) > MaxUserNameLength:
		v.Add("username", fmt.Sprintf("Ensure this field has no more than %d characters.", MaxUserNameLength))
	}
	if len(password) == 0 {
		v.Add("password", "This field may not be blank.")
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	salt := cryptox.NewSalt()
	user := &models.User{
		UserName: username,
		Salt:     salt,
		Verifier: cryptox.HashPassword(password, salt),
	}

	repo := s.repomanager.Users(s.db)
	u, err := repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u, nil
}

// Login checks password for userName and, on success, returns a fresh token.
// Unknown users and wrong passwords both yield common.ErrorUnauthorized.
func (s *UserService) Login(ctx context.Context, userName string, password []byte) (string, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetUserByLogin(ctx, userName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// burn the same KDF time as a real check
			cryptox.CheckPassword(password, s.getRandomSalt(), nil)
			return "", common.ErrorUnauthorized
		}
		return "", common.ErrorInternal
	}

	if !cryptox.CheckPassword(password, user.Salt, user.Verifier) {
		return "", common.ErrorUnauthorized
	}

	token, err := s.generateAccessToken(user.ID)
	if err != nil {
		return "", common.ErrorInternal
	}
	return token, nil
}

// Authenticate resolves token to the user it was issued to.
//
// A token that fails verification yields an error matching
// common.ErrInvalidToken (or common.ErrTokenExpired). A valid token whose user
// no longer exists yields common.ErrorUnauthorized.
func (s *UserService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	userID, err := auth.GetUserIDFromToken(token, s.jwtSecret)
	if err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	return user, nil
}

// --- helpers below ---

func (s *UserService) getRandomSalt() []byte { return cryptox.NewSalt() }

func (s *UserService) generateAccessToken(userID int64) (string, error) {
	return auth.GenerateToken(userID, s.jwtSecret, s.accessTokenValidityDuration)
}
