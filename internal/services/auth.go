package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	userrepo "github.com/yungbote/smartstudy-backend/internal/data/repos/user"
	types "github.com/yungbote/smartstudy-backend/internal/domain"
	"github.com/yungbote/smartstudy-backend/internal/pkg/dbctx"
	"github.com/yungbote/smartstudy-backend/internal/platform/apierr"
	"github.com/yungbote/smartstudy-backend/internal/platform/ctxutil"
	"github.com/yungbote/smartstudy-backend/internal/platform/logger"
)

const minPasswordLen = 6

var errInvalidCredentials = apierr.Unauthorized("invalid_credentials", "invalid username or password")

type JWTClaims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

type RegisterInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
}

type LoginInput struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

type Profile struct {
	UserID   uuid.UUID `json:"userId"`
	Username string    `json:"username"`
	FullName string    `json:"fullName"`
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) error
	// Login returns a signed access token and records the sign-in.
	Login(ctx context.Context, in LoginInput) (string, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	Me(ctx context.Context, userID uuid.UUID) (*Profile, error)
}

type authService struct {
	db           *gorm.DB
	log          *logger.Logger
	users        userrepo.UserRepo
	logins       userrepo.LoginEventRepo
	jwtSecretKey string
	accessTTL    time.Duration
	now          func() time.Time
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	users userrepo.UserRepo,
	logins userrepo.LoginEventRepo,
	jwtSecretKey string,
	accessTTL time.Duration,
) AuthService {
	if accessTTL <= 0 {
		accessTTL = 8 * time.Hour
	}
	return &authService{
		db:           db,
		log:          log.With("service", "AuthService"),
		users:        users,
		logins:       logins,
		jwtSecretKey: jwtSecretKey,
		accessTTL:    accessTTL,
		now:          time.Now,
	}
}

func (as *authService) Register(ctx context.Context, in RegisterInput) error {
	username := strings.TrimSpace(in.Username)
	fullName := strings.TrimSpace(in.FullName)
	if username == "" || in.Password == "" {
		return apierr.BadRequest("missing_fields", "username and password are required")
	}
	if len(in.Password) < minPasswordLen {
		return apierr.BadRequest("weak_password", fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	now := as.now().UTC()
	user := &types.User{
		ID:        uuid.New(),
		Username:  username,
		Password:  string(hash),
		FullName:  fullName,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		exists, err := as.users.UsernameExists(dbc, username)
		if err != nil {
			return fmt.Errorf("check username: %w", err)
		}
		if exists {
			return apierr.BadRequest("username_taken", "username already taken")
		}
		if _, err := as.users.Create(dbc, []*types.User{user}); err != nil {
			if userrepo.IsUniqueViolation(err) {
				return apierr.BadRequest("username_taken", "username already taken")
			}
			return fmt.Errorf("insert user: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	as.log.Info("User registered", "user_id", user.ID)
	return nil
}

func (as *authService) Login(ctx context.Context, in LoginInput) (string, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		return "", apierr.BadRequest("missing_fields", "username and password are required")
	}
	dbc := dbctx.Context{Ctx: ctx}
	user, err := as.users.GetByUsername(dbc, username)
	if err != nil {
		return "", fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return "", errInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		return "", errInvalidCredentials
	}

	token, err := as.generateAccessToken(user)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	event := &types.LoginEvent{
		UserID:    user.ID,
		IP:        in.IP,
		UserAgent: in.UserAgent,
		CreatedAt: as.now().UTC(),
	}
	if _, err := as.logins.Create(dbc, []*types.LoginEvent{event}); err != nil {
		return "", fmt.Errorf("record login: %w", err)
	}
	return token, nil
}

func (as *authService) generateAccessToken(user *types.User) (string, error) {
	now := as.now()
	claims := JWTClaims{
		UserID: user.ID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}

// SetContextFromToken validates tokenString and stores the caller's id on ctx.
func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, apierr.Unauthorized("missing_token", "missing token")
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.jwtSecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(as.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ctx, apierr.New(http.StatusUnauthorized, "token_expired", "token expired", err)
		}
		return ctx, apierr.New(http.StatusUnauthorized, "invalid_token", "invalid token", err)
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return ctx, apierr.Unauthorized("invalid_token", "invalid token")
	}
	raw := claims.UserID
	if raw == "" {
		raw = claims.Subject
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return ctx, apierr.New(http.StatusUnauthorized, "invalid_token", "invalid token", err)
	}
	return ctxutil.WithUserID(ctx, userID), nil
}

func (as *authService) Me(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	users, err := as.users.GetByIDs(dbctx.Context{Ctx: ctx}, []uuid.UUID{userID})
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if len(users) == 0 {
		return nil, apierr.NotFound("user_not_found", "user not found")
	}
	u := users[0]
	return &Profile{UserID: u.ID, Username: u.Username, FullName: u.FullName}, nil
}
