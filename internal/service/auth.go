package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/4hbab/pixel-market/internal/apperror"
	"github.com/4hbab/pixel-market/internal/auth"
	"github.com/4hbab/pixel-market/internal/model"
	"github.com/4hbab/pixel-market/internal/repository"
)

// startingBalance is the pixel-coin grant every new account receives.
const startingBalance = 5000

// starterPalette is the inventory every new account starts with. The
// catalog rows are ensured on first use, so a fresh database works
// without any seeding step.
var starterPalette = []struct {
	block model.PixelBlock
	count int
}{
	{model.PixelBlock{ID: "neon-cyan", Name: "Neon Cyan", Tone: "neon", Rarity: model.RarityRare, RGB: "#0ea5e9"}, 42},
	{model.PixelBlock{ID: "neon-pink", Name: "Neon Pink", Tone: "neon", Rarity: model.RarityUncommon, RGB: "#ef5da8"}, 24},
	{model.PixelBlock{ID: "neon-purple", Name: "Neon Purple", Tone: "neon", Rarity: model.RarityUncommon, RGB: "#a855f7"}, 18},
	{model.PixelBlock{ID: "soft-yellow", Name: "Soft Yellow", Tone: "soft", Rarity: model.RarityCommon, RGB: "#f5d565"}, 36},
	{model.PixelBlock{ID: "soft-coral", Name: "Soft Coral", Tone: "soft", Rarity: model.RarityRare, RGB: "#f58b7c"}, 28},
	{model.PixelBlock{ID: "soft-mint", Name: "Soft Mint", Tone: "soft", Rarity: model.RarityCommon, RGB: "#7ad9c1"}, 30},
	{model.PixelBlock{ID: "retro-green", Name: "Retro Green", Tone: "retro", Rarity: model.RarityCommon, RGB: "#3ba56a"}, 40},
	{model.PixelBlock{ID: "retro-orange", Name: "Retro Orange", Tone: "retro", Rarity: model.RarityRare, RGB: "#f97316"}, 22},
	{model.PixelBlock{ID: "retro-blue", Name: "Retro Blue", Tone: "retro", Rarity: model.RarityCommon, RGB: "#3b82f6"}, 34},
	{model.PixelBlock{ID: "earth-brown", Name: "Earth Brown", Tone: "nature", Rarity: model.RarityCommon, RGB: "#8b5a2b"}, 26},
	{model.PixelBlock{ID: "leaf", Name: "Leaf", Tone: "nature", Rarity: model.RarityCommon, RGB: "#22c55e"}, 32},
	{model.PixelBlock{ID: "sky", Name: "Sky", Tone: "nature", Rarity: model.RarityRare, RGB: "#38bdf8"}, 27},
}

// Credentials of the throwaway demo account bootstrapped on first
// login. Handy for trying the API against an empty database.
const (
	demoEmail    = "demo@example.com"
	demoHandle   = "pixelwalker"
	demoPassword = "password"
)

// AuthService handles registration, login, and profile management.
type AuthService struct {
	store     repository.Store
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAuthService(
	store repository.Store,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		store:     store,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the user record and the issued JWT so the handler
// can respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Register creates a new account with the starting balance and starter
// palette, then issues a token. The account insert and the palette
// grant are one transaction — no half-provisioned users.
func (s *AuthService) Register(ctx context.Context, email, password, handle string) (*AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	handle = strings.TrimSpace(handle)
	if email == "" || password == "" || handle == "" {
		return nil, apperror.ValidationFailed("", "email, password, and handle are required")
	}

	// Pre-checks give clean conflict messages; the UNIQUE constraints
	// are the backstop against races.
	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return nil, apperror.Conflict("email is already registered")
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: checking email: %w", err)
	}
	if _, err := s.store.GetUserByHandle(ctx, handle); err == nil {
		return nil, apperror.Conflict("handle is already taken")
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: checking handle: %w", err)
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	user := &model.User{
		Handle:       handle,
		Email:        email,
		PasswordHash: hash,
		Balance:      startingBalance,
	}
	err = s.store.InTx(ctx, func(tx repository.Store) error {
		if err := tx.CreateUser(ctx, user); err != nil {
			return err
		}
		return grantStarterPalette(ctx, tx, user.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("service/auth: registering user: %w", err)
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("handle", handle),
	)

	token, err := s.tokens.Generate(user.ID, user.Handle)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token: %w", err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

// Login verifies credentials and issues a token. Unknown email and
// wrong password return the same unauthorized error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, apperror.ValidationFailed("", "email and password are required")
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, apperror.ErrNotFound) && email == demoEmail {
		user, err = s.bootstrapDemoUser(ctx)
	}
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("invalid email or password")
		}
		return nil, fmt.Errorf("service/auth: looking up user: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.Unauthorized("invalid email or password")
	}

	// Older accounts may predate the starter palette; top them up once.
	err = s.store.InTx(ctx, func(tx repository.Store) error {
		return grantStarterPalette(ctx, tx, user.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("service/auth: ensuring starter palette: %w", err)
	}

	token, err := s.tokens.Generate(user.ID, user.Handle)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token: %w", err)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))
	return &AuthResult{User: user, Token: token}, nil
}

// GetUserByID returns the profile for /api/users/me.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperror.ValidationFailed("id", "user ID is required")
	}
	return s.store.GetUserByID(ctx, id)
}

// UpdateHandle changes the user's display handle, keeping it unique.
func (s *AuthService) UpdateHandle(ctx context.Context, id, handle string) (*model.User, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, apperror.ValidationFailed("handle", "handle is required")
	}

	if existing, err := s.store.GetUserByHandle(ctx, handle); err == nil && existing.ID != id {
		return nil, apperror.Conflict("handle is already taken")
	} else if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: checking handle: %w", err)
	}

	if err := s.store.UpdateHandle(ctx, id, handle); err != nil {
		return nil, err
	}
	return s.store.GetUserByID(ctx, id)
}

// bootstrapDemoUser provisions the demo account the first time someone
// logs in with its email against an empty database.
func (s *AuthService) bootstrapDemoUser(ctx context.Context) (*model.User, error) {
	hash, err := s.passwords.Hash(demoPassword)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing demo password: %w", err)
	}

	user := &model.User{
		Handle:       demoHandle,
		Email:        demoEmail,
		PasswordHash: hash,
		Balance:      startingBalance,
	}
	err = s.store.InTx(ctx, func(tx repository.Store) error {
		if err := tx.CreateUser(ctx, user); err != nil {
			return err
		}
		return grantStarterPalette(ctx, tx, user.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("service/auth: bootstrapping demo user: %w", err)
	}

	s.logger.Info("demo user bootstrapped", slog.String("userID", user.ID))
	return user, nil
}

// grantStarterPalette gives userID the starter inventory unless they
// already hold any palette rows. Runs inside the caller's transaction.
func grantStarterPalette(ctx context.Context, tx repository.Store, userID string) error {
	has, err := tx.HasPalette(ctx, userID)
	if err != nil {
		return err
	}
	if has {
		return nil
	}

	for _, starter := range starterPalette {
		block := starter.block
		if _, err := tx.EnsureBlock(ctx, &block); err != nil {
			return err
		}
		if err := tx.UpsertPalette(ctx, userID, block.ID, starter.count); err != nil {
			return err
		}
	}
	return nil
}
