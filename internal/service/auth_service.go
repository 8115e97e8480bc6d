package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mindmetric/internal/cache"
	"mindmetric/internal/config"
	"mindmetric/internal/domain"
	"mindmetric/internal/dto"
	"mindmetric/internal/logger"
	"mindmetric/internal/util"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"

	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// AuthService handles Google login and JWT issuance.
type AuthService interface {
	// GetGoogleLoginURL returns the Google consent page URL for the given
	// CSRF state value.
	GetGoogleLoginURL(state string) string

	// HandleGoogleCallback exchanges the authorization code, upserts the
	// user and issues a token pair.
	HandleGoogleCallback(ctx context.Context, code string) (*dto.TokenPairResponse, error)

	// RefreshTokens rotates a valid refresh token into a new pair.
	RefreshTokens(ctx context.Context, refreshToken string) (*dto.TokenPairResponse, error)

	// ValidateAccessToken parses and verifies an access token.
	ValidateAccessToken(tokenString string) (*dto.AuthClaims, error)

	// Logout revokes the user's refresh token.
	Logout(ctx context.Context, userID string) error
}

type authService struct {
	userRepo    domain.UserRepository
	cacheClient domain.Cache
	oauthConfig *oauth2.Config
	jwtConfig   config.JWTConfig
	now         func() time.Time
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo domain.UserRepository, cacheClient domain.Cache, cfg *config.Config) AuthService {
	return &authService{
		userRepo:    userRepo,
		cacheClient: cacheClient,
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.GoogleOAuth.ClientID,
			ClientSecret: cfg.GoogleOAuth.ClientSecret,
			RedirectURL:  cfg.GoogleOAuth.RedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		jwtConfig: cfg.JWT,
		now:       time.Now,
	}
}

func (s *authService) GetGoogleLoginURL(state string) string {
	return s.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

func (s *authService) HandleGoogleCallback(ctx context.Context, code string) (*dto.TokenPairResponse, error) {
	token, err := s.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, domain.NewError(domain.CodeUnauthorized, "Failed to exchange authorization code", err)
	}

	info, err := s.fetchGoogleUserInfo(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetUserByGoogleID(ctx, info.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		user = &domain.User{
			GoogleID:          info.ID,
			Email:             info.Email,
			Name:              info.Name,
			ProfilePictureURL: info.Picture,
		}
		if err := s.userRepo.CreateUser(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		logger.Get().Info("new user registered", zap.String("user_id", user.ID))
	}

	return s.issueTokenPair(ctx, user.ID)
}

func (s *authService) fetchGoogleUserInfo(ctx context.Context, token *oauth2.Token) (*dto.GoogleUserInfo, error) {
	client := s.oauthConfig.Client(ctx, token)
	resp, err := client.Get(googleUserInfoURL)
	if err != nil {
		return nil, domain.NewError(domain.CodeUnauthorized, "Failed to fetch user info from Google", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, domain.NewError(domain.CodeUnauthorized,
			fmt.Sprintf("Google user info returned status %d", resp.StatusCode), nil)
	}

	var info dto.GoogleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, domain.NewError(domain.CodeUnauthorized, "Failed to decode Google user info", err)
	}
	if info.ID == "" || info.Email == "" {
		return nil, domain.NewError(domain.CodeUnauthorized, "Google user info is missing required fields", nil)
	}
	return &info, nil
}

func (s *authService) RefreshTokens(ctx context.Context, refreshToken string) (*dto.TokenPairResponse, error) {
	claims, err := s.parseToken(refreshToken)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != tokenTypeRefresh {
		return nil, domain.NewAuthorizationError("Token is not a refresh token")
	}

	// Only the most recently issued refresh token is honored.
	stored, err := s.cacheClient.Get(ctx, refreshTokenKey(claims.UserID))
	if err != nil {
		if errors.Is(err, domain.ErrCacheMiss) {
			return nil, domain.NewAuthorizationError("Refresh token has been revoked")
		}
		return nil, fmt.Errorf("failed to verify refresh token: %w", err)
	}
	if stored != refreshToken {
		return nil, domain.NewAuthorizationError("Refresh token has been superseded")
	}

	return s.issueTokenPair(ctx, claims.UserID)
}

func (s *authService) ValidateAccessToken(tokenString string) (*dto.AuthClaims, error) {
	claims, err := s.parseToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != tokenTypeAccess {
		return nil, domain.NewAuthorizationError("Token is not an access token")
	}
	return claims, nil
}

func (s *authService) Logout(ctx context.Context, userID string) error {
	if err := s.cacheClient.Delete(ctx, refreshTokenKey(userID)); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

func (s *authService) issueTokenPair(ctx context.Context, userID string) (*dto.TokenPairResponse, error) {
	accessToken, err := s.signToken(userID, tokenTypeAccess, s.jwtConfig.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}
	refreshToken, err := s.signToken(userID, tokenTypeRefresh, s.jwtConfig.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	if err := s.cacheClient.Set(ctx, refreshTokenKey(userID), refreshToken, s.jwtConfig.RefreshTokenTTL); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &dto.TokenPairResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (s *authService) signToken(userID, tokenType string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := dto.AuthClaims{
		UserID:    userID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        util.NewULID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtConfig.SecretKey))
}

func (s *authService) parseToken(tokenString string) (*dto.AuthClaims, error) {
	claims := &dto.AuthClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.jwtConfig.SecretKey), nil
	})
	if err != nil || !token.Valid {
		return nil, domain.NewError(domain.CodeUnauthorized, "Invalid or expired token", err)
	}
	if claims.UserID == "" {
		return nil, domain.NewAuthorizationError("Token is missing its subject")
	}
	return claims, nil
}

func refreshTokenKey(userID string) string {
	return cache.GenerateCacheKey("auth:refresh", userID)
}
