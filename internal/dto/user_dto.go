package dto

import (
	"github.com/golang-jwt/jwt/v5"

	"mindmetric/internal/domain"
)

// AuthClaims are the JWT claims carried by access and refresh tokens.
type AuthClaims struct {
	UserID    string `json:"uid"`
	TokenType string `json:"token_type"` // "access" or "refresh"
	jwt.RegisteredClaims
}

// GoogleUserInfo is the subset of the Google userinfo payload we consume.
type GoogleUserInfo struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// TokenPairResponse carries a freshly issued token pair.
type TokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// RefreshTokenRequest is the body of POST /auth/refresh.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// UserProfileResponse is the reply to GET /users/me.
type UserProfileResponse struct {
	ID                string              `json:"id"`
	Email             string              `json:"email"`
	Name              string              `json:"name"`
	ProfilePictureURL string              `json:"profile_picture_url,omitempty"`
	Demographics      domain.Demographics `json:"demographics"`
}

// UpdateDemographicsRequest is the body of PUT /users/me/demographics.
type UpdateDemographicsRequest struct {
	Age       int    `json:"age,omitempty"`
	Gender    string `json:"gender,omitempty"`
	Education string `json:"education,omitempty"`
	Country   string `json:"country,omitempty"`
}
