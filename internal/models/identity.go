package models

import "github.com/golang-jwt/jwt/v5"

// IdentityClaims are the fields the external identity provider embeds in the
// bearer token. Subject doubles as the teacher ID.
type IdentityClaims struct {
	Email       string `json:"email"`
	DisplayName string `json:"name"`
	jwt.RegisteredClaims
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
