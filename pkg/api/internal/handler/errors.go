package handler

const (
	DetailNotAuthenticated = "Not authenticated"
	DetailTokenExpired     = "Token has expired"
	DetailInvalidToken     = "Invalid token"
)
