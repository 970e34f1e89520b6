package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegisterRequest primer paso del registro: se valida y se envía un OTP al teléfono.
type RegisterRequest struct {
	Phone    string `json:"phone" validate:"required,phone"`
	FullName string `json:"full_name" validate:"required,min=1,max=200"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

// LoginRequest primer paso del login: credenciales; si son válidas se envía un OTP.
type LoginRequest struct {
	Phone    string `json:"phone" validate:"required,phone"`
	Password string `json:"password" validate:"required"`
}

// VerifyOTPRequest segundo paso de registro, login o recuperación.
type VerifyOTPRequest struct {
	PK   string `json:"pk" validate:"required,uuid"`
	Code string `json:"code" validate:"required,len=6,numeric"`
}

// ForgotPasswordRequest inicia la recuperación de contraseña.
type ForgotPasswordRequest struct {
	Phone string `json:"phone" validate:"required,phone"`
}

// ForgotUpdatePasswordRequest fija la nueva contraseña tras verificar el OTP.
type ForgotUpdatePasswordRequest struct {
	VerifyPK string `json:"verify_pk" validate:"required,uuid"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

// RefreshRequest pide un nuevo access token.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// OTPSentResponse respuesta al emitir un OTP: pk identifica la sesión de verificación.
type OTPSentResponse struct {
	Message string `json:"message"`
	PK      string `json:"pk"`
}

// ForgotVerifyResponse respuesta al verificar el OTP de recuperación.
type ForgotVerifyResponse struct {
	VerifyPK string `json:"verify_pk"`
}

// UserResponse salida de un usuario (sin password).
type UserResponse struct {
	ID          string          `json:"id"`
	Phone       string          `json:"phone"`
	FullName    string          `json:"full_name"`
	Role        string          `json:"role"`
	IsActive    bool            `json:"is_active"`
	IsShop      bool            `json:"is_shop"`
	ShopID      string          `json:"shop_id,omitempty"`
	Balance     decimal.Decimal `json:"balance"`
	InvoiceCode string          `json:"invoice_code"`
	CreatedAt   time.Time       `json:"created_at"`
}

// TokenResponse par de tokens de sesión.
type TokenResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token,omitempty"`
	TokenType    string        `json:"token_type"`
	User         *UserResponse `json:"user,omitempty"`
}
