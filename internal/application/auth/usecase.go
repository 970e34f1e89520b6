package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/pos-api/internal/application/dto"
	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/domain/repository"
	"github.com/jhoicas/pos-api/pkg/jwt"
)

const (
	otpDigits          = 6
	invoiceCodeDigits  = 6
	invoiceCodeRetries = 10
	tokenType          = "Bearer"
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret            string
	ExpMinutes        int
	RefreshExpMinutes int
	Issuer            string
}

// OTPConfig parámetros de los códigos de verificación.
type OTPConfig struct {
	TTL         time.Duration
	MaxAttempts int
	Message     string
}

// AuthUseCase casos de uso de autenticación por teléfono con verificación OTP.
type AuthUseCase struct {
	userRepo repository.UserRepository
	otpStore OTPStore
	sender   OTPSender
	jwtCfg   JWTConfig
	otpCfg   OTPConfig
	log      zerolog.Logger
	newCode  func(digits int) (string, error)
	now      func() time.Time
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(userRepo repository.UserRepository, otpStore OTPStore, sender OTPSender, jwtCfg JWTConfig, otpCfg OTPConfig, log zerolog.Logger) *AuthUseCase {
	if otpCfg.TTL <= 0 {
		otpCfg.TTL = 5 * time.Minute
	}
	if otpCfg.MaxAttempts <= 0 {
		otpCfg.MaxAttempts = 5
	}
	return &AuthUseCase{
		userRepo: userRepo,
		otpStore: otpStore,
		sender:   sender,
		jwtCfg:   jwtCfg,
		otpCfg:   otpCfg,
		log:      log,
		newCode:  randomDigits,
		now:      time.Now,
	}
}

// Register valida que el teléfono no exista y envía un OTP. La contraseña se guarda ya hasheada
// junto al código hasta que se verifique.
func (uc *AuthUseCase) Register(ctx context.Context, in dto.RegisterRequest) (*dto.OTPSentResponse, error) {
	phone := normalizePhone(in.Phone)
	existing, err := uc.userRepo.GetByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrPhoneAlreadyExists
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return uc.issueOTP(ctx, phone, entity.OTPPurposeRegister, map[string]string{
		"phone":         phone,
		"full_name":     strings.TrimSpace(in.FullName),
		"password_hash": string(hash),
	})
}

// VerifyRegister comprueba el código y crea el usuario. Devuelve el usuario y sus tokens.
func (uc *AuthUseCase) VerifyRegister(ctx context.Context, in dto.VerifyOTPRequest) (*dto.TokenResponse, error) {
	entry, err := uc.checkCode(ctx, in.PK, in.Code, entity.OTPPurposeRegister)
	if err != nil {
		return nil, err
	}
	phone := entry.Data["phone"]
	existing, err := uc.userRepo.GetByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		_ = uc.otpStore.Delete(ctx, in.PK)
		return nil, domain.ErrPhoneAlreadyExists
	}

	code, err := uc.uniqueInvoiceCode(ctx)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	user := &entity.User{
		ID:           uuid.New().String(),
		Phone:        phone,
		FullName:     entry.Data["full_name"],
		PasswordHash: entry.Data["password_hash"],
		Role:         entity.RoleOwner,
		IsActive:     true,
		Balance:      decimal.Zero,
		InvoiceCode:  code,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	if err := uc.otpStore.Delete(ctx, in.PK); err != nil {
		uc.log.Warn().Err(err).Str("pk", in.PK).Msg("no se pudo borrar el OTP usado")
	}
	uc.log.Info().Str("user_id", user.ID).Msg("usuario registrado")
	return uc.tokens(user)
}

// Login verifica teléfono y contraseña y envía un OTP.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.OTPSentResponse, error) {
	user, err := uc.userRepo.GetByPhone(ctx, normalizePhone(in.Phone))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return uc.issueOTP(ctx, user.Phone, entity.OTPPurposeLogin, map[string]string{"user_id": user.ID})
}

// VerifyLogin comprueba el código y emite los tokens.
func (uc *AuthUseCase) VerifyLogin(ctx context.Context, in dto.VerifyOTPRequest) (*dto.TokenResponse, error) {
	entry, err := uc.checkCode(ctx, in.PK, in.Code, entity.OTPPurposeLogin)
	if err != nil {
		return nil, err
	}
	_ = uc.otpStore.Delete(ctx, in.PK)
	user, err := uc.userRepo.GetByID(ctx, entry.Data["user_id"])
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return uc.tokens(user)
}

// ForgotPassword envía un OTP de recuperación a un teléfono registrado.
func (uc *AuthUseCase) ForgotPassword(ctx context.Context, in dto.ForgotPasswordRequest) (*dto.OTPSentResponse, error) {
	user, err := uc.userRepo.GetByPhone(ctx, normalizePhone(in.Phone))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return uc.issueOTP(ctx, user.Phone, entity.OTPPurposeReset, map[string]string{"user_id": user.ID})
}

// ForgotVerify comprueba el código de recuperación y deja la entrada marcada como verificada.
// La misma clave sirve como verify_pk para fijar la nueva contraseña.
func (uc *AuthUseCase) ForgotVerify(ctx context.Context, in dto.VerifyOTPRequest) (*dto.ForgotVerifyResponse, error) {
	entry, err := uc.checkCode(ctx, in.PK, in.Code, entity.OTPPurposeReset)
	if err != nil {
		return nil, err
	}
	entry.Verified = true
	if err := uc.otpStore.Update(ctx, in.PK, *entry); err != nil {
		return nil, err
	}
	return &dto.ForgotVerifyResponse{VerifyPK: in.PK}, nil
}

// ForgotUpdate fija la nueva contraseña si verify_pk fue verificado. La entrada se borra tras usarla.
func (uc *AuthUseCase) ForgotUpdate(ctx context.Context, in dto.ForgotUpdatePasswordRequest) error {
	entry, err := uc.otpStore.Get(ctx, in.VerifyPK)
	if err != nil {
		return err
	}
	if entry == nil || entry.Purpose != entity.OTPPurposeReset || !entry.Verified {
		return domain.ErrInvalidOTP
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := uc.userRepo.UpdatePassword(ctx, entry.Data["user_id"], string(hash)); err != nil {
		return err
	}
	if err := uc.otpStore.Delete(ctx, in.VerifyPK); err != nil {
		uc.log.Warn().Err(err).Str("pk", in.VerifyPK).Msg("no se pudo borrar el OTP usado")
	}
	uc.log.Info().Str("user_id", entry.Data["user_id"]).Msg("contraseña actualizada")
	return nil
}

// Refresh emite un nuevo access token. La tienda y el rol se releen de la BD.
func (uc *AuthUseCase) Refresh(ctx context.Context, in dto.RefreshRequest) (*dto.TokenResponse, error) {
	claims, err := jwt.ParseRefresh(uc.jwtCfg.Secret, in.RefreshToken)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}
	user, err := uc.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUnauthorized
	}
	access, err := jwt.Generate(uc.jwtCfg.Secret, user.ID, user.ShopID, user.Role, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}
	return &dto.TokenResponse{AccessToken: access, TokenType: tokenType}, nil
}

// Profile devuelve el usuario de la sesión.
func (uc *AuthUseCase) Profile(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return ToUserResponse(user), nil
}

func (uc *AuthUseCase) issueOTP(ctx context.Context, phone, purpose string, data map[string]string) (*dto.OTPSentResponse, error) {
	code, err := uc.newCode(otpDigits)
	if err != nil {
		return nil, err
	}
	pk := uuid.New().String()
	entry := entity.OTPEntry{Code: code, Purpose: purpose, Data: data}
	if err := uc.otpStore.Save(ctx, pk, entry, uc.otpCfg.TTL); err != nil {
		return nil, fmt.Errorf("otp: guardar: %w", err)
	}
	text := fmt.Sprintf("%s: %s", uc.otpCfg.Message, code)
	if err := uc.sender.Send(ctx, phone, text); err != nil {
		return nil, fmt.Errorf("otp: enviar: %w", err)
	}
	uc.log.Debug().Str("pk", pk).Str("purpose", purpose).Msg("otp emitido")
	return &dto.OTPSentResponse{Message: "código de verificación enviado", PK: pk}, nil
}

// checkCode valida el código contra la entrada pk. El intento se cuenta antes de comparar,
// así nunca se comparan más de MaxAttempts códigos por entrada; al llegar al máximo se borra.
func (uc *AuthUseCase) checkCode(ctx context.Context, pk, code, purpose string) (*entity.OTPEntry, error) {
	entry, err := uc.otpStore.Get(ctx, pk)
	if err != nil {
		return nil, err
	}
	if entry == nil || entry.Purpose != purpose {
		return nil, domain.ErrInvalidOTP
	}

	attempts, err := uc.otpStore.IncrAttempts(ctx, pk)
	if err != nil {
		return nil, err
	}
	if attempts > uc.otpCfg.MaxAttempts {
		return nil, uc.exhaust(ctx, pk)
	}
	if subtle.ConstantTimeCompare([]byte(entry.Code), []byte(code)) == 1 {
		return entry, nil
	}
	if attempts >= uc.otpCfg.MaxAttempts {
		return nil, uc.exhaust(ctx, pk)
	}
	return nil, domain.ErrInvalidOTP
}

func (uc *AuthUseCase) exhaust(ctx context.Context, pk string) error {
	if err := uc.otpStore.Delete(ctx, pk); err != nil {
		return err
	}
	uc.log.Warn().Str("pk", pk).Msg("otp bloqueado por intentos fallidos")
	return domain.ErrTooManyAttempts
}

func (uc *AuthUseCase) uniqueInvoiceCode(ctx context.Context) (string, error) {
	for i := 0; i < invoiceCodeRetries; i++ {
		code, err := uc.newCode(invoiceCodeDigits)
		if err != nil {
			return "", err
		}
		exists, err := uc.userRepo.InvoiceCodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("invoice code: sin códigos libres tras %d intentos: %w", invoiceCodeRetries, domain.ErrConflict)
}

func (uc *AuthUseCase) tokens(user *entity.User) (*dto.TokenResponse, error) {
	access, err := jwt.Generate(uc.jwtCfg.Secret, user.ID, user.ShopID, user.Role, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}
	refresh, err := jwt.GenerateRefresh(uc.jwtCfg.Secret, user.ID, user.ShopID, user.Role, uc.jwtCfg.Issuer, uc.jwtCfg.RefreshExpMinutes)
	if err != nil {
		return nil, err
	}
	return &dto.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    tokenType,
		User:         ToUserResponse(user),
	}, nil
}

// randomDigits genera un código numérico uniforme de n dígitos.
func randomDigits(n int) (string, error) {
	var b strings.Builder
	for i := 0; i < n; i++ {
		d, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + d.Int64()))
	}
	return b.String(), nil
}

func normalizePhone(phone string) string {
	return strings.TrimPrefix(strings.TrimSpace(phone), "+")
}

// ToUserResponse convierte la entidad sin exponer el hash.
func ToUserResponse(u *entity.User) *dto.UserResponse {
	if u == nil {
		return nil
	}
	return &dto.UserResponse{
		ID:          u.ID,
		Phone:       u.Phone,
		FullName:    u.FullName,
		Role:        u.Role,
		IsActive:    u.IsActive,
		IsShop:      u.IsShop,
		ShopID:      u.ShopID,
		Balance:     u.Balance,
		InvoiceCode: u.InvoiceCode,
		CreatedAt:   u.CreatedAt,
	}
}
