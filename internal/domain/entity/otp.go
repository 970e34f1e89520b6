package entity

// Propósitos de un código OTP.
const (
	OTPPurposeRegister = "register"
	OTPPurposeLogin    = "login"
	OTPPurposeReset    = "reset"
)

// OTPEntry código pendiente de verificación guardado bajo una clave pk.
// Data lleva lo necesario para completar el paso: datos del registro o el user_id.
// Los intentos fallidos se cuentan aparte, en OTPStore.IncrAttempts.
type OTPEntry struct {
	Code     string            `json:"code"`
	Purpose  string            `json:"purpose"`
	Data     map[string]string `json:"data,omitempty"`
	Verified bool              `json:"verified"`
}
