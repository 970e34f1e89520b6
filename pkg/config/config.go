package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App       AppConfig
	DB        DBConfig
	JWT       JWTConfig
	HTTP      HTTPConfig
	Redis     RedisConfig
	OTP       OTPConfig
	Notify    NotifyConfig
	Sales     SalesConfig
	Analytics AnalyticsConfig
	Billing   BillingConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string // trace, debug, info, warn, error
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	AutoMigrate bool // aplica las migraciones embebidas al arrancar
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// JWTConfig configuración de JWT.
type JWTConfig struct {
	Secret            string
	Expiration        int // minutos (access token)
	RefreshExpiration int // minutos (refresh token)
	Issuer            string
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RedisConfig conexión al almacén clave-valor de los códigos OTP.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// OTPConfig parámetros de los códigos de un solo uso.
type OTPConfig struct {
	TTL            time.Duration
	MaxAttempts    int
	RequestsLimit  int // solicitudes permitidas por IP en RequestsWindow
	RequestsWindow time.Duration
	Message        string // prefijo del texto enviado al usuario
}

// NotifyConfig credenciales de los canales de entrega del OTP.
// Un canal sin credenciales queda deshabilitado.
type NotifyConfig struct {
	EskizBaseURL     string
	EskizEmail       string
	EskizPassword    string
	EskizFrom        string
	TelegramBaseURL  string
	TelegramBotToken string
	TelegramChatID   string
	Timeout          time.Duration
}

// SalesConfig políticas del motor de ventas.
type SalesConfig struct {
	// AllowNegativeStockAutofill: si es true, una venta con stock insuficiente repone
	// automáticamente la diferencia (registrando un ajuste) en lugar de rechazarse.
	AllowNegativeStockAutofill bool
}

// AnalyticsConfig parámetros del reporte de ventas.
type AnalyticsConfig struct {
	Timezone string
	TopN     int
}

// BillingConfig parámetros del cobro periódico de la suscripción.
type BillingConfig struct {
	Enabled    bool
	MonthlyFee decimal.Decimal
	ChunkSize  int
	Interval   time.Duration
	PeriodDays int
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, DB_HOST, JWT_SECRET, REDIS_ADDR, etc.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	fee, err := decimal.NewFromString(getString(v, "BILLING_MONTHLY_FEE", "50000"))
	if err != nil {
		return nil, fmt.Errorf("BILLING_MONTHLY_FEE inválido: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "pos-api"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "pos"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
			AutoMigrate: getBool(v, "DB_AUTO_MIGRATE", false),
		},
		JWT: JWTConfig{
			Secret:            getString(v, "JWT_SECRET", ""),
			Expiration:        getInt(v, "JWT_EXPIRATION_MINUTES", 60),
			RefreshExpiration: getInt(v, "JWT_REFRESH_EXPIRATION_MINUTES", 60*24*7),
			Issuer:            getString(v, "JWT_ISSUER", "pos-api"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		Redis: RedisConfig{
			Addr:     getString(v, "REDIS_ADDR", "localhost:6379"),
			Password: getString(v, "REDIS_PASSWORD", ""),
			DB:       getInt(v, "REDIS_DB", 0),
		},
		OTP: OTPConfig{
			TTL:            getDuration(v, "OTP_TTL", 5*time.Minute),
			MaxAttempts:    getInt(v, "OTP_MAX_ATTEMPTS", 5),
			RequestsLimit:  getInt(v, "OTP_RATE_LIMIT", 5),
			RequestsWindow: getDuration(v, "OTP_RATE_WINDOW", time.Minute),
			Message:        getString(v, "OTP_MESSAGE", "Tasdiqlash kodi"),
		},
		Notify: NotifyConfig{
			EskizBaseURL:     getString(v, "ESKIZ_BASE_URL", "https://notify.eskiz.uz/api"),
			EskizEmail:       getString(v, "ESKIZ_EMAIL", ""),
			EskizPassword:    getString(v, "ESKIZ_PASSWORD", ""),
			EskizFrom:        getString(v, "ESKIZ_FROM", "4546"),
			TelegramBaseURL:  getString(v, "TELEGRAM_BASE_URL", "https://api.telegram.org"),
			TelegramBotToken: getString(v, "TELEGRAM_BOT_TOKEN", ""),
			TelegramChatID:   getString(v, "TELEGRAM_CHAT_ID", ""),
			Timeout:          getDuration(v, "NOTIFY_TIMEOUT", 10*time.Second),
		},
		Sales: SalesConfig{
			AllowNegativeStockAutofill: getBool(v, "SALES_ALLOW_NEGATIVE_STOCK_AUTOFILL", false),
		},
		Analytics: AnalyticsConfig{
			Timezone: getString(v, "ANALYTICS_TIMEZONE", "Asia/Tashkent"),
			TopN:     getInt(v, "ANALYTICS_TOP_N", 20),
		},
		Billing: BillingConfig{
			Enabled:    getBool(v, "BILLING_ENABLED", true),
			MonthlyFee: fee,
			ChunkSize:  getInt(v, "BILLING_CHUNK_SIZE", 500),
			Interval:   getDuration(v, "BILLING_INTERVAL", 24*time.Hour),
			PeriodDays: getInt(v, "BILLING_PERIOD_DAYS", 30),
		},
	}

	return cfg, nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(v.GetString(key))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if v.IsSet(key) {
		return v.GetBool(key)
	}
	return def
}

// getDuration acepta "5m", "24h" o segundos enteros.
func getDuration(v *viper.Viper, key string, def time.Duration) time.Duration {
	if !v.IsSet(key) {
		return def
	}
	raw := strings.TrimSpace(v.GetString(key))
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}
