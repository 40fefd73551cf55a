// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"phone-verification/internal/verification/domain"
)

// Verification backends.
const (
	BackendSinch  = "sinch"
	BackendTwilio = "twilio"
	BackendLocal  = "local"
)

// Transient store kinds.
const (
	TransientMemory = "memory"
	TransientRedis  = "redis"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// GRPCAddr is the address the gRPC server listens on (e.g. :8080).
	GRPCAddr string `mapstructure:"GRPC_ADDR"`
	// DatabaseURL is the Postgres DSN. Without it profiles, audit and local challenges live in memory.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`

	// VerificationBackend selects the VerificationClient: sinch, twilio or local.
	VerificationBackend string `mapstructure:"VERIFICATION_BACKEND"`
	// AppHash is the hash-shaped backend credential. Mutually exclusive with AppKey/AppSecret.
	AppHash string `mapstructure:"APP_HASH"`
	// AppKey and AppSecret are the key/secret-shaped backend credential.
	AppKey    string `mapstructure:"APP_KEY"`
	AppSecret string `mapstructure:"APP_SECRET"`
	// VerificationMethod is the configured method (SMS, FLASHCALL, CALLOUT).
	VerificationMethod string `mapstructure:"VERIFICATION_METHOD"`
	// PhoneNumberAttribute is the profile attribute holding a user's stored phone number.
	PhoneNumberAttribute string `mapstructure:"IDENTITY_PHONE_NUMBER_ATTRIBUTE"`
	// CodeHidden masks the code input.
	CodeHidden bool `mapstructure:"CODE_HIDDEN"`

	// SinchBaseURL is the Sinch Verification API base URL.
	SinchBaseURL string `mapstructure:"SINCH_BASE_URL"`
	// SinchPlatform is sent as metadata.platform on initiation.
	SinchPlatform string `mapstructure:"SINCH_PLATFORM"`
	// TwilioVerifyServiceSID is the Twilio Verify service (VA...). The account SID and auth token come from APP_KEY/APP_SECRET.
	TwilioVerifyServiceSID string `mapstructure:"TWILIO_VERIFY_SERVICE_SID"`

	// MethodPolicyFile is an optional Rego file overriding the method per phone number.
	MethodPolicyFile string `mapstructure:"METHOD_POLICY_FILE"`

	// FlowStatePrivateKey is the PEM-encoded private key (RSA or ECDSA) or path to file signing the authId.
	// Empty outside production generates an ephemeral key.
	FlowStatePrivateKey string `mapstructure:"FLOW_STATE_PRIVATE_KEY"`
	// FlowStatePublicKey is the PEM-encoded public key or path to file; derived from the private key when empty.
	FlowStatePublicKey string `mapstructure:"FLOW_STATE_PUBLIC_KEY"`
	// FlowStateIssuer and FlowStateAudience are the iss/aud claims of the authId.
	FlowStateIssuer   string `mapstructure:"FLOW_STATE_ISSUER"`
	FlowStateAudience string `mapstructure:"FLOW_STATE_AUDIENCE"`
	// FlowTTLRaw is the lifetime of a flow (e.g. "10m").
	FlowTTLRaw string `mapstructure:"FLOW_TTL"`

	// TransientStore is memory or redis.
	TransientStore string `mapstructure:"TRANSIENT_STORE"`
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	RedisPassword  string `mapstructure:"REDIS_PASSWORD"`
	RedisDB        int    `mapstructure:"REDIS_DB"`
	// TransientSealKey is the base64 32-byte key sealing credentials stored in Redis.
	TransientSealKey string `mapstructure:"TRANSIENT_SEAL_KEY"`

	// SMSLocalAPIKey is the API key for SMS Local (local backend delivery).
	SMSLocalAPIKey string `mapstructure:"SMS_LOCAL_API_KEY"`
	// SMSLocalSender is the optional sender ID for SMS Local.
	SMSLocalSender string `mapstructure:"SMS_LOCAL_SENDER"`
	// SMSLocalBaseURL is the SMS Local API base URL.
	SMSLocalBaseURL string `mapstructure:"SMS_LOCAL_BASE_URL"`
	// OTPReturnToClient enables dev OTP mode for the local backend: no SMS, code readable via DevService.
	// Must not be true when Env is production.
	OTPReturnToClient bool `mapstructure:"OTP_RETURN_TO_CLIENT"`
	// BcryptCost is the bcrypt cost factor (4–31) for local challenge codes; default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`

	// OTLPEndpoint is the OpenTelemetry collector; empty disables export.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPInsecure bool   `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	ServiceName  string `mapstructure:"OTEL_SERVICE_NAME"`

	// FlowEventsKafkaBrokers is a comma-separated list of Kafka brokers; when set flow events are published.
	FlowEventsKafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// FlowEventsKafkaTopic is the Kafka topic for flow events.
	FlowEventsKafkaTopic string `mapstructure:"FLOW_EVENTS_KAFKA_TOPIC"`
	// Worker-only: LokiURL receives flow events consumed from Kafka.
	LokiURL string `mapstructure:"LOKI_URL"`
	// KafkaGroupID is the consumer group ID for the worker.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`
}

var defaults = map[string]interface{}{
	"GRPC_ADDR":                       ":8080",
	"DATABASE_URL":                    "",
	"APP_ENV":                         "",
	"VERIFICATION_BACKEND":            BackendSinch,
	"APP_HASH":                        "",
	"APP_KEY":                         "",
	"APP_SECRET":                      "",
	"VERIFICATION_METHOD":             string(domain.DefaultMethod),
	"IDENTITY_PHONE_NUMBER_ATTRIBUTE": "telephoneNumber",
	"CODE_HIDDEN":                     true,
	"SINCH_BASE_URL":                  "https://verification.api.sinch.com",
	"SINCH_PLATFORM":                  "go",
	"TWILIO_VERIFY_SERVICE_SID":       "",
	"METHOD_POLICY_FILE":              "",
	"FLOW_STATE_PRIVATE_KEY":          "",
	"FLOW_STATE_PUBLIC_KEY":           "",
	"FLOW_STATE_ISSUER":               "phone-verification",
	"FLOW_STATE_AUDIENCE":             "phone-verification-client",
	"FLOW_TTL":                        "10m",
	"TRANSIENT_STORE":                 TransientMemory,
	"REDIS_ADDR":                      "localhost:6379",
	"REDIS_PASSWORD":                  "",
	"REDIS_DB":                        0,
	"TRANSIENT_SEAL_KEY":              "",
	"SMS_LOCAL_API_KEY":               "",
	"SMS_LOCAL_SENDER":                "",
	"SMS_LOCAL_BASE_URL":              "https://app.smslocal.in/api/smsapi",
	"OTP_RETURN_TO_CLIENT":            false,
	"BCRYPT_COST":                     12,
	"OTEL_EXPORTER_OTLP_ENDPOINT":     "",
	"OTEL_EXPORTER_OTLP_INSECURE":     false,
	"OTEL_SERVICE_NAME":               "phone-verification",
	"KAFKA_BROKERS":                   "",
	"FLOW_EVENTS_KAFKA_TOPIC":         "phone-verification-events",
	"LOKI_URL":                        "",
	"KAFKA_GROUP_ID":                  "phone-verification-worker",
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	cfg, err := LoadUnchecked()
	if err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadUnchecked reads the config like Load but skips the server validations. Used by the migrate,
// seed and worker binaries, which need neither backend credentials nor signing keys.
func LoadUnchecked() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.GRPCAddr == "" {
		return errors.New("config: GRPC_ADDR must be set")
	}
	if c.OTPReturnToClient && c.IsProduction() {
		return errors.New("config: OTP_RETURN_TO_CLIENT must not be true when APP_ENV=production")
	}
	if c.BcryptCost == 0 {
		c.BcryptCost = 12
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	switch c.VerificationBackend {
	case BackendSinch, BackendTwilio, BackendLocal:
	default:
		return fmt.Errorf("config: VERIFICATION_BACKEND must be sinch, twilio or local, got %q", c.VerificationBackend)
	}
	if _, err := domain.ParseMethod(c.VerificationMethod); err != nil {
		return fmt.Errorf("config: VERIFICATION_METHOD: %w", err)
	}
	if c.AppHash != "" && (c.AppKey != "" || c.AppSecret != "") {
		return errors.New("config: set either APP_HASH or APP_KEY/APP_SECRET, not both")
	}
	if (c.AppKey == "") != (c.AppSecret == "") {
		return errors.New("config: APP_KEY and APP_SECRET must be set together")
	}
	if c.VerificationBackend != BackendLocal && c.Credentials().IsZero() {
		return fmt.Errorf("config: %s backend requires APP_HASH or APP_KEY/APP_SECRET", c.VerificationBackend)
	}
	if c.VerificationBackend == BackendTwilio && c.TwilioVerifyServiceSID == "" {
		return errors.New("config: TWILIO_VERIFY_SERVICE_SID is required for the twilio backend")
	}

	if c.FlowStatePrivateKey == "" && c.IsProduction() {
		return errors.New("config: FLOW_STATE_PRIVATE_KEY is required when APP_ENV=production")
	}
	if _, err := time.ParseDuration(c.FlowTTLRaw); err != nil {
		return fmt.Errorf("config: FLOW_TTL: %w", err)
	}

	switch c.TransientStore {
	case TransientMemory:
	case TransientRedis:
		if c.RedisAddr == "" {
			return errors.New("config: REDIS_ADDR is required when TRANSIENT_STORE=redis")
		}
		if _, err := c.SealKey(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("config: TRANSIENT_STORE must be memory or redis, got %q", c.TransientStore)
	}
	return nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Credentials returns the configured backend credentials; zero when none are set.
func (c *Config) Credentials() domain.Credentials {
	if c.AppHash != "" {
		return domain.AppHashCredentials(c.AppHash)
	}
	return domain.AppKeySecretCredentials(c.AppKey, []byte(c.AppSecret))
}

// Method returns the configured verification method.
func (c *Config) Method() domain.Method {
	m, err := domain.ParseMethod(c.VerificationMethod)
	if err != nil {
		return domain.DefaultMethod
	}
	return m
}

// FlowTTL parses FlowTTLRaw. Returns 10m if unset or invalid.
func (c *Config) FlowTTL() time.Duration {
	d, err := time.ParseDuration(c.FlowTTLRaw)
	if err != nil || d <= 0 {
		return 10 * time.Minute
	}
	return d
}

// SealKey decodes TransientSealKey (standard base64, 32 bytes).
func (c *Config) SealKey() ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(c.TransientSealKey)
	if err != nil {
		return nil, fmt.Errorf("config: TRANSIENT_SEAL_KEY must be base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("config: TRANSIENT_SEAL_KEY must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}

// FlowEventsKafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// An empty list disables publishing.
func (c *Config) FlowEventsKafkaBrokersList() []string {
	if c == nil || c.FlowEventsKafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.FlowEventsKafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
