package config

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Runtime setting keys. The names match the environment variables operators
// already use, so the same key works in the env layer and the persisted layer.
const (
	KeyGatewayAPIKey    = "ASAAS_API_KEY"
	KeyGatewayBaseURL   = "ASAAS_BASE_URL"
	KeyBankBaseURL      = "INTER_BASE_URL"
	KeyBankClientID     = "INTER_CLIENT_ID"
	KeyBankClientSecret = "INTER_CLIENT_SECRET"
	KeyBankCertPath     = "INTER_CERT"
	KeyBankKeyPath      = "INTER_KEY"
	KeyBankCertRaw      = "INTER_CERT_RAW"
	KeyBankKeyRaw       = "INTER_KEY_RAW"
	KeySMTPServer       = "SMTP_SERVER"
	KeySMTPPort         = "SMTP_PORT"
	KeySMTPUser         = "SMTP_USER"
	KeySMTPPassword     = "SMTP_PASSWORD"
	KeySMTPFrom         = "SMTP_FROM"
	KeyEmailTransport   = "EMAIL_TRANSPORT"
	KeySendGridAPIKey   = "SENDGRID_API_KEY"
	KeyAccountantEmail  = "EMAIL_CONTADOR"
	KeySweepPixKey      = "INTER_PIX_KEY"
	KeySweepPixKeyType  = "INTER_PIX_KEY_TYPE"
)

var knownKeys = map[string]bool{
	KeyGatewayAPIKey: true, KeyGatewayBaseURL: true, KeyBankBaseURL: true,
	KeyBankClientID: true, KeyBankClientSecret: true, KeyBankCertPath: true,
	KeyBankKeyPath: true, KeyBankCertRaw: true, KeyBankKeyRaw: true,
	KeySMTPServer: true, KeySMTPPort: true, KeySMTPUser: true, KeySMTPPassword: true,
	KeySMTPFrom: true, KeyEmailTransport: true, KeySendGridAPIKey: true,
	KeyAccountantEmail: true, KeySweepPixKey: true, KeySweepPixKeyType: true,
}

var secretKeys = map[string]bool{
	KeyGatewayAPIKey: true, KeyBankClientSecret: true, KeyBankCertRaw: true,
	KeyBankKeyRaw: true, KeySMTPPassword: true, KeySendGridAPIKey: true,
}

var builtinDefaults = map[string]string{
	KeyGatewayBaseURL: "https://api.asaas.com/v3",
	KeyBankBaseURL:    "https://cdpj.partners.bancointer.com.br",
	KeySMTPPort:       "587",
	KeyEmailTransport: "smtp",
}

var ErrUnknownSetting = errors.New("unknown setting")

// SettingsStore is the durable layer behind Settings
type SettingsStore interface {
	ListSettings(ctx context.Context) (map[string]string, error)
	UpsertSetting(ctx context.Context, key, value string) error
}

// Settings is the process-wide key/value configuration. Reads always observe
// the latest completed Update.
type Settings struct {
	mu     sync.RWMutex
	values map[string]string
	store  SettingsStore
}

// LoadSettings layers built-in defaults, file defaults, the process
// environment and finally persisted rows, so an operator Update survives a
// restart.
func LoadSettings(ctx context.Context, fileDefaults map[string]string, store SettingsStore, lookupEnv func(string) (string, bool)) (*Settings, error) {
	values := make(map[string]string, len(knownKeys))
	for k, v := range builtinDefaults {
		values[k] = v
	}
	for k, v := range fileDefaults {
		if knownKeys[k] {
			values[k] = v
		}
	}

	if lookupEnv != nil {
		for k := range knownKeys {
			if v, ok := lookupEnv(k); ok && v != "" {
				values[k] = v
			}
		}
	}

	if store != nil {
		persisted, err := store.ListSettings(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load persisted settings: %w", err)
		}
		for k, v := range persisted {
			if knownKeys[k] {
				values[k] = v
			}
		}
	}

	return &Settings{values: values, store: store}, nil
}

// NewStaticSettings builds Settings with no durable layer, mainly for tests
func NewStaticSettings(values map[string]string) *Settings {
	copied := make(map[string]string, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return &Settings{values: copied}
}

func (s *Settings) Get(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[key]
}

// Update persists the value and then publishes it in memory. The write lock
// is held across both steps so concurrent updates apply in order.
func (s *Settings) Update(ctx context.Context, key, value string) error {
	if !knownKeys[key] {
		return fmt.Errorf("%w: %s", ErrUnknownSetting, key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store != nil {
		if err := s.store.UpsertSetting(ctx, key, value); err != nil {
			return fmt.Errorf("failed to persist setting %s: %w", key, err)
		}
	}
	s.values[key] = value
	return nil
}

// SettingView is a display-safe representation of one setting
type SettingView struct {
	Key    string `json:"key"`
	Value  string `json:"value"`
	Secret bool   `json:"secret"`
	Set    bool   `json:"set"`
}

// Masked lists every known key with secret values hidden
func (s *Settings) Masked() []SettingView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	views := make([]SettingView, 0, len(knownKeys))
	for k := range knownKeys {
		v := s.values[k]
		view := SettingView{Key: k, Value: v, Secret: secretKeys[k], Set: v != ""}
		if view.Secret && view.Set {
			view.Value = "********"
		}
		views = append(views, view)
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Key < views[j].Key })
	return views
}
