package speech

import (
	"fmt"

	"go.uber.org/zap"
)

const (
	ProviderGoogle = "google"
	ProviderYandex = "yandex"
)

// FactoryConfig selects and configures one provider.
type FactoryConfig struct {
	Provider string
	Google   GoogleConfig
	Yandex   YandexConfig
}

// NewProviderFromConfig builds the provider named by cfg.Provider.
func NewProviderFromConfig(cfg FactoryConfig, logger *zap.Logger) (Provider, error) {
	switch cfg.Provider {
	case ProviderGoogle, "":
		return NewGoogleTranslateProvider(cfg.Google, logger), nil
	case ProviderYandex:
		p, err := NewYandexProvider(cfg.Yandex, logger)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown speech provider %q", cfg.Provider)
	}
}
