// Package advisorsvc provides the recommend.Advisor implementations.
package advisorsvc

import (
	"github.com/pkg/errors"

	"github.com/trezcool/soma/core"
	"github.com/trezcool/soma/core/recommend"
)

// Providers
const (
	ProviderOpenAI = "openai"
	ProviderDummy  = "dummy"
)

// New returns the Advisor of the configured provider.
func New(conf core.RecommendationConfig) (recommend.Advisor, error) {
	switch conf.Provider {
	case ProviderOpenAI:
		return NewLLMAdvisor(conf)
	case ProviderDummy, "":
		return NewDummyAdvisor(), nil
	default:
		return nil, errors.Errorf("unknown recommendation provider %q", conf.Provider)
	}
}
