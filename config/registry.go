package config

import (
	"fmt"

	"github.com/pressroomhq/pressroom/model"
)

// BuildRegistry converts the model section into a model.Registry. With no
// endpoints configured, the built-in default registry is returned.
func (c *Config) BuildRegistry() (*model.Registry, error) {
	if len(c.Model.Endpoints) == 0 {
		return model.NewDefaultRegistry(), nil
	}

	endpoints := make(map[string]*model.EndpointConfig, len(c.Model.Endpoints))
	for name, ep := range c.Model.Endpoints {
		endpoints[name] = &model.EndpointConfig{
			Provider:  ep.Provider,
			URL:       ep.URL,
			Model:     ep.Model,
			MaxTokens: ep.MaxTokens,
		}
	}

	caps := make(map[model.Capability]*model.CapabilityConfig, len(c.Model.Capabilities))
	for name, cc := range c.Model.Capabilities {
		capability := model.ParseCapability(name)
		if capability == "" {
			return nil, fmt.Errorf("model.capabilities: unknown capability %q", name)
		}

		for _, m := range append(append([]string{}, cc.Preferred...), cc.Fallback...) {
			if _, ok := endpoints[m]; !ok {
				return nil, fmt.Errorf("model.capabilities.%s references unconfigured endpoint %q", name, m)
			}
		}

		caps[capability] = &model.CapabilityConfig{
			Preferred: cc.Preferred,
			Fallback:  cc.Fallback,
		}
	}

	registry := model.NewRegistry(caps, endpoints)
	if c.Model.Default != "" {
		if _, ok := endpoints[c.Model.Default]; !ok {
			return nil, fmt.Errorf("model.default references unconfigured endpoint %q", c.Model.Default)
		}
		registry.SetDefault(c.Model.Default)
	}

	return registry, nil
}
