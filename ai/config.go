// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Provider identifies the hosted LLM API a service talks to.
type Provider string

const (
	// ProviderOpenAI is the public OpenAI API.
	ProviderOpenAI Provider = "openai"
	// ProviderAzure is an Azure OpenAI resource.
	ProviderAzure Provider = "azure"
)

// DefaultAzureAPIVersion is used when an Azure config does not name one.
const DefaultAzureAPIVersion = "2024-02-01"

// ParseProvider converts a user-supplied name into a Provider.
// Matching is case-insensitive; "azure_openai" and "azure-openai" are accepted.
func ParseProvider(name string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "openai":
		return ProviderOpenAI, nil
	case "azure", "azure_openai", "azure-openai", "azureopenai":
		return ProviderAzure, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
}

// Config holds configuration for a chat completion service.
type Config struct {
	// Provider selects OpenAI or Azure OpenAI.
	Provider Provider

	// APIKey authenticates requests. Required for both providers.
	APIKey string

	// OrgID is the optional OpenAI organization.
	// Ignored for Azure.
	OrgID string

	// Endpoint is the base URL of the service.
	// Example: "https://my-resource.openai.azure.com" for Azure.
	// For OpenAI it is optional and overrides the public API URL.
	Endpoint string

	// Model is the OpenAI model identifier.
	// Example: "gpt-3.5-turbo", "gpt-4o-mini"
	Model string

	// Deployment is the Azure deployment name. For Azure it replaces Model.
	Deployment string

	// APIVersion is the Azure REST API version.
	// Default: DefaultAzureAPIVersion
	APIVersion string

	// EmbeddingModel is the model (or Azure deployment) for text embeddings.
	// Optional; embeddings are unavailable when empty.
	EmbeddingModel string

	// HTTPClient overrides the transport used by the underlying client.
	HTTPClient *http.Client
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithProvider sets the provider.
func WithProvider(p Provider) ConfigOption {
	return func(c *Config) {
		c.Provider = p
	}
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithOrgID sets the OpenAI organization.
func WithOrgID(org string) ConfigOption {
	return func(c *Config) {
		c.OrgID = org
	}
}

// WithEndpoint sets the service base URL.
func WithEndpoint(endpoint string) ConfigOption {
	return func(c *Config) {
		c.Endpoint = endpoint
	}
}

// WithModel sets the OpenAI model identifier.
func WithModel(model string) ConfigOption {
	return func(c *Config) {
		c.Model = model
	}
}

// WithDeployment sets the Azure deployment name.
func WithDeployment(deployment string) ConfigOption {
	return func(c *Config) {
		c.Deployment = deployment
	}
}

// WithAPIVersion sets the Azure API version.
func WithAPIVersion(version string) ConfigOption {
	return func(c *Config) {
		c.APIVersion = version
	}
}

// WithEmbeddingModel sets the embedding model or deployment.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(client *http.Client) ConfigOption {
	return func(c *Config) {
		c.HTTPClient = client
	}
}

// DefaultConfig returns a Config targeting the public OpenAI API.
// The API key still has to be supplied.
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderOpenAI,
		Model:    "gpt-3.5-turbo",
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithAPIKey(os.Getenv("OPENAI_API_KEY")),
//	    WithModel("gpt-4o-mini"),
//	)
//
// Example for Azure:
//
//	cfg := NewConfig(
//	    WithProvider(ProviderAzure),
//	    WithAPIKey(key),
//	    WithEndpoint("https://my-resource.openai.azure.com/"),
//	    WithDeployment("gpt-35-turbo"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize puts the configuration in canonical form. Endpoints lose their
// trailing slash and Azure configs get a default API version.
func (c *Config) Normalize() {
	c.Endpoint = strings.TrimRight(strings.TrimSpace(c.Endpoint), "/")
	c.APIKey = strings.TrimSpace(c.APIKey)
	if c.Provider == ProviderAzure && c.APIVersion == "" {
		c.APIVersion = DefaultAzureAPIVersion
	}
}

// ModelName returns the model identifier sent to the provider:
// the deployment for Azure, the model otherwise.
func (c *Config) ModelName() string {
	if c.Provider == ProviderAzure {
		return c.Deployment
	}
	return c.Model
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.APIKey == "" {
		return errors.New("ai config: APIKey is required")
	}
	switch c.Provider {
	case ProviderOpenAI:
		if c.Model == "" {
			return errors.New("ai config: Model is required")
		}
	case ProviderAzure:
		if c.Endpoint == "" {
			return errors.New("ai config: Endpoint is required for azure")
		}
		if c.Deployment == "" {
			return errors.New("ai config: Deployment is required for azure")
		}
	default:
		return fmt.Errorf("ai config: %w: %q", ErrUnknownProvider, c.Provider)
	}
	return nil
}
