package ai

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.Equal(t, "gpt-3.5-turbo", cfg.Model)
	assert.Empty(t, cfg.APIKey)
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()

		assert.Equal(t, ProviderOpenAI, cfg.Provider)
		assert.Equal(t, "gpt-3.5-turbo", cfg.Model)
	})

	t.Run("openai with org", func(t *testing.T) {
		cfg := NewConfig(
			WithAPIKey("sk-test"),
			WithOrgID("org-123"),
			WithModel("gpt-4o-mini"),
		)

		assert.Equal(t, "sk-test", cfg.APIKey)
		assert.Equal(t, "org-123", cfg.OrgID)
		assert.Equal(t, "gpt-4o-mini", cfg.Model)
	})

	t.Run("azure", func(t *testing.T) {
		client := &http.Client{}
		cfg := NewConfig(
			WithProvider(ProviderAzure),
			WithAPIKey("azure-key"),
			WithEndpoint("https://res.openai.azure.com/"),
			WithDeployment("gpt-35-turbo"),
			WithAPIVersion("2023-05-15"),
			WithEmbeddingModel("text-embedding-ada-002"),
			WithHTTPClient(client),
		)

		assert.Equal(t, ProviderAzure, cfg.Provider)
		assert.Equal(t, "https://res.openai.azure.com/", cfg.Endpoint)
		assert.Equal(t, "gpt-35-turbo", cfg.Deployment)
		assert.Equal(t, "2023-05-15", cfg.APIVersion)
		assert.Equal(t, "text-embedding-ada-002", cfg.EmbeddingModel)
		assert.Same(t, client, cfg.HTTPClient)
	})
}

func TestParseProvider(t *testing.T) {
	tests := []struct {
		input   string
		want    Provider
		wantErr bool
	}{
		{input: "openai", want: ProviderOpenAI},
		{input: "OpenAI", want: ProviderOpenAI},
		{input: "azure", want: ProviderAzure},
		{input: "azure_openai", want: ProviderAzure},
		{input: " Azure-OpenAI ", want: ProviderAzure},
		{input: "anthropic", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseProvider(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownProvider)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name            string
		cfg             Config
		expectedURL     string
		expectedVersion string
	}{
		{
			name:        "trailing slash removed",
			cfg:         Config{Provider: ProviderOpenAI, Endpoint: "https://api.example.com/v1/"},
			expectedURL: "https://api.example.com/v1",
		},
		{
			name:            "azure gets default version",
			cfg:             Config{Provider: ProviderAzure, Endpoint: "https://res.openai.azure.com/"},
			expectedURL:     "https://res.openai.azure.com",
			expectedVersion: DefaultAzureAPIVersion,
		},
		{
			name:            "azure keeps explicit version",
			cfg:             Config{Provider: ProviderAzure, APIVersion: "2023-05-15"},
			expectedVersion: "2023-05-15",
		},
		{
			name: "openai has no version",
			cfg:  Config{Provider: ProviderOpenAI},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			cfg.Normalize()

			assert.Equal(t, tt.expectedURL, cfg.Endpoint)
			assert.Equal(t, tt.expectedVersion, cfg.APIVersion)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	t.Run("valid openai", func(t *testing.T) {
		cfg := NewConfig(WithAPIKey(" sk-test "))
		require.NoError(t, cfg.Validate())
		assert.Equal(t, "sk-test", cfg.APIKey)
	})

	t.Run("valid azure", func(t *testing.T) {
		cfg := NewConfig(
			WithProvider(ProviderAzure),
			WithAPIKey("key"),
			WithEndpoint("https://res.openai.azure.com/"),
			WithDeployment("gpt-35-turbo"),
		)
		require.NoError(t, cfg.Validate())
		assert.Equal(t, "https://res.openai.azure.com", cfg.Endpoint)
		assert.Equal(t, DefaultAzureAPIVersion, cfg.APIVersion)
	})

	t.Run("missing key", func(t *testing.T) {
		err := NewConfig().Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "APIKey")
	})

	t.Run("missing model", func(t *testing.T) {
		err := NewConfig(WithAPIKey("k"), WithModel("")).Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Model")
	})

	t.Run("azure missing endpoint", func(t *testing.T) {
		err := NewConfig(WithProvider(ProviderAzure), WithAPIKey("k"), WithDeployment("d")).Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Endpoint")
	})

	t.Run("azure missing deployment", func(t *testing.T) {
		err := NewConfig(WithProvider(ProviderAzure), WithAPIKey("k"), WithEndpoint("https://x")).Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Deployment")
	})

	t.Run("unknown provider", func(t *testing.T) {
		err := NewConfig(WithProvider("bard"), WithAPIKey("k")).Validate()
		assert.ErrorIs(t, err, ErrUnknownProvider)
	})
}

func TestModelName(t *testing.T) {
	openai := NewConfig(WithModel("gpt-4o"), WithDeployment("ignored"))
	assert.Equal(t, "gpt-4o", openai.ModelName())

	azure := NewConfig(WithProvider(ProviderAzure), WithDeployment("gpt-35-turbo"))
	assert.Equal(t, "gpt-35-turbo", azure.ModelName())
}

func TestRequestSettingsMessages(t *testing.T) {
	var nilSettings *RequestSettings
	assert.Equal(t, []Message{{Role: RoleUser, Content: "hi"}}, nilSettings.Messages("hi"))

	s := &RequestSettings{ChatSystemPrompt: "You are funny."}
	assert.Equal(t, []Message{
		{Role: RoleSystem, Content: "You are funny."},
		{Role: RoleUser, Content: "hi"},
	}, s.Messages("hi"))

	d := DefaultRequestSettings()
	assert.Equal(t, 256, d.MaxTokens)
	assert.Equal(t, 1.0, d.TopP)
}
