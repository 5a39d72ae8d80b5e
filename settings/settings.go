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


// Package settings reads provider credentials from .env files.
//
// Values found in the files win over the process environment, and the
// process environment is never modified. A missing file is tolerated as long
// as every required key is available from the environment.
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/poiesic/semkit/ai"
)

// DefaultEnvFile is read when no paths are given.
const DefaultEnvFile = ".env"

// Environment keys.
const (
	KeyOpenAIAPIKey     = "OPENAI_API_KEY"
	KeyOpenAIOrgID      = "OPENAI_ORG_ID"
	KeyAzureAPIKey      = "AZURE_OPENAI_API_KEY"
	KeyAzureEndpoint    = "AZURE_OPENAI_ENDPOINT"
	KeyAzureDeployment  = "AZURE_OPENAI_DEPLOYMENT_NAME"
	KeyAzureAPIVersion  = "AZURE_OPENAI_API_VERSION"
	KeyAzureEmbedding   = "AZURE_OPENAI_EMBEDDING_DEPLOYMENT_NAME"
	KeyOpenAIEmbedModel = "OPENAI_EMBEDDING_MODEL_ID"
)

var (
	// ErrMissingSetting is returned when a required key is absent or empty.
	ErrMissingSetting = errors.New("missing setting")
)

// OpenAISettings are the credentials for the public OpenAI API.
type OpenAISettings struct {
	APIKey         string
	OrgID          string
	EmbeddingModel string
}

// AzureOpenAISettings are the credentials for an Azure OpenAI deployment.
type AzureOpenAISettings struct {
	APIKey              string
	Endpoint            string
	Deployment          string
	APIVersion          string
	EmbeddingDeployment string
}

// Options converts the settings into ai.Config options.
func (s *OpenAISettings) Options() []ai.ConfigOption {
	opts := []ai.ConfigOption{
		ai.WithProvider(ai.ProviderOpenAI),
		ai.WithAPIKey(s.APIKey),
		ai.WithOrgID(s.OrgID),
	}
	if s.EmbeddingModel != "" {
		opts = append(opts, ai.WithEmbeddingModel(s.EmbeddingModel))
	}
	return opts
}

// Options converts the settings into ai.Config options.
func (s *AzureOpenAISettings) Options() []ai.ConfigOption {
	opts := []ai.ConfigOption{
		ai.WithProvider(ai.ProviderAzure),
		ai.WithAPIKey(s.APIKey),
		ai.WithEndpoint(s.Endpoint),
		ai.WithDeployment(s.Deployment),
		ai.WithAPIVersion(s.APIVersion),
	}
	if s.EmbeddingDeployment != "" {
		opts = append(opts, ai.WithEmbeddingModel(s.EmbeddingDeployment))
	}
	return opts
}

// OpenAIFromDotEnv reads OPENAI_API_KEY (required) and OPENAI_ORG_ID.
func OpenAIFromDotEnv(paths ...string) (*OpenAISettings, error) {
	env, err := Load(paths...)
	if err != nil {
		return nil, err
	}
	key, err := env.Require(KeyOpenAIAPIKey)
	if err != nil {
		return nil, err
	}
	return &OpenAISettings{
		APIKey:         key,
		OrgID:          env.Get(KeyOpenAIOrgID),
		EmbeddingModel: env.Get(KeyOpenAIEmbedModel),
	}, nil
}

// AzureOpenAIFromDotEnv reads the Azure key, endpoint and deployment (all required)
// and the optional API version.
func AzureOpenAIFromDotEnv(paths ...string) (*AzureOpenAISettings, error) {
	env, err := Load(paths...)
	if err != nil {
		return nil, err
	}
	s := &AzureOpenAISettings{
		APIVersion:          env.Get(KeyAzureAPIVersion),
		EmbeddingDeployment: env.Get(KeyAzureEmbedding),
	}
	if s.Deployment, err = env.Require(KeyAzureDeployment); err != nil {
		return nil, err
	}
	if s.APIKey, err = env.Require(KeyAzureAPIKey); err != nil {
		return nil, err
	}
	if s.Endpoint, err = env.Require(KeyAzureEndpoint); err != nil {
		return nil, err
	}
	return s, nil
}

// ConfigFromDotEnv builds an ai.Config for the given provider from .env files.
// extra options are applied after the credentials.
func ConfigFromDotEnv(provider ai.Provider, paths []string, extra ...ai.ConfigOption) (*ai.Config, error) {
	var opts []ai.ConfigOption
	switch provider {
	case ai.ProviderOpenAI:
		s, err := OpenAIFromDotEnv(paths...)
		if err != nil {
			return nil, err
		}
		opts = s.Options()
	case ai.ProviderAzure:
		s, err := AzureOpenAIFromDotEnv(paths...)
		if err != nil {
			return nil, err
		}
		opts = s.Options()
	default:
		return nil, fmt.Errorf("%w: %q", ai.ErrUnknownProvider, provider)
	}
	return ai.NewConfig(append(opts, extra...)...), nil
}

// Env is a snapshot of key/value pairs read from .env files, backed by the
// process environment for keys the files do not define.
type Env struct {
	values map[string]string
	lookup func(string) (string, bool)
}

// Load reads the given .env files (DefaultEnvFile when none are given).
// Later files override earlier ones. Files that do not exist are skipped.
func Load(paths ...string) (*Env, error) {
	if len(paths) == 0 {
		paths = []string{DefaultEnvFile}
	}
	values := make(map[string]string)
	for _, path := range paths {
		read, err := godotenv.Read(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				slog.Debug("env file not found, using process environment", "path", path)
				continue
			}
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		for k, v := range read {
			values[k] = v
		}
	}
	return &Env{values: values, lookup: os.LookupEnv}, nil
}

// Get returns the trimmed value of key, or "" when it is not set anywhere.
func (e *Env) Get(key string) string {
	if v, ok := e.values[key]; ok {
		return strings.TrimSpace(v)
	}
	if e.lookup != nil {
		if v, ok := e.lookup(key); ok {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// Require returns the value of key or ErrMissingSetting when it is empty.
func (e *Env) Require(key string) (string, error) {
	v := e.Get(key)
	if v == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingSetting, key)
	}
	return v, nil
}
