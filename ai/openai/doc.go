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


// Package openai implements ai.Service for OpenAI and Azure OpenAI.
//
// The HTTP protocol is handled entirely by the langchaingo openai client;
// this package only maps ai.Config onto client options and ai.Message /
// ai.RequestSettings onto langchaingo calls.
//
// # Usage
//
//	cfg := ai.NewConfig(
//	    ai.WithAPIKey(os.Getenv("OPENAI_API_KEY")),
//	    ai.WithOrgID(os.Getenv("OPENAI_ORG_ID")),
//	)
//	svc, err := openai.NewService(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer svc.Close()
//
//	joke, err := svc.Complete(ctx, "Tell me a joke about time travel", nil)
//
// For Azure OpenAI, set ai.ProviderAzure with the resource endpoint and the
// deployment name; the API version defaults to ai.DefaultAzureAPIVersion.
package openai
