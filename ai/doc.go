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


// Package ai provides abstractions for the hosted LLM services used by semkit.
//
// The kernel, prompt functions and the planner depend only on the interfaces
// defined here:
//
//   - ChatCompleter: generates a reply for a list of chat messages
//   - TextCompleter: completes a single prompt
//   - Embedder: generates vector embeddings from text
//   - Service: one model connection offering all of the above
//
// # Implementation Packages
//
//   - ai/openai: OpenAI and Azure OpenAI through langchaingo
//   - ai/mock: Test doubles for unit testing without network access
//
// Public constructors (openai.NewService) return the Service interface.
// Mock constructors return concrete types so tests can inspect call counts
// and inject behavior.
//
// # Usage Example
//
//	cfg := ai.NewConfig(
//	    ai.WithProvider(ai.ProviderAzure),
//	    ai.WithAPIKey(settings.APIKey),
//	    ai.WithEndpoint(settings.Endpoint),
//	    ai.WithDeployment(settings.Deployment),
//	)
//	svc, err := openai.NewService(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer svc.Close()
//
//	reply, err := svc.CompleteChat(ctx, []ai.Message{{Role: ai.RoleUser, Content: "Hi"}}, nil)
package ai
