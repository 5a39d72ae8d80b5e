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


package core

import "errors"

// Function model errors
var (
	// ErrInvalidName indicates a plugin, function, or parameter name failed validation.
	ErrInvalidName = errors.New("invalid name")

	// ErrEmptyName indicates a required name was empty.
	ErrEmptyName = errors.New("name cannot be empty")

	// ErrFunctionNotFound indicates no function is registered under the requested name.
	ErrFunctionNotFound = errors.New("function not found")

	// ErrPluginNotFound indicates no plugin is registered under the requested name.
	ErrPluginNotFound = errors.New("plugin not found")

	// ErrDuplicateFunction indicates a function with the same name already exists in the plugin.
	ErrDuplicateFunction = errors.New("duplicate function")

	// ErrNilFunction indicates a nil function or handler was supplied.
	ErrNilFunction = errors.New("function cannot be nil")

	// ErrServiceNotFound indicates no AI service is available for a semantic function.
	ErrServiceNotFound = errors.New("ai service not found")
)
