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

import (
	"fmt"
	"regexp"
)

var validName = regexp.MustCompile(`^[0-9A-Za-z_]+$`)

// ValidateFunctionName validates a function name.
//
// Validation rules:
//   - Name must not be empty
//   - Name may contain only ASCII letters, digits and underscores
func ValidateFunctionName(name string) error {
	return validate("function", name)
}

// ValidatePluginName validates a plugin name with the same rules as functions.
// GlobalPlugin is accepted.
func ValidatePluginName(name string) error {
	return validate("plugin", name)
}

// ValidateParameterName validates a parameter (variable) name.
func ValidateParameterName(name string) error {
	return validate("parameter", name)
}

// IsValidName reports whether s is a valid plugin, function or variable name.
func IsValidName(s string) bool {
	return validName.MatchString(s)
}

func validate(kind, name string) error {
	if name == "" {
		return fmt.Errorf("%w: %s %w", ErrInvalidName, kind, ErrEmptyName)
	}
	if !validName.MatchString(name) {
		return fmt.Errorf("%w: %s name %q may contain only letters, digits and underscores", ErrInvalidName, kind, name)
	}
	return nil
}
