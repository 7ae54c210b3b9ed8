// Copyright (c) 2019 Cisco and/or its affiliates.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at:
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"encoding/json"
	"fmt"
)

// Optional holds a value which may be absent.
// The zero value is an absent value.
type Optional[T comparable] struct {
	value T
	set   bool
}

// Some returns an Optional holding the given value.
func Some[T comparable](value T) Optional[T] {
	return Optional[T]{value: value, set: true}
}

// Get returns the value and true, or the zero value and false if absent.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.set
}

// Value returns the held value (zero value if absent).
func (o Optional[T]) Value() T {
	return o.value
}

// IsSet returns true if a value is present.
func (o Optional[T]) IsSet() bool {
	return o.set
}

// Is returns true if a value is present and equal to v.
func (o Optional[T]) Is(v T) bool {
	return o.set && o.value == v
}

// Set stores the value.
func (o *Optional[T]) Set(value T) {
	o.value = value
	o.set = true
}

// Reset removes the value.
func (o *Optional[T]) Reset() {
	var zero T
	o.value = zero
	o.set = false
}

func (o Optional[T]) String() string {
	if !o.set {
		return "<unset>"
	}
	return fmt.Sprint(o.value)
}

// MarshalJSON encodes absent values as null.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.set {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

// UnmarshalJSON decodes null as an absent value.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		o.Reset()
		return nil
	}
	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	o.Set(value)
	return nil
}
