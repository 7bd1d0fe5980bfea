// Aoska Software Store
// Copyright (C) 2025 Дмитрий Удалов dmitry@udalov.online
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformed базовая ошибка разбора документа бэкенда
var ErrMalformed = errors.New("malformed payload")

// FieldError обязательное поле отсутствует или равно null
type FieldError struct {
	Type   string
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: field %q is %s", e.Type, e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error {
	return ErrMalformed
}

// Decode строго разбирает JSON-документ бэкенда в тип T.
// Либо возвращается полностью заполненное значение, либо ошибка.
func Decode[T any](data []byte) (T, error) {
	var zero T

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return zero, fmt.Errorf("%w: empty document", ErrMalformed)
	}

	var v T
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return zero, err
	}
	return v, nil
}

// requireFields проверяет наличие обязательных полей JSON-объекта
func requireFields(data []byte, typeName string, fields []string) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformed, typeName, err)
	}
	if raw == nil {
		return fmt.Errorf("%w: %s is null", ErrMalformed, typeName)
	}

	for _, field := range fields {
		value, ok := raw[field]
		if !ok {
			return &FieldError{Type: typeName, Field: field, Reason: "missing"}
		}
		if bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
			return &FieldError{Type: typeName, Field: field, Reason: "null"}
		}
	}
	return nil
}

// decodeTuple разбирает JSON-массив фиксированной длины
func decodeTuple[T any](data []byte, typeName string, size int) ([]T, error) {
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	if len(items) != size {
		return nil, fmt.Errorf("%w: %s must have exactly %d elements, got %d", ErrMalformed, typeName, size, len(items))
	}
	return items, nil
}
