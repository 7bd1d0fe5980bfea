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

package endpoint

import (
	"context"
	"net/url"
	"path"
	"strings"
)

// Source отдаёт базовый адрес репозитория магазина
type Source interface {
	GetEndpointBaseURL(ctx context.Context) (string, error)
}

// Endpoint неизменяемый базовый адрес, относительно которого разрешаются пути ресурсов.
// Нулевое значение соответствует незагруженному адресу.
type Endpoint struct {
	base string
}

// Load выполняет единственную загрузку адреса. При ошибке возвращается нулевой Endpoint
// вместе с ошибкой; вызывающий код пишет её в лог и продолжает работу.
func Load(ctx context.Context, src Source) (Endpoint, error) {
	base, err := src.GetEndpointBaseURL(ctx)
	if err != nil {
		return Endpoint{}, err
	}
	return Endpoint{base: base}, nil
}

// New оборачивает уже известный адрес
func New(base string) Endpoint {
	return Endpoint{base: base}
}

// Base возвращает адрес ровно в том виде, в каком его отдал бэкенд
func (e Endpoint) Base() string {
	return e.base
}

func (e Endpoint) IsZero() bool {
	return e.base == ""
}

// Resolve превращает относительный путь ресурса в абсолютный адрес.
// Если указан pkg, путь считается лежащим в packages/<pkg>/.
func (e Endpoint) Resolve(p, pkg string) string {
	if p == "" {
		return ""
	}
	if pkg != "" {
		p = path.Join("packages", pkg) + "/" + p
	}
	if e.base == "" {
		return p
	}

	base, err := url.Parse(e.base)
	if err != nil {
		return joinFallback(e.base, p)
	}
	ref, err := url.Parse(p)
	if err != nil {
		return joinFallback(e.base, p)
	}
	return base.ResolveReference(ref).String()
}

// ResolveAll разрешает каждый путь по тем же правилам, сохраняя порядок и длину
func (e Endpoint) ResolveAll(paths []string, pkg string) []string {
	if paths == nil {
		return nil
	}
	resolved := make([]string, len(paths))
	for i, p := range paths {
		resolved[i] = e.Resolve(p, pkg)
	}
	return resolved
}

func joinFallback(base, p string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(p, "/")
}
