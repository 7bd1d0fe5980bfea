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

package store

import (
	"context"
	"fmt"
)

// LocalTransport выполняет вызовы фасада в текущем процессе, минуя шину.
// Ответы кодируются тем же путём, что и у D-Bus сервиса.
type LocalTransport struct {
	actions *Actions
}

func NewLocalTransport(actions *Actions) *LocalTransport {
	return &LocalTransport{actions: actions}
}

func (t *LocalTransport) Call(ctx context.Context, method string, args ...interface{}) ([]byte, error) {
	w := NewDBusWrapper(t.actions, ctx)

	var (
		result string
		derr   error
	)
	switch method {
	case "GetEndpointBaseUrl":
		result, derr = unwrapDBus(w.GetEndpointBaseUrl())
	case "FetchIndex":
		result, derr = unwrapDBus(w.FetchIndex())
	case "FetchByCategory", "FetchDetail":
		arg, err := stringArg(method, args)
		if err != nil {
			return nil, err
		}
		if method == "FetchByCategory" {
			result, derr = unwrapDBus(w.FetchByCategory(arg))
		} else {
			result, derr = unwrapDBus(w.FetchDetail(arg))
		}
	case "FetchRecommend":
		result, derr = unwrapDBus(w.FetchRecommend())
	case "FetchUpdateDetail":
		result, derr = unwrapDBus(w.FetchUpdateDetail())
	case "FetchUpdateCount":
		result, derr = unwrapDBus(w.FetchUpdateCount())
	case "FetchTumUpdate":
		result, derr = unwrapDBus(w.FetchTumUpdate())
	default:
		return nil, fmt.Errorf("unknown method %s", method)
	}

	if derr != nil {
		return nil, derr
	}
	return []byte(result), nil
}

func stringArg(method string, args []interface{}) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("%s expects 1 argument, got %d", method, len(args))
	}
	s, ok := args[0].(string)
	if !ok {
		return "", fmt.Errorf("%s expects a string argument, got %T", method, args[0])
	}
	return s, nil
}
