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

package service

import (
	"aoska/internal/common/app"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// MockServer раздаёт каталог из локальной директории. Используется в dev-окружении.
type MockServer struct {
	root     string
	server   *http.Server
	listener net.Listener
}

var mockContentTypes = map[string]string{
	".json": "application/json",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// StartMockServer запускает сервер на случайном порту 127.0.0.1
func StartMockServer(root string) (*MockServer, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf(app.T_("%s is not a directory"), root)
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}

	m := &MockServer{root: root, listener: listener}
	m.server = &http.Server{Handler: m}

	go func() {
		if err := m.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.Log.Error(fmt.Sprintf(app.T_("Mock server error: %v"), err))
		}
	}()

	app.Log.Info(fmt.Sprintf("mock server serves %s on %s", root, m.URL()))
	return m, nil
}

// URL базовый адрес сервера
func (m *MockServer) URL() string {
	return "http://" + m.listener.Addr().String()
}

// Close останавливает сервер
func (m *MockServer) Close(ctx context.Context) error {
	return m.server.Shutdown(ctx)
}

func (m *MockServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	clean := path.Clean("/" + r.URL.Path)
	contentType, ok := mockContentTypes[strings.ToLower(path.Ext(clean))]
	if !ok {
		http.NotFound(w, r)
		return
	}

	file, err := os.Open(filepath.Join(m.root, filepath.FromSlash(clean)))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", contentType)
	http.ServeContent(w, r, info.Name(), info.ModTime(), file)
}
