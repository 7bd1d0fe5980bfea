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

package app

// Значения подставляются при сборке через -ldflags "-X aoska/internal/common/app.version=…"
var (
	commandPrefix string
	environment   string
	pathLocales   string
	pathMockData  string
	version       = "0.1.0"
)

// GetBuildInfo возвращает параметры, зашитые при сборке
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		CommandPrefix: commandPrefix,
		Environment:   environment,
		PathLocales:   pathLocales,
		PathMockData:  pathMockData,
		Version:       version,
	}
}
