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

package apt

import (
	"regexp"
	"strings"
)

var versionConstraintRe = regexp.MustCompile(`\s*\([<>=]{1,2}[^)]*\)`)
var archRestrictionRe = regexp.MustCompile(`\s*\[[^\]]*\]`)

// CleanDependency приводит одну зависимость к имени пакета:
// убирает ограничение версии, квалификатор архитектуры и список архитектур.
func CleanDependency(s string) string {
	s = versionConstraintRe.ReplaceAllString(s, "")
	s = archRestrictionRe.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)

	if idx := strings.IndexByte(s, ':'); idx > 0 {
		s = s[:idx]
	}
	return s
}

// ParseRelations разбирает поле связей (Depends, Recommends, Suggests).
// Из альтернатив "a | b" берётся первая, повторы отбрасываются.
func ParseRelations(value string) []string {
	var result []string
	seen := make(map[string]bool)

	for _, group := range strings.Split(value, ",") {
		alternatives := strings.Split(group, "|")
		name := CleanDependency(alternatives[0])
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		result = append(result, name)
	}
	return result
}

// SplitArch разделяет "name:arch" на имя и архитектуру
func SplitArch(name string) (string, string) {
	if idx := strings.LastIndexByte(name, ':'); idx > 0 {
		return name[:idx], name[idx+1:]
	}
	return name, ""
}

// IsDebFile сообщает, похож ли путь на пакет .deb
func IsDebFile(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".deb")
}
