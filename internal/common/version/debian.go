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

package version

import (
	"strconv"
	"strings"
)

// Debian версия пакета в формате [epoch:]upstream[-revision]
type Debian struct {
	Epoch    int
	Upstream string
	Revision string
}

// ParseDebian разбирает строку версии. Некорректная эпоха считается нулевой.
func ParseDebian(v string) Debian {
	var ver Debian
	v = strings.TrimSpace(v)

	if idx := strings.IndexByte(v, ':'); idx > 0 {
		if epoch, err := strconv.Atoi(v[:idx]); err == nil {
			ver.Epoch = epoch
			v = v[idx+1:]
		}
	}

	if idx := strings.LastIndexByte(v, '-'); idx > 0 {
		ver.Upstream = v[:idx]
		ver.Revision = v[idx+1:]
	} else {
		ver.Upstream = v
	}
	return ver
}

func (v Debian) String() string {
	s := v.Upstream
	if v.Epoch > 0 {
		s = strconv.Itoa(v.Epoch) + ":" + s
	}
	if v.Revision != "" {
		s += "-" + v.Revision
	}
	return s
}

// Compare сравнивает две версии по правилам dpkg: -1, 0 или 1
func Compare(a, b string) int {
	va, vb := ParseDebian(a), ParseDebian(b)

	if va.Epoch != vb.Epoch {
		if va.Epoch < vb.Epoch {
			return -1
		}
		return 1
	}
	if c := compareFragment(va.Upstream, vb.Upstream); c != 0 {
		return c
	}
	return compareFragment(va.Revision, vb.Revision)
}

// order вес символа: "~" меньше конца строки, буквы меньше прочих символов
func order(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return 0
	case (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'):
		return int(c)
	case c == '~':
		return -1
	default:
		return int(c) + 256
	}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func compareFragment(a, b string) int {
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		firstDiff := 0

		for (i < len(a) && !isDigit(a[i])) || (j < len(b) && !isDigit(b[j])) {
			ac, bc := 0, 0
			if i < len(a) {
				ac = order(a[i])
			}
			if j < len(b) {
				bc = order(b[j])
			}
			if ac != bc {
				return sign(ac - bc)
			}
			i++
			j++
		}

		for i < len(a) && a[i] == '0' {
			i++
		}
		for j < len(b) && b[j] == '0' {
			j++
		}

		for i < len(a) && isDigit(a[i]) && j < len(b) && isDigit(b[j]) {
			if firstDiff == 0 {
				firstDiff = int(a[i]) - int(b[j])
			}
			i++
			j++
		}
		if i < len(a) && isDigit(a[i]) {
			return 1
		}
		if j < len(b) && isDigit(b[j]) {
			return -1
		}
		if firstDiff != 0 {
			return sign(firstDiff)
		}
	}
	return 0
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}
