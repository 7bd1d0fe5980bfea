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

package helper

import (
	"aoska/internal/common/app"
	"fmt"
)

// AutoSize возвращает размер данных в удобных единицах
func AutoSize(value int64) string {
	abs := value
	sign := ""
	if abs < 0 {
		abs = -abs
		sign = "-"
	}

	switch {
	case abs >= 1<<30:
		return fmt.Sprintf(app.T_("%s%.2f GiB"), sign, float64(abs)/(1<<30))
	case abs >= 1<<20:
		return fmt.Sprintf(app.T_("%s%.2f MiB"), sign, float64(abs)/(1<<20))
	case abs >= 1<<10:
		return fmt.Sprintf(app.T_("%s%.2f KiB"), sign, float64(abs)/(1<<10))
	default:
		return fmt.Sprintf(app.T_("%s%d B"), sign, abs)
	}
}

// LocalizedText выбирает перевод из словаря «локаль → строка».
// Порядок: точная локаль, базовый язык, "default", "en", любая непустая строка.
func LocalizedText(values map[string]string, locale string) string {
	if len(values) == 0 {
		return ""
	}
	candidates := []string{locale}
	for i, r := range locale {
		if r == '_' || r == '-' {
			candidates = append(candidates, locale[:i])
			break
		}
	}
	candidates = append(candidates, "default", "en", "en_US")

	for _, key := range candidates {
		if v, ok := values[key]; ok && v != "" {
			return v
		}
	}

	// детерминированный выбор среди оставшихся
	best := ""
	bestKey := ""
	for k, v := range values {
		if v != "" && (bestKey == "" || k < bestKey) {
			best, bestKey = v, k
		}
	}
	return best
}
