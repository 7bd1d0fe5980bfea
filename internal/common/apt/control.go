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
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Paragraph один абзац управляющего файла Debian (apt-cache show, dpkg status)
type Paragraph map[string]string

// Get возвращает значение поля без учёта регистра имени
func (p Paragraph) Get(key string) string {
	if v, ok := p[key]; ok {
		return v
	}
	for k, v := range p {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

// Int возвращает числовое поле или 0
func (p Paragraph) Int(key string) int64 {
	v, err := strconv.ParseInt(p.Get(key), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// ParseControl разбирает вывод в формате deb822. Строки продолжения
// (начинающиеся с пробела) дописываются к предыдущему полю.
func ParseControl(output string) ([]Paragraph, error) {
	const maxCapacity = 1024 * 1024 * 16

	scanner := bufio.NewScanner(strings.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), maxCapacity)

	var paragraphs []Paragraph
	current := Paragraph{}
	var currentKey string

	for scanner.Scan() {
		line := scanner.Text()

		if strings.TrimSpace(line) == "" {
			if len(current) > 0 {
				paragraphs = append(paragraphs, current)
				current = Paragraph{}
				currentKey = ""
			}
			continue
		}

		if line[0] == ' ' || line[0] == '\t' {
			if currentKey != "" {
				current[currentKey] += "\n" + strings.TrimSpace(line)
			}
			continue
		}

		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		currentKey = strings.TrimSpace(parts[0])
		current[currentKey] = strings.TrimSpace(parts[1])
	}

	if len(current) > 0 {
		paragraphs = append(paragraphs, current)
	}

	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, fmt.Errorf("string too large: (over %dMB)", maxCapacity/(1024*1024))
		}
		return nil, err
	}
	return paragraphs, nil
}
