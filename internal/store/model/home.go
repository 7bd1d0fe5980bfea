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
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SupportedIndexVersion ревизия схемы индекса, которую понимает клиент
const SupportedIndexVersion uint8 = 1

// ErrIncompatibleIndex индекс другой ревизии схемы
var ErrIncompatibleIndex = errors.New("incompatible index version")

// Index снимок каталога: ревизия схемы, время генерации и группы по разделам
type Index struct {
	Version     uint8           `json:"version"`
	GeneratedAt time.Time       `json:"generated_at"`
	Packages    []CategoryIndex `json:"packages"`
}

var indexFields = []string{"version", "generated_at", "packages"}

func (i *Index) UnmarshalJSON(data []byte) error {
	if err := requireFields(data, "Index", indexFields); err != nil {
		return err
	}

	type plain Index
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	if decoded.Version != SupportedIndexVersion {
		return fmt.Errorf("%w: got %d, want %d", ErrIncompatibleIndex, decoded.Version, SupportedIndexVersion)
	}

	*i = Index(decoded)
	return nil
}

// Category возвращает группу пакетов указанного раздела
func (i Index) Category(c Category) (CategoryIndex, bool) {
	for _, group := range i.Packages {
		if group.Category == c {
			return group, true
		}
	}
	return CategoryIndex{}, false
}

// CategoryIndex пакеты одного раздела в порядке отображения
type CategoryIndex struct {
	Category Category       `json:"category"`
	Packages []PackageBrief `json:"packages"`
}

var categoryIndexFields = []string{"category", "packages"}

func (c *CategoryIndex) UnmarshalJSON(data []byte) error {
	if err := requireFields(data, "CategoryIndex", categoryIndexFields); err != nil {
		return err
	}
	type plain CategoryIndex
	return json.Unmarshal(data, (*plain)(c))
}

// RecommendIndex подборка рекомендованных пакетов вне разделов
type RecommendIndex struct {
	Date     time.Time      `json:"date"`
	Packages []PackageBrief `json:"packages"`
}

var recommendIndexFields = []string{"date", "packages"}

func (r *RecommendIndex) UnmarshalJSON(data []byte) error {
	if err := requireFields(data, "RecommendIndex", recommendIndexFields); err != nil {
		return err
	}
	type plain RecommendIndex
	return json.Unmarshal(data, (*plain)(r))
}
