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
	"fmt"
)

// Category раздел каталога магазина
type Category string

const (
	CategoryWorking  Category = "working"
	CategoryGames    Category = "games"
	CategoryVideo    Category = "video"
	CategoryCreating Category = "creating"
)

// Categories возвращает все известные разделы в порядке отображения
func Categories() []Category {
	return []Category{CategoryWorking, CategoryGames, CategoryVideo, CategoryCreating}
}

// ParseCategory превращает строку в Category. Неизвестные значения отклоняются.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories() {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: unknown category %q", ErrMalformed, s)
}

func (c Category) String() string {
	return string(c)
}

func (c Category) MarshalText() ([]byte, error) {
	if _, err := ParseCategory(string(c)); err != nil {
		return nil, err
	}
	return []byte(c), nil
}

func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// PackageBrief минимальная карточка пакета для списков
type PackageBrief struct {
	Name  string `json:"name"`
	Intro string `json:"intro"`
	Icon  string `json:"icon"`
}

var packageBriefFields = []string{"name", "intro", "icon"}

func (p *PackageBrief) UnmarshalJSON(data []byte) error {
	if err := requireFields(data, "PackageBrief", packageBriefFields); err != nil {
		return err
	}
	type plain PackageBrief
	return json.Unmarshal(data, (*plain)(p))
}

// PackageFlags независимые признаки пакета
type PackageFlags struct {
	Unofficial     bool `json:"unoffical"`
	Verified       bool `json:"verified"`
	NonNative      bool `json:"non_native"`
	WindowsApp     bool `json:"windows_app"`
	Telemetry      bool `json:"telemetry"`
	ServiceLimited bool `json:"service_limited"`
}

var packageFlagsFields = []string{"unoffical", "verified", "non_native", "windows_app", "telemetry", "service_limited"}

func (f *PackageFlags) UnmarshalJSON(data []byte) error {
	if err := requireFields(data, "PackageFlags", packageFlagsFields); err != nil {
		return err
	}
	type plain PackageFlags
	return json.Unmarshal(data, (*plain)(f))
}

// PackageInfo сведения о публикации пакета
type PackageInfo struct {
	Publisher    string `json:"publisher"`
	Source       string `json:"source"`
	Version      string `json:"version"`
	InnerVersion int32  `json:"inner_version"`
	UpdateDate   string `json:"update_date"`
	InstallSize  int64  `json:"install_size"`
	Homepage     string `json:"homepage"`
}

var packageInfoFields = []string{"publisher", "source", "version", "inner_version", "update_date", "install_size", "homepage"}

func (i *PackageInfo) UnmarshalJSON(data []byte) error {
	if err := requireFields(data, "PackageInfo", packageInfoFields); err != nil {
		return err
	}
	type plain PackageInfo
	return json.Unmarshal(data, (*plain)(i))
}

// PackageDetail полная карточка пакета.
// В репозитории лежит по пути packages/<name>/meta.json, все пути внутри относительные.
type PackageDetail struct {
	Name         string       `json:"name"`
	Icon         string       `json:"icon"`
	Title        string       `json:"title"`
	Intro        string       `json:"intro"`
	Category     Category     `json:"category"`
	Screenshot   []string     `json:"screenshot"`
	PackageFlags PackageFlags `json:"package_flags"`
	PackageInfo  PackageInfo  `json:"package_info"`
	Banner       string       `json:"banner"`
}

var packageDetailFields = []string{"name", "icon", "title", "intro", "category", "screenshot", "package_flags", "package_info", "banner"}

func (d *PackageDetail) UnmarshalJSON(data []byte) error {
	if err := requireFields(data, "PackageDetail", packageDetailFields); err != nil {
		return err
	}
	type plain PackageDetail
	return json.Unmarshal(data, (*plain)(d))
}
