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

package maintainer

import (
	"aoska/internal/common/app"
	"aoska/internal/store/model"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type tomlIndex struct {
	Version    uint8               `toml:"version"`
	Categories []tomlCategoryIndex `toml:"categories"`
}

type tomlCategoryIndex struct {
	Category model.Category     `toml:"category"`
	Packages []tomlPackageBrief `toml:"packages"`
}

type tomlPackageBrief struct {
	Name  string `toml:"name"`
	Intro string `toml:"intro"`
	Icon  string `toml:"icon"`
}

type tomlRecommendIndex struct {
	Packages []tomlPackageBrief `toml:"packages"`
}

type tomlPackageDetail struct {
	Name         string           `toml:"name"`
	Icon         string           `toml:"icon"`
	Title        string           `toml:"title"`
	Intro        string           `toml:"intro"`
	Category     model.Category   `toml:"category"`
	Screenshot   []string         `toml:"screenshot"`
	Banner       string           `toml:"banner"`
	PackageFlags tomlPackageFlags `toml:"package_flags"`
	PackageInfo  tomlPackageInfo  `toml:"package_info"`
}

type tomlPackageFlags struct {
	Unofficial     bool `toml:"unoffical"`
	Verified       bool `toml:"verified"`
	NonNative      bool `toml:"non_native"`
	WindowsApp     bool `toml:"windows_app"`
	Telemetry      bool `toml:"telemetry"`
	ServiceLimited bool `toml:"service_limited"`
}

type tomlPackageInfo struct {
	Publisher    string `toml:"publisher"`
	Source       string `toml:"source"`
	Version      string `toml:"version"`
	InnerVersion int32  `toml:"inner_version"`
	UpdateDate   string `toml:"update_date"`
	InstallSize  int64  `toml:"install_size"`
	Homepage     string `toml:"homepage"`
}

var packageDetailKeys = [][]string{
	{"name"}, {"icon"}, {"title"}, {"intro"}, {"category"}, {"screenshot"}, {"banner"},
	{"package_flags", "unoffical"}, {"package_flags", "verified"}, {"package_flags", "non_native"},
	{"package_flags", "windows_app"}, {"package_flags", "telemetry"}, {"package_flags", "service_limited"},
	{"package_info", "publisher"}, {"package_info", "source"}, {"package_info", "version"},
	{"package_info", "inner_version"}, {"package_info", "update_date"}, {"package_info", "install_size"},
	{"package_info", "homepage"},
}

// Generator превращает TOML-описания сопровождающих в JSON-документы каталога
type Generator struct {
	now func() time.Time
}

// NewGenerator - конструктор, метки времени берутся в UTC
func NewGenerator() *Generator {
	return &Generator{now: func() time.Time { return time.Now().UTC() }}
}

func decodeStrict(data []byte, v interface{}, required ...[]string) error {
	md, err := toml.Decode(string(data), v)
	if err != nil {
		return fmt.Errorf(app.T_("TOML parsing error: %w"), err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		sort.Strings(keys)
		return fmt.Errorf(app.T_("unknown keys: %s"), strings.Join(keys, ", "))
	}

	for _, key := range required {
		if !md.IsDefined(key...) {
			return fmt.Errorf(app.T_("required key %s is missing"), strings.Join(key, "."))
		}
	}
	return nil
}

func briefs(in []tomlPackageBrief) []model.PackageBrief {
	out := make([]model.PackageBrief, 0, len(in))
	for _, p := range in {
		out = append(out, model.PackageBrief{Name: p.Name, Intro: p.Intro, Icon: p.Icon})
	}
	return out
}

// Index строит индекс каталога, generated_at ставится текущим временем
func (g *Generator) Index(data []byte) (model.Index, error) {
	var src tomlIndex
	if err := decodeStrict(data, &src, []string{"version"}, []string{"categories"}); err != nil {
		return model.Index{}, err
	}
	if src.Version != model.SupportedIndexVersion {
		return model.Index{}, fmt.Errorf("%w: got %d, want %d", model.ErrIncompatibleIndex, src.Version, model.SupportedIndexVersion)
	}

	index := model.Index{
		Version:     src.Version,
		GeneratedAt: g.now(),
		Packages:    make([]model.CategoryIndex, 0, len(src.Categories)),
	}
	for _, c := range src.Categories {
		index.Packages = append(index.Packages, model.CategoryIndex{
			Category: c.Category,
			Packages: briefs(c.Packages),
		})
	}
	return index, nil
}

// Recommend строит подборку рекомендаций с датой генерации
func (g *Generator) Recommend(data []byte) (model.RecommendIndex, error) {
	var src tomlRecommendIndex
	if err := decodeStrict(data, &src, []string{"packages"}); err != nil {
		return model.RecommendIndex{}, err
	}
	return model.RecommendIndex{
		Date:     g.now(),
		Packages: briefs(src.Packages),
	}, nil
}

// Package строит карточку пакета, все поля обязательны
func (g *Generator) Package(data []byte) (model.PackageDetail, error) {
	var src tomlPackageDetail
	if err := decodeStrict(data, &src, packageDetailKeys...); err != nil {
		return model.PackageDetail{}, err
	}

	screenshots := src.Screenshot
	if screenshots == nil {
		screenshots = []string{}
	}

	return model.PackageDetail{
		Name:       src.Name,
		Icon:       src.Icon,
		Title:      src.Title,
		Intro:      src.Intro,
		Category:   src.Category,
		Screenshot: screenshots,
		Banner:     src.Banner,
		PackageFlags: model.PackageFlags{
			Unofficial:     src.PackageFlags.Unofficial,
			Verified:       src.PackageFlags.Verified,
			NonNative:      src.PackageFlags.NonNative,
			WindowsApp:     src.PackageFlags.WindowsApp,
			Telemetry:      src.PackageFlags.Telemetry,
			ServiceLimited: src.PackageFlags.ServiceLimited,
		},
		PackageInfo: model.PackageInfo{
			Publisher:    src.PackageInfo.Publisher,
			Source:       src.PackageInfo.Source,
			Version:      src.PackageInfo.Version,
			InnerVersion: src.PackageInfo.InnerVersion,
			UpdateDate:   src.PackageInfo.UpdateDate,
			InstallSize:  src.PackageInfo.InstallSize,
			Homepage:     src.PackageInfo.Homepage,
		},
	}, nil
}

// GenerateFile читает input, конвертирует и пишет отформатированный JSON в output.
// Результат перед записью проверяется тем же декодером, что и у клиента.
func GenerateFile[T any](input, output string, convert func([]byte) (T, error)) error {
	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf(app.T_("failed to read %s: %w"), input, err)
	}

	doc, err := convert(data)
	if err != nil {
		return fmt.Errorf("%s: %w", input, err)
	}

	content, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if _, err = model.Decode[T](content); err != nil {
		return fmt.Errorf(app.T_("generated document is not valid: %w"), err)
	}

	if err = os.WriteFile(output, append(content, '\n'), 0644); err != nil {
		return fmt.Errorf(app.T_("failed to write %s: %w"), output, err)
	}
	return nil
}
