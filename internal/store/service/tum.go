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
	"aoska/internal/common/version"
	"aoska/internal/store/model"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

const (
	TumConventional = "conventional"
	TumCumulative   = "cumulative"
)

// TumEntry запись манифеста тематических обновлений.
// Обычная запись перечисляет пакеты: версия означает обновление до неё, null означает удаление.
// Накопительная запись объединяет другие записи по именам.
type TumEntry struct {
	Type     string             `json:"type"`
	Name     map[string]string  `json:"name"`
	Security bool               `json:"security"`
	Caution  map[string]string  `json:"caution,omitempty"`
	Packages map[string]*string `json:"packages,omitempty"`
	Topics   []string           `json:"topics,omitempty"`
}

// TumMatcher сопоставляет манифесты с планом обновления
type TumMatcher struct {
	dir string
}

// NewTumMatcher - конструктор. dir содержит JSON-манифесты.
func NewTumMatcher(dir string) *TumMatcher {
	return &TumMatcher{dir: dir}
}

// Load читает все манифесты каталога. Отсутствующий каталог означает отсутствие тем.
func (m *TumMatcher) Load() (map[string]TumEntry, error) {
	files, err := filepath.Glob(filepath.Join(m.dir, "*.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	result := make(map[string]TumEntry)
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, err
		}

		var manifest map[string]TumEntry
		if err = json.Unmarshal(data, &manifest); err != nil {
			app.Log.Warning(fmt.Sprintf(app.T_("Skipping invalid topic manifest %s: %v"), file, err))
			continue
		}

		for name, entry := range manifest {
			if _, exists := result[name]; exists {
				app.Log.Warning(fmt.Sprintf(app.T_("Duplicate topic %s in %s ignored"), name, file))
				continue
			}
			if entry.Type != TumConventional && entry.Type != TumCumulative {
				app.Log.Warning(fmt.Sprintf(app.T_("Topic %s has unknown type %q"), name, entry.Type))
				continue
			}
			result[name] = entry
		}
	}
	return result, nil
}

// Match загружает манифесты и возвращает темы, затронутые планом
func (m *TumMatcher) Match(op model.OmaOperation) ([]model.TumUpdateInfo, error) {
	manifests, err := m.Load()
	if err != nil {
		return nil, err
	}
	return MatchTum(manifests, op), nil
}

// MatchTum возвращает темы, затронутые планом: сначала обновления безопасности, затем по имени
func MatchTum(manifests map[string]TumEntry, op model.OmaOperation) []model.TumUpdateInfo {
	installs := make(map[string]string)
	for _, e := range op.Install {
		installs[e.NameWithoutArch] = e.NewVersion
	}
	removes := make(map[string]bool)
	for _, e := range op.Remove {
		removes[e.Name] = true
	}

	matched := make(map[string]bool)
	for name, entry := range manifests {
		if entry.Type == TumConventional && conventionalMatches(entry, installs, removes) {
			matched[name] = true
		}
	}

	result := []model.TumUpdateInfo{}
	for name, entry := range manifests {
		switch entry.Type {
		case TumConventional:
			if !matched[name] {
				continue
			}
			names := make([]string, 0, len(entry.Packages))
			for pkg := range entry.Packages {
				names = append(names, pkg)
			}
			sort.Strings(names)
			result = append(result, newTumInfo(name, entry, entry.Security, len(names), names))

		case TumCumulative:
			if len(entry.Topics) == 0 {
				continue
			}
			security := entry.Security
			count := 0
			all := true
			for _, topic := range entry.Topics {
				if !matched[topic] {
					all = false
					break
				}
				security = security || manifests[topic].Security
				count += len(manifests[topic].Packages)
			}
			if all {
				result = append(result, newTumInfo(name, entry, security, count, []string{}))
			}
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].IsSecurity != result[j].IsSecurity {
			return result[i].IsSecurity
		}
		return result[i].ManifestName < result[j].ManifestName
	})
	return result
}

func conventionalMatches(entry TumEntry, installs map[string]string, removes map[string]bool) bool {
	for pkg, want := range entry.Packages {
		if want == nil {
			if removes[pkg] {
				return true
			}
			continue
		}
		if newVersion, ok := installs[pkg]; ok && version.Compare(newVersion, *want) >= 0 {
			return true
		}
	}
	return false
}

func newTumInfo(name string, entry TumEntry, security bool, count int, names []string) model.TumUpdateInfo {
	displayName := entry.Name
	if displayName == nil {
		displayName = map[string]string{"default": name}
	}
	return model.TumUpdateInfo{
		ManifestName: name,
		Name:         displayName,
		IsSecurity:   security,
		PackageCount: count,
		PackageNames: names,
		Caution:      entry.Caution,
	}
}
