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

package store

import (
	"aoska/internal/store/endpoint"
	"aoska/internal/store/model"
)

// Документы каталога хранят пути ресурсов относительно packages/<name>/.
// Функции ниже возвращают копии с абсолютными адресами.

func resolveBriefs(e endpoint.Endpoint, briefs []model.PackageBrief) []model.PackageBrief {
	if briefs == nil {
		return nil
	}
	out := make([]model.PackageBrief, len(briefs))
	for i, b := range briefs {
		b.Icon = e.Resolve(b.Icon, b.Name)
		out[i] = b
	}
	return out
}

func resolveIndex(e endpoint.Endpoint, index model.Index) model.Index {
	groups := make([]model.CategoryIndex, len(index.Packages))
	for i, group := range index.Packages {
		groups[i] = resolveCategory(e, group)
	}
	index.Packages = groups
	return index
}

func resolveCategory(e endpoint.Endpoint, group model.CategoryIndex) model.CategoryIndex {
	group.Packages = resolveBriefs(e, group.Packages)
	return group
}

func resolveRecommend(e endpoint.Endpoint, rec model.RecommendIndex) model.RecommendIndex {
	rec.Packages = resolveBriefs(e, rec.Packages)
	return rec
}

func resolveDetail(e endpoint.Endpoint, detail model.PackageDetail) model.PackageDetail {
	detail.Icon = e.Resolve(detail.Icon, detail.Name)
	detail.Banner = e.Resolve(detail.Banner, detail.Name)
	detail.Screenshot = e.ResolveAll(detail.Screenshot, detail.Name)
	return detail
}
