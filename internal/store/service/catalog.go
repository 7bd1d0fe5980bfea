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
	"aoska/internal/store/model"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	ErrUnknownCategory  = errors.New("unknown category")
	ErrCategoryNotFound = errors.New("category not found")
	ErrInvalidPackage   = errors.New("invalid package name")
)

// maxDocumentSize ограничение размера документа каталога
const maxDocumentSize = 32 << 20

// CatalogConfig параметры источника каталога
type CatalogConfig struct {
	BaseURL            string
	UserAgent          string
	IndexPath          string
	RecommendIndexPath string
}

// CatalogService загружает документы каталога из репозитория магазина
type CatalogService struct {
	httpClient *http.Client
	cache      *CatalogCache
	config     CatalogConfig
}

// NewCatalogService - конструктор сервиса. cache может быть nil.
func NewCatalogService(httpClient *http.Client, cache *CatalogCache, config CatalogConfig) *CatalogService {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &CatalogService{
		httpClient: httpClient,
		cache:      cache,
		config:     config,
	}
}

// BaseURL адрес репозитория, относительно которого клиенты разрешают пути ресурсов
func (s *CatalogService) BaseURL() string {
	return s.config.BaseURL
}

// FetchIndex загружает полный индекс каталога
func (s *CatalogService) FetchIndex(ctx context.Context) (model.Index, error) {
	return fetchDocument[model.Index](ctx, s, s.config.IndexPath)
}

// FetchRecommend загружает подборку рекомендаций
func (s *CatalogService) FetchRecommend(ctx context.Context) (model.RecommendIndex, error) {
	return fetchDocument[model.RecommendIndex](ctx, s, s.config.RecommendIndexPath)
}

// FetchByCategory загружает индекс и возвращает группу указанного раздела
func (s *CatalogService) FetchByCategory(ctx context.Context, category string) (model.CategoryIndex, error) {
	index, err := s.FetchIndex(ctx)
	if err != nil {
		return model.CategoryIndex{}, err
	}

	cat, err := model.ParseCategory(category)
	if err != nil {
		return model.CategoryIndex{}, fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}

	group, ok := index.Category(cat)
	if !ok {
		return model.CategoryIndex{}, fmt.Errorf("%w: %s", ErrCategoryNotFound, category)
	}
	return group, nil
}

// FetchDetail загружает packages/<name>/meta.json
func (s *CatalogService) FetchDetail(ctx context.Context, pkgName string) (model.PackageDetail, error) {
	if !validPackageName(pkgName) {
		return model.PackageDetail{}, fmt.Errorf("%w: %q", ErrInvalidPackage, pkgName)
	}
	return fetchDocument[model.PackageDetail](ctx, s, "packages/"+pkgName+"/meta.json")
}

func fetchDocument[T any](ctx context.Context, s *CatalogService, path string) (T, error) {
	var zero T

	resp, err := s.get(ctx, path)
	if err != nil {
		return zero, err
	}

	doc, err := model.Decode[T](resp.body)
	if err != nil {
		if resp.fromCache {
			// испорченная запись иначе возвращалась бы на каждый 304
			if ferr := s.cache.Forget(resp.url); ferr != nil {
				app.Log.WithField("url", resp.url).Error(ferr)
			}
		}
		return zero, fmt.Errorf(app.T_("Invalid JSON in %s: %w"), path, err)
	}

	if !resp.fromCache && resp.etag != "" && s.cache != nil {
		if err = s.cache.Store(resp.url, resp.etag, resp.body); err != nil {
			app.Log.WithField("url", resp.url).Error(err)
		}
	}
	return doc, nil
}

// document ответ репозитория до разбора
type document struct {
	url       string
	etag      string
	body      []byte
	fromCache bool
}

// get выполняет условный GET. При ответе 304 тело берётся из кеша.
// В кеш ответ кладёт вызывающий, после успешного разбора.
func (s *CatalogService) get(ctx context.Context, path string) (document, error) {
	url := buildURL(s.config.BaseURL, path)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return document{}, err
	}
	req.Header.Set("User-Agent", s.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	var cachedBody []byte
	if s.cache != nil {
		if etag, body, ok := s.cache.Load(url); ok && etag != "" {
			req.Header.Set("If-None-Match", etag)
			cachedBody = body
		}
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return document{}, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified && cachedBody != nil {
		app.Log.Debugf("catalog %s not modified, using cache", url)
		return document{url: url, body: cachedBody, fromCache: true}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return document{}, fmt.Errorf(app.T_("Bad status %s for %s"), resp.Status, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return document{}, fmt.Errorf("GET %s: %w", url, err)
	}
	return document{url: url, etag: resp.Header.Get("ETag"), body: body}, nil
}

func buildURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

func validPackageName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, "/\\?#")
}
