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
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// KeyValueStore хранилище ключ-значение. *pogreb.DB удовлетворяет этому интерфейсу.
type KeyValueStore interface {
	Get(key []byte) ([]byte, error)
	Put(key []byte, value []byte) error
	Delete(key []byte) error
}

// CatalogCache хранит последние ответы репозитория вместе с их ETag.
// Тела документов хранятся сжатыми zstd.
type CatalogCache struct {
	db      KeyValueStore
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

type cachedDocument struct {
	ETag string `json:"etag"`
	Body []byte `json:"body"`
}

// NewCatalogCache - конструктор кеша
func NewCatalogCache(db KeyValueStore) (*CatalogCache, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf(app.T_("zstd encoder initialization failed: %w"), err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf(app.T_("zstd decoder initialization failed: %w"), err)
	}

	return &CatalogCache{db: db, encoder: encoder, decoder: decoder}, nil
}

// Load возвращает сохранённые ETag и тело документа
func (c *CatalogCache) Load(url string) (string, []byte, bool) {
	raw, err := c.db.Get(cacheKey(url))
	if err != nil {
		app.Log.Debugf("catalog cache read %s: %v", url, err)
		return "", nil, false
	}
	if len(raw) == 0 {
		return "", nil, false
	}

	var doc cachedDocument
	if err = json.Unmarshal(raw, &doc); err != nil {
		app.Log.Debugf("catalog cache entry %s is corrupted: %v", url, err)
		return "", nil, false
	}

	body, err := c.decoder.DecodeAll(doc.Body, nil)
	if err != nil {
		app.Log.Debugf("catalog cache entry %s: %v", url, err)
		return "", nil, false
	}
	return doc.ETag, body, true
}

// Store сохраняет документ под его адресом
func (c *CatalogCache) Store(url, etag string, body []byte) error {
	doc := cachedDocument{
		ETag: etag,
		Body: c.encoder.EncodeAll(body, nil),
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	if err = c.db.Put(cacheKey(url), raw); err != nil {
		return fmt.Errorf(app.T_("Error writing %s to the cache: %v"), url, err)
	}
	return nil
}

// Forget удаляет документ из кеша
func (c *CatalogCache) Forget(url string) error {
	return c.db.Delete(cacheKey(url))
}

func cacheKey(url string) []byte {
	return []byte("catalog:" + url)
}
