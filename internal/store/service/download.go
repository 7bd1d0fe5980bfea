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
	"crypto/md5"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
)

var (
	ErrChecksumMismatch = errors.New("checksum mismatch")
	ErrNoMirrors        = errors.New("package has no download urls")
	ErrUnsafeFileName   = errors.New("unsafe package file name")
)

// Downloader загружает пакеты плана в локальный каталог
type Downloader struct {
	client    *http.Client
	dir       string
	threads   int
	userAgent string
}

// NewDownloader - конструктор. threads задаёт число параллельных диапазонов на файл.
func NewDownloader(client *http.Client, dir string, threads int, userAgent string) *Downloader {
	if client == nil {
		client = http.DefaultClient
	}
	if threads < 1 {
		threads = 1
	}
	return &Downloader{client: client, dir: dir, threads: threads, userAgent: userAgent}
}

// DownloadPlan загружает все устанавливаемые пакеты плана и возвращает пути к файлам
func (d *Downloader) DownloadPlan(ctx context.Context, op model.OmaOperation) ([]string, error) {
	var files []string
	for _, entry := range op.Install {
		file, err := d.DownloadEntry(ctx, entry)
		if err != nil {
			return files, err
		}
		files = append(files, file)
	}
	return files, nil
}

// DownloadEntry перебирает зеркала по порядку до первой успешной загрузки с верной контрольной суммой
func (d *Downloader) DownloadEntry(ctx context.Context, entry model.InstallEntry) (string, error) {
	if len(entry.PkgUrls) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNoMirrors, entry.Name)
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return "", err
	}

	var lastErr error
	for _, pkgURL := range entry.PkgUrls {
		name := fileNameFromURL(pkgURL.DownloadURL)
		if !filepath.IsLocal(name) {
			lastErr = fmt.Errorf("%w: %s", ErrUnsafeFileName, name)
			continue
		}
		dst := filepath.Join(d.dir, name)

		err := d.download(ctx, pkgURL.DownloadURL, dst+".part")
		if err == nil {
			err = verifyChecksum(dst+".part", entry)
		}
		if err == nil {
			if err = os.Rename(dst+".part", dst); err == nil {
				return dst, nil
			}
		}

		_ = os.Remove(dst + ".part")
		app.Log.Warning(fmt.Sprintf(app.T_("Download of %s from %s failed: %v"), entry.Name, pkgURL.DownloadURL, err))
		lastErr = err

		if ctx.Err() != nil {
			break
		}
	}
	return "", fmt.Errorf(app.T_("Failed to download %s: %w"), entry.Name, lastErr)
}

func (d *Downloader) download(ctx context.Context, rawURL, dst string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	if parsed.Scheme == "file" {
		return copyLocalFile(parsed.Path, dst)
	}

	size, ranged, err := d.probe(ctx, rawURL)
	if err != nil {
		app.Log.Debugf("HEAD %s: %v", rawURL, err)
	}
	if ranged && size > 0 && d.threads > 1 {
		return d.downloadRanged(ctx, rawURL, dst, size)
	}
	return d.downloadSingle(ctx, rawURL, dst)
}

// probe узнаёт размер файла и поддержку диапазонов
func (d *Downloader) probe(ctx context.Context, rawURL string) (int64, bool, error) {
	req, err := d.newRequest(ctx, http.MethodHead, rawURL)
	if err != nil {
		return 0, false, err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return 0, false, err
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, false, fmt.Errorf("unexpected status %s", resp.Status)
	}
	ranged := strings.EqualFold(resp.Header.Get("Accept-Ranges"), "bytes")
	return resp.ContentLength, ranged, nil
}

func (d *Downloader) downloadSingle(ctx context.Context, rawURL, dst string) error {
	req, err := d.newRequest(ctx, http.MethodGet, rawURL)
	if err != nil {
		return err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf(app.T_("Bad status %s for %s"), resp.Status, rawURL)
	}

	file, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err = io.Copy(file, resp.Body); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// downloadRanged делит файл на равные диапазоны и загружает их параллельно
func (d *Downloader) downloadRanged(ctx context.Context, rawURL, dst string, size int64) error {
	file, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	if err = file.Truncate(size); err != nil {
		return err
	}

	chunk := (size + int64(d.threads) - 1) / int64(d.threads)
	g, gctx := errgroup.WithContext(ctx)

	for start := int64(0); start < size; start += chunk {
		end := min(start+chunk, size) - 1

		g.Go(func() error {
			req, err := d.newRequest(gctx, http.MethodGet, rawURL)
			if err != nil {
				return err
			}
			req.Header.Set("Range", "bytes="+strconv.FormatInt(start, 10)+"-"+strconv.FormatInt(end, 10))

			resp, err := d.client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusPartialContent {
				return fmt.Errorf(app.T_("Server ignored range request for %s: %s"), rawURL, resp.Status)
			}

			want := end - start + 1
			written, err := io.Copy(io.NewOffsetWriter(file, start), io.LimitReader(resp.Body, want))
			if err != nil {
				return err
			}
			if written != want {
				return fmt.Errorf(app.T_("Short read for %s: got %d of %d bytes"), rawURL, written, want)
			}
			return nil
		})
	}

	return g.Wait()
}

func (d *Downloader) newRequest(ctx context.Context, method, rawURL string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}
	return req, nil
}

func copyLocalFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err = io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// verifyChecksum проверяет самый сильный из доступных хешей: sha512, затем sha256, затем md5.
// Пакет без хешей считается непроверенным и принимается.
func verifyChecksum(file string, entry model.InstallEntry) error {
	var h hash.Hash
	var want string

	switch {
	case entry.Sha512 != nil:
		h, want = sha512.New(), *entry.Sha512
	case entry.Sha256 != nil:
		h, want = sha256.New(), *entry.Sha256
	case entry.Md5 != nil:
		h, want = md5.New(), *entry.Md5
	default:
		app.Log.Debugf("%s has no checksum, skipping verification", entry.Name)
		return nil
	}

	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err = io.Copy(h, f); err != nil {
		return err
	}

	got := hex.EncodeToString(h.Sum(nil))
	if !strings.EqualFold(got, want) {
		return fmt.Errorf("%w: %s: got %s, want %s", ErrChecksumMismatch, entry.Name, got, want)
	}
	return nil
}

// fileNameFromURL берёт последний сегмент уже декодированного пути.
// Повторно имя не раскодируется, иначе %252F превращается в разделитель.
func fileNameFromURL(rawURL string) string {
	name := path.Base(rawURL)
	if parsed, err := url.Parse(rawURL); err == nil {
		name = path.Base(parsed.Path)
	}
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || !filepath.IsLocal(name) {
		return "package.deb"
	}
	return name
}
