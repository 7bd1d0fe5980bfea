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
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"aoska/internal/store/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type packageMirror struct {
	payload  []byte
	ranges   bool
	mu       sync.Mutex
	seen     []string
	requests atomic.Int32
}

func (m *packageMirror) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.requests.Add(1)
	m.mu.Lock()
	m.seen = append(m.seen, r.Method+" "+r.Header.Get("Range"))
	m.mu.Unlock()

	if m.ranges {
		http.ServeContent(w, r, "pkg.deb", time.Time{}, bytes.NewReader(m.payload))
		return
	}
	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}
	_, _ = w.Write(m.payload)
}

func testPayload(size int) []byte {
	buf := make([]byte, size)
	for i := range buf {
		buf[i] = byte(i % 251)
	}
	return buf
}

func sha256Hex(data []byte) *string {
	sum := sha256.Sum256(data)
	s := hex.EncodeToString(sum[:])
	return &s
}

func sha512Hex(data []byte) *string {
	sum := sha512.Sum512(data)
	s := hex.EncodeToString(sum[:])
	return &s
}

func entryFor(name string, urls ...string) model.InstallEntry {
	entry := model.InstallEntry{Name: name, NameWithoutArch: name, NewVersion: "1.0", Arch: "amd64", Op: model.OpInstall}
	for _, u := range urls {
		entry.PkgUrls = append(entry.PkgUrls, model.PackageUrl{DownloadURL: u, IndexURL: u})
	}
	return entry
}

func TestDownloader_RangedDownload(t *testing.T) {
	payload := testPayload(10_000)
	mirror := &packageMirror{payload: payload, ranges: true}
	srv := httptest.NewServer(mirror)
	defer srv.Close()

	dir := t.TempDir()
	d := NewDownloader(srv.Client(), dir, 4, "aoska/1.0")

	entry := entryFor("foo", srv.URL+"/pool/foo_1.0_amd64.deb")
	entry.Sha256 = sha256Hex(payload)

	file, err := d.DownloadEntry(context.Background(), entry)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "foo_1.0_amd64.deb"), file)

	got, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	ranged := 0
	for _, line := range mirror.seen {
		if strings.HasPrefix(line, "GET bytes=") {
			ranged++
		}
	}
	assert.Equal(t, 4, ranged)

	_, err = os.Stat(file + ".part")
	assert.True(t, os.IsNotExist(err))
}

func TestDownloader_SingleStreamWithoutRanges(t *testing.T) {
	payload := testPayload(3_000)
	mirror := &packageMirror{payload: payload}
	srv := httptest.NewServer(mirror)
	defer srv.Close()

	d := NewDownloader(srv.Client(), t.TempDir(), 4, "")
	entry := entryFor("bar", srv.URL+"/bar.deb")
	entry.Sha512 = sha512Hex(payload)

	file, err := d.DownloadEntry(context.Background(), entry)
	require.NoError(t, err)

	got, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
	assert.Equal(t, []string{"HEAD ", "GET "}, mirror.seen)
}

func TestDownloader_FallsBackToNextMirror(t *testing.T) {
	payload := testPayload(512)
	bad := &packageMirror{payload: []byte("corrupted"), ranges: true}
	good := &packageMirror{payload: payload, ranges: true}
	badSrv := httptest.NewServer(bad)
	defer badSrv.Close()
	goodSrv := httptest.NewServer(good)
	defer goodSrv.Close()

	d := NewDownloader(nil, t.TempDir(), 2, "")
	entry := entryFor("baz", badSrv.URL+"/baz.deb", goodSrv.URL+"/baz.deb")
	entry.Sha256 = sha256Hex(payload)

	file, err := d.DownloadEntry(context.Background(), entry)
	require.NoError(t, err)

	got, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
	assert.NotZero(t, bad.requests.Load())
}

func TestDownloader_ChecksumMismatch(t *testing.T) {
	mirror := &packageMirror{payload: testPayload(128), ranges: true}
	srv := httptest.NewServer(mirror)
	defer srv.Close()

	dir := t.TempDir()
	d := NewDownloader(srv.Client(), dir, 1, "")
	entry := entryFor("qux", srv.URL+"/qux.deb")
	wrong := strings.Repeat("0", 64)
	entry.Sha256 = &wrong

	_, err := d.DownloadEntry(context.Background(), entry)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrChecksumMismatch))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDownloader_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	d := NewDownloader(srv.Client(), t.TempDir(), 2, "")
	_, err := d.DownloadEntry(context.Background(), entryFor("missing", srv.URL+"/missing.deb"))
	require.Error(t, err)
}

func TestDownloader_NoMirrors(t *testing.T) {
	d := NewDownloader(nil, t.TempDir(), 2, "")
	_, err := d.DownloadEntry(context.Background(), entryFor("empty"))
	assert.True(t, errors.Is(err, ErrNoMirrors))
}

func TestDownloader_LocalArchive(t *testing.T) {
	src := filepath.Join(t.TempDir(), "cached_1.0_amd64.deb")
	require.NoError(t, os.WriteFile(src, []byte("cached"), 0o644))

	d := NewDownloader(nil, t.TempDir(), 2, "")
	file, err := d.DownloadEntry(context.Background(), entryFor("cached", "file://"+src))
	require.NoError(t, err)

	got, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "cached", string(got))
}

func TestDownloader_DownloadPlan(t *testing.T) {
	payload := testPayload(64)
	srv := httptest.NewServer(&packageMirror{payload: payload, ranges: true})
	defer srv.Close()

	d := NewDownloader(srv.Client(), t.TempDir(), 2, "")
	plan := model.NewOmaOperation()
	plan.Install = append(plan.Install, entryFor("a", srv.URL+"/a.deb"), entryFor("b", srv.URL+"/b.deb"))

	files, err := d.DownloadPlan(context.Background(), plan)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "a.deb", filepath.Base(files[0]))
	assert.Equal(t, "b.deb", filepath.Base(files[1]))
}

func TestFileNameFromURL(t *testing.T) {
	assert.Equal(t, "foo_1.0+git_amd64.deb", fileNameFromURL("https://repo.aosc.io/debs/pool/foo_1.0%2Bgit_amd64.deb"))
	assert.Equal(t, "x.deb", fileNameFromURL("https://repo.aosc.io/x.deb?sig=1"))
	assert.Equal(t, "package.deb", fileNameFromURL("https://repo.aosc.io/"))
	assert.Equal(t, "package.deb", fileNameFromURL("https://repo.aosc.io/pool/.."))
	assert.Equal(t, "..%2F..%2Fescaped.deb", fileNameFromURL("https://repo.aosc.io/pool/..%252F..%252Fescaped.deb"))
	assert.Equal(t, "escaped.deb", fileNameFromURL("https://repo.aosc.io/pool/..%2F..%2Fescaped.deb"))
}

func TestDownloader_EncodedTraversalStaysInDir(t *testing.T) {
	payload := testPayload(512)
	srv := httptest.NewServer(&packageMirror{payload: payload})
	defer srv.Close()

	root := t.TempDir()
	dir := filepath.Join(root, "a", "b")
	d := NewDownloader(srv.Client(), dir, 1, "")

	entry := entryFor("escaped", srv.URL+"/pool/..%252F..%252Fescaped.deb")
	entry.Sha256 = sha256Hex(payload)

	file, err := d.DownloadEntry(context.Background(), entry)
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(file))
	assert.NotContains(t, filepath.Base(file), string(filepath.Separator))

	_, err = os.Stat(filepath.Join(root, "escaped.deb"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(root, "a", "escaped.deb"))
	assert.True(t, os.IsNotExist(err))
}
