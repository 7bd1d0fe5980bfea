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
	"aoska/internal/store/model"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestGenerator() *Generator {
	return &Generator{now: func() time.Time { return fixedNow }}
}

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

func TestGenerator_Index(t *testing.T) {
	index, err := newTestGenerator().Index(readFixture(t, "index.toml"))
	require.NoError(t, err)

	assert.Equal(t, model.SupportedIndexVersion, index.Version)
	assert.Equal(t, fixedNow, index.GeneratedAt)
	require.Len(t, index.Packages, 2)
	assert.Equal(t, model.CategoryWorking, index.Packages[0].Category)
	assert.Equal(t, []string{"firefox", "libreoffice"}, []string{index.Packages[0].Packages[0].Name, index.Packages[0].Packages[1].Name})
	assert.Equal(t, "icon.svg", index.Packages[1].Packages[0].Icon)
}

func TestGenerator_IndexRejectsVersion(t *testing.T) {
	_, err := newTestGenerator().Index([]byte("version = 2\ncategories = []\n"))
	assert.True(t, errors.Is(err, model.ErrIncompatibleIndex))
}

func TestGenerator_IndexRejectsUnknownCategory(t *testing.T) {
	src := "version = 1\n[[categories]]\ncategory = \"observing\"\npackages = []\n"
	_, err := newTestGenerator().Index([]byte(src))
	require.Error(t, err)
}

func TestGenerator_Recommend(t *testing.T) {
	rec, err := newTestGenerator().Recommend(readFixture(t, "recommend.toml"))
	require.NoError(t, err)
	assert.Equal(t, fixedNow, rec.Date)
	assert.Equal(t, []model.PackageBrief{{Name: "vlc", Intro: "Multimedia player", Icon: "icon.png"}}, rec.Packages)
}

func TestGenerator_Package(t *testing.T) {
	detail, err := newTestGenerator().Package(readFixture(t, "package.toml"))
	require.NoError(t, err)

	assert.Equal(t, "firefox", detail.Name)
	assert.Equal(t, "banner.jpg", detail.Banner)
	assert.Equal(t, []string{"shot-1.png", "shot-2.png"}, detail.Screenshot)
	assert.True(t, detail.PackageFlags.Verified)
	assert.True(t, detail.PackageFlags.Telemetry)
	assert.Equal(t, int32(3), detail.PackageInfo.InnerVersion)
	assert.Equal(t, int64(262144000), detail.PackageInfo.InstallSize)
}

func TestGenerator_PackageMissingKey(t *testing.T) {
	src := strings.Replace(string(readFixture(t, "package.toml")), "banner = \"banner.jpg\"\n", "", 1)
	_, err := newTestGenerator().Package([]byte(src))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "banner")
}

func TestGenerator_PackageUnknownKey(t *testing.T) {
	src := string(readFixture(t, "package.toml")) + "\n[extra]\nfoo = 1\n"
	_, err := newTestGenerator().Package([]byte(src))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "extra")
}

func TestGenerateFile(t *testing.T) {
	output := filepath.Join(t.TempDir(), "meta.json")
	g := newTestGenerator()

	require.NoError(t, GenerateFile(filepath.Join("testdata", "package.toml"), output, g.Package))

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	detail, err := model.Decode[model.PackageDetail](data)
	require.NoError(t, err)
	assert.Equal(t, "Firefox", detail.Title)
	assert.Contains(t, string(data), "\n  \"package_flags\"")
}

func TestGenerateFile_IndexRoundTrip(t *testing.T) {
	output := filepath.Join(t.TempDir(), "aoska_index.json")

	require.NoError(t, GenerateFile(filepath.Join("testdata", "index.toml"), output, newTestGenerator().Index))

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	index, err := model.Decode[model.Index](data)
	require.NoError(t, err)
	assert.True(t, index.GeneratedAt.Equal(fixedNow))
}

func TestGenerateFile_MissingInput(t *testing.T) {
	err := GenerateFile(filepath.Join(t.TempDir(), "absent.toml"), filepath.Join(t.TempDir(), "out.json"), newTestGenerator().Recommend)
	require.Error(t, err)
}
