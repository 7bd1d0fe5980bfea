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
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

func TestDecodeIndex(t *testing.T) {
	idx, err := Decode[Index](readFixture(t, "index.json"))
	require.NoError(t, err)

	assert.Equal(t, SupportedIndexVersion, idx.Version)
	assert.Equal(t, time.Date(2025, 3, 1, 8, 30, 0, 0, time.UTC), idx.GeneratedAt.UTC())
	require.Len(t, idx.Packages, 2)
	assert.Equal(t, CategoryWorking, idx.Packages[0].Category)
	assert.Equal(t, []PackageBrief{
		{Name: "libreoffice", Intro: "Office suite", Icon: "icon.png"},
		{Name: "thunderbird", Intro: "Mail client", Icon: "icon.svg"},
	}, idx.Packages[0].Packages)

	games, ok := idx.Category(CategoryGames)
	require.True(t, ok)
	assert.Equal(t, "supertuxkart", games.Packages[0].Name)

	_, ok = idx.Category(CategoryVideo)
	assert.False(t, ok)
}

func TestDecodeIndex_IncompatibleVersion(t *testing.T) {
	payload := strings.Replace(string(readFixture(t, "index.json")), `"version": 1`, `"version": 2`, 1)

	_, err := Decode[Index]([]byte(payload))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIncompatibleIndex))
}

func TestDecodeRecommend(t *testing.T) {
	rec, err := Decode[RecommendIndex](readFixture(t, "recommend.json"))
	require.NoError(t, err)
	assert.Equal(t, 123456789, rec.Date.Nanosecond())
	require.Len(t, rec.Packages, 1)
	assert.Equal(t, "firefox", rec.Packages[0].Name)
}

func TestDecodeDetail(t *testing.T) {
	detail, err := Decode[PackageDetail](readFixture(t, "detail.json"))
	require.NoError(t, err)

	assert.Equal(t, PackageDetail{
		Name:       "firefox",
		Icon:       "icon.png",
		Title:      "Firefox",
		Intro:      "Free and open-source web browser",
		Category:   CategoryWorking,
		Screenshot: []string{"shot-1.png", "shot-2.png"},
		PackageFlags: PackageFlags{
			Verified:  true,
			Telemetry: true,
		},
		PackageInfo: PackageInfo{
			Publisher:    "Mozilla",
			Source:       "AOSC OS",
			Version:      "128.0",
			InnerVersion: 3,
			UpdateDate:   "2025-02-20",
			InstallSize:  262144000,
			Homepage:     "https://www.mozilla.org",
		},
		Banner: "banner.jpg",
	}, detail)
}

func TestDecodeUpdate(t *testing.T) {
	op, err := Decode[OmaOperation](readFixture(t, "update.json"))
	require.NoError(t, err)

	require.Len(t, op.Install, 2)
	curl := op.Install[0]
	require.NotNil(t, curl.OldVersion)
	assert.Equal(t, "8.5.0", *curl.OldVersion)
	require.NotNil(t, curl.OldSize)
	assert.Equal(t, uint64(512000), *curl.OldSize)
	assert.Equal(t, OpUpgrade, curl.Op)
	assert.True(t, curl.Automatic)
	require.NotNil(t, curl.Sha256)
	assert.Nil(t, curl.Md5)
	assert.Nil(t, curl.Sha512)
	assert.False(t, curl.IsFreshInstall())

	fresh := op.Install[1]
	assert.True(t, fresh.IsFreshInstall())
	assert.Nil(t, fresh.OldSize)
	assert.Equal(t, OpInstall, fresh.Op)
	assert.False(t, fresh.Automatic)
	assert.Len(t, fresh.PkgUrls, 2)

	require.Len(t, op.Remove, 1)
	assert.True(t, op.Remove[0].HasTag(RemoveTagAutoRemove))
	assert.True(t, op.Remove[0].HasTag(RemoveTagPurge))
	assert.False(t, op.Remove[0].HasTag(RemoveTagResolver))

	assert.Equal(t, int64(-4096), op.DiskSizeDelta)
	assert.Equal(t, SizePair{3, 1048576}, op.Autoremovable)
	assert.Equal(t, []NamePair{{"curl-doc", "curl"}}, op.Suggest)
	assert.Empty(t, op.Recommend)
	assert.Equal(t, 1, op.UpgradableCount())
}

func TestDecodeTum(t *testing.T) {
	infos, err := Decode[[]TumUpdateInfo](readFixture(t, "tum.json"))
	require.NoError(t, err)
	require.Len(t, infos, 2)

	assert.Equal(t, "curl-security", infos[0].ManifestName)
	assert.True(t, infos[0].IsSecurity)
	assert.Equal(t, "cURL 安全更新", infos[0].Name["zh_CN"])
	assert.Equal(t, "Restart running services.", infos[0].Caution["default"])

	assert.Nil(t, infos[1].Caution)
	assert.Empty(t, infos[1].PackageNames)
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		decode  func([]byte) error
		payload string
	}{
		{
			name:    "empty document",
			decode:  func(b []byte) error { _, err := Decode[Index](b); return err },
			payload: "  ",
		},
		{
			name:    "null document",
			decode:  func(b []byte) error { _, err := Decode[PackageDetail](b); return err },
			payload: "null",
		},
		{
			name:    "missing required field",
			decode:  func(b []byte) error { _, err := Decode[PackageBrief](b); return err },
			payload: `{"name":"a","intro":"b"}`,
		},
		{
			name:    "null required field",
			decode:  func(b []byte) error { _, err := Decode[PackageBrief](b); return err },
			payload: `{"name":"a","intro":"b","icon":null}`,
		},
		{
			name:    "unknown category",
			decode:  func(b []byte) error { _, err := Decode[CategoryIndex](b); return err },
			payload: `{"category":"observing","packages":[]}`,
		},
		{
			name:    "category wrong type",
			decode:  func(b []byte) error { _, err := Decode[CategoryIndex](b); return err },
			payload: `{"category":1,"packages":[]}`,
		},
		{
			name:    "unknown remove tag",
			decode:  func(b []byte) error { _, err := Decode[RemoveEntry](b); return err },
			payload: `{"name":"a","size":1,"details":["Broken"],"arch":"amd64","index":0}`,
		},
		{
			name:    "install operation out of range",
			decode:  func(b []byte) error { var op InstallOperation; return json.Unmarshal(b, &op) },
			payload: `9`,
		},
		{
			name:    "install operation unknown name",
			decode:  func(b []byte) error { var op InstallOperation; return json.Unmarshal(b, &op) },
			payload: `"Upgrayedd"`,
		},
		{
			name:    "autoremovable wrong arity",
			decode:  func(b []byte) error { var p SizePair; return json.Unmarshal(b, &p) },
			payload: `[1, 2, 3]`,
		},
		{
			name:    "suggest pair wrong arity",
			decode:  func(b []byte) error { var p NamePair; return json.Unmarshal(b, &p) },
			payload: `["only-one"]`,
		},
		{
			name:    "empty pkg_urls",
			decode:  func(b []byte) error { _, err := Decode[InstallEntry](b); return err },
			payload: `{"name":"a:amd64","name_without_arch":"a","new_version":"1","new_size":1,"pkg_urls":[],"arch":"amd64","download_size":1,"op":1,"index":0}`,
		},
		{
			name:    "nested failure fails whole plan",
			decode:  func(b []byte) error { _, err := Decode[OmaOperation](b); return err },
			payload: `{"install":[],"remove":[],"disk_size_delta":0,"autoremovable":[0],"total_download_size":0,"suggest":[],"recommend":[]}`,
		},
		{
			name:    "invalid json",
			decode:  func(b []byte) error { _, err := Decode[RecommendIndex](b); return err },
			payload: `{"date":`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.decode([]byte(tt.payload)))
		})
	}
}

func TestDecode_FieldErrorIsMalformed(t *testing.T) {
	_, err := Decode[PackageBrief]([]byte(`{"name":"a","icon":"i"}`))
	require.Error(t, err)

	var fieldErr *FieldError
	require.True(t, errors.As(err, &fieldErr))
	assert.Equal(t, "intro", fieldErr.Field)
	assert.Equal(t, "missing", fieldErr.Reason)
	assert.True(t, errors.Is(err, ErrMalformed))
}

func TestDecode_FailureReturnsZeroValue(t *testing.T) {
	payload := strings.Replace(string(readFixture(t, "detail.json")), `"banner": "banner.jpg"`, `"banner": null`, 1)

	detail, err := Decode[PackageDetail]([]byte(payload))
	require.Error(t, err)
	assert.Equal(t, PackageDetail{}, detail)
}

func TestInstallEntry_MarshalOmitsAbsentOptionals(t *testing.T) {
	entry := InstallEntry{
		Name:            "curl:amd64",
		NameWithoutArch: "curl",
		NewVersion:      "8.6.0",
		NewSize:         1,
		PkgUrls:         []PackageUrl{{DownloadURL: "https://a/pool/c.deb", IndexURL: "https://a"}},
		Arch:            "amd64",
		DownloadSize:    1,
		Op:              OpInstall,
	}

	data, err := json.Marshal(entry)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{"old_version", "old_size", "sha256", "md5", "sha512", "automatic"} {
		_, present := raw[key]
		assert.False(t, present, key)
	}
	assert.Equal(t, "1", string(raw["op"]))

	back, err := Decode[InstallEntry](data)
	require.NoError(t, err)
	assert.Equal(t, entry, back)
}

func TestOmaOperation_EmptyListsSerializeAsArrays(t *testing.T) {
	data, err := json.Marshal(NewOmaOperation())
	require.NoError(t, err)
	assert.JSONEq(t, `{"install":[],"remove":[],"disk_size_delta":0,"autoremovable":[0,0],"total_download_size":0,"suggest":[],"recommend":[]}`, string(data))

	_, err = Decode[OmaOperation](data)
	assert.NoError(t, err)
}

func TestEnumsRejectUnknownOnMarshal(t *testing.T) {
	_, err := json.Marshal(CategoryIndex{Category: "observing", Packages: []PackageBrief{}})
	assert.Error(t, err)

	_, err = json.Marshal(RemoveEntry{Details: []RemoveTag{"Nope"}})
	assert.Error(t, err)

	_, err = json.Marshal(InstallEntry{Op: InstallOperation(42), PkgUrls: []PackageUrl{}})
	assert.Error(t, err)
}

func TestInstallOperationString(t *testing.T) {
	assert.Equal(t, "ReInstall", OpReInstall.String())
	assert.Equal(t, "InstallOperation(7)", InstallOperation(7).String())

	op, err := ParseInstallOperation("Download")
	require.NoError(t, err)
	assert.Equal(t, OpDownload, op)
}
