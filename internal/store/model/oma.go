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
	"strconv"
)

// InstallOperation вид действия над устанавливаемым пакетом
type InstallOperation int

const (
	OpDefault InstallOperation = iota
	OpInstall
	OpReInstall
	OpUpgrade
	OpDowngrade
	OpDownload
)

var installOperationNames = [...]string{"Default", "Install", "ReInstall", "Upgrade", "Downgrade", "Download"}

func (o InstallOperation) Valid() bool {
	return o >= OpDefault && o <= OpDownload
}

func (o InstallOperation) String() string {
	if !o.Valid() {
		return "InstallOperation(" + strconv.Itoa(int(o)) + ")"
	}
	return installOperationNames[o]
}

// ParseInstallOperation разбирает имя варианта
func ParseInstallOperation(s string) (InstallOperation, error) {
	for i, name := range installOperationNames {
		if name == s {
			return InstallOperation(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown install operation %q", ErrMalformed, s)
}

func (o InstallOperation) MarshalJSON() ([]byte, error) {
	if !o.Valid() {
		return nil, fmt.Errorf("%w: unknown install operation %d", ErrMalformed, int(o))
	}
	return []byte(strconv.Itoa(int(o))), nil
}

// UnmarshalJSON принимает как число, так и имя варианта строкой
func (o *InstallOperation) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		parsed, err := ParseInstallOperation(name)
		if err != nil {
			return err
		}
		*o = parsed
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("%w: install operation: %v", ErrMalformed, err)
	}
	op := InstallOperation(n)
	if !op.Valid() {
		return fmt.Errorf("%w: unknown install operation %d", ErrMalformed, n)
	}
	*o = op
	return nil
}

// RemoveTag причина удаления пакета. Причины не исключают друг друга.
type RemoveTag string

const (
	RemoveTagPurge      RemoveTag = "Purge"
	RemoveTagAutoRemove RemoveTag = "AutoRemove"
	RemoveTagResolver   RemoveTag = "Resolver"
)

func ParseRemoveTag(s string) (RemoveTag, error) {
	switch RemoveTag(s) {
	case RemoveTagPurge, RemoveTagAutoRemove, RemoveTagResolver:
		return RemoveTag(s), nil
	}
	return "", fmt.Errorf("%w: unknown remove tag %q", ErrMalformed, s)
}

func (t RemoveTag) MarshalText() ([]byte, error) {
	if _, err := ParseRemoveTag(string(t)); err != nil {
		return nil, err
	}
	return []byte(t), nil
}

func (t *RemoveTag) UnmarshalText(text []byte) error {
	parsed, err := ParseRemoveTag(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// SizePair пара (количество пакетов, суммарный размер), кодируется как массив из двух чисел
type SizePair [2]uint64

func (p *SizePair) UnmarshalJSON(data []byte) error {
	items, err := decodeTuple[uint64](data, "SizePair", 2)
	if err != nil {
		return err
	}
	*p = SizePair{items[0], items[1]}
	return nil
}

// NamePair пара (предлагаемый пакет, пакет-источник предложения)
type NamePair [2]string

func (p *NamePair) UnmarshalJSON(data []byte) error {
	items, err := decodeTuple[string](data, "NamePair", 2)
	if err != nil {
		return err
	}
	*p = NamePair{items[0], items[1]}
	return nil
}

// PackageUrl адрес загрузки пакета и адрес индекса зеркала
type PackageUrl struct {
	DownloadURL string `json:"download_url"`
	IndexURL    string `json:"index_url"`
}

var packageUrlFields = []string{"download_url", "index_url"}

func (u *PackageUrl) UnmarshalJSON(data []byte) error {
	if err := requireFields(data, "PackageUrl", packageUrlFields); err != nil {
		return err
	}
	type plain PackageUrl
	return json.Unmarshal(data, (*plain)(u))
}

// InstallEntry одно планируемое действие установки, обновления, отката или переустановки
type InstallEntry struct {
	Name            string           `json:"name"`
	NameWithoutArch string           `json:"name_without_arch"`
	OldVersion      *string          `json:"old_version,omitempty"`
	NewVersion      string           `json:"new_version"`
	OldSize         *uint64          `json:"old_size,omitempty"`
	NewSize         uint64           `json:"new_size"`
	PkgUrls         []PackageUrl     `json:"pkg_urls"`
	Sha256          *string          `json:"sha256,omitempty"`
	Md5             *string          `json:"md5,omitempty"`
	Sha512          *string          `json:"sha512,omitempty"`
	Arch            string           `json:"arch"`
	DownloadSize    uint64           `json:"download_size"`
	Op              InstallOperation `json:"op"`
	Automatic       bool             `json:"automatic,omitempty"`
	Index           int              `json:"index"`
}

var installEntryFields = []string{
	"name", "name_without_arch", "new_version", "new_size", "pkg_urls",
	"arch", "download_size", "op", "index",
}

func (e *InstallEntry) UnmarshalJSON(data []byte) error {
	if err := requireFields(data, "InstallEntry", installEntryFields); err != nil {
		return err
	}

	type plain InstallEntry
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	if len(decoded.PkgUrls) == 0 {
		return &FieldError{Type: "InstallEntry", Field: "pkg_urls", Reason: "empty"}
	}

	*e = InstallEntry(decoded)
	return nil
}

// IsFreshInstall пакет ранее не был установлен
func (e InstallEntry) IsFreshInstall() bool {
	return e.OldVersion == nil
}

// RemoveEntry одно планируемое удаление
type RemoveEntry struct {
	Name    string      `json:"name"`
	Version *string     `json:"version,omitempty"`
	Size    uint64      `json:"size"`
	Details []RemoveTag `json:"details"`
	Arch    string      `json:"arch"`
	Index   int         `json:"index"`
}

var removeEntryFields = []string{"name", "size", "details", "arch", "index"}

func (e *RemoveEntry) UnmarshalJSON(data []byte) error {
	if err := requireFields(data, "RemoveEntry", removeEntryFields); err != nil {
		return err
	}
	type plain RemoveEntry
	return json.Unmarshal(data, (*plain)(e))
}

// HasTag сообщает, помечено ли удаление указанной причиной
func (e RemoveEntry) HasTag(tag RemoveTag) bool {
	for _, t := range e.Details {
		if t == tag {
			return true
		}
	}
	return false
}

// OmaOperation план транзакции, ещё не выполненной бэкендом
type OmaOperation struct {
	Install           []InstallEntry `json:"install"`
	Remove            []RemoveEntry  `json:"remove"`
	DiskSizeDelta     int64          `json:"disk_size_delta"`
	Autoremovable     SizePair       `json:"autoremovable"`
	TotalDownloadSize uint64         `json:"total_download_size"`
	Suggest           []NamePair     `json:"suggest"`
	Recommend         []NamePair     `json:"recommend"`
}

var omaOperationFields = []string{
	"install", "remove", "disk_size_delta", "autoremovable",
	"total_download_size", "suggest", "recommend",
}

func (o *OmaOperation) UnmarshalJSON(data []byte) error {
	if err := requireFields(data, "OmaOperation", omaOperationFields); err != nil {
		return err
	}
	type plain OmaOperation
	return json.Unmarshal(data, (*plain)(o))
}

// NewOmaOperation возвращает пустой план, у которого все списки сериализуются как []
func NewOmaOperation() OmaOperation {
	return OmaOperation{
		Install:   []InstallEntry{},
		Remove:    []RemoveEntry{},
		Suggest:   []NamePair{},
		Recommend: []NamePair{},
	}
}

// UpgradableCount число обновлений и откатов в плане
func (o OmaOperation) UpgradableCount() int {
	count := 0
	for _, e := range o.Install {
		if e.Op == OpUpgrade || e.Op == OpDowngrade {
			count++
		}
	}
	return count
}

// TumUpdateInfo набор обновлений одной темы
type TumUpdateInfo struct {
	ManifestName string            `json:"manifest_name"`
	Name         map[string]string `json:"name"`
	IsSecurity   bool              `json:"is_security"`
	PackageCount int               `json:"package_count"`
	PackageNames []string          `json:"package_names"`
	Caution      map[string]string `json:"caution,omitempty"`
}

var tumUpdateInfoFields = []string{"manifest_name", "name", "is_security", "package_count", "package_names"}

func (t *TumUpdateInfo) UnmarshalJSON(data []byte) error {
	if err := requireFields(data, "TumUpdateInfo", tumUpdateInfoFields); err != nil {
		return err
	}
	type plain TumUpdateInfo
	return json.Unmarshal(data, (*plain)(t))
}
