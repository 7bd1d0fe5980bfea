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

package apt

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// SimulatedInstall строка "Inst" из вывода apt-get -s
type SimulatedInstall struct {
	Name       string
	Arch       string
	OldVersion string
	NewVersion string
	Release    string
}

// SimulatedRemove строка "Remv" или "Purg" из вывода apt-get -s
type SimulatedRemove struct {
	Name    string
	Arch    string
	Version string
	Purge   bool
}

// Simulation результат apt-get -s
type Simulation struct {
	Install []SimulatedInstall
	Remove  []SimulatedRemove
}

// Inst curl [8.5.0] (8.6.0 AOSC OS:stable [amd64])
var instRe = regexp.MustCompile(`^Inst (\S+)(?: \[([^\]]*)\])? \((\S+)(?: (.*?))? \[([^\]]+)\]\)`)

// Remv oldlib [0.9]
var removeRe = regexp.MustCompile(`^(Remv|Purg) (\S+)(?: \[([^\]]*)\])?`)

// ParseSimulation разбирает вывод apt-get -s. Строки Conf и прочие игнорируются.
func ParseSimulation(output string) Simulation {
	sim := Simulation{}

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)

		if m := instRe.FindStringSubmatch(line); m != nil {
			name, arch := SplitArch(m[1])
			if arch == "" {
				arch = m[5]
			}
			sim.Install = append(sim.Install, SimulatedInstall{
				Name:       name,
				Arch:       arch,
				OldVersion: m[2],
				NewVersion: m[3],
				Release:    m[4],
			})
			continue
		}

		if m := removeRe.FindStringSubmatch(line); m != nil {
			name, arch := SplitArch(m[2])
			sim.Remove = append(sim.Remove, SimulatedRemove{
				Name:    name,
				Arch:    arch,
				Version: m[3],
				Purge:   m[1] == "Purg",
			})
		}
	}

	return sim
}

// DownloadURI строка вывода apt-get --print-uris
type DownloadURI struct {
	URL      string
	Filename string
	Size     uint64
	// Hashes ключи в нижнем регистре: sha256, sha512, md5
	Hashes map[string]string
}

// Package имя пакета из имени файла name_version_arch.deb
func (d DownloadURI) Package() (string, string) {
	base := strings.TrimSuffix(d.Filename, ".deb")
	parts := strings.Split(base, "_")
	if len(parts) < 3 {
		return base, ""
	}
	return parts[0], parts[len(parts)-1]
}

// Version версия пакета из имени файла, с раскодированной эпохой
func (d DownloadURI) Version() string {
	parts := strings.Split(strings.TrimSuffix(d.Filename, ".deb"), "_")
	if len(parts) < 3 {
		return ""
	}
	version, err := url.PathUnescape(strings.Join(parts[1:len(parts)-1], "_"))
	if err != nil {
		return parts[1]
	}
	return version
}

// IndexURL часть адреса до /pool/, то есть корень зеркала
func (d DownloadURI) IndexURL() string {
	if idx := strings.Index(d.URL, "/pool/"); idx > 0 {
		return d.URL[:idx]
	}
	if idx := strings.LastIndexByte(d.URL, '/'); idx > 0 {
		return d.URL[:idx]
	}
	return d.URL
}

var hashPrefixes = map[string]string{
	"SHA256": "sha256",
	"SHA512": "sha512",
	"MD5Sum": "md5",
	"MD5SUM": "md5",
	"MD5":    "md5",
}

// ParsePrintURIs разбирает вывод apt-get --print-uris
// 'http://host/pool/c/curl_8.6.0_amd64.deb' curl_8.6.0_amd64.deb 210000 SHA256:9f86...
func ParsePrintURIs(output string) []DownloadURI {
	var uris []DownloadURI

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "'") {
			continue
		}
		end := strings.Index(line[1:], "'")
		if end < 0 {
			continue
		}

		uri := DownloadURI{URL: line[1 : end+1], Hashes: map[string]string{}}
		fields := strings.Fields(line[end+2:])
		if len(fields) < 2 {
			continue
		}
		uri.Filename = fields[0]
		size, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			continue
		}
		uri.Size = size

		for _, field := range fields[2:] {
			kind, sum, ok := strings.Cut(field, ":")
			if !ok || sum == "" {
				continue
			}
			if key, known := hashPrefixes[kind]; known {
				uri.Hashes[key] = sum
			}
		}

		uris = append(uris, uri)
	}
	return uris
}
