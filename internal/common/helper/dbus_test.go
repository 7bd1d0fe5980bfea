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

package helper

import (
	"encoding/xml"
	"testing"

	"github.com/godbus/dbus/v5/introspect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func interfaceNames(t *testing.T, data string) []string {
	t.Helper()
	var node introspect.Node
	require.NoError(t, xml.Unmarshal([]byte(data), &node))

	var names []string
	for _, iface := range node.Interfaces {
		names = append(names, iface.Name)
	}
	return names
}

func TestGetIntrospectXML(t *testing.T) {
	names := interfaceNames(t, GetIntrospectXML(true))
	assert.Contains(t, names, "io.aosc.Aoska")
	assert.Contains(t, names, "io.aosc.Aoska.store")
	assert.Contains(t, names, "io.aosc.Aoska.oma")
	assert.Contains(t, names, "org.freedesktop.DBus.Introspectable")
}

func TestGetIntrospectXML_WithoutOma(t *testing.T) {
	names := interfaceNames(t, GetIntrospectXML(false))
	assert.Contains(t, names, "io.aosc.Aoska.store")
	assert.NotContains(t, names, "io.aosc.Aoska.oma")
}
