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

package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0", "1.0", 0},
		{"1.0", "1.1", -1},
		{"1.10", "1.9", 1},
		{"1.0-1", "1.0-2", -1},
		{"1:1.0", "2.0", 1},
		{"1.0~rc1", "1.0", -1},
		{"1.0~rc1", "1.0~rc2", -1},
		{"1.0+b1", "1.0", 1},
		{"1.0a", "1.0", 1},
		{"1.0a", "1.0+", -1},
		{"001.0", "1.0", 0},
		{"8.6.0", "8.5.0", 1},
		{"2:0.1", "1:9.9", 1},
		{"1.2.3-0", "1.2.3", 0},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_vs_"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, Compare(tt.a, tt.b))
			assert.Equal(t, -tt.want, Compare(tt.b, tt.a))
		})
	}
}

func TestParseDebian(t *testing.T) {
	v := ParseDebian("2:1.4.2-3-aosc1")
	assert.Equal(t, 2, v.Epoch)
	assert.Equal(t, "1.4.2-3", v.Upstream)
	assert.Equal(t, "aosc1", v.Revision)
	assert.Equal(t, "2:1.4.2-3-aosc1", v.String())

	plain := ParseDebian("128.0")
	assert.Equal(t, 0, plain.Epoch)
	assert.Equal(t, "", plain.Revision)
	assert.Equal(t, "128.0", plain.String())
}
