// Aoska Software Store
// Copyright (C) 2025 Дмитрий Удалов dmitry@udalов.online
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

package app

import (
	"testing"

	"github.com/coreos/go-systemd/journal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestJournalFieldName(t *testing.T) {
	assert.Equal(t, "AOSKA_DBUS_METHOD", journalFieldName("dbus_method"))
	assert.Equal(t, "AOSKA_UNIT", journalFieldName("unit"))
	assert.Equal(t, "AOSKA_ACTION_ID", journalFieldName("action-id"))
	assert.Equal(t, "AOSKA_PRIORITY", journalFieldName("_priority"))
	assert.Equal(t, "", journalFieldName("__"))
	assert.Equal(t, "", journalFieldName("42"))
}

func TestJournalVars(t *testing.T) {
	entry := logrus.NewEntry(logrus.New()).
		WithField("dbus_method", "StartInstall").
		WithField("unit", "oma-task-1").
		WithField("PRIORITY", "0")

	vars := journalVars(entry, journal.PriWarning)

	assert.Equal(t, "StartInstall", vars["AOSKA_DBUS_METHOD"])
	assert.Equal(t, "oma-task-1", vars["AOSKA_UNIT"])
	assert.Equal(t, "4", vars["PRIORITY"])
	assert.Equal(t, "aoska", vars["SYSLOG_IDENTIFIER"])
}

func TestLogger_WithFieldKeepsFields(t *testing.T) {
	log := NewLogger(false).WithField("dbus_method", "History").WithField("unit", "oma-task-2")

	entry, ok := log.(*entryLogger)
	if assert.True(t, ok) {
		assert.Equal(t, "History", entry.Data["dbus_method"])
		assert.Equal(t, "oma-task-2", entry.Data["unit"])
	}
}
