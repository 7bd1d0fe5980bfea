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
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHistory(t *testing.T) *HistoryService {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	svc, err := NewHistoryService(db)
	require.NoError(t, err)
	return svc
}

func TestHistoryService_SaveAndList(t *testing.T) {
	svc := newTestHistory(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, svc.Save(ctx, TaskRecord{Unit: "u1", Action: ActionUpgrade, CreatedAt: base}))
	require.NoError(t, svc.Save(ctx, TaskRecord{Unit: "u2", Action: ActionInstall, Packages: []string{"firefox", "vlc"}, CreatedAt: base.Add(time.Minute)}))
	require.NoError(t, svc.Save(ctx, TaskRecord{Unit: "u3", Action: ActionRemove, Packages: []string{"gimp"}, CreatedAt: base.Add(2 * time.Minute)}))

	records, err := svc.List(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "u3", records[0].Unit)
	assert.Equal(t, "u2", records[1].Unit)
	assert.Equal(t, []string{"firefox", "vlc"}, records[1].Packages)

	records, err = svc.List(ctx, 10, 2)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "u1", records[0].Unit)
	assert.Equal(t, []string{}, records[0].Packages)

	count, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestHistoryService_SaveSetsTime(t *testing.T) {
	svc := newTestHistory(t)
	before := time.Now().UTC().Add(-time.Second)

	require.NoError(t, svc.Save(context.Background(), TaskRecord{Unit: "u", Action: ActionUpgrade}))
	records, err := svc.List(context.Background(), 0, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].CreatedAt.After(before))
}

func TestHistoryService_QueryError(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()
	mock.MatchExpectationsInOrder(false)

	mock.ExpectQuery("select sqlite_version").
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow("3.45.0"))
	mock.ExpectQuery("SELECT (.+) FROM (.+)oma_history(.+)").
		WillReturnError(errors.New("disk I/O error"))

	gormDB, err := openGorm(sqlDB)
	require.NoError(t, err)
	svc := &HistoryService{db: gormDB}

	_, err = svc.List(context.Background(), 10, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk I/O error")
}
