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
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Виды задач oma
const (
	ActionUpgrade = "upgrade"
	ActionInstall = "install"
	ActionRemove  = "remove"
)

// TaskRecord запущенная задача oma
type TaskRecord struct {
	Unit      string    `json:"unit"`
	Action    string    `json:"action"`
	Packages  []string  `json:"packages"`
	CreatedAt time.Time `json:"createdAt"`
}

// DBTask строка таблицы истории
type DBTask struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement"`
	Unit      string    `gorm:"column:unit;index"`
	Action    string    `gorm:"column:action"`
	Packages  string    `gorm:"column:packages"`
	CreatedAt time.Time `gorm:"column:created_at;index"`
}

// TableName - задаём нужное имя таблицы
func (DBTask) TableName() string {
	return "oma_history"
}

func (t DBTask) fromDBModel() TaskRecord {
	packages := []string{}
	if t.Packages != "" {
		packages = strings.Split(t.Packages, " ")
	}
	return TaskRecord{
		Unit:      t.Unit,
		Action:    t.Action,
		Packages:  packages,
		CreatedAt: t.CreatedAt,
	}
}

func (r TaskRecord) toDBModel() DBTask {
	return DBTask{
		Unit:      r.Unit,
		Action:    r.Action,
		Packages:  strings.Join(r.Packages, " "),
		CreatedAt: r.CreatedAt,
	}
}

// HistoryService хранит историю задач oma в sqlite
type HistoryService struct {
	db *gorm.DB
}

// NewHistoryService - конструктор сервиса, выполняет миграцию таблицы
func NewHistoryService(db *sql.DB) (*HistoryService, error) {
	gormDB, err := openGorm(db)
	if err != nil {
		return nil, err
	}

	if err = gormDB.AutoMigrate(&DBTask{}); err != nil {
		return nil, fmt.Errorf(app.T_("Table migration error: %w"), err)
	}

	return &HistoryService{db: gormDB}, nil
}

func openGorm(db *sql.DB) (*gorm.DB, error) {
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			LogLevel: logger.Silent,
		},
	)

	gormDB, err := gorm.Open(sqlite.Dialector{
		Conn:       db,
		DriverName: "sqlite3",
	}, &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf(app.T_("Error connecting to SQLite via GORM: %w"), err)
	}
	return gormDB, nil
}

// Save записывает задачу. Пустое время заменяется текущим.
func (h *HistoryService) Save(ctx context.Context, record TaskRecord) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	row := record.toDBModel()

	return h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errCreate := tx.Create(&row).Error; errCreate != nil {
			return fmt.Errorf(app.T_("Error inserting data: %v"), errCreate)
		}
		return nil
	})
}

// List задачи от новых к старым
func (h *HistoryService) List(ctx context.Context, limit, offset int) ([]TaskRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var rows []DBTask
	err := h.db.WithContext(ctx).Model(&DBTask{}).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		if strings.Contains(err.Error(), "no such table") {
			return nil, errors.New(app.T_("History not found"))
		}
		return nil, fmt.Errorf(app.T_("Query execution error: %v"), err)
	}

	records := make([]TaskRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.fromDBModel())
	}
	return records, nil
}

// Count общее число записей
func (h *HistoryService) Count(ctx context.Context) (int, error) {
	var count int64
	if err := h.db.WithContext(ctx).Model(&DBTask{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf(app.T_("Query execution error: %v"), err)
	}
	return int(count), nil
}
