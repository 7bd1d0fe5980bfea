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

package app

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// Manager управляет конфигурацией приложения
type Manager interface {
	GetConfig() *Configuration
	GetColors() Colors
	IsDevMode() bool
	SetFormat(format string)
}

// BuildInfo информация, интегрированная через сборку
type BuildInfo struct {
	CommandPrefix string
	Environment   string
	PathLocales   string
	PathMockData  string
	Version       string
}

// Colors конфигурация цветовой схемы
type Colors struct {
	Enumerator string `yaml:"enumerator" env-default:"#c4c8c6"`
	Accent     string `yaml:"accent" env-default:"#a2734c"`
	ItemLight  string `yaml:"itemLight" env-default:"#171717"`
	ItemDark   string `yaml:"itemDark" env-default:"#c4c8c6"`
	Success    string `yaml:"success" env-default:"2"`
	Error      string `yaml:"error" env-default:"9"`

	ProgressStart string `yaml:"progressStart" env-default:"#2aa1b3"`
	ProgressEnd   string `yaml:"progressEnd" env-default:"#a2734c"`
}

// Константы форматов вывода
const (
	FormatText = "text" // CLI текстовый вывод
	FormatJSON = "json" // CLI JSON вывод
	FormatYAML = "yaml" // CLI YAML вывод
	FormatDBus = "dbus" // D-Bus сервис
)

// Configuration основная конфигурация приложения
type Configuration struct {
	CommandPrefix string `yaml:"commandPrefix" env:"AOSKA_COMMAND_PREFIX"`
	Environment   string `yaml:"environment" env:"AOSKA_ENVIRONMENT" env-default:"prod"`

	// Репозиторий каталога магазина
	Endpoint           string `yaml:"endpoint" env:"AOSKA_ENDPOINT" env-default:"https://raw.githubusercontent.com/AOSC-Dev/aosc-os-asmr/stable"`
	IndexPath          string `yaml:"indexPath" env:"AOSKA_INDEX_PATH" env-default:"aoska_index.json"`
	RecommendIndexPath string `yaml:"recommendIndexPath" env:"AOSKA_RECOMMEND_INDEX_PATH" env-default:"recommend_index.json"`
	UserAgent          string `yaml:"userAgent" env:"AOSKA_USER_AGENT" env-default:"aoska/1.0"`

	PathDBSQLUser  string `yaml:"pathDBSQLUser" env:"AOSKA_DB_SQL" env-default:"~/.cache/aoska/aoska.db"`
	PathDBKV       string `yaml:"pathDBKV" env:"AOSKA_DB_KV" env-default:"~/.cache/aoska/pogreb"`
	PathLocales    string `yaml:"pathLocales" env:"AOSKA_LOCALES" env-default:"/usr/share/locale"`
	PathMockData   string `yaml:"pathMockData" env:"AOSKA_MOCK_DATA" env-default:"mock_data"`
	PathTum        string `yaml:"pathTum" env:"AOSKA_TUM_DIR" env-default:"/usr/share/oma/tum"`
	PathDownloads  string `yaml:"pathDownloads" env:"AOSKA_DOWNLOADS" env-default:"~/.cache/aoska/downloads"`
	PathOmaLock    string `yaml:"pathOmaLock" env:"AOSKA_OMA_LOCK" env-default:"/run/lock/oma.lock"`
	OmaCtlBinary   string `yaml:"omactl" env:"AOSKA_OMACTL" env-default:"omactl"`
	DownloadThread int    `yaml:"downloadThreads" env:"AOSKA_DOWNLOAD_THREADS" env-default:"4"`

	Colors Colors `yaml:"colors"`

	Version string `yaml:"-"`

	// Runtime flags
	Format  string `yaml:"-"`
	DevMode bool   `yaml:"-"`
}

// configManagerImpl реализация Manager
type configManagerImpl struct {
	config *Configuration
}

// NewConfigManager создает новый менеджер конфигурации
func NewConfigManager(buildInfo BuildInfo) (Manager, error) {
	cm := &configManagerImpl{
		config: &Configuration{},
	}

	if err := cm.loadConfiguration(buildInfo); err != nil {
		return nil, err
	}

	return cm, nil
}

// loadConfiguration загружает конфигурацию из файлов, окружения и build-time переменных
func (cm *configManagerImpl) loadConfiguration(buildInfo BuildInfo) error {
	if err := cm.loadConfigFile(); err != nil {
		return err
	}

	cm.applyBuildInfo(buildInfo)

	// Определяем режим разработки
	cm.config.DevMode = cm.config.Environment != "prod"
	if cm.config.Format == "" {
		cm.config.Format = FormatText
	}

	cm.expandPaths()

	return cm.ensureDirectories()
}

// applyBuildInfo применяет параметры времени сборки
func (cm *configManagerImpl) applyBuildInfo(buildInfo BuildInfo) {
	if buildInfo.CommandPrefix != "" {
		cm.config.CommandPrefix = buildInfo.CommandPrefix
	}
	if buildInfo.Environment != "" {
		cm.config.Environment = buildInfo.Environment
	}
	if buildInfo.PathLocales != "" {
		cm.config.PathLocales = buildInfo.PathLocales
	}
	if buildInfo.PathMockData != "" {
		cm.config.PathMockData = buildInfo.PathMockData
	}
	if buildInfo.Version != "" {
		cm.config.Version = buildInfo.Version
	}
}

// loadConfigFile загружает конфигурацию из YAML файла, а при его отсутствии только из окружения
func (cm *configManagerImpl) loadConfigFile() error {
	var configPath string

	if _, err := os.Stat("config.yml"); err == nil {
		configPath = "config.yml"
	} else if _, err = os.Stat("/etc/aoska/config.yml"); err == nil {
		configPath = "/etc/aoska/config.yml"
	}

	if configPath != "" {
		if err := cleanenv.ReadConfig(configPath, cm.config); err != nil {
			Log.Warning("Failed to read config file: ", err)
		} else {
			return nil
		}
	}

	return cleanenv.ReadEnv(cm.config)
}

// expandPaths расширяет пути с ~
func (cm *configManagerImpl) expandPaths() {
	cm.config.PathDBSQLUser = filepath.Clean(expandUser(cm.config.PathDBSQLUser))
	cm.config.PathDBKV = filepath.Clean(expandUser(cm.config.PathDBKV))
	cm.config.PathDownloads = filepath.Clean(expandUser(cm.config.PathDownloads))
}

// ensureDirectories создает необходимые директории
func (cm *configManagerImpl) ensureDirectories() error {
	if err := EnsureDir(filepath.Dir(cm.config.PathDBKV)); err != nil {
		return err
	}
	if err := EnsurePath(cm.config.PathDBSQLUser); err != nil {
		return err
	}

	return EnsureDir(cm.config.PathDownloads)
}

// GetConfig возвращает конфигурацию
func (cm *configManagerImpl) GetConfig() *Configuration {
	return cm.config
}

// GetColors возвращает цветовую схему
func (cm *configManagerImpl) GetColors() Colors {
	return cm.config.Colors
}

// IsDevMode возвращает флаг режима разработки
func (cm *configManagerImpl) IsDevMode() bool {
	return cm.config.DevMode
}

// SetFormat устанавливает формат вывода
func (cm *configManagerImpl) SetFormat(format string) {
	cm.config.Format = format
}

// EnsurePath создает файл и его директорию при необходимости
func EnsurePath(path string) error {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		file, err := os.Create(path)
		if err != nil {
			return err
		}
		return file.Close()
	}

	return nil
}

// EnsureDir создает директорию при необходимости
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// expandUser расширяет ~ в начале пути
func expandUser(s string) string {
	if strings.HasPrefix(s, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return s
		}
		return filepath.Join(homeDir, s[2:])
	}
	return s
}
