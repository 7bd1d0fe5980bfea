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

package reply

import (
	"aoska/internal/common/app"
)

// TranslateKey возвращает подпись для ключа JSON-ответа.
func TranslateKey(key string) string {
	switch key {
	case "name":
		return app.T_("Name")
	case "title":
		return app.T_("Title")
	case "intro":
		return app.T_("Description")
	case "icon":
		return app.T_("Icon")
	case "banner":
		return app.T_("Banner")
	case "screenshot":
		return app.T_("Screenshots")
	case "category":
		return app.T_("Category")
	case "categories":
		return app.T_("Categories")
	case "packages":
		return app.T_("Packages")
	case "package_flags":
		return app.T_("Package Flags")
	case "package_info":
		return app.T_("Package Information")
	case "unoffical":
		return app.T_("Unofficial")
	case "verified":
		return app.T_("Verified")
	case "non_native":
		return app.T_("Non-native")
	case "windows_app":
		return app.T_("Windows Application")
	case "telemetry":
		return app.T_("Telemetry")
	case "service_limited":
		return app.T_("Service Limited")
	case "publisher":
		return app.T_("Publisher")
	case "source":
		return app.T_("Source")
	case "version":
		return app.T_("Version")
	case "inner_version":
		return app.T_("Inner Version")
	case "update_date":
		return app.T_("Update Date")
	case "install_size":
		return app.T_("Installed Size")
	case "homepage":
		return app.T_("Homepage")
	case "generated_at":
		return app.T_("Generated At")
	case "date":
		return app.T_("Date")
	case "endpoint":
		return app.T_("Endpoint")
	case "install":
		return app.T_("Install")
	case "remove":
		return app.T_("Remove")
	case "old_version":
		return app.T_("Installed Version")
	case "new_version":
		return app.T_("New Version")
	case "old_size":
		return app.T_("Installed Size")
	case "new_size":
		return app.T_("New Size")
	case "size":
		return app.T_("Size")
	case "download_size":
		return app.T_("Download Size")
	case "total_download_size":
		return app.T_("Total Download Size")
	case "disk_size_delta":
		return app.T_("Disk Space Change")
	case "autoremovable":
		return app.T_("Autoremovable")
	case "suggest":
		return app.T_("Suggested")
	case "recommend":
		return app.T_("Recommended")
	case "pkg_urls":
		return app.T_("Download URLs")
	case "download_url":
		return app.T_("Download URL")
	case "index_url":
		return app.T_("Mirror")
	case "arch":
		return app.T_("Architecture")
	case "op":
		return app.T_("Operation")
	case "automatic":
		return app.T_("Automatic")
	case "details":
		return app.T_("Reasons")
	case "count":
		return app.T_("Count")
	case "manifest_name":
		return app.T_("Manifest")
	case "is_security":
		return app.T_("Security Update")
	case "package_count":
		return app.T_("Package Count")
	case "package_names":
		return app.T_("Package Names")
	case "caution":
		return app.T_("Caution")
	case "updates":
		return app.T_("Updates")
	case "files":
		return app.T_("Files")
	case "unit":
		return app.T_("Unit")
	case "units":
		return app.T_("Units")
	case "busy":
		return app.T_("Busy")
	case "status":
		return app.T_("Status")
	case "logs":
		return app.T_("Logs")
	case "result":
		return app.T_("Result")
	case "history":
		return app.T_("History")
	case "action":
		return app.T_("Action")
	case "createdAt":
		return app.T_("Date")
	case "output":
		return app.T_("Output")
	case "path":
		return app.T_("Path")
	default:
		return app.T_(key)
	}
}
