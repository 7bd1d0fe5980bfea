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
	"github.com/godbus/dbus/v5/introspect"
)

const baseIntrospectXML = `
  <interface name="io.aosc.Aoska">
    <signal name="Notification">
      <arg type="s" name="message" direction="out"/>
    </signal>
    <signal name="OmaLog">
      <arg type="s" name="message" direction="out"/>
    </signal>
  </interface>

  <interface name="io.aosc.Aoska.store">
    <method name="GetEndpointBaseUrl">
      <arg direction="out" type="s" name="result"/>
    </method>

    <method name="FetchIndex">
      <arg direction="out" type="s" name="result"/>
    </method>

    <method name="FetchByCategory">
      <arg direction="in" type="s" name="category"/>
      <arg direction="out" type="s" name="result"/>
    </method>

    <method name="FetchRecommend">
      <arg direction="out" type="s" name="result"/>
    </method>

    <method name="FetchDetail">
      <arg direction="in" type="s" name="pkgName"/>
      <arg direction="out" type="s" name="result"/>
    </method>

    <method name="FetchUpdateDetail">
      <arg direction="out" type="s" name="result"/>
    </method>

    <method name="FetchUpdateCount">
      <arg direction="out" type="s" name="result"/>
    </method>

    <method name="FetchTumUpdate">
      <arg direction="out" type="s" name="result"/>
    </method>
  </interface>
`

const omaIntrospectXML = `
  <interface name="io.aosc.Aoska.oma">
    <method name="IsBusy">
      <arg direction="out" type="b" name="result"/>
    </method>

    <method name="StartUpgrade">
      <arg direction="in" type="b" name="follow"/>
      <arg direction="in" type="s" name="unit"/>
      <arg direction="in" type="b" name="assumeYes"/>
      <arg direction="out" type="s" name="result"/>
    </method>

    <method name="StartInstall">
      <arg direction="in" type="as" name="packages"/>
      <arg direction="in" type="b" name="follow"/>
      <arg direction="in" type="s" name="unit"/>
      <arg direction="in" type="b" name="assumeYes"/>
      <arg direction="out" type="s" name="result"/>
    </method>

    <method name="StartRemove">
      <arg direction="in" type="as" name="packages"/>
      <arg direction="in" type="b" name="removeConfig"/>
      <arg direction="in" type="b" name="follow"/>
      <arg direction="in" type="s" name="unit"/>
      <arg direction="in" type="b" name="assumeYes"/>
      <arg direction="out" type="s" name="result"/>
    </method>

    <method name="UnitStatus">
      <arg direction="in" type="s" name="unit"/>
      <arg direction="out" type="s" name="result"/>
    </method>

    <method name="UnitLogs">
      <arg direction="in" type="s" name="unit"/>
      <arg direction="out" type="s" name="result"/>
    </method>

    <method name="UnitResult">
      <arg direction="in" type="s" name="unit"/>
      <arg direction="out" type="s" name="result"/>
    </method>

    <method name="CancelUnit">
      <arg direction="in" type="s" name="unit"/>
      <arg direction="out" type="s" name="result"/>
    </method>

    <method name="ListUnits">
      <arg direction="out" type="s" name="result"/>
    </method>

    <method name="FollowLogs">
      <arg direction="in" type="s" name="unit"/>
    </method>

    <method name="StopFollowLogs">
      <arg direction="in" type="s" name="unit"/>
    </method>

    <method name="History">
      <arg direction="in" type="x" name="limit"/>
      <arg direction="in" type="x" name="offset"/>
      <arg direction="out" type="s" name="result"/>
    </method>
  </interface>
`

// GetIntrospectXML возвращает XML интроспекции сессионного сервиса.
// Интерфейс управления oma публикуется только если omactl найден в системе.
func GetIntrospectXML(withOma bool) string {
	xml := "<node>" + baseIntrospectXML
	if withOma {
		xml += omaIntrospectXML
	}

	return xml + introspect.IntrospectDataString + `</node>`
}
