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
	"aoska/internal/common/helper"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"
	"golang.org/x/crypto/ssh/terminal"
	"gopkg.in/yaml.v3"
)

// APIResponse описывает итоговую структуру ответа.
type APIResponse struct {
	Data        interface{} `json:"data" yaml:"data"`
	Error       bool        `json:"error" yaml:"error"`
	Transaction string      `json:"transaction,omitempty" yaml:"transaction,omitempty"`
}

// ErrorResponseFromError формирует ответ-ошибку из error
func ErrorResponseFromError(err error) APIResponse {
	return APIResponse{
		Data:  map[string]interface{}{"message": err.Error()},
		Error: true,
	}
}

// Ключи, значения которых выводятся как размер в байтах
var sizeKeys = map[string]bool{
	"size":                true,
	"install_size":        true,
	"new_size":            true,
	"old_size":            true,
	"download_size":       true,
	"total_download_size": true,
	"disk_size_delta":     true,
}

// styles набор стилей дерева, собранный из цветовой схемы конфигурации
type styles struct {
	enumerator lipgloss.Style
	accent     lipgloss.Style
	item       lipgloss.Style
	success    lipgloss.Style
	failure    lipgloss.Style
}

func newStyles(colors app.Colors) styles {
	return styles{
		enumerator: lipgloss.NewStyle().Foreground(lipgloss.Color(colors.Enumerator)).MarginRight(1),
		accent:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colors.Accent)),
		item: lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{
			Light: colors.ItemLight,
			Dark:  colors.ItemDark,
		}),
		success: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colors.Success)),
		failure: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colors.Error)),
	}
}

// IsTTY пользователь запустил приложение в интерактивной консоли
func IsTTY() bool {
	return terminal.IsTerminal(int(os.Stdout.Fd()))
}

// outputSettings формат и цвета из конфигурации в контексте. Без конфигурации используется текст.
func outputSettings(ctx context.Context) (string, app.Colors) {
	cfg, ok := ctx.Value(app.AppConfigKey).(*app.Config)
	if !ok || cfg == nil || cfg.ConfigManager == nil {
		return app.FormatText, app.Colors{Enumerator: "#c4c8c6", Accent: "#a2734c", ItemLight: "#171717", ItemDark: "#c4c8c6", Success: "2", Error: "9", ProgressStart: "#2aa1b3", ProgressEnd: "#a2734c"}
	}
	conf := cfg.ConfigManager.GetConfig()
	return conf.Format, conf.Colors
}

// normalize приводит произвольное значение к map/slice/скаляру через JSON
func normalize(v interface{}) interface{} {
	switch v.(type) {
	case nil, string, bool, int, int64, float64, map[string]interface{}, []interface{}:
		return v
	}

	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf(app.T_("%T (unknown type)"), v)
	}
	var out interface{}
	if err = json.Unmarshal(b, &out); err != nil {
		return fmt.Sprintf(app.T_("%T (unknown type)"), v)
	}
	return out
}

func (s styles) formatField(key string, value interface{}) string {
	valStr := fmt.Sprintf("%v", value)
	if key == "name" {
		return s.accent.Render(valStr)
	}
	return valStr
}

func (s styles) buildList(root string, items []interface{}) *tree.Tree {
	listNode := tree.New().Root(root)
	for i, elem := range items {
		switch ev := normalize(elem).(type) {
		case map[string]interface{}:
			listNode.Child(s.buildTreeFromMap(fmt.Sprintf("%d)", i+1), ev))
		default:
			listNode.Child(fmt.Sprintf("%d) %v", i+1, ev))
		}
	}
	return listNode
}

// buildTreeFromMap рекурсивно строит дерево из map[string]interface{}.
// Ключ "message" выводится первым, остальные по алфавиту.
func (s styles) buildTreeFromMap(prefix string, data map[string]interface{}) *tree.Tree {
	t := tree.New().Root(prefix)

	if msgVal, haveMsg := data["message"]; haveMsg {
		switch vv := normalize(msgVal).(type) {
		case map[string]interface{}:
			t.Child(s.buildTreeFromMap("message", vv))
		case []interface{}:
			t.Child(s.buildList("message", vv))
		default:
			t.Child(fmt.Sprintf("%v", vv))
		}
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		if k == "message" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		switch vv := normalize(data[k]).(type) {
		case nil:
			t.Child(fmt.Sprintf(app.T_("%s: no"), TranslateKey(k)))

		case string:
			if vv == "" {
				t.Child(fmt.Sprintf(app.T_("%s: no"), TranslateKey(k)))
			} else {
				t.Child(fmt.Sprintf("%s: %s", TranslateKey(k), s.formatField(k, vv)))
			}

		case bool:
			boolStr := app.T_("no")
			if vv {
				boolStr = app.T_("yes")
			}
			t.Child(fmt.Sprintf("%s: %s", TranslateKey(k), boolStr))

		case int, int64, float64:
			if sizeKeys[k] {
				var size int64
				switch n := vv.(type) {
				case int:
					size = int64(n)
				case int64:
					size = n
				case float64:
					size = int64(n)
				}
				t.Child(fmt.Sprintf("%s: %s", TranslateKey(k), helper.AutoSize(size)))
			} else {
				t.Child(fmt.Sprintf("%s: %v", TranslateKey(k), vv))
			}

		case map[string]interface{}:
			t.Child(s.buildTreeFromMap(TranslateKey(k), vv))

		case []interface{}:
			if len(vv) == 0 {
				t.Child(fmt.Sprintf("%s: []", TranslateKey(k)))
				continue
			}
			t.Child(s.buildList(TranslateKey(k), vv))

		default:
			t.Child(fmt.Sprintf("%s: %v", TranslateKey(k), vv))
		}
	}

	return t
}

// CliResponse рендерит ответ в зависимости от формата (text/json/yaml).
func CliResponse(ctx context.Context, resp APIResponse) error {
	return WriteResponse(ctx, os.Stdout, resp)
}

// WriteResponse то же, что CliResponse, но пишет в указанный поток
func WriteResponse(ctx context.Context, out io.Writer, resp APIResponse) error {
	StopSpinner(ctx)
	format, colors := outputSettings(ctx)

	if txStr, ok := ctx.Value(helper.TransactionKey).(string); ok {
		resp.Transaction = txStr
	}

	switch format {
	case app.FormatJSON, app.FormatDBus:
		if !resp.Error {
			if dataMap, ok := resp.Data.(map[string]interface{}); ok {
				delete(dataMap, "message")
			}
		}
		b, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(b))

	case app.FormatYAML:
		if !resp.Error {
			if dataMap, ok := resp.Data.(map[string]interface{}); ok {
				delete(dataMap, "message")
			}
		}
		// через JSON, чтобы учитывались json-теги моделей
		b, err := yaml.Marshal(normalize(resp))
		if err != nil {
			return err
		}
		fmt.Fprint(out, string(b))

	default:
		switch data := resp.Data.(type) {
		case map[string]interface{}:
			if resp.Error {
				capitalizeMessage(data)
			}

			st := newStyles(colors)
			t := st.buildTreeFromMap("⚛", data)

			rootStyle := st.success
			if resp.Error {
				rootStyle = st.failure
			}

			t.Enumerator(tree.RoundedEnumerator).
				EnumeratorStyle(st.enumerator).
				RootStyle(rootStyle).
				ItemStyle(st.item)

			fmt.Fprintln(out, t.String())

		case string:
			fmt.Fprintln(out, data)

		default:
			fmt.Fprintf(out, "%v\n", data)
		}
	}

	// пустая ошибка нужна для кода возврата 1
	if resp.Error {
		return errors.New("")
	}

	return nil
}

func capitalizeMessage(data map[string]interface{}) {
	msgStr, ok := data["message"].(string)
	if !ok || msgStr == "" {
		return
	}
	runes := []rune(msgStr)
	if unicode.IsLower(runes[0]) {
		runes[0] = unicode.ToUpper(runes[0])
		data["message"] = strings.TrimSpace(string(runes))
	}
}
