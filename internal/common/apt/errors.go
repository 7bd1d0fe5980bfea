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
	"aoska/internal/common/app"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	ErrLockFailed = iota + 1
	ErrPermissionDenied
	ErrBrokenPackages
	ErrUnmetDependencies
	ErrPackageNotFound
	ErrNoInstallationCandidate
	ErrNotEnoughSpace
	ErrFailedToFetch
	ErrFailedToFetchSomeIndex
	ErrDpkgInterrupted
	ErrPackageNotInstalled
	ErrPackageIsAlreadyNewest
)

// MatchedError представляет найденную ошибку с извлечёнными параметрами.
type MatchedError struct {
	Entry  ErrorEntry
	Params []string
}

// ErrorEntry описывает шаблон ошибки.
type ErrorEntry struct {
	Code              int
	Pattern           string
	TranslatedPattern func() string
	Params            int
}

var errorPatterns = []ErrorEntry{
	{ErrLockFailed, "Could not get lock %s. It is held by process %s", func() string {
		return app.T_("Could not get lock %s. It is held by process %s")
	}, 2},
	{ErrLockFailed, "Could not get lock %s", func() string {
		return app.T_("Could not get lock %s")
	}, 1},
	{ErrPermissionDenied, "Could not open lock file %s - open (13: Permission denied)", func() string {
		return app.T_("Could not open lock file %s - open (13: Permission denied)")
	}, 1},
	{ErrPermissionDenied, "Unable to acquire the dpkg frontend lock (%s), are you root?", func() string {
		return app.T_("Unable to acquire the dpkg frontend lock (%s), are you root?")
	}, 1},
	{ErrBrokenPackages, "Unable to correct problems, you have held broken packages.", func() string {
		return app.T_("Unable to correct problems, you have held broken packages.")
	}, 0},
	{ErrUnmetDependencies, "Unmet dependencies. Try 'apt --fix-broken install' with no packages (or specify a solution).", func() string {
		return app.T_("Unmet dependencies. Try 'apt --fix-broken install' with no packages (or specify a solution).")
	}, 0},
	{ErrPackageNotFound, "Unable to locate package %s", func() string {
		return app.T_("Unable to locate package %s")
	}, 1},
	{ErrNoInstallationCandidate, "Package '%s' has no installation candidate", func() string {
		return app.T_("Package '%s' has no installation candidate")
	}, 1},
	{ErrNotEnoughSpace, "You don't have enough free space in %s.", func() string {
		return app.T_("You don't have enough free space in %s.")
	}, 1},
	{ErrFailedToFetch, "Failed to fetch %s", func() string {
		return app.T_("Failed to fetch %s")
	}, 1},
	{ErrFailedToFetchSomeIndex, "Some index files failed to download. They have been ignored, or old ones used instead.", func() string {
		return app.T_("Some index files failed to download. They have been ignored, or old ones used instead.")
	}, 0},
	{ErrDpkgInterrupted, "dpkg was interrupted, you must manually run 'dpkg --configure -a' to correct the problem.", func() string {
		return app.T_("dpkg was interrupted, you must manually run 'dpkg --configure -a' to correct the problem.")
	}, 0},
	{ErrPackageNotInstalled, "Package '%s' is not installed, so not removed", func() string {
		return app.T_("Package '%s' is not installed, so not removed")
	}, 1},
	{ErrPackageIsAlreadyNewest, "%s is already the newest version (%s).", func() string {
		return app.T_("%s is already the newest version (%s).")
	}, 2},
}

var compiledPatterns = compilePatterns(errorPatterns)

func compilePatterns(entries []ErrorEntry) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, len(entries))
	for i, entry := range entries {
		compiled[i] = regexp.MustCompile(patternToRegex(entry.Pattern))
	}
	return compiled
}

// ErrorLinesAnalyseAll проверяет все строки и возвращает срез найденных ошибок.
func ErrorLinesAnalyseAll(lines []string) []*MatchedError {
	var errorsFound []*MatchedError
	for _, line := range lines {
		if matchedErr := CheckError(cleanLine(line)); matchedErr != nil {
			errorsFound = append(errorsFound, matchedErr)
		}
	}
	return errorsFound
}

// ErrorLinesAnalise возвращает первую распознанную ошибку
func ErrorLinesAnalise(lines []string) *MatchedError {
	for _, line := range lines {
		if matchedErr := CheckError(cleanLine(line)); matchedErr != nil {
			return matchedErr
		}
	}

	return nil
}

// CheckError ищет ошибку в тексте requestError с учетом шаблонов и возвращает найденную ошибку с параметрами.
func CheckError(requestError string) *MatchedError {
	if requestError == "" {
		return nil
	}
	for i, entry := range errorPatterns {
		matches := compiledPatterns[i].FindStringSubmatch(requestError)
		if len(matches) > 0 {
			var params []string
			if len(matches) > 1 {
				params = matches[1:]
			}
			return &MatchedError{
				Entry:  entry,
				Params: params,
			}
		}
	}
	return nil
}

// Error возвращает переведённое сообщение об ошибке с подстановкой найденных параметров.
func (e *MatchedError) Error() string {
	var template = e.Entry.TranslatedPattern()

	if e.Entry.Params > 0 && len(e.Params) >= e.Entry.Params {
		return fmt.Sprintf(template, toInterfaceSlice(e.Params[:e.Entry.Params])...)
	}
	return template
}

func (e *MatchedError) IsCritical() bool {
	switch e.Entry.Code {
	case ErrPackageNotInstalled, ErrPackageIsAlreadyNewest, ErrFailedToFetchSomeIndex:
		return false
	default:
		return true
	}
}

func (e *MatchedError) NeedUpdate() bool {
	switch e.Entry.Code {
	case ErrFailedToFetch, ErrFailedToFetchSomeIndex, ErrNoInstallationCandidate:
		return true
	default:
		return false
	}
}

// FindCriticalError возвращает первую критичную ошибку из списка
func FindCriticalError(errorList []error) error {
	for _, err := range errorList {
		if err == nil {
			continue
		}
		var matchedErr *MatchedError
		if !errors.As(err, &matchedErr) {
			return err
		}
		if matchedErr.IsCritical() {
			return matchedErr
		}
	}

	return nil
}

// AnalyseOutput превращает вывод apt в ошибку, если в нём есть критичное сообщение
func AnalyseOutput(output string) error {
	var found []error
	for _, matched := range ErrorLinesAnalyseAll(strings.Split(output, "\n")) {
		found = append(found, matched)
	}
	return FindCriticalError(found)
}

func cleanLine(line string) string {
	trimmed := strings.TrimSpace(line)
	for _, prefix := range []string{"E: ", "W: ", "N: "} {
		trimmed = strings.TrimPrefix(trimmed, prefix)
	}
	return trimmed
}

func patternToRegex(pattern string) string {
	parts := strings.Split(pattern, "%s")
	for i, part := range parts {
		parts[i] = regexp.QuoteMeta(part)
	}
	return "^" + strings.Join(parts, "(.+?)") + "$"
}

func toInterfaceSlice(strings []string) []interface{} {
	result := make([]interface{}, len(strings))
	for i, s := range strings {
		result[i] = s
	}
	return result
}
