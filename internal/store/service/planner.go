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
	"aoska/internal/common/apt"
	"aoska/internal/common/helper"
	"aoska/internal/common/version"
	"aoska/internal/store/model"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// UpdatePlanner строит план полного обновления системы по выводу apt
type UpdatePlanner struct {
	run helper.CommandRunner
	mu  sync.Mutex
}

// NewUpdatePlanner - конструктор планировщика
func NewUpdatePlanner(run helper.CommandRunner) *UpdatePlanner {
	return &UpdatePlanner{run: run}
}

type installedPackage struct {
	arch    string
	version string
	size    uint64
}

// aptArchivesDir локальный кеш загруженных пакетов apt
const aptArchivesDir = "/var/cache/apt/archives"

type candidateInfo struct {
	filename      string
	hashes        map[string]string
	installedSize uint64
	recommends    []string
	suggests      []string
}

// Count число ожидающих обновлений и откатов
func (p *UpdatePlanner) Count(ctx context.Context) (int, error) {
	op, err := p.Plan(ctx)
	if err != nil {
		return 0, err
	}
	return op.UpgradableCount(), nil
}

// Plan вычисляет план full-upgrade, ничего не меняя в системе
func (p *UpdatePlanner) Plan(ctx context.Context) (model.OmaOperation, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	op := model.NewOmaOperation()

	simOutput, err := p.aptOutput(ctx, "apt-get", "-s", "-q", "full-upgrade")
	if err != nil {
		return op, err
	}
	sim := apt.ParseSimulation(simOutput)

	installed, err := p.installedPackages(ctx)
	if err != nil {
		return op, err
	}
	automatic := p.autoInstalled(ctx)

	var uris map[string]apt.DownloadURI
	var candidates map[string]candidateInfo
	if len(sim.Install) > 0 {
		if uris, err = p.downloadURIs(ctx); err != nil {
			return op, err
		}
		if candidates, err = p.candidates(ctx, sim.Install); err != nil {
			return op, err
		}
	}

	planned := make(map[string]bool)
	for _, inst := range sim.Install {
		planned[inst.Name] = true
		op.Install = append(op.Install, buildInstallEntry(inst, installed, uris, candidates, automatic))
	}

	for _, rm := range sim.Remove {
		planned[rm.Name] = true
		op.Remove = append(op.Remove, buildRemoveEntry(rm, installed))
	}

	sortPlan(&op)

	for _, e := range op.Install {
		op.TotalDownloadSize += e.DownloadSize
		op.DiskSizeDelta += int64(e.NewSize)
		if e.OldSize != nil {
			op.DiskSizeDelta -= int64(*e.OldSize)
		}
	}
	for _, e := range op.Remove {
		op.DiskSizeDelta -= int64(e.Size)
	}

	op.Suggest, op.Recommend = relationPairs(sim.Install, candidates, installed, planned)

	op.Autoremovable, err = p.autoremovable(ctx, installed)
	if err != nil {
		app.Log.Warning(fmt.Sprintf(app.T_("Failed to compute autoremovable packages: %v"), err))
	}

	return op, nil
}

// aptOutput запускает apt и превращает известные сообщения об ошибках в MatchedError
func (p *UpdatePlanner) aptOutput(ctx context.Context, name string, args ...string) (string, error) {
	out, err := p.run(ctx, name, args...)
	if err == nil {
		return out, nil
	}

	var cmdErr *helper.CommandError
	if errors.As(err, &cmdErr) {
		if matched := apt.AnalyseOutput(cmdErr.Stderr + "\n" + cmdErr.Stdout); matched != nil {
			return "", matched
		}
	}
	return "", fmt.Errorf(app.T_("Error running %s: %w"), name, err)
}

// installedPackages читает имена, архитектуры, версии и размеры установленных пакетов
func (p *UpdatePlanner) installedPackages(ctx context.Context) (map[string]installedPackage, error) {
	out, err := p.run(ctx, "dpkg-query", "-W", "-f=${Package}\t${Architecture}\t${Version}\t${Installed-Size}\t${db:Status-Abbrev}\n")
	if err != nil {
		return nil, fmt.Errorf(app.T_("Error reading installed packages: %w"), err)
	}

	result := make(map[string]installedPackage)
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Split(line, "\t")
		if len(fields) < 4 || fields[0] == "" {
			continue
		}
		if len(fields) >= 5 && !strings.HasPrefix(strings.TrimSpace(fields[4]), "ii") {
			continue
		}
		var sizeKiB uint64
		_, _ = fmt.Sscanf(fields[3], "%d", &sizeKiB)
		result[fields[0]] = installedPackage{
			arch:    fields[1],
			version: fields[2],
			size:    sizeKiB * 1024,
		}
	}
	return result, nil
}

// autoInstalled возвращает пакеты, помеченные как установленные автоматически
func (p *UpdatePlanner) autoInstalled(ctx context.Context) map[string]bool {
	result := make(map[string]bool)
	out, err := p.run(ctx, "apt-mark", "showauto")
	if err != nil {
		app.Log.Debugf("apt-mark showauto: %v", err)
		return result
	}
	for _, line := range strings.Split(out, "\n") {
		name, _ := apt.SplitArch(strings.TrimSpace(line))
		if name != "" {
			result[name] = true
		}
	}
	return result
}

func (p *UpdatePlanner) downloadURIs(ctx context.Context) (map[string]apt.DownloadURI, error) {
	out, err := p.aptOutput(ctx, "apt-get", "--print-uris", "-qq", "full-upgrade")
	if err != nil {
		return nil, err
	}

	result := make(map[string]apt.DownloadURI)
	for _, uri := range apt.ParsePrintURIs(out) {
		name, _ := uri.Package()
		result[name] = uri
	}
	return result, nil
}

func (p *UpdatePlanner) candidates(ctx context.Context, installs []apt.SimulatedInstall) (map[string]candidateInfo, error) {
	args := []string{"show", "--no-all-versions"}
	for _, inst := range installs {
		args = append(args, inst.Name+"="+inst.NewVersion)
	}

	out, err := p.run(ctx, "apt-cache", args...)
	if err != nil {
		var cmdErr *helper.CommandError
		if !errors.As(err, &cmdErr) || cmdErr.Stdout == "" {
			return nil, fmt.Errorf(app.T_("Error reading package candidates: %w"), err)
		}
		app.Log.Warning(fmt.Sprintf(app.T_("apt-cache reported problems: %s"), strings.TrimSpace(cmdErr.Stderr)))
		out = cmdErr.Stdout
	}

	paragraphs, err := apt.ParseControl(out)
	if err != nil {
		return nil, err
	}

	result := make(map[string]candidateInfo)
	for _, para := range paragraphs {
		name := para.Get("Package")
		if name == "" {
			continue
		}
		hashes := make(map[string]string)
		for field, key := range map[string]string{"SHA256": "sha256", "SHA512": "sha512", "MD5sum": "md5"} {
			if sum := para.Get(field); sum != "" {
				hashes[key] = sum
			}
		}
		result[name] = candidateInfo{
			filename:      para.Get("Filename"),
			hashes:        hashes,
			installedSize: uint64(para.Int("Installed-Size")) * 1024,
			recommends:    apt.ParseRelations(para.Get("Recommends")),
			suggests:      apt.ParseRelations(para.Get("Suggests")),
		}
	}
	return result, nil
}

func (p *UpdatePlanner) autoremovable(ctx context.Context, installed map[string]installedPackage) (model.SizePair, error) {
	out, err := p.aptOutput(ctx, "apt-get", "-s", "-q", "autoremove")
	if err != nil {
		return model.SizePair{}, err
	}

	var count, size uint64
	for _, rm := range apt.ParseSimulation(out).Remove {
		count++
		size += installed[rm.Name].size
	}
	return model.SizePair{count, size}, nil
}

func buildInstallEntry(
	inst apt.SimulatedInstall,
	installed map[string]installedPackage,
	uris map[string]apt.DownloadURI,
	candidates map[string]candidateInfo,
	automatic map[string]bool,
) model.InstallEntry {
	entry := model.InstallEntry{
		Name:            inst.Name + ":" + inst.Arch,
		NameWithoutArch: inst.Name,
		NewVersion:      inst.NewVersion,
		NewSize:         candidates[inst.Name].installedSize,
		Arch:            inst.Arch,
		Op:              operationFor(inst),
		Automatic:       automatic[inst.Name],
	}

	if inst.OldVersion != "" {
		oldVersion := inst.OldVersion
		entry.OldVersion = &oldVersion
		if pkg, ok := installed[inst.Name]; ok {
			oldSize := pkg.size
			entry.OldSize = &oldSize
		}
	} else {
		// новые пакеты при full-upgrade приходят только как зависимости
		entry.Automatic = true
	}

	uri, ok := uris[inst.Name]
	if !ok {
		// apt не печатает адреса пакетов, уже лежащих в локальном кеше
		uri = cachedArchiveURI(inst, candidates[inst.Name])
	}

	entry.PkgUrls = []model.PackageUrl{{DownloadURL: uri.URL, IndexURL: uri.IndexURL()}}
	entry.DownloadSize = uri.Size
	if sum, ok := uri.Hashes["sha256"]; ok {
		entry.Sha256 = &sum
	}
	if sum, ok := uri.Hashes["sha512"]; ok {
		entry.Sha512 = &sum
	}
	if sum, ok := uri.Hashes["md5"]; ok {
		entry.Md5 = &sum
	}
	return entry
}

func cachedArchiveURI(inst apt.SimulatedInstall, info candidateInfo) apt.DownloadURI {
	filename := info.filename
	if filename == "" {
		filename = inst.Name + "_" + strings.ReplaceAll(inst.NewVersion, ":", "%3a") + "_" + inst.Arch + ".deb"
	}
	base := filename
	if idx := strings.LastIndexByte(filename, '/'); idx >= 0 {
		base = filename[idx+1:]
	}

	return apt.DownloadURI{
		URL:      "file://" + aptArchivesDir + "/" + base,
		Filename: base,
		Hashes:   info.hashes,
	}
}

func operationFor(inst apt.SimulatedInstall) model.InstallOperation {
	if inst.OldVersion == "" {
		return model.OpInstall
	}
	switch c := version.Compare(inst.NewVersion, inst.OldVersion); {
	case c > 0:
		return model.OpUpgrade
	case c < 0:
		return model.OpDowngrade
	default:
		return model.OpReInstall
	}
}

func buildRemoveEntry(rm apt.SimulatedRemove, installed map[string]installedPackage) model.RemoveEntry {
	pkg := installed[rm.Name]

	entry := model.RemoveEntry{
		Name:    rm.Name,
		Size:    pkg.size,
		Details: []model.RemoveTag{model.RemoveTagResolver},
		Arch:    rm.Arch,
	}
	if entry.Arch == "" {
		entry.Arch = pkg.arch
	}
	if rm.Purge {
		entry.Details = append(entry.Details, model.RemoveTagPurge)
	}
	if rm.Version != "" {
		v := rm.Version
		entry.Version = &v
	} else if pkg.version != "" {
		v := pkg.version
		entry.Version = &v
	}
	return entry
}

// sortPlan упорядочивает план по виду операции и имени и проставляет индексы
func sortPlan(op *model.OmaOperation) {
	sort.SliceStable(op.Install, func(i, j int) bool {
		if op.Install[i].Op != op.Install[j].Op {
			return op.Install[i].Op < op.Install[j].Op
		}
		return op.Install[i].Name < op.Install[j].Name
	})
	sort.SliceStable(op.Remove, func(i, j int) bool {
		return op.Remove[i].Name < op.Remove[j].Name
	})

	index := 0
	for i := range op.Install {
		op.Install[i].Index = index
		index++
	}
	for i := range op.Remove {
		op.Remove[i].Index = index
		index++
	}
}

// relationPairs возвращает пары (предлагаемый пакет, пакет-источник) для пакетов,
// которые не установлены и не входят в план
func relationPairs(
	installs []apt.SimulatedInstall,
	candidates map[string]candidateInfo,
	installed map[string]installedPackage,
	planned map[string]bool,
) ([]model.NamePair, []model.NamePair) {
	suggest := []model.NamePair{}
	recommend := []model.NamePair{}

	relevant := func(name string) bool {
		_, isInstalled := installed[name]
		return !isInstalled && !planned[name]
	}

	for _, inst := range installs {
		info := candidates[inst.Name]
		for _, name := range info.suggests {
			if relevant(name) {
				suggest = append(suggest, model.NamePair{name, inst.Name})
			}
		}
		for _, name := range info.recommends {
			if relevant(name) {
				recommend = append(recommend, model.NamePair{name, inst.Name})
			}
		}
	}

	return suggest, recommend
}
