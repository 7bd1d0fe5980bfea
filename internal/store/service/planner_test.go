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
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"aoska/internal/common/apt"
	"aoska/internal/common/helper"
	"aoska/internal/store/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	mu      sync.Mutex
	outputs map[string]string
	errs    map[string]error
	calls   []string
}

func (f *fakeRunner) run(_ context.Context, name string, args ...string) (string, error) {
	key := strings.TrimSpace(name + " " + strings.Join(args, " "))

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, key)

	for prefix, err := range f.errs {
		if strings.HasPrefix(key, prefix) {
			return f.outputs[prefix], err
		}
	}
	for prefix, out := range f.outputs {
		if strings.HasPrefix(key, prefix) {
			return out, nil
		}
	}
	return "", nil
}

const fullUpgradeSim = `NOTE: This is only a simulation!
Inst curl [8.5.0] (8.6.0 AOSC OS:stable [amd64])
Inst libnghttp3 (1.2.0 AOSC OS:stable [amd64])
Inst mesa [25.0] (24.3 AOSC OS:stable [amd64])
Remv oldlib [0.9]
Purg legacy-conf [1.0]
Conf curl (8.6.0 AOSC OS:stable [amd64])
`

const fullUpgradeURIs = `'https://repo.aosc.io/debs/pool/stable/main/c/curl_8.6.0_amd64.deb' curl_8.6.0_amd64.deb 210000 SHA256:aaaa
'https://repo.aosc.io/debs/pool/stable/main/l/libnghttp3_1.2.0_amd64.deb' libnghttp3_1.2.0_amd64.deb 40960 SHA512:bbbb MD5Sum:cccc
'https://repo.aosc.io/debs/pool/stable/main/m/mesa_24.3_amd64.deb' mesa_24.3_amd64.deb 1000 SHA256:dddd
`

const candidatesShow = `Package: curl
Version: 8.6.0
Installed-Size: 512
Recommends: ca-certs, libnghttp3
Suggests: curl-doc | curl-manual

Package: libnghttp3
Version: 1.2.0
Installed-Size: 100

Package: mesa
Version: 24.3
Installed-Size: 2000
Suggests: vulkan-tools
`

const dpkgInstalled = "curl\tamd64\t8.5.0\t500\tii \n" +
	"mesa\tamd64\t25.0\t2100\tii \n" +
	"oldlib\tamd64\t0.9\t8\tii \n" +
	"legacy-conf\tamd64\t1.0\t4\tii \n" +
	"ca-certs\tall\t2024\t300\tii \n" +
	"removed-pkg\tamd64\t1.0\t10\trc \n" +
	"orphan\tamd64\t1.0\t16\tii \n"

func newPlannerRunner() *fakeRunner {
	return &fakeRunner{
		outputs: map[string]string{
			"apt-get -s -q full-upgrade":            fullUpgradeSim,
			"apt-get --print-uris -qq full-upgrade": fullUpgradeURIs,
			"apt-cache show --no-all-versions":      candidatesShow,
			"dpkg-query -W":                         dpkgInstalled,
			"apt-mark showauto":                     "mesa\n",
			"apt-get -s -q autoremove":              "Remv orphan [1.0]\n",
		},
		errs: map[string]error{},
	}
}

func TestUpdatePlanner_Plan(t *testing.T) {
	runner := newPlannerRunner()
	planner := NewUpdatePlanner(runner.run)

	op, err := planner.Plan(context.Background())
	require.NoError(t, err)

	require.Len(t, op.Install, 3)
	// порядок: Install, Upgrade, Downgrade
	fresh, upgrade, downgrade := op.Install[0], op.Install[1], op.Install[2]

	assert.Equal(t, "libnghttp3:amd64", fresh.Name)
	assert.Equal(t, "libnghttp3", fresh.NameWithoutArch)
	assert.Equal(t, model.OpInstall, fresh.Op)
	assert.Nil(t, fresh.OldVersion)
	assert.Nil(t, fresh.OldSize)
	assert.True(t, fresh.Automatic)
	assert.Equal(t, uint64(100*1024), fresh.NewSize)
	require.NotNil(t, fresh.Sha512)
	assert.Equal(t, "bbbb", *fresh.Sha512)
	require.NotNil(t, fresh.Md5)
	assert.Nil(t, fresh.Sha256)

	assert.Equal(t, model.OpUpgrade, upgrade.Op)
	assert.Equal(t, "curl:amd64", upgrade.Name)
	require.NotNil(t, upgrade.OldVersion)
	assert.Equal(t, "8.5.0", *upgrade.OldVersion)
	require.NotNil(t, upgrade.OldSize)
	assert.Equal(t, uint64(500*1024), *upgrade.OldSize)
	assert.False(t, upgrade.Automatic)
	assert.Equal(t, []model.PackageUrl{{
		DownloadURL: "https://repo.aosc.io/debs/pool/stable/main/c/curl_8.6.0_amd64.deb",
		IndexURL:    "https://repo.aosc.io/debs",
	}}, upgrade.PkgUrls)

	assert.Equal(t, model.OpDowngrade, downgrade.Op)
	assert.True(t, downgrade.Automatic)

	for i, e := range op.Install {
		assert.Equal(t, i, e.Index)
	}

	require.Len(t, op.Remove, 2)
	assert.Equal(t, "legacy-conf", op.Remove[0].Name)
	assert.ElementsMatch(t, []model.RemoveTag{model.RemoveTagResolver, model.RemoveTagPurge}, op.Remove[0].Details)
	assert.Equal(t, "oldlib", op.Remove[1].Name)
	assert.Equal(t, []model.RemoveTag{model.RemoveTagResolver}, op.Remove[1].Details)
	assert.Equal(t, "amd64", op.Remove[1].Arch)
	assert.Equal(t, 3, op.Remove[0].Index)
	assert.Equal(t, 4, op.Remove[1].Index)

	assert.Equal(t, uint64(210000+40960+1000), op.TotalDownloadSize)
	expectedDelta := int64(512-500)*1024 + int64(100)*1024 + int64(2000-2100)*1024 - int64(4+8)*1024
	assert.Equal(t, expectedDelta, op.DiskSizeDelta)

	assert.Equal(t, []model.NamePair{{"curl-doc", "curl"}, {"vulkan-tools", "mesa"}}, op.Suggest)
	assert.Empty(t, op.Recommend)

	assert.Equal(t, model.SizePair{1, 16 * 1024}, op.Autoremovable)
	assert.Equal(t, 2, op.UpgradableCount())
}

func TestUpdatePlanner_PlanIsStrictlyDecodable(t *testing.T) {
	planner := NewUpdatePlanner(newPlannerRunner().run)

	op, err := planner.Plan(context.Background())
	require.NoError(t, err)

	data, err := json.Marshal(op)
	require.NoError(t, err)
	decoded, err := model.Decode[model.OmaOperation](data)
	require.NoError(t, err)
	assert.Equal(t, op, decoded)
}

func TestUpdatePlanner_Count(t *testing.T) {
	planner := NewUpdatePlanner(newPlannerRunner().run)

	count, err := planner.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestUpdatePlanner_NothingToDo(t *testing.T) {
	runner := &fakeRunner{
		outputs: map[string]string{
			"apt-get -s -q full-upgrade": "0 upgraded, 0 newly installed, 0 to remove and 0 not upgraded.\n",
			"dpkg-query -W":              dpkgInstalled,
		},
		errs: map[string]error{},
	}

	op, err := NewUpdatePlanner(runner.run).Plan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, op.Install)
	assert.Empty(t, op.Remove)
	assert.NotNil(t, op.Suggest)
	assert.NotNil(t, op.Recommend)

	for _, call := range runner.calls {
		assert.False(t, strings.HasPrefix(call, "apt-cache"), call)
		assert.False(t, strings.Contains(call, "--print-uris"), call)
	}
}

func TestUpdatePlanner_CachedArchiveFallback(t *testing.T) {
	runner := newPlannerRunner()
	runner.outputs["apt-get --print-uris -qq full-upgrade"] = ""
	runner.outputs["apt-cache show --no-all-versions"] = "Package: curl\nInstalled-Size: 512\nFilename: pool/stable/main/c/curl_8.6.0_amd64.deb\nSHA256: ffff\n"
	runner.outputs["apt-get -s -q full-upgrade"] = "Inst curl [8.5.0] (8.6.0 AOSC OS:stable [amd64])\n"

	op, err := NewUpdatePlanner(runner.run).Plan(context.Background())
	require.NoError(t, err)
	require.Len(t, op.Install, 1)
	assert.Equal(t, "file:///var/cache/apt/archives/curl_8.6.0_amd64.deb", op.Install[0].PkgUrls[0].DownloadURL)
	assert.Equal(t, "file:///var/cache/apt/archives", op.Install[0].PkgUrls[0].IndexURL)
	require.NotNil(t, op.Install[0].Sha256)
	assert.Equal(t, "ffff", *op.Install[0].Sha256)
}

func TestUpdatePlanner_AptErrorIsRecognized(t *testing.T) {
	runner := newPlannerRunner()
	runner.errs["apt-get -s -q full-upgrade"] = &helper.CommandError{
		Command: "apt-get -s -q full-upgrade",
		Code:    100,
		Stderr:  "E: Unable to correct problems, you have held broken packages.\n",
		Err:     errors.New("exit status 100"),
	}

	_, err := NewUpdatePlanner(runner.run).Plan(context.Background())
	require.Error(t, err)

	var matched *apt.MatchedError
	require.True(t, errors.As(err, &matched))
	assert.Equal(t, apt.ErrBrokenPackages, matched.Entry.Code)
}

func TestUpdatePlanner_UnknownAptError(t *testing.T) {
	runner := newPlannerRunner()
	runner.errs["dpkg-query -W"] = errors.New("dpkg-query: not found")

	_, err := NewUpdatePlanner(runner.run).Plan(context.Background())
	assert.Error(t, err)
}

func TestUpdatePlanner_AutoremoveFailureIsNotFatal(t *testing.T) {
	runner := newPlannerRunner()
	runner.errs["apt-get -s -q autoremove"] = errors.New("boom")

	op, err := NewUpdatePlanner(runner.run).Plan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.SizePair{}, op.Autoremovable)
}

func TestOperationFor(t *testing.T) {
	assert.Equal(t, model.OpInstall, operationFor(apt.SimulatedInstall{NewVersion: "1.0"}))
	assert.Equal(t, model.OpUpgrade, operationFor(apt.SimulatedInstall{OldVersion: "1.0", NewVersion: "1:0.9"}))
	assert.Equal(t, model.OpDowngrade, operationFor(apt.SimulatedInstall{OldVersion: "1.0", NewVersion: "1.0~rc1"}))
	assert.Equal(t, model.OpReInstall, operationFor(apt.SimulatedInstall{OldVersion: "1.0-0", NewVersion: "1.0"}))
}
