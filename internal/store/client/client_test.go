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

package client

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"aoska/internal/store/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ctxKey string

type fakeReply struct {
	payload string
	err     error
}

type fakeCall struct {
	method string
	args   []interface{}
	ctx    context.Context
}

type fakeTransport struct {
	mu      sync.Mutex
	replies map[string]fakeReply
	calls   []fakeCall
}

func newFakeTransport(replies map[string]fakeReply) *fakeTransport {
	return &fakeTransport{replies: replies}
}

func (f *fakeTransport) Call(ctx context.Context, method string, args ...interface{}) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, fakeCall{method: method, args: args, ctx: ctx})
	reply, ok := f.replies[method]
	f.mu.Unlock()

	if !ok {
		return nil, errors.New("no such method: " + method)
	}
	if reply.err != nil {
		return nil, reply.err
	}
	return []byte(reply.payload), nil
}

func (f *fakeTransport) callCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.method == method {
			n++
		}
	}
	return n
}

func fixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "model", "testdata", name))
	require.NoError(t, err)
	return string(data)
}

func TestClient_DecodesFixtures(t *testing.T) {
	transport := newFakeTransport(map[string]fakeReply{
		"GetEndpointBaseUrl": {payload: `"https://cdn.example/"`},
		"FetchIndex":         {payload: fixture(t, "index.json")},
		"FetchRecommend":     {payload: fixture(t, "recommend.json")},
		"FetchDetail":        {payload: fixture(t, "detail.json")},
		"FetchUpdateDetail":  {payload: fixture(t, "update.json")},
		"FetchUpdateCount":   {payload: `7`},
		"FetchTumUpdate":     {payload: fixture(t, "tum.json")},
		"FetchByCategory":    {payload: `{"category":"games","packages":[{"name":"supertuxkart","intro":"Kart racing","icon":"icon.png"}]}`},
	})
	c := New(transport)
	ctx := context.Background()

	base, err := c.GetEndpointBaseURL(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/", base)

	idx, err := c.FetchIndex(ctx)
	require.NoError(t, err)
	assert.Len(t, idx.Packages, 2)

	rec, err := c.FetchRecommend(ctx)
	require.NoError(t, err)
	assert.Equal(t, "firefox", rec.Packages[0].Name)

	detail, err := c.FetchDetail(ctx, "firefox")
	require.NoError(t, err)
	assert.Equal(t, "banner.jpg", detail.Banner)
	assert.Equal(t, []interface{}{"firefox"}, transport.calls[3].args)

	plan, err := c.FetchUpdateDetail(ctx)
	require.NoError(t, err)
	assert.Len(t, plan.Install, 2)

	count, err := c.FetchUpdateCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, count)

	tum, err := c.FetchTumUpdate(ctx)
	require.NoError(t, err)
	assert.Len(t, tum, 2)

	games, err := c.FetchByCategory(ctx, "games")
	require.NoError(t, err)
	assert.Equal(t, model.CategoryGames, games.Category)
	assert.Equal(t, []interface{}{"games"}, transport.calls[len(transport.calls)-1].args)
}

func TestClient_TransportErrorIsOpaque(t *testing.T) {
	transport := newFakeTransport(map[string]fakeReply{
		"FetchIndex": {err: errors.New("org.freedesktop.DBus.Error.ServiceUnknown: secret detail")},
	})

	_, err := New(transport).FetchIndex(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCallFailed))
	assert.NotContains(t, err.Error(), "secret detail")

	var callErr *CallError
	require.True(t, errors.As(err, &callErr))
	assert.Equal(t, "FetchIndex", callErr.Op)
}

func TestClient_MalformedPayloadNeverReturnsPartialObject(t *testing.T) {
	transport := newFakeTransport(map[string]fakeReply{
		"FetchDetail":       {payload: `{"name":"firefox","icon":"icon.png"}`},
		"FetchUpdateDetail": {payload: `{"install":[],"remove":[],"disk_size_delta":0,"autoremovable":[1],"total_download_size":0,"suggest":[],"recommend":[]}`},
		"FetchIndex":        {payload: `{"version":9,"generated_at":"2025-01-01T00:00:00Z","packages":[]}`},
		"FetchUpdateCount":  {payload: `"seven"`},
		"FetchTumUpdate":    {payload: `null`},
	})
	c := New(transport)
	ctx := context.Background()

	detail, err := c.FetchDetail(ctx, "firefox")
	assert.ErrorIs(t, err, ErrCallFailed)
	assert.Equal(t, model.PackageDetail{}, detail)

	plan, err := c.FetchUpdateDetail(ctx)
	assert.ErrorIs(t, err, ErrCallFailed)
	assert.Equal(t, model.OmaOperation{}, plan)

	idx, err := c.FetchIndex(ctx)
	assert.ErrorIs(t, err, ErrCallFailed)
	assert.Equal(t, model.Index{}, idx)

	count, err := c.FetchUpdateCount(ctx)
	assert.ErrorIs(t, err, ErrCallFailed)
	assert.Zero(t, count)

	tum, err := c.FetchTumUpdate(ctx)
	assert.ErrorIs(t, err, ErrCallFailed)
	assert.Nil(t, tum)
}

func TestClient_NegativeCountRejected(t *testing.T) {
	transport := newFakeTransport(map[string]fakeReply{"FetchUpdateCount": {payload: `-1`}})

	_, err := New(transport).FetchUpdateCount(context.Background())
	assert.ErrorIs(t, err, ErrCallFailed)
}

func TestClient_NoRetry(t *testing.T) {
	transport := newFakeTransport(map[string]fakeReply{
		"FetchRecommend": {err: errors.New("timeout")},
	})

	_, err := New(transport).FetchRecommend(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, transport.callCount("FetchRecommend"))
}

func TestClient_NoCaching(t *testing.T) {
	transport := newFakeTransport(map[string]fakeReply{"FetchUpdateCount": {payload: `1`}})
	c := New(transport)

	for i := 0; i < 3; i++ {
		_, err := c.FetchUpdateCount(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, 3, transport.callCount("FetchUpdateCount"))
}

func TestClient_PassesContextUnchanged(t *testing.T) {
	transport := newFakeTransport(map[string]fakeReply{"FetchUpdateCount": {payload: `0`}})
	ctx := context.WithValue(context.Background(), ctxKey("marker"), "value")

	_, err := New(transport).FetchUpdateCount(ctx)
	require.NoError(t, err)

	got := transport.calls[0].ctx
	assert.Equal(t, "value", got.Value(ctxKey("marker")))
	_, hasDeadline := got.Deadline()
	assert.False(t, hasDeadline)
}

func TestClient_ConcurrentCallsAreIndependent(t *testing.T) {
	transport := newFakeTransport(map[string]fakeReply{
		"FetchIndex":     {payload: fixture(t, "index.json")},
		"FetchRecommend": {err: errors.New("backend down")},
	})
	c := New(transport)

	var wg sync.WaitGroup
	indexErrs := make(chan error, 20)
	recommendErrs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := c.FetchIndex(context.Background())
			indexErrs <- err
		}()
		go func() {
			defer wg.Done()
			_, err := c.FetchRecommend(context.Background())
			recommendErrs <- err
		}()
	}
	wg.Wait()
	close(indexErrs)
	close(recommendErrs)

	for err := range indexErrs {
		assert.NoError(t, err)
	}
	for err := range recommendErrs {
		assert.ErrorIs(t, err, ErrCallFailed)
	}
}
