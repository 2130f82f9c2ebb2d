package emotes

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamview/internal/app/domain/emote"
	"streamview/internal/app/ports"
	"streamview/pkg/logger"
)

var fixtures = map[string]string{
	"/7tv/emote-sets/global": `{"id":"g","emotes":[
		{"id":"1","name":"Shared","data":{"host":{"url":"//cdn.7tv.app/emote/1"}}},
		{"id":"2","name":"SevenOnly","data":{"host":{"url":"//cdn.7tv.app/emote/2"}}}]}`,
	"/7tv/users/twitch/42": `{"id":"u","emote_set":{"id":"s","emotes":[
		{"id":"3","name":"ChanShared","data":{"host":{"url":"//cdn.7tv.app/emote/3"}}}]}}`,
	"/bttv/cached/emotes/global": `[{"id":"b1","code":"Shared"},{"id":"b2","code":"BttvOnly"}]`,
	"/bttv/cached/users/twitch/42": `{"id":"x","channelEmotes":[{"id":"b3","code":"ChanShared"}],
		"sharedEmotes":[{"id":"b4","code":"Shared"}]}`,
	"/ffz/set/global": `{"default_sets":[3],"sets":{
		"3":{"id":3,"emoticons":[{"id":1,"name":"Shared","urls":{"1":"//cdn.frankerfacez.com/1"}},
			{"id":5,"name":"FfzOnly","urls":{"1":"//cdn.frankerfacez.com/5","4":"//cdn.frankerfacez.com/5/4"}}]},
		"4":{"id":4,"emoticons":[{"id":2,"name":"Hidden","urls":{"1":"//cdn.frankerfacez.com/2"}}]}}}`,
}

type fakeHelix struct {
	delay time.Duration
	fail  bool
	calls atomic.Int32
}

func (f *fakeHelix) GetUsers(context.Context, []string) ([]ports.User, error) { return nil, nil }

func (f *fakeHelix) GlobalEmotes(ctx context.Context) ([]ports.HelixEmote, error) {
	return f.emotes(ctx, "Kappa", "Shared")
}

func (f *fakeHelix) ChannelEmotes(ctx context.Context, _ string) ([]ports.HelixEmote, error) {
	return f.emotes(ctx, "chanHi")
}

func (f *fakeHelix) emotes(ctx context.Context, names ...string) ([]ports.HelixEmote, error) {
	f.calls.Add(1)
	select {
	case <-time.After(f.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if f.fail {
		return nil, errors.New("helix down")
	}

	out := make([]ports.HelixEmote, len(names))
	for i, n := range names {
		out[i].ID = "t-" + n
		out[i].Name = n
		out[i].Images.URL1x = "https://static-cdn.jtvnw.net/" + n
	}
	return out, nil
}

type providerServer struct {
	srv    *httptest.Server
	hits   atomic.Int32
	mu     sync.Mutex
	delays map[string]time.Duration
	failed map[string]bool
}

func newProviderServer(t *testing.T) *providerServer {
	t.Helper()

	ps := &providerServer{delays: map[string]time.Duration{}, failed: map[string]bool{}}
	ps.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ps.hits.Add(1)
		provider := strings.Split(strings.TrimPrefix(r.URL.Path, "/"), "/")[0]

		ps.mu.Lock()
		delay, failed := ps.delays[provider], ps.failed[provider]
		ps.mu.Unlock()

		time.Sleep(delay)
		if failed {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		body, ok := fixtures[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(ps.srv.Close)
	return ps
}

func (ps *providerServer) set(provider string, delay time.Duration, failed bool) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.delays[provider] = delay
	ps.failed[provider] = failed
}

func (ps *providerServer) aggregator(helix *fakeHelix) *Aggregator {
	client := ps.srv.Client()
	return NewAggregator(
		logger.New(logger.WithWriter(io.Discard)),
		Options{RequestTimeout: 2 * time.Second, ChannelTTL: time.Minute},
		NewFFZ(client, ps.srv.URL+"/ffz"),
		NewBTTV(client, ps.srv.URL+"/bttv"),
		NewTwitch(helix),
		NewSevenTV(client, ps.srv.URL+"/7tv"),
	)
}

func providersOf(c emote.Catalog) map[string]string {
	out := make(map[string]string, len(c))
	for name, e := range c {
		out[name] = e.Provider
	}
	return out
}

func TestGlobalCatalog_Precedence(t *testing.T) {
	ps := newProviderServer(t)
	agg := ps.aggregator(&fakeHelix{})

	got := providersOf(agg.GlobalCatalog(context.Background()))
	assert.Equal(t, map[string]string{
		"Kappa":     emote.ProviderTwitch,
		"Shared":    emote.ProviderTwitch,
		"SevenOnly": emote.ProviderSevenTV,
		"BttvOnly":  emote.ProviderBTTV,
		"FfzOnly":   emote.ProviderFFZ,
	}, got)
}

func TestChannelCatalog_ChannelOverridesGlobal(t *testing.T) {
	ps := newProviderServer(t)
	agg := ps.aggregator(&fakeHelix{})

	catalog := agg.ChannelCatalog(context.Background(), "42", "foo")
	got := providersOf(catalog)

	assert.Equal(t, emote.ProviderBTTV, got["Shared"], "channel-scoped bttv beats global twitch")
	assert.Equal(t, emote.ProviderSevenTV, got["ChanShared"], "7tv beats bttv within channel scope")
	assert.Equal(t, emote.ProviderTwitch, got["chanHi"])
	assert.Equal(t, emote.ProviderTwitch, got["Kappa"])
	assert.Equal(t, "https://cdn.7tv.app/emote/3/1x.webp", catalog["ChanShared"].URL(emote.Scale1x))
	assert.Equal(t, "https://cdn.frankerfacez.com/5/4", catalog["FfzOnly"].URL(emote.Scale4x))
}

func TestChannelCatalog_DeterministicAcrossLatencies(t *testing.T) {
	orders := [][]time.Duration{
		{0, 10, 20, 30},
		{30, 20, 10, 0},
		{20, 0, 30, 10},
		{10, 30, 0, 20},
	}

	var want emote.Catalog
	for i, d := range orders {
		ps := newProviderServer(t)
		ps.set("7tv", d[0]*time.Millisecond, false)
		ps.set("bttv", d[1]*time.Millisecond, false)
		ps.set("ffz", d[2]*time.Millisecond, false)
		agg := ps.aggregator(&fakeHelix{delay: d[3] * time.Millisecond})

		got := agg.ChannelCatalog(context.Background(), "42", "foo")
		if i == 0 {
			want = got
			continue
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("order %v changed the catalog (-want +got):\n%s", d, diff)
		}
	}
}

func TestChannelCatalog_DeterministicWithFailures(t *testing.T) {
	// 7tv падает то первым, то последним
	orders := [][]time.Duration{
		{0, 10, 20, 30},
		{30, 0, 10, 20},
		{0, 30, 20, 10},
		{30, 20, 10, 0},
		{15, 20, 0, 30},
	}

	var want emote.Catalog
	for i, d := range orders {
		ps := newProviderServer(t)
		ps.set("7tv", d[0]*time.Millisecond, true)
		ps.set("bttv", d[1]*time.Millisecond, false)
		ps.set("ffz", d[2]*time.Millisecond, false)
		agg := ps.aggregator(&fakeHelix{delay: d[3] * time.Millisecond})

		got := agg.ChannelCatalog(context.Background(), "42", "foo")
		if i == 0 {
			want = got
			continue
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("order %v changed the catalog (-want +got):\n%s", d, diff)
		}
	}

	got := providersOf(want)
	assert.NotContains(t, got, "SevenOnly")
	assert.Equal(t, emote.ProviderBTTV, got["ChanShared"])
	assert.Equal(t, emote.ProviderTwitch, got["chanHi"])
}

func TestGlobalCatalog_ProviderFailureIsEmptyContribution(t *testing.T) {
	ps := newProviderServer(t)
	ps.set("7tv", 0, true)
	agg := ps.aggregator(&fakeHelix{fail: true})

	got := providersOf(agg.GlobalCatalog(context.Background()))
	assert.Equal(t, map[string]string{
		"Shared":   emote.ProviderBTTV,
		"BttvOnly": emote.ProviderBTTV,
		"FfzOnly":  emote.ProviderFFZ,
	}, got)
}

func TestGlobalCatalog_CachedOnlyAfterSuccess(t *testing.T) {
	ps := newProviderServer(t)
	for _, p := range []string{"7tv", "bttv", "ffz"} {
		ps.set(p, 0, true)
	}
	helix := &fakeHelix{fail: true}
	agg := ps.aggregator(helix)

	assert.Empty(t, agg.GlobalCatalog(context.Background()))
	assert.Empty(t, agg.GlobalCatalog(context.Background()))
	assert.EqualValues(t, 2, helix.calls.Load(), "failed global fetch is retried on next use")

	helix.fail = false
	assert.NotEmpty(t, agg.GlobalCatalog(context.Background()))
	agg.GlobalCatalog(context.Background())
	assert.EqualValues(t, 3, helix.calls.Load(), "successful global fetch is cached")
}

func TestGlobalCatalog_FetchedOnFirstUse(t *testing.T) {
	ps := newProviderServer(t)
	helix := &fakeHelix{}
	agg := ps.aggregator(helix)

	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, ps.hits.Load())
	assert.Zero(t, helix.calls.Load())

	require.NotEmpty(t, agg.GlobalCatalog(context.Background()))
	assert.EqualValues(t, 3, ps.hits.Load())
	assert.EqualValues(t, 1, helix.calls.Load())
}

func TestGlobalCatalog_SingleFetchForConcurrentCallers(t *testing.T) {
	ps := newProviderServer(t)
	helix := &fakeHelix{delay: 50 * time.Millisecond}
	agg := ps.aggregator(helix)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NotEmpty(t, agg.GlobalCatalog(context.Background()))
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, helix.calls.Load())
}

func TestChannelCatalog_CachedAndInvalidated(t *testing.T) {
	ps := newProviderServer(t)
	helix := &fakeHelix{}
	agg := ps.aggregator(helix)

	first := agg.ChannelCatalog(context.Background(), "42", "foo")
	require.NotEmpty(t, first)
	hits := ps.hits.Load()

	agg.ChannelCatalog(context.Background(), "42", "foo")
	assert.Equal(t, hits, ps.hits.Load())

	agg.Invalidate("42")
	agg.ChannelCatalog(context.Background(), "42", "foo")
	assert.Greater(t, ps.hits.Load(), hits)
}

func TestChannelCatalog_NoChannelID(t *testing.T) {
	ps := newProviderServer(t)
	agg := ps.aggregator(&fakeHelix{})

	got := agg.ChannelCatalog(context.Background(), "", "foo")
	assert.Equal(t, agg.GlobalCatalog(context.Background()), got)
}
