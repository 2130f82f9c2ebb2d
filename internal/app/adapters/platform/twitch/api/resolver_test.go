package api

import (
	"context"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamview/internal/app/ports"
	"streamview/pkg/logger"
)

type fakeAPI struct {
	calls atomic.Int32
	users map[string]string
}

func (f *fakeAPI) GetUsers(_ context.Context, logins []string) ([]ports.User, error) {
	f.calls.Add(1)
	var out []ports.User
	for _, l := range logins {
		if id, ok := f.users[l]; ok {
			out = append(out, ports.User{ID: id, Login: strings.ToUpper(l)})
		}
	}
	return out, nil
}

func (f *fakeAPI) GlobalEmotes(context.Context) ([]ports.HelixEmote, error) { return nil, nil }

func (f *fakeAPI) ChannelEmotes(context.Context, string) ([]ports.HelixEmote, error) {
	return nil, nil
}

func TestResolver_CoalescesAndCaches(t *testing.T) {
	api := &fakeAPI{users: map[string]string{"foo": "1", "bar": "2"}}
	r := NewResolver(logger.New(logger.WithWriter(io.Discard)), api, 20*time.Millisecond, time.Minute)
	defer r.Close()

	var wg sync.WaitGroup
	ids := make([]string, 2)
	for i, login := range []string{"#Foo", "bar"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := r.ChannelID(context.Background(), login)
			assert.NoError(t, err)
			ids[i] = id
		}()
	}
	wg.Wait()

	assert.Equal(t, []string{"1", "2"}, ids)
	assert.EqualValues(t, 1, api.calls.Load())

	id, err := r.ChannelID(context.Background(), "foo")
	require.NoError(t, err)
	assert.Equal(t, "1", id)
	assert.EqualValues(t, 1, api.calls.Load(), "second lookup served from cache")
}

func TestResolver_UnknownAndRemember(t *testing.T) {
	api := &fakeAPI{users: map[string]string{}}
	r := NewResolver(logger.New(logger.WithWriter(io.Discard)), api, time.Millisecond, time.Minute)
	defer r.Close()

	_, err := r.ChannelID(context.Background(), "ghost")
	assert.Error(t, err)

	r.Remember("Ghost", "99")
	id, err := r.ChannelID(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Equal(t, "99", id)
}
