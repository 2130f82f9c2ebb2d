package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	in := strings.NewReader(strings.Join([]string{
		"@badges=moderator/1;display-name=Foo :foo!foo@foo.tmi.twitch.tv PRIVMSG #bar :hi there",
		"",
		"@broken",
		"PING :tmi.twitch.tv",
	}, "\r\n"))

	var out bytes.Buffer
	require.NoError(t, run(in, &out, true))

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "chat   PRIVMSG"))
	assert.Contains(t, lines[0], `"hi there"`)
	assert.Equal(t, "       badges = moderator/1", lines[1])
	assert.Equal(t, "       display-name = Foo", lines[2])
	assert.True(t, strings.HasPrefix(lines[3], "ERR "))
	assert.True(t, strings.HasPrefix(lines[4], "contro PING"))
}
