package chat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRouter(t *testing.T) {
	var discord, web []PlayerID
	r := &Router{}

	r.Send("steve", Text("dropped"))

	r.Route(func(p PlayerID) bool { return strings.HasPrefix(string(p), "discord:") },
		TransportFunc(func(to PlayerID, _ Message) { discord = append(discord, to) }))
	r.Fallback(TransportFunc(func(to PlayerID, _ Message) { web = append(web, to) }))

	r.Send("discord:42", Text("hi"))
	r.Send("steve", Text("hi"))

	assert.Equal(t, []PlayerID{"discord:42"}, discord)
	assert.Equal(t, []PlayerID{"steve"}, web)
}
