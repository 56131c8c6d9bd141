package bot

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
)

func TestRegisteredCommandsPerGuild(t *testing.T) {
	b := &Bot{RegisteredCommands: make(map[string][]*discordgo.ApplicationCommand)}
	cmds := []*discordgo.ApplicationCommand{{ID: "1", Name: "mod-history"}, {ID: "2", Name: "guard-status"}}

	b.rememberCommands("g1", cmds)
	b.rememberCommands("g1", cmds)
	b.rememberCommands("g2", cmds[:1])
	assert.Len(t, b.RegisteredCommands["g1"], 2)
	assert.Len(t, b.RegisteredCommands, 2)

	b.ForgetCommands("g1")
	assert.NotContains(t, b.RegisteredCommands, "g1")
	assert.Len(t, b.RegisteredCommands["g2"], 1)

	// 没有登录信息时不发任何删除请求
	b.Session = &discordgo.Session{}
	b.removeCommands()
	assert.Len(t, b.RegisteredCommands, 1)
}
