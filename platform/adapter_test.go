package platform

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
)

func TestIsPermissionError(t *testing.T) {
	forbidden := &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusForbidden}}
	missingAccess := &discordgo.RESTError{
		Response: &http.Response{StatusCode: http.StatusBadRequest},
		Message:  &discordgo.APIErrorMessage{Code: discordgo.ErrCodeMissingAccess},
	}
	notFound := &discordgo.RESTError{
		Response: &http.Response{StatusCode: http.StatusNotFound},
		Message:  &discordgo.APIErrorMessage{Code: discordgo.ErrCodeUnknownChannel},
	}

	assert.True(t, IsPermissionError(forbidden))
	assert.True(t, IsPermissionError(fmt.Errorf("kick: %w", missingAccess)))
	assert.False(t, IsPermissionError(notFound))
	assert.False(t, IsPermissionError(errors.New("network down")))
	assert.False(t, IsPermissionError(nil))
}

func TestIsAdministratorFromState(t *testing.T) {
	state := discordgo.NewState()
	guild := &discordgo.Guild{
		ID:      "g1",
		OwnerID: "owner",
		Roles: []*discordgo.Role{
			{ID: "g1", Permissions: discordgo.PermissionSendMessages},
			{ID: "admins", Permissions: discordgo.PermissionAdministrator},
			{ID: "helpers", Permissions: discordgo.PermissionManageMessages},
		},
	}
	assert.NoError(t, state.GuildAdd(guild))
	assert.NoError(t, state.MemberAdd(&discordgo.Member{GuildID: "g1", User: &discordgo.User{ID: "boss"}, Roles: []string{"admins"}}))
	assert.NoError(t, state.MemberAdd(&discordgo.Member{GuildID: "g1", User: &discordgo.User{ID: "helper"}, Roles: []string{"helpers"}}))

	// 会话没有 token 和 HTTP 客户端，走到 REST 就会报错
	d := NewDiscord(&discordgo.Session{State: state})

	for user, want := range map[string]bool{"owner": true, "boss": true, "helper": false} {
		admin, err := d.IsAdministrator("g1", user)
		assert.NoError(t, err, user)
		assert.Equal(t, want, admin, user)
	}
}
