package tickets

import (
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticket_guard/model"
	"ticket_guard/panels"
	"ticket_guard/platform/platformtest"
	"ticket_guard/utils"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestManager(t *testing.T) (*Manager, *panels.Registry, *platformtest.Fake, *testClock) {
	t.Helper()
	fake := platformtest.New()
	registry := panels.NewRegistry(model.PanelKeys...)
	require.NoError(t, registry.Commit("panel1", model.PanelFields{
		DisplayName:      "Support",
		BodyText:         "We will help",
		ModeratorRoleID:  "111",
		TicketCategoryID: "222",
	}))

	clock := &testClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	m := NewManager("g1", fake, registry, model.Policy{
		CloseConfirmTTL: 30 * time.Second,
		CloseGrace:      0,
	})
	m.now = clock.Now
	nonces := 0
	m.newNonce = func() string {
		nonces++
		return fmt.Sprintf("n%d", nonces)
	}
	return m, registry, fake, clock
}

func TestOpenTicket(t *testing.T) {
	m, registry, fake, _ := newTestManager(t)

	channelID, err := m.Open("panel1", "u1")
	require.NoError(t, err)

	p, _ := registry.Get("panel1")
	assert.Equal(t, 1, p.TicketCounter)

	calls := fake.Snapshot()
	require.Len(t, calls.Created, 1)
	created := calls.Created[0]
	assert.Equal(t, "ticket-panel1-1", created.Name)
	assert.Equal(t, "222", created.ParentID)
	assert.Equal(t, Topic("panel1", "u1"), created.Topic)

	require.Len(t, created.PermissionOverwrites, 3)
	everyone := created.PermissionOverwrites[0]
	assert.Equal(t, "g1", everyone.ID)
	assert.NotZero(t, everyone.Deny&discordgo.PermissionViewChannel)
	assert.Equal(t, "u1", created.PermissionOverwrites[1].ID)
	assert.NotZero(t, created.PermissionOverwrites[1].Allow&discordgo.PermissionViewChannel)
	assert.Equal(t, "111", created.PermissionOverwrites[2].ID)

	sent := fake.SentTo(channelID)
	require.Len(t, sent, 2)
	assert.Equal(t, "<@&111> <@u1>", sent[0].Content)
	row := sent[1].Components[0].(discordgo.ActionsRow)
	assert.Equal(t, utils.TicketCloseID(), row.Components[0].(discordgo.Button).CustomID)
}

func TestOpenWithoutModeratorRole(t *testing.T) {
	m, registry, fake, _ := newTestManager(t)
	require.NoError(t, registry.Commit("panel2", model.PanelFields{DisplayName: "Bugs", TicketCategoryID: "333"}))

	channelID, err := m.Open("panel2", "u1")
	require.NoError(t, err)
	assert.Len(t, fake.Snapshot().Created[0].PermissionOverwrites, 2)
	assert.Equal(t, "<@u1>", fake.SentTo(channelID)[0].Content)
}

func TestOpenNotReadyHasNoSideEffects(t *testing.T) {
	m, registry, fake, _ := newTestManager(t)

	_, err := m.Open("panel2", "u1")
	assert.ErrorIs(t, err, panels.ErrPanelNotReady)

	p, _ := registry.Get("panel2")
	assert.Equal(t, 0, p.TicketCounter)
	calls := fake.Snapshot()
	assert.Empty(t, calls.Created)
	assert.Empty(t, calls.Messages)
}

func TestOpenCreateFailureConsumesNumber(t *testing.T) {
	m, registry, fake, _ := newTestManager(t)
	fake.SetError("create_channel", platformtest.PermissionDenied())

	_, err := m.Open("panel1", "u1")
	assert.Error(t, err)

	fake.SetError("create_channel", nil)
	_, err = m.Open("panel1", "u1")
	require.NoError(t, err)

	p, _ := registry.Get("panel1")
	assert.Equal(t, 2, p.TicketCounter)
	assert.Equal(t, "ticket-panel1-2", fake.Snapshot().Created[0].Name)
}

func TestConcurrentOpensGetDistinctNumbers(t *testing.T) {
	m, _, fake, _ := newTestManager(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := m.Open("panel1", fmt.Sprintf("u%d", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	var names []string
	for _, c := range fake.Snapshot().Created {
		names = append(names, c.Name)
	}
	sort.Strings(names)
	var want []string
	for i := 1; i <= 20; i++ {
		want = append(want, ChannelName("panel1", i))
	}
	sort.Strings(want)
	assert.Equal(t, want, names)
}

func TestCloseConfirmed(t *testing.T) {
	m, _, fake, clock := newTestManager(t)
	channelID, err := m.Open("panel1", "u1")
	require.NoError(t, err)

	prompt, err := m.RequestClose(channelID, "u1")
	require.NoError(t, err)
	yes, _ := utils.CloseConfirmIDs(channelID, "n1")
	row := prompt.Components[0].(discordgo.ActionsRow)
	assert.Equal(t, yes, row.Components[0].(discordgo.Button).CustomID)
	assert.Equal(t, 1, m.Pending())

	clock.Advance(10 * time.Second)
	outcome, err := m.ConfirmClose(channelID, "n1", "u1")
	require.NoError(t, err)
	assert.Equal(t, CloseScheduled, outcome)

	m.Close()
	assert.Equal(t, []string{channelID}, fake.Snapshot().DeletedChannels)
	assert.Equal(t, 0, m.Pending())
}

func TestLateConfirmationIsRejected(t *testing.T) {
	m, _, fake, clock := newTestManager(t)
	channelID, err := m.Open("panel1", "u1")
	require.NoError(t, err)

	_, err = m.RequestClose(channelID, "u1")
	require.NoError(t, err)

	clock.Advance(31 * time.Second)
	outcome, err := m.ConfirmClose(channelID, "n1", "u1")
	require.NoError(t, err)
	assert.Equal(t, CloseExpired, outcome)

	m.Close()
	assert.Empty(t, fake.Snapshot().DeletedChannels)
	_, err = fake.Channel(channelID)
	assert.NoError(t, err, "channel must still exist")
}

func TestConfirmationExpiresOnTimer(t *testing.T) {
	m, _, fake, _ := newTestManager(t)
	m.policy.CloseConfirmTTL = 20 * time.Millisecond

	channelID, err := m.Open("panel1", "u1")
	require.NoError(t, err)
	_, err = m.RequestClose(channelID, "u1")
	require.NoError(t, err)

	require.Eventually(t, func() bool { return m.Pending() == 0 }, time.Second, time.Millisecond)
	outcome, err := m.ConfirmClose(channelID, "n1", "u1")
	require.NoError(t, err)
	assert.Equal(t, CloseExpired, outcome)
	m.Close()
	assert.Empty(t, fake.Snapshot().DeletedChannels)
}

func TestDeclineAndSupersededConfirmations(t *testing.T) {
	m, _, fake, _ := newTestManager(t)
	channelID, err := m.Open("panel1", "u1")
	require.NoError(t, err)

	_, err = m.RequestClose(channelID, "u1")
	require.NoError(t, err)
	_, err = m.RequestClose(channelID, "u1")
	require.NoError(t, err)

	// the first prompt was replaced by the second
	outcome, err := m.ConfirmClose(channelID, "n1", "u1")
	require.NoError(t, err)
	assert.Equal(t, CloseExpired, outcome)

	_, err = m.ConfirmClose(channelID, "n2", "intruder")
	assert.ErrorIs(t, err, ErrNotRequester)

	assert.Equal(t, CloseDeclined, m.DeclineClose(channelID, "n2"))
	outcome, _ = m.ConfirmClose(channelID, "n2", "u1")
	assert.Equal(t, CloseExpired, outcome)

	m.Close()
	assert.Empty(t, fake.Snapshot().DeletedChannels)
}

func TestRequestCloseOnNonTicketChannel(t *testing.T) {
	m, _, fake, _ := newTestManager(t)
	fake.AddChannel(&discordgo.Channel{ID: "general", Topic: "chat here"})

	_, err := m.RequestClose("general", "u1")
	assert.ErrorIs(t, err, ErrNotTicketChannel)

	_, err = m.RequestClose("missing", "u1")
	assert.Error(t, err)
}

func TestTopic(t *testing.T) {
	key, user, ok := ParseTopic(Topic("panel3", "42"))
	assert.True(t, ok)
	assert.Equal(t, "panel3", key)
	assert.Equal(t, "42", user)

	for _, bad := range []string{"", "ticket:", "ticket:panel1", "hello:panel1:1", "ticket::1"} {
		_, _, ok := ParseTopic(bad)
		assert.False(t, ok, bad)
	}
}
