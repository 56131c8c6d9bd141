package wizard

import (
	"context"
	"strings"
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

func testPolicy() model.Policy {
	return model.Policy{
		WizardShortTimeout:   time.Second,
		WizardBodyTimeout:    time.Second,
		WizardConfirmTimeout: time.Second,
	}
}

func newTestManager(policy model.Policy) (*Manager, *panels.Registry, *platformtest.Fake) {
	fake := platformtest.New()
	registry := panels.NewRegistry(model.PanelKeys...)
	return NewManager(fake, registry, policy), registry, fake
}

func say(t *testing.T, m *Manager, channelID, authorID, text string) {
	t.Helper()
	require.Eventually(t, func() bool {
		return m.HandleMessage(channelID, authorID, text)
	}, time.Second, time.Millisecond, "message %q was never consumed", text)
}

func press(t *testing.T, m *Manager, ownerID, channelID, control string) {
	t.Helper()
	require.Eventually(t, func() bool {
		return m.HandleControl(ownerID, channelID, ownerID, control) == nil
	}, time.Second, time.Millisecond, "control %q was never consumed", control)
}

func waitDone(t *testing.T, s *Session) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session did not finish")
	}
}

func contents(fake *platformtest.Fake, channelID string) []string {
	var out []string
	for _, msg := range fake.SentTo(channelID) {
		out = append(out, msg.Content)
	}
	return out
}

func countContaining(items []string, sub string) int {
	n := 0
	for _, s := range items {
		if strings.Contains(s, sub) {
			n++
		}
	}
	return n
}

func TestWizardCommit(t *testing.T) {
	m, registry, fake := newTestManager(testPolicy())

	s, err := m.Start(context.Background(), "panel1", "admin", "c1")
	require.NoError(t, err)

	say(t, m, "c1", "admin", "set-panel-name Support")
	say(t, m, "c1", "admin", "We will help")
	say(t, m, "c1", "admin", "<@&111>")
	say(t, m, "c1", "admin", "create-tickets-in 222")
	require.Eventually(t, func() bool { return s.Step() == StepConfirm }, time.Second, time.Millisecond)
	press(t, m, "admin", "c1", ControlConfirm)
	waitDone(t, s)

	p, _ := registry.Get("panel1")
	assert.Equal(t, model.PanelFields{
		DisplayName:      "Support",
		BodyText:         "We will help",
		ModeratorRoleID:  "111",
		TicketCategoryID: "222",
	}, p.PanelFields)
	assert.Equal(t, 0, p.TicketCounter)
	assert.Equal(t, 0, m.Active())

	var openID string
	for _, msg := range fake.SentTo("c1") {
		if len(msg.Embeds) == 1 && msg.Embeds[0].Title == "Support" && len(msg.Components) == 1 {
			row := msg.Components[0].(discordgo.ActionsRow)
			openID = row.Components[0].(discordgo.Button).CustomID
		}
	}
	assert.Equal(t, utils.TicketOpenID("panel1"), openID, "intake message with open button was not posted")
}

func TestWizardRejectsBadIDAndStays(t *testing.T) {
	m, _, fake := newTestManager(testPolicy())

	s, err := m.Start(context.Background(), "panel2", "admin", "c1")
	require.NoError(t, err)

	say(t, m, "c1", "admin", "Name")
	say(t, m, "c1", "admin", "Body")
	say(t, m, "c1", "admin", "not-a-number")
	require.Eventually(t, func() bool {
		return countContaining(contents(fake, "c1"), "❌ Error") == 1
	}, time.Second, time.Millisecond)
	assert.Equal(t, StepModRole, s.Step())

	say(t, m, "c1", "admin", "0")
	require.Eventually(t, func() bool { return s.Step() == StepCategory }, time.Second, time.Millisecond)
	m.Close()
}

func TestWizardIgnoresOtherUsersAndChannels(t *testing.T) {
	m, _, _ := newTestManager(testPolicy())

	s, err := m.Start(context.Background(), "panel1", "admin", "c1")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return m.waiter.Pending() == 1 }, time.Second, time.Millisecond)

	assert.False(t, m.HandleMessage("c1", "someone", "hijack"))
	assert.False(t, m.HandleMessage("c2", "admin", "wrong channel"))
	assert.Equal(t, StepName, s.Step())
	assert.ErrorIs(t, m.HandleControl("admin", "c1", "someone", ControlConfirm), ErrNotOwner)
	m.Close()
}

func TestWizardTimeoutLeavesRegistryUnchanged(t *testing.T) {
	inputs := [][]string{
		nil,                         // times out at Name
		{"After", "Body"},           // times out at ModRole
		{"After", "Body", "1", "2"}, // times out at Confirm
	}
	for _, feed := range inputs {
		policy := testPolicy()
		policy.WizardShortTimeout = 100 * time.Millisecond
		policy.WizardConfirmTimeout = 100 * time.Millisecond
		m, registry, fake := newTestManager(policy)

		require.NoError(t, registry.Commit("panel1", model.PanelFields{DisplayName: "Before", TicketCategoryID: "5"}))
		before, _ := registry.Get("panel1")

		s, err := m.Start(context.Background(), "panel1", "admin", "c1")
		require.NoError(t, err)
		for _, text := range feed {
			say(t, m, "c1", "admin", text)
		}
		waitDone(t, s)

		after, _ := registry.Get("panel1")
		assert.Equal(t, before, after)
		assert.Equal(t, 1, countContaining(contents(fake, "c1"), "timed out"))
	}
}

func TestWizardRestartClearsFields(t *testing.T) {
	m, registry, _ := newTestManager(testPolicy())

	s, err := m.Start(context.Background(), "panel3", "admin", "c1")
	require.NoError(t, err)
	for _, text := range []string{"First", "Body", "1", "2"} {
		say(t, m, "c1", "admin", text)
	}
	require.Eventually(t, func() bool { return s.Step() == StepConfirm }, time.Second, time.Millisecond)
	press(t, m, "admin", "c1", ControlRestart)
	require.Eventually(t, func() bool { return s.Step() == StepName }, time.Second, time.Millisecond)

	for _, text := range []string{"Second", "Body 2", "0", "3"} {
		say(t, m, "c1", "admin", text)
	}
	press(t, m, "admin", "c1", ControlConfirm)
	waitDone(t, s)

	p, _ := registry.Get("panel3")
	assert.Equal(t, model.PanelFields{DisplayName: "Second", BodyText: "Body 2", TicketCategoryID: "3"}, p.PanelFields)
}

func TestWizardCancelDiscards(t *testing.T) {
	m, registry, _ := newTestManager(testPolicy())

	s, err := m.Start(context.Background(), "panel1", "admin", "c1")
	require.NoError(t, err)
	for _, text := range []string{"Name", "Body", "1", "2"} {
		say(t, m, "c1", "admin", text)
	}
	press(t, m, "admin", "c1", ControlCancel)
	waitDone(t, s)

	p, _ := registry.Get("panel1")
	assert.Equal(t, model.Panel{Key: "panel1"}, p)
}

func TestWizardSupersedeIsSilent(t *testing.T) {
	policy := testPolicy()
	policy.WizardShortTimeout = 300 * time.Millisecond
	m, _, fake := newTestManager(policy)

	first, err := m.Start(context.Background(), "panel1", "admin", "c1")
	require.NoError(t, err)
	second, err := m.Start(context.Background(), "panel2", "admin", "c1")
	require.NoError(t, err)

	waitDone(t, first)
	current, ok := m.Session("admin", "c1")
	require.True(t, ok)
	assert.Same(t, second, current)

	waitDone(t, second)
	// only the second session may report a timeout
	assert.Equal(t, 1, countContaining(contents(fake, "c1"), "timed out"))
	assert.Equal(t, 0, m.Active())
}

func TestWizardSessionsAreIndependent(t *testing.T) {
	m, _, _ := newTestManager(testPolicy())

	a, err := m.Start(context.Background(), "panel1", "alice", "c1")
	require.NoError(t, err)
	b, err := m.Start(context.Background(), "panel2", "bob", "c1")
	require.NoError(t, err)
	assert.Equal(t, 2, m.Active())

	say(t, m, "c1", "alice", "Alice panel")
	require.Eventually(t, func() bool { return a.Step() == StepEmbedText }, time.Second, time.Millisecond)
	assert.Equal(t, StepName, b.Step())
	m.Close()
}

func TestWizardUnknownPanel(t *testing.T) {
	m, _, _ := newTestManager(testPolicy())
	_, err := m.Start(context.Background(), "panel9", "admin", "c1")
	assert.ErrorIs(t, err, panels.ErrUnknownPanel)
}

func TestStripCommand(t *testing.T) {
	assert.Equal(t, "Support", stripCommand("set-panel-name Support", "set-panel-name"))
	assert.Equal(t, "Support", stripCommand("  Support ", "set-panel-name"))
	assert.Equal(t, "", stripCommand("set-panel-name", "set-panel-name"))
}
