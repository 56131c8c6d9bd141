package handlers

import (
	"errors"
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"

	"ticket_guard/bot"
	"ticket_guard/panels"
	"ticket_guard/tickets"
	"ticket_guard/utils"
	"ticket_guard/wizard"
)

type componentKind int

const (
	componentUnknown componentKind = iota
	componentTicketOpen
	componentTicketClose
	componentCloseYes
	componentCloseNo
	componentWizard
)

// componentRoute is a decoded button CustomID.
type componentRoute struct {
	kind      componentKind
	panelKey  string
	channelID string
	nonce     string
	control   string
	ownerID   string
}

func routeComponent(customID string) (componentRoute, bool) {
	prefix, parts := utils.ParseCustomID(customID)
	switch prefix {
	case utils.TicketOpenPrefix:
		if len(parts) == 1 && parts[0] != "" {
			return componentRoute{kind: componentTicketOpen, panelKey: parts[0]}, true
		}
	case utils.TicketClosePrefix:
		if len(parts) == 0 {
			return componentRoute{kind: componentTicketClose}, true
		}
	case utils.CloseYesPrefix, utils.CloseNoPrefix:
		if len(parts) == 2 {
			kind := componentCloseYes
			if prefix == utils.CloseNoPrefix {
				kind = componentCloseNo
			}
			return componentRoute{kind: kind, channelID: parts[0], nonce: parts[1]}, true
		}
	case utils.WizardConfirmPrefix:
		if len(parts) == 3 && (parts[0] == wizard.ControlConfirm || parts[0] == wizard.ControlCancel) {
			return componentRoute{kind: componentWizard, control: parts[0], ownerID: parts[1], channelID: parts[2]}, true
		}
	case utils.WizardRestartPrefix:
		if len(parts) == 2 {
			return componentRoute{kind: componentWizard, control: wizard.ControlRestart, ownerID: parts[0], channelID: parts[1]}, true
		}
	}
	return componentRoute{}, false
}

func handleInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	if i.GuildID == "" {
		return
	}
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		if h, ok := b.CommandHandlers[i.ApplicationCommandData().Name]; ok {
			h(s, i)
		}
	case discordgo.InteractionMessageComponent:
		route, ok := routeComponent(i.MessageComponentData().CustomID)
		if !ok {
			return
		}
		handleComponent(s, i, b, route)
	}
}

func handleComponent(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot, route componentRoute) {
	svc := b.Guilds.Ensure(i.GuildID)
	userID := utils.InteractionUserID(i)

	switch route.kind {
	case componentTicketOpen:
		if !b.OpenCooldown.Allow(i.GuildID + ":" + userID) {
			utils.SendErrorResponse(s, i, "Please wait a few seconds before opening another ticket.")
			return
		}
		if err := utils.DeferResponse(s, i, true); err != nil {
			log.Printf("[Tickets] Failed to defer open interaction: %v", err)
			return
		}
		channelID, err := svc.Tickets.Open(route.panelKey, userID)
		switch {
		case errors.Is(err, panels.ErrPanelNotReady), errors.Is(err, panels.ErrUnknownPanel):
			utils.SendFollowUpError(s, i.Interaction, "This panel is not set up yet. Please contact a moderator.")
		case err != nil:
			utils.SendFollowUpError(s, i.Interaction, "Could not create your ticket, please try again later.")
		default:
			utils.SendFollowUp(s, i.Interaction, fmt.Sprintf("✅ Ticket created: <#%s>", channelID))
		}

	case componentTicketClose:
		prompt, err := svc.Tickets.RequestClose(i.ChannelID, userID)
		if err != nil {
			if errors.Is(err, tickets.ErrNotTicketChannel) {
				utils.SendErrorResponse(s, i, "This channel is not a ticket.")
			} else {
				log.Printf("[Tickets] Close request in %s failed: %v", i.ChannelID, err)
				utils.SendErrorResponse(s, i, "Could not start closing this ticket.")
			}
			return
		}
		utils.SendComponentResponse(s, i, prompt.Content, prompt.Components)

	case componentCloseYes:
		outcome, err := svc.Tickets.ConfirmClose(route.channelID, route.nonce, userID)
		if errors.Is(err, tickets.ErrNotRequester) {
			utils.SendErrorResponse(s, i, err.Error())
			return
		}
		if outcome == tickets.CloseExpired {
			utils.UpdateComponentMessage(s, i, "⌛ This confirmation has expired. Press the close button again.")
			return
		}
		utils.UpdateComponentMessage(s, i, "🔒 Ticket is being closed…")

	case componentCloseNo:
		svc.Tickets.DeclineClose(route.channelID, route.nonce)
		utils.UpdateComponentMessage(s, i, "Ticket stays open.")

	case componentWizard:
		err := svc.Wizard.HandleControl(route.ownerID, route.channelID, userID, route.control)
		switch {
		case errors.Is(err, wizard.ErrNotOwner):
			utils.SendErrorResponse(s, i, "Only the person running this setup can use these buttons.")
		case errors.Is(err, wizard.ErrNoSession):
			utils.UpdateComponentMessage(s, i, "⏰ This setup is no longer active.")
		default:
			utils.DeferComponentUpdate(s, i)
		}
	}
}
