package utils

import "strings"

// 组件 CustomID 前缀。按钮把完整的分发信息编码进 CustomID，重启后依然可用
const (
	TicketOpenPrefix    = "ticket_open"
	TicketClosePrefix   = "ticket_close"
	CloseYesPrefix      = "ticket_close_yes"
	CloseNoPrefix       = "ticket_close_no"
	WizardConfirmPrefix = "wizard_confirm"
	WizardRestartPrefix = "wizard_restart"
)

const customIDSep = ":"

// BuildCustomID joins a prefix and its context parts.
func BuildCustomID(prefix string, parts ...string) string {
	return strings.Join(append([]string{prefix}, parts...), customIDSep)
}

// ParseCustomID splits an ID built by BuildCustomID.
func ParseCustomID(customID string) (prefix string, parts []string) {
	fields := strings.Split(customID, customIDSep)
	return fields[0], fields[1:]
}

func TicketOpenID(panelKey string) string {
	return BuildCustomID(TicketOpenPrefix, panelKey)
}

func TicketCloseID() string {
	return TicketClosePrefix
}

func CloseConfirmIDs(channelID, nonce string) (yes, no string) {
	return BuildCustomID(CloseYesPrefix, channelID, nonce), BuildCustomID(CloseNoPrefix, channelID, nonce)
}

// WizardControlID builds the ID for a wizard confirm-step button. control is
// "yes", "no" or "restart".
func WizardControlID(control, ownerID, channelID string) string {
	if control == "restart" {
		return BuildCustomID(WizardRestartPrefix, ownerID, channelID)
	}
	return BuildCustomID(WizardConfirmPrefix, control, ownerID, channelID)
}
