package model

// PanelKeys 是每个服务器启动时预先创建的面板
var PanelKeys = []string{"panel1", "panel2", "panel3"}

// PanelFields 是向导可以编辑的面板字段
type PanelFields struct {
	DisplayName      string
	BodyText         string
	ModeratorRoleID  string
	TicketCategoryID string
}

// Panel 是一个工单入口的配置
type Panel struct {
	Key string
	PanelFields
	TicketCounter int
}

// Ready reports whether tickets can be opened against the panel.
func (p Panel) Ready() bool {
	return p.TicketCategoryID != ""
}
