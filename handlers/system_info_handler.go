package handlers

import (
	"fmt"
	"log"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"ticket_guard/bot"
	"ticket_guard/utils"
	"ticket_guard/utils/database/actions"
)

func SystemInfoHandler(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	cpuCount, _ := cpu.Counts(true)
	cpuUsage := 0.0
	if cpuPercent, err := cpu.Percent(0, false); err == nil && len(cpuPercent) > 0 {
		cpuUsage = cpuPercent[0]
	}

	osVersion, kernel := "unknown", "unknown"
	if hostInfo, err := host.Info(); err == nil {
		osVersion = fmt.Sprintf("%s %s", hostInfo.Platform, hostInfo.PlatformVersion)
		kernel = hostInfo.KernelVersion
	}

	memory := "unknown"
	if vm, err := mem.VirtualMemory(); err == nil {
		memory = fmt.Sprintf("%.1f%% (%d MB / %d MB)", vm.UsedPercent, vm.Used/1024/1024, vm.Total/1024/1024)
	}

	dbSize, _ := utils.FileSize(b.GetConfig().ActionDBPath)

	recent := "unknown"
	if b.ActionDB != nil {
		counts, err := actions.GetActionCountsSince(b.ActionDB, i.GuildID, time.Now().Add(-24*time.Hour))
		if err != nil {
			log.Printf("[Moderation] Failed to count recent actions in guild %s: %v", i.GuildID, err)
		} else {
			recent = formatActionCounts(counts)
		}
	}

	guild, hasGuild := b.Guilds.Get(i.GuildID)
	wizards, pendingCloses, webhookStrikes := 0, 0, 0
	if hasGuild {
		wizards = guild.Wizard.Active()
		pendingCloses = guild.Tickets.Pending()
		webhookStrikes = guild.Webhooks.Count()
	}

	embed := &discordgo.MessageEmbed{
		Title: "系统信息",
		Color: 0x5865F2, // Discord Blurple
		Fields: []*discordgo.MessageEmbedField{
			{Name: "💻 OS 版本", Value: osVersion, Inline: true},
			{Name: "🔧 内核版本", Value: kernel, Inline: true},
			{Name: "🐹 Go 版本", Value: runtime.Version(), Inline: true},
			{Name: "🔼 CPU 数量", Value: fmt.Sprintf("%d", cpuCount), Inline: true},
			{Name: "🔥 CPU 使用率", Value: fmt.Sprintf("%.1f%%", cpuUsage), Inline: true},
			{Name: "🧠 系统内存", Value: memory, Inline: true},
			{Name: "🗃️ 处罚记录库", Value: fmt.Sprintf("%.1f KB", float64(dbSize)/1024), Inline: true},
			{Name: "⏱️ WebSocket 延迟", Value: s.HeartbeatLatency().String(), Inline: true},
			{Name: "🚀 Goroutines", Value: fmt.Sprintf("%d", runtime.NumGoroutine()), Inline: true},
			{Name: "🌍 服务器数", Value: fmt.Sprintf("%d", b.Guilds.Len()), Inline: true},
			{Name: "🧙 进行中的面板设置", Value: fmt.Sprintf("%d", wizards), Inline: true},
			{Name: "🔒 待确认关闭", Value: fmt.Sprintf("%d", pendingCloses), Inline: true},
			{Name: "🛡️ 24 小时处罚", Value: recent, Inline: true},
			{Name: "🪝 Webhook 警告", Value: fmt.Sprintf("%d / %d", webhookStrikes, b.GetConfig().Policy.WebhookStrikesBeforeKick), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("系统监控・今天%s", time.Now().Format("15:04")),
		},
	}

	utils.SendEmbedResponse(s, i, embed)
}

// formatActionCounts renders per-type counts as "kick 1, timeout 3".
func formatActionCounts(counts map[string]int) string {
	if len(counts) == 0 {
		return "0"
	}
	kinds := make([]string, 0, len(counts))
	for kind := range counts {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	parts := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		parts = append(parts, fmt.Sprintf("%s %d", kind, counts[kind]))
	}
	return strings.Join(parts, ", ")
}
