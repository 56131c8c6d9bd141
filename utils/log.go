package utils

import (
	"log"
	"time"

	"github.com/bwmarrin/discordgo"
)

type LogLevel string

const (
	Info  LogLevel = "INFO"
	Warn  LogLevel = "WARN"
	Error LogLevel = "ERROR"
)

// MessageSender is the part of the platform adapter the channel logger needs.
type MessageSender interface {
	SendMessage(channelID string, msg *discordgo.MessageSend) (*discordgo.Message, error)
}

func getColor(level LogLevel) int {
	switch level {
	case Info:
		return 3066993 // Green
	case Warn:
		return 15105570 // Orange
	case Error:
		return 15158332 // Red
	default:
		return 3447003 // Blue
	}
}

// LogEmbed builds the embed posted to the log channel.
func LogEmbed(level LogLevel, module, operation, extraInfo string) *discordgo.MessageEmbed {
	if extraInfo == "" {
		extraInfo = "-"
	}
	return &discordgo.MessageEmbed{
		Title: string(level) + " Log",
		Color: getColor(level),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Module", Value: module, Inline: true},
			{Name: "Operation", Value: operation, Inline: true},
			{Name: "Details", Value: extraInfo},
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

func sendLog(sender MessageSender, channelID string, level LogLevel, module, operation, extraInfo string) error {
	if sender == nil || channelID == "" {
		return nil
	}
	_, err := sender.SendMessage(channelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{LogEmbed(level, module, operation, extraInfo)},
	})
	if err != nil {
		log.Printf("[Log] Failed to send %s log to channel %s: %v", level, channelID, err)
	}
	return err
}

func LogInfo(sender MessageSender, channelID, module, operation, extraInfo string) error {
	return sendLog(sender, channelID, Info, module, operation, extraInfo)
}

func LogWarn(sender MessageSender, channelID, module, operation, extraInfo string) error {
	return sendLog(sender, channelID, Warn, module, operation, extraInfo)
}

func LogError(sender MessageSender, channelID, module, operation, extraInfo string) error {
	return sendLog(sender, channelID, Error, module, operation, extraInfo)
}
