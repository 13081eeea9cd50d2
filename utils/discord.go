package utils

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

type DiscordResponse interface {
	Respond() error
	Defer() error
	Update() error
	Edit() (*discordgo.Message, error)
	SetTitle(string) DiscordResponse
	SetTitlef(string, ...interface{}) DiscordResponse
	SetInfo(string) DiscordResponse
	SetWarning(string) DiscordResponse
	SetSuccess(string) DiscordResponse
	SetError(error) DiscordResponse
	SetDescription(string) DiscordResponse
	SetFooter(string) DiscordResponse
	AddField(name, value string, inline bool) DiscordResponse
	AddButton(label, customID string, disabled bool) DiscordResponse
}

type discordResponse struct {
	embed   *discordgo.MessageEmbed
	buttons []discordgo.MessageComponent
	s       *discordgo.Session
	i       *discordgo.InteractionCreate
}

func NewDiscordResponse(s *discordgo.Session, i *discordgo.InteractionCreate) DiscordResponse {
	return &discordResponse{
		s:     s,
		i:     i,
		embed: &discordgo.MessageEmbed{},
	}
}

func (dr *discordResponse) SetDescription(d string) DiscordResponse {
	dr.embed.Description = d

	return dr
}

func (dr *discordResponse) SetDescriptionf(d string, args ...interface{}) DiscordResponse {
	dr.embed.Description = fmt.Sprintf(d, args...)

	return dr
}

func (dr *discordResponse) SetTitle(t string) DiscordResponse {
	dr.embed.Title = t

	return dr
}

func (dr *discordResponse) SetTitlef(t string, args ...interface{}) DiscordResponse {
	dr.embed.Title = fmt.Sprintf(t, args...)

	return dr
}

func (dr *discordResponse) SetFooter(text string) DiscordResponse {
	dr.embed.Footer = &discordgo.MessageEmbedFooter{Text: text}

	return dr
}

func (dr *discordResponse) AddField(name, value string, inline bool) DiscordResponse {
	dr.embed.Fields = append(dr.embed.Fields, &discordgo.MessageEmbedField{
		Name:   name,
		Value:  value,
		Inline: inline,
	})

	return dr
}

func (dr *discordResponse) AddButton(label, customID string, disabled bool) DiscordResponse {
	dr.buttons = append(dr.buttons, discordgo.Button{
		Label:    label,
		Style:    discordgo.PrimaryButton,
		CustomID: customID,
		Disabled: disabled,
	})

	return dr
}

func (dr *discordResponse) SetInfo(desc string) DiscordResponse {
	dr.embed.Color = 0x0c5460
	dr.SetDescription(desc)

	return dr
}

func (dr *discordResponse) SetSuccess(desc string) DiscordResponse {
	dr.embed.Color = 0x155724
	dr.SetDescription(desc)

	return dr
}

func (dr *discordResponse) SetWarning(desc string) DiscordResponse {
	dr.embed.Color = 0x856404
	dr.SetDescription(desc)

	return dr
}

func (dr *discordResponse) SetError(err error) DiscordResponse {
	dr.embed.Color = 0x721c24
	dr.SetDescriptionf("```%s```", err.Error())

	return dr
}

func (dr *discordResponse) components() []discordgo.MessageComponent {
	if len(dr.buttons) == 0 {
		return []discordgo.MessageComponent{}
	}

	return []discordgo.MessageComponent{discordgo.ActionsRow{Components: dr.buttons}}
}

func (dr *discordResponse) Respond() error {
	return dr.s.InteractionRespond(dr.i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags:      discordgo.MessageFlagsEphemeral,
			Embeds:     []*discordgo.MessageEmbed{dr.embed},
			Components: dr.components(),
		},
	})
}

// Defer acknowledges the interaction so the reply can be sent later with Edit
func (dr *discordResponse) Defer() error {
	return dr.s.InteractionRespond(dr.i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
		},
	})
}

// Update replaces the message a component interaction came from
func (dr *discordResponse) Update() error {
	return dr.s.InteractionRespond(dr.i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{dr.embed},
			Components: dr.components(),
		},
	})
}

func (dr *discordResponse) Edit() (*discordgo.Message, error) {
	components := dr.components()
	return dr.s.InteractionResponseEdit(dr.i.Interaction, &discordgo.WebhookEdit{
		Embeds:     &[]*discordgo.MessageEmbed{dr.embed},
		Components: &components,
	})
}
