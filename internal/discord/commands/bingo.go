// Package commands implements the Discord slash command handlers for the
// bingo daemon.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/wrsmith108/bingo-demo/internal/category"
	"github.com/wrsmith108/bingo-demo/internal/discord"
	"github.com/wrsmith108/bingo-demo/internal/game"
	"github.com/wrsmith108/bingo-demo/internal/session"
	"github.com/wrsmith108/bingo-demo/internal/transcript"
)

// BingoCommands holds the dependencies for the /bingo command group.
type BingoCommands struct {
	bot             *discord.Bot
	ctl             *session.Controller
	categories      *category.Registry
	listener        *transcript.Listener
	voice           *discord.VoiceReceiver
	publicURL       string
	defaultCategory string
}

// NewBingoCommands creates a BingoCommands and registers its handlers with
// the bot's router. listener and voice may be nil when speech capture is not
// configured; /bingo listen then reports it as unavailable.
func NewBingoCommands(bot *discord.Bot, ctl *session.Controller, categories *category.Registry,
	listener *transcript.Listener, voice *discord.VoiceReceiver, publicURL, defaultCategory string) *BingoCommands {
	bc := &BingoCommands{
		bot:             bot,
		ctl:             ctl,
		categories:      categories,
		listener:        listener,
		voice:           voice,
		publicURL:       publicURL,
		defaultCategory: defaultCategory,
	}
	bc.Register(bot.Router())
	return bc
}

// Register registers the /bingo command group with the router.
func (bc *BingoCommands) Register(router *discord.CommandRouter) {
	def := bc.Definition()
	router.RegisterCommand("bingo", def, func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		discord.RespondEphemeral(s, i, "Please use a subcommand, e.g. `/bingo start` or `/bingo card`.")
	})
	router.RegisterHandler("bingo/start", bc.handleStart)
	router.RegisterHandler("bingo/card", bc.handleCard)
	router.RegisterHandler("bingo/mark", bc.handleMark)
	router.RegisterHandler("bingo/hint", bc.handleHint)
	router.RegisterHandler("bingo/share", bc.handleShare)
	router.RegisterHandler("bingo/reset", bc.handleReset)
	router.RegisterHandler("bingo/listen", bc.handleListen)
	router.RegisterHandler("bingo/mute", bc.handleMute)
	router.RegisterAutocomplete("bingo/start", bc.autocompleteCategory)
	router.RegisterAutocomplete("bingo/mark", bc.autocompleteWord)
}

// Definition returns the ApplicationCommand definition for Discord.
func (bc *BingoCommands) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "bingo",
		Description: "Buzzword bingo for this meeting",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "start",
				Description: "Start a new bingo card",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:         discordgo.ApplicationCommandOptionString,
						Name:         "category",
						Description:  "Word category for the card",
						Autocomplete: true,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "card",
				Description: "Show the current card",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "mark",
				Description: "Mark a word you heard",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:         discordgo.ApplicationCommandOptionString,
						Name:         "word",
						Description:  "The word to mark",
						Required:     true,
						Autocomplete: true,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "hint",
				Description: "How close is the nearest line?",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "share",
				Description: "Post the current result to the channel",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "reset",
				Description: "Abandon the current card",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "listen",
				Description: "Join your voice channel and mark words automatically",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "mute",
				Description: "Stop listening to the voice channel",
			},
		},
	}
}

// handleStart handles /bingo start.
func (bc *BingoCommands) handleStart(s *discordgo.Session, i *discordgo.InteractionCreate) {
	catID := subcommandOption(i, "category")
	if catID == "" {
		catID = bc.defaultCategory
	}
	if catID == "" {
		discord.RespondEphemeral(s, i, "Pick a category: `/bingo start category:<name>`.")
		return
	}

	snap, err := bc.ctl.Start(catID)
	if err != nil {
		discord.RespondError(s, i, err)
		return
	}
	discord.RespondEphemeral(s, i, fmt.Sprintf("New card for **%s**:\n%s", snap.CategoryName, renderCard(snap)))
}

// handleCard handles /bingo card.
func (bc *BingoCommands) handleCard(s *discordgo.Session, i *discordgo.InteractionCreate) {
	snap := bc.ctl.Snapshot()
	if snap.Status == session.StatusIdle {
		discord.RespondEphemeral(s, i, "No card in play. Start one with `/bingo start`.")
		return
	}
	discord.RespondEphemeral(s, i, renderCard(snap))
}

// handleMark handles /bingo mark.
func (bc *BingoCommands) handleMark(s *discordgo.Session, i *discordgo.InteractionCreate) {
	snap := bc.ctl.Snapshot()
	if snap.Status == session.StatusIdle {
		discord.RespondEphemeral(s, i, "No card in play. Start one with `/bingo start`.")
		return
	}

	word := subcommandOption(i, "word")
	sq := findSquare(snap, word)
	if sq == nil {
		discord.RespondEphemeral(s, i, fmt.Sprintf("%q is not on the card.", word))
		return
	}

	after := bc.ctl.FillManual(sq.ID)
	if after.Status == session.StatusWon && snap.Status != session.StatusWon {
		discord.RespondPublic(s, i, after.ShareText(bc.publicURL))
		return
	}
	discord.RespondEphemeral(s, i, renderCard(after))
}

// handleHint handles /bingo hint.
func (bc *BingoCommands) handleHint(s *discordgo.Session, i *discordgo.InteractionCreate) {
	snap := bc.ctl.Snapshot()
	if snap.Status != session.StatusPlaying {
		discord.RespondEphemeral(s, i, "No card in play.")
		return
	}
	hint := snap.Hint()
	if hint == nil {
		discord.RespondEphemeral(s, i, "No hint available.")
		return
	}
	plural := "s"
	if hint.Needed == 1 {
		plural = ""
	}
	discord.RespondEphemeral(s, i, fmt.Sprintf("**%d** more square%s for %s.", hint.Needed, plural, hint.Line))
}

// handleShare handles /bingo share.
func (bc *BingoCommands) handleShare(s *discordgo.Session, i *discordgo.InteractionCreate) {
	snap := bc.ctl.Snapshot()
	if snap.Status == session.StatusIdle {
		discord.RespondEphemeral(s, i, "Nothing to share yet.")
		return
	}
	discord.RespondPublic(s, i, snap.ShareText(bc.publicURL))
}

// handleReset handles /bingo reset.
func (bc *BingoCommands) handleReset(s *discordgo.Session, i *discordgo.InteractionCreate) {
	bc.stopCapture()
	bc.ctl.Reset()
	discord.RespondEphemeral(s, i, "Card abandoned.")
}

// handleListen handles /bingo listen: join the caller's voice channel and
// start speech capture.
func (bc *BingoCommands) handleListen(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if bc.listener == nil || bc.voice == nil {
		discord.RespondEphemeral(s, i, "Speech capture is not configured.")
		return
	}
	if bc.ctl.Snapshot().Status != session.StatusPlaying {
		discord.RespondEphemeral(s, i, "Start a card first with `/bingo start`.")
		return
	}

	userID := interactionUserID(i)
	vs, err := s.State.VoiceState(bc.bot.GuildID(), userID)
	if err != nil || vs == nil || vs.ChannelID == "" {
		discord.RespondEphemeral(s, i, "Join a voice channel first.")
		return
	}

	discord.DeferReply(s, i)

	if err := bc.listener.Start(context.Background()); err != nil {
		discord.FollowUp(s, i, fmt.Sprintf("Failed to start listening: %v", err))
		return
	}
	if err := bc.voice.Join(vs.ChannelID); err != nil {
		bc.listener.Stop()
		discord.FollowUp(s, i, fmt.Sprintf("Failed to join voice channel: %v", err))
		return
	}
	discord.FollowUp(s, i, fmt.Sprintf("Listening in <#%s>. I'll mark words as they come up.", vs.ChannelID))
}

// handleMute handles /bingo mute.
func (bc *BingoCommands) handleMute(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if bc.listener == nil || bc.voice == nil {
		discord.RespondEphemeral(s, i, "Speech capture is not configured.")
		return
	}
	bc.stopCapture()
	discord.RespondEphemeral(s, i, "Stopped listening.")
}

// stopCapture tears down voice receive and the speech session, in that
// order so no audio lands on a closed session.
func (bc *BingoCommands) stopCapture() {
	if bc.voice != nil {
		if err := bc.voice.Leave(); err != nil {
			slog.Warn("discord: leave voice channel", "err", err)
		}
	}
	if bc.listener != nil {
		bc.listener.Stop()
	}
}

// autocompleteCategory suggests category IDs for /bingo start.
func (bc *BingoCommands) autocompleteCategory(s *discordgo.Session, i *discordgo.InteractionCreate) {
	typed := strings.ToLower(subcommandOption(i, "category"))
	var choices []*discordgo.ApplicationCommandOptionChoice
	for _, c := range bc.categories.All() {
		if typed != "" && !strings.Contains(strings.ToLower(c.ID), typed) && !strings.Contains(strings.ToLower(c.Name), typed) {
			continue
		}
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: c.Name, Value: c.ID})
		if len(choices) == 25 { // Discord's choice cap
			break
		}
	}
	respondChoices(s, i, choices)
}

// autocompleteWord suggests unfilled card words for /bingo mark.
func (bc *BingoCommands) autocompleteWord(s *discordgo.Session, i *discordgo.InteractionCreate) {
	snap := bc.ctl.Snapshot()
	if snap.Card == nil {
		respondChoices(s, i, nil)
		return
	}
	typed := strings.ToLower(subcommandOption(i, "word"))
	var choices []*discordgo.ApplicationCommandOptionChoice
	for row := 0; row < game.Size; row++ {
		for col := 0; col < game.Size; col++ {
			sq := snap.Card.Squares[row][col]
			if sq.FreeSpace || sq.Filled {
				continue
			}
			if typed != "" && !strings.Contains(strings.ToLower(sq.Word), typed) {
				continue
			}
			choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: sq.Word, Value: sq.Word})
			if len(choices) == 25 {
				respondChoices(s, i, choices)
				return
			}
		}
	}
	respondChoices(s, i, choices)
}
