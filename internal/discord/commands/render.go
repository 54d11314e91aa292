package commands

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/wrsmith108/bingo-demo/internal/detect"
	"github.com/wrsmith108/bingo-demo/internal/game"
	"github.com/wrsmith108/bingo-demo/internal/session"
)

// renderCard formats a card as Discord markdown: one line of square markers
// per row followed by the row's open words, so the grid stays readable on
// mobile where a 5-column word table would not.
func renderCard(snap session.Snapshot) string {
	if snap.Card == nil {
		return "No card."
	}

	var b strings.Builder
	for row := 0; row < game.Size; row++ {
		for col := 0; col < game.Size; col++ {
			sq := snap.Card.Squares[row][col]
			switch {
			case sq.FreeSpace:
				b.WriteString("⭐")
			case sq.Filled:
				b.WriteString("🟩")
			default:
				b.WriteString("⬜")
			}
		}
		var open []string
		for col := 0; col < game.Size; col++ {
			sq := snap.Card.Squares[row][col]
			if !sq.FreeSpace && !sq.Filled {
				open = append(open, sq.Word)
			}
		}
		if len(open) > 0 {
			b.WriteString("  ")
			b.WriteString(strings.Join(open, " · "))
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "%d/25 squares", snap.FilledCount)
	if snap.Status == session.StatusWon {
		b.WriteString(" — **BINGO!**")
	}
	return b.String()
}

// findSquare returns the non-free square holding word. Exact (case-folded)
// matches win; failing that, typos and mishearings are resolved phonetically
// against the card's open vocabulary, so "synergee" still marks "synergy".
// Returns nil when nothing on the card comes close.
func findSquare(snap session.Snapshot, word string) *game.Square {
	if snap.Card == nil {
		return nil
	}
	var words []string
	for row := 0; row < game.Size; row++ {
		for col := 0; col < game.Size; col++ {
			sq := &snap.Card.Squares[row][col]
			if sq.FreeSpace {
				continue
			}
			if strings.EqualFold(sq.Word, word) {
				return sq
			}
			words = append(words, sq.Word)
		}
	}

	corrected, _, ok := detect.Closest(word, words)
	if !ok {
		return nil
	}
	for row := 0; row < game.Size; row++ {
		for col := 0; col < game.Size; col++ {
			sq := &snap.Card.Squares[row][col]
			if !sq.FreeSpace && sq.Word == corrected {
				return sq
			}
		}
	}
	return nil
}

// subcommandOption returns the string value of a subcommand option, or ""
// when absent.
func subcommandOption(i *discordgo.InteractionCreate, name string) string {
	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		return ""
	}
	for _, opt := range data.Options[0].Options {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionString {
			return opt.StringValue()
		}
	}
	return ""
}

// interactionUserID extracts the invoking user's ID from guild or DM
// interactions.
func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

// respondChoices sends an autocomplete result, logging failures.
func respondChoices(s *discordgo.Session, i *discordgo.InteractionCreate, choices []*discordgo.ApplicationCommandOptionChoice) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{Choices: choices},
	})
	if err != nil {
		slog.Warn("discord: autocomplete response failed", "err", err)
	}
}
