package engine

import (
	"errors"
)

var ErrSlotOutOfRange = errors.New("slot out of range")
var ErrSlotOccupied = errors.New("slot already filled")
var ErrInertTile = errors.New("tile has no letter")
var ErrUnknownTile = errors.New("unknown tile")
var ErrUnknownChoice = errors.New("word is not one of the cards")
var ErrNoRound = errors.New("no round in progress")
var ErrUnsupportedCommand = errors.New("unsupported command")

type CommandType string

const (
	CmdNewRound     CommandType = "NewRound"
	CmdChooseCard   CommandType = "ChooseCard"
	CmdClearSlot    CommandType = "ClearSlot"
	CmdPlaceTile    CommandType = "PlaceTile"
	CmdSpeakWord    CommandType = "SpeakWord"
	CmdSetTileAudio CommandType = "SetTileAudio"
)

/*
	CmdNewRound     -> PreviewReset, round redealt
	CmdChooseCard   -> Speak? -> Feedback -> RevealWord (next round scheduled when correct)
	CmdClearSlot    -> slot cleared -> PreviewReset when the board stops being complete
	CmdPlaceTile    -> Feedback -> (RevealWord, CompletionShown, Celebrate) on completion
	CmdSpeakWord    -> Speak
	CmdSetTileAudio -> no cue
*/

type Command struct {
	Type    CommandType
	Word    string
	Slot    int
	TileID  int
	Enabled bool
}

// Apply runs a discrete (non-drag) command against the board.
func (b *Board) Apply(cmd Command) error {
	switch cmd.Type {
	case CmdNewRound:
		b.NewRound()
		return nil

	case CmdChooseCard:
		_, err := b.ChooseCard(cmd.Word)
		return err

	case CmdClearSlot:
		return b.Clear(cmd.Slot)

	case CmdPlaceTile:
		tile, ok := b.pool.Tile(cmd.TileID)
		if !ok {
			return ErrUnknownTile
		}
		if tile.Inert() {
			return ErrInertTile
		}
		return b.Fill(cmd.Slot, tile.Letter)

	case CmdSpeakWord:
		b.SpeakWord()
		return nil

	case CmdSetTileAudio:
		b.SetTileAudio(cmd.Enabled)
		return nil

	default:
		return ErrUnsupportedCommand
	}
}
