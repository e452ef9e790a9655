// Package vault decodes Company of Heroes 3 replay files.
//
//	data, _ := os.ReadFile("match.rec")
//	replay, err := vault.Decode(data)
package vault

import (
	"log/slog"

	"github.com/vaultcoh/vault/internal/model/convert"
	"github.com/vaultcoh/vault/internal/parser"
	"github.com/vaultcoh/vault/pkg/core"
)

// Error kinds. Use errors.Is on any error returned by this package.
var (
	// ErrNotReplay means the input is not a replay of a supported product.
	ErrNotReplay = parser.ErrNotReplay
	// ErrInsufficientBytes means the input ended early.
	ErrInsufficientBytes = parser.ErrInsufficientBytes
	// ErrFramingViolation means a record did not fill its declared length
	// exactly, usually a corrupt file or an unhandled revision.
	ErrFramingViolation = parser.ErrFramingViolation
	// ErrInvalidEncoding means a string was not valid text.
	ErrInvalidEncoding = parser.ErrInvalidEncoding
	// ErrUnexpectedDiscriminant means a known command carried the wrong
	// action byte.
	ErrUnexpectedDiscriminant = parser.ErrUnexpectedDiscriminant
)

// DecodeError locates a decode failure in the input.
type DecodeError = parser.DecodeError

// Data is the raw decode of a replay: header, chunk tree and ticks.
type Data = parser.Data

// Tick is one raw record of the event log.
type Tick = parser.Tick

// Decoder turns replay bytes into replays. It is safe for concurrent use.
type Decoder struct {
	parser *parser.Parser
}

// NewDecoder returns a decoder that logs to logger. A nil logger discards.
func NewDecoder(logger *slog.Logger) *Decoder {
	return &Decoder{parser: parser.NewParser(logger)}
}

// Decode decodes a whole replay file held in memory.
func (d *Decoder) Decode(b []byte) (*core.Replay, error) {
	data, err := d.parser.Parse(b)
	if err != nil {
		return nil, err
	}
	return convert.ReplayFromData(data), nil
}

// DecodeRaw decodes a replay without assembling the public model.
func (d *Decoder) DecodeRaw(b []byte) (*Data, error) {
	return d.parser.Parse(b)
}

var defaultDecoder = NewDecoder(nil)

// Decode decodes a replay with a decoder that does not log.
func Decode(b []byte) (*core.Replay, error) {
	return defaultDecoder.Decode(b)
}

// CommandsForPlayer derives one player's commands from an already decoded
// tick sequence, stamped with 1-based tick indices.
func CommandsForPlayer(ticks []Tick, playerID uint32) []core.Command {
	return convert.CommandsForPlayer(ticks, playerID)
}
