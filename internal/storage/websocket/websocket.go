// Package websocket streams decoded replays to a remote server.
package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vaultcoh/vault/internal/config"
	"github.com/vaultcoh/vault/pkg/core"
	"github.com/vaultcoh/vault/pkg/streaming"
)

const (
	defaultAckTimeout = 10 * time.Second
	// commandBatchSize caps the commands carried by one commands message.
	commandBatchSize = 500
)

// Backend streams each replay as replay_start, player and commands
// messages, chat messages, then replay_end. The start and end messages
// are acknowledged by the server. It is not Uploadable.
type Backend struct {
	cfg  config.WebSocketConfig
	conn *connection
	// one stream at a time
	streamMu   sync.Mutex
	ackTimeout time.Duration
}

func New(cfg config.WebSocketConfig, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		cfg:        cfg,
		conn:       newConnection(logger.With("backend", "websocket")),
		ackTimeout: defaultAckTimeout,
	}
}

// Init connects to the server.
func (b *Backend) Init() error {
	return b.conn.dial(b.cfg.URL, b.cfg.Secret)
}

// Close disconnects from the server.
func (b *Backend) Close() error {
	return b.conn.close()
}

func marshalEnvelope(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	data, err := json.Marshal(streaming.Envelope{Type: msgType, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}

func (b *Backend) sendEnvelope(ctx context.Context, msgType string, payload any) error {
	data, err := marshalEnvelope(msgType, payload)
	if err != nil {
		return err
	}
	return b.conn.send(ctx, data)
}

// StoreReplay streams r and returns once the server acknowledged its end.
func (b *Backend) StoreReplay(ctx context.Context, hash, filename string, r *core.Replay) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.streamMu.Lock()
	defer b.streamMu.Unlock()

	start, err := marshalEnvelope(streaming.TypeReplayStart, streaming.NewReplayStart(hash, filename, r))
	if err != nil {
		return err
	}
	b.conn.setOpenStream(start)
	defer b.conn.setOpenStream(nil)

	if err := b.conn.sendAndWait(ctx, start, streaming.TypeReplayStart, b.ackTimeout); err != nil {
		return fmt.Errorf("starting stream %s: %w", hash, err)
	}

	var commands int
	for _, p := range r.Players {
		if err := b.sendEnvelope(ctx, streaming.TypePlayer, streaming.NewPlayer(p)); err != nil {
			return err
		}
		for batch := range commandBatches(p) {
			if err := b.sendEnvelope(ctx, streaming.TypeCommands, batch); err != nil {
				return err
			}
			commands += len(batch.Commands)
		}
	}
	for _, m := range r.Messages {
		msg := streaming.MessagePayload{Tick: m.Tick, Sender: m.Sender, Text: m.Text}
		if err := b.sendEnvelope(ctx, streaming.TypeMessage, msg); err != nil {
			return err
		}
	}

	end, err := marshalEnvelope(streaming.TypeReplayEnd, streaming.ReplayEndPayload{
		Hash:     hash,
		Players:  len(r.Players),
		Commands: commands,
		Messages: len(r.Messages),
	})
	if err != nil {
		return err
	}
	if err := b.conn.sendAndWait(ctx, end, streaming.TypeReplayEnd, b.ackTimeout); err != nil {
		return fmt.Errorf("ending stream %s: %w", hash, err)
	}
	return nil
}

// commandBatches splits a player's commands into messages of at most
// commandBatchSize. A player without commands yields nothing.
func commandBatches(p core.Player) func(yield func(streaming.CommandsPayload) bool) {
	return func(yield func(streaming.CommandsPayload) bool) {
		for i := 0; i < len(p.Commands); i += commandBatchSize {
			chunk := p.Commands[i:min(i+commandBatchSize, len(p.Commands))]
			batch := streaming.CommandsPayload{PlayerID: p.ID, Commands: make([]core.CommandFields, 0, len(chunk))}
			for _, c := range chunk {
				batch.Commands = append(batch.Commands, core.FieldsOf(c))
			}
			if !yield(batch) {
				return
			}
		}
	}
}
