// Package mongo stores each replay as one document in MongoDB, keyed by
// content hash.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/vaultcoh/vault/internal/config"
	"github.com/vaultcoh/vault/pkg/core"
)

// Collection is where replay documents go.
const Collection = "replays"

const connectTimeout = 10 * time.Second

// Backend upserts replay documents.
type Backend struct {
	cfg    config.MongoConfig
	log    *slog.Logger
	client *mongo.Client
	coll   *mongo.Collection
}

func New(cfg config.MongoConfig, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Backend{cfg: cfg, log: logger}
}

// Init connects and pings the server.
func (b *Backend) Init() error {
	if b.cfg.URI == "" {
		return errors.New("mongo uri not set")
	}
	client, err := mongo.Connect(options.Client().ApplyURI(b.cfg.URI))
	if err != nil {
		return fmt.Errorf("connecting to mongo: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return fmt.Errorf("pinging mongo: %w", err)
	}
	b.client = client
	b.coll = client.Database(b.cfg.Database).Collection(Collection)
	b.log.Info("mongo storage ready", "database", b.cfg.Database, "collection", Collection)
	return nil
}

func (b *Backend) Close() error {
	if b.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return b.client.Disconnect(ctx)
}

// StoreReplay replaces the document with _id = hash, inserting it if absent.
func (b *Backend) StoreReplay(ctx context.Context, hash, filename string, r *core.Replay) error {
	if b.coll == nil {
		return errors.New("mongo backend not initialized")
	}
	doc := NewReplayDocument(hash, filename, r)
	res, err := b.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: hash}}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upserting replay %s: %w", hash, err)
	}
	b.log.Debug("replay document written", "hash", hash, "matched", res.MatchedCount, "upserted", res.UpsertedCount)
	return nil
}

// ReplayDocument is the stored shape of a replay.
type ReplayDocument struct {
	Hash            string            `bson:"_id"`
	Filename        string            `bson:"filename"`
	Version         uint16            `bson:"version"`
	Timestamp       string            `bson:"timestamp"`
	MatchHistoryID  int64             `bson:"matchHistoryId"`
	OpponentType    string            `bson:"opponentType"`
	Map             MapDocument       `bson:"map"`
	LengthTicks     uint32            `bson:"lengthTicks"`
	DurationSeconds float64           `bson:"durationSeconds"`
	Options         bson.M            `bson:"options"`
	Players         []PlayerDocument  `bson:"players"`
	Messages        []MessageDocument `bson:"messages"`
	StoredAt        time.Time         `bson:"storedAt"`
}

type MapDocument struct {
	Filename      string `bson:"filename"`
	NameID        string `bson:"nameId"`
	DescriptionID string `bson:"descriptionId"`
}

type PlayerDocument struct {
	ID          uint32               `bson:"id"`
	Name        string               `bson:"name"`
	Human       bool                 `bson:"human"`
	Faction     string               `bson:"faction"`
	Team        string               `bson:"team"`
	SteamID     string               `bson:"steamId,omitempty"`
	ProfileID   int64                `bson:"profileId,omitempty"`
	Battlegroup *uint32              `bson:"battlegroup,omitempty"`
	AIType      string               `bson:"aiType,omitempty"`
	Commands    []core.CommandFields `bson:"commands"`
}

type MessageDocument struct {
	Tick   uint32 `bson:"tick"`
	Sender string `bson:"sender"`
	Text   string `bson:"text"`
}

// NewReplayDocument builds the document for r. Unsigned 64-bit ids are
// stored as int64 since BSON has no unsigned 64-bit type.
func NewReplayDocument(hash, filename string, r *core.Replay) ReplayDocument {
	doc := ReplayDocument{
		Hash:            hash,
		Filename:        filename,
		Version:         r.Version,
		Timestamp:       r.Timestamp,
		MatchHistoryID:  int64(r.MatchHistoryID),
		OpponentType:    r.OpponentType.String(),
		LengthTicks:     r.Length,
		DurationSeconds: r.Duration().Seconds(),
		Map: MapDocument{
			Filename:      r.Map.Filename,
			NameID:        r.Map.LocalizedNameID,
			DescriptionID: r.Map.LocalizedDescriptionID,
		},
		Options:  bson.M{},
		Players:  make([]PlayerDocument, 0, len(r.Players)),
		Messages: make([]MessageDocument, 0, len(r.Messages)),
		StoredAt: time.Now().UTC(),
	}
	for _, o := range r.Options {
		doc.Options[o.Name] = int64(o.Value)
	}
	for _, p := range r.Players {
		pd := PlayerDocument{
			ID:          p.ID,
			Name:        p.Name,
			Human:       p.Human,
			Faction:     string(p.Faction),
			Team:        p.Team.String(),
			SteamID:     p.SteamID,
			ProfileID:   int64(p.ProfileID),
			Battlegroup: p.Battlegroup,
			AIType:      p.AIType,
			Commands:    make([]core.CommandFields, 0, len(p.Commands)),
		}
		for _, c := range p.Commands {
			pd.Commands = append(pd.Commands, core.FieldsOf(c))
		}
		doc.Players = append(doc.Players, pd)
	}
	for _, m := range r.Messages {
		doc.Messages = append(doc.Messages, MessageDocument{Tick: m.Tick, Sender: m.Sender, Text: m.Text})
	}
	return doc
}
