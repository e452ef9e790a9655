// Package influx writes replay statistics to InfluxDB as time series.
package influx

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"github.com/rs/zerolog"

	"github.com/vaultcoh/vault/internal/config"
	"github.com/vaultcoh/vault/pkg/core"
)

const (
	MeasurementReplay   = "replay"
	MeasurementCommands = "commands"

	retentionSeconds = 60 * 60 * 24 * 90
)

// ErrDisabled is returned by Init when influx.enabled is false.
var ErrDisabled = errors.New("influx storage is disabled")

// Backend writes one replay point and per-minute command counts for every
// replay. When the server cannot be reached at Init, points go to a
// gzipped line protocol backup file instead.
type Backend struct {
	cfg    config.InfluxConfig
	log    zerolog.Logger
	client influxdb2.Client
	writer influxdb2_api.WriteAPI

	mu     sync.Mutex
	backup *gzip.Writer
	file   *os.File

	now func() time.Time
}

func New(cfg config.InfluxConfig, log zerolog.Logger) *Backend {
	return &Backend{cfg: cfg, log: log, now: time.Now}
}

func (b *Backend) serverURL() string {
	return fmt.Sprintf("%s://%s:%s", b.cfg.Protocol, b.cfg.Host, b.cfg.Port)
}

// Init connects and prepares the bucket, falling back to the backup file
// when the ping fails.
func (b *Backend) Init() error {
	if !b.cfg.Enabled {
		return ErrDisabled
	}

	b.client = influxdb2.NewClientWithOptions(
		b.serverURL(),
		b.cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(2500).
			SetFlushInterval(1000),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	running, err := b.client.Ping(ctx)
	if err != nil || !running {
		b.log.Warn().Err(err).Str("backupPath", b.cfg.BackupPath).
			Msg("InfluxDB unreachable, writing to backup file")
		return b.openBackup()
	}

	if err := b.ensureBucket(context.Background()); err != nil {
		return err
	}
	b.writer = b.client.WriteAPI(b.cfg.Org, b.cfg.Bucket)
	go func(errorsCh <-chan error) {
		for writeErr := range errorsCh {
			b.log.Error().Err(writeErr).Str("bucket", b.cfg.Bucket).Msg("Error sending data to InfluxDB")
		}
	}(b.writer.Errors())

	b.log.Info().Str("url", b.serverURL()).Str("bucket", b.cfg.Bucket).Msg("InfluxDB client initialized")
	return nil
}

func (b *Backend) openBackup() error {
	if b.cfg.BackupPath == "" {
		return errors.New("influx unreachable and no backup path configured")
	}
	file, err := os.OpenFile(b.cfg.BackupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("error creating backup file: %w", err)
	}
	b.file = file
	b.backup = gzip.NewWriter(file)
	return nil
}

// ensureBucket creates the organization and bucket when missing.
func (b *Backend) ensureBucket(ctx context.Context) error {
	orgs := b.client.OrganizationsAPI()
	org, err := orgs.FindOrganizationByName(ctx, b.cfg.Org)
	if err != nil {
		b.log.Info().Str("org", b.cfg.Org).Msg("Organization not found, creating")
		if org, err = orgs.CreateOrganizationWithName(ctx, b.cfg.Org); err != nil {
			return fmt.Errorf("creating organization %s: %w", b.cfg.Org, err)
		}
	}

	buckets := b.client.BucketsAPI()
	if _, err := buckets.FindBucketByName(ctx, b.cfg.Bucket); err != nil {
		b.log.Info().Str("bucket", b.cfg.Bucket).Msg("Bucket not found, creating")
		rule := domain.RetentionRuleTypeExpire
		_, err = buckets.CreateBucketWithName(ctx, org, b.cfg.Bucket, domain.RetentionRule{
			Type:         &rule,
			EverySeconds: retentionSeconds,
		})
		if err != nil {
			return fmt.Errorf("creating bucket %s: %w", b.cfg.Bucket, err)
		}
	}
	return nil
}

// StoreReplay writes the points for r. The match is placed so that it
// ends at the time of the call.
func (b *Backend) StoreReplay(ctx context.Context, hash, filename string, r *core.Replay) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := b.now().Add(-r.Duration())
	for _, p := range BuildPoints(hash, filename, r, start) {
		if err := b.writePoint(p); err != nil {
			return err
		}
	}
	return nil
}

func (b *Backend) writePoint(point *influxdb2_write.Point) error {
	if b.writer != nil {
		b.writer.WritePoint(point)
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.backup == nil {
		return errors.New("influx client not initialized and backup writer not available")
	}
	line := influxdb2_write.PointToLineProtocol(point, time.Nanosecond)
	if _, err := b.backup.Write([]byte(line + "\n")); err != nil {
		return fmt.Errorf("error writing to InfluxDB backup file: %w", err)
	}
	return nil
}

// Close flushes pending points and releases the client or backup file.
func (b *Backend) Close() error {
	if b.writer != nil {
		b.writer.Flush()
	}
	if b.client != nil {
		b.client.Close()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.backup == nil {
		return nil
	}
	err := errors.Join(b.backup.Close(), b.file.Close())
	b.backup, b.file = nil, nil
	return err
}

// BuildPoints turns r into one replay point at start and one commands point
// per player, command kind and match minute that saw at least one command.
func BuildPoints(hash, filename string, r *core.Replay, start time.Time) []*influxdb2_write.Point {
	var commandTotal int
	for _, p := range r.Players {
		commandTotal += len(p.Commands)
	}

	points := []*influxdb2_write.Point{
		influxdb2.NewPoint(MeasurementReplay,
			map[string]string{
				"hash":     hash,
				"map":      r.Map.Filename,
				"opponent": r.OpponentType.String(),
			},
			map[string]any{
				"filename":         filename,
				"version":          int64(r.Version),
				"length_ticks":     int64(r.Length),
				"duration_seconds": r.Duration().Seconds(),
				"players":          len(r.Players),
				"commands":         commandTotal,
				"messages":         len(r.Messages),
			},
			start),
	}

	type key struct {
		kind   core.CommandKind
		minute int64
	}
	for _, p := range r.Players {
		counts := make(map[key]int)
		for _, c := range p.Commands {
			at := time.Duration(c.TickIndex()) * core.TickDuration
			counts[key{c.Kind(), int64(at / time.Minute)}]++
		}
		keys := make([]key, 0, len(counts))
		for k := range counts {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			if keys[i].minute != keys[j].minute {
				return keys[i].minute < keys[j].minute
			}
			return keys[i].kind < keys[j].kind
		})
		for _, k := range keys {
			points = append(points, influxdb2.NewPoint(MeasurementCommands,
				map[string]string{
					"hash":    hash,
					"player":  p.Name,
					"faction": string(p.Faction),
					"kind":    string(k.kind),
				},
				map[string]any{"count": counts[k]},
				start.Add(time.Duration(k.minute)*time.Minute)))
		}
	}
	return points
}
