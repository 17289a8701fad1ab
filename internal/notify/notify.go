// Package notify publishes build events to NATS and mirrors the latest build
// report into a JetStream KV bucket so dashboards can read current state
// without replaying the event stream.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/site"
)

// lastReportKey is the KV key holding the most recent build report.
const lastReportKey = "last-report"

// Publisher manages the NATS connection and build-event publishing.
type Publisher struct {
	conn     *nats.Conn
	js       jetstream.JetStream
	kv       jetstream.KeyValue
	site     string
	subject  string
	kvBucket string
}

// NewPublisher connects to NATS and prepares the report KV bucket.
func NewPublisher(cfg *config.Config) (*Publisher, error) {
	nc := cfg.Serve.NATS
	if !nc.Enabled {
		return nil, fmt.Errorf("nats publishing is disabled")
	}

	conn, err := nats.Connect(nc.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create jetstream context: %w", err)
	}

	p := &Publisher{
		conn:     conn,
		js:       js,
		site:     cfg.Site.Title,
		subject:  nc.Subject,
		kvBucket: nc.KVBucket,
	}

	if err := p.initKVBucket(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initialize kv bucket: %w", err)
	}

	slog.Info("NATS publisher initialized",
		"url", nc.URL, "subject", nc.Subject, "kv_bucket", nc.KVBucket)
	return p, nil
}

// initKVBucket gets or creates the bucket holding the latest report.
func (p *Publisher) initKVBucket() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	kv, err := p.js.KeyValue(ctx, p.kvBucket)
	if err == nil {
		p.kv = kv
		return nil
	}

	kv, err = p.js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      p.kvBucket,
		Description: "Latest sitebuilder build reports",
		History:     1,
	})
	if err != nil {
		return fmt.Errorf("create kv bucket: %w", err)
	}
	p.kv = kv
	return nil
}

// PublishBuild emits a BuildEvent for the report and mirrors the full report
// into the KV bucket. Both writes are best effort individually; the first
// failure is returned.
func (p *Publisher) PublishBuild(ctx context.Context, report *site.BuildReport) error {
	event := eventFromReport(p.site, report)
	event.Timestamp = time.Now()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal build event: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := p.js.Publish(pubCtx, p.subject, data); err != nil {
		return fmt.Errorf("publish build event: %w", err)
	}

	if err := p.storeLastReport(ctx, report); err != nil {
		return err
	}

	slog.Debug("Published build event",
		"build_id", report.BuildID, "outcome", string(report.Outcome))
	return nil
}

// storeLastReport mirrors the full report JSON into the KV bucket.
func (p *Publisher) storeLastReport(ctx context.Context, report *site.BuildReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report for kv: %w", err)
	}

	kvCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if _, err := p.kv.Put(kvCtx, lastReportKey, data); err != nil {
		return fmt.Errorf("store last report: %w", err)
	}
	return nil
}

// LastReport reads the most recently stored report JSON from the KV bucket.
// A missing key returns (nil, nil).
func (p *Publisher) LastReport(ctx context.Context) (json.RawMessage, error) {
	kvCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	entry, err := p.kv.Get(kvCtx, lastReportKey)
	if err != nil {
		if err == jetstream.ErrKeyNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("get last report: %w", err)
	}
	return json.RawMessage(entry.Value()), nil
}

// Close drains the NATS connection.
func (p *Publisher) Close() error {
	if p.conn != nil {
		p.conn.Close()
	}
	return nil
}

func eventFromReport(siteName string, r *site.BuildReport) *BuildEvent {
	e := &BuildEvent{
		BuildID:     r.BuildID,
		Site:        siteName,
		Outcome:     string(r.Outcome),
		Units:       r.Units,
		Rendered:    r.Rendered,
		Carried:     r.Carried,
		FailedUnits: r.FailedUnits,
		Start:       r.Start,
		End:         r.End,
		Duration:    r.End.Sub(r.Start).Truncate(time.Millisecond).String(),
	}
	for _, is := range r.Issues {
		e.Issues = append(e.Issues, EventIssue{
			Code:     string(is.Code),
			Severity: string(is.Severity),
			Page:     is.Page,
			Message:  is.Message,
		})
	}
	return e
}
