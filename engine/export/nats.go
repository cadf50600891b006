package export

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/animetrics/animetrics/engine/ingest"
	"github.com/animetrics/animetrics/pkg/natsutil"
)

// DefaultSubject is the subject run results are published to when none is
// configured.
const DefaultSubject = "animetrics.collector.runs"

// NATSSink publishes the run result as one JSON message, for downstream
// warehouse loaders subscribed to the subject.
type NATSSink struct {
	Conn    *nats.Conn
	Subject string
}

func (s *NATSSink) WriteRun(ctx context.Context, res *ingest.RunResult) error {
	subject := s.Subject
	if subject == "" {
		subject = DefaultSubject
	}
	if err := natsutil.Publish(ctx, s.Conn, subject, res); err != nil {
		return fmt.Errorf("publish run %s: %w", res.RunID, err)
	}
	return s.Conn.Flush()
}
