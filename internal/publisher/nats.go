package publisher

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"randomflight/internal/stats"
)

type NATSPublisher struct {
	nc          *nats.Conn
	prefix      string
	logSubjects bool
	metrics     PublisherMetrics
	logger      *zap.Logger
}

type PublisherMetrics interface {
	NATSPublishedInc()
	NATSPublishErrInc()
	NATSSetConnected(connected bool)
}

func NewNATSPublisher(url, prefix string, logSubjects bool, m PublisherMetrics, logger *zap.Logger) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("randomflight"),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			logger.Warn("nats disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(true)
			}
			logger.Info("nats reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			logger.Info("nats closed")
		}),
	)
	if err != nil {
		return nil, err
	}
	if m != nil {
		m.NATSSetConnected(true)
	}
	return &NATSPublisher{
		nc:          nc,
		prefix:      SubjectToken(prefix),
		logSubjects: logSubjects,
		metrics:     m,
		logger:      logger,
	}, nil
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() {
	if p.nc != nil {
		_ = p.nc.Drain()
		p.nc.Close()
	}
}

type StatsMessage struct {
	RunID     string      `json:"runId"`
	Airport   string      `json:"airport"`
	Timestamp time.Time   `json:"timestamp"`
	Stats     stats.Stats `json:"stats"`
}

type RunMessage struct {
	RunID      string    `json:"runId"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Trials     int       `json:"trials"`
	MaxHops    int       `json:"maxHops"`
	Airports   int       `json:"airports"`
	Unreturned []string  `json:"unreturned"`
}

func (p *NATSPublisher) StatsSubject(airport string) string {
	return p.prefix + ".stats." + SubjectToken(airport)
}

func (p *NATSPublisher) RunSubject() string { return p.prefix + ".runs" }

// PublishStats publishes one airport's statistics as soon as they are known.
func (p *NATSPublisher) PublishStats(runID, airport string, s stats.Stats) error {
	return p.publish(p.StatsSubject(airport), StatsMessage{
		RunID:     runID,
		Airport:   airport,
		Timestamp: time.Now().UTC(),
		Stats:     s,
	})
}

// PublishRun publishes the summary of a completed batch run.
func (p *NATSPublisher) PublishRun(msg RunMessage) error {
	if err := p.publish(p.RunSubject(), msg); err != nil {
		return err
	}
	return p.nc.Flush()
}

func (p *NATSPublisher) publish(subject string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if p.logSubjects {
		p.logger.Debug("nats publish", zap.String("subject", subject))
	}
	err = p.nc.Publish(subject, b)
	if p.metrics != nil {
		if err != nil {
			p.metrics.NATSPublishErrInc()
		} else {
			p.metrics.NATSPublishedInc()
		}
	}
	return err
}

// SubjectToken makes s safe to use as a single NATS subject token.
func SubjectToken(s string) string {
	s = strings.TrimSpace(s)
	// NATS token cannot contain spaces, '>', '*', or trailing '.'
	repl := strings.NewReplacer(" ", "_", ".", "_", ">", "_", "*", "_", "/", "_", "\t", "_")
	s = repl.Replace(s)
	if s == "" {
		s = "_"
	}
	return s
}
