package exchange

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/betbot/copybet/pkg/logger"
)

const wsPath = "/trade-api/ws/v2"

// MarketSink receives open-market snapshots pushed by the stream.
type MarketSink interface {
	WarmMarkets(markets []Market)
}

// Stream subscribes to the exchange market-lifecycle channel and pushes
// the evolving open-market set into a sink (the matcher cache). It is an
// optional accelerator: the REST cache path works without it.
type Stream struct {
	url    string
	signer *Signer
	sink   MarketSink

	// open markets accumulated from lifecycle updates
	markets map[string]Market
}

func NewStream(wsURL string, signer *Signer, sink MarketSink) *Stream {
	return &Stream{
		url:     wsURL,
		signer:  signer,
		sink:    sink,
		markets: make(map[string]Market),
	}
}

type wsCommand struct {
	ID     int      `json:"id"`
	Cmd    string   `json:"cmd"`
	Params wsParams `json:"params"`
}

type wsParams struct {
	Channels []string `json:"channels"`
}

type wsMessage struct {
	Type string          `json:"type"`
	Msg  json.RawMessage `json:"msg"`
}

type lifecycleMsg struct {
	Ticker   string `json:"market_ticker"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Status   string `json:"status"`
}

// Run connects and consumes until ctx is done, reconnecting with capped
// exponential backoff after any error.
func (s *Stream) Run(ctx context.Context) {
	log := logger.WithField("component", "market-stream")
	backoff := time.Second
	for {
		if err := s.consume(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			log.WithError(err).Warnf("market stream dropped, reconnecting in %s", backoff)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

func (s *Stream) consume(ctx context.Context) error {
	headers := http.Header{}
	if s.signer != nil {
		ts := time.Now().UnixMilli()
		sig, err := s.signer.Sign(ts, http.MethodGet, wsPath)
		if err != nil {
			return err
		}
		headers.Set(HeaderAccessKey, s.signer.KeyID())
		headers.Set(HeaderAccessTimestamp, strconv.FormatInt(ts, 10))
		headers.Set(HeaderAccessSignature, sig)
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, s.url, headers)
	if err != nil {
		return err
	}
	defer conn.Close()

	sub := wsCommand{ID: 1, Cmd: "subscribe", Params: wsParams{Channels: []string{"market_lifecycle_v2"}}}
	if err := conn.WriteJSON(sub); err != nil {
		return err
	}

	// close the socket when ctx is canceled so ReadMessage unblocks
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var msg wsMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		if msg.Type != "market_lifecycle_v2" {
			continue
		}
		var lc lifecycleMsg
		if err := json.Unmarshal(msg.Msg, &lc); err != nil || lc.Ticker == "" {
			continue
		}
		if lc.Status == "open" {
			s.markets[lc.Ticker] = Market{Ticker: lc.Ticker, Title: lc.Title, Subtitle: lc.Subtitle}
		} else {
			delete(s.markets, lc.Ticker)
		}
		s.push()
	}
}

func (s *Stream) push() {
	snapshot := make([]Market, 0, len(s.markets))
	for _, m := range s.markets {
		snapshot = append(snapshot, m)
	}
	// stable candidate order keeps matcher tie-breaks deterministic
	sort.Slice(snapshot, func(i, j int) bool { return snapshot[i].Ticker < snapshot[j].Ticker })
	s.sink.WarmMarkets(snapshot)
}
