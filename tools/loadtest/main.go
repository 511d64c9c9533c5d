// Command loadtest subscribes many viewers to one topic, posts comments to it
// over the HTTP API and reports how quickly the commentAdded events fan out.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/devaloi/agora/internal/domain"
	"github.com/devaloi/agora/internal/logging"
)

func main() {
	api := flag.String("api", "http://localhost:8080", "server base URL")
	token := flag.String("token", "", "bearer token used to post comments")
	topic := flag.String("topic", "", "topic id to join and comment on")
	viewers := flag.Int("viewers", 10, "number of concurrent WebSocket viewers")
	comments := flag.Int("comments", 10, "number of comments to post")
	pretty := flag.Bool("pretty", true, "human readable logs")
	flag.Parse()

	logger := logging.New(logging.Config{Level: "info", Pretty: *pretty})
	if *token == "" || *topic == "" {
		logger.Fatal().Msg("-token and -topic are required")
	}
	logger.Info().Int("viewers", *viewers).Int("comments", *comments).Str(logging.FieldTopicID, *topic).Msg("load test")

	wsURL := "ws" + strings.TrimPrefix(*api, "http") + "/ws"

	var (
		connected int64
		received  int64
		failures  int64
		latencies []time.Duration
		latencyMu sync.Mutex
		ready     sync.WaitGroup
		wg        sync.WaitGroup
	)
	stop := make(chan struct{})

	for i := 0; i < *viewers; i++ {
		ready.Add(1)
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			joined := false
			defer func() {
				if !joined {
					ready.Done()
				}
			}()

			conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
			if err != nil {
				atomic.AddInt64(&failures, 1)
				logger.Warn().Err(err).Int("viewer", id).Msg("dial")
				return
			}
			defer conn.Close()
			atomic.AddInt64(&connected, 1)

			join, _ := json.Marshal(domain.Message{Type: domain.MsgJoin, TopicID: *topic})
			if err := conn.WriteMessage(websocket.TextMessage, join); err != nil {
				atomic.AddInt64(&failures, 1)
				return
			}

			go func() {
				<-stop
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				conn.Close()
			}()

			for {
				_, data, err := conn.ReadMessage()
				if err != nil {
					return
				}
				var env domain.Envelope
				if err := json.Unmarshal(data, &env); err != nil {
					continue
				}
				switch env.Type {
				case domain.MsgJoined:
					joined = true
					ready.Done()
				case domain.EvtCommentAdded:
					atomic.AddInt64(&received, 1)
					lat := time.Since(env.Timestamp)
					latencyMu.Lock()
					latencies = append(latencies, lat)
					latencyMu.Unlock()
				}
			}
		}(i)
	}

	ready.Wait()
	start := time.Now()

	client := &http.Client{Timeout: 10 * time.Second}
	var posted int64
	for j := 0; j < *comments; j++ {
		body, _ := json.Marshal(map[string]string{
			"content": fmt.Sprintf("load test comment %d", j),
			"topicId": *topic,
		})
		req, _ := http.NewRequest(http.MethodPost, *api+"/api/comments", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+*token)
		resp, err := client.Do(req)
		if err != nil {
			atomic.AddInt64(&failures, 1)
			logger.Warn().Err(err).Msg("post comment")
			continue
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			atomic.AddInt64(&failures, 1)
			logger.Warn().Int(logging.FieldStatus, resp.StatusCode).Msg("post comment")
			continue
		}
		posted++
	}

	expected := posted * atomic.LoadInt64(&connected)
	deadline := time.Now().Add(5 * time.Second)
	for atomic.LoadInt64(&received) < expected && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	elapsed := time.Since(start)
	close(stop)
	wg.Wait()

	report(logger, elapsed, connected, posted, expected, received, failures, latencies)
}

func report(logger zerolog.Logger, elapsed time.Duration, connected, posted, expected, received, failures int64, latencies []time.Duration) {
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	fmt.Println("\n=== Load Test Results ===")
	fmt.Printf("Duration:    %s\n", elapsed.Round(time.Millisecond))
	fmt.Printf("Viewers:     %d connected\n", connected)
	fmt.Printf("Posted:      %d comments\n", posted)
	fmt.Printf("Delivered:   %d / %d events\n", received, expected)
	fmt.Printf("Errors:      %d\n", failures)
	if len(latencies) > 0 {
		fmt.Printf("Latency p50: %s\n", percentile(latencies, 50))
		fmt.Printf("Latency p95: %s\n", percentile(latencies, 95))
		fmt.Printf("Latency p99: %s\n", percentile(latencies, 99))
	}
	fmt.Printf("Throughput:  %.0f events/sec\n", float64(received)/elapsed.Seconds())

	if received < expected {
		logger.Warn().Int64("missing", expected-received).Msg("not every event was delivered")
	}
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
