package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/antoniostano/claria/internal/protocol"
)

// defaultScript walks one calendar task through both pending slots and
// then lists it.
var defaultScript = []string{
	"agenda una junta virtual con ventas",
	"no necesito liga",
	"mañana a las 17:00",
	"¿qué tengo mañana?",
}

type perfOptions struct {
	baseURL     string
	userKey     string
	rounds      int
	turnTimeout time.Duration
	texts       []string
	verbose     bool
}

type replyFrame struct {
	Type      string `json:"type"`
	RequestID string `json:"request_id"`
	Code      string `json:"code"`
	Detail    string `json:"detail"`
	Reply     struct {
		Action string `json:"action"`
	} `json:"reply"`
}

type perfReport struct {
	Turns   int
	Errors  int
	Actions map[string]int
	Latency []time.Duration
}

var perfCmd = &cobra.Command{
	Use:   "perf",
	Short: "Replay a scripted conversation over the chat websocket and report turn latency",
	Long: `Replay a scripted conversation over the chat websocket and report turn latency.

Examples:
  claria perf --base-url http://127.0.0.1:10000 --rounds 5
  claria perf --text "recuérdame pagar la luz" --text "mañana a las 9:00" --verbose`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var opts perfOptions
		opts.baseURL, _ = cmd.Flags().GetString("base-url")
		opts.userKey, _ = cmd.Flags().GetString("user-key")
		opts.rounds, _ = cmd.Flags().GetInt("rounds")
		opts.turnTimeout, _ = cmd.Flags().GetDuration("turn-timeout")
		opts.texts, _ = cmd.Flags().GetStringArray("text")
		opts.verbose, _ = cmd.Flags().GetBool("verbose")
		if len(opts.texts) == 0 {
			opts.texts = defaultScript
		}
		if opts.rounds <= 0 {
			return fmt.Errorf("--rounds must be positive")
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
		defer cancel()
		report, err := runPerf(ctx, opts, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		printReport(cmd.OutOrStdout(), report)
		return nil
	},
}

func init() {
	perfCmd.Flags().String("base-url", "http://127.0.0.1:10000", "service base URL")
	perfCmd.Flags().String("user-key", "perf-probe", "owner key for the replayed conversation")
	perfCmd.Flags().Int("rounds", 1, "times to replay the script")
	perfCmd.Flags().Duration("turn-timeout", 20*time.Second, "max wait for one reply")
	perfCmd.Flags().StringArray("text", nil, "utterance to send (repeatable, replaces the default script)")
	perfCmd.Flags().Bool("verbose", false, "print every turn")
}

func runPerf(ctx context.Context, opts perfOptions, logw io.Writer) (perfReport, error) {
	report := perfReport{Actions: make(map[string]int)}

	wsURL, err := chatWSURL(opts.baseURL, opts.userKey)
	if err != nil {
		return report, fmt.Errorf("build ws URL: %w", err)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return report, fmt.Errorf("open websocket: %w", err)
	}
	defer conn.Close()

	frames := make(chan replyFrame, 32)
	readErrCh := make(chan error, 1)
	go readFrames(conn, frames, readErrCh)

	seq := 0
	for round := 0; round < opts.rounds; round++ {
		for _, text := range opts.texts {
			seq++
			requestID := "perf-" + strconv.Itoa(seq)
			started := time.Now()
			err := conn.WriteJSON(protocol.UserMessage{
				Type:      protocol.TypeUserMessage,
				Text:      text,
				RequestID: requestID,
				TSMs:      started.UnixMilli(),
			})
			if err != nil {
				return report, fmt.Errorf("turn %d send: %w", seq, err)
			}
			frame, err := awaitReply(frames, readErrCh, requestID, opts.turnTimeout)
			if err != nil {
				return report, fmt.Errorf("turn %d await reply: %w", seq, err)
			}
			elapsed := time.Since(started)

			report.Turns++
			report.Latency = append(report.Latency, elapsed)
			action := frame.Reply.Action
			if frame.Type == string(protocol.TypeErrorEvent) {
				report.Errors++
				action = "error:" + frame.Code
			}
			report.Actions[action]++
			if opts.verbose {
				fmt.Fprintf(logw, "perf: turn %d text=%q action=%s latency=%s\n", seq, text, action, elapsed.Round(time.Millisecond))
			}
		}
	}
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return report, nil
}

func chatWSURL(baseURL, userKey string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return "", err
	}
	switch strings.ToLower(u.Scheme) {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported base-url scheme %q", u.Scheme)
	}
	if strings.TrimSpace(u.Host) == "" {
		return "", fmt.Errorf("base-url host is required")
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/v1/chat/ws"
	q := u.Query()
	if key := strings.TrimSpace(userKey); key != "" {
		q.Set("user_key", key)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func readFrames(conn *websocket.Conn, frames chan<- replyFrame, readErrCh chan<- error) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case readErrCh <- err:
			default:
			}
			return
		}
		var frame replyFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			continue
		}
		frames <- frame
	}
}

// awaitReply skips frames for other requests, such as errors for frames the
// server could not parse.
func awaitReply(frames <-chan replyFrame, readErrCh <-chan error, requestID string, timeout time.Duration) (replyFrame, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case frame := <-frames:
			if frame.RequestID == requestID {
				return frame, nil
			}
		case err := <-readErrCh:
			return replyFrame{}, err
		case <-timer.C:
			return replyFrame{}, fmt.Errorf("timeout after %s", timeout)
		}
	}
}

// percentile uses nearest rank on a sorted copy. p is in [0,100].
func percentile(samples []time.Duration, p float64) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	rank := int(p/100*float64(len(sorted))+0.5) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}

func printReport(w io.Writer, r perfReport) {
	fmt.Fprintf(w, "turns=%d errors=%d\n", r.Turns, r.Errors)
	fmt.Fprintf(w, "latency p50=%s p95=%s max=%s\n",
		percentile(r.Latency, 50).Round(time.Millisecond),
		percentile(r.Latency, 95).Round(time.Millisecond),
		percentile(r.Latency, 100).Round(time.Millisecond),
	)
	actions := make([]string, 0, len(r.Actions))
	for a := range r.Actions {
		actions = append(actions, a)
	}
	sort.Strings(actions)
	for _, a := range actions {
		fmt.Fprintf(w, "action %s=%d\n", a, r.Actions[a])
	}
}
