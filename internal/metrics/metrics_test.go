package metrics

import (
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(CommandsSent.WithLabelValues("005"))
	CommandsSent.WithLabelValues("005").Inc()
	require.Equal(t, before+1, testutil.ToFloat64(CommandsSent.WithLabelValues("005")))

	SessionState.Set(3)
	require.Equal(t, float64(3), testutil.ToFloat64(SessionState))
}

func TestServe(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, addr) }()

	FramesReceived.Inc()
	var body string
	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/metrics")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		body = string(b)
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)
	require.True(t, strings.Contains(body, "envisalink2mqtt_panel_frames_received_total"))

	cancel()
	require.NoError(t, <-done)
}
