//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node KRaft broker and returns its address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("neo-approach-test"),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err, "start kafka container")

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// fakeObject is the subset of a NeoWs lookup body the fake API serves.
type fakeObject struct {
	ID        string
	Name      string
	Hazardous bool
	When      time.Time
	Km        float64
}

func (o fakeObject) lookupBody() map[string]any {
	return map[string]any{
		"id":                                o.ID,
		"name":                              o.Name,
		"is_potentially_hazardous_asteroid": o.Hazardous,
		"close_approach_data": []map[string]any{{
			"close_approach_date":       o.When.Format("2006-01-02"),
			"epoch_date_close_approach": o.When.UnixMilli(),
			"relative_velocity":         map[string]string{"kilometers_per_second": "12.5"},
			"miss_distance":             map[string]string{"kilometers": strconv.FormatFloat(o.Km, 'f', 3, 64)},
			"orbiting_body":             "Earth",
		}},
	}
}

// startFakeNeoWs serves /feed and /neo/{id} for the given objects. Every
// object is listed under the feed's start date.
func startFakeNeoWs(t *testing.T, objects []fakeObject) string {
	t.Helper()

	byID := make(map[string]fakeObject, len(objects))
	feedList := make([]map[string]string, 0, len(objects))
	for _, o := range objects {
		byID[o.ID] = o
		feedList = append(feedList, map[string]string{"id": o.ID, "name": o.Name})
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /feed", func(w http.ResponseWriter, r *http.Request) {
		writeBody(w, map[string]any{
			"element_count":      len(objects),
			"near_earth_objects": map[string]any{r.URL.Query().Get("start_date"): feedList},
		})
	})
	mux.HandleFunc("GET /neo/{id}", func(w http.ResponseWriter, r *http.Request) {
		o, ok := byID[r.PathValue("id")]
		if !ok {
			http.Error(w, fmt.Sprintf(`{"error":"unknown id %s"}`, r.PathValue("id")), http.StatusNotFound)
			return
		}
		writeBody(w, o.lookupBody())
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv.URL
}

func writeBody(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v) //nolint:errcheck // test server
}
