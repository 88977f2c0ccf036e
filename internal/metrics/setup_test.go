package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestMain(m *testing.M) {
	// Parallel tests record into whatever registry is current.
	if err := Init(prometheus.NewRegistry()); err != nil {
		panic(err)
	}
	m.Run()
}
