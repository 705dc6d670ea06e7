package server

import (
	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-middleware/providers/prometheus"
	"github.com/prometheus/client_golang/prometheus"
)

// grpcMetrics is shared by every server of the process.
var grpcMetrics = grpc_prometheus.NewServerMetrics(
	grpc_prometheus.WithServerHandlingTimeHistogram(
		grpc_prometheus.WithHistogramBuckets(prometheus.ExponentialBuckets(0.001, 2, 16)),
	),
)

func init() {
	prometheus.MustRegister(grpcMetrics)
}
