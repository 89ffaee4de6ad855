package execution

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rpcRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ejector_execution_rpc_requests_total",
		Help: "Total number of execution layer RPC requests by method.",
	}, []string{"method"})
	rpcRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ejector_execution_rpc_retries_total",
		Help: "Total number of retried execution layer RPC requests by method.",
	}, []string{"method"})
	rpcErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ejector_execution_rpc_errors_total",
		Help: "Total number of failed execution layer RPC requests by method.",
	}, []string{"method"})
)
