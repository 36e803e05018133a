// Package metrics holds the Prometheus collectors shared by the board.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "commentwall"

var (
	CommentsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "comments_created_total",
		Help:      "Comments added to the board, by kind (comment or reply).",
	}, []string{"kind"})

	Votes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "votes_total",
		Help:      "Votes applied, by direction (up or down).",
	}, []string{"direction"})

	StorageWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "storage_writes_total",
		Help:      "Full-collection writes to the storage slot, by result.",
	}, []string{"result"})

	IdentityFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "identity_fetches_total",
		Help:      "Random identity fetches, by result.",
	}, []string{"result"})
)

// Result turns an error into the label value used by the result counters.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
