package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	signupsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "safepath_ngo_signups_total",
		Help: "Total number of successful NGO registrations.",
	})

	storiesCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "safepath_stories_created_total",
		Help: "Total number of stories created through the authoring pipeline.",
	})

	storiesPublishedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "safepath_stories_published_total",
		Help: "Total number of publish requests that completed successfully.",
	})

	tokenVerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "safepath_token_verifications_total",
			Help: "Total number of bearer token verification attempts by status.",
		},
		[]string{"status"},
	)
)
