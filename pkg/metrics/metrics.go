package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GrantsIssued counts permission grants written to the ledger.
	GrantsIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "datagrant_grants_issued_total",
			Help: "Total number of permission grants issued",
		},
	)

	// GrantsRevoked counts revocations by reason (manual|superseded|emergency).
	GrantsRevoked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datagrant_grants_revoked_total",
			Help: "Total number of permission grants revoked",
		},
		[]string{"reason"},
	)

	// GrantsExtended counts expiry extensions applied to active grants.
	GrantsExtended = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "datagrant_grants_extended_total",
			Help: "Total number of grant expiry extensions",
		},
	)

	// AccessDecisions counts access attempts and their outcome
	// (allow|deny|expired|resource_not_found).
	AccessDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datagrant_access_decisions_total",
			Help: "Total number of access authorization decisions",
		},
		[]string{"action", "result"},
	)

	// ResourcesRegistered counts resources added to the store.
	ResourcesRegistered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "datagrant_resources_registered_total",
			Help: "Total number of registered data resources",
		},
	)
)
