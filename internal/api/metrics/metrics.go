// Package metrics defines and registers all custom Prometheus metrics for the
// Neurodex API. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics register themselves with the default Prometheus registry at import
// time via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "neurodex"

// ModelsCreatedTotal counts newly created models.
var ModelsCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "models_created_total",
		Help:      "Total number of models created.",
	},
)

// ModelMutationsTotal counts committed model mutations.
// Label:
//   - op: the operation applied (e.g. "add_layer", "reorder_activator")
var ModelMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "model_mutations_total",
		Help:      "Total number of committed model mutations, by operation.",
	},
	[]string{"op"},
)

// LoginAttemptsTotal counts login attempts.
// Label:
//   - result: "success" or "failure"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// CatalogImportsTotal counts admin catalog imports.
// Label:
//   - result: "success" or "failure"
var CatalogImportsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "catalog_imports_total",
		Help:      "Total number of catalog import runs, by result.",
	},
	[]string{"result"},
)

// ConfirmationEmailsTotal counts confirmation email deliveries attempted at
// registration time.
// Label:
//   - result: "sent" or "failed"
var ConfirmationEmailsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "confirmation_emails_total",
		Help:      "Total number of confirmation email delivery attempts, by result.",
	},
	[]string{"result"},
)
