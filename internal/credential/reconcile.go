// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PEYP Contributors

package credential

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/oops"
)

// DefaultScanPageSize is the forward-index page size used by Reconciler.
const DefaultScanPageSize = 500

// ReconcileReport summarises one reconciliation pass.
type ReconcileReport struct {
	Scanned  int
	Repaired int
	// Missing lists identities whose inverse membership was absent.
	Missing []string
}

// Reconciler restores inverse memberships lost to partial registrations.
// It only adds memberships implied by the forward index; it never removes
// inverse entries.
type Reconciler struct {
	store    Store
	scanner  InverseScanner
	logger   *slog.Logger
	metrics  *Metrics
	pageSize int
}

// NewReconciler returns a Reconciler for store, which must also implement
// InverseScanner.
func NewReconciler(store Store, logger *slog.Logger, metrics *Metrics) (*Reconciler, error) {
	if store == nil {
		return nil, oops.Code("RECONCILE_INVALID_CONFIG").Errorf("credential store is required")
	}
	if logger == nil {
		return nil, oops.Code("RECONCILE_INVALID_CONFIG").Errorf("logger cannot be nil")
	}
	scanner, ok := store.(InverseScanner)
	if !ok {
		return nil, oops.Code("RECONCILE_UNSUPPORTED").
			With("store", fmt.Sprintf("%T", store)).
			Errorf("store cannot enumerate the forward index")
	}
	return &Reconciler{
		store:    store,
		scanner:  scanner,
		logger:   logger,
		metrics:  metrics,
		pageSize: DefaultScanPageSize,
	}, nil
}

// Run scans the whole forward index. With dryRun set it only reports.
func (r *Reconciler) Run(ctx context.Context, dryRun bool) (ReconcileReport, error) {
	var report ReconcileReport
	cursor := ""

	for {
		entries, next, err := r.scanner.ScanForward(ctx, cursor, r.pageSize)
		if err != nil {
			return report, oops.Code("RECONCILE_FAILED").
				With("operation", "scan forward index").
				With("scanned", report.Scanned).
				Wrap(err)
		}

		for _, entry := range entries {
			if err := ctx.Err(); err != nil {
				return report, oops.Code("RECONCILE_CANCELLED").Wrap(err)
			}
			report.Scanned++

			member, err := r.scanner.IsInverseMember(ctx, entry.Secret, entry.Identity)
			if err != nil {
				return report, oops.Code("RECONCILE_FAILED").
					With("operation", "probe inverse membership").
					With("identity", entry.Identity).
					Wrap(err)
			}
			if member {
				continue
			}

			report.Missing = append(report.Missing, entry.Identity)
			if dryRun {
				continue
			}

			if err := r.store.SetInverseMembership(ctx, entry.Secret, entry.Identity); err != nil {
				return report, oops.Code("RECONCILE_FAILED").
					With("operation", "restore inverse membership").
					With("identity", entry.Identity).
					Wrap(err)
			}
			report.Repaired++
			r.metrics.observeRepair()
			r.logger.InfoContext(ctx, "inverse membership restored", "identity", entry.Identity)
		}

		if next == "" {
			break
		}
		cursor = next
	}

	r.logger.InfoContext(ctx, "reconciliation finished",
		"scanned", report.Scanned,
		"missing", len(report.Missing),
		"repaired", report.Repaired,
		"dry_run", dryRun,
	)
	return report, nil
}
