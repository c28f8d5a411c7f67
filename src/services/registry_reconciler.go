package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"portfolio/src/models"
	"portfolio/src/repositories"
	"portfolio/src/utils"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"
)

// RegistryDiff partitions the snapshot and the registry by case-insensitive ticker.
type RegistryDiff struct {
	ToCreate []models.Security
	ToRetain []models.Security
	ToRemove []models.Security
}

// DiffRegistry compares the tickers of a snapshot with the stored securities. displayNames is keyed by the
// lowercased ticker and may be nil. Every result slice is sorted by lowercased ticker.
func DiffRegistry(tickers []string, displayNames map[string]string, registry []models.Security) RegistryDiff {
	existing := make(map[string]models.Security, len(registry))
	for _, s := range registry {
		existing[strings.ToLower(s.Ticker)] = s
	}

	diff := RegistryDiff{}
	inSnapshot := make(map[string]bool, len(tickers))
	for _, ticker := range tickers {
		key := strings.ToLower(strings.TrimSpace(ticker))
		if key == "" || inSnapshot[key] {
			continue
		}
		inSnapshot[key] = true

		if s, ok := existing[key]; ok {
			diff.ToRetain = append(diff.ToRetain, s)
			continue
		}
		name := displayNames[key]
		if name == "" {
			name = strings.TrimSpace(ticker)
		}
		diff.ToCreate = append(diff.ToCreate, models.Security{Ticker: strings.TrimSpace(ticker), DisplayName: name})
	}

	for key, s := range existing {
		if !inSnapshot[key] {
			diff.ToRemove = append(diff.ToRemove, s)
		}
	}

	for _, list := range [][]models.Security{diff.ToCreate, diff.ToRetain, diff.ToRemove} {
		sort.Slice(list, func(i, j int) bool {
			return strings.ToLower(list[i].Ticker) < strings.ToLower(list[j].Ticker)
		})
	}
	return diff
}

// Securities returns the retained and created securities, which together form the registry after the diff.
func (d RegistryDiff) Securities() []models.Security {
	all := make([]models.Security, 0, len(d.ToRetain)+len(d.ToCreate))
	all = append(all, d.ToRetain...)
	all = append(all, d.ToCreate...)
	return all
}

type RegistryReconciler struct {
	securityRepository repositories.SecurityRepository
}

func NewRegistryReconciler(securityRepository repositories.SecurityRepository) *RegistryReconciler {
	return &RegistryReconciler{securityRepository: securityRepository}
}

// Reconcile applies the diff between the snapshot and the registry inside tx. Removing a security cascades to
// its historical records. The returned diff has the IDs of created securities filled in.
func (r *RegistryReconciler) Reconcile(ctx context.Context, tx pgx.Tx, snapshot *ParsedSnapshot) (*RegistryDiff, error) {
	logger := utils.LoggerFromContext(ctx)

	registry, err := r.securityRepository.GetAll(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("failed to read security registry: %w", err)
	}

	displayNames := make(map[string]string, len(snapshot.Holdings))
	for _, h := range snapshot.Holdings {
		displayNames[strings.ToLower(h.Ticker)] = h.DisplayName
	}

	diff := DiffRegistry(snapshot.Tickers, displayNames, registry)

	for i := range diff.ToCreate {
		if err := r.securityRepository.Create(ctx, &diff.ToCreate[i], tx); err != nil {
			return nil, fmt.Errorf("failed to create security %s: %w", diff.ToCreate[i].Ticker, err)
		}
	}

	if len(diff.ToRemove) > 0 {
		ids := make([]int, len(diff.ToRemove))
		for i, s := range diff.ToRemove {
			ids[i] = s.ID
		}
		if _, err := r.securityRepository.DeleteByIDs(ctx, ids, tx); err != nil {
			return nil, fmt.Errorf("failed to remove securities: %w", err)
		}
	}

	logger.WithFields(logrus.Fields{
		"created":  len(diff.ToCreate),
		"retained": len(diff.ToRetain),
		"removed":  len(diff.ToRemove),
	}).Info("Security registry reconciled")
	return &diff, nil
}
