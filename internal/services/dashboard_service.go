package services

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/ports"
)

// DashboardService rebuilds the owner's dashboard from both collections on
// every call. Nothing decrypted is kept between calls.
type DashboardService struct {
	collections ports.Collections
	cipher      Cipher
	logger      *log.Logger
}

func NewDashboardService(collections ports.Collections, cipher Cipher, logger *log.Logger) *DashboardService {
	if logger == nil {
		logger = log.Discard()
	}
	return &DashboardService{
		collections: collections,
		cipher:      cipher,
		logger:      logger.WithComponent(log.ComponentDashboard),
	}
}

// Dashboard fetches every income and expense record of the owner
// concurrently, decrypts them and aggregates. A single undecryptable record
// fails the call.
func (s *DashboardService) Dashboard(ctx context.Context, ownerID string) (core.Dashboard, error) {
	if strings.TrimSpace(ownerID) == "" {
		return core.Dashboard{}, fmt.Errorf("%w: owner id is required", core.ErrValidation)
	}

	var incomes, expenses []core.Entry
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		incomes, err = s.fetch(gctx, core.Income, ownerID)
		return err
	})
	g.Go(func() (err error) {
		expenses, err = s.fetch(gctx, core.Expense, ownerID)
		return err
	})
	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return core.Dashboard{}, ctxErr
		}
		s.logger.ErrorContext(ctx, "Dashboard aggregation failed", log.FieldOwnerID, ownerID, log.FieldError, err)
		return core.Dashboard{}, err
	}
	if err := ctx.Err(); err != nil {
		return core.Dashboard{}, err
	}

	return core.BuildDashboard(incomes, expenses), nil
}

func (s *DashboardService) fetch(ctx context.Context, kind core.Kind, ownerID string) ([]core.Entry, error) {
	store, err := s.collections.Collection(kind)
	if err != nil {
		return nil, err
	}
	records, err := store.List(ctx, ownerID, ports.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return decryptRecords(s.cipher, kind, records)
}
