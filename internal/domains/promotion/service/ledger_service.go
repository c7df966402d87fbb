package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"nutrifarm-backend/internal/domains/promotion/model"
	"nutrifarm-backend/internal/domains/promotion/repository"
	"nutrifarm-backend/pkg/clock"
	"nutrifarm-backend/pkg/logger"
	"nutrifarm-backend/pkg/metrics"
)

type ledgerService struct {
	ledger  repository.LedgerRepository
	clock   clock.Clock
	metrics *metrics.Metrics
}

func NewLedgerService(ledger repository.LedgerRepository, clk clock.Clock, m *metrics.Metrics) LedgerService {
	if clk == nil {
		clk = clock.New()
	}
	return &ledgerService{ledger: ledger, clock: clk, metrics: m}
}

func (s *ledgerService) RecordSale(ctx context.Context, flashSaleID, productID uuid.UUID, quantity int) (int, error) {
	if quantity <= 0 {
		return 0, nil
	}

	applied := 0
	err := s.ledger.RunInTx(ctx, func(tx repository.LedgerTx) error {
		sale, err := tx.GetFlashSaleForUpdate(ctx, flashSaleID)
		if err != nil {
			return err
		}

		if !sale.IsActiveAt(s.clock.Now()) {
			return nil
		}

		n := sale.Allocate(quantity)
		if n == 0 {
			return nil
		}

		if err := tx.IncrementProductSaleQuantity(ctx, flashSaleID, productID, n); err != nil {
			return err
		}
		if err := tx.IncrementSoldQuantity(ctx, flashSaleID, n); err != nil {
			return err
		}

		applied = n
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("record flash sale %s: %w", flashSaleID, err)
	}

	s.metrics.ObserveFlashSaleUnits(applied, quantity-applied)

	if applied < quantity {
		logger.Info("flash sale partially fulfilled", map[string]interface{}{
			"flash_sale_id": flashSaleID.String(),
			"product_id":    productID.String(),
			"requested":     quantity,
			"applied":       applied,
		})
	}

	return applied, nil
}

func (s *ledgerService) ReleaseSale(ctx context.Context, flashSaleID, productID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return nil
	}

	err := s.ledger.RunInTx(ctx, func(tx repository.LedgerTx) error {
		// same lock order as RecordSale
		if _, err := tx.GetFlashSaleForUpdate(ctx, flashSaleID); err != nil {
			return err
		}
		if err := tx.DecrementProductSaleQuantity(ctx, flashSaleID, productID, quantity); err != nil {
			return err
		}
		return tx.DecrementSoldQuantity(ctx, flashSaleID, quantity)
	})
	if err != nil {
		return fmt.Errorf("release flash sale %s: %w", flashSaleID, err)
	}

	logger.Info("flash sale units released", map[string]interface{}{
		"flash_sale_id": flashSaleID.String(),
		"product_id":    productID.String(),
		"quantity":      quantity,
	})
	return nil
}

func (s *ledgerService) ClaimFlashSale(ctx context.Context, flashSaleID uuid.UUID, req model.ClaimFlashSaleRequest) (*model.ClaimResult, error) {
	if err := req.Validate(); err != nil {
		return nil, model.NewAppError(model.ErrCodeValidationFailed, err.Error(), http.StatusBadRequest, err)
	}
	productID := uuid.MustParse(req.ProductID)

	applied, err := s.RecordSale(ctx, flashSaleID, productID, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrFlashSaleNotFound):
			return nil, model.ErrNotFound(model.ErrCodeFlashSaleNotFound, "flash sale not found", err)
		case errors.Is(err, model.ErrProductNotInFlashSale):
			return nil, model.ErrNotFound(model.ErrCodeProductNotInSale, "product is not part of this flash sale", err)
		}
		return nil, err
	}

	return model.NewClaimResult(flashSaleID, productID, req.Quantity, applied), nil
}

func (s *ledgerService) RecordDiscountUsage(ctx context.Context, discountID uuid.UUID) (bool, error) {
	recorded := false
	err := s.ledger.RunInTx(ctx, func(tx repository.LedgerTx) error {
		d, err := tx.GetDiscountForUpdate(ctx, discountID)
		if err != nil {
			return err
		}
		if !d.IsActiveAt(s.clock.Now()) {
			return nil
		}
		if err := tx.IncrementDiscountUsage(ctx, discountID); err != nil {
			return err
		}
		recorded = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("record discount usage %s: %w", discountID, err)
	}
	return recorded, nil
}
