// AngelaMos | 2026
// service.go

package entitlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/episode-ledger/internal/catalog"
	"github.com/carterperez-dev/episode-ledger/internal/config"
	"github.com/carterperez-dev/episode-ledger/internal/core"
	"github.com/carterperez-dev/episode-ledger/internal/ledger"
)

const (
	tracerName       = "github.com/carterperez-dev/episode-ledger/internal/entitlement"
	viewCountTimeout = 2 * time.Second
	retryBaseDelay   = 20 * time.Millisecond
)

type Service struct {
	db       *sqlx.DB
	families *Registry
	cfg      config.EntitlementConfig
}

func NewService(
	db *sqlx.DB,
	families *Registry,
	cfg config.EntitlementConfig,
) *Service {
	if cfg.TxTimeout <= 0 {
		cfg.TxTimeout = 10 * time.Second
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &Service{db: db, families: families, cfg: cfg}
}

type CheckResult struct {
	Decision Decision
	VideoURL string
}

type PurchaseResult struct {
	OrderID       string
	Scope         Scope
	PointsCharged int64
	AlreadyOwned  bool
	Balance       int64
	VideoURL      string

	created bool
}

// Check reports the caller's access to a chapter without writing anything.
// userID is empty for anonymous callers.
func (s *Service) Check(
	ctx context.Context,
	family, userID, contentID, chapterID string,
) (*CheckResult, error) {
	fam, err := s.families.Get(family)
	if err != nil {
		return nil, fmt.Errorf("check: %w", err)
	}

	snap, err := loadSnapshot(
		ctx,
		fam.Reader,
		NewStore(s.db),
		fam.Name,
		userID,
		contentID,
		chapterID,
	)
	if err != nil {
		return nil, fmt.Errorf("check: %w", err)
	}

	result := &CheckResult{Decision: Resolve(*snap)}

	if result.Decision.Granted() {
		url, err := fam.Assets.PlaybackURL(ctx, fam.Name, snap.Chapter)
		if err != nil {
			return nil, fmt.Errorf("check: playback url: %w", err)
		}
		result.VideoURL = url
	}

	return result, nil
}

// Purchase grants the caller access to a chapter, charging points at most
// once per scope. Calls for a scope that is already granted return the
// existing entitlement without charging.
func (s *Service) Purchase(
	ctx context.Context,
	family, userID, contentID, chapterID string,
) (*PurchaseResult, error) {
	if userID == "" {
		return nil, fmt.Errorf("purchase: %w", core.ErrUnauthorized)
	}

	fam, err := s.families.Get(family)
	if err != nil {
		return nil, fmt.Errorf("purchase: %w", err)
	}

	ctx, span := core.StartSpan(ctx, tracerName, "entitlement.Purchase",
		attribute.String("family", fam.Name),
		attribute.String("content_id", contentID),
		attribute.String("chapter_id", chapterID),
	)
	defer span.End()

	txCtx, cancel := context.WithTimeout(ctx, s.cfg.TxTimeout)
	defer cancel()

	var result *PurchaseResult
	for attempt := 1; ; attempt++ {
		result, err = s.purchaseOnce(txCtx, fam, userID, contentID, chapterID)
		if err == nil || !retryable(err) || attempt >= s.cfg.MaxAttempts {
			break
		}

		core.AddSpanEvent(ctx, "entitlement.retry",
			attribute.Int("attempt", attempt),
			attribute.String("cause", err.Error()),
		)
		slog.Debug("retrying purchase",
			"family", fam.Name,
			"user_id", userID,
			"chapter_id", chapterID,
			"attempt", attempt,
			"error", err,
		)

		if waitErr := backoff(txCtx, attempt); waitErr != nil {
			err = waitErr
			break
		}
	}

	if err != nil {
		err = classify(ctx, err)
		core.SetSpanError(ctx, err)
		return nil, err
	}

	span.SetAttributes(
		attribute.String("order_id", result.OrderID),
		attribute.String("scope", string(result.Scope)),
		attribute.Int64("points_charged", result.PointsCharged),
		attribute.Bool("already_owned", result.AlreadyOwned),
	)

	if result.created {
		slog.Info("entitlement recorded",
			"family", fam.Name,
			"user_id", userID,
			"content_id", contentID,
			"chapter_id", chapterID,
			"order_id", result.OrderID,
			"scope", result.Scope,
			"points_charged", result.PointsCharged,
			"balance", result.Balance,
		)
		s.recordView(ctx, fam, contentID)
	}

	return result, nil
}

func (s *Service) Stats(ctx context.Context) ([]FamilyStats, error) {
	return NewStore(s.db).Stats(ctx)
}

func (s *Service) purchaseOnce(
	ctx context.Context,
	fam *Family,
	userID, contentID, chapterID string,
) (*PurchaseResult, error) {
	var result *PurchaseResult

	err := core.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := core.SetLockTimeout(ctx, tx, s.cfg.LockTimeout); err != nil {
			return err
		}

		accounts := ledger.NewRepository(tx)
		store := NewStore(tx)

		account, err := accounts.GetAccount(ctx, userID)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				return fmt.Errorf("purchase: unknown user: %w", core.ErrUnauthorized)
			}
			return err
		}

		snap, err := loadSnapshot(
			ctx,
			catalog.NewRepository(tx, fam.Tables),
			store,
			fam.Name,
			userID,
			contentID,
			chapterID,
		)
		if err != nil {
			return fmt.Errorf("purchase: %w", err)
		}

		res, err := settle(ctx, accounts, store, fam.Name, account, snap, Resolve(*snap))
		if err != nil {
			return err
		}

		url, err := fam.Assets.PlaybackURL(ctx, fam.Name, snap.Chapter)
		if err != nil {
			return fmt.Errorf("purchase: playback url: %w", err)
		}
		res.VideoURL = url

		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// settle turns a decision into a recorded entitlement. Granted decisions
// backed by a row return that row; everything else inserts one, debiting
// the ledger only after the insert won the unique index.
func settle(
	ctx context.Context,
	accounts ledger.Repository,
	store Store,
	family string,
	account *ledger.Account,
	snap *Snapshot,
	d Decision,
) (*PurchaseResult, error) {
	if d.Entitlement != nil {
		return &PurchaseResult{
			OrderID:      d.Entitlement.ID,
			Scope:        d.Scope,
			AlreadyOwned: true,
			Balance:      account.Points,
		}, nil
	}

	var price int64
	if d.Status == StatusRequired {
		price = d.Points
		if account.Points < price {
			return nil, &InsufficientPointsError{
				Required:  price,
				Available: account.Points,
			}
		}
	}

	e := &Entitlement{
		Family:        family,
		UserID:        account.ID,
		ContentID:     snap.Content.ID,
		ChapterID:     d.ScopeChapterID,
		PointsCharged: price,
	}

	inserted, err := store.Insert(ctx, e)
	if err != nil {
		return nil, err
	}
	if !inserted {
		return nil, errConflict
	}

	balance := account.Points
	if price > 0 {
		balance, err = accounts.Debit(ctx, account.ID, price, e.ID, ledger.ReasonPurchase)
		if errors.Is(err, ledger.ErrInsufficientFunds) {
			available := account.Points
			if current, getErr := accounts.GetAccount(ctx, account.ID); getErr == nil {
				available = current.Points
			}
			return nil, &InsufficientPointsError{Required: price, Available: available}
		}
		if err != nil {
			return nil, err
		}
	}

	return &PurchaseResult{
		OrderID:       e.ID,
		Scope:         d.Scope,
		PointsCharged: price,
		Balance:       balance,
		created:       true,
	}, nil
}

func loadSnapshot(
	ctx context.Context,
	reader catalog.Reader,
	store Store,
	family, userID, contentID, chapterID string,
) (*Snapshot, error) {
	content, err := reader.GetContent(ctx, contentID)
	if err != nil {
		return nil, err
	}

	chapter, err := reader.GetChapter(ctx, chapterID)
	if err != nil {
		return nil, err
	}

	if chapter.ContentID != content.ID {
		return nil, fmt.Errorf(
			"chapter %s does not belong to %s: %w",
			chapterID,
			contentID,
			core.ErrNotFound,
		)
	}

	parent, err := reader.GetParent(ctx, chapterID)
	if err != nil {
		return nil, err
	}

	free, err := reader.IsContentFree(ctx, contentID)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		UserID:      userID,
		Content:     content,
		Chapter:     chapter,
		Parent:      parent,
		ContentFree: free,
	}

	if userID != "" {
		owned, err := store.ListForContent(ctx, family, userID, contentID)
		if err != nil {
			return nil, err
		}
		snap.Owned = owned
	}

	return snap, nil
}

// recordView bumps the view counter after a committed purchase. It is
// best-effort and detached from request cancellation.
func (s *Service) recordView(ctx context.Context, fam *Family, contentID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), viewCountTimeout)
	defer cancel()

	if err := catalog.NewRepository(s.db, fam.Tables).IncrementViews(ctx, contentID); err != nil {
		slog.Warn("failed to increment view count",
			"family", fam.Name,
			"content_id", contentID,
			"error", err,
		)
	}
}

func retryable(err error) bool {
	return errors.Is(err, errConflict) || core.IsConflictError(err)
}

// classify maps what is left after the retry loop onto the public errors.
// A caller that went away keeps its own context error.
func classify(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); errors.Is(ctxErr, context.Canceled) {
		return fmt.Errorf("purchase: %w", ctxErr)
	}
	if retryable(err) || core.IsTimeoutError(err) {
		return fmt.Errorf("purchase: %w: %w", ErrTransactionTimeout, err)
	}
	return err
}

func backoff(ctx context.Context, attempt int) error {
	d := time.Duration(attempt) * retryBaseDelay
	//nolint:gosec // G404: retry jitter is not security sensitive
	d += time.Duration(rand.Int64N(int64(d)))

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
