package auctionservice

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	auctiondb "github.com/draftline/auctioneer/app/modules/auction/infrastructure/repositories"
	auctionutil "github.com/draftline/auctioneer/app/modules/auction/utils"
)

// DB is the slice of *bun.DB the service needs: plain queries plus
// transactional scoping for Apply.
type DB interface {
	bun.IDB
	RunInTx(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context, tx bun.Tx) error) error
}

// AuthGate confirms the caller holds the operator/committee role before
// any settlement mutation. Implementations must fail closed.
type AuthGate interface {
	RequireOperator(ctx context.Context, operatorID string) error
}

// Config carries the settlement timing windows.
type Config struct {
	// TiebreakerWindow is the single-tiebreaker bidding window.
	TiebreakerWindow time.Duration
	// BulkMaxWindow is the outer deadline for a Last Person Standing auction.
	BulkMaxWindow time.Duration
}

const (
	defaultTiebreakerWindow = 60 * time.Minute
	defaultBulkMaxWindow    = 24 * time.Hour
)

// SettlementService is the auction round settlement engine: winner
// resolution, tiebreakers, fallback allocation, and the two-phase
// preview/apply commit.
type SettlementService struct {
	db           DB
	roundDB      auctiondb.RoundDB
	tiebreakerDB auctiondb.TiebreakerDB
	bulkDB       auctiondb.BulkTiebreakerDB
	allocationDB auctiondb.AllocationDB
	publisher    message.Publisher
	logger       *slog.Logger
	auth         AuthGate
	cipher       auctionutil.BidCipher
	cfg          Config

	clock    func() time.Time
	newID    func() uuid.UUID
	randIntn func(n int) int
}

// NewSettlementService creates a new SettlementService.
func NewSettlementService(
	db DB,
	roundDB auctiondb.RoundDB,
	tiebreakerDB auctiondb.TiebreakerDB,
	bulkDB auctiondb.BulkTiebreakerDB,
	allocationDB auctiondb.AllocationDB,
	publisher message.Publisher,
	logger *slog.Logger,
	auth AuthGate,
	cipher auctionutil.BidCipher,
	cfg Config,
) *SettlementService {
	if cfg.TiebreakerWindow <= 0 {
		cfg.TiebreakerWindow = defaultTiebreakerWindow
	}
	if cfg.BulkMaxWindow <= 0 {
		cfg.BulkMaxWindow = defaultBulkMaxWindow
	}
	return &SettlementService{
		db:           db,
		roundDB:      roundDB,
		tiebreakerDB: tiebreakerDB,
		bulkDB:       bulkDB,
		allocationDB: allocationDB,
		publisher:    publisher,
		logger:       logger,
		auth:         auth,
		cipher:       cipher,
		cfg:          cfg,
		clock:        time.Now,
		newID:        uuid.New,
		randIntn:     rand.Intn,
	}
}

// requireOperator wraps the authorization gate, failing closed when the
// gate itself errors.
func (s *SettlementService) requireOperator(ctx context.Context, operatorID string) error {
	if s.auth == nil {
		return ErrUnauthorized
	}
	if err := s.auth.RequireOperator(ctx, operatorID); err != nil {
		s.logger.WarnContext(ctx, "Operator authorization rejected",
			slog.String("operator_id", operatorID),
			slog.Any("error", err),
		)
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return nil
}

// publishEvent publishes best-effort: failures are logged and swallowed
// so a notification outage can never roll back a settlement.
func (s *SettlementService) publishEvent(ctx context.Context, topic string, payload any) {
	if s.publisher == nil {
		return
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to marshal event payload",
			slog.String("topic", topic),
			slog.Any("error", err),
		)
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), payloadBytes)
	msg.Metadata.Set(middleware.CorrelationIDMetadataKey, watermill.NewUUID())
	if err := s.publisher.Publish(topic, msg); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish event",
			slog.String("topic", topic),
			slog.String("message_id", msg.UUID),
			slog.Any("error", err),
		)
		return
	}
	s.logger.DebugContext(ctx, "Event published",
		slog.String("topic", topic),
		slog.String("message_id", msg.UUID),
	)
}

// writeAudit records one audit entry per operator action. Audit write
// failures outside a transaction are logged, not escalated.
func (s *SettlementService) writeAudit(ctx context.Context, db bun.IDB, entry *auctiondb.AuditLog) {
	if err := s.allocationDB.InsertAuditLog(ctx, db, entry); err != nil {
		s.logger.ErrorContext(ctx, "Failed to write audit entry",
			slog.String("action", entry.Action),
			slog.String("round_id", entry.RoundID.String()),
			slog.Any("error", err),
		)
	}
}
