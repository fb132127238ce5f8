package workers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"

	"findchain-api/contracts"
	"findchain-api/models"
	"findchain-api/services"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

const (
	EventCursorName    = "findchain_events"
	defaultSettleBatch = 200
)

// LogBackend is the part of ethclient.Client the indexer uses.
type LogBackend interface {
	BlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
}

// ChainIndexWorker scans contract logs into chain_events and settles found listings and claim
// outcomes into the points ledger.
type ChainIndexWorker struct {
	Backend  LogBackend
	ABI      abi.ABI
	Contract common.Address
	Index    *services.ChainIndexService
	Chain    services.ChainReader
	Points   *services.PointsService

	BlockWindow   uint64
	Confirmations uint64
	StartBlock    uint64
	SettleBatch   int
}

func NewChainIndexWorker(backend LogBackend, parsed abi.ABI, contract string, index *services.ChainIndexService, chain services.ChainReader, points *services.PointsService) *ChainIndexWorker {
	return &ChainIndexWorker{
		Backend:       backend,
		ABI:           parsed,
		Contract:      common.HexToAddress(contract),
		Index:         index,
		Chain:         chain,
		Points:        points,
		BlockWindow:   2000,
		Confirmations: 2,
		SettleBatch:   defaultSettleBatch,
	}
}

// RunOnce indexes every confirmed block after the cursor, then books found listings and
// settles pending claims.
func (w *ChainIndexWorker) RunOnce(ctx context.Context) error {
	latest, err := w.Backend.BlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("failed to read block number: %w", err)
	}
	if latest < w.Confirmations {
		return nil
	}
	head := latest - w.Confirmations

	last, ok, err := w.Index.Cursor(ctx, EventCursorName)
	if err != nil {
		return err
	}
	from := w.StartBlock
	if ok {
		from = last + 1
	}

	window := w.BlockWindow
	if window == 0 {
		window = 2000
	}

	for from <= head {
		to := from + window - 1
		if to > head {
			to = head
		}
		if err := w.indexRange(ctx, from, to); err != nil {
			// Cursor stays put; the same window is retried next run.
			return err
		}
		from = to + 1
	}

	if err := w.SettleListings(ctx); err != nil {
		return err
	}
	return w.SettleClaims(ctx)
}

func (w *ChainIndexWorker) topics() []common.Hash {
	ids := make([]common.Hash, 0, len(contracts.IndexedEvents))
	for _, name := range contracts.IndexedEvents {
		ids = append(ids, w.ABI.Events[name].ID)
	}
	return ids
}

func (w *ChainIndexWorker) indexRange(ctx context.Context, from, to uint64) error {
	logs, err := w.Backend.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: []common.Address{w.Contract},
		Topics:    [][]common.Hash{w.topics()},
	})
	if err != nil {
		return fmt.Errorf("failed to filter logs %d-%d: %w", from, to, err)
	}

	events := make([]models.ChainEvent, 0, len(logs))
	for _, l := range logs {
		if l.Removed {
			continue
		}
		ev, err := w.DecodeLog(l)
		if err != nil {
			log.Printf("⚠️ [INDEXER] skipping log %s#%d: %v", l.TxHash.Hex(), l.Index, err)
			continue
		}
		events = append(events, *ev)
	}

	if err := w.Index.StoreEvents(ctx, EventCursorName, events, to); err != nil {
		return err
	}
	if len(events) > 0 {
		log.Printf("📥 [INDEXER] blocks %d-%d: stored %d event(s)", from, to, len(events))
	}
	return nil
}

// DecodeLog maps one contract log to a ChainEvent using its indexed topics.
func (w *ChainIndexWorker) DecodeLog(l types.Log) (*models.ChainEvent, error) {
	if len(l.Topics) == 0 {
		return nil, errors.New("log has no topics")
	}
	event, err := w.ABI.EventByID(l.Topics[0])
	if err != nil {
		return nil, err
	}

	var indexed abi.Arguments
	for _, arg := range event.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	fields := make(map[string]interface{}, len(indexed))
	if err := abi.ParseTopicsIntoMap(fields, indexed, l.Topics[1:]); err != nil {
		return nil, fmt.Errorf("failed to parse %s topics: %w", event.Name, err)
	}

	ev := &models.ChainEvent{
		Kind:        models.ChainEventKind(event.Name),
		BlockNumber: l.BlockNumber,
		TxHash:      l.TxHash.Hex(),
		LogIndex:    l.Index,
	}
	switch event.Name {
	case contracts.EventDeviceMinted:
		ev.EntityID, ev.Actor = bigField(fields, "tokenId"), addrField(fields, "owner")
	case contracts.EventBountyCreated:
		ev.EntityID, ev.Actor = bigField(fields, "tokenId"), addrField(fields, "owner")
	case contracts.EventClaimSubmitted:
		ev.EntityID, ev.Actor = bigField(fields, "claimId"), addrField(fields, "finder")
		ev.RelatedID = bigField(fields, "tokenId")
	case contracts.EventOpenBountyCreated:
		ev.EntityID, ev.Actor = bigField(fields, "bountyId"), addrField(fields, "owner")
	case contracts.EventFoundListingCreated:
		ev.EntityID, ev.Actor = bigField(fields, "listingId"), addrField(fields, "finder")
	default:
		return nil, fmt.Errorf("event %s is not indexed", event.Name)
	}
	if ev.EntityID == "" {
		return nil, fmt.Errorf("%s log has no entity id", event.Name)
	}
	return ev, nil
}

func bigField(fields map[string]interface{}, name string) string {
	if v, ok := fields[name].(*big.Int); ok && v != nil {
		return v.String()
	}
	return ""
}

func addrField(fields map[string]interface{}, name string) string {
	if v, ok := fields[name].(common.Address); ok {
		return strings.ToLower(v.Hex())
	}
	return ""
}

// sweep visits every unsettled event of kind in id order, one page at a time, and marks an
// event settled when settle reports it done.
func (w *ChainIndexWorker) sweep(ctx context.Context, kind models.ChainEventKind, settle func(context.Context, models.ChainEvent) bool) error {
	limit := w.SettleBatch
	if limit <= 0 {
		limit = defaultSettleBatch
	}

	after := ""
	for {
		page, err := w.Index.UnsettledEvents(ctx, kind, after, limit)
		if err != nil {
			return err
		}
		for _, ev := range page {
			if !settle(ctx, ev) {
				continue
			}
			if err := w.Index.MarkSettled(ctx, ev.ID); err != nil {
				log.Printf("❌ [INDEXER] failed to mark %s %s settled: %v", kind, ev.EntityID, err)
			}
		}
		if len(page) < limit {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		after = page[len(page)-1].ID
	}
}

// SettleListings books found_posted points for every indexed found listing. A listing whose
// award fails stays unsettled and is retried on the next run.
func (w *ChainIndexWorker) SettleListings(ctx context.Context) error {
	return w.sweep(ctx, models.ChainEventFoundListingCreated, func(ctx context.Context, ev models.ChainEvent) bool {
		if _, _, err := w.Points.Award(ctx, ev.Actor, models.PointsKindFoundPosted,
			"listing:"+ev.EntityID, fmt.Sprintf("Posted found item #%s", ev.EntityID)); err != nil {
			log.Printf("❌ [INDEXER] failed to award points for listing %s: %v", ev.EntityID, err)
			return false
		}
		return true
	})
}

// SettleClaims re-reads unsettled NFT claims and books confirmed returns and rejections.
// A claim is marked settled only after its ledger entry is written.
func (w *ChainIndexWorker) SettleClaims(ctx context.Context) error {
	return w.sweep(ctx, models.ChainEventClaimSubmitted, func(ctx context.Context, ev models.ChainEvent) bool {
		claim, err := w.Chain.GetClaim(ctx, ev.EntityID)
		if err != nil {
			if !errors.Is(err, services.ErrNotFound) {
				log.Printf("⚠️ [INDEXER] getClaim(%s) failed: %v", ev.EntityID, err)
			}
			return false
		}
		if claim.Pending() {
			return false
		}

		kind, desc := models.PointsKindDeviceReturned, fmt.Sprintf("Returned device for token %s", claim.TokenID)
		if claim.Rejected {
			kind, desc = models.PointsKindClaimRejected, fmt.Sprintf("Claim rejected for token %s", claim.TokenID)
		}
		if _, _, err := w.Points.Award(ctx, claim.Finder, kind, "claim:"+ev.EntityID, desc); err != nil {
			log.Printf("❌ [INDEXER] failed to book claim %s: %v", ev.EntityID, err)
			return false
		}
		return true
	})
}
