// services/device_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"findchain-api/models"
	"findchain-api/utils"
)

// DeviceService joins indexer, contract and IMEI metadata into the device and bounty views.
type DeviceService struct {
	Chain       ChainReader
	Indexer     NFTIndexer
	Devices     DeviceInfoProvider
	Events      EventIndex
	Contract    string
	FanOutLimit int
}

func NewDeviceService(chain ChainReader, indexer NFTIndexer, devices DeviceInfoProvider, events EventIndex, contract string, fanOutLimit int) *DeviceService {
	return &DeviceService{
		Chain:       chain,
		Indexer:     indexer,
		Devices:     devices,
		Events:      events,
		Contract:    contract,
		FanOutLimit: fanOutLimit,
	}
}

// DeviceInfo resolves one IMEI. Unknown IMEIs are ErrNotFound.
func (s *DeviceService) DeviceInfo(ctx context.Context, imei string) (*models.DeviceInfo, error) {
	info, err := s.Devices.Lookup(ctx, imei)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, fmt.Errorf("Device not found in IMEI database: %w", ErrNotFound)
	}
	return info, nil
}

// UserDevices lists the devices address owns with brand/model resolved. Devices whose IMEI
// cannot be read or is malformed are dropped; devices whose lookup failed get placeholders.
// Only the indexer call can fail the request.
func (s *DeviceService) UserDevices(ctx context.Context, address string) (*models.UserDevicesResponse, error) {
	if address == "" {
		return nil, invalid("address", "Wallet address is required")
	}
	if !utils.IsHexAddress(address) {
		return nil, invalid("address", "Invalid wallet address format")
	}

	owned, err := s.Indexer.OwnedTokens(ctx, address, s.Contract)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch owned tokens: %w", err)
	}
	if len(owned.Tokens) == 0 {
		return &models.UserDevicesResponse{Devices: []models.DeviceMetadata{}, TotalCount: 0}, nil
	}

	imeiByToken := s.tokenIMEIs(ctx, owned.Tokens)

	var valid []string
	for _, tok := range owned.Tokens {
		if imei := imeiByToken[tok.TokenID]; utils.ValidIMEI(imei) {
			valid = append(valid, imei)
		}
	}
	infos := LookupMany(ctx, s.Devices, valid, s.FanOutLimit)
	infoByIMEI := make(map[string]*models.DeviceInfo, len(valid))
	for i, imei := range valid {
		if infos[i] != nil {
			infoByIMEI[imei] = infos[i]
		}
	}

	devices := make([]models.DeviceMetadata, 0, len(owned.Tokens))
	for _, tok := range owned.Tokens {
		imei := imeiByToken[tok.TokenID]
		if !utils.ValidIMEI(imei) {
			log.Printf("[DEVICES] ⚠️ Invalid IMEI for token %s, skipping", tok.TokenID)
			continue
		}

		info, ok := infoByIMEI[imei]
		if !ok {
			devices = append(devices, models.DeviceMetadata{
				TokenID:   tok.TokenID,
				IMEI:      imei,
				Brand:     models.UnknownBrand,
				Model:     models.UnknownModel,
				ModelName: models.UnknownModelName,
			})
			continue
		}
		devices = append(devices, models.DeviceMetadata{
			TokenID:   tok.TokenID,
			IMEI:      imei,
			Brand:     info.Brand,
			Model:     info.Model,
			ModelName: info.ModelName,
			MintedAt:  tok.MintedAt,
			MintBlock: tok.MintBlock,
		})
	}

	return &models.UserDevicesResponse{Devices: devices, TotalCount: len(devices)}, nil
}

// tokenIMEIs reads every token's IMEI. A failed read leaves an empty IMEI for that token.
func (s *DeviceService) tokenIMEIs(ctx context.Context, tokens []models.OwnedToken) map[string]string {
	imeis := make([]string, len(tokens))
	_ = fanOut(ctx, len(tokens), s.FanOutLimit, func(ctx context.Context, i int) error {
		imei, err := s.Chain.GetTokenIMEI(ctx, tokens[i].TokenID)
		if err != nil {
			log.Printf("[DEVICES] ⚠️ getTokenIMEI(%s) failed: %v", tokens[i].TokenID, err)
			return nil
		}
		imeis[i] = imei
		return nil
	})

	byToken := make(map[string]string, len(tokens))
	for i, tok := range tokens {
		byToken[tok.TokenID] = imeis[i]
	}
	return byToken
}

// BountyStatuses reads the bounty for each token. Any read failure is reported as no active
// bounty for that token only.
func (s *DeviceService) BountyStatuses(ctx context.Context, tokenIDs []string) map[string]models.BountyStatus {
	statuses := make([]models.BountyStatus, len(tokenIDs))
	_ = fanOut(ctx, len(tokenIDs), s.FanOutLimit, func(ctx context.Context, i int) error {
		statuses[i] = models.BountyStatus{Amount: "0"}
		b, err := s.Chain.GetBounty(ctx, tokenIDs[i])
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				log.Printf("[BOUNTY] ⚠️ getBounty(%s) failed: %v", tokenIDs[i], err)
			}
			return nil
		}
		statuses[i] = bountyStatus(b)
		return nil
	})

	out := make(map[string]models.BountyStatus, len(tokenIDs))
	for i, id := range tokenIDs {
		out[id] = statuses[i]
	}
	return out
}

func bountyStatus(b *models.Bounty) models.BountyStatus {
	amount := "0"
	if b.AmountWei != nil && b.AmountWei.Sign() > 0 {
		amount = utils.FormatEtherFixed(b.AmountWei, 4)
	}
	return models.BountyStatus{
		HasActiveBounty: b.Active,
		Amount:          amount,
		Location:        b.Location,
		Details:         b.Details,
	}
}

// ActiveBounties enumerates bounties from the event index, re-reads each live and keeps the
// active ones, newest first, with the device they were posted for.
func (s *DeviceService) ActiveBounties(ctx context.Context) ([]models.ActiveBounty, error) {
	tokenIDs, err := s.Events.EntityIDs(ctx, models.ChainEventBountyCreated)
	if err != nil {
		return nil, err
	}

	found := make([]*models.ActiveBounty, len(tokenIDs))
	_ = fanOut(ctx, len(tokenIDs), s.FanOutLimit, func(ctx context.Context, i int) error {
		b, err := s.Chain.GetBounty(ctx, tokenIDs[i])
		if err != nil || !b.Active {
			return nil
		}
		ab := &models.ActiveBounty{Bounty: *b, IsNFTVerified: true}
		ab.DeviceInfo = s.deviceFor(ctx, tokenIDs[i])
		found[i] = ab
		return nil
	})

	out := make([]models.ActiveBounty, 0, len(found))
	for _, ab := range found {
		if ab != nil {
			out = append(out, *ab)
		}
	}
	sortBountiesNewestFirst(out)
	return out, nil
}

// deviceFor returns nil when the token's IMEI cannot be read, placeholders when only the
// metadata lookup failed.
func (s *DeviceService) deviceFor(ctx context.Context, tokenID string) *models.DeviceInfo {
	imei, err := s.Chain.GetTokenIMEI(ctx, tokenID)
	if err != nil || !utils.ValidIMEI(imei) {
		return nil
	}
	info, err := s.Devices.Lookup(ctx, imei)
	if err != nil || info == nil {
		return &models.DeviceInfo{
			Brand:     models.UnknownBrand,
			Model:     models.UnknownModel,
			ModelName: models.UnknownModelName,
			IMEI:      imei,
		}
	}
	return info
}

// OwnedTokenIDs lists the token ids address holds, in indexer order.
func (s *DeviceService) OwnedTokenIDs(ctx context.Context, address string) ([]string, error) {
	owned, err := s.Indexer.OwnedTokens(ctx, address, s.Contract)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(owned.Tokens))
	for _, t := range owned.Tokens {
		ids = append(ids, t.TokenID)
	}
	return ids, nil
}
