// services/proof_service.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"time"

	"findchain-api/models"
	"findchain-api/utils"
)

var proofHashRe = regexp.MustCompile(`^[A-Za-z0-9]{32,128}$`)

type ProofService struct {
	Store ProofStore
	Now   func() time.Time
}

func NewProofService(store ProofStore) *ProofService {
	return &ProofService{Store: store, Now: time.Now}
}

// Upload pins the image, then the proof document referencing it, and returns the document's
// hash. Inputs are validated before anything is uploaded; any stage failure aborts.
func (s *ProofService) Upload(ctx context.Context, image *utils.UploadedFile, description string) (string, *models.ProofPayload, error) {
	if image == nil || len(image.Data) == 0 {
		return "", nil, invalid("image", "image is required")
	}
	description = normalizeText(description)
	if description == "" {
		return "", nil, invalid("description", "description is required")
	}

	img, err := s.Store.PinFile(ctx, image)
	if err != nil {
		return "", nil, fmt.Errorf("failed to upload proof image: %w", err)
	}

	payload := &models.ProofPayload{
		Image:       img.Hash,
		ImageURL:    img.URL,
		Description: description,
		Timestamp:   s.Now().UnixMilli(),
	}
	doc, err := s.Store.PinJSON(ctx, payload)
	if err != nil {
		return "", nil, fmt.Errorf("failed to upload proof document: %w", err)
	}

	log.Printf("📎 [PROOF] Stored proof %s (image %s)", doc.Hash, img.Hash)
	return doc.Hash, payload, nil
}

// Fetch resolves a proof hash to its document.
func (s *ProofService) Fetch(ctx context.Context, hash string) (*models.ProofPayload, error) {
	if !proofHashRe.MatchString(hash) {
		return nil, invalid("hash", "invalid proof hash")
	}
	data, err := s.Store.Fetch(ctx, hash)
	if err != nil {
		return nil, err
	}
	var payload models.ProofPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, &UpstreamError{Service: "proof store", Message: "proof is not a valid document", Err: err}
	}
	return &payload, nil
}
