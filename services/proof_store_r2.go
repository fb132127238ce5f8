// services/proof_store_r2.go
package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"findchain-api/models"
	"findchain-api/utils"

	"github.com/gosimple/slug"
)

// ObjectStorage is the bucket surface the R2 proof store needs.
type ObjectStorage interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
}

// R2ProofStore keeps proofs in an R2 bucket. Hashes are the sha256 hex of the stored bytes.
type R2ProofStore struct {
	Storage ObjectStorage
}

func NewR2ProofStore(storage ObjectStorage) *R2ProofStore {
	return &R2ProofStore{Storage: storage}
}

func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// PinFile stores images under proofs/images/<hash>/<slugged name>.
func (s *R2ProofStore) PinFile(ctx context.Context, file *utils.UploadedFile) (*models.PinResult, error) {
	hash := contentHash(file.Data)

	ext := strings.ToLower(path.Ext(file.Name))
	name := slug.Make(strings.TrimSuffix(file.Name, path.Ext(file.Name)))
	if name == "" {
		name = "image"
	}
	key := fmt.Sprintf("proofs/images/%s/%s%s", hash, name, ext)

	url, err := s.Storage.Put(ctx, key, file.Data, file.ContentType)
	if err != nil {
		return nil, &UpstreamError{Service: "r2", Message: "image upload", Err: err}
	}
	return &models.PinResult{Hash: hash, URL: url}, nil
}

// PinJSON stores the document under proofs/<hash>, which is what Fetch reads.
func (s *R2ProofStore) PinJSON(ctx context.Context, v interface{}) (*models.PinResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode proof document: %w", err)
	}
	hash := contentHash(data)

	url, err := s.Storage.Put(ctx, "proofs/"+hash, data, "application/json")
	if err != nil {
		return nil, &UpstreamError{Service: "r2", Message: "proof upload", Err: err}
	}
	return &models.PinResult{Hash: hash, URL: url}, nil
}

func (s *R2ProofStore) Fetch(ctx context.Context, hash string) ([]byte, error) {
	data, err := s.Storage.Get(ctx, "proofs/"+hash)
	if err != nil {
		if errors.Is(err, utils.ErrObjectNotFound) {
			return nil, fmt.Errorf("proof %s: %w", hash, ErrNotFound)
		}
		return nil, &UpstreamError{Service: "r2", Message: "proof download", Err: err}
	}
	return data, nil
}
