package models

// ProofPayload is the JSON document stored in the proof store. Its own content hash is
// what gets submitted on-chain as proofHash.
type ProofPayload struct {
	Image       string `json:"image"`
	ImageURL    string `json:"imageUrl"`
	Description string `json:"description"`
	Timestamp   int64  `json:"timestamp"` // unix milliseconds
}

// PinResult is what a proof store returns for one stored object.
type PinResult struct {
	Hash string `json:"hash"`
	URL  string `json:"url"`
}
