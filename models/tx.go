package models

// TxRequest is an unsigned contract call for the user's wallet to sign and send.
type TxRequest struct {
	ChainID  int64  `json:"chainId"`
	To       string `json:"to"`
	Data     string `json:"data"`  // 0x-prefixed calldata
	Value    string `json:"value"` // wei, decimal string
	Function string `json:"function"`
}

type TxState string

const (
	TxPending  TxState = "pending"
	TxSuccess  TxState = "success"
	TxReverted TxState = "reverted"
)

// TxReceipt summarises a transaction's confirmation state.
type TxReceipt struct {
	Hash        string  `json:"hash"`
	State       TxState `json:"state"`
	BlockNumber uint64  `json:"blockNumber,omitempty"`
	GasUsed     uint64  `json:"gasUsed,omitempty"`
	ExplorerURL string  `json:"explorerUrl"`
}
