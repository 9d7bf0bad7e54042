package model

// LogRecord is one encoded pool observation, laid out like an EVM log so the
// same decoders and sinks work for recorded and indexed data.
type LogRecord struct {
	Seq        uint64   `json:"seq"`
	TxHash     string   `json:"tx_hash"`
	LogIndex   uint64   `json:"log_index"`
	Address    string   `json:"address"`
	Topics     []string `json:"topics"`
	Data       string   `json:"data"`
	Timestamp  uint64   `json:"timestamp"`
	RecordedAt string   `json:"recorded_at"`
}
