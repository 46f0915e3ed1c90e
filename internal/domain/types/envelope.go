package types

// Metadata describes a transferred file. Fields are declared in sorted key
// order so encoding/json produces the canonical bytes that get signed.
type Metadata struct {
	Name      string `json:"name"`
	Size      int64  `json:"size"`
	Timestamp int64  `json:"timestamp"`
}

// Envelope is one encrypted, authenticated file transfer.
//
// ContentHash must equal hex(SHA-512(IV || Ciphertext)) and MetadataSignature
// must verify over MetadataBytes before anything else is trusted.
type Envelope struct {
	IV                  []byte
	Ciphertext          []byte
	ContentHash         string
	MetadataSignature   []byte
	MetadataBytes       []byte
	EncryptedSessionKey []byte
}
