package types

// MessageType discriminates the JSON objects exchanged after the handshake.
type MessageType string

const (
	MessageKey      MessageType = "KEY"
	MessageKeyOK    MessageType = "KEY-OK"
	MessageData     MessageType = "DATA"
	MessageAck      MessageType = "ACK"
	MessageNack     MessageType = "NACK"
	MessageDownload MessageType = "DOWNLOAD"
)

// NackReason is the only failure detail a server discloses.
type NackReason string

const (
	NackAuth     NackReason = "auth"
	NackNotFound NackReason = "not_found"
)

// Message is the wire-format object carried in one frame. []byte fields are
// base64-encoded automatically; Hash is a hex SHA-512 digest.
//
// An empty Message (Type == "") means the peer closed without sending.
type Message struct {
	Type          MessageType `json:"type"`
	EncSessionKey []byte      `json:"enc_sk,omitempty"`
	IV            []byte      `json:"iv,omitempty"`
	Cipher        []byte      `json:"cipher,omitempty"`
	Hash          string      `json:"hash,omitempty"`
	Sig           []byte      `json:"sig,omitempty"`
	Meta          []byte      `json:"meta,omitempty"`
	File          string      `json:"file,omitempty"`
	Err           NackReason  `json:"err,omitempty"`
	Retry         int         `json:"retry,omitempty"`
}

// Envelope returns the data-transfer fields of m.
func (m Message) Envelope() Envelope {
	return Envelope{
		IV:                  m.IV,
		Ciphertext:          m.Cipher,
		ContentHash:         m.Hash,
		MetadataSignature:   m.Sig,
		MetadataBytes:       m.Meta,
		EncryptedSessionKey: m.EncSessionKey,
	}
}

// DataMessage wraps env in a DATA message. The session key is only included
// when withKey is set (downloads carry it inline, uploads send it in KEY).
func DataMessage(env Envelope, withKey bool) Message {
	m := Message{
		Type:   MessageData,
		IV:     env.IV,
		Cipher: env.Ciphertext,
		Hash:   env.ContentHash,
		Sig:    env.MetadataSignature,
		Meta:   env.MetadataBytes,
	}
	if withKey {
		m.EncSessionKey = env.EncryptedSessionKey
	}
	return m
}
