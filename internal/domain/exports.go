package domain

import (
	interfaces "cipherxfer/internal/domain/interfaces"
	types "cipherxfer/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	Role        = types.Role
	Fingerprint = types.Fingerprint
	Identity    = types.Identity
	Keyring     = types.Keyring
	Metadata    = types.Metadata
	Envelope    = types.Envelope
	Message     = types.Message
	MessageType = types.MessageType
	NackReason  = types.NackReason
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	IdentityStore  = interfaces.IdentityStore
	BlobStore      = interfaces.BlobStore
	KeyringService = interfaces.KeyringService
	TransferClient = interfaces.TransferClient
)

const (
	RoleClient = types.RoleClient
	RoleServer = types.RoleServer

	MessageKey      = types.MessageKey
	MessageKeyOK    = types.MessageKeyOK
	MessageData     = types.MessageData
	MessageAck      = types.MessageAck
	MessageNack     = types.MessageNack
	MessageDownload = types.MessageDownload

	NackAuth     = types.NackAuth
	NackNotFound = types.NackNotFound

	HelloToken = types.HelloToken
	ReadyToken = types.ReadyToken
)

// DataMessage wraps an envelope in a DATA message.
func DataMessage(env Envelope, withKey bool) Message { return types.DataMessage(env, withKey) }
