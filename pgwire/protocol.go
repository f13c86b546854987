package pgwire

// Protocol version 3.0.
const ProtocolVersion int32 = 196608 // 3 << 16

// SSL request code sent by clients before the real startup message.
const SSLRequestCode int32 = 80877103

// Frontend (client → server) message types.
const (
	MsgPasswordMessage byte = 'p'
	MsgQuery           byte = 'Q'
	MsgTerminate       byte = 'X'
)

// Backend (server → client) message types.
const (
	MsgAuthentication     byte = 'R'
	MsgBackendKeyData     byte = 'K'
	MsgCommandComplete    byte = 'C'
	MsgDataRow            byte = 'D'
	MsgErrorResponse      byte = 'E'
	MsgEmptyQueryResponse byte = 'I'
	MsgNoticeResponse     byte = 'N'
	MsgParameterStatus    byte = 'S'
	MsgReadyForQuery      byte = 'Z'
	MsgRowDescription     byte = 'T'
)

// Authentication sub-types (carried inside 'R' messages).
const (
	AuthOk                int32 = 0
	AuthCleartextPassword int32 = 3
)

// Field type codes used in ErrorResponse and NoticeResponse bodies.
const (
	FieldSeverity         byte = 'S' // localized severity
	FieldSeverityNonLocal byte = 'V' // severity, never localized
	FieldCode             byte = 'C' // SQLSTATE code
	FieldMessage          byte = 'M' // primary message
)

// Severities for ErrorResponse and NoticeResponse.
const (
	SeverityError  = "ERROR"
	SeverityFatal  = "FATAL"
	SeverityNotice = "NOTICE"
)

// SQLSTATE code carried by notices (successful_completion).
const CodeSuccessfulCompletion = "00000"

// MaxMessageSize bounds the length of any single frontend message.
const MaxMessageSize = 1 << 24

// Transaction status indicators for ReadyForQuery.
const (
	TxIdle   byte = 'I'
	TxInTx   byte = 'T'
	TxFailed byte = 'E'
)

// StartupMessage is the initial message sent by the client after the TCP
// connection is established (and after an optional SSL negotiation).
type StartupMessage struct {
	ProtocolVersion int32
	Parameters      map[string]string
}

// ColumnInfo describes a single column in a RowDescription message.
type ColumnInfo struct {
	Name         string
	TableOID     int32
	ColumnAttr   int16
	DataTypeOID  int32
	DataTypeSize int16
	TypeModifier int32
	FormatCode   int16
}
