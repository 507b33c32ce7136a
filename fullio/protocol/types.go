package protocol

type MessageType uint8

const (
	MessageTypeHello    MessageType = 1
	MessageTypeData     MessageType = 2
	MessageTypeManifest MessageType = 3
	MessageTypeChunk    MessageType = 4
	MessageTypeClose    MessageType = 5
)

func (t MessageType) String() string {
	switch t {
	case MessageTypeHello:
		return "HELLO"
	case MessageTypeData:
		return "DATA"
	case MessageTypeManifest:
		return "MANIFEST"
	case MessageTypeChunk:
		return "CHUNK"
	case MessageTypeClose:
		return "CLOSE"
	default:
		return "UNKNOWN"
	}
}
