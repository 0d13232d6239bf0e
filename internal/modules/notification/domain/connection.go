package domain

type ConnectionState int

const (
	Disconnected ConnectionState = iota
	Connecting
	Connected
)

func (s ConnectionState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Close codes used on the push channel.
const (
	CloseNormal       = 1000
	CloseAbnormal     = 1006
	CloseUnauthorized = 4001
)
