// internal/app/system/limits/limits.go
package limits

// Request body size limits.
const (
	// MaxJSONBody caps every JSON request payload.
	MaxJSONBody = 64 << 10 // 64 KB

	// MaxMessageBody caps chat and private message payloads. Content itself is
	// further limited to models.MaxMessageLength runes.
	MaxMessageBody = 16 << 10 // 16 KB

	// MaxRequestMessage is the longest note a student may attach to a request.
	MaxRequestMessage = 1000
)
