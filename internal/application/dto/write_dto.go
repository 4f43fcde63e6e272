package dto

// BatchOpDTO operación de lote.
type BatchOpDTO struct {
	Op   string         `json:"op"`
	Path string         `json:"path"`
	Data map[string]any `json:"data,omitempty"`
}

// BatchWriteRequest cuerpo de POST /api/batch-write.
type BatchWriteRequest struct {
	Ops   []BatchOpDTO `json:"ops"`
	Merge bool         `json:"merge"`
}

// BatchWriteResponse operaciones confirmadas.
type BatchWriteResponse struct {
	Applied int `json:"applied"`
}

// BatchWritePartialResponse fallo a mitad de lote: los trozos anteriores ya quedaron confirmados.
type BatchWritePartialResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Applied int    `json:"applied"`
}

// RateLimitedWriteRequest cuerpo de POST /api/rate-limited-write.
type RateLimitedWriteRequest struct {
	Action    string         `json:"action"`
	Limit     int            `json:"limit,omitempty"`
	WindowSec int            `json:"windowSec,omitempty"`
	WritePath string         `json:"writePath,omitempty"`
	WriteData map[string]any `json:"writeData,omitempty"`
}

// RateLimitedWriteResponse resultado de la escritura limitada.
type RateLimitedWriteResponse struct {
	Success bool `json:"success"`
	Wrote   bool `json:"wrote"`
}
