package entity

// CollectionRateLimits contadores de ventana fija por principal+acción.
const CollectionRateLimits = "rate_limits"

// RateLimitCounter contador de la ventana actual; WindowStart en epoch ms.
type RateLimitCounter struct {
	Count       int   `json:"count"`
	WindowStart int64 `json:"windowStart"`
}

// RateLimitKey clave "principal__acción".
func RateLimitKey(principal, action string) string {
	return principal + "__" + action
}

// RateLimitPath ruta del contador.
func RateLimitPath(principal, action string) string {
	return CollectionRateLimits + "/" + RateLimitKey(principal, action)
}
