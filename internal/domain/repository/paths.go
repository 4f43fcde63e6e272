package repository

import "strings"

// ValidDocumentPath una ruta de documento tiene un número par de segmentos no vacíos.
func ValidDocumentPath(path string) bool {
	if path == "" || strings.HasPrefix(path, "/") || strings.HasSuffix(path, "/") {
		return false
	}
	parts := strings.Split(path, "/")
	if len(parts)%2 != 0 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
	}
	return true
}

// ParentCollection "a/b/c/d" -> "a/b/c".
func ParentCollection(path string) string {
	i := strings.LastIndex(path, "/")
	if i < 0 {
		return ""
	}
	return path[:i]
}

// RootCollection primer segmento de la ruta.
func RootCollection(path string) string {
	if i := strings.Index(path, "/"); i >= 0 {
		return path[:i]
	}
	return path
}
