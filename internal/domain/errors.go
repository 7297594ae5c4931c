package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound              = errors.New("recurso no encontrado")
	ErrInvalidInput          = errors.New("entrada inválida")
	ErrDuplicate             = errors.New("recurso duplicado")
	ErrConflict              = errors.New("conflicto con el estado actual")
	ErrInvalidOperation      = errors.New("operación no permitida")
	ErrInsufficientStock     = errors.New("stock físico insuficiente")
	ErrInsufficientAvailable = errors.New("stock disponible insuficiente (reservas activas)")
	ErrUnauthorized          = errors.New("no autorizado")
)
