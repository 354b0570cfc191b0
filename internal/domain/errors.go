package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio base. Los errores tipados de abajo envuelven a estos centinelas
// para que los llamadores puedan usar errors.Is sin conocer el tipo concreto.
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrStatusTransition  = errors.New("transición de estado no permitida")
	ErrNotModifiable     = errors.New("documento no modificable")
	ErrIntegrity         = errors.New("inconsistencia interna")
)

// ValidationError violación estructural o de regla de negocio detectada antes de postear.
// LineNo es 0 cuando el error es de cabecera.
type ValidationError struct {
	Field  string
	LineNo int
	Reason string
}

func (e *ValidationError) Error() string {
	if e.LineNo > 0 {
		return fmt.Sprintf("validación: línea %d: %s: %s", e.LineNo, e.Field, e.Reason)
	}
	if e.Field != "" {
		return fmt.Sprintf("validación: %s: %s", e.Field, e.Reason)
	}
	return "validación: " + e.Reason
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// NewValidation atajo para errores de cabecera.
func NewValidation(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// NewLineValidation atajo para errores de una línea concreta.
func NewLineValidation(lineNo int, field, reason string) *ValidationError {
	return &ValidationError{Field: field, LineNo: lineNo, Reason: reason}
}

// InsufficientStockError nombra bodega, ítem, bucket, cantidad pedida y disponible.
type InsufficientStockError struct {
	WarehouseID string
	VariantID   string
	Bucket      string
	Requested   decimal.Decimal
	Available   decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente en bodega %s, variante %s (%s): solicitado %s, disponible %s, faltante %s",
		e.WarehouseID, e.VariantID, e.Bucket,
		e.Requested.String(), e.Available.String(), e.Shortfall().String())
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// Shortfall cantidad que falta para cubrir lo solicitado.
func (e *InsufficientStockError) Shortfall() decimal.Decimal {
	return e.Requested.Sub(e.Available)
}

// PermissionError el actor no tiene el rol requerido sobre la bodega.
type PermissionError struct {
	Actor       string
	WarehouseID string
	Role        string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permiso denegado: el usuario %s requiere el rol %s en la bodega %s", e.Actor, e.Role, e.WarehouseID)
}

func (e *PermissionError) Unwrap() error { return ErrForbidden }

// StatusTransitionError operación pedida desde un estado que no la admite.
type StatusTransitionError struct {
	DocID     string
	Current   string
	Requested string
}

func (e *StatusTransitionError) Error() string {
	return fmt.Sprintf("documento %s: no se puede pasar de %s a %s", e.DocID, e.Current, e.Requested)
}

func (e *StatusTransitionError) Unwrap() error { return ErrStatusTransition }

// ModificationError intento de modificar un documento que ya no está OPEN.
type ModificationError struct {
	DocID  string
	Status string
}

func (e *ModificationError) Error() string {
	return fmt.Sprintf("documento %s en estado %s no admite modificaciones", e.DocID, e.Status)
}

func (e *ModificationError) Unwrap() error { return ErrNotModifiable }

// NotFoundError recurso inexistente (o de otro tenant).
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s no encontrado", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// IntegrityError inconsistencia interna inesperada. Es fatal: nunca se corrige en silencio.
type IntegrityError struct {
	Detail string
}

func (e *IntegrityError) Error() string { return "integridad: " + e.Detail }

func (e *IntegrityError) Unwrap() error { return ErrIntegrity }

// PostingError falla al aplicar un documento al ledger; todo el documento se revierte.
// LineNo es 0 cuando la causa no pertenece a una línea concreta.
type PostingError struct {
	DocID  string
	LineNo int
	Cause  error
}

func (e *PostingError) Error() string {
	if e.LineNo > 0 {
		return fmt.Sprintf("posteo del documento %s falló en la línea %d: %v", e.DocID, e.LineNo, e.Cause)
	}
	return fmt.Sprintf("posteo del documento %s falló: %v", e.DocID, e.Cause)
}

func (e *PostingError) Unwrap() error { return e.Cause }
