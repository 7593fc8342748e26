// Package auth stellt die Anbindung an den externen Identity-Service dar.
// Der HTTP-Layer löst die Identität auf und legt sie in den Request-Context;
// alle Services fragen den aktuellen Owner nur über OwnerProvider ab.
package auth

import (
	"context"
	"errors"
)

// ErrUnauthenticated wird zurückgegeben, wenn kein Owner im Context steht.
var ErrUnauthenticated = errors.New("kein authentifizierter owner")

// OwnerProvider liefert die Identität, unter der Queries, Credentials und
// Results gespeichert werden.
type OwnerProvider interface {
	CurrentOwner(ctx context.Context) (string, error)
}

type ownerKey struct{}

// WithOwner legt die Owner-ID in den Context.
func WithOwner(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerKey{}, ownerID)
}

// OwnerFromContext liest die Owner-ID aus dem Context.
func OwnerFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ownerKey{}).(string)
	return id, ok && id != ""
}

// ContextProvider ist die Standard-Implementierung von OwnerProvider: die
// Identität kommt aus dem Request-Context, gesetzt von der HTTP-Middleware.
type ContextProvider struct{}

// CurrentOwner gibt die Owner-ID aus dem Context zurück.
func (ContextProvider) CurrentOwner(ctx context.Context) (string, error) {
	id, ok := OwnerFromContext(ctx)
	if !ok {
		return "", ErrUnauthenticated
	}
	return id, nil
}
