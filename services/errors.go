package services

import "errors"

// Fehler-Taxonomie des Suchlaufs. Adapter wickeln Store-Fehler in diese
// Sentinels; der Orchestrator lässt keinen davon über seine Außengrenze.
var (
	ErrAuthRequired = errors.New("auth required: kein authentifizierter owner")
	ErrPersistence  = errors.New("persistence failure")
	ErrClientInit   = errors.New("client init failure")
	ErrExtraction   = errors.New("extraction failure")
)
