package models

// EntityStatus: produtos, clientes e funcionários nunca são apagados fisicamente.
// INACTIVE esconde o registro das consultas padrão preservando o histórico.
type EntityStatus string

const (
	StatusActive   EntityStatus = "ACTIVE"
	StatusInactive EntityStatus = "INACTIVE"
)
