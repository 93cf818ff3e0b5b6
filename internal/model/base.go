package model

import (
	"bytes"
	"encoding/json"

	"github.com/google/uuid"
)

// JSONMap represents a generic JSON object
type JSONMap map[string]interface{}

// Optional marks a request field as present or absent. A JSON null is
// present with a nil Value.
type Optional[T any] struct {
	Set   bool
	Value *T
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// Some returns a present Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: &v}
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID    uuid.UUID
	Email     string
	Role      Role
	IPAddress string
}

// Owns reports whether the actor is the patient identified by patientID.
func (a Actor) Owns(patientID uuid.UUID) bool {
	return a.UserID == patientID
}
