package model

import (
	"github.com/google/uuid"
)

// assignID gives a new row its primary key before insert. Keys are generated
// here rather than by the database so every supported driver behaves alike.
func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
