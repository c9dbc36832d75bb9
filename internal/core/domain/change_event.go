package domain

import (
	"strconv"
	"time"
)

// EntityKind names the record a ChangeEvent refers to.
type EntityKind string

const (
	EntityUser    EntityKind = "user"
	EntityAllergy EntityKind = "allergy"
)

// ChangeAction describes what happened to the entity.
type ChangeAction string

const (
	ActionCreated          ChangeAction = "created"
	ActionUpdated          ChangeAction = "updated"
	ActionDeleted          ChangeAction = "deleted"
	ActionAllergyAssigned  ChangeAction = "allergy_assigned"
	ActionAllergyRemoved   ChangeAction = "allergy_removed"
	ActionAssignmentsReset ChangeAction = "assignments_cleared"
)

// ChangeEvent records a committed mutation. Relationship changes are keyed
// by the user (or allergy) whose assignments changed; RelatedID holds the
// other side when there is one.
type ChangeEvent struct {
	ID         string            `json:"id"`
	Entity     EntityKind        `json:"entity"`
	EntityID   int64             `json:"entity_id"`
	Action     ChangeAction      `json:"action"`
	RelatedID  int64             `json:"related_id,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// Key identifies the entity stream the event belongs to, e.g. "user:42".
func (e ChangeEvent) Key() string {
	return string(e.Entity) + ":" + strconv.FormatInt(e.EntityID, 10)
}
