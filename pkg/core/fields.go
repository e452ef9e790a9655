// pkg/core/fields.go
package core

// CommandFields is the flat, serializable form of a command. Identifiers a
// variant does not carry are nil.
type CommandFields struct {
	Kind             CommandKind `json:"kind" bson:"kind"`
	Tick             uint32      `json:"tick" bson:"tick"`
	PGBID            *uint32     `json:"pgbid,omitempty" bson:"pgbid,omitempty"`
	SourceIdentifier *uint16     `json:"sourceIdentifier,omitempty" bson:"sourceIdentifier,omitempty"`
	QueueIndex       *uint32     `json:"queueIndex,omitempty" bson:"queueIndex,omitempty"`
	Action           *uint8      `json:"action,omitempty" bson:"action,omitempty"`
	Raw              []byte      `json:"raw,omitempty" bson:"raw,omitempty"`
}

// FieldsOf flattens c.
func FieldsOf(c Command) CommandFields {
	f := CommandFields{Kind: c.Kind(), Tick: c.TickIndex()}
	switch v := c.(type) {
	case BuildGlobalUpgrade:
		f.PGBID = &v.PGBID
	case BuildSquad:
		f.PGBID = &v.PGBID
		f.SourceIdentifier = &v.SourceIdentifier
	case CancelConstruction:
		f.SourceIdentifier = &v.SourceIdentifier
	case CancelProduction:
		f.SourceIdentifier = &v.SourceIdentifier
		f.QueueIndex = &v.QueueIndex
	case SelectBattlegroup:
		f.PGBID = &v.PGBID
	case SelectBattlegroupAbility:
		f.PGBID = &v.PGBID
	case UseAbility:
		f.PGBID = &v.PGBID
		f.SourceIdentifier = &v.SourceIdentifier
	case UseBattlegroupAbility:
		f.PGBID = &v.PGBID
	case Unknown:
		f.Action = &v.Action
		f.Raw = v.Raw
	}
	return f
}
