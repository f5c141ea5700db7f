package ir

// DocumentSnapshot is the persisted form of a document: every object with
// its property values, link targets (by name) and status baseline.
// Transient status bits are never part of a snapshot.
type DocumentSnapshot struct {
	Name    string         `json:"name"`
	Objects []ObjectRecord `json:"objects"` // insertion order
}

// ObjectRecord is one object inside a DocumentSnapshot.
type ObjectRecord struct {
	Name       string           `json:"name"`
	Type       string           `json:"type"`
	Label      string           `json:"label"`
	Status     uint32           `json:"status"` // baseline bits only
	Error      *ErrorRecord     `json:"error,omitempty"`
	Properties []PropertyRecord `json:"properties"`
	Links      []LinkRecord     `json:"links"`
}

// ErrorRecord is a stored computation failure.
type ErrorRecord struct {
	Reason string `json:"reason"`
	Which  string `json:"which"` // object that detected the failure
}

// PropertyRecord is a non-link property value.
type PropertyRecord struct {
	Name  string       `json:"name"`
	Kind  PropertyKind `json:"kind"`
	Value IRValue      `json:"value"`
}

// LinkRecord is a link property with its targets in order.
type LinkRecord struct {
	Property string       `json:"property"`
	Kind     PropertyKind `json:"kind"`
	Targets  []string     `json:"targets"`
}

// PassRecord is the persisted summary of one recompute pass.
type PassRecord struct {
	Token    string       `json:"token"`
	Seq      int64        `json:"seq"`
	Document string       `json:"document"`
	Steps    []StepRecord `json:"steps"`
}

// StepRecord is one object visited during a pass.
type StepRecord struct {
	Object  string `json:"object"`
	Action  string `json:"action"`            // "executed", "skipped", "opted_out"
	Outcome string `json:"outcome,omitempty"` // set when Action is "executed"
	Reason  string `json:"reason,omitempty"`
	Which   string `json:"which,omitempty"`
}
