package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainSnapshot = "featuregraph/snapshot/v1"
	DomainPass     = "featuregraph/pass/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte (0x00) separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// SnapshotHash computes the checksum stored alongside a persisted snapshot.
// Two snapshots hash equal iff their canonical forms are identical.
func SnapshotHash(s DocumentSnapshot) (string, error) {
	canonical, err := MarshalCanonical(s.ToIR())
	if err != nil {
		return "", fmt.Errorf("SnapshotHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainSnapshot, canonical), nil
}

// PassHash computes a content hash over the ordered steps of a pass.
// The token and seq are excluded so two runs over equal graphs compare equal.
func PassHash(p PassRecord) (string, error) {
	steps := make(IRArray, len(p.Steps))
	for i, st := range p.Steps {
		steps[i] = st.ToIR()
	}
	canonical, err := MarshalCanonical(IRObject{
		"document": IRString(p.Document),
		"steps":    steps,
	})
	if err != nil {
		return "", fmt.Errorf("PassHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainPass, canonical), nil
}

// ToIR converts the snapshot to an IRObject for canonical serialization.
func (s DocumentSnapshot) ToIR() IRObject {
	objects := make(IRArray, len(s.Objects))
	for i, rec := range s.Objects {
		props := make(IRArray, len(rec.Properties))
		for j, p := range rec.Properties {
			value := p.Value
			if value == nil {
				value = IRString("")
			}
			props[j] = IRObject{
				"name":  IRString(p.Name),
				"kind":  IRString(p.Kind),
				"value": value,
			}
		}
		links := make(IRArray, len(rec.Links))
		for j, l := range rec.Links {
			targets := make(IRArray, len(l.Targets))
			for k, t := range l.Targets {
				targets[k] = IRString(t)
			}
			links[j] = IRObject{
				"property": IRString(l.Property),
				"kind":     IRString(l.Kind),
				"targets":  targets,
			}
		}
		obj := IRObject{
			"name":       IRString(rec.Name),
			"type":       IRString(rec.Type),
			"label":      IRString(rec.Label),
			"status":     IRInt(rec.Status),
			"properties": props,
			"links":      links,
		}
		if rec.Error != nil {
			obj["error"] = IRObject{
				"reason": IRString(rec.Error.Reason),
				"which":  IRString(rec.Error.Which),
			}
		}
		objects[i] = obj
	}
	return IRObject{
		"name":    IRString(s.Name),
		"objects": objects,
	}
}

// ToIR converts a step to an IRObject, omitting empty fields.
func (s StepRecord) ToIR() IRObject {
	obj := IRObject{
		"object": IRString(s.Object),
		"action": IRString(s.Action),
	}
	if s.Outcome != "" {
		obj["outcome"] = IRString(s.Outcome)
	}
	if s.Reason != "" {
		obj["reason"] = IRString(s.Reason)
	}
	if s.Which != "" {
		obj["which"] = IRString(s.Which)
	}
	return obj
}
