// Package memory is the patient memory graph service. It projects patient
// profiles, clinical events, consultations and reports onto the typed node
// and edge store, and reassembles them into per-patient context bundles.
package memory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"

	"github.com/sentinelcare/sentinel/store"
)

// ErrPatientNotFound marks an operation against an unknown patient.
// Callers must fail fast: there is no safe way to reason about a patient
// the graph has never seen.
var ErrPatientNotFound = errors.New("patient not found")

// Service exposes the patient memory graph.
type Service struct {
	store            *store.Store
	recentEventLimit int
}

// NewService creates a memory service over the given store.
func NewService(s *store.Store, recentEventLimit int) *Service {
	if recentEventLimit <= 0 {
		recentEventLimit = 20
	}
	return &Service{store: s, recentEventLimit: recentEventLimit}
}

// nodeID derives a deterministic node identifier. Re-registering the same
// patient fact therefore updates the existing node instead of duplicating it.
func nodeID(nodeType store.NodeType, patientID, name string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%s:%s", nodeType, patientID, strings.ToLower(strings.TrimSpace(name)))))
	return hex.EncodeToString(sum[:])[:12]
}

// PatientNodeID returns the graph node ID for a patient identifier.
func PatientNodeID(patientID string) string {
	return nodeID(store.NodeTypePatient, patientID, patientID)
}

// AddPatient registers a patient profile in the graph. The operation is
// idempotent: calling it again with the same profile rewrites the same nodes.
func (s *Service) AddPatient(ctx context.Context, profile *PatientProfile) (*store.Node, error) {
	if profile == nil || profile.ID == "" {
		return nil, errors.New("patient profile requires an ID")
	}

	patient := &store.Node{
		ID:   PatientNodeID(profile.ID),
		Type: store.NodeTypePatient,
		Name: profile.Name,
		Properties: map[string]any{
			"patient_id": profile.ID,
			"age":        profile.Age,
			"room":       profile.Room,
		},
	}
	patient, err := s.store.UpsertNode(ctx, patient)
	if err != nil {
		return nil, err
	}

	type attribute struct {
		names    []string
		nodeType store.NodeType
		relation store.RelationType
	}
	attributes := []attribute{
		{profile.Conditions, store.NodeTypeCondition, store.RelationHasCondition},
		{profile.Medications, store.NodeTypeMedication, store.RelationHasMedication},
		{profile.Allergies, store.NodeTypeAllergy, store.RelationHasAllergy},
		{profile.RiskFactors, store.NodeTypeRiskFactor, store.RelationHasRiskFactor},
	}
	for _, attr := range attributes {
		for _, name := range attr.names {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			node := &store.Node{
				ID:   nodeID(attr.nodeType, profile.ID, name),
				Type: attr.nodeType,
				Name: name,
			}
			if _, err := s.store.UpsertNode(ctx, node); err != nil {
				return nil, err
			}
			edge := &store.Edge{Source: patient.ID, Target: node.ID, Relation: attr.relation}
			if _, err := s.store.UpsertEdge(ctx, edge); err != nil {
				return nil, err
			}
		}
	}

	if profile.Room != "" {
		room := &store.Node{
			ID:   nodeID(store.NodeTypeRoom, profile.ID, profile.Room),
			Type: store.NodeTypeRoom,
			Name: profile.Room,
		}
		if _, err := s.store.UpsertNode(ctx, room); err != nil {
			return nil, err
		}
		edge := &store.Edge{Source: patient.ID, Target: room.ID, Relation: store.RelationLocatedIn}
		if _, err := s.store.UpsertEdge(ctx, edge); err != nil {
			return nil, err
		}
	}

	slog.Info("patient registered", "patient", profile.ID, "node", patient.ID)
	return patient, nil
}

// AddClinicalEvent records an event against a patient. High and critical
// events link through TRIGGERED_ALERT, everything else through
// OCCURRED_DURING. A zero timestamp defaults to now.
func (s *Service) AddClinicalEvent(ctx context.Context, event *ClinicalEvent) (*store.Node, error) {
	patient, err := s.requirePatient(ctx, event.PatientID)
	if err != nil {
		return nil, err
	}

	timestamp := event.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}
	if event.ID == "" {
		event.ID = shortuuid.New()
	}

	node := &store.Node{
		ID:          event.ID,
		Type:        store.NodeTypeEvent,
		Name:        event.Name,
		Description: event.Description,
		Properties: map[string]any{
			"severity":  strings.ToLower(event.Severity),
			"timestamp": timestamp.UTC().Format(time.RFC3339),
			"source":    event.Source,
		},
	}
	node, err = s.store.UpsertNode(ctx, node)
	if err != nil {
		return nil, err
	}

	relation := store.RelationOccurredDuring
	switch strings.ToLower(event.Severity) {
	case "high", "critical":
		relation = store.RelationTriggeredAlert
	}
	edge := &store.Edge{Source: node.ID, Target: patient.ID, Relation: relation}
	if _, err := s.store.UpsertEdge(ctx, edge); err != nil {
		return nil, err
	}
	return node, nil
}

// AddConsultation records a workflow phase outcome for a patient.
func (s *Service) AddConsultation(ctx context.Context, consultation *Consultation) (*store.Node, error) {
	patient, err := s.requirePatient(ctx, consultation.PatientID)
	if err != nil {
		return nil, err
	}

	timestamp := consultation.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}
	if consultation.ID == "" {
		consultation.ID = shortuuid.New()
	}

	node := &store.Node{
		ID:          consultation.ID,
		Type:        store.NodeTypeConsultation,
		Name:        consultation.Phase,
		Description: consultation.Summary,
		Properties: map[string]any{
			"phase":     consultation.Phase,
			"timestamp": timestamp.UTC().Format(time.RFC3339),
		},
	}
	node, err = s.store.UpsertNode(ctx, node)
	if err != nil {
		return nil, err
	}

	edge := &store.Edge{Source: node.ID, Target: patient.ID, Relation: store.RelationAttendedBy}
	if _, err := s.store.UpsertEdge(ctx, edge); err != nil {
		return nil, err
	}
	return node, nil
}

// AddReport records a rendered report reference for a patient.
func (s *Service) AddReport(ctx context.Context, report *Report) (*store.Node, error) {
	patient, err := s.requirePatient(ctx, report.PatientID)
	if err != nil {
		return nil, err
	}

	timestamp := report.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}
	if report.ID == "" {
		report.ID = shortuuid.New()
	}

	node := &store.Node{
		ID:          report.ID,
		Type:        store.NodeTypeReport,
		Name:        report.Kind,
		Description: report.Summary,
		Properties: map[string]any{
			"kind":      report.Kind,
			"path":      report.Path,
			"timestamp": timestamp.UTC().Format(time.RFC3339),
		},
	}
	node, err = s.store.UpsertNode(ctx, node)
	if err != nil {
		return nil, err
	}

	edge := &store.Edge{Source: node.ID, Target: patient.ID, Relation: store.RelationOccurredDuring}
	if _, err := s.store.UpsertEdge(ctx, edge); err != nil {
		return nil, err
	}
	return node, nil
}

// GetPatientContext assembles the full context bundle for a patient.
// It fails fast with ErrPatientNotFound for unknown patients and tolerates
// dangling edges, which are skipped with a warning.
func (s *Service) GetPatientContext(ctx context.Context, patientID string) (*ContextBundle, error) {
	patient, err := s.requirePatient(ctx, patientID)
	if err != nil {
		return nil, err
	}

	bundle := &ContextBundle{Patient: patient}

	outgoing, err := s.store.ListEdges(ctx, &store.FindEdge{Source: &patient.ID})
	if err != nil {
		return nil, err
	}
	for _, edge := range outgoing {
		node, err := s.store.GetNode(ctx, edge.Target)
		if err != nil {
			return nil, err
		}
		if node == nil {
			slog.Warn("dangling edge skipped", "source", edge.Source, "target", edge.Target, "relation", edge.Relation)
			continue
		}
		switch edge.Relation {
		case store.RelationHasCondition:
			bundle.Conditions = append(bundle.Conditions, node)
		case store.RelationHasMedication:
			bundle.Medications = append(bundle.Medications, node)
		case store.RelationHasAllergy:
			bundle.Allergies = append(bundle.Allergies, node)
		case store.RelationHasRiskFactor:
			bundle.RiskFactors = append(bundle.RiskFactors, node)
		case store.RelationLocatedIn:
			bundle.Room = node
		}
	}

	events, err := s.recentEvents(ctx, patient.ID)
	if err != nil {
		return nil, err
	}
	bundle.RecentEvents = events

	sortNodesByName(bundle.Conditions)
	sortNodesByName(bundle.Medications)
	sortNodesByName(bundle.Allergies)
	sortNodesByName(bundle.RiskFactors)
	return bundle, nil
}

// GetPatientSummary renders a deterministic plain-text digest of the bundle.
func (s *Service) GetPatientSummary(ctx context.Context, patientID string) (string, error) {
	bundle, err := s.GetPatientContext(ctx, patientID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Patient: %s", bundle.Patient.Name)
	if age, ok := bundle.Patient.Properties["age"]; ok {
		fmt.Fprintf(&b, " (age %v)", age)
	}
	if bundle.Room != nil {
		fmt.Fprintf(&b, ", room %s", bundle.Room.Name)
	}
	b.WriteString("\n")

	writeSection := func(label string, nodes []*store.Node) {
		if len(nodes) == 0 {
			return
		}
		names := make([]string, 0, len(nodes))
		for _, n := range nodes {
			names = append(names, n.Name)
		}
		fmt.Fprintf(&b, "%s: %s\n", label, strings.Join(names, ", "))
	}
	writeSection("Conditions", bundle.Conditions)
	writeSection("Medications", bundle.Medications)
	writeSection("Allergies", bundle.Allergies)
	writeSection("Risk factors", bundle.RiskFactors)

	if len(bundle.RecentEvents) > 0 {
		b.WriteString("Recent events:\n")
		for _, event := range bundle.RecentEvents {
			severity, _ := event.Properties["severity"].(string)
			timestamp, _ := event.Properties["timestamp"].(string)
			fmt.Fprintf(&b, "- [%s] %s (%s)\n", severity, event.Name, timestamp)
		}
	}
	return b.String(), nil
}

// requirePatient resolves a patient ID or fails with ErrPatientNotFound.
func (s *Service) requirePatient(ctx context.Context, patientID string) (*store.Node, error) {
	if patientID == "" {
		return nil, errors.Wrap(ErrPatientNotFound, "empty patient ID")
	}
	node, err := s.store.GetNode(ctx, PatientNodeID(patientID))
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, errors.Wrapf(ErrPatientNotFound, "patient %s", patientID)
	}
	return node, nil
}

// recentEvents returns the patient's events, most recent first, capped at
// the configured limit. Dangling edges are skipped.
func (s *Service) recentEvents(ctx context.Context, patientNodeID string) ([]*store.Node, error) {
	incoming, err := s.store.ListEdges(ctx, &store.FindEdge{Target: &patientNodeID})
	if err != nil {
		return nil, err
	}

	events := []*store.Node{}
	for _, edge := range incoming {
		if edge.Relation != store.RelationTriggeredAlert && edge.Relation != store.RelationOccurredDuring {
			continue
		}
		node, err := s.store.GetNode(ctx, edge.Source)
		if err != nil {
			return nil, err
		}
		if node == nil {
			slog.Warn("dangling edge skipped", "source", edge.Source, "target", edge.Target, "relation", edge.Relation)
			continue
		}
		if node.Type != store.NodeTypeEvent {
			continue
		}
		events = append(events, node)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return eventTimestamp(events[i]).After(eventTimestamp(events[j]))
	})
	if len(events) > s.recentEventLimit {
		events = events[:s.recentEventLimit]
	}
	return events, nil
}

func eventTimestamp(node *store.Node) time.Time {
	raw, _ := node.Properties["timestamp"].(string)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t
	}
	return time.Unix(node.CreatedTs, 0)
}

func sortNodesByName(nodes []*store.Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].Name < nodes[j].Name
	})
}
