package workflow

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinelcare/sentinel/internal/profile"
	"github.com/sentinelcare/sentinel/plugin/ai"
	"github.com/sentinelcare/sentinel/plugin/evolution"
	"github.com/sentinelcare/sentinel/plugin/vitals"
	"github.com/sentinelcare/sentinel/server/memory"
	"github.com/sentinelcare/sentinel/store"
	"github.com/sentinelcare/sentinel/store/db"
)

func newTestMemory(t *testing.T) *memory.Service {
	t.Helper()

	p := &profile.Profile{Mode: "dev", Data: t.TempDir(), Driver: "sqlite"}
	require.NoError(t, p.Validate())

	driver, err := db.NewDBDriver(p)
	require.NoError(t, err)
	testStore := store.New(driver, p)
	require.NoError(t, testStore.Migrate(context.Background()))
	t.Cleanup(func() {
		_ = testStore.Close()
	})
	return memory.NewService(testStore, 20)
}

func registerPatient(t *testing.T, svc *memory.Service) {
	t.Helper()
	_, err := svc.AddPatient(context.Background(), &memory.PatientProfile{
		ID:         "pat-001",
		Name:       "Marie Dupont",
		Age:        67,
		Room:       "204",
		Conditions: []string{"COPD"},
	})
	require.NoError(t, err)
}

func testInput() *SessionInput {
	return &SessionInput{
		PatientID: "pat-001",
		VitalLines: []string{
			"Time: 00:00 - HR: 64, SPO2: 97",
			"Time: 00:30 - HR: 135, SPO2: 96",
			"Time: 01:00 - HR: 70, SPO2: 95",
		},
		Symptoms:  []string{"chest pain"},
		ExamNotes: "patient alert, mild dyspnea",
	}
}

func TestRunSessionEndToEnd(t *testing.T) {
	ctx := context.Background()
	svc := newTestMemory(t)
	registerPatient(t, svc)

	mock := &ai.MockProvider{Responses: []string{
		"Quiet night overall.\n\nOne tachycardia alert was recorded.",
		"Stable day with chest pain reported.\n\nFollow-up advised.",
	}}
	reportDir := t.TempDir()
	engine := NewEngine(svc, mock, nil, Options{ReportDir: reportDir})

	state, err := engine.StartSession(ctx, "pat-001")
	require.NoError(t, err)
	assert.Contains(t, state.PatientContext, "Marie Dupont")

	require.NoError(t, engine.RunSession(ctx, state, testInput()))
	assert.Equal(t, PhaseCompleted, state.Phase)
	assert.Empty(t, state.Errors)

	require.NotNil(t, state.Night)
	require.Len(t, state.Night.Events, 1)
	assert.Equal(t, "TACHYCARDIA", state.Night.Events[0].Name)
	assert.Equal(t, 1, state.Night.AlertsTriggered)
	assert.Equal(t, 0, state.Night.CriticalAlerts)
	assert.Equal(t, 95.0, state.Night.SleepQuality)

	require.NotNil(t, state.Rap1Report)
	assert.False(t, state.Rap1Report.Degraded)
	assert.Equal(t, "Quiet night overall.", state.Rap1Report.Summary)
	assert.FileExists(t, state.Rap1Report.Path)

	// Chest pain resolves the cardio consultation rule set.
	require.NotNil(t, state.Day)
	assert.Equal(t, ConsultationCardio, state.Day.Mode)
	assert.Equal(t, evolution.SeverityHigh, state.Day.Severity)
	assert.NotEmpty(t, state.Day.Differential)

	require.NotNil(t, state.Rap2Report)
	// A new high finding (chest pain) dominates the trend.
	assert.Equal(t, evolution.TrendDegrading, state.Rap2Report.Trend)

	// Both LLM calls happened, in phase order.
	require.Len(t, mock.Requests, 2)
	assert.Contains(t, mock.Requests[0].Prompt, "TACHYCARDIA")
	assert.Contains(t, mock.Requests[1].Prompt, "chest pain")

	// Night event, day symptom, reports and consultations all persisted.
	bundle, err := svc.GetPatientContext(ctx, "pat-001")
	require.NoError(t, err)
	require.Len(t, bundle.RecentEvents, 2)

	files, err := os.ReadDir(reportDir)
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestRunSessionDegradesWhenProviderFails(t *testing.T) {
	ctx := context.Background()
	svc := newTestMemory(t)
	registerPatient(t, svc)

	mock := &ai.MockProvider{Err: ai.ErrTimeout}
	engine := NewEngine(svc, mock, nil, Options{})

	state, err := engine.StartSession(ctx, "pat-001")
	require.NoError(t, err)
	require.NoError(t, engine.RunSession(ctx, state, testInput()))

	// The session completes despite the inference failures.
	assert.Equal(t, PhaseCompleted, state.Phase)
	require.NotNil(t, state.Rap1Report)
	assert.True(t, state.Rap1Report.Degraded)
	assert.NotEmpty(t, state.Rap1Report.Body)
	require.NotNil(t, state.Rap2Report)
	assert.True(t, state.Rap2Report.Degraded)
	assert.Len(t, state.Errors, 2)
}

func TestRunSessionWithoutProvider(t *testing.T) {
	ctx := context.Background()
	svc := newTestMemory(t)
	registerPatient(t, svc)

	engine := NewEngine(svc, nil, nil, Options{})
	state, err := engine.StartSession(ctx, "pat-001")
	require.NoError(t, err)
	require.NoError(t, engine.RunSession(ctx, state, testInput()))

	assert.Equal(t, PhaseCompleted, state.Phase)
	assert.True(t, state.Rap1Report.Degraded)
	assert.NotEmpty(t, state.Warnings)
}

func TestRunSessionMissingInputsWarnsAndAdvances(t *testing.T) {
	ctx := context.Background()
	svc := newTestMemory(t)
	registerPatient(t, svc)

	mock := &ai.MockProvider{Responses: []string{"Nothing to report."}}
	engine := NewEngine(svc, mock, nil, Options{})

	state, err := engine.StartSession(ctx, "pat-001")
	require.NoError(t, err)
	require.NoError(t, engine.RunSession(ctx, state, &SessionInput{PatientID: "pat-001"}))

	assert.Equal(t, PhaseCompleted, state.Phase)
	assert.Empty(t, state.Errors)
	// Missing vitals and missing consultation input both warn.
	assert.GreaterOrEqual(t, len(state.Warnings), 2)
	assert.Equal(t, 100.0, state.Night.SleepQuality)
}

func TestRunSessionNilInputDefaults(t *testing.T) {
	ctx := context.Background()
	svc := newTestMemory(t)
	registerPatient(t, svc)

	engine := NewEngine(svc, nil, nil, Options{})
	state, err := engine.StartSession(ctx, "pat-001")
	require.NoError(t, err)

	// A nil input behaves like an empty one: warn and advance.
	require.NoError(t, engine.RunSession(ctx, state, nil))
	assert.Equal(t, PhaseCompleted, state.Phase)
	assert.GreaterOrEqual(t, len(state.Warnings), 2)
}

func TestNightNodeRetainsSignalsAndCounters(t *testing.T) {
	ctx := context.Background()
	svc := newTestMemory(t)
	registerPatient(t, svc)

	state := NewState("pat-001")
	state.Phase = PhaseNight
	base := time.Time{}

	node := &NightNode{
		memory:     svc,
		thresholds: vitals.DefaultThresholds(),
		policy:     vitals.SpanPolicy(15 * time.Minute),
	}
	input := &SessionInput{
		PatientID:  "pat-001",
		VitalLines: []string{"Time: 00:05 - SPO2: 82"},
		Signals: []SignalEvent{
			{Timestamp: base.Add(6 * time.Minute), Kind: SignalAudio, Label: "apnea", Confidence: 0.9},
			{Timestamp: base.Add(7 * time.Minute), Kind: SignalVision, Label: "agitation", Confidence: 0.4},
		},
	}
	require.NoError(t, node.Execute(ctx, state, input))

	require.NotNil(t, state.Night)
	// SpO2 82 is below the critical cutoff.
	assert.Equal(t, 1, state.Night.AlertsTriggered)
	assert.Equal(t, 1, state.Night.CriticalAlerts)
	assert.Equal(t, 1.0, state.Metrics["critical_alerts"])

	// Raw detections are retained split by modality.
	require.Len(t, state.Night.AudioEvents, 1)
	assert.Equal(t, "apnea", state.Night.AudioEvents[0].Label)
	require.Len(t, state.Night.VisionEvents, 1)
	assert.Equal(t, "agitation", state.Night.VisionEvents[0].Label)
}

func TestStartSessionUnknownPatient(t *testing.T) {
	svc := newTestMemory(t)
	engine := NewEngine(svc, nil, nil, Options{})

	_, err := engine.StartSession(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, errors.Is(err, memory.ErrPatientNotFound))
}

func TestCancellationAbortsBetweenPhases(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	svc := newTestMemory(t)
	registerPatient(t, svc)

	engine := NewEngine(svc, nil, nil, Options{})
	state, err := engine.StartSession(ctx, "pat-001")
	require.NoError(t, err)

	require.NoError(t, engine.Advance(ctx, state, testInput()))
	assert.Equal(t, PhaseNight, state.Phase)
	eventsBefore := countEvents(t, svc)

	cancel()
	err = engine.Advance(ctx, state, testInput())
	require.Error(t, err)
	assert.Equal(t, PhaseAborted, state.Phase)
	assert.Equal(t, 1.0, state.Metrics["aborted"])

	// No phase output was persisted after the cancellation.
	assert.Equal(t, eventsBefore, countEvents(t, svc))

	// An aborted session cannot advance.
	err = engine.Advance(context.Background(), state, testInput())
	assert.True(t, errors.Is(err, ErrSessionCompleted))
}

func TestNextSessionRequiresCompleted(t *testing.T) {
	ctx := context.Background()
	svc := newTestMemory(t)
	registerPatient(t, svc)

	engine := NewEngine(svc, nil, nil, Options{})
	state, err := engine.StartSession(ctx, "pat-001")
	require.NoError(t, err)

	_, err = engine.NextSession(ctx, state)
	assert.Error(t, err)

	require.NoError(t, engine.RunSession(ctx, state, testInput()))
	next, err := engine.NextSession(ctx, state)
	require.NoError(t, err)
	assert.NotEqual(t, state.SessionID, next.SessionID)
	assert.Equal(t, PhaseIdle, next.Phase)
}

func TestRunSessionsConcurrent(t *testing.T) {
	ctx := context.Background()
	svc := newTestMemory(t)

	for _, id := range []string{"pat-a", "pat-b", "pat-c"} {
		_, err := svc.AddPatient(ctx, &memory.PatientProfile{ID: id, Name: id})
		require.NoError(t, err)
	}

	mock := &ai.MockProvider{Responses: []string{"Report body."}}
	engine := NewEngine(svc, mock, nil, Options{MaxParallel: 2, LLMTimeout: 5 * time.Second})

	inputs := []*SessionInput{
		{PatientID: "pat-a", VitalLines: []string{"Time: 00:00 - HR: 72"}},
		{PatientID: "pat-b", VitalLines: []string{"Time: 00:00 - HR: 118"}},
		{PatientID: "pat-c"},
	}
	states, err := engine.RunSessions(ctx, inputs)
	require.NoError(t, err)
	require.Len(t, states, 3)
	for _, state := range states {
		require.NotNil(t, state)
		assert.Equal(t, PhaseCompleted, state.Phase)
	}
}

func countEvents(t *testing.T, svc *memory.Service) int {
	t.Helper()
	stats, err := svc.GraphStats(context.Background())
	require.NoError(t, err)
	return stats.NodesByType[store.NodeTypeEvent]
}
