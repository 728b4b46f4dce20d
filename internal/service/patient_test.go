package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashaconnect/ashaconnect/internal/model"
)

func newPatientFixture(t *testing.T) (*PatientService, *fakeTrigger) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := newTestStore(t)
	trigger := &fakeTrigger{}
	return NewPatientService(store, trigger, logger), trigger
}

func TestRegisterPatient(t *testing.T) {
	t.Parallel()
	patients, trigger := newPatientFixture(t)
	ctx := context.Background()

	p, err := patients.Register(ctx, RegisterPatientInput{
		Name:          "Sita Devi",
		Age:           28,
		Gender:        "female",
		Village:       "Rampur",
		ContactNumber: "+919876500010",
		Pregnant:      true,
		RegisteredBy:  "u1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.True(t, p.IsVulnerable())
	assert.Equal(t, 1, trigger.count)

	got, err := patients.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sita Devi", got.Name)
}

func TestRegisterPatientValidation(t *testing.T) {
	t.Parallel()
	patients, _ := newPatientFixture(t)
	ctx := context.Background()

	_, err := patients.Register(ctx, RegisterPatientInput{Name: "X", Age: 130, Gender: "female"})
	assert.ErrorIs(t, err, ErrInvalidAge)

	_, err = patients.Register(ctx, RegisterPatientInput{Name: "X", Age: -1, Gender: "female"})
	assert.ErrorIs(t, err, ErrInvalidAge)

	_, err = patients.Register(ctx, RegisterPatientInput{Name: "X", Age: 30, Gender: "unknown"})
	assert.ErrorIs(t, err, ErrInvalidGender)
}

func TestUpdatePatient(t *testing.T) {
	t.Parallel()
	patients, trigger := newPatientFixture(t)
	ctx := context.Background()

	p, err := patients.Register(ctx, RegisterPatientInput{
		Name: "Ram Kumar", Age: 40, Gender: "male", Village: "Rampur", RegisteredBy: "u1",
	})
	require.NoError(t, err)

	village := "Sitapur"
	age := 41
	updated, err := patients.Update(ctx, p.ID, UpdatePatientInput{
		Village: &village,
		Age:     &age,
	})
	require.NoError(t, err)
	assert.Equal(t, "Sitapur", updated.Village)
	assert.Equal(t, 41, updated.Age)
	assert.Equal(t, "Ram Kumar", updated.Name)
	assert.True(t, updated.UpdatedAt.After(p.CreatedAt) || updated.UpdatedAt.Equal(p.CreatedAt))
	assert.Equal(t, 2, trigger.count)

	badAge := 200
	_, err = patients.Update(ctx, p.ID, UpdatePatientInput{Age: &badAge})
	assert.ErrorIs(t, err, ErrInvalidAge)

	_, err = patients.Update(ctx, "missing", UpdatePatientInput{Village: &village})
	assert.ErrorIs(t, err, ErrPatientNotFound)
}

func TestListPatientsFilters(t *testing.T) {
	t.Parallel()
	patients, _ := newPatientFixture(t)
	ctx := context.Background()

	for _, in := range []RegisterPatientInput{
		{Name: "Sita Devi", Age: 28, Gender: "female", Village: "Rampur", RegisteredBy: "u1"},
		{Name: "Ram Kumar", Age: 40, Gender: "male", Village: "Rampur", RegisteredBy: "u1"},
		{Name: "Gita Bai", Age: 70, Gender: "female", Village: "Sitapur", RegisteredBy: "u1"},
	} {
		_, err := patients.Register(ctx, in)
		require.NoError(t, err)
	}

	rampur, err := patients.List(ctx, "Rampur", "", 10)
	require.NoError(t, err)
	assert.Len(t, rampur, 2)

	byName, err := patients.List(ctx, "", "Gita", 10)
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "Sitapur", byName[0].Village)
}

func TestRegisterQueuesWithPatientPriority(t *testing.T) {
	t.Parallel()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := newTestStore(t)
	patients := NewPatientService(store, nil, logger)
	ctx := context.Background()

	p, err := patients.Register(ctx, RegisterPatientInput{
		Name: "Sita Devi", Age: 28, Gender: "female", Village: "Rampur", RegisteredBy: "u1",
	})
	require.NoError(t, err)

	pending, err := store.PendingRecords(ctx, 10, time.Now().Add(time.Second))
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, model.RecordTypePatient, pending[0].RecordType)
	assert.Equal(t, p.ID, pending[0].RecordID)
	assert.Equal(t, 5, pending[0].Priority)
	assert.Equal(t, model.SyncOpCreate, pending[0].Operation)
}
