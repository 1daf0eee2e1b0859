package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
)

type fakeImporter struct {
	fail map[string]bool
	seen []string
}

func (f *fakeImporter) Import(_ context.Context, req *model.ClinicImportRequest) (*model.CommitResult, error) {
	f.seen = append(f.seen, req.Name)
	if f.fail[req.Name] {
		return nil, errors.New("failed to create clinic")
	}
	return &model.CommitResult{ClinicID: uuid.New(), Slug: "x"}, nil
}

func TestDecodeImportFile(t *testing.T) {
	single, err := decodeImportFile([]byte(`{"name":"A","status":"Pending"}`))
	require.NoError(t, err)
	require.Len(t, single, 1)
	assert.Equal(t, "A", single[0].Name)

	many, err := decodeImportFile([]byte(` [{"name":"A"},{"name":"B"}] `))
	require.NoError(t, err)
	assert.Len(t, many, 2)

	_, err = decodeImportFile([]byte(`[{"name":"A"},{"name":"B","stars":4}]`))
	assert.ErrorContains(t, err, "document 1")

	_, err = decodeImportFile([]byte("  "))
	assert.Error(t, err)
}

func TestRunImportStopsOnFirstFailure(t *testing.T) {
	docs, err := decodeImportFile([]byte(`[{"name":"A"},{"name":"B"},{"name":"C"}]`))
	require.NoError(t, err)

	svc := &fakeImporter{fail: map[string]bool{"B": true}}
	var out bytes.Buffer
	err = runImport(context.Background(), svc, docs, false, &out)

	assert.Error(t, err)
	assert.Equal(t, []string{"A", "B"}, svc.seen)
}

func TestRunImportContinueOnError(t *testing.T) {
	docs, err := decodeImportFile([]byte(`[{"name":"A"},{"name":"B"},{"name":"C"}]`))
	require.NoError(t, err)

	svc := &fakeImporter{fail: map[string]bool{"B": true}}
	var out bytes.Buffer
	err = runImport(context.Background(), svc, docs, true, &out)

	assert.ErrorContains(t, err, "1 of 3 documents failed")
	assert.Equal(t, []string{"A", "B", "C"}, svc.seen)
	assert.Contains(t, out.String(), "error: failed to create clinic")
}
