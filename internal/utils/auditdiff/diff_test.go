package auditdiff_test

import (
	"testing"

	"github.com/finbooks/finbooks_backend/internal/utils/auditdiff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiff_ChangedField(t *testing.T) {
	before := map[string]interface{}{"name": "Office Rent", "code": "6100"}
	after := map[string]interface{}{"name": "Office Lease", "code": "6100"}

	changes := auditdiff.Diff(before, after, nil)

	require.Len(t, changes, 1)
	assert.Equal(t, "Office Rent", changes["name"].From)
	assert.Equal(t, "Office Lease", changes["name"].To)
}

func TestDiff_NoChanges(t *testing.T) {
	snapshot := map[string]interface{}{"name": "Cash", "isActive": true}
	assert.Nil(t, auditdiff.Diff(snapshot, snapshot, nil))
}

func TestDiff_AddedAndRemovedFields(t *testing.T) {
	before := map[string]interface{}{"old": "value"}
	after := map[string]interface{}{"new": "value"}

	changes := auditdiff.Diff(before, after, nil)

	require.Len(t, changes, 2)
	assert.Equal(t, "value", changes["old"].From)
	assert.Nil(t, changes["old"].To)
	assert.Nil(t, changes["new"].From)
	assert.Equal(t, "value", changes["new"].To)
}

func TestDiff_NilBeforeIsCreation(t *testing.T) {
	after := map[string]interface{}{"name": "New Account"}

	changes := auditdiff.Diff(nil, after, nil)

	require.Len(t, changes, 1)
	assert.Nil(t, changes["name"].From)
	assert.Equal(t, "New Account", changes["name"].To)
}

func TestDiff_ExcludesSensitiveFields(t *testing.T) {
	before := map[string]interface{}{"name": "a", "passwordHash": "x"}
	after := map[string]interface{}{"name": "b", "passwordHash": "y"}

	changes := auditdiff.Diff(before, after, []string{"PasswordHash"})

	require.Len(t, changes, 1)
	_, found := changes["passwordHash"]
	assert.False(t, found)
}
