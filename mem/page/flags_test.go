package page

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/memkit/memkit/mem"
)

func TestFlags_Predicates(t *testing.T) {
	f := FlagPresent | FlagWritable
	assert.True(t, f.Present())
	assert.True(t, f.Writable())
	assert.False(t, f.UserAccessible())
	assert.False(t, f.NoExecute())
	assert.False(t, f.Compute())
	assert.False(t, f.Encrypted())
	assert.False(t, f.TimingCritical())
}

// TestFromPermissions_Kernel verifies non-executable kernel data gets
// present|writable|no-execute and stays supervisor-only.
func TestFromPermissions_Kernel(t *testing.T) {
	f := FromPermissions(mem.ReadWrite(), false)
	assert.True(t, f.Present())
	assert.True(t, f.Writable())
	assert.False(t, f.UserAccessible())
	assert.True(t, f.NoExecute(), "no execute permission means the NX bit is set")
}

func TestFromPermissions_UserCompute(t *testing.T) {
	f := FromPermissions(mem.ComputeRW(), true)
	assert.True(t, f.Compute())
	assert.True(t, f.UserAccessible())
	assert.True(t, f.Writable())
	assert.True(t, f.NoExecute())
}

func TestFromPermissions_Executable(t *testing.T) {
	f := FromPermissions(mem.ReadExecute(), false)
	assert.True(t, f.Present())
	assert.False(t, f.Writable())
	assert.False(t, f.NoExecute())
}

// TestFlags_PermissionsRoundTrip verifies permissions survive the
// flags encoding for present pages.
func TestFlags_PermissionsRoundTrip(t *testing.T) {
	for _, p := range []mem.Permissions{
		mem.ReadOnly(), mem.ReadWrite(), mem.ReadExecute(), mem.ComputeRW(), mem.AllAccess(),
	} {
		restored := FromPermissions(p, false).Permissions()
		assert.Equal(t, p, restored, "round trip of %s", p)
	}
}

func TestFlags_String(t *testing.T) {
	assert.Equal(t, "none", Flags(0).String())
	assert.Equal(t, "present|writable", (FlagPresent | FlagWritable).String())
	assert.Equal(t, "present|compute|no-execute",
		(FlagPresent | FlagCompute | FlagNoExecute).String())
	assert.Equal(t, "encrypted|timing-critical",
		(FlagEncrypted | FlagTimingCritical).String())
}
