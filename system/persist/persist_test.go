package persist

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type mockConfig struct {
	bytes   []byte
	applied int
}

func (m *mockConfig) Name() string        { return "MockConfig" }
func (m *mockConfig) Value() []byte       { return m.bytes }
func (m *mockConfig) Load(v []byte) error { m.bytes = v; return nil }
func (m *mockConfig) Apply() error        { m.applied++; return nil }
func (m *mockConfig) Close() error        { return nil }

var _ Registry = &mockConfig{}

func TestDryConfigRoundTrip(t *testing.T) {
	expectedBytes := []byte{1, 2, 3, 4, 5, 6}

	h, err := NewDryConfigHelper()
	require.NoError(t, err)

	m := mockConfig{
		bytes: expectedBytes,
	}
	h.Register(&m)

	require.NoError(t, h.Save())

	m.bytes = nil
	require.NoError(t, h.Load())
	require.EqualValues(t, expectedBytes, m.bytes)

	require.NoError(t, h.Apply())
	require.Equal(t, 1, m.applied)
}
