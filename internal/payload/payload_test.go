package payload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlatDocument(t *testing.T) {
	doc, err := Parse([]byte(`{"id":"IDS60901","air_temp":25.5,"state":"SA"}`))
	require.NoError(t, err)

	id, err := doc.StationID()
	require.NoError(t, err)
	assert.Equal(t, "IDS60901", id)
	assert.Equal(t, "SA", doc["state"])
}

func TestParseRejectsNestedValues(t *testing.T) {
	_, err := Parse([]byte(`{"id":"X","wind":{"speed":10}}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFlat)

	_, err = Parse([]byte(`{"id":"X","temps":[1,2]}`))
	assert.ErrorIs(t, err, ErrNotFlat)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse([]byte(`not json at all`))
	assert.Error(t, err)
}

func TestStationIDMissing(t *testing.T) {
	doc, err := Parse([]byte(`{"air_temp":25.5}`))
	require.NoError(t, err)

	_, err = doc.StationID()
	assert.ErrorIs(t, err, ErrMissingID)
}

func TestStationIDMustBeString(t *testing.T) {
	doc, err := Parse([]byte(`{"id":42}`))
	require.NoError(t, err)

	_, err = doc.StationID()
	assert.ErrorIs(t, err, ErrMissingID)
}

func TestEncodeIsDeterministicAndCompact(t *testing.T) {
	doc, err := Parse([]byte(`{"b":"2", "a":"1", "id":"X"}`))
	require.NoError(t, err)

	first, err := doc.Encode()
	require.NoError(t, err)
	second, err := doc.Encode()
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, `{"a":"1","b":"2","id":"X"}`, string(first))
	assert.NotContains(t, string(first), "\n")
}

func TestEncodeKeepsNumbersUnquoted(t *testing.T) {
	doc, err := Parse([]byte(`{"id":"X","air_temp":25.5}`))
	require.NoError(t, err)

	encoded, err := doc.Encode()
	require.NoError(t, err)
	assert.Equal(t, `{"air_temp":25.5,"id":"X"}`, string(encoded))
}

func TestFromFieldsNumericDetection(t *testing.T) {
	doc, err := FromFields(map[string]string{
		"id":       "IDS60901",
		"air_temp": "25.5",
		"pressure": "-13",
		"state":    "SA",
		"wind_dir": "S15",
	})
	require.NoError(t, err)

	encoded, err := doc.Encode()
	require.NoError(t, err)

	got := string(encoded)
	assert.Contains(t, got, `"air_temp":25.5`)
	assert.Contains(t, got, `"pressure":-13`)
	assert.Contains(t, got, `"state":"SA"`)
	assert.Contains(t, got, `"wind_dir":"S15"`)
}

func TestFromFieldsIDStaysString(t *testing.T) {
	// Even an all-digit id must stay a string; it is the storage key.
	doc, err := FromFields(map[string]string{"id": "60901"})
	require.NoError(t, err)

	id, err := doc.StationID()
	require.NoError(t, err)
	assert.Equal(t, "60901", id)
}

func TestFromFieldsRequiresID(t *testing.T) {
	_, err := FromFields(map[string]string{"air_temp": "25.5"})
	assert.ErrorIs(t, err, ErrMissingID)

	_, err = FromFields(map[string]string{"id": "  "})
	assert.ErrorIs(t, err, ErrMissingID)
}

func TestParseAll(t *testing.T) {
	docs, err := ParseAll([]byte(`[{"id":"A","t":1},{"id":"B","t":2}]`))
	require.NoError(t, err)
	require.Len(t, docs, 2)

	single, err := ParseAll([]byte(`{"id":"A"}`))
	require.NoError(t, err)
	require.Len(t, single, 1)

	empty, err := ParseAll(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestLinesSortedOutput(t *testing.T) {
	doc, err := Parse([]byte(`{"id":"X","air_temp":25.5,"state":"SA"}`))
	require.NoError(t, err)

	lines := doc.Lines()
	require.Len(t, lines, 3)
	assert.Equal(t, "air_temp: 25.5", lines[0])
	assert.Equal(t, "id: X", lines[1])
	assert.Equal(t, "state: SA", lines[2])
}
