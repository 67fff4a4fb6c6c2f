package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	svc := NewService()

	out, err := svc.Render("## Leg Day\n\n- Back Squat 4x8\n- Lunges 3x12\n")

	require.NoError(t, err)
	assert.Contains(t, out, "<h2>Leg Day</h2>")
	assert.Contains(t, out, "<li>Back Squat 4x8</li>")
}

func TestRender_Table(t *testing.T) {
	svc := NewService()

	out, err := svc.Render("| Exercise | Sets |\n| --- | --- |\n| Squat | 4 |\n")

	require.NoError(t, err)
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<td>Squat</td>")
}

func TestRender_RawHTMLIsNotPassedThrough(t *testing.T) {
	svc := NewService()

	out, err := svc.Render(`before <script>alert("x")</script> after`)

	require.NoError(t, err)
	assert.NotContains(t, out, "<script>")
}

func TestRender_HardWraps(t *testing.T) {
	svc := NewService(WithHardWraps())

	out, err := svc.Render("line one\nline two")

	require.NoError(t, err)
	assert.Contains(t, out, "<br")
}
