package report

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"Feedspeed/internal/calc"
	"Feedspeed/internal/calc/drill"
	"Feedspeed/internal/calc/endmill"
	"Feedspeed/internal/calc/thread"
	"Feedspeed/internal/refdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func data(t *testing.T) *refdata.Store {
	t.Helper()
	s, err := refdata.Default()
	require.NoError(t, err)
	return s
}

var day = time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

var threadRequest = thread.Request{
	Series:   "UNC",
	Size:     "1/4-20",
	Class:    "2B",
	Material: "Brass 360",
	Depth:    0.5,
	HoleType: "Blind",
	TapType:  thread.CutTap,
}

func TestBuild_Endmill(t *testing.T) {
	in := Input{
		Kind:    KindEndmill,
		Project: "Bracket",
		Endmill: &endmill.Request{Material: "Aluminum 6061", ToolType: "Bull Nose", Diameter: 0.5, Flutes: 3, Stickout: 1.5, Stepover: 40, Depth: 0.25},
	}
	s, err := Build(in, data(t), day)
	require.NoError(t, err)
	assert.Equal(t, "Milling Setup Sheet", s.Title)
	assert.Contains(t, s.Inputs, Row{"Corner radius", "0.0625 in"})
	assert.Contains(t, s.Inputs, Row{"Stepover", "40%"})
	require.Len(t, s.Outputs, 4)
	assert.Equal(t, "Spindle", s.Outputs[1].Label)
	require.NotEmpty(t, s.Warnings)
}

func TestBuild_Thread(t *testing.T) {
	in := Input{Kind: KindThread, Title: "Tap 1/4-20"}
	_, err := Build(in, data(t), day)
	assert.ErrorIs(t, err, calc.ErrInvalidInput)

	in.Thread = &threadRequest
	s, err := Build(in, data(t), day)
	require.NoError(t, err)
	assert.Equal(t, "Tap 1/4-20", s.Title)
	assert.Contains(t, s.Outputs, Row{"Tap drill", "0.2175 in"})
	assert.Contains(t, s.Outputs, Row{"Minor Diameter", "0.1960 - 0.2070"})
}

func TestBuild_Errors(t *testing.T) {
	_, err := Build(Input{Kind: "lathe"}, data(t), day)
	assert.ErrorIs(t, err, calc.ErrInvalidInput)

	_, err = Build(Input{Kind: KindDrill, Drill: &drill.Request{Material: "Brass 360", Diameter: 0, Flutes: 2}}, data(t), day)
	assert.ErrorIs(t, err, calc.ErrInvalidInput)

	bad := threadRequest
	bad.Series = "M"
	_, err = Build(Input{Kind: KindThread, Thread: &bad}, data(t), day)
	assert.ErrorIs(t, err, refdata.ErrNotFound)
}

func TestRender(t *testing.T) {
	s, err := Build(Input{
		Kind:  KindDrill,
		Notes: "Use coolant through spindle.",
		Drill: &drill.Request{Material: "Stainless 304", Type: "drill", Diameter: 0.125, Flutes: 2, Stickout: 1, Depth: 1, Pecking: true},
	}, data(t), day)
	require.NoError(t, err)
	require.NotEmpty(t, s.Warnings)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, s))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestHandler_Generate(t *testing.T) {
	h := &Handler{Data: data(t), Log: zap.NewNop()}
	body := `{"kind":"thread","project":"Fixture","thread":{"series":"UNC","size":"1/4-20","class":"2B","material":"Brass 360","depth":"0.5","hole_type":"Blind","tap_type":"Cut Tap"}}`
	rec := httptest.NewRecorder()
	h.Generate(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))

	rec = httptest.NewRecorder()
	h.Generate(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"kind":"thread","thread":{"series":"UNC","size":"9/16-12","class":"2B"}}`)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
