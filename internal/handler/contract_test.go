package handler_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"
)

func compileSchema(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()

	absPath, err := filepath.Abs(filepath.Join("testdata", name))
	require.NoError(t, err)

	schema, err := jsonschema.NewCompiler().Compile("file://" + filepath.ToSlash(absPath))
	require.NoError(t, err)
	return schema
}

func TestProcessTranscriptResponseContract(t *testing.T) {
	schema := compileSchema(t, "transcript_response.schema.json")

	cases := map[string]bool{
		"model feedback":       false,
		"placeholder feedback": true,
	}

	for name, failing := range cases {
		t.Run(name, func(t *testing.T) {
			generator := &switchableGenerator{questions: sampleQuestions}
			app, _ := newTestApp(t, generator)

			resp, _ := doJSON(t, app, http.MethodPost, "/api/vapi/generate", map[string]interface{}{
				"role": "Backend Developer", "type": "mixed", "level": "senior", "techstack": "Go", "amount": 2, "userId": 11,
			}, nil)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			if failing {
				generator.evaluationErr = io.ErrUnexpectedEOF
			}

			body := `{"userId":"11","transcript":[{"role":"assistant","text":"Why Go?"},{"role":"user","text":"<b>Simplicity</b>"}]}`
			req := httptest.NewRequest(http.MethodPost, "/api/vapi/process-transcript", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")

			res, err := app.Test(req, -1)
			require.NoError(t, err)
			require.Equal(t, http.StatusOK, res.StatusCode)

			var payload interface{}
			require.NoError(t, json.NewDecoder(res.Body).Decode(&payload))
			require.NoError(t, schema.Validate(payload))
		})
	}
}
