package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Roudranil/function-calling-with-openai-and-oss-llm/core/extract"
)

// isolate runs the test in an empty directory with no stray configuration.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	t.Setenv("OPENAI_API_KEY", "sk-test-12345")
	t.Setenv("FNCALL_LOG_FORMAT", "compact")
	return dir
}

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestSchemaCommand(t *testing.T) {
	isolate(t)

	stdout, _, err := runCLI(t, "schema", "-o", "json")
	require.NoError(t, err)

	var spec struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Parameters  struct {
			Required   []string                   `json:"required"`
			Properties map[string]json.RawMessage `json:"properties"`
		} `json:"parameters"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &spec))
	assert.Equal(t, "extract_table", spec.Name)
	assert.Equal(t, "Extract the rows of an HTML table as plain text cells.", spec.Description)
	assert.Equal(t, []string{"columns", "rows"}, spec.Parameters.Required)
	assert.Contains(t, spec.Parameters.Properties, "rows")

	stdout, _, err = runCLI(t, "schema")
	require.NoError(t, err)
	assert.Contains(t, stdout, "name: extract_table")

	_, _, err = runCLI(t, "schema", "-o", "xml")
	assert.ErrorContains(t, err, "unknown output format")
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "fncall dev\n"), stdout)
}

func TestConfigCommands(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "fncall.yaml")

	stdout, _, err := runCLI(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "wrote "+path)
	assert.FileExists(t, path)

	_, _, err = runCLI(t, "config", "init", path)
	assert.ErrorContains(t, err, "already exists")

	_, _, err = runCLI(t, "config", "init", path, "--force")
	require.NoError(t, err)

	stdout, _, err = runCLI(t, "config", "show", "-o", "json")
	require.NoError(t, err)
	var shown map[string]map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &shown))
	assert.Equal(t, "sk-t****2345", shown["provider"]["api_key"])
	assert.Equal(t, "gpt-4o-mini", shown["provider"]["model"])
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "", maskSecret(""))
	assert.Equal(t, "****", maskSecret("short"))
	assert.Equal(t, "sk-a****wxyz", maskSecret("sk-abcdefghwxyz"))
}

const laureatesPage = `<html><body><table>
<tr><th>Name</th><th>Year</th></tr>
<tr><td><a href="/ada">Ada</a></td><td>1815</td></tr>
<tr><td>Alan</td><td>1912</td></tr>
<tr><td>Grace</td><td>1906</td></tr>
</table></body></html>`

// fakeLLM serves the table page and a chat-completions endpoint that answers
// each call with the next scripted tool-call arguments.
type fakeLLM struct {
	t         *testing.T
	mu        sync.Mutex
	arguments []string
	// content, when set, is answered as plain assistant text with no tool call.
	content  string
	requests []map[string]any
}

func (f *fakeLLM) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/page":
		_, _ = w.Write([]byte(laureatesPage))
	case "/empty":
		_, _ = w.Write([]byte("<p>nothing</p>"))
	case "/v1/chat/completions":
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		f.mu.Lock()
		f.requests = append(f.requests, body)
		i := min(len(f.requests), len(f.arguments)) - 1
		arguments := f.arguments[i]
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if f.content != "" {
			fmt.Fprintf(w, `{
				"id": "chatcmpl-%d",
				"object": "chat.completion",
				"model": "test-model",
				"choices": [{"index": 0, "message": {"role": "assistant", "content": %q}, "finish_reason": "stop"}]
			}`, i, f.content)
			return
		}
		fmt.Fprintf(w, `{
			"id": "chatcmpl-%d",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "test-model",
			"choices": [{
				"index": 0,
				"message": {
					"role": "assistant",
					"content": null,
					"tool_calls": [{"id": "call_1", "type": "function", "function": {"name": "extract_table", "arguments": %q}}]
				},
				"finish_reason": "tool_calls"
			}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
		}`, i, arguments)
	default:
		http.NotFound(w, r)
	}
}

func TestExtractCommand(t *testing.T) {
	dir := isolate(t)
	llm := &fakeLLM{t: t, arguments: []string{
		`{"columns": ["Name", "Year"], "rows": [["Ada"], ["Alan", "1912"]]}`,
		`{"columns": ["Name", "Year"], "rows": [["Ada", "1815"], ["Alan", "1912"]]}`,
		`{"columns": ["Name", "Year"], "rows": [["Grace", "1906"]]}`,
	}}
	server := httptest.NewServer(llm)
	defer server.Close()

	t.Setenv("FNCALL_PROVIDER_BASE_URL", server.URL+"/v1")
	t.Setenv("FNCALL_PROVIDER_MAX_TRANSPORT_RETRIES", "0")
	t.Setenv("FNCALL_LOG_OBSERVER", "otel")
	t.Setenv("FNCALL_PROVIDER_PRICING_INPUT_COST_PER_MILLION", "1000000")
	t.Setenv("FNCALL_PROVIDER_PRICING_OUTPUT_COST_PER_MILLION", "2000000")
	out := filepath.Join(dir, "laureates.json")

	stdout, stderr, err := runCLI(t, "extract",
		"--url", server.URL+"/page",
		"--out", out,
		"--chunk-size", "2",
		"--model", "local-model",
		"--seed", "7",
		"-o", "json",
	)
	require.NoError(t, err, stderr)

	var summary extractSummary
	require.NoError(t, json.Unmarshal([]byte(stdout), &summary))
	assert.Equal(t, 2, summary.Chunks)
	assert.Equal(t, 3, summary.Rows)
	assert.Equal(t, []string{"Name", "Year"}, summary.Columns)
	assert.Equal(t, 3, summary.Calls)
	assert.Equal(t, 30, summary.Usage.PromptTokens)
	assert.Equal(t, 45, summary.Usage.TotalTokens)
	require.NotNil(t, summary.Cost)
	assert.Equal(t, 60.0, summary.Cost.TotalCost)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var table Table
	require.NoError(t, json.Unmarshal(data, &table))
	assert.Equal(t, [][]string{{"Ada", "1815"}, {"Alan", "1912"}, {"Grace", "1906"}}, table.Rows)
	assert.True(t, strings.HasPrefix(string(data), "{\n    \"columns\""), "saved with four-space indent")

	require.Len(t, llm.requests, 3)
	first := llm.requests[0]
	assert.Equal(t, "local-model", first["model"])
	assert.Equal(t, 7.0, first["seed"])
	assert.Equal(t, map[string]any{"type": "function", "function": map[string]any{"name": "extract_table"}}, first["tool_choice"])

	firstMessages := first["messages"].([]any)
	require.Len(t, firstMessages, 2, "system prompt and chunk")
	chunk := firstMessages[1].(map[string]any)["content"].(string)
	assert.Contains(t, chunk, "<tr><th>Name</th><th>Year</th></tr>")
	assert.Contains(t, chunk, "<tr><td>Ada</td><td>1815</td></tr>")
	assert.NotContains(t, chunk, "Grace")

	retry := llm.requests[1]["messages"].([]any)
	require.Len(t, retry, 4, "system, chunk, replayed answer, correction")
	correction := retry[3].(map[string]any)["content"].(string)
	assert.True(t, strings.HasPrefix(correction, "Recall the function correctly, exceptions found\n"))
	assert.Contains(t, correction, "rows.0")

	assert.Contains(t, stderr, "name=extraction.attempts")
	assert.Contains(t, stderr, "extraction finished calls=3 total_tokens=45")
}

func TestExtractCommand_NoTable(t *testing.T) {
	isolate(t)
	server := httptest.NewServer(&fakeLLM{t: t, arguments: []string{`{}`}})
	defer server.Close()
	t.Setenv("FNCALL_PROVIDER_BASE_URL", server.URL+"/v1")

	_, _, err := runCLI(t, "extract", "--url", server.URL+"/empty")
	assert.ErrorIs(t, err, errNoRows)
}

func TestExtractCommand_ContentAnswerIsNotAnInvocation(t *testing.T) {
	isolate(t)
	llm := &fakeLLM{t: t, arguments: []string{`{}`}, content: `{"name": "Ada", "age": 5}`}
	server := httptest.NewServer(llm)
	defer server.Close()
	t.Setenv("FNCALL_PROVIDER_BASE_URL", server.URL+"/v1")
	t.Setenv("FNCALL_PROVIDER_MAX_TRANSPORT_RETRIES", "0")

	_, _, err := runCLI(t, "extract", "--url", server.URL+"/page")
	var noCall *extract.NoInvocationError
	require.ErrorAs(t, err, &noCall)
	assert.Equal(t, "extract_table", noCall.Name)
	var mismatch *extract.NameMismatchError
	assert.False(t, errors.As(err, &mismatch))
	assert.Len(t, llm.requests, 1, "not retried")
}

func TestExtractCommand_RequiresURL(t *testing.T) {
	isolate(t)
	_, _, err := runCLI(t, "extract")
	assert.ErrorContains(t, err, `required flag(s) "url" not set`)
}
