package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/pubmed-mcp/internal/domain"
)

// fakeEUtils answers esearch, esummary and efetch with fixed documents.
func fakeEUtils(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/esearch.fcgi"):
			_, _ = w.Write([]byte(`{"esearchresult": {"idlist": ["11", "12"]}}`))
		case strings.HasSuffix(r.URL.Path, "/esummary.fcgi"):
			_, _ = w.Write([]byte(`{"result": {"uids": ["11", "12"],
				"11": {"uid": "11", "title": "Eleven", "fulljournalname": "Journal", "pubdate": "2021"},
				"12": {"uid": "12", "title": "Twelve", "source": "J", "pubdate": "2022 Mar"}}}`))
		case strings.HasSuffix(r.URL.Path, "/efetch.fcgi"):
			_, _ = w.Write([]byte(`<PubmedArticleSet><PubmedArticle><MedlineCitation><Article>
				<Journal><JournalIssue><PubDate><Year>2021</Year></PubDate></JournalIssue><Title>Journal</Title></Journal>
				<ArticleTitle>Eleven &amp; more</ArticleTitle>
				<Abstract><AbstractText>Body</AbstractText></Abstract>
			</Article></MedlineCitation></PubmedArticle></PubmedArticleSet>`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func setupEnv(t *testing.T, baseURL string) {
	t.Helper()
	for _, env := range os.Environ() {
		key, _, _ := strings.Cut(env, "=")
		if strings.HasPrefix(key, "PUBMEDMCP_") {
			t.Setenv(key, "")
		}
	}
	for _, key := range []string{"PORT", "NCBI_TOOL", "NCBI_EMAIL", "NCBI_API_KEY"} {
		t.Setenv(key, "")
	}
	t.Setenv("PUBMEDMCP_NCBI_BASE_URL", baseURL)
	t.Setenv("PUBMEDMCP_NCBI_THROTTLE", "none")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	root := newRootCmd()
	root.SetOut(buf)
	root.SetErr(new(bytes.Buffer))
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestSearchCommand(t *testing.T) {
	server := fakeEUtils(t)
	setupEnv(t, server.URL)

	out, err := execute(t, "search", "gene", "editing", "--retmax", "2")
	require.NoError(t, err)

	var resp domain.SearchResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "11", resp.Results[0].ID)
	assert.Equal(t, "Eleven / Journal / 2021", resp.Results[0].Text)
	assert.Equal(t, "J", resp.Results[1].Metadata.Journal)
}

func TestSearchCommand_NegativeRetMax(t *testing.T) {
	server := fakeEUtils(t)
	setupEnv(t, server.URL)

	_, err := execute(t, "search", "q", "--retmax", "-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--retmax")
}

func TestSearchCommand_RetMax(t *testing.T) {
	tests := []struct {
		name string
		args []string
		env  string
		want string
	}{
		{name: "omitted uses configured default", args: []string{"search", "q"}, env: "15", want: "15"},
		{name: "explicit zero is sent", args: []string{"search", "q", "--retmax", "0"}, env: "15", want: "0"},
		{name: "explicit value is sent", args: []string{"search", "q", "--retmax", "3"}, env: "15", want: "3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.URL.Query().Get("retmax")
				_, _ = w.Write([]byte(`{"esearchresult": {"idlist": []}}`))
			}))
			defer server.Close()
			setupEnv(t, server.URL)
			t.Setenv("PUBMEDMCP_NCBI_DEFAULT_RETMAX", tt.env)

			out, err := execute(t, tt.args...)
			require.NoError(t, err)
			assert.JSONEq(t, `{"results": []}`, out)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSearchCommand_RequiresQuery(t *testing.T) {
	_, err := execute(t, "search")
	require.Error(t, err)
}

func TestFetchCommand(t *testing.T) {
	server := fakeEUtils(t)
	setupEnv(t, server.URL)

	t.Run("envelope", func(t *testing.T) {
		out, err := execute(t, "fetch", "11")
		require.NoError(t, err)

		var resp domain.FetchResponse
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		require.Len(t, resp.Content, 1)
		assert.Equal(t, "text", resp.Content[0].Type)
		assert.Contains(t, resp.Content[0].Text, `"title":"Eleven & more"`)
	})

	t.Run("record", func(t *testing.T) {
		out, err := execute(t, "fetch", "11", "--record")
		require.NoError(t, err)
		assert.Contains(t, out, `"title": "Eleven & more"`)

		var record domain.FetchRecord
		require.NoError(t, json.Unmarshal([]byte(out), &record))
		assert.Equal(t, "Journal (2021)\n\nBody", record.Text)
	})

	t.Run("blank pmid", func(t *testing.T) {
		_, err := execute(t, "fetch", " ")
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	for _, field := range []string{"pubmedctl", "commit:", "built:", "go version:"} {
		assert.Contains(t, out, field)
	}
}
